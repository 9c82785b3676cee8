package customers

import "time"

type Customer struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

package warehouses

import "time"

type Warehouse struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

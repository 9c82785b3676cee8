package products

import "time"

// Unit — фиксированный набор единиц измерения.
type Unit int

const (
	UnitPcs Unit = iota
	UnitKg
	UnitL
	UnitM
)

func (u Unit) Valid() bool { return u >= UnitPcs && u <= UnitM }

func (u Unit) String() string {
	switch u {
	case UnitPcs:
		return "pcs"
	case UnitKg:
		return "kg"
	case UnitL:
		return "l"
	case UnitM:
		return "m"
	}
	return "pcs"
}

type Product struct {
	ID          int64
	Name        string
	Unit        Unit
	WarehouseID int64
	CreatedAt   time.Time
}

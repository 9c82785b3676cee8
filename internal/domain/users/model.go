package users

import "time"

// Role — старое одиночное поле роли, оставлено для совместимости.
type Role string

const (
	RoleUser        Role = "user"
	RoleAdmin       Role = "admin"
	RoleDeputy      Role = "deputy"
	RoleStorekeeper Role = "storekeeper"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusBlocked Status = "blocked"
)

// Capability — битовая маска прав. Канонический источник истины о роли;
// одиночный Role лишь зеркалирует последнюю выданную повышенную роль.
type Capability uint8

const (
	CapMember Capability = 1 << iota
	CapAdmin
	CapDeputy
	CapStorekeeper
)

type User struct {
	ChatID      int64
	Username    string
	FullName    string
	Role        Role
	Caps        Capability
	Status      Status
	Language    string // пусто = язык ещё не выбран
	WarehouseID int64  // 0 = склад не привязан
	CreatedAt   time.Time
}

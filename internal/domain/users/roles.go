package users

// Resolve возвращает действующий набор прав пользователя. Если маска пуста,
// набор выводится из старого одиночного поля роли; changed=true означает,
// что вычисленное значение надо записать обратно (ленивая миграция).
// Базовый бит Member присутствует всегда.
func Resolve(u *User) (caps Capability, changed bool) {
	caps = u.Caps
	if caps == 0 {
		switch u.Role {
		case RoleAdmin:
			caps = CapAdmin
		case RoleDeputy:
			caps = CapDeputy
		case RoleStorekeeper:
			caps = CapStorekeeper
		}
	}
	caps |= CapMember
	return caps, caps != u.Caps
}

func (c Capability) Has(bit Capability) bool { return c&bit != 0 }

// IsElevated — любая роль выше обычного участника.
func (c Capability) IsElevated() bool {
	return c.Has(CapAdmin | CapDeputy | CapStorekeeper)
}

func (c Capability) CanManageUsers() bool {
	return c.Has(CapAdmin | CapDeputy)
}

// CanGrantAdminOrDeputy: заместитель может назначить только кладовщика,
// заместителей и админов назначает только админ.
func (c Capability) CanGrantAdminOrDeputy() bool {
	return c.Has(CapAdmin)
}

// CanManageMasterData — склады и клиенты. Доступ заместителя — вопрос
// политики, поэтому параметр, а не константа.
func (c Capability) CanManageMasterData(allowDeputy bool) bool {
	if c.Has(CapAdmin) {
		return true
	}
	return allowDeputy && c.Has(CapDeputy)
}

// Grant добавляет право к маске пользователя и активирует его.
// Для кладовщика склад должен быть выбран заранее и привязывается
// одновременно с ролью.
func Grant(u *User, cap Capability, warehouseID int64) {
	u.Caps |= cap | CapMember
	u.Status = StatusActive
	switch cap {
	case CapAdmin:
		u.Role = RoleAdmin
	case CapDeputy:
		u.Role = RoleDeputy
	case CapStorekeeper:
		u.Role = RoleStorekeeper
		u.WarehouseID = warehouseID
	}
}

// LegacyName — имя роли для уведомлений и зеркала в старое поле.
func LegacyName(cap Capability) Role {
	switch cap {
	case CapAdmin:
		return RoleAdmin
	case CapDeputy:
		return RoleDeputy
	case CapStorekeeper:
		return RoleStorekeeper
	}
	return RoleUser
}

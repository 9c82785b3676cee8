package dialog

type State string

const (
	StateIdle State = "idle"

	// Выбор языка
	StateAwaitLanguage State = "await_language"

	// Пароль
	StateAwaitInitialPassword State = "await_initial_password" // первичная установка
	StateAwaitEntryPassword   State = "await_entry_password"   // вход в панель
	StateAwaitOldPassword     State = "await_old_password"     // смена: старый
	StateAwaitNewPassword     State = "await_new_password"     // смена: новый

	// Справочники
	StateAwaitWarehouseName State = "await_warehouse_name"
	StateAwaitCustomerName  State = "await_customer_name"

	// Товары: имя вводится текстом, единица — кнопкой
	StateAwaitProductName State = "await_product_name"
	StateAwaitUnitChoice  State = "await_unit_choice"

	// Назначение ролей
	StateBrowsePending State = "browse_pending"
	StatePickRole      State = "pick_role"
	StatePickWarehouse State = "pick_warehouse"
)

// Session — состояние диалога одного чата. Живёт только в памяти процесса;
// при рестарте всё сбрасывается.
type Session struct {
	State State

	// Чат пользователя, которому админ назначает роль.
	PendingTarget int64

	// Введённое имя товара, ждущее выбора единицы измерения.
	StagedName string

	// Сообщение-якорь: текущая интерактивная панель, которую
	// редактируем на месте вместо отправки новых сообщений.
	AnchorID int
}

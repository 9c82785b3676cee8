package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aminovm/inventory-bot/internal/dialog"
	"github.com/aminovm/inventory-bot/internal/domain/customers"
	"github.com/aminovm/inventory-bot/internal/domain/products"
	"github.com/aminovm/inventory-bot/internal/domain/users"
	"github.com/aminovm/inventory-bot/internal/domain/warehouses"
	"github.com/aminovm/inventory-bot/internal/i18n"
)

/*** FAKES ***/

type sentText struct {
	chatID int64
	text   string
}

type fakeAPI struct {
	mu        sync.Mutex
	sent      []tgbotapi.Chattable
	requested []tgbotapi.Chattable
	nextID    int
	failEdits bool
}

func (a *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := c.(tgbotapi.EditMessageTextConfig); ok && a.failEdits {
		return tgbotapi.Message{}, errors.New("Bad Request: message to edit not found")
	}
	a.sent = append(a.sent, c)
	a.nextID++
	return tgbotapi.Message{MessageID: a.nextID}, nil
}

func (a *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requested = append(a.requested, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (a *fakeAPI) GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	ch := make(chan tgbotapi.Update)
	return ch
}

func (a *fakeAPI) texts(chatID int64) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, c := range a.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			if m.ChatID == chatID {
				out = append(out, m.Text)
			}
		case tgbotapi.EditMessageTextConfig:
			if m.ChatID == chatID {
				out = append(out, m.Text)
			}
		}
	}
	return out
}

func (a *fakeAPI) hasText(chatID int64, sub string) bool {
	for _, t := range a.texts(chatID) {
		if strings.Contains(t, sub) {
			return true
		}
	}
	return false
}

func (a *fakeAPI) lastAlert() (tgbotapi.CallbackConfig, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := len(a.requested) - 1; i >= 0; i-- {
		if cb, ok := a.requested[i].(tgbotapi.CallbackConfig); ok && cb.ShowAlert {
			return cb, true
		}
	}
	return tgbotapi.CallbackConfig{}, false
}

func (a *fakeAPI) deletes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.requested {
		if _, ok := c.(tgbotapi.DeleteMessageConfig); ok {
			n++
		}
	}
	return n
}

type memUsers struct {
	byID    map[int64]users.User
	updates int
}

func newMemUsers() *memUsers { return &memUsers{byID: map[int64]users.User{}} }

func (m *memUsers) GetByChatID(ctx context.Context, chatID int64) (*users.User, error) {
	u, ok := m.byID[chatID]
	if !ok {
		return nil, nil
	}
	cp := u
	return &cp, nil
}

func (m *memUsers) Add(ctx context.Context, u *users.User) error {
	u.CreatedAt = time.Now()
	m.byID[u.ChatID] = *u
	return nil
}

func (m *memUsers) Update(ctx context.Context, u *users.User) error {
	m.byID[u.ChatID] = *u
	m.updates++
	return nil
}

func (m *memUsers) ListPending(ctx context.Context) ([]users.User, error) {
	var out []users.User
	for _, u := range m.byID {
		if u.Status == users.StatusPending {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUsers) ListAll(ctx context.Context) ([]users.User, error) {
	var out []users.User
	for _, u := range m.byID {
		out = append(out, u)
	}
	return out, nil
}

// Намеренно без проверки уникальности: дубликаты отсекает обработчик.
type memWarehouses struct {
	items  []warehouses.Warehouse
	nextID int64
}

func (m *memWarehouses) Create(ctx context.Context, name string) (*warehouses.Warehouse, error) {
	m.nextID++
	w := warehouses.Warehouse{ID: m.nextID, Name: name, CreatedAt: time.Now()}
	m.items = append(m.items, w)
	return &w, nil
}

func (m *memWarehouses) GetByID(ctx context.Context, id int64) (*warehouses.Warehouse, error) {
	for _, w := range m.items {
		if w.ID == id {
			cp := w
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memWarehouses) GetByName(ctx context.Context, name string) (*warehouses.Warehouse, error) {
	for _, w := range m.items {
		if w.Name == name {
			cp := w
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memWarehouses) List(ctx context.Context) ([]warehouses.Warehouse, error) {
	return append([]warehouses.Warehouse(nil), m.items...), nil
}

type memCustomers struct {
	items  []customers.Customer
	nextID int64
}

func (m *memCustomers) Create(ctx context.Context, name string) (*customers.Customer, error) {
	m.nextID++
	c := customers.Customer{ID: m.nextID, Name: name, CreatedAt: time.Now()}
	m.items = append(m.items, c)
	return &c, nil
}

func (m *memCustomers) GetByName(ctx context.Context, name string) (*customers.Customer, error) {
	for _, c := range m.items {
		if c.Name == name {
			cp := c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memCustomers) List(ctx context.Context) ([]customers.Customer, error) {
	return append([]customers.Customer(nil), m.items...), nil
}

type memProducts struct {
	items []products.Product
}

func (m *memProducts) Create(ctx context.Context, name string, unit products.Unit, warehouseID int64) (*products.Product, error) {
	p := products.Product{ID: int64(len(m.items) + 1), Name: name, Unit: unit, WarehouseID: warehouseID}
	m.items = append(m.items, p)
	return &p, nil
}

func (m *memProducts) ListByWarehouse(ctx context.Context, warehouseID int64) ([]products.Product, error) {
	var out []products.Product
	for _, p := range m.items {
		if p.WarehouseID == warehouseID {
			out = append(out, p)
		}
	}
	return out, nil
}

type memConfig struct {
	vals map[string]string
}

func newMemConfig() *memConfig { return &memConfig{vals: map[string]string{}} }

func (m *memConfig) Value(ctx context.Context, key string) (string, error) {
	return m.vals[key], nil
}

func (m *memConfig) SetValue(ctx context.Context, key, value string) error {
	m.vals[key] = value
	return nil
}

/*** FIXTURE ***/

type fixture struct {
	bot   *Bot
	api   *fakeAPI
	users *memUsers
	whs   *memWarehouses
	custs *memCustomers
	prods *memProducts
	cfg   *memConfig
}

func newFixture(deputyMasterData bool) *fixture {
	f := &fixture{
		api:   &fakeAPI{},
		users: newMemUsers(),
		whs:   &memWarehouses{},
		custs: &memCustomers{},
		prods: &memProducts{},
		cfg:   newMemConfig(),
	}
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	f.bot = New(f.api, log, dialog.NewStore(), f.users, f.whs, f.custs, f.prods, f.cfg, deputyMasterData)
	return f
}

func (f *fixture) seedUser(chatID int64, role users.Role, lang string, status users.Status, warehouseID int64) {
	f.users.byID[chatID] = users.User{
		ChatID: chatID, FullName: "User", Role: role,
		Status: status, Language: lang, WarehouseID: warehouseID,
		CreatedAt: time.Now(),
	}
}

// seedAdmin заводит активного админа с открытой сессией.
func (f *fixture) seedAdmin(chatID int64, lang string) {
	f.seedUser(chatID, users.RoleAdmin, lang, users.StatusActive, 0)
	f.bot.states.MarkAuthenticated(chatID)
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 777,
		Text:      text,
		Chat:      &tgbotapi.Chat{ID: chatID, FirstName: "Test"},
	}
	if strings.HasPrefix(text, "/") {
		cmd := strings.Fields(text)[0]
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return tgbotapi.Update{Message: msg}
}

func cbUpdate(chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    data,
		Message: &tgbotapi.Message{MessageID: 1, Chat: &tgbotapi.Chat{ID: chatID}},
	}}
}

/*** TESTS ***/

func TestFirstContactForcesLanguageChoice(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()

	f.bot.handleUpdate(ctx, textUpdate(10, "/start"))

	u := f.users.byID[10]
	if u.Status != users.StatusPending {
		t.Fatalf("auto-provisioned status = %s", u.Status)
	}
	if !f.api.hasText(10, i18n.Text("Welcome", i18n.Fallback)) {
		t.Fatal("welcome panel not shown")
	}
	if st := f.bot.states.Get(10).State; st != dialog.StateAwaitLanguage {
		t.Fatalf("state = %s", st)
	}

	f.bot.handleUpdate(ctx, cbUpdate(10, "lang_ru"))

	if got := f.users.byID[10].Language; got != "ru" {
		t.Fatalf("language = %q", got)
	}
	if st := f.bot.states.Get(10).State; st != dialog.StateIdle {
		t.Fatalf("state after language = %s", st)
	}
}

func TestNonLanguageCallbackBlockedUntilLanguageChosen(t *testing.T) {
	f := newFixture(false)
	f.seedUser(10, users.RoleAdmin, "", users.StatusActive, 0)
	f.bot.states.MarkAuthenticated(10)

	f.bot.handleUpdate(context.Background(), cbUpdate(10, "admin_show_waiting"))

	if !f.api.hasText(10, i18n.Text("Welcome", i18n.Fallback)) {
		t.Fatal("expected redirect to language choice")
	}
}

func TestPasswordBootstrap(t *testing.T) {
	f := newFixture(false)
	f.seedUser(10, users.RoleUser, "ru", users.StatusPending, 0)
	ctx := context.Background()

	f.bot.handleUpdate(ctx, textUpdate(10, "/admin"))
	if st := f.bot.states.Get(10).State; st != dialog.StateAwaitInitialPassword {
		t.Fatalf("state = %s", st)
	}
	if !f.api.hasText(10, i18n.Text("EnterPassword", "ru")) {
		t.Fatal("initial password prompt missing")
	}

	f.bot.handleUpdate(ctx, textUpdate(10, "s3cret"))

	if got := f.cfg.vals["admin_password"]; got != "s3cret" {
		t.Fatalf("stored password = %q", got)
	}
	u := f.users.byID[10]
	if !u.Caps.Has(users.CapAdmin) || u.Status != users.StatusActive {
		t.Fatalf("bootstrap user not promoted: %+v", u)
	}
	if !f.bot.states.IsAuthenticated(10) {
		t.Fatal("bootstrap chat must be authenticated")
	}
	if !f.api.hasText(10, i18n.Text("AdminPanel", "ru")) {
		t.Fatal("admin panel not shown")
	}
	if f.api.deletes() == 0 {
		t.Fatal("password input must be deleted from the chat")
	}
}

func TestWrongEntryPasswordDropsState(t *testing.T) {
	f := newFixture(false)
	f.seedUser(10, users.RoleAdmin, "ru", users.StatusActive, 0)
	f.cfg.vals["admin_password"] = "pw1"
	ctx := context.Background()

	f.bot.handleUpdate(ctx, textUpdate(10, "/admin"))
	if st := f.bot.states.Get(10).State; st != dialog.StateAwaitEntryPassword {
		t.Fatalf("state = %s", st)
	}

	f.bot.handleUpdate(ctx, textUpdate(10, "nope"))

	if f.bot.states.IsAuthenticated(10) {
		t.Fatal("wrong password must not authenticate")
	}
	if st := f.bot.states.Get(10).State; st != dialog.StateIdle {
		t.Fatalf("state after wrong password = %s", st)
	}
	if !f.api.hasText(10, i18n.Text("WrongPassword", "ru")) {
		t.Fatal("wrong password notice missing")
	}
	if f.api.deletes() == 0 {
		t.Fatal("wrong input must still be deleted")
	}
}

func TestChangePasswordRejectsSameValue(t *testing.T) {
	f := newFixture(false)
	f.seedAdmin(10, "ru")
	f.cfg.vals["admin_password"] = "old"
	ctx := context.Background()

	f.bot.handleUpdate(ctx, cbUpdate(10, "admin_change_pass"))
	if st := f.bot.states.Get(10).State; st != dialog.StateAwaitOldPassword {
		t.Fatalf("state = %s", st)
	}

	f.bot.handleUpdate(ctx, textUpdate(10, "old"))
	if st := f.bot.states.Get(10).State; st != dialog.StateAwaitNewPassword {
		t.Fatalf("state = %s", st)
	}

	// Совпадение со старым паролем не сбрасывает шаг.
	f.bot.handleUpdate(ctx, textUpdate(10, "old"))
	if st := f.bot.states.Get(10).State; st != dialog.StateAwaitNewPassword {
		t.Fatalf("state after same password = %s", st)
	}
	if !f.api.hasText(10, i18n.Text("SamePassword", "ru")) {
		t.Fatal("same password notice missing")
	}

	f.bot.handleUpdate(ctx, textUpdate(10, "fresh"))
	if got := f.cfg.vals["admin_password"]; got != "fresh" {
		t.Fatalf("password = %q", got)
	}
	if !f.api.hasText(10, i18n.Text("PassChanged", "ru")) {
		t.Fatal("confirmation missing")
	}
}

func TestDuplicateWarehouseNameRejected(t *testing.T) {
	f := newFixture(false)
	f.seedAdmin(10, "ru")
	ctx := context.Background()

	f.bot.handleUpdate(ctx, cbUpdate(10, "wh_add"))
	f.bot.handleUpdate(ctx, textUpdate(10, "Главный склад"))
	if len(f.whs.items) != 1 {
		t.Fatalf("warehouses = %d", len(f.whs.items))
	}

	f.bot.handleUpdate(ctx, cbUpdate(10, "wh_add"))
	f.bot.handleUpdate(ctx, textUpdate(10, "Главный склад"))

	if len(f.whs.items) != 1 {
		t.Fatalf("duplicate created, warehouses = %d", len(f.whs.items))
	}
	if !f.api.hasText(10, "Главный склад") {
		t.Fatal("duplicate notice missing")
	}
	if st := f.bot.states.Get(10).State; st != dialog.StateIdle {
		t.Fatalf("state after duplicate = %s", st)
	}
}

func TestEmptyNameRepromptsWithoutLeavingState(t *testing.T) {
	f := newFixture(false)
	f.seedAdmin(10, "ru")
	ctx := context.Background()

	f.bot.handleUpdate(ctx, cbUpdate(10, "cust_add"))
	f.bot.handleUpdate(ctx, textUpdate(10, "   "))

	if len(f.custs.items) != 0 {
		t.Fatal("blank name must not create a record")
	}
	if st := f.bot.states.Get(10).State; st != dialog.StateAwaitCustomerName {
		t.Fatalf("state = %s", st)
	}
}

func TestStorekeeperGrantRequiresWarehouse(t *testing.T) {
	f := newFixture(false)
	f.seedAdmin(10, "ru")
	f.seedUser(20, users.RoleUser, "ru", users.StatusPending, 0)
	ctx := context.Background()

	f.bot.handleUpdate(ctx, cbUpdate(10, "set_role_20_storekeeper"))

	if !f.api.hasText(10, i18n.Text("NoWarehouses", "ru")) {
		t.Fatal("expected no-warehouses refusal")
	}
	if got := f.users.byID[20]; got.Status != users.StatusPending {
		t.Fatalf("target must stay pending: %+v", got)
	}
	if f.bot.states.Get(10).PendingTarget != 0 {
		t.Fatal("pending target must be cleared")
	}
}

func TestStorekeeperGrantBindsWarehouseAndNotifies(t *testing.T) {
	f := newFixture(false)
	f.seedAdmin(10, "ru")
	f.seedUser(20, users.RoleUser, "en", users.StatusPending, 0)
	_, _ = f.whs.Create(context.Background(), "Центр")
	ctx := context.Background()

	f.bot.handleUpdate(ctx, cbUpdate(10, "user_select_20"))
	if f.bot.states.Get(10).PendingTarget != 20 {
		t.Fatal("target not staged")
	}

	f.bot.handleUpdate(ctx, cbUpdate(10, "set_role_20_storekeeper"))
	if st := f.bot.states.Get(10).State; st != dialog.StatePickWarehouse {
		t.Fatalf("state = %s", st)
	}

	f.bot.handleUpdate(ctx, cbUpdate(10, "assign_wh_1"))

	got := f.users.byID[20]
	if got.Role != users.RoleStorekeeper || got.WarehouseID != 1 || got.Status != users.StatusActive {
		t.Fatalf("grant incomplete: %+v", got)
	}
	// Назначенный уведомляется на своём языке, не на языке админа.
	want := i18n.Text("YourRoleUpdated", "en", i18n.Text("Role_storekeeper", "en"))
	if !f.api.hasText(20, want) {
		t.Fatalf("target notification missing: %v", f.api.texts(20))
	}
	if f.bot.states.Get(10).PendingTarget != 0 {
		t.Fatal("target must be cleared after grant")
	}
}

func TestDeputyCannotGrantAdmin(t *testing.T) {
	f := newFixture(false)
	f.seedUser(11, users.RoleDeputy, "ru", users.StatusActive, 0)
	f.bot.states.MarkAuthenticated(11)
	f.seedUser(21, users.RoleUser, "ru", users.StatusPending, 0)

	f.bot.handleUpdate(context.Background(), cbUpdate(11, "set_role_21_admin"))

	alert, ok := f.api.lastAlert()
	if !ok {
		t.Fatal("expected access denied alert")
	}
	if alert.Text != i18n.Text("AccessDenied", "ru") {
		t.Fatalf("alert = %q", alert.Text)
	}
	if got := f.users.byID[21]; got.Role != users.RoleUser {
		t.Fatalf("target must stay untouched: %+v", got)
	}
}

func TestAdminCallbacksRequireOpenSession(t *testing.T) {
	f := newFixture(false)
	f.seedUser(10, users.RoleAdmin, "ru", users.StatusActive, 0)
	// Пароль в этом запуске не вводился.

	f.bot.handleUpdate(context.Background(), cbUpdate(10, "admin_show_waiting"))

	if _, ok := f.api.lastAlert(); !ok {
		t.Fatal("expected access denied alert without session")
	}
}

func TestDeputyMasterDataPolicy(t *testing.T) {
	f := newFixture(false)
	f.seedUser(11, users.RoleDeputy, "ru", users.StatusActive, 0)
	f.bot.states.MarkAuthenticated(11)

	f.bot.handleUpdate(context.Background(), cbUpdate(11, "menu_warehouses"))
	if _, ok := f.api.lastAlert(); !ok {
		t.Fatal("deputy must be refused with policy off")
	}

	open := newFixture(true)
	open.seedUser(11, users.RoleDeputy, "ru", users.StatusActive, 0)
	open.bot.states.MarkAuthenticated(11)

	open.bot.handleUpdate(context.Background(), cbUpdate(11, "menu_warehouses"))
	if !open.api.hasText(11, i18n.Text("WarehousesMenu", "ru")) {
		t.Fatal("deputy must see warehouses menu with policy on")
	}
}

func TestProductTwoStepCreation(t *testing.T) {
	f := newFixture(false)
	_, _ = f.whs.Create(context.Background(), "Центр")
	f.seedUser(30, users.RoleStorekeeper, "ru", users.StatusActive, 1)
	ctx := context.Background()

	f.bot.handleUpdate(ctx, textUpdate(30, "/start"))
	if !f.api.hasText(30, "Центр") {
		t.Fatal("storekeeper panel must name the bound warehouse")
	}

	f.bot.handleUpdate(ctx, cbUpdate(30, "menu_add_product"))
	if st := f.bot.states.Get(30).State; st != dialog.StateAwaitProductName {
		t.Fatalf("state = %s", st)
	}

	f.bot.handleUpdate(ctx, textUpdate(30, "Сахар"))
	st := f.bot.states.Get(30)
	if st.State != dialog.StateAwaitUnitChoice || st.StagedName != "Сахар" {
		t.Fatalf("staging broken: %+v", st)
	}
	if len(f.prods.items) != 0 {
		t.Fatal("product must not exist before unit choice")
	}

	f.bot.handleUpdate(ctx, cbUpdate(30, "set_unit_1"))

	if len(f.prods.items) != 1 {
		t.Fatalf("products = %d", len(f.prods.items))
	}
	p := f.prods.items[0]
	if p.Name != "Сахар" || p.Unit != products.UnitKg || p.WarehouseID != 1 {
		t.Fatalf("product = %+v", p)
	}
	after := f.bot.states.Get(30)
	if after.State != dialog.StateIdle || after.StagedName != "" {
		t.Fatalf("session not cleared: %+v", after)
	}
}

func TestStaleUnitChoiceExpires(t *testing.T) {
	f := newFixture(false)
	f.seedUser(30, users.RoleStorekeeper, "ru", users.StatusActive, 1)

	f.bot.handleUpdate(context.Background(), cbUpdate(30, "set_unit_0"))

	alert, ok := f.api.lastAlert()
	if !ok || alert.Text != i18n.Text("SessionExpired", "ru") {
		t.Fatalf("expected expired-session alert, got %+v ok=%v", alert, ok)
	}
	if len(f.prods.items) != 0 {
		t.Fatal("no product may be created")
	}
}

func TestTextInStateIsNeverReinterpretedAsCommand(t *testing.T) {
	f := newFixture(false)
	f.seedAdmin(10, "ru")
	ctx := context.Background()

	f.bot.handleUpdate(ctx, cbUpdate(10, "wh_add"))
	f.bot.handleUpdate(ctx, textUpdate(10, "/start"))

	// Текст съеден состоянием: появился склад "/start", а не ответ на команду.
	if len(f.whs.items) != 1 || f.whs.items[0].Name != "/start" {
		t.Fatalf("warehouses = %+v", f.whs.items)
	}
}

func TestAnchorEditFailureFallsBackToFreshMessage(t *testing.T) {
	f := newFixture(false)
	f.bot.states.SetAnchor(10, 500)
	f.api.failEdits = true

	f.bot.renderPanel(10, "панель", tgbotapi.InlineKeyboardMarkup{})

	if !f.api.hasText(10, "панель") {
		t.Fatal("fresh message not sent after failed edit")
	}
	if anchor := f.bot.states.Anchor(10); anchor == 500 || anchor == 0 {
		t.Fatalf("anchor not rebound: %d", anchor)
	}
}

func TestExportUsersSendsDocument(t *testing.T) {
	f := newFixture(false)
	f.seedAdmin(10, "ru")
	f.seedUser(20, users.RoleUser, "en", users.StatusPending, 0)

	f.bot.handleUpdate(context.Background(), cbUpdate(10, "admin_export_users"))

	var doc *tgbotapi.DocumentConfig
	f.api.mu.Lock()
	for _, c := range f.api.sent {
		if d, ok := c.(tgbotapi.DocumentConfig); ok {
			doc = &d
			break
		}
	}
	f.api.mu.Unlock()
	if doc == nil {
		t.Fatal("export document not sent")
	}
	fb, ok := doc.File.(tgbotapi.FileBytes)
	if !ok {
		t.Fatalf("file = %T", doc.File)
	}
	if !strings.HasSuffix(fb.Name, ".xlsx") || len(fb.Bytes) == 0 {
		t.Fatalf("bad export file: %s (%d bytes)", fb.Name, len(fb.Bytes))
	}
}

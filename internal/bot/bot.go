package bot

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aminovm/inventory-bot/internal/dialog"
	"github.com/aminovm/inventory-bot/internal/domain/customers"
	"github.com/aminovm/inventory-bot/internal/domain/products"
	"github.com/aminovm/inventory-bot/internal/domain/users"
	"github.com/aminovm/inventory-bot/internal/domain/warehouses"
	"github.com/aminovm/inventory-bot/internal/infra/metrics"
)

// API — используемая часть Telegram-клиента. Send возвращает отправленное
// сообщение (его id становится якорем панели), остальные вызовы для ядра
// best-effort.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

type UserStore interface {
	GetByChatID(ctx context.Context, chatID int64) (*users.User, error)
	Add(ctx context.Context, u *users.User) error
	Update(ctx context.Context, u *users.User) error
	ListPending(ctx context.Context) ([]users.User, error)
	ListAll(ctx context.Context) ([]users.User, error)
}

type WarehouseStore interface {
	Create(ctx context.Context, name string) (*warehouses.Warehouse, error)
	GetByID(ctx context.Context, id int64) (*warehouses.Warehouse, error)
	GetByName(ctx context.Context, name string) (*warehouses.Warehouse, error)
	List(ctx context.Context) ([]warehouses.Warehouse, error)
}

type CustomerStore interface {
	Create(ctx context.Context, name string) (*customers.Customer, error)
	GetByName(ctx context.Context, name string) (*customers.Customer, error)
	List(ctx context.Context) ([]customers.Customer, error)
}

type ProductStore interface {
	Create(ctx context.Context, name string, unit products.Unit, warehouseID int64) (*products.Product, error)
	ListByWarehouse(ctx context.Context, warehouseID int64) ([]products.Product, error)
}

type ConfigStore interface {
	Value(ctx context.Context, key string) (string, error)
	SetValue(ctx context.Context, key, value string) error
}

type Bot struct {
	api    API
	log    *slog.Logger
	states *dialog.Store

	users      UserStore
	warehouses WarehouseStore
	customers  CustomerStore
	products   ProductStore
	config     ConfigStore

	// Политика: могут ли заместители управлять справочниками.
	deputyMasterData bool

	callbackRoutes []callbackRoute
}

func New(api API, log *slog.Logger, states *dialog.Store,
	usersRepo UserStore, warehousesRepo WarehouseStore, customersRepo CustomerStore,
	productsRepo ProductStore, configRepo ConfigStore, deputyMasterData bool) *Bot {

	b := &Bot{
		api: api, log: log, states: states,
		users: usersRepo, warehouses: warehousesRepo, customers: customersRepo,
		products: productsRepo, config: configRepo,
		deputyMasterData: deputyMasterData,
	}
	b.callbackRoutes = b.routes()
	return b
}

func (b *Bot) Run(ctx context.Context, timeoutSec int) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd := <-updates:
			// Апдейты обрабатываются параллельно; события одного чата
			// сериализует пер-чатовая блокировка в handleUpdate.
			go b.handleUpdate(ctx, upd)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil && upd.Message.Text != "":
		metrics.UpdatesTotal.WithLabelValues("message").Inc()
		unlock := b.states.Lock(upd.Message.Chat.ID)
		defer unlock()
		b.handleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		metrics.UpdatesTotal.WithLabelValues("callback").Inc()
		cb := upd.CallbackQuery
		if cb.Message == nil {
			b.answerCallback(cb, "", false)
			return
		}
		unlock := b.states.Lock(cb.Message.Chat.ID)
		defer unlock()
		b.handleCallback(ctx, cb)
	}
}

/*** HELPERS ***/

func (b *Bot) send(msg tgbotapi.Chattable) {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send failed", "err", err)
	}
}

// bestEffort — побочный вызов, чья неудача логируется и никогда не
// прерывает основной поток (удаление ввода, ответ на callback).
func (b *Bot) bestEffort(op string, c tgbotapi.Chattable) {
	if _, err := b.api.Request(c); err != nil {
		b.log.Warn("best-effort call failed", "op", op, "err", err)
	}
}

// bestEffortSend — то же для отправки сообщений (уведомление пользователю,
// который мог заблокировать бота).
func (b *Bot) bestEffortSend(op string, c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Warn("best-effort send failed", "op", op, "err", err)
	}
}

func (b *Bot) answerCallback(cb *tgbotapi.CallbackQuery, text string, alert bool) {
	resp := tgbotapi.NewCallback(cb.ID, text)
	resp.ShowAlert = alert
	b.bestEffort("answer callback", resp)
}

// Компактный режим: введённый секрет сразу убирается из переписки,
// чтобы пароль не оставался в истории чата.
func (b *Bot) deleteInput(msg *tgbotapi.Message) {
	b.bestEffort("delete input", tgbotapi.NewDeleteMessage(msg.Chat.ID, msg.MessageID))
}

// renderPanel редактирует сообщение-якорь на месте; если якоря нет или
// редактирование не удалось (сообщение удалено, слишком старое) —
// отправляет новое сообщение и делает его якорем.
func (b *Bot) renderPanel(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	if kb.InlineKeyboard == nil {
		kb.InlineKeyboard = [][]tgbotapi.InlineKeyboardButton{}
	}
	if anchor := b.states.Anchor(chatID); anchor != 0 {
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, anchor, text, kb)
		if _, err := b.api.Send(edit); err == nil {
			return
		} else {
			b.log.Warn("panel edit failed, sending fresh", "chat", chatID, "err", err)
		}
	}
	m := tgbotapi.NewMessage(chatID, text)
	if len(kb.InlineKeyboard) > 0 {
		m.ReplyMarkup = kb
	}
	sent, err := b.api.Send(m)
	if err != nil {
		b.log.Error("send failed", "err", err)
		return
	}
	b.states.SetAnchor(chatID, sent.MessageID)
}

package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aminovm/inventory-bot/internal/dialog"
	"github.com/aminovm/inventory-bot/internal/domain/users"
	"github.com/aminovm/inventory-bot/internal/i18n"
	"github.com/aminovm/inventory-bot/internal/infra/metrics"
)

func (b *Bot) onWarehousesMenu(ctx context.Context, cb *tgbotapi.CallbackQuery, u *users.User, caps users.Capability, arg string) {
	if !b.authorized(cb, u, caps.CanManageMasterData(b.deputyMasterData)) {
		return
	}
	chatID := cb.Message.Chat.ID
	b.states.ClearState(chatID)
	b.answerCallback(cb, "", false)
	b.renderPanel(chatID, i18n.Text("WarehousesMenu", u.Language), masterDataKeyboard("wh", u.Language))
}

func (b *Bot) onCustomersMenu(ctx context.Context, cb *tgbotapi.CallbackQuery, u *users.User, caps users.Capability, arg string) {
	if !b.authorized(cb, u, caps.CanManageMasterData(b.deputyMasterData)) {
		return
	}
	chatID := cb.Message.Chat.ID
	b.states.ClearState(chatID)
	b.answerCallback(cb, "", false)
	b.renderPanel(chatID, i18n.Text("CustomersMenu", u.Language), masterDataKeyboard("cust", u.Language))
}

func (b *Bot) onWarehouseAdd(ctx context.Context, cb *tgbotapi.CallbackQuery, u *users.User, caps users.Capability, arg string) {
	if !b.authorized(cb, u, caps.CanManageMasterData(b.deputyMasterData)) {
		return
	}
	chatID := cb.Message.Chat.ID
	b.states.SetState(chatID, dialog.StateAwaitWarehouseName)
	b.answerCallback(cb, "", false)
	b.renderPanel(chatID, i18n.Text("EnterWarehouseName", u.Language), cancelKeyboard(u.Language))
}

func (b *Bot) onCustomerAdd(ctx context.Context, cb *tgbotapi.CallbackQuery, u *users.User, caps users.Capability, arg string) {
	if !b.authorized(cb, u, caps.CanManageMasterData(b.deputyMasterData)) {
		return
	}
	chatID := cb.Message.Chat.ID
	b.states.SetState(chatID, dialog.StateAwaitCustomerName)
	b.answerCallback(cb, "", false)
	b.renderPanel(chatID, i18n.Text("EnterCustomerName", u.Language), cancelKeyboard(u.Language))
}

func (b *Bot) onWarehouseList(ctx context.Context, cb *tgbotapi.CallbackQuery, u *users.User, caps users.Capability, arg string) {
	if !b.authorized(cb, u, caps.CanManageMasterData(b.deputyMasterData)) {
		return
	}
	chatID := cb.Message.Chat.ID
	lang := u.Language

	items, err := b.warehouses.List(ctx)
	if err != nil {
		b.log.Error("list warehouses failed", "err", err)
		metrics.HandlerErrors.Inc()
		return
	}
	var sb strings.Builder
	sb.WriteString(i18n.Text("WarehouseListTitle", lang))
	if len(items) == 0 {
		sb.WriteString("\n" + i18n.Text("ListEmpty", lang))
	}
	for _, w := range items {
		sb.WriteString("\n— " + w.Name)
	}
	b.answerCallback(cb, "", false)
	b.renderPanel(chatID, sb.String(), backKeyboard(lang, "menu_warehouses"))
}

func (b *Bot) onCustomerList(ctx context.Context, cb *tgbotapi.CallbackQuery, u *users.User, caps users.Capability, arg string) {
	if !b.authorized(cb, u, caps.CanManageMasterData(b.deputyMasterData)) {
		return
	}
	chatID := cb.Message.Chat.ID
	lang := u.Language

	items, err := b.customers.List(ctx)
	if err != nil {
		b.log.Error("list customers failed", "err", err)
		metrics.HandlerErrors.Inc()
		return
	}
	var sb strings.Builder
	sb.WriteString(i18n.Text("CustomerListTitle", lang))
	if len(items) == 0 {
		sb.WriteString("\n" + i18n.Text("ListEmpty", lang))
	}
	for _, c := range items {
		sb.WriteString("\n— " + c.Name)
	}
	b.answerCallback(cb, "", false)
	b.renderPanel(chatID, sb.String(), backKeyboard(lang, "menu_customers"))
}

// createWarehouse обрабатывает введённое название. Имя сверяется с
// существующими (точное совпадение с учётом регистра); дубликат прерывает
// добавление и возвращает в меню складов.
func (b *Bot) createWarehouse(ctx context.Context, chatID int64, u *users.User, text string) {
	lang := u.Language
	name := strings.TrimSpace(text)
	if name == "" {
		b.sendText(chatID, lang, "EmptyName")
		return
	}
	existing, err := b.warehouses.GetByName(ctx, name)
	if err != nil {
		b.log.Error("get warehouse failed", "err", err)
		metrics.HandlerErrors.Inc()
		return
	}
	if existing == nil {
		w, err := b.warehouses.Create(ctx, name)
		if err != nil {
			b.log.Error("create warehouse failed", "err", err)
			metrics.HandlerErrors.Inc()
			return
		}
		if w != nil {
			b.states.ClearState(chatID)
			b.renderPanel(chatID,
				i18n.Text("WarehouseCreated", lang, name)+"\n\n"+i18n.Text("WarehousesMenu", lang),
				masterDataKeyboard("wh", lang))
			return
		}
		// Имя заняли между проверкой и вставкой — считаем дубликатом.
	}
	b.states.ClearState(chatID)
	b.renderPanel(chatID,
		i18n.Text("DuplicateName", lang, name)+"\n\n"+i18n.Text("WarehousesMenu", lang),
		masterDataKeyboard("wh", lang))
}

func (b *Bot) createCustomer(ctx context.Context, chatID int64, u *users.User, text string) {
	lang := u.Language
	name := strings.TrimSpace(text)
	if name == "" {
		b.sendText(chatID, lang, "EmptyName")
		return
	}
	existing, err := b.customers.GetByName(ctx, name)
	if err != nil {
		b.log.Error("get customer failed", "err", err)
		metrics.HandlerErrors.Inc()
		return
	}
	if existing == nil {
		c, err := b.customers.Create(ctx, name)
		if err != nil {
			b.log.Error("create customer failed", "err", err)
			metrics.HandlerErrors.Inc()
			return
		}
		if c != nil {
			b.states.ClearState(chatID)
			b.renderPanel(chatID,
				i18n.Text("CustomerCreated", lang, name)+"\n\n"+i18n.Text("CustomersMenu", lang),
				masterDataKeyboard("cust", lang))
			return
		}
	}
	b.states.ClearState(chatID)
	b.renderPanel(chatID,
		i18n.Text("DuplicateName", lang, name)+"\n\n"+i18n.Text("CustomersMenu", lang),
		masterDataKeyboard("cust", lang))
}

package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aminovm/inventory-bot/internal/dialog"
	"github.com/aminovm/inventory-bot/internal/domain/products"
	"github.com/aminovm/inventory-bot/internal/domain/users"
	"github.com/aminovm/inventory-bot/internal/i18n"
	"github.com/aminovm/inventory-bot/internal/infra/metrics"
)

// Кладовщик работает без входа по паролю, поэтому проверяется только роль.
func (b *Bot) onAddProduct(ctx context.Context, cb *tgbotapi.CallbackQuery, u *users.User, caps users.Capability, arg string) {
	if !caps.Has(users.CapStorekeeper) {
		b.answerCallback(cb, i18n.Text("AccessDenied", u.Language), true)
		return
	}
	chatID := cb.Message.Chat.ID
	if u.WarehouseID == 0 {
		b.answerCallback(cb, i18n.Text("NoWarehouseBound", u.Language), true)
		return
	}
	b.states.SetState(chatID, dialog.StateAwaitProductName)
	b.answerCallback(cb, "", false)
	b.renderPanel(chatID, i18n.Text("EnterProductName", u.Language), cancelKeyboard(u.Language))
}

// stageProductName сохраняет введённое название и переводит чат к выбору
// единицы измерения. Товар создаётся только после выбора единицы.
func (b *Bot) stageProductName(chatID int64, u *users.User, caps users.Capability, text string) {
	lang := u.Language
	if !caps.Has(users.CapStorekeeper) || u.WarehouseID == 0 {
		b.states.ClearState(chatID)
		b.sendText(chatID, lang, "NoWarehouseBound")
		return
	}
	name := strings.TrimSpace(text)
	if name == "" {
		b.sendText(chatID, lang, "EmptyName")
		return
	}
	b.states.SetStagedName(chatID, name)
	b.states.SetState(chatID, dialog.StateAwaitUnitChoice)
	b.renderPanel(chatID, i18n.Text("SelectUnit", lang, name), unitKeyboard(lang))
}

func (b *Bot) onSetUnit(ctx context.Context, cb *tgbotapi.CallbackQuery, u *users.User, caps users.Capability, arg string) {
	if !caps.Has(users.CapStorekeeper) {
		b.answerCallback(cb, i18n.Text("AccessDenied", u.Language), true)
		return
	}
	chatID := cb.Message.Chat.ID
	lang := u.Language

	sess := b.states.Get(chatID)
	name := sess.StagedName
	if name == "" || u.WarehouseID == 0 {
		b.answerCallback(cb, i18n.Text("SessionExpired", lang), true)
		return
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		b.answerCallback(cb, "", false)
		return
	}
	unit := products.Unit(n)
	if !unit.Valid() {
		b.answerCallback(cb, "", false)
		return
	}
	if _, err := b.products.Create(ctx, name, unit, u.WarehouseID); err != nil {
		b.log.Error("create product failed", "err", err)
		metrics.HandlerErrors.Inc()
		return
	}
	b.states.ClearStagedName(chatID)
	b.states.ClearState(chatID)
	b.answerCallback(cb, "", false)
	b.renderPanel(chatID,
		i18n.Text("ProductCreated", lang, name)+"\n\n"+i18n.Text("Unit_"+unit.String(), lang),
		storekeeperKeyboard(lang))
}

func (b *Bot) showStorekeeperPanel(ctx context.Context, chatID int64, u *users.User) {
	lang := u.Language
	whName := "—"
	count := 0
	if u.WarehouseID != 0 {
		w, err := b.warehouses.GetByID(ctx, u.WarehouseID)
		if err != nil {
			b.log.Error("get warehouse failed", "err", err)
			metrics.HandlerErrors.Inc()
		} else if w != nil {
			whName = w.Name
		}
		list, err := b.products.ListByWarehouse(ctx, u.WarehouseID)
		if err != nil {
			b.log.Error("list products failed", "err", err)
			metrics.HandlerErrors.Inc()
		}
		count = len(list)
	}
	text := i18n.Text("StorekeeperPanel", lang, whName) + "\n" + i18n.Text("ProductsCount", lang, count)
	b.renderPanel(chatID, text, storekeeperKeyboard(lang))
}

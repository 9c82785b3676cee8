package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aminovm/inventory-bot/internal/dialog"
	"github.com/aminovm/inventory-bot/internal/domain/users"
	"github.com/aminovm/inventory-bot/internal/i18n"
	"github.com/aminovm/inventory-bot/internal/infra/metrics"
)

func (b *Bot) onShowWaiting(ctx context.Context, cb *tgbotapi.CallbackQuery, u *users.User, caps users.Capability, arg string) {
	if !b.authorized(cb, u, caps.CanManageUsers()) {
		return
	}
	chatID := cb.Message.Chat.ID
	lang := u.Language

	pending, err := b.users.ListPending(ctx)
	if err != nil {
		b.log.Error("list pending failed", "err", err)
		metrics.HandlerErrors.Inc()
		return
	}
	if len(pending) == 0 {
		b.answerCallback(cb, i18n.Text("NoPending", lang), false)
		return
	}

	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, p := range pending {
		label := p.FullName
		if p.Username != "" {
			label = fmt.Sprintf("%s (@%s)", p.FullName, p.Username)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("user_select_%d", p.ChatID)),
		))
	}
	rows = append(rows, backRow(lang, "menu_main"))

	b.states.SetState(chatID, dialog.StateBrowsePending)
	b.answerCallback(cb, "", false)
	b.renderPanel(chatID, i18n.Text("SelectUser", lang), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) onUserSelect(ctx context.Context, cb *tgbotapi.CallbackQuery, u *users.User, caps users.Capability, arg string) {
	if !b.authorized(cb, u, caps.CanManageUsers()) {
		return
	}
	chatID := cb.Message.Chat.ID

	targetID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		b.answerCallback(cb, "", false)
		return
	}
	b.states.SetPendingTarget(chatID, targetID)
	b.states.SetState(chatID, dialog.StatePickRole)
	b.answerCallback(cb, "", false)
	b.renderPanel(chatID, i18n.Text("SelectRole", u.Language, targetID),
		roleKeyboard(targetID, caps.CanGrantAdminOrDeputy(), u.Language))
}

func (b *Bot) onSetRole(ctx context.Context, cb *tgbotapi.CallbackQuery, u *users.User, caps users.Capability, arg string) {
	if !b.authorized(cb, u, caps.CanManageUsers()) {
		return
	}
	chatID := cb.Message.Chat.ID
	lang := u.Language

	// payload: set_role_<chat_id>_<role>
	parts := strings.SplitN(arg, "_", 2)
	if len(parts) != 2 {
		b.answerCallback(cb, "", false)
		return
	}
	targetID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		b.answerCallback(cb, "", false)
		return
	}

	var capBit users.Capability
	switch parts[1] {
	case "admin":
		capBit = users.CapAdmin
	case "deputy":
		capBit = users.CapDeputy
	case "storekeeper":
		capBit = users.CapStorekeeper
	default:
		b.answerCallback(cb, "", false)
		return
	}

	// Заместителей и админов назначает только админ.
	if (capBit == users.CapAdmin || capBit == users.CapDeputy) && !caps.CanGrantAdminOrDeputy() {
		b.answerCallback(cb, i18n.Text("AccessDenied", lang), true)
		return
	}

	if capBit == users.CapStorekeeper {
		// Кладовщику нужен склад: роль выдаётся только вместе с ним.
		whs, err := b.warehouses.List(ctx)
		if err != nil {
			b.log.Error("list warehouses failed", "err", err)
			metrics.HandlerErrors.Inc()
			return
		}
		if len(whs) == 0 {
			b.states.ClearPendingTarget(chatID)
			b.states.ClearState(chatID)
			b.answerCallback(cb, "", false)
			b.renderPanel(chatID, i18n.Text("NoWarehouses", lang), backKeyboard(lang, "menu_main"))
			return
		}
		rows := [][]tgbotapi.InlineKeyboardButton{}
		for _, w := range whs {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(w.Name, fmt.Sprintf("assign_wh_%d", w.ID)),
			))
		}
		rows = append(rows, backRow(lang, "admin_show_waiting"))

		b.states.SetPendingTarget(chatID, targetID)
		b.states.SetState(chatID, dialog.StatePickWarehouse)
		b.answerCallback(cb, "", false)
		b.renderPanel(chatID, i18n.Text("SelectWarehouse", lang), tgbotapi.NewInlineKeyboardMarkup(rows...))
		return
	}

	b.grantRole(ctx, cb, u, targetID, capBit, 0)
}

func (b *Bot) onAssignWarehouse(ctx context.Context, cb *tgbotapi.CallbackQuery, u *users.User, caps users.Capability, arg string) {
	if !b.authorized(cb, u, caps.CanManageUsers()) {
		return
	}
	chatID := cb.Message.Chat.ID

	st := b.states.Get(chatID)
	if st.PendingTarget == 0 {
		// Цель назначения потеряна (рестарт процесса, отмена).
		b.answerCallback(cb, i18n.Text("SessionExpired", u.Language), true)
		return
	}
	whID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		b.answerCallback(cb, "", false)
		return
	}
	w, err := b.warehouses.GetByID(ctx, whID)
	if err != nil {
		b.log.Error("get warehouse failed", "err", err)
		metrics.HandlerErrors.Inc()
		return
	}
	if w == nil {
		b.answerCallback(cb, i18n.Text("SessionExpired", u.Language), true)
		return
	}
	b.grantRole(ctx, cb, u, st.PendingTarget, users.CapStorekeeper, w.ID)
}

// grantRole выдаёт роль и уведомляет назначенного на его языке.
// Блокировка бота пользователем не должна ломать поток назначившего.
func (b *Bot) grantRole(ctx context.Context, cb *tgbotapi.CallbackQuery, granter *users.User, targetID int64, capBit users.Capability, warehouseID int64) {
	chatID := cb.Message.Chat.ID
	lang := granter.Language

	target, err := b.users.GetByChatID(ctx, targetID)
	if err != nil {
		b.log.Error("get user failed", "chat", targetID, "err", err)
		metrics.HandlerErrors.Inc()
		return
	}
	if target == nil {
		b.answerCallback(cb, i18n.Text("SessionExpired", lang), true)
		return
	}

	users.Grant(target, capBit, warehouseID)
	if err := b.users.Update(ctx, target); err != nil {
		b.log.Error("user update failed", "chat", targetID, "err", err)
		metrics.HandlerErrors.Inc()
		return
	}

	b.states.ClearPendingTarget(chatID)
	b.states.ClearState(chatID)
	b.answerCallback(cb, "", false)

	roleKey := "Role_" + string(users.LegacyName(capBit))
	b.renderPanel(chatID, i18n.Text("RoleUpdated", lang, i18n.Text(roleKey, lang)), backKeyboard(lang, "menu_main"))

	targetLang := target.Language
	b.bestEffortSend("notify target", tgbotapi.NewMessage(targetID,
		i18n.Text("YourRoleUpdated", targetLang, i18n.Text(roleKey, targetLang))))
}

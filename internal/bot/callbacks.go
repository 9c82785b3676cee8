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

type callbackHandler func(ctx context.Context, cb *tgbotapi.CallbackQuery, u *users.User, caps users.Capability, arg string)

// callbackRoute сопоставляет префикс payload типизированному обработчику;
// arg — остаток payload после префикса.
type callbackRoute struct {
	prefix  string
	handler callbackHandler
}

func (b *Bot) routes() []callbackRoute {
	return []callbackRoute{
		{"lang_", b.onLanguage},
		{"admin_show_waiting", b.onShowWaiting},
		{"admin_change_pass", b.onChangePassword},
		{"admin_export_users", b.onExportUsers},
		{"user_select_", b.onUserSelect},
		{"set_role_", b.onSetRole},
		{"assign_wh_", b.onAssignWarehouse},
		{"set_unit_", b.onSetUnit},
		{"menu_warehouses", b.onWarehousesMenu},
		{"menu_customers", b.onCustomersMenu},
		{"menu_add_product", b.onAddProduct},
		{"menu_main", b.onMainMenu},
		{"wh_add", b.onWarehouseAdd},
		{"wh_list", b.onWarehouseList},
		{"cust_add", b.onCustomerAdd},
		{"cust_list", b.onCustomerList},
		{"nav_cancel", b.onCancel},
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID

	u, err := b.ensureUser(ctx, cb.Message.Chat)
	if err != nil {
		b.log.Error("load user failed", "chat", chatID, "err", err)
		metrics.HandlerErrors.Inc()
		b.answerCallback(cb, "", false)
		return
	}
	caps := b.resolveCaps(ctx, u)

	// Без выбранного языка доступен только выбор языка.
	if u.Language == "" && !strings.HasPrefix(cb.Data, "lang_") {
		b.states.SetState(chatID, dialog.StateAwaitLanguage)
		b.answerCallback(cb, "", false)
		b.renderPanel(chatID, i18n.Text("Welcome", i18n.Fallback), languageKeyboard())
		return
	}

	for _, r := range b.callbackRoutes {
		if strings.HasPrefix(cb.Data, r.prefix) {
			r.handler(ctx, cb, u, caps, strings.TrimPrefix(cb.Data, r.prefix))
			return
		}
	}

	// Неизвестный payload: подтверждаем получение и игнорируем.
	b.answerCallback(cb, "", false)
}

// authorized проверяет сессию и право; при отказе отвечает на callback
// транзиентным уведомлением и не меняет состояние.
func (b *Bot) authorized(cb *tgbotapi.CallbackQuery, u *users.User, allowed bool) bool {
	if !b.states.IsAuthenticated(cb.Message.Chat.ID) || !allowed {
		b.answerCallback(cb, i18n.Text("AccessDenied", u.Language), true)
		return false
	}
	return true
}

func (b *Bot) onLanguage(ctx context.Context, cb *tgbotapi.CallbackQuery, u *users.User, caps users.Capability, arg string) {
	chatID := cb.Message.Chat.ID
	valid := false
	for _, code := range i18n.Languages() {
		if code == arg {
			valid = true
			break
		}
	}
	if !valid {
		b.answerCallback(cb, "", false)
		return
	}
	u.Language = arg
	if err := b.users.Update(ctx, u); err != nil {
		b.log.Error("user update failed", "chat", chatID, "err", err)
		metrics.HandlerErrors.Inc()
		return
	}
	b.states.ClearState(chatID)
	b.answerCallback(cb, i18n.Text("LanguageSelected", arg), false)

	greeting := i18n.Text("WaitAdmin", arg)
	if caps.IsElevated() {
		greeting = i18n.Text("WelcomeBack", arg, i18n.Text("Role_"+string(u.Role), arg))
	}
	b.renderPanel(chatID, i18n.Text("LanguageSelected", arg)+"\n"+greeting, tgbotapi.InlineKeyboardMarkup{})
}

func (b *Bot) onChangePassword(ctx context.Context, cb *tgbotapi.CallbackQuery, u *users.User, caps users.Capability, arg string) {
	chatID := cb.Message.Chat.ID
	// Смена пароля доступна любому вошедшему: старый пароль всё равно
	// проверяется перед принятием нового.
	if !b.states.IsAuthenticated(chatID) {
		b.answerCallback(cb, i18n.Text("AccessDenied", u.Language), true)
		return
	}
	b.states.SetState(chatID, dialog.StateAwaitOldPassword)
	b.answerCallback(cb, "", false)
	b.sendText(chatID, u.Language, "EnterOldPassword")
}

func (b *Bot) onMainMenu(ctx context.Context, cb *tgbotapi.CallbackQuery, u *users.User, caps users.Capability, arg string) {
	if !b.authorized(cb, u, true) {
		return
	}
	chatID := cb.Message.Chat.ID
	b.states.ClearState(chatID)
	b.answerCallback(cb, "", false)
	b.showAdminPanel(ctx, chatID, u, caps)
}

func (b *Bot) onCancel(ctx context.Context, cb *tgbotapi.CallbackQuery, u *users.User, caps users.Capability, arg string) {
	chatID := cb.Message.Chat.ID
	b.states.ClearState(chatID)
	b.states.ClearStagedName(chatID)
	b.states.ClearPendingTarget(chatID)
	b.answerCallback(cb, i18n.Text("Cancelled", u.Language), false)
	b.renderPanel(chatID, i18n.Text("Cancelled", u.Language), tgbotapi.InlineKeyboardMarkup{})
}

func (b *Bot) showAdminPanel(ctx context.Context, chatID int64, u *users.User, caps users.Capability) {
	lang := u.Language
	rows := [][]tgbotapi.InlineKeyboardButton{}

	if caps.CanManageUsers() {
		pending, err := b.users.ListPending(ctx)
		if err != nil {
			b.log.Error("list pending failed", "err", err)
			metrics.HandlerErrors.Inc()
			return
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(i18n.Text("Btn_Notifications", lang, len(pending)), "admin_show_waiting"),
		))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(i18n.Text("Btn_ExportUsers", lang), "admin_export_users"),
		))
	}
	if caps.CanManageMasterData(b.deputyMasterData) {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(i18n.Text("Btn_Warehouses", lang), "menu_warehouses"),
			tgbotapi.NewInlineKeyboardButtonData(i18n.Text("Btn_Customers", lang), "menu_customers"),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(i18n.Text("Btn_ChangePass", lang), "admin_change_pass"),
	))

	b.renderPanel(chatID, i18n.Text("AdminPanel", lang), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

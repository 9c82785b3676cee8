package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aminovm/inventory-bot/internal/dialog"
	"github.com/aminovm/inventory-bot/internal/domain/appconfig"
	"github.com/aminovm/inventory-bot/internal/domain/users"
	"github.com/aminovm/inventory-bot/internal/i18n"
	"github.com/aminovm/inventory-bot/internal/infra/metrics"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	u, err := b.ensureUser(ctx, msg.Chat)
	if err != nil {
		b.log.Error("load user failed", "chat", chatID, "err", err)
		metrics.HandlerErrors.Inc()
		return
	}
	caps := b.resolveCaps(ctx, u)

	// Пока язык не выбран, любое сообщение — включая команды — ведёт
	// в выбор языка.
	if u.Language == "" {
		b.states.SetState(chatID, dialog.StateAwaitLanguage)
		b.renderPanel(chatID, i18n.Text("Welcome", i18n.Fallback), languageKeyboard())
		return
	}

	// Активное состояние съедает текст первым: ввод пароля или названия
	// не переинтерпретируется как команда.
	st := b.states.Get(chatID)
	if st.State != dialog.StateIdle && st.State != dialog.StateAwaitLanguage {
		b.handleStateMessage(ctx, msg, u, caps, st)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg, u, caps)
	}
}

// ensureUser гарантирует, что автор события есть в хранилище: при первом
// контакте заводится запись с базовой ролью и статусом pending.
func (b *Bot) ensureUser(ctx context.Context, chat *tgbotapi.Chat) (*users.User, error) {
	u, err := b.users.GetByChatID(ctx, chat.ID)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}
	u = &users.User{
		ChatID:   chat.ID,
		Username: chat.UserName,
		FullName: strings.TrimSpace(strings.TrimSpace(chat.FirstName) + " " + strings.TrimSpace(chat.LastName)),
		Role:     users.RoleUser,
		Status:   users.StatusPending,
	}
	if err := b.users.Add(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// resolveCaps возвращает действующие права; при первой встрече со старой
// записью дозаписывает мигрированную маску (повторный вызов ничего не пишет).
func (b *Bot) resolveCaps(ctx context.Context, u *users.User) users.Capability {
	caps, changed := users.Resolve(u)
	if changed {
		u.Caps = caps
		if err := b.users.Update(ctx, u); err != nil {
			b.log.Warn("caps write-back failed", "chat", u.ChatID, "err", err)
		}
	}
	return caps
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, u *users.User, caps users.Capability) {
	chatID := msg.Chat.ID
	lang := u.Language

	switch msg.Command() {
	case "start":
		if !caps.IsElevated() {
			b.sendText(chatID, lang, "WaitAdmin")
			return
		}
		if caps.Has(users.CapStorekeeper) && !caps.CanManageUsers() {
			b.showStorekeeperPanel(ctx, chatID, u)
			return
		}
		b.sendText(chatID, lang, "WelcomeBack", i18n.Text("Role_"+string(u.Role), lang))

	case "admin":
		pw, err := b.config.Value(ctx, appconfig.KeyAdminPassword)
		if err != nil {
			b.log.Error("config read failed", "err", err)
			metrics.HandlerErrors.Inc()
			return
		}
		if pw == "" {
			// Одноразовая инициализация: первый дошедший сюда чат
			// задаёт пароль и становится главным админом.
			b.states.SetState(chatID, dialog.StateAwaitInitialPassword)
			b.sendText(chatID, lang, "EnterPassword")
			return
		}
		// Пароль запрашивается на каждый вход, даже если чат уже
		// подтверждался в этом запуске.
		b.states.SetState(chatID, dialog.StateAwaitEntryPassword)
		b.sendText(chatID, lang, "EnterAdminPassword")

	default:
		b.sendText(chatID, lang, "UnknownCommand")
	}
}

func (b *Bot) handleStateMessage(ctx context.Context, msg *tgbotapi.Message, u *users.User, caps users.Capability, st dialog.Session) {
	chatID := msg.Chat.ID
	lang := u.Language

	switch st.State {
	case dialog.StateAwaitInitialPassword:
		b.deleteInput(msg)
		pw := strings.TrimSpace(msg.Text)
		if pw == "" {
			b.sendText(chatID, lang, "EnterPassword")
			return
		}
		if err := b.config.SetValue(ctx, appconfig.KeyAdminPassword, pw); err != nil {
			b.log.Error("config write failed", "err", err)
			metrics.HandlerErrors.Inc()
			return
		}
		users.Grant(u, users.CapAdmin, 0)
		if err := b.users.Update(ctx, u); err != nil {
			b.log.Error("user update failed", "chat", chatID, "err", err)
			metrics.HandlerErrors.Inc()
			return
		}
		b.states.ClearState(chatID)
		b.states.MarkAuthenticated(chatID)
		b.sendText(chatID, lang, "PasswordSet")
		b.showAdminPanel(ctx, chatID, u, u.Caps)

	case dialog.StateAwaitEntryPassword:
		b.deleteInput(msg)
		pw, err := b.config.Value(ctx, appconfig.KeyAdminPassword)
		if err != nil {
			b.log.Error("config read failed", "err", err)
			metrics.HandlerErrors.Inc()
			return
		}
		if msg.Text != pw {
			b.states.ClearState(chatID)
			b.sendText(chatID, lang, "WrongPassword")
			return
		}
		b.states.ClearState(chatID)
		b.states.MarkAuthenticated(chatID)
		b.showAdminPanel(ctx, chatID, u, caps)

	case dialog.StateAwaitOldPassword:
		b.deleteInput(msg)
		pw, err := b.config.Value(ctx, appconfig.KeyAdminPassword)
		if err != nil {
			b.log.Error("config read failed", "err", err)
			metrics.HandlerErrors.Inc()
			return
		}
		if msg.Text != pw {
			b.states.ClearState(chatID)
			b.sendText(chatID, lang, "WrongPassword")
			return
		}
		b.states.SetState(chatID, dialog.StateAwaitNewPassword)
		b.sendText(chatID, lang, "ChangePass")

	case dialog.StateAwaitNewPassword:
		b.deleteInput(msg)
		pw, err := b.config.Value(ctx, appconfig.KeyAdminPassword)
		if err != nil {
			b.log.Error("config read failed", "err", err)
			metrics.HandlerErrors.Inc()
			return
		}
		if msg.Text == pw {
			// Остаёмся в состоянии: пользователь может ввести другой пароль.
			b.sendText(chatID, lang, "SamePassword")
			return
		}
		if err := b.config.SetValue(ctx, appconfig.KeyAdminPassword, msg.Text); err != nil {
			b.log.Error("config write failed", "err", err)
			metrics.HandlerErrors.Inc()
			return
		}
		b.states.ClearState(chatID)
		b.sendText(chatID, lang, "PassChanged")

	case dialog.StateAwaitWarehouseName:
		b.createWarehouse(ctx, chatID, u, msg.Text)

	case dialog.StateAwaitCustomerName:
		b.createCustomer(ctx, chatID, u, msg.Text)

	case dialog.StateAwaitProductName:
		b.stageProductName(chatID, u, caps, msg.Text)
	}
}

func (b *Bot) sendText(chatID int64, lang, key string, args ...any) {
	b.send(tgbotapi.NewMessage(chatID, i18n.Text(key, lang, args...)))
}

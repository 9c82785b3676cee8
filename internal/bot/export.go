package bot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xuri/excelize/v2"

	"github.com/aminovm/inventory-bot/internal/domain/users"
	"github.com/aminovm/inventory-bot/internal/i18n"
	"github.com/aminovm/inventory-bot/internal/infra/metrics"
)

// onExportUsers выгружает всех пользователей в xlsx и отправляет файл в чат.
func (b *Bot) onExportUsers(ctx context.Context, cb *tgbotapi.CallbackQuery, u *users.User, caps users.Capability, arg string) {
	if !b.authorized(cb, u, caps.CanManageUsers()) {
		return
	}
	chatID := cb.Message.Chat.ID
	lang := u.Language

	list, err := b.users.ListAll(ctx)
	if err != nil {
		b.log.Error("list users failed", "err", err)
		metrics.HandlerErrors.Inc()
		return
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)

	headers := []string{"chat_id", "username", "full_name", "role", "status", "language", "warehouse_id", "created_at"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for row, usr := range list {
		values := []any{
			usr.ChatID,
			usr.Username,
			usr.FullName,
			string(usr.Role),
			string(usr.Status),
			usr.Language,
			usr.WarehouseID,
			usr.CreatedAt.Format("2006-01-02 15:04"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	f.SetColWidth(sheet, "A", "H", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		b.log.Error("write xlsx failed", "err", err)
		metrics.HandlerErrors.Inc()
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("users_%s.xlsx", time.Now().Format("20060102")),
		Bytes: buf.Bytes(),
	})
	doc.Caption = i18n.Text("UsersExportCaption", lang) + " (" + strconv.Itoa(len(list)) + ")"
	b.answerCallback(cb, "", false)
	if _, err := b.api.Send(doc); err != nil {
		b.log.Error("send export failed", "err", err)
		metrics.HandlerErrors.Inc()
	}
}

package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aminovm/inventory-bot/internal/i18n"
)

func languageKeyboard() tgbotapi.InlineKeyboardMarkup {
	row := []tgbotapi.InlineKeyboardButton{}
	for _, code := range i18n.Languages() {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(i18n.Native(code), "lang_"+code))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func unitKeyboard(lang string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(i18n.Text("Unit_pcs", lang), "set_unit_0"),
			tgbotapi.NewInlineKeyboardButtonData(i18n.Text("Unit_kg", lang), "set_unit_1"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(i18n.Text("Unit_l", lang), "set_unit_2"),
			tgbotapi.NewInlineKeyboardButtonData(i18n.Text("Unit_m", lang), "set_unit_3"),
		),
		cancelRow(lang),
	)
}

// masterDataKeyboard — подменю справочника: «добавить» и «список».
// prefix — "wh" или "cust".
func masterDataKeyboard(prefix, lang string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(i18n.Text("Btn_Add", lang), prefix+"_add"),
			tgbotapi.NewInlineKeyboardButtonData(i18n.Text("Btn_List", lang), prefix+"_list"),
		),
		backRow(lang, "menu_main"),
	)
}

func roleKeyboard(targetID int64, canGrantAll bool, lang string) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{}
	if canGrantAll {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(i18n.Text("Action_Deputy", lang), fmt.Sprintf("set_role_%d_deputy", targetID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(i18n.Text("Action_Storekeeper", lang), fmt.Sprintf("set_role_%d_storekeeper", targetID)),
	))
	if canGrantAll {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(i18n.Text("Action_Admin", lang), fmt.Sprintf("set_role_%d_admin", targetID)),
		))
	}
	rows = append(rows, backRow(lang, "admin_show_waiting"))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func storekeeperKeyboard(lang string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(i18n.Text("Btn_AddProduct", lang), "menu_add_product"),
		),
	)
}

func backRow(lang, data string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(i18n.Text("Btn_Back", lang), data),
	)
}

func cancelRow(lang string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(i18n.Text("Btn_Cancel", lang), "nav_cancel"),
	)
}

func backKeyboard(lang, data string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(backRow(lang, data))
}

func cancelKeyboard(lang string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(cancelRow(lang))
}

package telegram

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"weightduel/internal/domain"
)

// Reply keyboard buttons. Incoming text equal to a label triggers its action.
const (
	ButtonAddWeight = "➕ Внести вес"
	ButtonResults   = "📈 Показать результаты"
	ButtonEdit      = "✏️ Исправить последние записи"
	ButtonMenu      = "🍽 Что мне поесть сегодня?"
)

// Callback data prefixes.
const (
	prefixRegister = "register:"
	prefixEditPick = "editpick:"
)

func registrationKeyboard(open []domain.RoleBinding) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(open))
	for _, b := range open {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Зарегистрироваться как "+b.DisplayName, prefixRegister+b.RoleKey),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonAddWeight)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonResults)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonEdit)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonMenu)),
	)
	kb.InputFieldPlaceholder = "Выберите действие…"
	return kb
}

// editKeyboard offers one button per entry, keyed by the stable entry id.
func editKeyboard(entries []domain.PositionedEntry) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(entries))
	for _, p := range entries {
		label := fmt.Sprintf("%s — %s кг", humanDay(p.Entry.Day), formatNumber(p.Entry.Value))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, prefixEditPick+strconv.FormatInt(p.Entry.ID, 10)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// MaxCallbackPayload is the Bot API limit for callback_data, in bytes.
const MaxCallbackPayload = 64

// Action is an inline button. Payload comes back as the callback data.
type Action struct {
	Label   string
	Payload string
}

// MenuKeyboard is the persistent operator menu shown under the input field.
func MenuKeyboard(rows [][]string) tgbotapi.ReplyKeyboardMarkup {
	markup := tgbotapi.ReplyKeyboardMarkup{ResizeKeyboard: true}
	for _, labels := range rows {
		if len(labels) == 0 {
			continue
		}
		row := make([]tgbotapi.KeyboardButton, len(labels))
		for i, label := range labels {
			row[i] = tgbotapi.KeyboardButton{Text: label}
		}
		markup.Keyboard = append(markup.Keyboard, row)
	}
	return markup
}

// ActionKeyboard drops actions without a payload or with one over
// MaxCallbackPayload, then drops rows left empty. ok is false when nothing
// is left to attach.
func ActionKeyboard(rows [][]Action) (markup tgbotapi.InlineKeyboardMarkup, ok bool) {
	for _, actions := range rows {
		var row []tgbotapi.InlineKeyboardButton
		for _, action := range actions {
			if action.Payload == "" || len(action.Payload) > MaxCallbackPayload {
				continue
			}
			payload := action.Payload
			row = append(row, tgbotapi.InlineKeyboardButton{Text: action.Label, CallbackData: &payload})
		}
		if len(row) > 0 {
			markup.InlineKeyboard = append(markup.InlineKeyboard, row)
		}
	}
	return markup, len(markup.InlineKeyboard) > 0
}

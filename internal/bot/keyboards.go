package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Dialog keyboards are built from label/callback-data pairs, one
// button per row, so the exact keyboard can be persisted in the
// conversation back-stack and restored verbatim by the Back button.

const (
	cbBack   = "back"
	cbCancel = "cancel"
)

// navRow returns the Back/Cancel tail appended to every dialog
// keyboard.  withBack is false on the first step of a flow.
func navRow(withBack bool) [][2]string {
	rows := make([][2]string, 0, 2)
	if withBack {
		rows = append(rows, [2]string{btnBack, cbBack})
	}
	return append(rows, [2]string{btnCancel, cbCancel})
}

// toMarkup converts persisted keyboard pairs into a Telegram inline
// keyboard.
func toMarkup(pairs [][2]string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(p[0], p[1])))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// approvalMarkup builds the two-button admin keyboard carrying the
// encoded approve and reject tokens.
func approvalMarkup(confirm, reject ApprovalToken) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnApprove, confirm.Encode()),
			tgbotapi.NewInlineKeyboardButtonData(btnReject, reject.Encode()),
		),
	)
}

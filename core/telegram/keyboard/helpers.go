package keyboard

import (
	"github.com/m3rciful/orderbot/core/dialog"

	tele "gopkg.in/telebot.v4"
)

// ForceReply returns a selective markup that forces the user to reply.
func ForceReply() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{ForceReply: true, Selective: true}
}

// RemoveKeyboard returns a selective markup that hides the keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true, Selective: true}
}

// Reply renders a dialog keyboard descriptor as a Telegram reply keyboard.
func Reply(kb *dialog.Keyboard) *tele.ReplyMarkup {
	if kb == nil || len(kb.Rows) == 0 {
		return nil
	}
	markup := &tele.ReplyMarkup{
		ResizeKeyboard:  kb.Resize,
		OneTimeKeyboard: kb.OneTime,
		Selective:       kb.Selective,
	}
	rows := make([]tele.Row, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		buttons := make([]tele.Btn, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, markup.Text(label))
		}
		rows = append(rows, markup.Row(buttons...))
	}
	markup.Reply(rows...)
	return markup
}

// ForMessage picks the markup an outbound dialog message asks for.
// A keyboard wins over remove-keyboard, which wins over force-reply.
func ForMessage(msg dialog.Message) *tele.ReplyMarkup {
	switch {
	case msg.Keyboard != nil:
		return Reply(msg.Keyboard)
	case msg.RemoveKeyboard:
		return RemoveKeyboard()
	case msg.ForceReply:
		return ForceReply()
	}
	return nil
}

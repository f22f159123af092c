package commands

import (
	"github.com/m3rciful/orderbot/core/telegram/helpers"
	"github.com/m3rciful/orderbot/core/telegram/keyboard"
	"github.com/m3rciful/orderbot/internal/orderbot/order"

	tele "gopkg.in/telebot.v4"
)

const (
	privateOnlyText = "Заказать технику можно только в личном чате с ботом."
	cancelledText   = "Заказ отменён. Что бы начать заново введи команду /start"
	nothingText     = "Нечего отменять."
)

// OrderHandler starts the order dialog or, when it is already running,
// feeds the command payload into the current step.
func OrderHandler(dialogs Dialogs) tele.HandlerFunc {
	return func(c tele.Context) error {
		return dialogs.Start(c, order.Name, payload(c))
	}
}

// PrivateOnlyReply tells group members to talk to the bot directly.
func PrivateOnlyReply(c tele.Context) error {
	return helpers.SendText(c, privateOnlyText)
}

// CancelHandler abandons the sender's active dialog.
func CancelHandler(dialogs Dialogs) tele.HandlerFunc {
	return func(c tele.Context) error {
		ok, err := dialogs.Cancel(c)
		if err != nil {
			return err
		}
		if !ok {
			return NothingToCancel(c)
		}
		return helpers.SendText(c, cancelledText, keyboard.RemoveKeyboard())
	}
}

// NothingToCancel answers /cancel outside of a dialog.
func NothingToCancel(c tele.Context) error {
	return helpers.SendText(c, nothingText)
}

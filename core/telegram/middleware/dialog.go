package middleware

import (
	"log/slog"

	"github.com/m3rciful/orderbot/core/logger"
	tghelpers "github.com/m3rciful/orderbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// ActiveDialogs reports the dialog a user is currently in.
type ActiveDialogs interface {
	Active(c tele.Context) (string, bool)
}

// DialogRequired lets the update through only when the sender has an active
// dialog. Otherwise onIdle runs, when set.
func DialogRequired(dialogs ActiveDialogs, onIdle tele.HandlerFunc) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			name, ok := dialogs.Active(c)
			ctx := tghelpers.BuildContext(c)
			if ok {
				logger.Debug(ctx, "tg", "dialog.match", slog.String("dialog", name))
				return next(c)
			}
			logger.Debug(ctx, "tg", "dialog.idle")
			if onIdle != nil {
				return onIdle(c)
			}
			return nil
		}
	}
}

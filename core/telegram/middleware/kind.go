package middleware

import (
	coreconfig "github.com/m3rciful/orderbot/core/config"

	tele "gopkg.in/telebot.v4"
)

// UpdateKind names the kind of an update for rate limiting and metrics.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Message != nil:
		return coreconfig.UpdateMessage
	case upd.Query != nil:
		return coreconfig.UpdateInlineQuery
	case upd.Callback != nil:
		return "callback"
	}
	return "other"
}

package router

import (
	"log/slog"
	"time"

	"github.com/m3rciful/orderbot/core/logger"
	tg "github.com/m3rciful/orderbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// InlineRoute routes inline queries to the registry's inline handler.
// Without a handler queries are acknowledged with an empty result list.
func InlineRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		q := c.Query()
		if q == nil {
			return nil
		}
		extras := []slog.Attr{slog.String("query", logger.SanitizeLimit(q.Text, 64))}

		var h tele.HandlerFunc
		if reg != nil {
			h = reg.InlineHandler()
		}
		if h == nil {
			return handleWithSummary(c, "inline.empty", start, func() error {
				return c.Answer(&tele.QueryResponse{Results: tele.Results{}})
			}, extras...)
		}
		return handleWithSummary(c, "inline", start, func() error { return h(c) }, extras...)
	}
	return tg.Route{Endpoint: tele.OnQuery, Handler: handler}
}

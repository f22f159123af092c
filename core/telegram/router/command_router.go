package router

import (
	"log/slog"
	"time"

	"github.com/m3rciful/orderbot/core/logger"
	tg "github.com/m3rciful/orderbot/core/telegram"
	"github.com/m3rciful/orderbot/core/telegram/commands"
	"github.com/m3rciful/orderbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	AdminID         int64
	OnAdminReject   tele.HandlerFunc
	OnPrivateReject tele.HandlerFunc
}

// CommandRoutes binds every registered command, and each of its aliases, to
// a handler wrapped with the access checks and the summary line.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for name, def := range reg.Commands() {
		h := wrapCommand(name, def, opts)
		routes = append(routes, tg.Route{Endpoint: name, Handler: h})
		for _, alias := range def.Aliases {
			if alias != "" && alias[0] == '/' {
				routes = append(routes, tg.Route{Endpoint: alias, Handler: h})
			}
		}
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "commands"),
		slog.Int("commands", len(reg.Commands())),
		slog.Int("routes", len(routes)),
		slog.Bool("inline", reg.InlineHandler() != nil),
	)
	return routes
}

func wrapCommand(name string, def commands.Command, opts CommandRouteOptions) tele.HandlerFunc {
	h := def.Handler
	for i := len(def.Middleware) - 1; i >= 0; i-- {
		h = def.Middleware[i](h)
	}
	if def.PrivateOnly {
		h = middleware.PrivateOnlyMiddleware(opts.OnPrivateReject)(h)
	}
	if def.AdminOnly {
		h = middleware.AdminOnlyMiddleware(middleware.AdminOptions{
			AdminID:  opts.AdminID,
			OnReject: opts.OnAdminReject,
		})(h)
	}

	handlerName := normalizeHandlerName(name)
	inner := h
	return func(c tele.Context) error {
		return handleWithSummary(c, handlerName, time.Now(), func() error { return inner(c) })
	}
}

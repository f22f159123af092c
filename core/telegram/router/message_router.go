package router

import (
	"log/slog"
	"time"

	tg "github.com/m3rciful/orderbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// FSM routes messages of users that are inside a dialog.
type FSM interface {
	InProgress(c tele.Context) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions controls fallback behaviour for text and media updates.
type TextOptions struct {
	UnknownText  tele.HandlerFunc
	UnknownMedia tele.HandlerFunc
}

// TextRoutes builds the text and media routes. A user inside a dialog always
// reaches the dialog; otherwise text is matched against command aliases and
// then the registry fallback.
func TextRoutes(fsm FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	text := func(c tele.Context) error {
		start := time.Now()
		if fsm != nil && fsm.InProgress(c) {
			return handleWithSummary(c, "dialog", start, func() error { return fsm.ManagerHandler(c) })
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				return handleWithSummary(c, normalizeHandlerName(key), start, func() error { return cmd.Handler(c) })
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, func() error { return fb(c) })
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, func() error { return opts.UnknownText(c) })
		}
		logHandlerSummary(c, "unknown_text", start, "skip", nil)
		return nil
	}

	media := func(c tele.Context) error {
		start := time.Now()
		if fsm != nil && fsm.InProgress(c) {
			return handleWithSummary(c, "dialog_media", start, func() error { return fsm.ManagerHandler(c) })
		}
		if opts.UnknownMedia != nil {
			return handleWithSummary(c, "unexpected_media", start, func() error { return opts.UnknownMedia(c) })
		}
		logHandlerSummary(c, "unexpected_media", start, "skip", nil, slog.Bool("media", true))
		return nil
	}

	routes := []tg.Route{{Endpoint: tele.OnText, Handler: text}}
	for _, ep := range []string{tele.OnPhoto, tele.OnDocument, tele.OnSticker, tele.OnVoice, tele.OnVideo, tele.OnContact, tele.OnLocation} {
		routes = append(routes, tg.Route{Endpoint: ep, Handler: media})
	}
	return routes
}

package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/orderbot/core/config"
	"github.com/m3rciful/orderbot/core/logger"
	"github.com/m3rciful/orderbot/core/metrics"
	tghelpers "github.com/m3rciful/orderbot/core/telegram/helpers"
	tgsender "github.com/m3rciful/orderbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// Middleware describes a global bot middleware to be registered via bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route declares a single bot handler bound to an arbitrary endpoint.
// Endpoint values are passed directly to tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls the behaviour of RunTelegram and Replay.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	DispatcherOptions tgsender.Options
	Dispatcher        *tgsender.Dispatcher

	Middlewares []Middleware
	Routes      []Route

	// Offline skips the getMe handshake. Outgoing calls still hit the API.
	Offline bool

	DisableWebhookCleanup   bool
	DisableHelperDispatcher bool
	DisableCommandMenu      bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

// runtime is a composed bot ready to start or to process updates.
type runtime struct {
	Runtime
	helper bool
}

func (r *runtime) close() {
	r.Dispatcher.Close()
	if r.helper {
		tghelpers.SetDispatcher(nil)
	}
}

func compose(opts RunOptions, settings tele.Settings) (*runtime, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("telegram: nil config provided")
	}
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	settings.Token = opts.Config.Telegram.Token
	settings.Offline = opts.Offline
	settings.OnError = func(err error, c tele.Context) {
		ctx := logger.Background()
		if c != nil {
			ctx = tghelpers.BuildContext(c)
		}
		logger.Error(ctx, "tg", "bot.error", slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
	}

	bot, err := tele.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}

	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, route := range opts.Routes {
		if route.Endpoint != nil && route.Handler != nil {
			bot.Handle(route.Endpoint, route.Handler)
		}
	}

	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dopts := opts.DispatcherOptions
		if dopts.OnDone == nil {
			dopts.OnDone = func(_ string, err error) { metrics.IncSent(err) }
		}
		dispatcher = tgsender.NewDispatcher(dopts)
	}
	rt := &runtime{
		Runtime: Runtime{Bot: bot, Dispatcher: dispatcher, Registry: reg},
		helper:  !opts.DisableHelperDispatcher,
	}
	if rt.helper {
		tghelpers.SetDispatcher(dispatcher)
	}
	return rt, nil
}

// RunTelegram composes and runs a Telegram bot until the provided context is done.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("telegram: nil config provided")
	}
	cfg := opts.Config

	pollerOpts := PollerOptionsFrom(cfg)
	poller := BuildPoller(pollerOpts)

	buildStart := time.Now()
	rt, err := compose(opts, tele.Settings{
		Poller: poller,
		Client: BuildHTTPClient(longPollTimeout(pollerOpts.LongPollTimeoutSeconds)),
	})
	if err != nil {
		return err
	}
	buildTook := time.Since(buildStart)

	switch p := poller.(type) {
	case *tele.Webhook:
		logger.Info(ctx, "tg", "mode",
			slog.String("mode", coreconfig.RunModeWebhook),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
			slog.Duration("duration", buildTook),
		)
	default:
		logger.Info(ctx, "tg", "mode",
			slog.String("mode", coreconfig.RunModeLongpoll),
			slog.Duration("timeout", longPollTimeout(pollerOpts.LongPollTimeoutSeconds)),
			slog.Duration("duration", buildTook),
		)
		if !opts.DisableWebhookCleanup {
			if err := deleteWebhook(ctx, cfg.Telegram.Token, false); err != nil {
				msg := strings.ReplaceAll(err.Error(), cfg.Telegram.Token, "<redacted>")
				logger.Warn(ctx, "tg", "delete_webhook", slog.String("status", "fail"), slog.String("err", msg))
			} else {
				logger.Info(ctx, "tg", "delete_webhook", slog.String("status", "ok"))
			}
		}
	}

	if !opts.DisableCommandMenu {
		InitBotCommands(rt.Bot, rt.Registry)
	}

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt.Runtime); err != nil {
			rt.close()
			return err
		}
	}

	runDone := make(chan struct{})
	go func() {
		rt.Bot.Start()
		close(runDone)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		rt.Bot.Stop()
		<-runDone
		runErr = ctx.Err()
	case <-runDone:
	}

	var stopErr error
	if opts.OnStop != nil {
		stopErr = opts.OnStop(context.WithoutCancel(ctx), rt.Runtime)
	}
	rt.close()

	if stopErr != nil {
		return stopErr
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// Replay pushes the given updates through the same middleware and routes a
// running bot uses, one after another, then drains outgoing messages.
func Replay(ctx context.Context, opts RunOptions, updates []tele.Update) error {
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := compose(opts, tele.Settings{
		Synchronous: true,
		Client:      BuildHTTPClient(0),
		Poller:      &tele.LongPoller{},
	})
	if err != nil {
		return err
	}

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt.Runtime); err != nil {
			rt.close()
			return err
		}
	}

	processed := 0
	for _, upd := range updates {
		if ctx.Err() != nil {
			break
		}
		rt.Bot.ProcessUpdate(upd)
		processed++
	}
	logger.Info(ctx, "tg", "replay.done",
		slog.Int("updates", len(updates)),
		slog.Int("processed", processed),
	)

	var stopErr error
	if opts.OnStop != nil {
		stopErr = opts.OnStop(context.WithoutCancel(ctx), rt.Runtime)
	}
	rt.close()
	if stopErr != nil {
		return stopErr
	}
	return ctx.Err()
}

func deleteWebhook(ctx context.Context, token string, dropPending bool) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("empty token")
	}
	url := fmt.Sprintf("https://api.telegram.org/bot%s/deleteWebhook", token)
	body := fmt.Sprintf("drop_pending_updates=%t", dropPending)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deleteWebhook status: %s", resp.Status)
	}
	return nil
}

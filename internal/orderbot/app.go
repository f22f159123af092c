// Package orderbot wires the order-desk bot: configuration, storage, the
// order dialog, commands and the Telegram runtime.
package orderbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/orderbot/core/bootstrap"
	"github.com/m3rciful/orderbot/core/dialog"
	"github.com/m3rciful/orderbot/core/logger"
	"github.com/m3rciful/orderbot/core/metrics"
	tg "github.com/m3rciful/orderbot/core/telegram"
	"github.com/m3rciful/orderbot/core/telegram/router"
	"github.com/m3rciful/orderbot/core/telegram/state"
	"github.com/m3rciful/orderbot/internal/orderbot/commands"
	"github.com/m3rciful/orderbot/internal/orderbot/order"

	"github.com/prometheus/client_golang/prometheus"
	tele "gopkg.in/telebot.v4"
)

// DefaultCronCommands are replayed by the cron subcommand when none are configured.
var DefaultCronCommands = []string{"/whoami", "/echo I'm a bot!"}

// App is a composed orderbot ready to be run.
type App struct {
	cfg      *Config
	infra    *bootstrap.Result
	registry *tg.Registry
	dialogs  *state.Manager
	sink     *tg.Sink

	// Registerer and Gatherer default to the Prometheus default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	stopMetrics context.CancelFunc
	metricsDone chan struct{}
	closeOnce   sync.Once
	closeErr    error
}

// Bootstrap initializes logging and storage for cfg and composes the app.
func Bootstrap(ctx context.Context, cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("orderbot: nil config")
	}
	infra, err := bootstrap.Run(ctx, bootstrap.Options{
		Config: &cfg.Config,
		Backends: bootstrap.Backends{
			Database: cfg.Database,
			Redis:    cfg.Redis,
			Mongo:    cfg.Mongo,
		},
	})
	if err != nil {
		return nil, err
	}
	app, err := New(cfg, infra)
	if err != nil {
		_ = infra.Close(ctx)
		return nil, err
	}
	return app, nil
}

// New composes the app on top of already opened infrastructure.
func New(cfg *Config, infra *bootstrap.Result) (*App, error) {
	if cfg == nil || infra == nil || infra.Store == nil {
		return nil, errors.New("orderbot: config and store are required")
	}

	sink := tg.NewSink()
	engine, err := dialog.NewEngine(
		order.NewFlow(order.Options{SupportContact: cfg.Order.SupportContact}),
		infra.Store,
		sink,
		dialog.Options{
			AdminChatID: cfg.Order.AdminChatID,
			Locker:      infra.Locker,
			Observer:    metrics.DialogObserver{},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("orderbot: order dialog: %w", err)
	}

	dialogs := state.NewManager(infra.Store)
	if err := dialogs.Register(engine); err != nil {
		return nil, err
	}

	reg := tg.NewRegistry()
	commands.Register(reg, commands.Deps{Dialogs: dialogs, Username: cfg.Telegram.Username})

	return &App{
		cfg:      cfg,
		infra:    infra,
		registry: reg,
		dialogs:  dialogs,
		sink:     sink,
	}, nil
}

// Dialogs exposes the dialog manager.
func (a *App) Dialogs() *state.Manager { return a.dialogs }

func (a *App) routes() []tg.Route {
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID:         a.cfg.Telegram.AdminID,
		OnPrivateReject: commands.PrivateOnlyReply,
	})
	routes = append(routes, router.TextRoutes(a.dialogs, a.registry, router.TextOptions{})...)
	return append(routes, router.InlineRoute(a.registry))
}

func (a *App) bind(rt tg.Runtime) {
	a.sink.Bind(rt.Bot, rt.Dispatcher)
}

// TelegramRunOptions builds the options of the long-running bot.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	return tg.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(&a.cfg.Config, nil),
		Routes:      a.routes(),
		OnStart: func(ctx context.Context, rt tg.Runtime) error {
			a.bind(rt)
			a.startMetrics(ctx)
			return nil
		},
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			return a.Close(ctx)
		},
	}, nil
}

// CronRunOptions builds the options and updates of a one-shot replay of the
// configured commands, sent on behalf of the admin.
func (a *App) CronRunOptions() (tg.RunOptions, []tele.Update, error) {
	adminID := a.cfg.Telegram.AdminID
	if adminID == 0 {
		return tg.RunOptions{}, nil, errors.New("orderbot: cron needs telegram.admin_id")
	}
	lines := a.cfg.Cron.Commands
	if len(lines) == 0 {
		lines = DefaultCronCommands
	}

	// replayed commands are not subject to the per-user limiter
	cronCfg := a.cfg.Config
	cronCfg.RateLimit.IntervalMS = 0

	opts := tg.RunOptions{
		Config:      &cronCfg,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(&cronCfg, nil),
		Routes:      a.routes(),
		OnStart: func(ctx context.Context, rt tg.Runtime) error {
			a.bind(rt)
			logger.Info(ctx, "app", "cron.start", slog.Int("commands", len(lines)))
			return nil
		},
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			return a.Close(ctx)
		},
	}
	return opts, commands.CronUpdates(lines, adminID, time.Now()), nil
}

func (a *App) startMetrics(ctx context.Context) {
	reg := a.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	metrics.MustRegister(reg)

	listen := a.cfg.Metrics.Listen
	if listen == "" {
		return
	}
	gatherer := a.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	ctx, cancel := context.WithCancel(ctx)
	a.stopMetrics = cancel
	a.metricsDone = make(chan struct{})
	go func() {
		defer close(a.metricsDone)
		if err := metrics.Serve(ctx, listen, gatherer); err != nil {
			logger.Error(ctx, "metrics", "metrics.serve", slog.String("err", err.Error()))
		}
	}()
}

// Close stops the metrics endpoint and releases storage connections.
// It is safe to call more than once.
func (a *App) Close(ctx context.Context) error {
	a.closeOnce.Do(func() {
		if a.stopMetrics != nil {
			a.stopMetrics()
			<-a.metricsDone
		}
		a.closeErr = a.infra.Close(ctx)
	})
	return a.closeErr
}

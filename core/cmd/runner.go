package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	coreconfig "github.com/m3rciful/orderbot/core/config"
	"github.com/m3rciful/orderbot/core/logger"
	coretelegram "github.com/m3rciful/orderbot/core/telegram"

	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// ConfigCarrier exposes access to the embedded core configuration.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// TelegramApp is the minimal interface required to run a Telegram bot.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// CronApp replays a fixed list of updates and exits.
type CronApp interface {
	CronRunOptions() (coretelegram.RunOptions, []tele.Update, error)
}

// Closer is implemented by apps holding resources that outlive a failed start.
type Closer interface {
	Close(ctx context.Context) error
}

// Options describe how to load configuration, bootstrap the app, and run the bot.
type Options struct {
	// ConfigPath wins over ConfigEnvVar and DefaultConfigPath.
	ConfigPath        string
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (ConfigCarrier, error)
	Bootstrap  func(ctx context.Context, cfg ConfigCarrier) (any, error)

	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
	Replay         func(ctx context.Context, opts coretelegram.RunOptions, updates []tele.Update) error
}

// ResolveConfigPath picks the config file from the explicit path, the
// environment variable or the default, in that order.
func ResolveConfigPath(opts Options) (string, error) {
	if opts.ConfigPath != "" {
		return opts.ConfigPath, nil
	}
	env := opts.ConfigEnvVar
	if env == "" {
		env = "CONFIG_PATH"
	}
	if p := os.Getenv(env); p != "" {
		return p, nil
	}
	if opts.DefaultConfigPath != "" {
		return opts.DefaultConfigPath, nil
	}
	return "", fmt.Errorf("cmd: config path not provided via --config, %s or DefaultConfigPath", env)
}

type prepared struct {
	app            any
	shutdownLogger func() error
	startedAt      time.Time
}

func (p *prepared) finish() {
	if err := p.shutdownLogger(); err != nil {
		log.Printf("logger shutdown error: %v", err)
	}
}

func prepare(ctx context.Context, opts Options) (*prepared, error) {
	if opts.LoadConfig == nil {
		return nil, fmt.Errorf("cmd: LoadConfig is required")
	}
	if opts.Bootstrap == nil {
		return nil, fmt.Errorf("cmd: Bootstrap is required")
	}
	startedAt := time.Now()

	cfgPath, err := ResolveConfigPath(opts)
	if err != nil {
		return nil, err
	}
	log.Printf("loading config: %s", cfgPath)
	cfg, err := opts.LoadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("cmd: failed to load config: %w", err)
	}
	if cfg.CoreConfig() == nil {
		return nil, fmt.Errorf("cmd: loaded config is missing core configuration")
	}

	application, err := opts.Bootstrap(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("cmd: bootstrap failed: %w", err)
	}

	shutdownLogger := opts.ShutdownLogger
	if shutdownLogger == nil {
		shutdownLogger = logger.Shutdown
	}
	return &prepared{app: application, shutdownLogger: shutdownLogger, startedAt: startedAt}, nil
}

// closeOnError releases app resources when the runtime never reached OnStop.
func closeOnError(ctx context.Context, app any, err error) error {
	if err == nil {
		return nil
	}
	if c, ok := app.(Closer); ok {
		if cerr := c.Close(context.WithoutCancel(ctx)); cerr != nil {
			log.Printf("app close error: %v", cerr)
		}
	}
	return err
}

// Run loads configuration, bootstraps the Telegram app, and starts the bot runtime.
func Run(opts Options) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p, err := prepare(ctx, opts)
	if err != nil {
		return err
	}
	defer p.finish()

	application, ok := p.app.(TelegramApp)
	if !ok {
		return closeOnError(ctx, p.app, fmt.Errorf("cmd: %T does not implement TelegramApp", p.app))
	}
	runOpts, err := application.TelegramRunOptions()
	if err != nil {
		return closeOnError(ctx, p.app, fmt.Errorf("cmd: telegram options build failed: %w", err))
	}

	prevStart := runOpts.OnStart
	runOpts.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if prevStart != nil {
			if err := prevStart(ctx, rt); err != nil {
				return err
			}
		}
		logger.L.With("component", "app").Info("app ready",
			slog.String("event", "ready"),
			slog.Duration("startup_duration", logger.RoundMS(time.Since(p.startedAt))),
		)
		return nil
	}

	prevStop := runOpts.OnStop
	runOpts.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.L.With("component", "app").Info("shutting down...",
			slog.String("event", "shutdown"),
		)
		if prevStop != nil {
			return prevStop(ctx, rt)
		}
		return nil
	}

	run := opts.RunTelegram
	if run == nil {
		run = coretelegram.RunTelegram
	}
	return closeOnError(ctx, p.app, run(ctx, runOpts))
}

// RunCron loads configuration, bootstraps the app and replays its cron
// updates through the regular handler chain.
func RunCron(opts Options) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p, err := prepare(ctx, opts)
	if err != nil {
		return err
	}
	defer p.finish()

	application, ok := p.app.(CronApp)
	if !ok {
		return closeOnError(ctx, p.app, fmt.Errorf("cmd: %T does not implement CronApp", p.app))
	}
	runOpts, updates, err := application.CronRunOptions()
	if err != nil {
		return closeOnError(ctx, p.app, fmt.Errorf("cmd: cron options build failed: %w", err))
	}

	replay := opts.Replay
	if replay == nil {
		replay = coretelegram.Replay
	}
	err = replay(ctx, runOpts, updates)
	logger.L.With("component", "app").Info("cron finished",
		slog.String("event", "cron.done"),
		slog.String("status", logger.Status(err)),
		slog.Int("updates", len(updates)),
		slog.Duration("duration", logger.RoundMS(time.Since(p.startedAt))),
	)
	return closeOnError(ctx, p.app, err)
}

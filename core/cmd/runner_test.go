package cmd

import (
	"context"
	"errors"
	"testing"

	coreconfig "github.com/m3rciful/orderbot/core/config"
	coretelegram "github.com/m3rciful/orderbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

type fakeApp struct {
	runErr error
	closed int
}

func (a *fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{}, a.runErr
}

func (a *fakeApp) CronRunOptions() (coretelegram.RunOptions, []tele.Update, error) {
	return coretelegram.RunOptions{}, []tele.Update{{ID: 1}}, nil
}

func (a *fakeApp) Close(context.Context) error { a.closed++; return nil }

func baseOptions(app *fakeApp, loaded *string) Options {
	return Options{
		ConfigPath: "config.yaml",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			*loaded = path
			return &coreconfig.Config{}, nil
		},
		Bootstrap:      func(context.Context, ConfigCarrier) (any, error) { return app, nil },
		ShutdownLogger: func() error { return nil },
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("ORDERBOT_CONFIG", "/etc/orderbot.yaml")
	if p, _ := ResolveConfigPath(Options{ConfigPath: "flag.yaml", ConfigEnvVar: "ORDERBOT_CONFIG"}); p != "flag.yaml" {
		t.Fatalf("flag must win, got %s", p)
	}
	if p, _ := ResolveConfigPath(Options{ConfigEnvVar: "ORDERBOT_CONFIG", DefaultConfigPath: "d.yaml"}); p != "/etc/orderbot.yaml" {
		t.Fatalf("env must win over default, got %s", p)
	}
	t.Setenv("CONFIG_PATH", "")
	if p, _ := ResolveConfigPath(Options{DefaultConfigPath: "d.yaml"}); p != "d.yaml" {
		t.Fatalf("default expected, got %s", p)
	}
	if _, err := ResolveConfigPath(Options{}); err == nil {
		t.Fatalf("expected error without any path")
	}
}

func TestRunWrapsLifecycleHooks(t *testing.T) {
	app := &fakeApp{}
	var loaded string
	opts := baseOptions(app, &loaded)
	var hooked bool
	opts.RunTelegram = func(ctx context.Context, ro coretelegram.RunOptions) error {
		hooked = ro.OnStart != nil && ro.OnStop != nil
		if err := ro.OnStart(ctx, coretelegram.Runtime{}); err != nil {
			return err
		}
		return ro.OnStop(ctx, coretelegram.Runtime{})
	}
	if err := Run(opts); err != nil {
		t.Fatalf("run: %v", err)
	}
	if loaded != "config.yaml" || !hooked {
		t.Fatalf("loaded=%q hooked=%v", loaded, hooked)
	}
	if app.closed != 0 {
		t.Fatalf("a clean run leaves closing to OnStop")
	}
}

func TestRunClosesAppOnFailure(t *testing.T) {
	boom := errors.New("boom")
	app := &fakeApp{}
	var loaded string
	opts := baseOptions(app, &loaded)
	opts.RunTelegram = func(context.Context, coretelegram.RunOptions) error { return boom }
	if err := Run(opts); !errors.Is(err, boom) {
		t.Fatalf("expected run error, got %v", err)
	}
	if app.closed != 1 {
		t.Fatalf("app must be closed after a failed run, closed=%d", app.closed)
	}
}

func TestRunCronReplaysUpdates(t *testing.T) {
	app := &fakeApp{}
	var loaded string
	opts := baseOptions(app, &loaded)
	var replayed int
	opts.Replay = func(_ context.Context, _ coretelegram.RunOptions, updates []tele.Update) error {
		replayed = len(updates)
		return nil
	}
	if err := RunCron(opts); err != nil {
		t.Fatalf("cron: %v", err)
	}
	if replayed != 1 {
		t.Fatalf("replayed %d updates", replayed)
	}
}

func TestRunRequiresLoaders(t *testing.T) {
	if err := Run(Options{}); err == nil {
		t.Fatalf("expected error without LoadConfig")
	}
}

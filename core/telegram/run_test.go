package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	coreconfig "github.com/m3rciful/orderbot/core/config"
	"github.com/m3rciful/orderbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func replayConfig() *coreconfig.Config {
	return &coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "123:test", AdminID: 1}}
}

func adminCommand(id int, text string) tele.Update {
	return tele.Update{ID: id, Message: &tele.Message{
		ID:     id,
		Text:   text,
		Sender: &tele.User{ID: 1},
		Chat:   &tele.Chat{ID: 1, Type: tele.ChatPrivate},
	}}
}

func TestReplayRunsUpdatesThroughRoutesInOrder(t *testing.T) {
	var seen []string
	record := func(c tele.Context) error {
		seen = append(seen, c.Text()+"|"+c.Message().Payload)
		return nil
	}
	var started, stopped bool
	err := Replay(context.Background(), RunOptions{
		Config:  replayConfig(),
		Offline: true,
		Middlewares: []Middleware{{Name: "mark", Use: func(next tele.HandlerFunc) tele.HandlerFunc {
			return func(c tele.Context) error {
				c.Set("marked", true)
				return next(c)
			}
		}}},
		Routes: []Route{
			{Endpoint: "/whoami", Handler: record},
			{Endpoint: "/echo", Handler: func(c tele.Context) error {
				if marked, _ := c.Get("marked").(bool); !marked {
					t.Errorf("global middleware did not run")
				}
				return record(c)
			}},
		},
		OnStart: func(_ context.Context, rt Runtime) error {
			started = rt.Bot != nil && rt.Dispatcher != nil
			return nil
		},
		OnStop: func(context.Context, Runtime) error { stopped = true; return nil },
	}, []tele.Update{adminCommand(1, "/whoami"), adminCommand(2, "/echo I'm a bot!")})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !started || !stopped {
		t.Fatalf("lifecycle hooks not called: started=%v stopped=%v", started, stopped)
	}
	if len(seen) != 2 || seen[0] != "/whoami|" || seen[1] != "/echo I'm a bot!|I'm a bot!" {
		t.Fatalf("unexpected handled updates: %q", seen)
	}
}

func TestReplayStopsOnStartError(t *testing.T) {
	boom := errors.New("boom")
	err := Replay(context.Background(), RunOptions{
		Config:  replayConfig(),
		Offline: true,
		OnStart: func(context.Context, Runtime) error { return boom },
	}, []tele.Update{adminCommand(1, "/whoami")})
	if !errors.Is(err, boom) {
		t.Fatalf("expected OnStart error, got %v", err)
	}
}

func TestReplayRequiresConfig(t *testing.T) {
	if err := Replay(context.Background(), RunOptions{}, nil); err == nil {
		t.Fatalf("expected error without config")
	}
}

func TestBuildPoller(t *testing.T) {
	p := BuildPoller(PollerOptions{RunMode: "WEBHOOK", Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://example.org/hook"}})
	wh, ok := p.(*tele.Webhook)
	if !ok {
		t.Fatalf("expected webhook poller, got %T", p)
	}
	if wh.Listen != "0.0.0.0:8443" || wh.Endpoint.PublicURL != "https://example.org/hook" {
		t.Fatalf("unexpected webhook: %+v", wh)
	}

	lp, ok := BuildPoller(PollerOptions{}).(*tele.LongPoller)
	if !ok || lp.Timeout != 10*time.Second {
		t.Fatalf("expected default long poller, got %+v", lp)
	}
}

func TestRegistryListsVisibleCommandsWithoutSlash(t *testing.T) {
	reg := NewRegistry()
	noop := func(tele.Context) error { return nil }
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "start"})
	reg.RegisterCommand("/echo", commands.Command{Handler: noop, Description: "echo", AdminOnly: true})
	reg.RegisterCommand("/whoami", commands.Command{Handler: noop, Description: "whoami", Hidden: true})
	reg.RegisterCommand("bad", commands.Command{Handler: noop, Description: "bad"})
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "dup"})

	if len(reg.Commands()) != 3 {
		t.Fatalf("expected 3 commands, got %d", len(reg.Commands()))
	}
	visible := reg.ListCommands(true)
	if len(visible) != 1 || visible[0].Text != "start" || visible[0].Description != "start" {
		t.Fatalf("unexpected visible commands: %+v", visible)
	}
	if _, _, ok := reg.LookupCommand("whoami"); !ok {
		t.Fatalf("lookup without slash failed")
	}
}

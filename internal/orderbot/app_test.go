package orderbot

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/m3rciful/orderbot/core/bootstrap"
	coreconfig "github.com/m3rciful/orderbot/core/config"
	"github.com/m3rciful/orderbot/core/dialog"
	"github.com/m3rciful/orderbot/core/dialog/memstore"
	tg "github.com/m3rciful/orderbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

type delivery struct {
	to   string
	text string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []delivery
}

func (r *recordingSender) Send(to tele.Recipient, what interface{}, _ ...interface{}) (*tele.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, delivery{to: to.Recipient(), text: what.(string)})
	return &tele.Message{}, nil
}

func testConfig() *Config {
	return &Config{
		Config: coreconfig.Config{
			Telegram: coreconfig.TelegramConfig{Token: "123:test", AdminID: 1},
			Storage:  coreconfig.StorageConfig{Driver: coreconfig.StorageMemory},
		},
		Order: OrderConfig{AdminChatID: -500, SupportContact: "@support"},
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	app, err := New(testConfig(), &bootstrap.Result{
		Driver: coreconfig.StorageMemory,
		Store:  memstore.New(),
		Locker: dialog.NewKeyedMutex(),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return app
}

func userMessage(id int, text string) tele.Update {
	return tele.Update{ID: id, Message: &tele.Message{
		ID:     id,
		Text:   text,
		Sender: &tele.User{ID: 5, FirstName: "Иван", LastName: "Петров"},
		Chat:   &tele.Chat{ID: 5, Type: tele.ChatPrivate},
	}}
}

func TestOrderDialogThroughTheBot(t *testing.T) {
	app := newTestApp(t)
	opts, err := app.TelegramRunOptions()
	if err != nil {
		t.Fatalf("run options: %v", err)
	}
	rec := &recordingSender{}
	opts.Offline = true
	opts.OnStart = func(context.Context, tg.Runtime) error {
		app.sink.Bind(rec, nil)
		return nil
	}

	inputs := []string{
		"/order",
		"Ноутбук",
		"Свой вариант",
		"Лёгкий, для командировок",
		"15 03 2099",
		"Работа в поездках",
		"Иванов Иван, Отдел продаж, менеджер",
		"Сидоров Сидор, Отдел продаж",
		"ОК",
	}
	updates := make([]tele.Update, 0, len(inputs))
	for i, text := range inputs {
		updates = append(updates, userMessage(i+1, text))
	}
	if err := tg.Replay(context.Background(), opts, updates); err != nil {
		t.Fatalf("replay: %v", err)
	}

	if len(rec.sent) != len(inputs)+1 {
		t.Fatalf("expected one prompt per input plus the admin report, got %d: %+v", len(rec.sent), rec.sent)
	}
	admin := rec.sent[len(rec.sent)-2]
	if admin.to != "-500" || !strings.Contains(admin.text, "Тут Иван Петров технику заказал(а)") {
		t.Fatalf("unexpected admin report: %+v", admin)
	}
	closing := rec.sent[len(rec.sent)-1]
	if closing.to != "5" || !strings.Contains(closing.text, "@support") {
		t.Fatalf("unexpected closing message: %+v", closing)
	}
}

func TestCronRunOptions(t *testing.T) {
	app := newTestApp(t)
	app.cfg.RateLimit.IntervalMS = 1000

	opts, updates, err := app.CronRunOptions()
	if err != nil {
		t.Fatalf("cron options: %v", err)
	}
	if len(updates) != 2 || updates[0].Message.Text != "/whoami" || updates[1].Message.Sender.ID != 1 {
		t.Fatalf("unexpected updates: %+v", updates)
	}
	if opts.Config.RateLimit.IntervalMS != 0 || app.cfg.RateLimit.IntervalMS != 1000 {
		t.Fatalf("cron must disable rate limiting on a copy of the config")
	}
	for _, mw := range opts.Middlewares {
		if mw.Name == "rate_limit" {
			t.Fatalf("rate limiter must not run during cron")
		}
	}

	app.cfg.Telegram.AdminID = 0
	if _, _, err := app.CronRunOptions(); err == nil {
		t.Fatalf("expected an error without an admin")
	}
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := New(testConfig(), &bootstrap.Result{}); err == nil {
		t.Fatalf("expected an error without a store")
	}
}

package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/m3rciful/orderbot/core/dialog"
	tgsender "github.com/m3rciful/orderbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

type sentMessage struct {
	to   string
	text string
	opts *tele.SendOptions
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (r *recordingSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := sentMessage{to: to.Recipient(), text: what.(string)}
	if len(opts) > 0 {
		m.opts, _ = opts[0].(*tele.SendOptions)
	}
	r.sent = append(r.sent, m)
	return &tele.Message{}, r.err
}

func TestSinkUnbound(t *testing.T) {
	if err := NewSink().Send(context.Background(), dialog.Message{ChatID: 1, Text: "x"}); !errors.Is(err, ErrSinkUnbound) {
		t.Fatalf("expected ErrSinkUnbound, got %v", err)
	}
}

func TestSinkSendsDirectlyWithoutDispatcher(t *testing.T) {
	rec := &recordingSender{}
	s := NewSink()
	s.Bind(rec, nil)

	err := s.Send(context.Background(), dialog.Message{
		ChatID:   42,
		Text:     "Отлично, что тебе нужно заказать?",
		Keyboard: dialog.Choices([]string{"Монитор"}),
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(rec.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(rec.sent))
	}
	got := rec.sent[0]
	if got.to != "42" || got.text != "Отлично, что тебе нужно заказать?" {
		t.Fatalf("unexpected message: %+v", got)
	}
	if got.opts == nil || got.opts.ReplyMarkup == nil || len(got.opts.ReplyMarkup.ReplyKeyboard) != 1 {
		t.Fatalf("keyboard not rendered: %+v", got.opts)
	}
}

func TestSinkRejectsMissingRecipient(t *testing.T) {
	s := NewSink()
	s.Bind(&recordingSender{}, nil)
	if err := s.Send(context.Background(), dialog.Message{Text: "x"}); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("expected ErrNoRecipient, got %v", err)
	}
}

func TestSinkQueuesThroughDispatcher(t *testing.T) {
	rec := &recordingSender{}
	disp := tgsender.NewDispatcher(tgsender.Options{Workers: 1})
	s := NewSink()
	s.Bind(rec, disp)

	for _, text := range []string{"admin", "user"} {
		if err := s.Send(context.Background(), dialog.Message{ChatID: 1, Text: text, RemoveKeyboard: text == "user"}); err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	disp.Close()

	if len(rec.sent) != 2 || rec.sent[0].text != "admin" || rec.sent[1].text != "user" {
		t.Fatalf("unexpected deliveries: %+v", rec.sent)
	}
	if rm := rec.sent[1].opts.ReplyMarkup; rm == nil || !rm.RemoveKeyboard {
		t.Fatalf("expected remove keyboard on the closing message")
	}

	// closed queue falls back to a direct send
	if err := s.Send(context.Background(), dialog.Message{ChatID: 1, Text: "late"}); err != nil {
		t.Fatalf("fallback send: %v", err)
	}
	if len(rec.sent) != 3 {
		t.Fatalf("expected fallback delivery, got %d", len(rec.sent))
	}
}

package telegram

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/orderbot/core/dialog"
	"github.com/m3rciful/orderbot/core/logger"
	"github.com/m3rciful/orderbot/core/metrics"
	"github.com/m3rciful/orderbot/core/telegram/keyboard"
	tgsender "github.com/m3rciful/orderbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrSinkUnbound is returned when a dialog message is sent before the bot is running.
	ErrSinkUnbound = errors.New("telegram: sink is not bound to a bot")
	// ErrNoRecipient is returned for messages without a chat id.
	ErrNoRecipient = errors.New("telegram: message has no recipient")
)

// Sender is the part of *tele.Bot used to deliver dialog messages.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

type sinkTarget struct {
	bot  Sender
	disp *tgsender.Dispatcher
}

// Sink delivers dialog messages through the bot. Dialog engines are built
// before the bot exists, so the sink is bound once the runtime is up.
type Sink struct {
	target atomic.Pointer[sinkTarget]
}

var _ dialog.Sink = (*Sink)(nil)

// NewSink returns an unbound sink.
func NewSink() *Sink { return &Sink{} }

// Bind attaches the bot and, optionally, the async dispatcher.
// Passing a nil bot unbinds the sink.
func (s *Sink) Bind(bot Sender, disp *tgsender.Dispatcher) {
	if bot == nil {
		s.target.Store(nil)
		return
	}
	s.target.Store(&sinkTarget{bot: bot, disp: disp})
}

// Send implements dialog.Sink. With a dispatcher the message is queued and
// delivery errors are reported by the dispatcher; a saturated or closed queue
// falls back to a synchronous send.
func (s *Sink) Send(ctx context.Context, msg dialog.Message) error {
	t := s.target.Load()
	if t == nil {
		return ErrSinkUnbound
	}
	if msg.ChatID == 0 {
		return ErrNoRecipient
	}

	opts := &tele.SendOptions{ReplyMarkup: keyboard.ForMessage(msg)}
	run := func() error {
		_, err := t.bot.Send(tele.ChatID(msg.ChatID), msg.Text, opts)
		return err
	}
	direct := func() error {
		err := run()
		metrics.IncSent(err)
		return err
	}

	if t.disp == nil {
		return direct()
	}
	err := t.disp.Enqueue(ctx, "dialog.send", "sendMessage", run)
	if errors.Is(err, tgsender.ErrQueueFull) || errors.Is(err, tgsender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", "dialog.send"),
			slog.String("err", err.Error()),
		)
		return direct()
	}
	return err
}

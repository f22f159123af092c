package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/orderbot/core/logger"
)

const component = "dialog"

// Options tune an Engine.
type Options struct {
	// AdminChatID receives the completion notification.
	AdminChatID int64
	// Locker serialises calls per key. Defaults to an in-process KeyedMutex.
	Locker Locker
	// Observer receives engine events. Defaults to NopObserver.
	Observer Observer
	// Now overrides the clock.
	Now func() time.Time
}

// Engine runs one Flow against a Store and delivers its output to a Sink.
type Engine[N any] struct {
	flow  *Flow[N]
	store Store
	sink  Sink
	opts  Options
}

// NewEngine validates the flow and wires its collaborators.
func NewEngine[N any](flow *Flow[N], store Store, sink Sink, opts Options) (*Engine[N], error) {
	if err := flow.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, ErrNoStore
	}
	if sink == nil {
		return nil, ErrNoSink
	}
	if opts.Locker == nil {
		opts.Locker = NewKeyedMutex()
	}
	if opts.Observer == nil {
		opts.Observer = NopObserver{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine[N]{flow: flow, store: store, sink: sink, opts: opts}, nil
}

// Name returns the flow name, used as the dialog part of the key.
func (e *Engine[N]) Name() string { return e.flow.Name }

// Run implements Runner.
func (e *Engine[N]) Run(ctx context.Context, in Inbound) error {
	_, err := e.Handle(ctx, in)
	return err
}

// Handle processes one inbound message: load, advance, persist, then send.
// When persisting fails nothing is sent.
func (e *Engine[N]) Handle(ctx context.Context, in Inbound) (Transition[N], error) {
	key := Key{UserID: in.UserID, ChatID: in.ChatID, Dialog: e.flow.Name}

	unlock, err := e.opts.Locker.Lock(ctx, key)
	if err != nil {
		return Transition[N]{}, err
	}
	defer unlock()

	rec, err := e.store.Load(ctx, key)
	if err != nil {
		return Transition[N]{}, fmt.Errorf("dialog: load %s: %w", key, err)
	}
	st := e.decode(ctx, rec)

	tr := e.flow.Advance(st, in.Text, Env{
		Now:         e.opts.Now(),
		AdminChatID: e.opts.AdminChatID,
		Participant: in.Participant,
	})

	if err := e.persist(ctx, rec, tr); err != nil {
		return Transition[N]{}, err
	}
	e.report(ctx, key, tr)

	var sendErrs []error
	for _, msg := range tr.Messages {
		if err := e.sink.Send(ctx, msg); err != nil {
			sendErrs = append(sendErrs, fmt.Errorf("dialog: send to %d: %w", msg.ChatID, err))
		}
	}
	return tr, errors.Join(sendErrs...)
}

// Cancel abandons the active conversation of the user in the chat, if any.
func (e *Engine[N]) Cancel(ctx context.Context, userID, chatID int64) error {
	key := Key{UserID: userID, ChatID: chatID, Dialog: e.flow.Name}
	unlock, err := e.opts.Locker.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()
	if err := e.store.Clear(ctx, key, StatusCancelled); err != nil {
		return fmt.Errorf("dialog: cancel %s: %w", key, err)
	}
	logger.Info(ctx, component, "dialog.cancel", slog.String("dialog", key.Dialog))
	return nil
}

// Peek returns the typed persisted state without advancing it.
func (e *Engine[N]) Peek(ctx context.Context, userID, chatID int64) (State[N], error) {
	key := Key{UserID: userID, ChatID: chatID, Dialog: e.flow.Name}
	rec, err := e.store.Load(ctx, key)
	if err != nil {
		return State[N]{}, fmt.Errorf("dialog: load %s: %w", key, err)
	}
	return e.decode(ctx, rec), nil
}

func (e *Engine[N]) decode(ctx context.Context, rec *Record) State[N] {
	st := State[N]{Key: rec.Key, Step: rec.Step}
	if len(rec.Notes) > 0 {
		if err := json.Unmarshal(rec.Notes, &st.Notes); err != nil {
			var zero N
			st.Notes = zero
			e.opts.Observer.NotesReset(e.flow.Name)
			logger.Warn(ctx, component, "dialog.notes_reset",
				slog.String("dialog", e.flow.Name),
				slog.String("err", err.Error()),
			)
		}
	}
	if st.Step != "" && !e.flow.Has(st.Step) {
		logger.Warn(ctx, component, "dialog.step_unknown",
			slog.String("dialog", e.flow.Name),
			slog.String("step", string(st.Step)),
		)
		st.Step = ""
	}
	return st
}

func (e *Engine[N]) persist(ctx context.Context, rec *Record, tr Transition[N]) error {
	if tr.Completed || tr.Exhausted {
		if err := e.store.Clear(ctx, rec.Key, StatusStopped); err != nil {
			return fmt.Errorf("dialog: clear %s: %w", rec.Key, err)
		}
		return nil
	}
	raw, err := json.Marshal(tr.State.Notes)
	if err != nil {
		return fmt.Errorf("dialog: encode notes %s: %w", rec.Key, err)
	}
	rec.Step = tr.State.Step
	rec.Notes = raw
	rec.Status = StatusActive
	if err := e.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("dialog: save %s: %w", rec.Key, err)
	}
	return nil
}

func (e *Engine[N]) report(ctx context.Context, key Key, tr Transition[N]) {
	obs := e.opts.Observer
	for _, id := range tr.Satisfied {
		obs.StepAccepted(key.Dialog, id)
	}
	attrs := []slog.Attr{
		slog.String("dialog", key.Dialog),
		slog.Int("satisfied", len(tr.Satisfied)),
		slog.Int("messages", len(tr.Messages)),
	}
	if tr.Restarted {
		obs.Restarted(key.Dialog)
		logger.Info(ctx, component, "dialog.restart", attrs...)
	}
	switch {
	case tr.Completed:
		obs.Completed(key.Dialog)
		logger.Info(ctx, component, "dialog.complete", attrs...)
	case tr.Exhausted:
		obs.Exhausted(key.Dialog)
		logger.Warn(ctx, component, "dialog.exhausted", attrs...)
	case tr.Prompted != "":
		attrs = append(attrs, slog.String("step", string(tr.Prompted)))
		if len(tr.Satisfied) == 0 && !tr.Restarted {
			obs.Reprompted(key.Dialog, tr.Prompted)
			logger.Info(ctx, component, "dialog.reprompt", attrs...)
			return
		}
		logger.Info(ctx, component, "dialog.advance", attrs...)
	}
}

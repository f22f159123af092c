package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/m3rciful/orderbot/core/dialog"
	"github.com/m3rciful/orderbot/core/logger"
	tghelpers "github.com/m3rciful/orderbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// ErrUnknownDialog is returned when no runner is registered under a name.
var ErrUnknownDialog = errors.New("state: unknown dialog")

// ActiveLookup is the part of dialog.Store the manager needs.
type ActiveLookup interface {
	Active(ctx context.Context, userID, chatID int64) (string, bool, error)
}

// Manager dispatches updates to dialog runners.
type Manager struct {
	lookup  ActiveLookup
	mu      sync.RWMutex
	runners map[string]dialog.Runner
}

// NewManager returns a Manager backed by lookup.
func NewManager(lookup ActiveLookup) *Manager {
	return &Manager{lookup: lookup, runners: make(map[string]dialog.Runner)}
}

// Register adds a runner under its name.
func (m *Manager) Register(r dialog.Runner) error {
	if r == nil || r.Name() == "" {
		return errors.New("state: runner without a name")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.runners[r.Name()]; dup {
		return fmt.Errorf("state: dialog %s already registered", r.Name())
	}
	m.runners[r.Name()] = r
	return nil
}

// Dialogs lists the registered dialog names.
func (m *Manager) Dialogs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.runners))
	for name := range m.runners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Manager) runner(name string) (dialog.Runner, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runners[name]
	return r, ok
}

// Active returns the registered dialog the sender is in within the current chat.
// Lookup failures are logged and treated as no dialog.
func (m *Manager) Active(c tele.Context) (string, bool) {
	user, chat := c.Sender(), c.Chat()
	if m == nil || m.lookup == nil || user == nil || chat == nil {
		return "", false
	}
	ctx := tghelpers.BuildContext(c)
	name, ok, err := m.lookup.Active(ctx, user.ID, chat.ID)
	if err != nil {
		logger.Warn(ctx, "tg", "dialog.lookup_failed", slog.String("err", err.Error()))
		return "", false
	}
	if !ok {
		return "", false
	}
	if _, known := m.runner(name); !known {
		logger.Warn(ctx, "tg", "dialog.unregistered", slog.String("dialog", name))
		return "", false
	}
	return name, true
}

// InProgress reports whether the sender has an active dialog in this chat.
func (m *Manager) InProgress(c tele.Context) bool {
	_, ok := m.Active(c)
	return ok
}

// ManagerHandler forwards the message text to the active dialog. Non-text
// messages arrive as empty input and get the current prompt again.
func (m *Manager) ManagerHandler(c tele.Context) error {
	name, ok := m.Active(c)
	if !ok {
		return nil
	}
	text := ""
	if msg := c.Message(); msg != nil {
		text = msg.Text
	}
	return m.Start(c, name, text)
}

// Start feeds text into the named dialog for the sender, creating it on first use.
func (m *Manager) Start(c tele.Context, name, text string) error {
	r, ok := m.runner(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDialog, name)
	}
	ctx := tghelpers.BuildContext(c)
	logger.Debug(ctx, "tg", "dialog.route", slog.String("dialog", name))
	return r.Run(ctx, Inbound(c, text))
}

// Cancel abandons the active dialog of the sender. It reports whether there was one.
func (m *Manager) Cancel(c tele.Context) (bool, error) {
	name, ok := m.Active(c)
	if !ok {
		return false, nil
	}
	r, _ := m.runner(name)
	return true, r.Cancel(tghelpers.BuildContext(c), c.Sender().ID, c.Chat().ID)
}

// Inbound converts the current update into dialog input.
func Inbound(c tele.Context, text string) dialog.Inbound {
	in := dialog.Inbound{Text: text}
	if user := c.Sender(); user != nil {
		in.UserID = user.ID
		in.FirstName = user.FirstName
		in.LastName = user.LastName
	}
	if chat := c.Chat(); chat != nil {
		in.ChatID = chat.ID
		in.Group = chat.Type == tele.ChatGroup || chat.Type == tele.ChatSuperGroup
	}
	return in
}

package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoStore is returned when an engine is built without persistence.
	ErrNoStore = errors.New("dialog: state store is required")
	// ErrNoSink is returned when an engine is built without an outbound sink.
	ErrNoSink = errors.New("dialog: message sink is required")
	// ErrLockTimeout reports that the per-key lock could not be acquired in time.
	ErrLockTimeout = errors.New("dialog: lock not acquired")
)

// StepID names one step of a flow.
type StepID string

// Status is the lifecycle marker of a persisted conversation.
type Status string

const (
	StatusActive    Status = "active"
	StatusStopped   Status = "stopped"
	StatusCancelled Status = "cancelled"
)

// Key identifies a conversation.
type Key struct {
	UserID int64
	ChatID int64
	Dialog string
}

func (k Key) String() string {
	return fmt.Sprintf("%d:%d:%s", k.UserID, k.ChatID, k.Dialog)
}

// Record is the persisted, flow-agnostic form of a conversation.
// An empty Step means no step is active yet.
type Record struct {
	ID        int64
	Key       Key
	Step      StepID
	Notes     json.RawMessage
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRecord returns a fresh active record for key.
func NewRecord(key Key) *Record {
	return &Record{Key: key, Status: StatusActive}
}

// State is the typed view of a Record used by a Flow.
type State[N any] struct {
	Key   Key
	Step  StepID
	Notes N
}

// Store persists conversations. Load never returns a nil record without an
// error: a missing conversation is reported as a fresh active record.
type Store interface {
	Load(ctx context.Context, key Key) (*Record, error)
	Save(ctx context.Context, rec *Record) error
	Clear(ctx context.Context, key Key, status Status) error
	// Active reports the dialog name of the active conversation for a user in a chat.
	Active(ctx context.Context, userID, chatID int64) (string, bool, error)
}

// Locker serialises read-modify-write cycles of one key.
type Locker interface {
	Lock(ctx context.Context, key Key) (unlock func(), err error)
}

// Keyboard is a reply keyboard descriptor.
type Keyboard struct {
	Rows      [][]string
	Resize    bool
	OneTime   bool
	Selective bool
}

// Choices builds a resizable, one-time, selective keyboard.
func Choices(rows ...[]string) *Keyboard {
	return &Keyboard{Rows: rows, Resize: true, OneTime: true, Selective: true}
}

// Contains reports whether text matches one of the buttons.
func (k *Keyboard) Contains(text string) bool {
	if k == nil {
		return false
	}
	for _, row := range k.Rows {
		for _, b := range row {
			if b == text {
				return true
			}
		}
	}
	return false
}

// Message is one outbound "send message" request.
type Message struct {
	ChatID         int64
	Text           string
	Keyboard       *Keyboard
	RemoveKeyboard bool
	ForceReply     bool
}

// Sink delivers outbound messages.
type Sink interface {
	Send(ctx context.Context, msg Message) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, msg Message) error

// Send calls f.
func (f SinkFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

// Participant describes who is talking to the bot.
type Participant struct {
	UserID    int64
	ChatID    int64
	FirstName string
	LastName  string
	Group     bool
}

// Inbound is a single user message addressed to a dialog.
type Inbound struct {
	Participant
	Text string
}

// Field is one labelled answer, used when rendering summaries.
type Field struct {
	Label string
	Value string
}

// Runner is the non-generic face of an Engine used by transport handlers.
type Runner interface {
	Name() string
	Run(ctx context.Context, in Inbound) error
	Cancel(ctx context.Context, userID, chatID int64) error
}

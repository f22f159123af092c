package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/orderbot/core/dialog"
)

// ConversationStore persists dialog records in the conversations table.
// Finished rows are kept with their final status as an audit trail.
type ConversationStore struct {
	db *sqlx.DB
}

// NewConversationStore wraps an open pool.
func NewConversationStore(db *sqlx.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

type conversationRow struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	ChatID    int64     `db:"chat_id"`
	Dialog    string    `db:"dialog"`
	Status    string    `db:"status"`
	Step      string    `db:"step"`
	Notes     []byte    `db:"notes"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r conversationRow) record() *dialog.Record {
	return &dialog.Record{
		ID:        r.ID,
		Key:       dialog.Key{UserID: r.UserID, ChatID: r.ChatID, Dialog: r.Dialog},
		Step:      dialog.StepID(r.Step),
		Notes:     r.Notes,
		Status:    dialog.Status(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

const (
	selectActiveConversation = `
SELECT id, user_id, chat_id, dialog, status, step, notes, created_at, updated_at
FROM conversations
WHERE user_id = $1 AND chat_id = $2 AND dialog = $3 AND status = 'active'
ORDER BY id DESC
LIMIT 1`

	insertConversation = `
INSERT INTO conversations (user_id, chat_id, dialog, status, step, notes)
VALUES ($1, $2, $3, $4, $5, $6::jsonb)
RETURNING id, created_at, updated_at`

	updateConversation = `
UPDATE conversations
SET status = $1, step = $2, notes = $3::jsonb, updated_at = now()
WHERE id = $4
RETURNING updated_at`

	closeConversation = `
UPDATE conversations
SET status = $1, step = '', updated_at = now()
WHERE user_id = $2 AND chat_id = $3 AND dialog = $4 AND status = 'active'`

	selectActiveDialog = `
SELECT dialog
FROM conversations
WHERE user_id = $1 AND chat_id = $2 AND status = 'active'
ORDER BY updated_at DESC
LIMIT 1`
)

// Load returns the active conversation for key or a fresh record.
func (s *ConversationStore) Load(ctx context.Context, key dialog.Key) (*dialog.Record, error) {
	var row conversationRow
	err := s.db.GetContext(ctx, &row, selectActiveConversation, key.UserID, key.ChatID, key.Dialog)
	if errors.Is(err, sql.ErrNoRows) {
		return dialog.NewRecord(key), nil
	}
	if err != nil {
		return nil, fmt.Errorf("select conversation: %w", err)
	}
	return row.record(), nil
}

// Save inserts rec on first write and updates it afterwards.
func (s *ConversationStore) Save(ctx context.Context, rec *dialog.Record) error {
	notes := string(rec.Notes)
	if notes == "" {
		notes = "{}"
	}
	status := rec.Status
	if status == "" {
		status = dialog.StatusActive
	}

	if rec.ID == 0 {
		err := s.db.QueryRowxContext(ctx, insertConversation,
			rec.Key.UserID, rec.Key.ChatID, rec.Key.Dialog, string(status), string(rec.Step), notes,
		).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert conversation: %w", err)
		}
		rec.Status = status
		return nil
	}

	err := s.db.QueryRowxContext(ctx, updateConversation,
		string(status), string(rec.Step), notes, rec.ID,
	).Scan(&rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update conversation %d: %w", rec.ID, err)
	}
	rec.Status = status
	return nil
}

// Clear closes the active conversation for key with the given status.
func (s *ConversationStore) Clear(ctx context.Context, key dialog.Key, status dialog.Status) error {
	if status == "" || status == dialog.StatusActive {
		status = dialog.StatusStopped
	}
	if _, err := s.db.ExecContext(ctx, closeConversation, string(status), key.UserID, key.ChatID, key.Dialog); err != nil {
		return fmt.Errorf("close conversation: %w", err)
	}
	return nil
}

// Active reports the dialog of the most recently touched active conversation.
func (s *ConversationStore) Active(ctx context.Context, userID, chatID int64) (string, bool, error) {
	var name string
	err := s.db.GetContext(ctx, &name, selectActiveDialog, userID, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select active dialog: %w", err)
	}
	return name, true, nil
}

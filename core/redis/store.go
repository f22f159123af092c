package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/m3rciful/orderbot/core/dialog"
)

// Store is a dialog.Store backed by Redis. Each conversation is one JSON
// value with a sliding TTL; a per user/chat pointer names the active dialog.
// Closed conversations keep their final status until the TTL expires.
type Store struct {
	cli *redis.Client
	cfg Config
	now func() time.Time
}

// NewStore wraps an open client.
func NewStore(cli *redis.Client, cfg Config) *Store {
	return &Store{cli: cli, cfg: cfg.withDefaults(), now: time.Now}
}

type storedRecord struct {
	ID        int64           `json:"id"`
	Step      string          `json:"step,omitempty"`
	Notes     json.RawMessage `json:"notes,omitempty"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (s *Store) recordKey(k dialog.Key) string {
	return fmt.Sprintf("%s:dialog:%d:%d:%s", s.cfg.Prefix, k.UserID, k.ChatID, k.Dialog)
}

func (s *Store) activeKey(userID, chatID int64) string {
	return fmt.Sprintf("%s:dialog_active:%d:%d", s.cfg.Prefix, userID, chatID)
}

func (s *Store) seqKey() string { return s.cfg.Prefix + ":dialog_seq" }

func (s *Store) get(ctx context.Context, key dialog.Key) (*storedRecord, error) {
	raw, err := s.cli.Get(ctx, s.recordKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var sr storedRecord
	if err := json.Unmarshal(raw, &sr); err != nil {
		return nil, fmt.Errorf("redis decode %s: %w", key, err)
	}
	return &sr, nil
}

// Load returns the active conversation or a fresh record.
func (s *Store) Load(ctx context.Context, key dialog.Key) (*dialog.Record, error) {
	sr, err := s.get(ctx, key)
	if err != nil {
		return nil, err
	}
	if sr == nil || dialog.Status(sr.Status) != dialog.StatusActive {
		return dialog.NewRecord(key), nil
	}
	return &dialog.Record{
		ID:        sr.ID,
		Key:       key,
		Step:      dialog.StepID(sr.Step),
		Notes:     sr.Notes,
		Status:    dialog.Status(sr.Status),
		CreatedAt: sr.CreatedAt,
		UpdatedAt: sr.UpdatedAt,
	}, nil
}

// Save writes rec and refreshes the active pointer in one transaction.
func (s *Store) Save(ctx context.Context, rec *dialog.Record) error {
	now := s.now().UTC()
	if rec.ID == 0 {
		id, err := s.cli.Incr(ctx, s.seqKey()).Result()
		if err != nil {
			return fmt.Errorf("redis incr: %w", err)
		}
		rec.ID = id
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	if rec.Status == "" {
		rec.Status = dialog.StatusActive
	}

	raw, err := json.Marshal(storedRecord{
		ID:        rec.ID,
		Step:      string(rec.Step),
		Notes:     rec.Notes,
		Status:    string(rec.Status),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("redis encode %s: %w", rec.Key, err)
	}

	_, err = s.cli.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.recordKey(rec.Key), raw, s.cfg.TTL)
		p.Set(ctx, s.activeKey(rec.Key.UserID, rec.Key.ChatID), rec.Key.Dialog, s.cfg.TTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save %s: %w", rec.Key, err)
	}
	return nil
}

// Clear closes the active conversation with status and drops the active
// pointer when it still names key.Dialog.
func (s *Store) Clear(ctx context.Context, key dialog.Key, status dialog.Status) error {
	if status == "" || status == dialog.StatusActive {
		status = dialog.StatusStopped
	}
	sr, err := s.get(ctx, key)
	if err != nil {
		return err
	}
	if sr != nil && dialog.Status(sr.Status) == dialog.StatusActive {
		sr.Status = string(status)
		sr.Step = ""
		sr.UpdatedAt = s.now().UTC()
		raw, err := json.Marshal(sr)
		if err != nil {
			return fmt.Errorf("redis encode %s: %w", key, err)
		}
		if err := s.cli.Set(ctx, s.recordKey(key), raw, s.cfg.TTL).Err(); err != nil {
			return fmt.Errorf("redis close %s: %w", key, err)
		}
	}
	if err := compareAndDelete.Run(ctx, s.cli, []string{s.activeKey(key.UserID, key.ChatID)}, key.Dialog).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis clear active: %w", err)
	}
	return nil
}

// Active reports the dialog named by the active pointer.
func (s *Store) Active(ctx context.Context, userID, chatID int64) (string, bool, error) {
	name, err := s.cli.Get(ctx, s.activeKey(userID, chatID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get active: %w", err)
	}
	return name, true, nil
}

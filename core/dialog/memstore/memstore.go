// Package memstore keeps conversations in process memory. It is the default
// store for development and tests; state is lost on restart.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/m3rciful/orderbot/core/dialog"
)

// Store is an in-memory dialog.Store.
type Store struct {
	mu      sync.RWMutex
	nextID  int64
	records map[dialog.Key]*dialog.Record
	now     func() time.Time
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		records: make(map[dialog.Key]*dialog.Record),
		now:     time.Now,
	}
}

// Load returns a copy of the active record for key or a fresh one.
func (s *Store) Load(_ context.Context, key dialog.Key) (*dialog.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rec, ok := s.records[key]; ok && rec.Status == dialog.StatusActive {
		return clone(rec), nil
	}
	return dialog.NewRecord(key), nil
}

// Save upserts rec, assigning an id on first write.
func (s *Store) Save(_ context.Context, rec *dialog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if rec.ID == 0 {
		s.nextID++
		rec.ID = s.nextID
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	if rec.Status == "" {
		rec.Status = dialog.StatusActive
	}
	s.records[rec.Key] = clone(rec)
	return nil
}

// Clear closes the active conversation for key with status. The closed
// record is kept until the next conversation under the same key replaces it.
func (s *Store) Clear(_ context.Context, key dialog.Key, status dialog.Status) error {
	if status == "" || status == dialog.StatusActive {
		status = dialog.StatusStopped
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok || rec.Status != dialog.StatusActive {
		return nil
	}
	rec.Status = status
	rec.Step = ""
	rec.UpdatedAt = s.now()
	return nil
}

// Active reports the dialog the user is currently in within chatID.
func (s *Store) Active(_ context.Context, userID, chatID int64) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		name   string
		latest time.Time
		found  bool
	)
	for key, rec := range s.records {
		if key.UserID != userID || key.ChatID != chatID || rec.Status != dialog.StatusActive {
			continue
		}
		if !found || rec.UpdatedAt.After(latest) {
			name, latest, found = key.Dialog, rec.UpdatedAt, true
		}
	}
	return name, found, nil
}

func clone(rec *dialog.Record) *dialog.Record {
	cp := *rec
	if rec.Notes != nil {
		cp.Notes = append([]byte(nil), rec.Notes...)
	}
	return &cp
}

package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/m3rciful/orderbot/core/dialog"
)

const (
	conversationsCollection = "conversations"
	countersCollection      = "counters"
)

// Store is a dialog.Store over the conversations collection. Documents are
// keyed by "user:chat:dialog"; closed conversations keep their final status.
type Store struct {
	conversations *mongo.Collection
	counters      *mongo.Collection
	now           func() time.Time
}

// NewStore binds the store to database on cli.
func NewStore(cli *mongo.Client, database string) *Store {
	db := cli.Database(database)
	return &Store{
		conversations: db.Collection(conversationsCollection),
		counters:      db.Collection(countersCollection),
		now:           time.Now,
	}
}

type conversationDoc struct {
	Key       string    `bson:"_id"`
	Seq       int64     `bson:"seq"`
	UserID    int64     `bson:"user_id"`
	ChatID    int64     `bson:"chat_id"`
	Dialog    string    `bson:"dialog"`
	Status    string    `bson:"status"`
	Step      string    `bson:"step"`
	Notes     string    `bson:"notes"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Load returns the active conversation for key or a fresh record.
func (s *Store) Load(ctx context.Context, key dialog.Key) (*dialog.Record, error) {
	var doc conversationDoc
	filter := bson.D{{Key: "_id", Value: key.String()}, {Key: "status", Value: string(dialog.StatusActive)}}
	err := s.conversations.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return dialog.NewRecord(key), nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb find conversation: %w", err)
	}
	rec := &dialog.Record{
		ID:        doc.Seq,
		Key:       key,
		Step:      dialog.StepID(doc.Step),
		Status:    dialog.Status(doc.Status),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	if doc.Notes != "" {
		rec.Notes = json.RawMessage(doc.Notes)
	}
	return rec, nil
}

// Save upserts rec.
func (s *Store) Save(ctx context.Context, rec *dialog.Record) error {
	now := s.now().UTC()
	if rec.ID == 0 {
		seq, err := s.nextSeq(ctx)
		if err != nil {
			return err
		}
		rec.ID = seq
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	if rec.Status == "" {
		rec.Status = dialog.StatusActive
	}

	doc := conversationDoc{
		Key:       rec.Key.String(),
		Seq:       rec.ID,
		UserID:    rec.Key.UserID,
		ChatID:    rec.Key.ChatID,
		Dialog:    rec.Key.Dialog,
		Status:    string(rec.Status),
		Step:      string(rec.Step),
		Notes:     string(rec.Notes),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	_, err := s.conversations.ReplaceOne(ctx, bson.D{{Key: "_id", Value: doc.Key}}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongodb save conversation: %w", err)
	}
	return nil
}

// Clear closes the active conversation with status.
func (s *Store) Clear(ctx context.Context, key dialog.Key, status dialog.Status) error {
	if status == "" || status == dialog.StatusActive {
		status = dialog.StatusStopped
	}
	filter := bson.D{{Key: "_id", Value: key.String()}, {Key: "status", Value: string(dialog.StatusActive)}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: string(status)},
		{Key: "step", Value: ""},
		{Key: "updated_at", Value: s.now().UTC()},
	}}}
	if _, err := s.conversations.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("mongodb close conversation: %w", err)
	}
	return nil
}

// Active reports the dialog of the latest active conversation.
func (s *Store) Active(ctx context.Context, userID, chatID int64) (string, bool, error) {
	filter := bson.D{
		{Key: "user_id", Value: userID},
		{Key: "chat_id", Value: chatID},
		{Key: "status", Value: string(dialog.StatusActive)},
	}
	opts := options.FindOne().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetProjection(bson.D{{Key: "dialog", Value: 1}})

	var doc struct {
		Dialog string `bson:"dialog"`
	}
	err := s.conversations.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("mongodb find active: %w", err)
	}
	return doc.Dialog, true, nil
}

func (s *Store) nextSeq(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: conversationsCollection}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: int64(1)}}}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("mongodb next seq: %w", err)
	}
	return counter.Seq, nil
}

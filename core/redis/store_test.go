package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/m3rciful/orderbot/core/dialog"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	cli := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cli.Close() })
	return mr, cli
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, cli := newTestClient(t)
	store := NewStore(cli, Config{Prefix: "t", TTL: time.Hour})
	key := dialog.Key{UserID: 5, ChatID: 6, Dialog: "order"}

	rec, err := store.Load(ctx, key)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec.ID != 0 || rec.Status != dialog.StatusActive {
		t.Fatalf("unexpected fresh record: %+v", rec)
	}

	rec.Step = "for_whom"
	rec.Notes = json.RawMessage(`{"product":"Монитор"}`)
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if rec.ID != 1 {
		t.Fatalf("id = %d, want 1", rec.ID)
	}
	if ttl := mr.TTL("t:dialog:5:6:order"); ttl != time.Hour {
		t.Fatalf("ttl = %v, want 1h", ttl)
	}

	got, err := store.Load(ctx, key)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.ID != 1 || got.Step != "for_whom" || string(got.Notes) != `{"product":"Монитор"}` {
		t.Fatalf("unexpected record: %+v", got)
	}

	name, ok, err := store.Active(ctx, 5, 6)
	if err != nil || !ok || name != "order" {
		t.Fatalf("active = %q %v %v", name, ok, err)
	}

	if err := store.Clear(ctx, key, dialog.StatusCancelled); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if mr.Exists("t:dialog_active:5:6") {
		t.Fatal("active pointer should be removed after clear")
	}
	raw, err := mr.Get("t:dialog:5:6:order")
	if err != nil {
		t.Fatalf("closed record: %v", err)
	}
	var closed storedRecord
	if err := json.Unmarshal([]byte(raw), &closed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if closed.Status != string(dialog.StatusCancelled) || closed.Step != "" || closed.ID != 1 {
		t.Fatalf("closed record = %+v", closed)
	}

	fresh, err := store.Load(ctx, key)
	if err != nil {
		t.Fatalf("load after clear: %v", err)
	}
	if fresh.ID != 0 || fresh.Status != dialog.StatusActive {
		t.Fatalf("closed conversation must not be resumed: %+v", fresh)
	}
}

func TestStoreClearKeepsOtherActiveDialog(t *testing.T) {
	ctx := context.Background()
	mr, cli := newTestClient(t)
	store := NewStore(cli, Config{Prefix: "t"})

	if err := mr.Set("t:dialog_active:1:1", "survey"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Clear(ctx, dialog.Key{UserID: 1, ChatID: 1, Dialog: "order"}, dialog.StatusCancelled); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if v, _ := mr.Get("t:dialog_active:1:1"); v != "survey" {
		t.Fatalf("active pointer = %q, want survey", v)
	}
}

func TestLockerExclusive(t *testing.T) {
	mr, cli := newTestClient(t)
	l := NewLocker(cli, Config{Prefix: "t", LockTTL: time.Minute, LockRetry: 5 * time.Millisecond})
	key := dialog.Key{UserID: 1, ChatID: 2, Dialog: "order"}

	unlock, err := l.Lock(context.Background(), key)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if !mr.Exists("t:lock:1:2:order") {
		t.Fatal("lock key missing")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, key); !errors.Is(err, dialog.ErrLockTimeout) {
		t.Fatalf("err = %v, want ErrLockTimeout", err)
	}

	unlock()
	if mr.Exists("t:lock:1:2:order") {
		t.Fatal("lock key should be released")
	}
	again, err := l.Lock(context.Background(), key)
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	again()
}

func TestLockerDoesNotReleaseForeignToken(t *testing.T) {
	mr, cli := newTestClient(t)
	l := NewLocker(cli, Config{Prefix: "t", LockTTL: time.Minute})
	key := dialog.Key{UserID: 1, ChatID: 2, Dialog: "order"}

	unlock, err := l.Lock(context.Background(), key)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	// simulate expiry and takeover by another replica
	mr.Del("t:lock:1:2:order")
	if err := mr.Set("t:lock:1:2:order", "other"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	unlock()
	if v, _ := mr.Get("t:lock:1:2:order"); v != "other" {
		t.Fatalf("foreign lock was released: %q", v)
	}
}

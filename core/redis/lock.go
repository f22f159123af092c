package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/m3rciful/orderbot/core/dialog"
	"github.com/m3rciful/orderbot/core/logger"
)

// Locker is a dialog.Locker built on SET NX with a random token.
// The lock expires after LockTTL so a crashed replica cannot wedge a conversation.
type Locker struct {
	cli *redis.Client
	cfg Config
}

// NewLocker wraps an open client.
func NewLocker(cli *redis.Client, cfg Config) *Locker {
	return &Locker{cli: cli, cfg: cfg.withDefaults()}
}

func (l *Locker) lockKey(k dialog.Key) string {
	return fmt.Sprintf("%s:lock:%d:%d:%s", l.cfg.Prefix, k.UserID, k.ChatID, k.Dialog)
}

// Lock polls until the lock is taken or ctx is done.
func (l *Locker) Lock(ctx context.Context, key dialog.Key) (func(), error) {
	name := l.lockKey(key)
	token := uuid.NewString()

	ticker := time.NewTicker(l.cfg.LockRetry)
	defer ticker.Stop()
	for {
		ok, err := l.cli.SetNX(ctx, name, token, l.cfg.LockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			return func() { l.unlock(name, token) }, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", dialog.ErrLockTimeout, key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *Locker) unlock(name, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := compareAndDelete.Run(ctx, l.cli, []string{name}, token).Err(); err != nil && err != redis.Nil {
		logger.Store.Warn("redis unlock failed",
			slog.String("event", "redis.unlock"),
			slog.String("key", name),
			slog.String("err", err.Error()),
		)
	}
}

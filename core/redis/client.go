// Package redis keeps dialog state in Redis and provides a distributed
// per-conversation lock so several bot replicas can share one store.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/m3rciful/orderbot/core/logger"
)

// Config holds Redis connection and keyspace settings.
type Config struct {
	Addr      string        `yaml:"addr" envconfig:"REDIS_ADDR" validate:"required"`
	Password  string        `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB        int           `yaml:"db" envconfig:"REDIS_DB" validate:"gte=0"`
	Prefix    string        `yaml:"prefix" envconfig:"REDIS_PREFIX"`
	TTL       time.Duration `yaml:"ttl" envconfig:"REDIS_TTL"`
	LockTTL   time.Duration `yaml:"lock_ttl" envconfig:"REDIS_LOCK_TTL"`
	LockRetry time.Duration `yaml:"lock_retry" envconfig:"REDIS_LOCK_RETRY"`
}

func (c Config) withDefaults() Config {
	if c.Prefix == "" {
		c.Prefix = "orderbot"
	}
	if c.TTL <= 0 {
		c.TTL = 7 * 24 * time.Hour
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 10 * time.Second
	}
	if c.LockRetry <= 0 {
		c.LockRetry = 25 * time.Millisecond
	}
	return c
}

// Connect opens a client and pings it.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	cli := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cli.Ping(ctx).Err(); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	logger.Store.Info("redis connected",
		slog.String("event", "redis.connect"),
		slog.String("host", cfg.Addr),
		slog.Int("db", cfg.DB),
	)
	return cli, nil
}

// compareAndDelete removes KEYS[1] only while it still holds ARGV[1].
var compareAndDelete = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

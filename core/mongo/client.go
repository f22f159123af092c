// Package mongo keeps dialog state in a MongoDB collection.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/m3rciful/orderbot/core/logger"
)

// Config holds MongoDB connection settings.
type Config struct {
	Host     string `yaml:"host" envconfig:"MONGO_HOST" validate:"required"`
	Port     string `yaml:"port" envconfig:"MONGO_PORT" validate:"required,numeric"`
	User     string `yaml:"user" envconfig:"MONGO_USER"`
	Password string `yaml:"password" envconfig:"MONGO_PASSWORD"`
	Database string `yaml:"database" envconfig:"MONGO_DATABASE" validate:"required"`
}

// Connect opens a client and verifies the primary answers.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(fmt.Sprintf("mongodb://%s:%s", cfg.Host, cfg.Port))
	if cfg.User != "" {
		opts.SetAuth(options.Credential{
			Username:   cfg.User,
			Password:   cfg.Password,
			AuthSource: cfg.Database,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cli, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}
	logger.Store.Info("mongodb connected",
		slog.String("event", "mongo.connect"),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Database),
	)
	return cli, nil
}

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	goredis "github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	gomongo "go.mongodb.org/mongo-driver/mongo"

	coreconfig "github.com/m3rciful/orderbot/core/config"
	coredatabase "github.com/m3rciful/orderbot/core/database"
	"github.com/m3rciful/orderbot/core/dialog"
	"github.com/m3rciful/orderbot/core/dialog/memstore"
	"github.com/m3rciful/orderbot/core/logger"
	coremongo "github.com/m3rciful/orderbot/core/mongo"
	coreredis "github.com/m3rciful/orderbot/core/redis"
)

// Backends carries the connection settings of every storage driver.
// Only the section of the selected driver is used.
type Backends struct {
	Database coredatabase.Config
	Redis    coreredis.Config
	Mongo    coremongo.Config
}

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config   *coreconfig.Config
	Backends Backends

	LoggerInit   func(*coreconfig.Config) error
	Connect      func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate      func(context.Context, coredatabase.Config) error
	ConnectRedis func(context.Context, coreredis.Config) (*goredis.Client, error)
	ConnectMongo func(context.Context, coremongo.Config) (*gomongo.Client, error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	Driver string
	Store  dialog.Store
	Locker dialog.Locker

	DB    *sqlx.DB
	Redis *goredis.Client
	Mongo *gomongo.Client
}

// Close releases the connections opened by Run.
func (r *Result) Close(ctx context.Context) error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.DB != nil {
		errs = append(errs, r.DB.Close())
	}
	if r.Redis != nil {
		errs = append(errs, r.Redis.Close())
	}
	if r.Mongo != nil {
		errs = append(errs, r.Mongo.Disconnect(ctx))
	}
	return errors.Join(errs...)
}

// Run initializes the logger and the conversation store selected by
// storage.driver, applying migrations for Postgres.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	res, err := openStore(ctx, opts)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "store", "store.ready",
		slog.String("driver", res.Driver),
		slog.String("locker", fmt.Sprintf("%T", res.Locker)),
	)
	return res, nil
}

func openStore(ctx context.Context, opts Options) (*Result, error) {
	driver := opts.Config.Storage.Driver
	res := &Result{Driver: driver}

	switch driver {
	case coreconfig.StorageMemory:
		res.Store = memstore.New()
		res.Locker = dialog.NewKeyedMutex()

	case coreconfig.StoragePostgres:
		connect := opts.Connect
		if connect == nil {
			connect = coredatabase.Connect
		}
		db, err := connect(ctx, opts.Backends.Database)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
		}
		migrate := opts.Migrate
		if migrate == nil {
			migrate = coredatabase.RunMigrations
		}
		if err := migrate(ctx, opts.Backends.Database); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
		res.DB = db
		res.Store = coredatabase.NewConversationStore(db)
		res.Locker = dialog.NewKeyedMutex()

	case coreconfig.StorageRedis:
		connect := opts.ConnectRedis
		if connect == nil {
			connect = coreredis.Connect
		}
		cli, err := connect(ctx, opts.Backends.Redis)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: redis initialization failed: %w", err)
		}
		res.Redis = cli
		res.Store = coreredis.NewStore(cli, opts.Backends.Redis)
		res.Locker = coreredis.NewLocker(cli, opts.Backends.Redis)

	case coreconfig.StorageMongo:
		connect := opts.ConnectMongo
		if connect == nil {
			connect = coremongo.Connect
		}
		cli, err := connect(ctx, opts.Backends.Mongo)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: mongo initialization failed: %w", err)
		}
		res.Mongo = cli
		res.Store = coremongo.NewStore(cli, opts.Backends.Mongo.Database)
		res.Locker = dialog.NewKeyedMutex()

	case "", "none", "disabled", "off":
		return nil, coreconfig.ErrStorageDisabled

	default:
		return nil, fmt.Errorf("bootstrap: unknown storage driver %q", driver)
	}
	return res, nil
}

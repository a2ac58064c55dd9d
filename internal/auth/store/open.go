package store

import (
	"context"
	"fmt"
	"log/slog"

	autherrors "github.com/abgdnv/shophub/internal/auth/errors"
	"github.com/abgdnv/shophub/pkg/bootstrap"
	"github.com/abgdnv/shophub/pkg/config"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const defaultMongoDatabase = "shophub"

// Open connects to the database named by cfg.URL, choosing the implementation by URL scheme.
// A non-nil error reports a failed connection, schema setup or ping. The returned store is usable
// nevertheless: it keeps retrying schema setup and recovers once the database becomes reachable,
// unless no client could be created at all. The close function is never nil.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (UserStore, func(), error) {
	switch {
	case config.IsPostgresURL(cfg.URL):
		return openPostgres(ctx, cfg, logger)
	case config.IsMongoURL(cfg.URL):
		return openMongo(ctx, cfg, logger)
	default:
		err := fmt.Errorf("unsupported database url %s", config.MaskURL(cfg.URL))
		return Unavailable{Err: err}, func() {}, err
	}
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (UserStore, func(), error) {
	pool, err := bootstrap.NewDbPool(ctx, cfg.URL, cfg.Timeout)
	if pool == nil {
		return Unavailable{Err: err}, func() {}, err
	}
	closeFn := func() {
		pool.Close()
		logger.Info("PostgreSQL pool closed")
	}
	ps := NewProvisionedStore(NewPgStore(pool), func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return err
		}
		return Migrate(cfg.URL)
	}, logger)
	if err != nil {
		return ps, closeFn, err
	}
	if err := ps.EnsureSchema(ctx); err != nil {
		return ps, closeFn, err
	}
	logger.Info("Successfully connected to PostgreSQL", "url", config.MaskURL(cfg.URL))
	return ps, closeFn, nil
}

func openMongo(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (UserStore, func(), error) {
	database := defaultMongoDatabase
	if cs, err := connstring.ParseAndValidate(cfg.URL); err == nil && cs.Database != "" {
		database = cs.Database
	}
	client, err := bootstrap.NewMongoClient(ctx, cfg.URL, cfg.Timeout)
	if client == nil {
		return Unavailable{Err: err}, func() {}, err
	}
	closeFn := func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			logger.Error("Failed to disconnect from MongoDB", "error", err)
			return
		}
		logger.Info("MongoDB client disconnected")
	}
	ms := NewMongoStore(client, database)
	ps := NewProvisionedStore(ms, func(ctx context.Context) error {
		indexCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
		return ms.EnsureIndexes(indexCtx)
	}, logger)
	if err != nil {
		return ps, closeFn, err
	}
	if err := ps.EnsureSchema(ctx); err != nil {
		return ps, closeFn, err
	}
	logger.Info("Successfully connected to MongoDB", "url", config.MaskURL(cfg.URL), "database", database)
	return ps, closeFn, nil
}

// Unavailable is the store used when no database client could be created at all.
// Every call fails with ErrStoreUnavailable.
type Unavailable struct {
	Err error
}

func (u Unavailable) Create(context.Context, User) (*User, error) { return nil, u.error() }

func (u Unavailable) FindByEmail(context.Context, string) (*User, error) { return nil, u.error() }

func (u Unavailable) FindByID(context.Context, uuid.UUID) (*User, error) { return nil, u.error() }

func (u Unavailable) Ping(context.Context) error { return u.error() }

func (u Unavailable) error() error {
	if u.Err == nil {
		return autherrors.ErrStoreUnavailable
	}
	return fmt.Errorf("%w: %w", autherrors.ErrStoreUnavailable, u.Err)
}

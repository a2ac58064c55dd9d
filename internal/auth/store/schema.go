package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	autherrors "github.com/abgdnv/shophub/internal/auth/errors"
	"github.com/google/uuid"
)

// SchemaFunc prepares the database for a store: migrations for PostgreSQL, indexes for MongoDB.
type SchemaFunc func(ctx context.Context) error

// ProvisionedStore runs schema setup before the first call that reaches the database and
// retries it on every call until it succeeds once. Calls fail with ErrStoreUnavailable
// while the schema is missing.
type ProvisionedStore struct {
	next   UserStore
	setup  SchemaFunc
	logger *slog.Logger

	mu    sync.Mutex
	ready bool
}

var _ UserStore = (*ProvisionedStore)(nil)

// NewProvisionedStore wraps next so that setup has succeeded before next is used.
func NewProvisionedStore(next UserStore, setup SchemaFunc, logger *slog.Logger) *ProvisionedStore {
	return &ProvisionedStore{next: next, setup: setup, logger: logger}
}

// EnsureSchema runs schema setup unless it already succeeded.
func (p *ProvisionedStore) EnsureSchema(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ready {
		return nil
	}
	if err := p.setup(ctx); err != nil {
		return fmt.Errorf("%w: schema setup: %w", autherrors.ErrStoreUnavailable, err)
	}
	p.ready = true
	p.logger.Info("Database schema is ready")
	return nil
}

func (p *ProvisionedStore) Create(ctx context.Context, user User) (*User, error) {
	if err := p.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return p.next.Create(ctx, user)
}

func (p *ProvisionedStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	if err := p.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return p.next.FindByEmail(ctx, email)
}

func (p *ProvisionedStore) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	if err := p.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return p.next.FindByID(ctx, id)
}

// Ping reports the store ready only when the database answers and the schema is in place.
func (p *ProvisionedStore) Ping(ctx context.Context) error {
	if err := p.next.Ping(ctx); err != nil {
		return err
	}
	return p.EnsureSchema(ctx)
}

// Package store provides the user storage of the auth service.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is a registered account. Email is stored normalized (trimmed, lower case).
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserStore is an interface for user storage operations.
// It abstracts the underlying database so the service can run on PostgreSQL or MongoDB.
type UserStore interface {
	// Create inserts a new user.
	// Returns ErrUserExists if the email is already registered.
	Create(ctx context.Context, user User) (*User, error)

	// FindByEmail looks a user up by normalized email.
	// Returns ErrUserNotFound if no user has the given email.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByID looks a user up by id.
	// Returns ErrUserNotFound if no user has the given id.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// Ping reports whether the underlying database is reachable.
	Ping(ctx context.Context) error
}

// Package session holds the signed-in identity of the storefront and its durable copy.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Storage keys.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// Identity is the display profile of the signed-in user.
type Identity struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is at most one identity plus its opaque credential token.
type Session struct {
	Identity *Identity
	Token    string
}

// New returns a session for the given identity and token.
func New(identity Identity, token string) Session {
	return Session{Identity: &identity, Token: token}
}

// Present reports whether somebody is signed in.
func (s Session) Present() bool {
	return s.Identity != nil
}

// Name returns the display name, or an empty string when nobody is signed in.
func (s Session) Name() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Name
}

// Store is durable key/value storage for the session entries.
type Store interface {
	Get(key string) (string, bool, error)
	// Put writes all entries in one operation.
	Put(entries map[string]string) error
	Delete(keys ...string) error
}

var ErrCorrupt = errors.New("stored session is corrupt")

// Persist writes the token and the serialized identity.
func Persist(store Store, s Session) error {
	if !s.Present() {
		return Forget(store)
	}
	user, err := json.Marshal(s.Identity)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	return store.Put(map[string]string{TokenKey: s.Token, UserKey: string(user)})
}

// Forget removes both session entries.
func Forget(store Store) error {
	return store.Delete(TokenKey, UserKey)
}

// Restore reads the stored session. A missing user entry yields an empty session and no error;
// a user entry that cannot be decoded yields an empty session and ErrCorrupt.
func Restore(store Store) (Session, error) {
	raw, ok, err := store.Get(UserKey)
	if err != nil {
		return Session{}, fmt.Errorf("failed to read user: %w", err)
	}
	if !ok || raw == "" {
		return Session{}, nil
	}
	var identity Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if identity.Name == "" && identity.Email == "" {
		return Session{}, ErrCorrupt
	}
	token, _, err := store.Get(TokenKey)
	if err != nil {
		return Session{}, fmt.Errorf("failed to read token: %w", err)
	}
	return New(identity, token), nil
}

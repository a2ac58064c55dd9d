package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/shophub/pkg/messaging"
	"github.com/google/uuid"
)

type UserRegisteredEvent struct {
	UserID       uuid.UUID `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

func (e UserRegisteredEvent) Subject() string {
	return messaging.UsersRegisteredSubject
}

// EventID is unique per user, so a registration is announced at most once.
func (e UserRegisteredEvent) EventID() string {
	return "user-registered-" + e.UserID.String()
}

func (e UserRegisteredEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

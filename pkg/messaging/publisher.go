// Package messaging defines the event publishing contract shared by the services.
package messaging

import (
	"context"
	"errors"
)

const (
	// UsersRegisteredSubject carries UserRegisteredEvent payloads.
	UsersRegisteredSubject = "users.registered"
)

// ErrDuplicateEvent is returned when the broker already holds an event with the same id.
var ErrDuplicateEvent = errors.New("duplicate event")

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

// IdentifiedEvent is an Event with a stable id used for broker side deduplication.
type IdentifiedEvent interface {
	Event
	EventID() string
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher discards every event. Used when NATS is disabled or unreachable.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

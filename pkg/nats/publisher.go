package nats

import (
	"context"
	"fmt"

	"github.com/abgdnv/shophub/pkg/messaging"
	"github.com/nats-io/nats.go/jetstream"
)

// EventPublisher publishes events to JetStream. Events that carry an id are published with
// it as the Nats-Msg-Id header, so the stream drops duplicates inside its dedup window.
type EventPublisher struct {
	js jetstream.JetStream
}

var _ messaging.Publisher = (*EventPublisher)(nil)

func NewEventPublisher(js jetstream.JetStream) *EventPublisher {
	return &EventPublisher{js: js}
}

func (p *EventPublisher) Publish(ctx context.Context, event messaging.Event) error {
	data, err := event.Payload()
	if err != nil {
		return fmt.Errorf("failed to get event payload: %w", err)
	}
	var opts []jetstream.PublishOpt
	if identified, ok := event.(messaging.IdentifiedEvent); ok {
		opts = append(opts, jetstream.WithMsgID(identified.EventID()))
	}
	ack, err := p.js.Publish(ctx, event.Subject(), data, opts...)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", event.Subject(), err)
	}
	if ack.Duplicate {
		return messaging.ErrDuplicateEvent
	}
	return nil
}

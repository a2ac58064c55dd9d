// Package notifier consumes user events from JetStream and sends welcome notifications.
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abgdnv/shophub/pkg/config"
	"github.com/abgdnv/shophub/pkg/messaging/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/sync/errgroup"
)

// ackableMsg is the subset of jetstream.Msg the handler needs.
type ackableMsg interface {
	Data() []byte
	Subject() string
	Ack() error
	Nak() error
	Term() error
}

// Start creates the durable consumer and runs cfg.Workers fetch loops until ctx is cancelled.
func Start(ctx context.Context, js jetstream.JetStream, stream string, cfg config.SubscriberConfig, n Notifier, logger *slog.Logger) error {
	consumer, err := js.CreateOrUpdateConsumer(ctx, stream, jetstream.ConsumerConfig{
		FilterSubject: cfg.Subject,
		Durable:       cfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer %s on stream %s: %w", cfg.Consumer, stream, err)
	}
	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Workers; i++ {
		workerLogger := logger.With("worker", i)
		g.Go(func() error {
			return runWorker(gCtx, consumer, cfg, n, workerLogger)
		})
	}
	return g.Wait()
}

// runWorker fetches batches from the consumer and hands every message to handleMessage.
func runWorker(ctx context.Context, consumer jetstream.Consumer, cfg config.SubscriberConfig, n Notifier, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		batch, err := consumer.Fetch(cfg.Batch, jetstream.FetchMaxWait(cfg.MaxWait))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) {
				continue
			}
			logger.Error("failed to fetch messages", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.Backoff):
			}
			continue
		}
		for msg := range batch.Messages() {
			handleMessage(ctx, msg, n, logger)
		}
		if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) {
			logger.Warn("batch finished with error", "error", err)
		}
	}
}

// handleMessage decodes a UserRegisteredEvent and delivers the welcome notification.
// Undecodable payloads are terminated since redelivery cannot fix them; delivery failures are redelivered.
func handleMessage(ctx context.Context, msg ackableMsg, n Notifier, logger *slog.Logger) {
	if msg == nil {
		logger.Error("received nil message")
		return
	}
	var event events.UserRegisteredEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil || event.Email == "" {
		logger.Error("failed to decode user registered event", "error", err, "subject", msg.Subject())
		if err := msg.Term(); err != nil {
			logger.Error("failed to terminate message", "error", err)
		}
		return
	}

	logger.Info("received user registered event",
		slog.String("subject", msg.Subject()),
		slog.String("user_id", event.UserID.String()),
		slog.String("registered_at", event.RegisteredAt.Format(time.RFC3339)))

	if err := n.Welcome(ctx, event); err != nil {
		logger.Error("failed to send welcome notification", "error", err, "user_id", event.UserID.String())
		if err := msg.Nak(); err != nil {
			logger.Error("failed to nak message", "error", err)
		}
		return
	}
	if err := msg.Ack(); err != nil {
		logger.Error("failed to ack message", "error", err)
	}
}

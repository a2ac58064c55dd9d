package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abgdnv/shophub/pkg/config"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NewClient dials NATS and reports connection state changes to logger when it is not nil.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) (*nats.Conn, error) {
	opts := []nats.Option{nats.Timeout(timeout)}
	if logger != nil {
		opts = append(opts,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				if err != nil {
					logger.Warn("NATS connection lost", "error", err)
				}
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				logger.Info("NATS connection restored", "url", nc.ConnectedUrl())
			}),
		)
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}

func NewJetStreamContext(nc *nats.Conn) (jetstream.JetStream, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	return js, nil
}

// StreamSpec describes the stream holding the user events.
// Zero Duplicates and MaxAge keep the server defaults.
type StreamSpec struct {
	Name       string
	Subjects   []string
	Duplicates time.Duration
	MaxAge     time.Duration
}

// SpecFor builds the stream spec from the connection settings.
func SpecFor(cfg config.NATSConfig, subjects ...string) StreamSpec {
	return StreamSpec{
		Name:       cfg.Stream,
		Subjects:   subjects,
		Duplicates: cfg.Duplicates,
		MaxAge:     cfg.MaxAge,
	}
}

// EnsureStream creates the stream unless it already exists. An existing stream is left untouched.
func EnsureStream(ctx context.Context, js jetstream.JetStream, spec StreamSpec) error {
	_, err := js.Stream(ctx, spec.Name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream %s: %w", spec.Name, err)
	}
	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:       spec.Name,
		Subjects:   spec.Subjects,
		Duplicates: spec.Duplicates,
		MaxAge:     spec.MaxAge,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream %s: %w", spec.Name, err)
	}
	return nil
}

// Connect dials NATS, opens JetStream and ensures the stream for subjects.
// The returned function drains the connection.
func Connect(ctx context.Context, cfg config.NATSConfig, logger *slog.Logger, subjects ...string) (jetstream.JetStream, func() error, error) {
	nc, err := NewClient(cfg.Url, cfg.Timeout, logger)
	if err != nil {
		return nil, nil, err
	}
	js, err := NewJetStreamContext(nc)
	if err != nil {
		return nil, nil, err
	}
	streamCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := EnsureStream(streamCtx, js, SpecFor(cfg, subjects...)); err != nil {
		nc.Close()
		return nil, nil, err
	}
	return js, nc.Drain, nil
}

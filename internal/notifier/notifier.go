package notifier

import (
	"context"
	"log/slog"

	"github.com/abgdnv/shophub/pkg/messaging/events"
)

// Notifier delivers the welcome message of a newly registered user.
type Notifier interface {
	Welcome(ctx context.Context, event events.UserRegisteredEvent) error
}

// LogNotifier writes welcome notifications to the structured log.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notifier")}
}

func (n *LogNotifier) Welcome(ctx context.Context, event events.UserRegisteredEvent) error {
	n.logger.InfoContext(ctx, "welcome notification sent",
		slog.String("user_id", event.UserID.String()),
		slog.String("email", event.Email),
		slog.String("message", "Welcome to ShopHub, "+event.Name+"!"))
	return nil
}

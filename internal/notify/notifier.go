package notify

import (
	"context"
	"log/slog"

	"github.com/BradenHooton/authgate/internal/models"
)

// Notifier delivers a message to an email address
type Notifier interface {
	SendEmail(ctx context.Context, recipient models.Email, subject, content string) error
}

// LogNotifier writes messages to the log instead of sending them. It exists
// for local development, where the 2FA code has to be read from the console.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendEmail(ctx context.Context, recipient models.Email, subject, content string) error {
	n.logger.LogAttrs(ctx, slog.LevelDebug, "email not sent, logging instead",
		slog.Any("recipient", recipient),
		slog.String("subject", subject),
		slog.String("content", content),
	)
	return nil
}

package logger

import (
	"context"
	"log/slog"
	"time"
)

// Auth event types
const (
	EventSignup          = "signup"
	EventLoginSuccess    = "login_success"
	EventLoginFailed     = "login_failed"
	EventChallengeIssued = "2fa_challenge_issued"
	EventTwoFAVerified   = "2fa_verified"
	EventTwoFAFailed     = "2fa_failed"
	EventLogout          = "logout"
)

// AuthEvent is one authentication outcome
type AuthEvent struct {
	EventType     string
	Email         string // masked before logging
	Success       bool
	FailureReason string
}

// AuthEventLogger writes authentication outcomes as structured log lines
type AuthEventLogger struct {
	logger *slog.Logger
}

func NewAuthEventLogger(logger *slog.Logger) *AuthEventLogger {
	return &AuthEventLogger{logger: logger}
}

// Log records event at info level on success and warn level on failure
func (l *AuthEventLogger) Log(ctx context.Context, event AuthEvent) {
	attrs := []slog.Attr{
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	if event.Email != "" {
		attrs = append(attrs, slog.String("email", SanitizedEmail(event.Email)))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	l.logger.LogAttrs(ctx, level, "auth_event", attrs...)
}

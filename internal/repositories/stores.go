package repositories

import (
	"context"
	"time"

	"github.com/BradenHooton/authgate/internal/models"
)

// UserStore is the identity of record.
//
// AddUser returns models.ErrConflict when the email is taken. GetUser and
// ValidateUser return models.ErrNotFound for an unknown email, and
// ValidateUser returns models.ErrPasswordMismatch for a wrong password.
type UserStore interface {
	AddUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, email models.Email) (*models.User, error)
	ValidateUser(ctx context.Context, email models.Email, password models.Password) error
}

// BannedTokenStore records revoked session tokens until their natural expiry
type BannedTokenStore interface {
	AddBannedToken(ctx context.Context, token models.Secret, expiresAt time.Time) error
	IsBanned(ctx context.Context, token models.Secret) (bool, error)
}

// TwoFACodeStore holds at most one outstanding challenge per email. AddCode
// replaces any existing challenge. GetCode, RemoveCode and RemoveCodeIfMatch
// return models.ErrChallengeNotFound for an absent or expired challenge.
// RemoveCodeIfMatch deletes the challenge only while it still carries
// attemptID, atomically; a superseded challenge is left in place and reported
// as not found.
type TwoFACodeStore interface {
	AddCode(ctx context.Context, email models.Email, attemptID models.LoginAttemptID, code models.TwoFACode) error
	GetCode(ctx context.Context, email models.Email) (models.LoginAttemptID, models.TwoFACode, error)
	RemoveCode(ctx context.Context, email models.Email) error
	RemoveCodeIfMatch(ctx context.Context, email models.Email, attemptID models.LoginAttemptID) error
}

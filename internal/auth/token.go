package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/authgate/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// BannedTokenChecker reports whether a token has been revoked
type BannedTokenChecker interface {
	IsBanned(ctx context.Context, token models.Secret) (bool, error)
}

// TokenManager issues and validates signed session tokens
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	banned BannedTokenChecker
	now    func() time.Time
}

// NewTokenManager creates a TokenManager. Validation consults banned after
// the signature and expiry checks pass.
func NewTokenManager(secret string, ttl time.Duration, banned BannedTokenChecker) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		banned: banned,
		now:    time.Now,
	}
}

// WithClock replaces the time source, for tests
func (tm *TokenManager) WithClock(now func() time.Time) *TokenManager {
	tm.now = now
	return tm
}

// Issue creates a session token whose subject is email
func (tm *TokenManager) Issue(email models.Email) (*models.Session, error) {
	now := tm.now()
	expiresAt := now.Add(tm.ttl)

	claims := &models.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   email.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return &models.Session{
		Token:     models.NewSecret(signed),
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// ParseToken checks signature and expiry only
func (tm *TokenManager) ParseToken(token models.Secret) (*models.TokenClaims, error) {
	if token.IsEmpty() {
		return nil, models.ErrMissingToken
	}

	claims := &models.TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token.Expose(), claims, func(*jwt.Token) (any, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, models.ErrInvalidToken
	}

	return claims, nil
}

// ValidateToken checks signature, expiry and revocation. A revocation
// lookup failure is reported as ErrUnexpected so the token is never accepted
// on a backend outage.
func (tm *TokenManager) ValidateToken(ctx context.Context, token models.Secret) (*models.TokenClaims, error) {
	claims, err := tm.ParseToken(token)
	if err != nil {
		return nil, err
	}

	if tm.banned == nil {
		return claims, nil
	}

	banned, err := tm.banned.IsBanned(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: revocation lookup: %w", models.ErrUnexpected, err)
	}
	if banned {
		return nil, fmt.Errorf("%w: token revoked", models.ErrInvalidToken)
	}

	return claims, nil
}

package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the signed session payload: subject is the user's email.
type TokenClaims struct {
	jwt.RegisteredClaims
}

// Session is an issued session token and the moment it stops being valid.
type Session struct {
	Token     Secret
	ExpiresAt time.Time
}

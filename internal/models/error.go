package models

import "errors"

// Sentinel errors surfaced by the authentication flows
var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrIncorrectCredentials = errors.New("incorrect credentials")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrMissingToken         = errors.New("missing auth token")
	ErrInvalidToken         = errors.New("invalid auth token")
	ErrUnexpected           = errors.New("unexpected error")
)

// Store-level conditions, mapped by the auth service before they reach a caller
var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	ErrPasswordMismatch  = errors.New("password does not match")
	ErrChallengeNotFound = errors.New("2fa challenge not found")
)

// ValidationError reports a rejected credential value.
// It unwraps to ErrInvalidCredentials.
type ValidationError struct {
	Field  string
	Input  string // empty for secret fields
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Input == "" {
		return e.Field + ": " + e.Reason
	}
	return e.Field + " " + e.Input + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidCredentials
}

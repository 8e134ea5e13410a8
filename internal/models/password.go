package models

import (
	"fmt"
	"log/slog"
	"unicode/utf8"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

// Password is a validated plaintext password. It is only held transiently
// while a request is being served and is never persisted or logged.
type Password struct {
	secret Secret
}

func ParsePassword(raw string) (Password, error) {
	n := utf8.RuneCountInString(raw)
	if n < MinPasswordLength {
		return Password{}, &ValidationError{
			Field:  "password",
			Reason: fmt.Sprintf("must be at least %d characters", MinPasswordLength),
		}
	}
	if n > MaxPasswordLength {
		return Password{}, &ValidationError{
			Field:  "password",
			Reason: fmt.Sprintf("must be at most %d characters", MaxPasswordLength),
		}
	}
	return Password{secret: NewSecret(raw)}, nil
}

// Expose returns the plaintext for hashing or verification.
func (p Password) Expose() string {
	return p.secret.Expose()
}

func (p Password) String() string {
	return redacted
}

func (p Password) GoString() string {
	return redacted
}

func (p Password) LogValue() slog.Value {
	return slog.StringValue(redacted)
}

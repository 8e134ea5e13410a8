package models

import (
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	pkglogger "github.com/BradenHooton/authgate/pkg/logger"
)

var emailValidator = validator.New()

// Email is a normalized, syntactically valid address. The zero value is not valid.
type Email struct {
	address string
}

// ParseEmail trims and lowercases raw, then checks it has exactly one '@'
// separating a non-empty local part from a dotted domain.
func ParseEmail(raw string) (Email, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return Email{}, &ValidationError{Field: "email", Input: raw, Reason: "must not be empty"}
	}

	local, domain, found := strings.Cut(normalized, "@")
	switch {
	case !found:
		return Email{}, &ValidationError{Field: "email", Input: raw, Reason: "missing @"}
	case strings.Contains(domain, "@"):
		return Email{}, &ValidationError{Field: "email", Input: raw, Reason: "more than one @"}
	case local == "":
		return Email{}, &ValidationError{Field: "email", Input: raw, Reason: "missing local part"}
	case domain == "":
		return Email{}, &ValidationError{Field: "email", Input: raw, Reason: "missing domain"}
	case !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, "."):
		return Email{}, &ValidationError{Field: "email", Input: raw, Reason: "invalid domain"}
	}

	if err := emailValidator.Var(normalized, "email"); err != nil {
		return Email{}, &ValidationError{Field: "email", Input: raw, Reason: "malformed address"}
	}

	return Email{address: normalized}, nil
}

// MustParseEmail is ParseEmail for constants and tests; it panics on invalid input.
func MustParseEmail(raw string) Email {
	email, err := ParseEmail(raw)
	if err != nil {
		panic(err)
	}
	return email
}

func (e Email) String() string {
	return e.address
}

func (e Email) IsZero() bool {
	return e.address == ""
}

// LogValue masks the address so log lines never carry a full email.
func (e Email) LogValue() slog.Value {
	return slog.StringValue(pkglogger.SanitizedEmail(e.address))
}

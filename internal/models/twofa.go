package models

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
)

// TwoFACodeDigits is the width of an emailed 2FA code.
const TwoFACodeDigits = otp.DigitsSix

// LoginAttemptID binds a verify-2fa call to one specific challenge.
type LoginAttemptID string

func NewLoginAttemptID() LoginAttemptID {
	return LoginAttemptID(uuid.NewString())
}

// ParseLoginAttemptID accepts any UUID form and returns its canonical string.
func ParseLoginAttemptID(raw string) (LoginAttemptID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", &ValidationError{Field: "loginAttemptId", Input: raw, Reason: "must be a UUID"}
	}
	return LoginAttemptID(id.String()), nil
}

func (id LoginAttemptID) String() string {
	return string(id)
}

// Equal compares in constant time.
func (id LoginAttemptID) Equal(other LoginAttemptID) bool {
	return subtle.ConstantTimeCompare([]byte(id), []byte(other)) == 1
}

// TwoFACode is a fixed-width numeric one-time code. Like Secret, it never
// renders its digits through fmt or slog.
type TwoFACode struct {
	digits string
}

// NewTwoFACode draws a uniformly random code from crypto/rand.
func NewTwoFACode() (TwoFACode, error) {
	limit := big.NewInt(1)
	for i := 0; i < TwoFACodeDigits.Length(); i++ {
		limit.Mul(limit, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return TwoFACode{}, fmt.Errorf("failed to generate 2fa code: %w", err)
	}

	return TwoFACode{digits: TwoFACodeDigits.Format(int32(n.Int64()))}, nil
}

func ParseTwoFACode(raw string) (TwoFACode, error) {
	if len(raw) != TwoFACodeDigits.Length() {
		return TwoFACode{}, &ValidationError{
			Field:  "2FACode",
			Reason: fmt.Sprintf("must be %d digits", TwoFACodeDigits.Length()),
		}
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return TwoFACode{}, &ValidationError{
				Field:  "2FACode",
				Reason: fmt.Sprintf("must be %d digits", TwoFACodeDigits.Length()),
			}
		}
	}
	return TwoFACode{digits: raw}, nil
}

// Expose returns the digits for delivery or storage.
func (c TwoFACode) Expose() string {
	return c.digits
}

// Equal compares in constant time.
func (c TwoFACode) Equal(other TwoFACode) bool {
	return subtle.ConstantTimeCompare([]byte(c.digits), []byte(other.digits)) == 1
}

func (c TwoFACode) String() string {
	return redacted
}

func (c TwoFACode) GoString() string {
	return redacted
}

func (c TwoFACode) LogValue() slog.Value {
	return slog.StringValue(redacted)
}

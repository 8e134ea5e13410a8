package models

import "log/slog"

const redacted = "[REDACTED]"

// Secret holds a sensitive string. Formatting, logging and JSON encoding all
// render it as [REDACTED]; Expose is the only way to read the raw value.
type Secret struct {
	value string
}

func NewSecret(value string) Secret {
	return Secret{value: value}
}

// Expose returns the raw value.
func (s Secret) Expose() string {
	return s.value
}

func (s Secret) IsEmpty() bool {
	return s.value == ""
}

func (s Secret) String() string {
	return redacted
}

func (s Secret) GoString() string {
	return redacted
}

func (s Secret) LogValue() slog.Value {
	return slog.StringValue(redacted)
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

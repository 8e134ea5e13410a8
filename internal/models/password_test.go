package models

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePassword(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		shouldFail bool
	}{
		{name: "empty", input: "", shouldFail: true},
		{name: "seven characters", input: "1234567", shouldFail: true},
		{name: "eight characters", input: "12345678"},
		{name: "multibyte counts runes", input: "pässwörd"},
		{name: "at maximum", input: strings.Repeat("a", MaxPasswordLength)},
		{name: "over maximum", input: strings.Repeat("a", MaxPasswordLength+1), shouldFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			password, err := ParsePassword(tt.input)
			if tt.shouldFail {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidCredentials))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, password.Expose())
		})
	}
}

func TestParsePassword_ErrorOmitsInput(t *testing.T) {
	_, err := ParsePassword("hunter2")

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "hunter2")
}

func TestPassword_Redacted(t *testing.T) {
	password, err := ParsePassword("password123")
	require.NoError(t, err)

	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", password))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%s", password))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%#v", password))
	assert.Equal(t, slog.KindString, password.LogValue().Kind())
	assert.Equal(t, "[REDACTED]", password.LogValue().String())
}

package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTwoFACode_SixDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := NewTwoFACode()
		require.NoError(t, err)

		digits := code.Expose()
		require.Len(t, digits, 6)
		for _, r := range digits {
			assert.True(t, r >= '0' && r <= '9', "unexpected rune %q", r)
		}
	}
}

func TestParseTwoFACode(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		shouldFail bool
	}{
		{name: "valid", input: "012345"},
		{name: "too short", input: "12345", shouldFail: true},
		{name: "too long", input: "1234567", shouldFail: true},
		{name: "letters", input: "12a456", shouldFail: true},
		{name: "empty", input: "", shouldFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := ParseTwoFACode(tt.input)
			if tt.shouldFail {
				assert.True(t, errors.Is(err, ErrInvalidCredentials))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, code.Expose())
		})
	}
}

func TestTwoFACode_EqualAndRedacted(t *testing.T) {
	a, _ := ParseTwoFACode("123456")
	b, _ := ParseTwoFACode("123456")
	c, _ := ParseTwoFACode("654321")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.Equal(t, "[REDACTED]", fmt.Sprint(a))
}

func TestParseLoginAttemptID(t *testing.T) {
	id := NewLoginAttemptID()

	parsed, err := ParseLoginAttemptID(id.String())
	require.NoError(t, err)
	assert.True(t, parsed.Equal(id))

	_, err = ParseLoginAttemptID("not-a-uuid")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestNewLoginAttemptID_Unique(t *testing.T) {
	assert.NotEqual(t, NewLoginAttemptID(), NewLoginAttemptID())
}

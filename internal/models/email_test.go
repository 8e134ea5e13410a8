package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmail(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		shouldFail bool
		want       string
	}{
		{name: "empty string", input: "", shouldFail: true},
		{name: "whitespace only", input: "   ", shouldFail: true},
		{name: "missing at symbol", input: "test.com", shouldFail: true},
		{name: "missing domain", input: "test@", shouldFail: true},
		{name: "missing local part", input: "@test.com", shouldFail: true},
		{name: "two at symbols", input: "a@b@test.com", shouldFail: true},
		{name: "domain without dot", input: "test@localhost", shouldFail: true},
		{name: "domain trailing dot", input: "test@example.", shouldFail: true},
		{name: "valid address", input: "test@test.com", want: "test@test.com"},
		{name: "normalizes case and space", input: "  Alice@Example.COM ", want: "alice@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, err := ParseEmail(tt.input)
			if tt.shouldFail {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidCredentials))
				assert.True(t, email.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, email.String())
		})
	}
}

func TestParseEmail_ErrorCarriesInput(t *testing.T) {
	_, err := ParseEmail("not-an-email")

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "not-an-email", ve.Input)
	assert.Contains(t, err.Error(), "not-an-email")
}

func TestEmail_LogValueIsMasked(t *testing.T) {
	email := MustParseEmail("alice@example.com")

	assert.Equal(t, "a****@*******.com", email.LogValue().String())
}

func TestEmail_UsableAsMapKey(t *testing.T) {
	m := map[Email]int{MustParseEmail("a@example.com"): 1}

	assert.Equal(t, 1, m[MustParseEmail("A@example.com")])
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/authgate/internal/models"
	"github.com/BradenHooton/authgate/internal/services"
	pkghttp "github.com/BradenHooton/authgate/pkg/http"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"), "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	SignupFunc      func(ctx context.Context, email, password string, requires2FA bool) error
	LoginFunc       func(ctx context.Context, email, password string) (*services.LoginResult, error)
	Verify2FAFunc   func(ctx context.Context, email, loginAttemptID, code string) (*models.Session, error)
	LogoutFunc      func(ctx context.Context, token models.Secret) error
	VerifyTokenFunc func(ctx context.Context, token models.Secret) (*models.TokenClaims, error)
}

func (m *MockAuthService) Signup(ctx context.Context, email, password string, requires2FA bool) error {
	if m.SignupFunc == nil {
		return nil
	}
	return m.SignupFunc(ctx, email, password, requires2FA)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*services.LoginResult, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrIncorrectCredentials
	}
	return m.LoginFunc(ctx, email, password)
}

func (m *MockAuthService) Verify2FA(ctx context.Context, email, loginAttemptID, code string) (*models.Session, error) {
	if m.Verify2FAFunc == nil {
		return nil, models.ErrIncorrectCredentials
	}
	return m.Verify2FAFunc(ctx, email, loginAttemptID, code)
}

func (m *MockAuthService) Logout(ctx context.Context, token models.Secret) error {
	if m.LogoutFunc == nil {
		return nil
	}
	return m.LogoutFunc(ctx, token)
}

func (m *MockAuthService) VerifyToken(ctx context.Context, token models.Secret) (*models.TokenClaims, error) {
	if m.VerifyTokenFunc == nil {
		return nil, models.ErrInvalidToken
	}
	return m.VerifyTokenFunc(ctx, token)
}

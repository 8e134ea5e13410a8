package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/http/cookiejar"
	"testing"
	"time"

	"github.com/BradenHooton/authgate/internal/auth"
	"github.com/BradenHooton/authgate/internal/handlers"
	"github.com/BradenHooton/authgate/internal/middleware"
	"github.com/BradenHooton/authgate/internal/repositories"
	"github.com/BradenHooton/authgate/internal/services"
	pkghttp "github.com/BradenHooton/authgate/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "routes-test-secret-0123456789abcdef"

type testServer struct {
	*httptest.Server
	notifier *services.MockNotifier
	client   *http.Client
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	banned := repositories.NewMemoryBannedTokenStore()
	notifier := &services.MockNotifier{}
	cookies := auth.CookieConfig{Name: "jwt", SameSite: "lax"}

	service := services.NewAuthService(services.Dependencies{
		Users:        repositories.NewMemoryUserStore(),
		BannedTokens: banned,
		TwoFACodes:   repositories.NewMemoryTwoFACodeStore(10 * time.Minute),
		Tokens:       auth.NewTokenManager(testSecret, 10*time.Minute, banned),
		Notifier:     notifier,
		Logger:       logger,
	})

	router := chi.NewRouter()
	RegisterRoutes(router,
		handlers.NewAuthHandler(service, cookies, logger),
		handlers.NewHealthHandler(nil, logger),
		middleware.RateLimitConfig{},
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testServer{Server: srv, notifier: notifier, client: &http.Client{Jar: jar}}
}

func (s *testServer) post(t *testing.T, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := s.client.Post(s.URL+path, "application/json", &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	decoded := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "jwt" {
			return c
		}
	}
	return nil
}

func TestRoutes_LoginLogoutFlow(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.post(t, "/signup", map[string]any{"email": "ada@example.com", "password": "password123", "requires2FA": false})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "User created successfully!", body["message"])

	resp, _ = s.post(t, "/signup", map[string]any{"email": "ada@example.com", "password": "password123", "requires2FA": false})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = s.post(t, "/login", map[string]any{"email": "ada@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.post(t, "/login", map[string]any{"email": "ada@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	token := cookie.Value

	resp, body = s.post(t, "/verify-token", map[string]any{"token": token})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ada@example.com", body["subject"])

	// Cookie jar carries the session
	resp, _ = s.post(t, "/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = s.post(t, "/verify-token", map[string]any{"token": token})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_token", body["error"])

	resp, _ = s.post(t, "/logout", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRoutes_TwoFactorFlow(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.post(t, "/signup", map[string]any{"email": "grace@example.com", "password": "password123", "requires2FA": true})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := s.post(t, "/login", map[string]any{"email": "grace@example.com", "password": "password123"})
	require.Equal(t, http.StatusPartialContent, resp.StatusCode)
	assert.Nil(t, sessionCookie(resp))
	attemptID, _ := body["loginAttemptId"].(string)
	require.NotEmpty(t, attemptID)

	code := s.notifier.LastCode()
	require.Len(t, code, 6)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	resp, _ = s.post(t, "/verify-2fa", map[string]any{"email": "grace@example.com", "loginAttemptId": attemptID, "2FACode": wrong})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.post(t, "/verify-2fa", map[string]any{"email": "grace@example.com", "loginAttemptId": attemptID, "2FACode": code})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, sessionCookie(resp))

	// Challenge is single use
	resp, _ = s.post(t, "/verify-2fa", map[string]any{"email": "grace@example.com", "loginAttemptId": attemptID, "2FACode": code})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRoutes_InputErrors(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.post(t, "/signup", map[string]any{"email": "ada@example.com"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "unprocessable_entity", body["error"])

	resp, _ = s.post(t, "/signup", map[string]any{"email": "not-an-email", "password": "password123", "requires2FA": false})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.post(t, "/verify-2fa", map[string]any{"email": "ada@example.com", "loginAttemptId": "nope", "2FACode": "123456"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.post(t, "/verify-token", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRoutes_Health(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.client.Get(s.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoutes_RateLimitedAuthRoutes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := chi.NewRouter()
	RegisterRoutes(router,
		handlers.NewAuthHandler(&handlers.MockAuthService{}, auth.CookieConfig{Name: "jwt"}, logger),
		handlers.NewHealthHandler(nil, logger),
		middleware.RateLimitConfig{RequestsPerMinute: 1},
	)

	send := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(`{"token":"x"}`))
		req.RemoteAddr = "192.0.2.1:1000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.NotEqual(t, http.StatusTooManyRequests, send("/verify-token"))
	assert.Equal(t, http.StatusTooManyRequests, send("/verify-token"))

	// Health is outside the throttle
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	var env pkghttp.ErrorResponse
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "192.0.2.1:1000"
	router.ServeHTTP(w, req)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env))
	assert.Equal(t, "rate_limit_exceeded", env.Error)
}

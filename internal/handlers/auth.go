package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/authgate/internal/auth"
	"github.com/BradenHooton/authgate/internal/models"
	"github.com/BradenHooton/authgate/internal/services"
	pkghttp "github.com/BradenHooton/authgate/pkg/http"
)

// maxBodyBytes bounds every JSON request body
const maxBodyBytes = 1 << 16

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Signup(ctx context.Context, email, password string, requires2FA bool) error
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Verify2FA(ctx context.Context, email, loginAttemptID, code string) (*models.Session, error)
	Logout(ctx context.Context, token models.Secret) error
	VerifyToken(ctx context.Context, token models.Secret) (*models.TokenClaims, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service AuthServiceInterface
	cookies auth.CookieConfig
	logger  *slog.Logger
}

func NewAuthHandler(service AuthServiceInterface, cookies auth.CookieConfig, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		service: service,
		cookies: cookies,
		logger:  logger,
	}
}

// Request DTOs. Fields are pointers so that an absent field is told apart
// from an empty one: absent fields fail decoding, empty ones fail
// credential validation.

type SignupRequest struct {
	Email       *string `json:"email" validate:"required"`
	Password    *string `json:"password" validate:"required"`
	Requires2FA *bool   `json:"requires2FA" validate:"required"`
}

type LoginRequest struct {
	Email    *string `json:"email" validate:"required"`
	Password *string `json:"password" validate:"required"`
}

type Verify2FARequest struct {
	Email          *string `json:"email" validate:"required"`
	LoginAttemptID *string `json:"loginAttemptId" validate:"required"`
	TwoFACode      *string `json:"2FACode" validate:"required"`
}

type VerifyTokenRequest struct {
	Token string `json:"token"`
}

// Response DTOs

type MessageResponse struct {
	Message string `json:"message"`
}

type TwoFARequiredResponse struct {
	Message        string `json:"message"`
	LoginAttemptID string `json:"loginAttemptId"`
}

type VerifyTokenResponse struct {
	Subject   string `json:"subject"`
	ExpiresAt int64  `json:"expiresAt"`
}

// decodeJSON reads a JSON body into dst and validates required fields.
// It writes a 422 response and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		pkghttp.WriteUnprocessable(w, "Invalid request body")
		return false
	}
	if err := ValidateRequest(dst); err != nil {
		pkghttp.WriteUnprocessable(w, err.Error())
		return false
	}
	return true
}

// Signup handles POST /signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.Signup(r.Context(), *req.Email, *req.Password, *req.Requires2FA); err != nil {
		h.writeError(w, r, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, MessageResponse{Message: "User created successfully!"})
}

// Login handles POST /login. A user without 2FA gets the session cookie;
// a user with 2FA gets 206 and the login attempt id.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Login(r.Context(), *req.Email, *req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if result.Requires2FA() {
		pkghttp.WriteJSON(w, http.StatusPartialContent, TwoFARequiredResponse{
			Message:        "2FA required",
			LoginAttemptID: result.LoginAttemptID.String(),
		})
		return
	}

	auth.SetSessionCookie(w, result.Session, h.cookies)
	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Login successful"})
}

// Verify2FA handles POST /verify-2fa
func (h *AuthHandler) Verify2FA(w http.ResponseWriter, r *http.Request) {
	var req Verify2FARequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.service.Verify2FA(r.Context(), *req.Email, *req.LoginAttemptID, *req.TwoFACode)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	auth.SetSessionCookie(w, session, h.cookies)
	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Login successful"})
}

// Logout handles POST /logout. The token comes from the session cookie or
// a bearer header.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromRequest(r, h.cookies)

	if err := h.service.Logout(r.Context(), token); err != nil {
		h.writeError(w, r, err)
		return
	}

	auth.ClearSessionCookie(w, h.cookies)
	pkghttp.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Logged out"})
}

// VerifyToken handles POST /verify-token. The token is read from the JSON
// body when present, else from the session cookie or a bearer header.
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var req VerifyTokenRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		pkghttp.WriteUnprocessable(w, "Invalid request body")
		return
	}

	token := models.NewSecret(req.Token)
	if token.IsEmpty() {
		token = auth.TokenFromRequest(r, h.cookies)
	}

	claims, err := h.service.VerifyToken(r.Context(), token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := VerifyTokenResponse{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Unix()
	}
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// writeError maps a service error to its response. Messages are fixed per
// class so nothing from a lower layer reaches the client.
func (h *AuthHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrUnexpected):
		pkghttp.WriteInternalError(w, "Unexpected error")
	case errors.Is(err, models.ErrInvalidCredentials):
		pkghttp.WriteBadRequest(w, "invalid_credentials", "Invalid credentials")
	case errors.Is(err, models.ErrIncorrectCredentials):
		pkghttp.WriteUnauthorized(w, "incorrect_credentials", "Incorrect credentials")
	case errors.Is(err, models.ErrUserAlreadyExists):
		pkghttp.WriteConflict(w, "user_already_exists", "User already exists")
	case errors.Is(err, models.ErrMissingToken):
		pkghttp.WriteBadRequest(w, "missing_token", "Missing auth token")
	case errors.Is(err, models.ErrInvalidToken):
		pkghttp.WriteUnauthorized(w, "invalid_token", "Invalid auth token")
	default:
		h.logger.ErrorContext(r.Context(), "unmapped auth error", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Unexpected error")
	}
}

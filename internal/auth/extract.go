package auth

import (
	"net/http"
	"strings"

	"github.com/BradenHooton/authgate/internal/models"
)

// TokenFromRequest returns the session token from the session cookie, or
// from an "Authorization: Bearer" header when no cookie is present. The
// returned Secret is empty when neither carries a token.
func TokenFromRequest(r *http.Request, config CookieConfig) models.Secret {
	if token, err := GetSessionCookie(r, config); err == nil && !token.IsEmpty() {
		return token
	}

	scheme, value, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if found && strings.EqualFold(scheme, "Bearer") {
		return models.NewSecret(strings.TrimSpace(value))
	}

	return models.Secret{}
}

package auth

import (
	"net/http"
	"time"

	"github.com/BradenHooton/authgate/internal/models"
)

// CookieConfig holds session cookie settings
type CookieConfig struct {
	Name     string
	Domain   string // Empty string = current host only
	Secure   bool   // HTTPS only
	SameSite string // "strict", "lax", or "none"
}

// NewSessionCookie packages session as an HttpOnly cookie on the root path
func NewSessionCookie(session *models.Session, config CookieConfig, now time.Time) *http.Cookie {
	maxAge := int(session.ExpiresAt.Sub(now).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	return &http.Cookie{
		Name:     config.Name,
		Value:    session.Token.Expose(),
		Path:     "/",
		Domain:   config.Domain,
		Expires:  session.ExpiresAt,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: parseSameSite(config.SameSite),
	}
}

// SetSessionCookie writes the session cookie to w
func SetSessionCookie(w http.ResponseWriter, session *models.Session, config CookieConfig) {
	http.SetCookie(w, NewSessionCookie(session, config, time.Now()))
}

// ClearSessionCookie removes the session cookie
func ClearSessionCookie(w http.ResponseWriter, config CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     config.Name,
		Value:    "",
		Path:     "/",
		Domain:   config.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: parseSameSite(config.SameSite),
	})
}

// GetSessionCookie returns the session token carried by r's cookie
func GetSessionCookie(r *http.Request, config CookieConfig) (models.Secret, error) {
	cookie, err := r.Cookie(config.Name)
	if err != nil {
		return models.Secret{}, err
	}
	return models.NewSecret(cookie.Value), nil
}

func parseSameSite(sameSite string) http.SameSite {
	switch sameSite {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}

package logger

import (
	"strings"
)

// SanitizedEmail masks an email address for logging (e.g., "u***@e***.com")
func SanitizedEmail(email string) string {
	username, domain, found := strings.Cut(email, "@")
	if !found || strings.Contains(domain, "@") {
		return "[invalid-email]"
	}

	// Keep first char of the local part
	if len(username) > 1 {
		username = username[:1] + strings.Repeat("*", len(username)-1)
	}

	// Keep only the TLD of the domain
	labels := strings.Split(domain, ".")
	if len(labels) > 1 {
		for i := 0; i < len(labels)-1; i++ {
			labels[i] = strings.Repeat("*", len(labels[i]))
		}
		domain = strings.Join(labels, ".")
	}

	return username + "@" + domain
}

var sensitiveParams = []string{
	"password",
	"token",
	"jwt",
	"secret",
	"email",
	"code",
	"2fa",
	"attempt",
	"auth",
}

// SanitizeQueryString reports whether a raw query string mentions a
// parameter that must not reach the access log.
func SanitizeQueryString(rawQuery string) bool {
	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}

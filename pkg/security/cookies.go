package security

import (
	"net/http"
	"strings"
	"time"

	"github.com/marcogenualdo/classboard/internal/config"
)

// SameSite maps the configured cookie_same_site value to its http constant.
func SameSite(value string) http.SameSite {
	switch strings.ToLower(value) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// CreateCookie builds a root-path, HttpOnly cookie. A zero expires leaves
// the cookie without an explicit expiry.
func CreateCookie(cfg config.ServerConfig, name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		Expires:  expires,
		Secure:   cfg.CookieSecure,
		HttpOnly: true,
		SameSite: SameSite(cfg.CookieSameSite),
	}
}

func ClearCookie(cfg config.ServerConfig, name string) *http.Cookie {
	cookie := CreateCookie(cfg, name, "", time.Time{})
	cookie.MaxAge = -1
	return cookie
}

func GetCookie(req *http.Request, name string) (*http.Cookie, error) {
	return req.Cookie(name)
}

// Package session stores the visitor's OAuth2 credentials in encrypted
// cookies. Nothing about a session is kept on the server.
package session

import "time"

const (
	AccessCookie  = "access"
	RefreshCookie = "refresh"

	// DefaultAccessLifetime applies when the token response has no expires_in.
	DefaultAccessLifetime = 3600 * time.Second
)

type Session struct {
	AccessToken  string
	AccessExpiry time.Time
	RefreshToken string
}

func (s Session) HasAccess() bool {
	return s.AccessToken != ""
}

func (s Session) HasRefresh() bool {
	return s.RefreshToken != ""
}

// LoggedOut reports whether the session carries no credential at all.
func (s Session) LoggedOut() bool {
	return !s.HasAccess() && !s.HasRefresh()
}

package handlers

import (
	"context"
	"log/slog"
	"net/http"
)

// LoginStarter begins an authorization and returns the provider URL.
// *auth.OAuth implements it.
type LoginStarter interface {
	BeginLogin(ctx context.Context) (string, error)
}

type LoginHandler struct {
	oauth  LoginStarter
	errors *ErrorResponder
	logger *slog.Logger
}

func NewLoginHandler(oauth LoginStarter, responder *ErrorResponder, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{
		oauth:  oauth,
		errors: responder,
		logger: logger,
	}
}

// ServeHTTP sends the visitor to the authorization server with a freshly
// recorded PKCE challenge.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	authURL, err := h.oauth.BeginLogin(r.Context())
	if err != nil {
		h.errors.Respond(w, r, err)
		return
	}

	h.logger.Debug("redirecting to authorization server")
	http.Redirect(w, r, authURL, http.StatusFound)
}

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/marcogenualdo/classboard/internal/session"
)

// CodeExchanger completes an authorization. *auth.OAuth implements it.
type CodeExchanger interface {
	Exchange(ctx context.Context, state, code string) (session.Session, error)
}

type CallbackHandler struct {
	oauth  CodeExchanger
	codec  *session.Codec
	errors *ErrorResponder
	logger *slog.Logger
}

func NewCallbackHandler(oauth CodeExchanger, codec *session.Codec, responder *ErrorResponder, logger *slog.Logger) *CallbackHandler {
	return &CallbackHandler{
		oauth:  oauth,
		codec:  codec,
		errors: responder,
		logger: logger,
	}
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if reason := query.Get("error"); reason != "" {
		h.logger.Info("authorization denied", "reason", reason)
	}

	s, err := h.oauth.Exchange(r.Context(), query.Get("state"), query.Get("code"))
	if err != nil {
		h.errors.Respond(w, r, err)
		return
	}

	if err := h.codec.Write(w, s); err != nil {
		h.errors.Respond(w, r, err)
		return
	}

	h.logger.Info("authentication successful",
		"access_expires_at", s.AccessExpiry,
		"has_refresh", s.HasRefresh(),
	)

	http.Redirect(w, r, "/classes", http.StatusFound)
}

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/marcogenualdo/classboard/internal/session"
)

type LogoutHandler struct {
	codec  *session.Codec
	logger *slog.Logger
}

func NewLogoutHandler(codec *session.Codec, logger *slog.Logger) *LogoutHandler {
	return &LogoutHandler{
		codec:  codec,
		logger: logger,
	}
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.codec.Clear(w)

	h.logger.Info("user logged out")

	http.Redirect(w, r, "/", http.StatusFound)
}

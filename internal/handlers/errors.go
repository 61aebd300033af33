package handlers

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/marcogenualdo/classboard/internal/auth"
	"github.com/marcogenualdo/classboard/internal/classroom"
	"github.com/marcogenualdo/classboard/internal/dashboard"
	"github.com/marcogenualdo/classboard/internal/session"
	"github.com/marcogenualdo/classboard/internal/view"
)

const (
	msgSignInExpired  = "Your sign-in attempt expired or was already used. Please sign in again."
	msgSessionExpired = "Your session has expired. Please sign in again."
	msgUpstream       = "Google Classroom returned something we could not understand. Please try again later."
	msgInternal       = "There was an error while processing your request."
)

// ErrorResponder turns any error a handler returns into its response.
type ErrorResponder struct {
	codec     *session.Codec
	renderer  *view.Renderer
	siteTitle string
	logger    *slog.Logger
}

func NewErrorResponder(codec *session.Codec, renderer *view.Renderer, siteTitle string, logger *slog.Logger) *ErrorResponder {
	return &ErrorResponder{
		codec:     codec,
		renderer:  renderer,
		siteTitle: siteTitle,
		logger:    logger,
	}
}

// Respond writes the response for err.
//
//	auth.ErrNoToken                                302 to /oauth
//	auth.ErrInvalidState, ErrCodeExchangeFailed    400 page, retry sign-in
//	auth.ErrRefreshFailed                          cookies cleared, 401 page
//	MissingFieldError, TaskPanicError              502 page
//	classroom.ErrRequestFailed                     502 page
//	anything else                                  500 page
func (e *ErrorResponder) Respond(w http.ResponseWriter, r *http.Request, err error) {
	var (
		missing  *dashboard.MissingFieldError
		panicErr *dashboard.TaskPanicError
	)

	switch {
	case errors.Is(err, auth.ErrNoToken):
		http.Redirect(w, r, "/oauth", http.StatusFound)

	case errors.Is(err, auth.ErrInvalidState), errors.Is(err, auth.ErrCodeExchangeFailed):
		e.logger.Warn("sign-in failed", "path", r.URL.Path, "error", err)
		e.page(w, r, view.ErrorData{Status: http.StatusBadRequest, Message: msgSignInExpired, SignInLink: true})

	case errors.Is(err, auth.ErrRefreshFailed):
		e.logger.Warn("token refresh failed", "path", r.URL.Path, "error", err)
		e.codec.Clear(w)
		e.page(w, r, view.ErrorData{Status: http.StatusUnauthorized, Message: msgSessionExpired, SignInLink: true})

	case errors.As(err, &missing), errors.As(err, &panicErr):
		attrs := []any{"path", r.URL.Path, "error", err}
		if panicErr != nil {
			attrs = append(attrs, "stack", string(panicErr.Stack))
		}
		e.logger.Error("upstream aggregation failed", attrs...)
		e.page(w, r, view.ErrorData{Status: http.StatusBadGateway, Message: msgUpstream})

	case errors.Is(err, classroom.ErrRequestFailed):
		e.logger.Error("classroom request failed", "path", r.URL.Path, "error", err)
		e.page(w, r, view.ErrorData{Status: http.StatusBadGateway, Message: msgUpstream})

	default:
		e.logger.Error("request failed", "path", r.URL.Path, "error", err)
		e.page(w, r, view.ErrorData{Status: http.StatusInternalServerError, Message: msgInternal})
	}
}

func (e *ErrorResponder) page(w http.ResponseWriter, r *http.Request, data view.ErrorData) {
	signedIn := data.Status != http.StatusUnauthorized && !e.codec.Read(r).LoggedOut()

	page := view.Page{SiteTitle: e.siteTitle, SignedIn: signedIn, Data: data}
	if err := writePage(w, e.renderer, data.Status, "error", page); err != nil {
		e.logger.Error("failed to render error page", "error", err)
		http.Error(w, msgInternal, http.StatusInternalServerError)
	}
}

// writePage renders name and only then writes status and body, so a
// failed render leaves w untouched.
func writePage(w http.ResponseWriter, renderer *view.Renderer, status int, name string, page view.Page) error {
	var buf bytes.Buffer
	if err := renderer.Render(&buf, name, page); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
	return nil
}

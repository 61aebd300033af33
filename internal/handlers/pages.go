package handlers

import (
	"net/http"

	"github.com/marcogenualdo/classboard/internal/session"
	"github.com/marcogenualdo/classboard/internal/view"
)

// PagesHandler serves the pages that need no Classroom data.
type PagesHandler struct {
	codec     *session.Codec
	renderer  *view.Renderer
	errors    *ErrorResponder
	siteTitle string
}

func NewPagesHandler(codec *session.Codec, renderer *view.Renderer, responder *ErrorResponder, siteTitle string) *PagesHandler {
	return &PagesHandler{
		codec:     codec,
		renderer:  renderer,
		errors:    responder,
		siteTitle: siteTitle,
	}
}

// Static returns a handler rendering the named template.
func (h *PagesHandler) Static(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := view.Page{
			SiteTitle: h.siteTitle,
			SignedIn:  !h.codec.Read(r).LoggedOut(),
		}
		if err := writePage(w, h.renderer, http.StatusOK, name, page); err != nil {
			h.errors.Respond(w, r, err)
		}
	}
}

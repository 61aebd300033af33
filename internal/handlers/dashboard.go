package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/marcogenualdo/classboard/internal/auth"
	"github.com/marcogenualdo/classboard/internal/dashboard"
	"github.com/marcogenualdo/classboard/internal/middleware"
	"github.com/marcogenualdo/classboard/internal/view"
)

// ClientFunc returns the Classroom client acting for accessToken.
type ClientFunc func(ctx context.Context, accessToken string) (dashboard.Upstream, error)

// DashboardHandler serves the signed-in pages. Every route expects
// middleware.RequireAuth to have run first.
type DashboardHandler struct {
	engine    *dashboard.Engine
	clients   ClientFunc
	renderer  *view.Renderer
	errors    *ErrorResponder
	siteTitle string
	logger    *slog.Logger
}

func NewDashboardHandler(engine *dashboard.Engine, clients ClientFunc, renderer *view.Renderer, responder *ErrorResponder, siteTitle string, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		engine:    engine,
		clients:   clients,
		renderer:  renderer,
		errors:    responder,
		siteTitle: siteTitle,
		logger:    logger,
	}
}

func (h *DashboardHandler) Classes(w http.ResponseWriter, r *http.Request) {
	up, ok := h.upstream(w, r)
	if !ok {
		return
	}

	courses, err := h.engine.Courses(r.Context(), up)
	if err != nil {
		h.errors.Respond(w, r, err)
		return
	}

	h.render(w, r, "classes", courses)
}

func (h *DashboardHandler) Class(w http.ResponseWriter, r *http.Request) {
	up, ok := h.upstream(w, r)
	if !ok {
		return
	}

	detail, err := h.engine.CourseDetail(r.Context(), up, r.PathValue("courseID"), r.URL.Query().Get("page"))
	if err != nil {
		h.errors.Respond(w, r, err)
		return
	}

	h.render(w, r, "class", detail)
}

func (h *DashboardHandler) Assignment(w http.ResponseWriter, r *http.Request) {
	up, ok := h.upstream(w, r)
	if !ok {
		return
	}

	detail, err := h.engine.Assignment(r.Context(), up, r.PathValue("courseID"), r.PathValue("workID"))
	if err != nil {
		h.errors.Respond(w, r, err)
		return
	}

	h.render(w, r, "assignment", detail)
}

func (h *DashboardHandler) Todo(w http.ResponseWriter, r *http.Request) {
	up, ok := h.upstream(w, r)
	if !ok {
		return
	}

	result, err := h.engine.Pending(r.Context(), up)
	if err != nil {
		h.errors.Respond(w, r, err)
		return
	}

	h.render(w, r, "todo", result)
}

func (h *DashboardHandler) TodoForCourse(w http.ResponseWriter, r *http.Request) {
	up, ok := h.upstream(w, r)
	if !ok {
		return
	}

	result, err := h.engine.PendingForCourse(r.Context(), up, r.PathValue("courseID"))
	if err != nil {
		h.errors.Respond(w, r, err)
		return
	}

	h.render(w, r, "todo", result)
}

func (h *DashboardHandler) upstream(w http.ResponseWriter, r *http.Request) (dashboard.Upstream, bool) {
	token, ok := middleware.AccessToken(r.Context())
	if !ok {
		h.errors.Respond(w, r, auth.ErrNoToken)
		return nil, false
	}

	up, err := h.clients(r.Context(), token)
	if err != nil {
		h.errors.Respond(w, r, err)
		return nil, false
	}
	return up, true
}

func (h *DashboardHandler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	page := view.Page{SiteTitle: h.siteTitle, SignedIn: true, Data: data}
	if err := writePage(w, h.renderer, http.StatusOK, name, page); err != nil {
		h.errors.Respond(w, r, err)
	}
}

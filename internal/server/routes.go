package server

import (
	"context"
	"net/http"

	"github.com/marcogenualdo/classboard/internal/dashboard"
	"github.com/marcogenualdo/classboard/internal/handlers"
	"github.com/marcogenualdo/classboard/internal/middleware"
)

// Handler returns the full middleware-wrapped route tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	title := s.cfg.UI.Title

	responder := handlers.NewErrorResponder(s.deps.Codec, s.deps.Renderer, title, s.logger)
	authMiddleware := middleware.NewAuthMiddleware(s.deps.Codec, s.deps.OAuth, responder.Respond, s.logger)

	pages := handlers.NewPagesHandler(s.deps.Codec, s.deps.Renderer, responder, title)
	loginHandler := handlers.NewLoginHandler(s.deps.OAuth, responder, s.logger)
	callbackHandler := handlers.NewCallbackHandler(s.deps.OAuth, s.deps.Codec, responder, s.logger)
	logoutHandler := handlers.NewLogoutHandler(s.deps.Codec, s.logger)
	healthHandler := handlers.NewHealthHandler(s.cfg.Cache.Type, s.deps.Store, nil, s.logger)

	clients := func(ctx context.Context, accessToken string) (dashboard.Upstream, error) {
		return s.deps.Clients.ForToken(ctx, accessToken)
	}
	dash := handlers.NewDashboardHandler(s.deps.Engine, clients, s.deps.Renderer, responder, title, s.logger)

	mux.HandleFunc("GET /{$}", pages.Static("index"))
	mux.HandleFunc("GET /privacy", pages.Static("privacy"))
	mux.HandleFunc("GET /terms", pages.Static("terms"))

	mux.Handle("GET /oauth", loginHandler)
	mux.Handle("GET /oauth/callback", callbackHandler)
	mux.Handle("POST /logout", logoutHandler)
	mux.Handle("GET /health", healthHandler)

	mux.Handle("GET /classes", authMiddleware.RequireAuth(http.HandlerFunc(dash.Classes)))
	mux.Handle("GET /class/{courseID}", authMiddleware.RequireAuth(http.HandlerFunc(dash.Class)))
	mux.Handle("GET /class/{courseID}/assignment/{workID}", authMiddleware.RequireAuth(http.HandlerFunc(dash.Assignment)))
	mux.Handle("GET /todo", authMiddleware.RequireAuth(http.HandlerFunc(dash.Todo)))
	mux.Handle("GET /todo/{courseID}", authMiddleware.RequireAuth(http.HandlerFunc(dash.TodoForCourse)))

	if s.cfg.Server.AssetsDir != "" {
		mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServer(http.Dir(s.cfg.Server.AssetsDir))))
	}

	return middleware.Recovery(s.logger)(
		middleware.Logging(s.logger)(
			addSecurityHeaders(mux),
		),
	)
}

func addSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

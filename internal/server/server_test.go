package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcogenualdo/classboard/internal/auth"
	"github.com/marcogenualdo/classboard/internal/classroom"
	"github.com/marcogenualdo/classboard/internal/config"
	"github.com/marcogenualdo/classboard/internal/dashboard"
	"github.com/marcogenualdo/classboard/internal/session"
	"github.com/marcogenualdo/classboard/internal/statestore"
	"github.com/marcogenualdo/classboard/internal/view"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func newTokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("code") != "good" || r.PostForm.Get("code_verifier") == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		writeJSON(w, map[string]any{
			"access_token":  "ya29.access",
			"token_type":    "Bearer",
			"refresh_token": "1//refresh",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClassroomServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/courses", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"courses": []map[string]any{{"id": "c1", "name": "Math"}}})
	})
	mux.HandleFunc("GET /v1/courses/{id}/courseWork", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"courseWork": []map[string]any{
			{"id": "w1", "courseId": "c1", "title": "Essay", "dueDate": map[string]any{"year": 2024, "month": 3, "day": 15}},
		}})
	})
	mux.HandleFunc("GET /v1/courses/{id}/courseWork/{work}/studentSubmissions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"studentSubmissions": []map[string]any{
			{"id": "s1", "courseWorkId": "w1", "state": "CREATED"},
		}})
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer ya29.access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type testServer struct {
	handler http.Handler
	store   *statestore.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	tokenSrv := newTokenServer(t)
	apiSrv := newClassroomServer(t)

	cfg, err := config.Parse([]byte(`
server:
  base_url: http://classboard.test
session:
  key: 000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f
oauth:
  client_id: id
  client_secret: secret
  auth_url: https://accounts.example/auth
  token_url: ` + tokenSrv.URL + `
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := statestore.NewMemoryStore(cfg.OAuth.StateTTL, nil)

	oauth, err := auth.New(context.Background(), cfg.OAuth, cfg.Server.BaseURL+"/oauth/callback", store, nil, logger)
	require.NoError(t, err)

	key, err := cfg.SessionKey()
	require.NoError(t, err)
	codec, err := session.NewCodec(key, cfg.Server, nil)
	require.NoError(t, err)

	renderer, err := view.New()
	require.NoError(t, err)

	srv, err := New(*cfg, Deps{
		Store:    store,
		OAuth:    oauth,
		Codec:    codec,
		Engine:   dashboard.NewEngine(cfg.Classroom, logger),
		Clients:  classroom.NewFactory(apiSrv.Client(), apiSrv.URL+"/"),
		Renderer: renderer,
	}, logger)
	require.NoError(t, err)

	return &testServer{handler: srv.Handler(), store: store}
}

func (s *testServer) do(method, target string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestSignInFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/todo", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/oauth", rec.Header().Get("Location"))

	rec = s.do(http.MethodGet, "/oauth", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	authURL, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.example", authURL.Host)
	assert.Equal(t, "S256", authURL.Query().Get("code_challenge_method"))
	assert.Equal(t, "http://classboard.test/oauth/callback", authURL.Query().Get("redirect_uri"))
	assert.Equal(t, 1, s.store.Len())

	state := authURL.Query().Get("state")
	rec = s.do(http.MethodGet, "/oauth/callback?state="+url.QueryEscape(state)+"&code=good", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/classes", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Zero(t, s.store.Len())

	rec = s.do(http.MethodGet, "/todo", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Essay")
	assert.Contains(t, rec.Body.String(), "Math")

	rec = s.do(http.MethodGet, "/oauth/callback?state="+url.QueryEscape(state)+"&code=good", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRejectedCodeIsBadRequest(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/oauth", nil)
	authURL, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)

	rec = s.do(http.MethodGet, "/oauth/callback?state="+url.QueryEscape(authURL.Query().Get("state"))+"&code=bad", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestPublicRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = s.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"memory"`)

	rec = s.do(http.MethodGet, "/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogoutRequiresPost(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/logout", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = s.do(http.MethodPost, "/logout", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Len(t, rec.Result().Cookies(), 2)
}

func TestNewRejectsMissingDeps(t *testing.T) {
	_, err := New(config.Config{}, Deps{}, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	assert.Error(t, err)
}

type closeRecorder struct {
	*statestore.MemoryStore
	closed chan struct{}
}

func (c *closeRecorder) Close() error {
	close(c.closed)
	return c.MemoryStore.Close()
}

func TestRunShutsDownOnCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{Server: config.ServerConfig{Host: "127.0.0.1", Port: 0}}
	store := &closeRecorder{MemoryStore: statestore.NewMemoryStore(0, nil), closed: make(chan struct{})}

	renderer, err := view.New()
	require.NoError(t, err)
	codec, err := session.NewCodec(bytes.Repeat([]byte{1}, 32), cfg.Server, nil)
	require.NoError(t, err)
	oauth, err := auth.New(context.Background(), config.OAuthConfig{AuthURL: "https://a", TokenURL: "https://t"}, "http://x/oauth/callback", store, nil, logger)
	require.NoError(t, err)

	srv, err := New(cfg, Deps{
		Store:    store,
		OAuth:    oauth,
		Codec:    codec,
		Engine:   dashboard.NewEngine(cfg.Classroom, logger),
		Clients:  classroom.NewFactory(nil, ""),
		Renderer: renderer,
	}, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	<-store.closed
}

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	storeType string
	store     Pinger
	clock     clockwork.Clock
	logger    *slog.Logger
	startTime time.Time
}

func NewHealthHandler(storeType string, store Pinger, clock clockwork.Clock, logger *slog.Logger) *HealthHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &HealthHandler{
		storeType: storeType,
		store:     store,
		clock:     clock,
		logger:    logger,
		startTime: clock.Now(),
	}
}

type HealthResponse struct {
	Status string      `json:"status"`
	Uptime string      `json:"uptime"`
	Store  StoreHealth `json:"store"`
}

type StoreHealth struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status: "healthy",
		Uptime: h.clock.Since(h.startTime).String(),
		Store:  StoreHealth{Type: h.storeType},
	}

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("credential store unreachable", "error", err)
		response.Store.Status = "error: " + err.Error()
		response.Status = "degraded"
	} else {
		response.Store.Status = "connected"
	}

	w.Header().Set("Content-Type", "application/json")
	if response.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(response)
}

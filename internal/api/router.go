// Package api provides the HTTP surface of the hub: the WebSocket
// endpoint plus health and metrics.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/auxroom/syncd/internal/room"
	"github.com/auxroom/syncd/internal/system"
	"github.com/auxroom/syncd/internal/utils"
	"github.com/auxroom/syncd/internal/ws"
)

// Router is the main HTTP router.
type Router struct {
	*chi.Mux
	logger *utils.Logger
}

// NewRouter creates the router and mounts the endpoints.
func NewRouter(wsServer *ws.Server, registry *room.Registry, metrics *system.Metrics, logger *utils.Logger) *Router {
	r := chi.NewRouter()
	apiLogger := logger.Named("api")

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	health := newHealthHandler(wsServer, registry, apiLogger)

	r.Get("/ws", wsServer.HandleWebSocket)
	r.Get("/healthz", health.check)
	r.Handle("/metrics", metrics.Handler())

	return &Router{Mux: r, logger: apiLogger}
}

// healthHandler reports liveness plus a small live census of the hub.
type healthHandler struct {
	wsServer  *ws.Server
	registry  *room.Registry
	logger    *utils.Logger
	startTime time.Time
}

func newHealthHandler(wsServer *ws.Server, registry *room.Registry, logger *utils.Logger) *healthHandler {
	return &healthHandler{
		wsServer:  wsServer,
		registry:  registry,
		logger:    logger.Named("health"),
		startTime: time.Now(),
	}
}

func (h *healthHandler) check(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "ok",
		"uptime":  time.Since(h.startTime).String(),
		"clients": h.wsServer.ClientCount(),
		"rooms":   h.registry.Count(),
		"roomIds": h.registry.RoomIDs(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode health response", err)
	}
}

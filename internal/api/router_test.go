package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auxroom/syncd/internal/config"
	"github.com/auxroom/syncd/internal/room"
	"github.com/auxroom/syncd/internal/system"
	"github.com/auxroom/syncd/internal/utils"
	"github.com/auxroom/syncd/internal/ws"
)

func newTestRouter(t *testing.T) (*Router, *room.Registry) {
	t.Helper()

	cfg := &config.Config{}
	cfg.WebSocket.MaxMessageSize = 512 * 1024
	cfg.WebSocket.WriteWait = 2 * time.Second
	cfg.WebSocket.PongWait = 10 * time.Second
	cfg.WebSocket.PingPeriod = 9 * time.Second
	cfg.WebSocket.SendBuffer = 64

	logger := utils.NewNopLogger()
	registry := room.NewRegistry(room.SystemClock{}, logger)
	metrics := system.NewMetrics(registry.Count)
	wsServer := ws.NewServer(cfg, registry, room.SystemClock{}, metrics, logger)

	return NewRouter(wsServer, registry, metrics, logger), registry
}

func TestHealthz(t *testing.T) {
	router, registry := newTestRouter(t)
	registry.GetOrCreate("room1")

	ts := httptest.NewServer(router)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, 0.0, body["clients"])
	assert.Equal(t, 1.0, body["rooms"])
	assert.Equal(t, []any{"room1"}, body["roomIds"])
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	ts := httptest.NewServer(router)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebSocketEndpointRejectsPlainGet(t *testing.T) {
	router, _ := newTestRouter(t)

	ts := httptest.NewServer(router)
	defer ts.Close()

	// A non-upgrade request must not panic the handler.
	resp, err := http.Get(ts.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

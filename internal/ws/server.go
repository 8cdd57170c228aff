package ws

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/auxroom/syncd/internal/config"
	"github.com/auxroom/syncd/internal/protocol"
	"github.com/auxroom/syncd/internal/room"
	"github.com/auxroom/syncd/internal/system"
	"github.com/auxroom/syncd/internal/utils"
)

// Server owns the WebSocket endpoint: it upgrades connections, mints
// session identifiers, sends the connected welcome, and runs the
// disconnect path when a session ends.
type Server struct {
	cfg      *config.Config
	registry *room.Registry
	clock    room.Clock
	metrics  *system.Metrics
	logger   *utils.Logger
	upgrader websocket.Upgrader

	mu           sync.Mutex
	clients      map[*Client]bool
	shuttingDown bool

	wg sync.WaitGroup
}

// NewServer creates a WebSocket server backed by the given room registry.
func NewServer(cfg *config.Config, registry *room.Registry, clock room.Clock, metrics *system.Metrics, logger *utils.Logger) *Server {
	return &Server{
		cfg:      cfg,
		registry: registry,
		clock:    clock,
		metrics:  metrics,
		logger:   logger.Named("ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// The hub performs no origin policy; TLS termination and
				// access control live in front of it.
				return true
			},
		},
		clients: make(map[*Client]bool),
	}
}

// HandleWebSocket upgrades an HTTP connection and starts the session.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.shuttingDown {
		s.mu.Unlock()
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	s.mu.Unlock()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", err)
		return
	}

	id, err := utils.GenerateID("client")
	if err != nil {
		s.logger.Error("Failed to generate session id", err)
		_ = conn.Close()
		return
	}

	client := newClient(id, s, conn, s.logger.Named("client"))

	// Re-check under the lock: Shutdown may have snapshotted the client set
	// between the early check and this registration, and it only closes
	// sessions it saw.
	s.mu.Lock()
	if s.shuttingDown {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.clients[client] = true
	s.mu.Unlock()
	s.metrics.ConnectionOpened()

	client.Send(protocol.Connected{
		Type:       protocol.TypeConnected,
		ClientID:   id,
		ServerTime: s.clock.NowMillis(),
	})

	s.wg.Add(2)
	go client.writePump()
	go client.readPump()

	s.logger.Info("Session connected", "clientId", id, "remoteAddr", r.RemoteAddr)
}

// disconnect runs the session teardown exactly once: leave the current
// room (announcing client_left), destroy the room if it emptied, then
// unregister and close the send queue. Playback state is never touched.
func (s *Server) disconnect(c *Client) {
	c.cleanup.Do(func() {
		if r := c.Room(); r != nil {
			c.setRoom(nil)
			r.Leave(c)
			s.registry.DropIfEmpty(r.ID())
		}

		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()

		c.closeSend()
		s.metrics.ConnectionClosed()
		s.logger.Info("Session disconnected", "clientId", c.id)
	})
}

// ClientCount returns the number of open sessions.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Shutdown stops accepting sessions, closes every open one, and waits for
// their pumps to drain or the context to expire. In-flight handlers run to
// completion; frames arriving after shutdown begins are discarded.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.shuttingDown = true
	open := make([]*Client, 0, len(s.clients))
	for c := range s.clients {
		open = append(open, c)
	}
	s.mu.Unlock()

	s.logger.Info("Shutting down WebSocket server", "openSessions", len(open))
	for _, c := range open {
		c.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Package ws provides the WebSocket transport: per-connection sessions,
// the accept/upgrade path, and the dispatcher that routes inbound frames
// to room handlers.
package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/auxroom/syncd/internal/protocol"
	"github.com/auxroom/syncd/internal/room"
	"github.com/auxroom/syncd/internal/utils"
)

// Client represents one WebSocket session. Outbound frames go through a
// bounded send queue drained by writePump, so a slow peer never blocks a
// room's critical section.
type Client struct {
	id     string
	server *Server
	conn   *websocket.Conn
	send   chan []byte
	logger *utils.Logger

	mu     sync.RWMutex
	room   *room.Room
	closed bool

	cleanup   sync.Once
	closeConn sync.Once
}

func newClient(id string, server *Server, conn *websocket.Conn, logger *utils.Logger) *Client {
	return &Client{
		id:     id,
		server: server,
		conn:   conn,
		send:   make(chan []byte, server.cfg.WebSocket.SendBuffer),
		logger: logger.With("clientId", id),
	}
}

// ID returns the server-minted session identifier.
func (c *Client) ID() string {
	return c.id
}

// Room returns the session's current room, or nil.
func (c *Client) Room() *room.Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.room
}

func (c *Client) setRoom(r *room.Room) {
	c.mu.Lock()
	c.room = r
	c.mu.Unlock()
}

// Send serializes v and enqueues it. It never blocks: on a congested or
// closed session the frame is dropped with a warning and Send reports false.
// Frames that were enqueued are delivered in Send-call order.
func (c *Client) Send(v any) bool {
	data, err := protocol.Encode(v)
	if err != nil {
		c.logger.Error("Failed to encode frame", err)
		return false
	}
	return c.trySend(data)
}

func (c *Client) trySend(data []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		c.logger.Debug("Send on closed session")
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		c.logger.Warn("Session send queue is full, frame dropped")
		c.server.metrics.FrameDropped()
		return false
	}
}

// closeSend marks the session closed and closes the send queue. trySend
// holds the same mutex, so no frame can be enqueued afterwards.
func (c *Client) closeSend() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
}

// Close closes the underlying transport. Idempotent.
func (c *Client) Close() {
	c.closeConn.Do(func() {
		_ = c.conn.Close()
	})
}

// readPump reads frames from the socket and hands them to the dispatcher.
// Any read error or close frame routes the session through the disconnect
// path exactly once.
func (c *Client) readPump() {
	defer func() {
		c.server.disconnect(c)
		c.Close()
		c.server.wg.Done()
	}()

	cfg := c.server.cfg.WebSocket
	c.conn.SetReadLimit(cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("Session closed normally")
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseAbnormalClosure) {
				c.logger.Debug("Unexpected close error", "error", err.Error())
			}
			return
		}

		c.server.dispatch(c, message)
	}
}

// writePump drains the send queue to the socket and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	cfg := c.server.cfg.WebSocket
	ticker := time.NewTicker(cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
		c.server.wg.Done()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("Failed to write frame", "error", err.Error())
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package ws

import (
	"errors"
	"fmt"

	"github.com/auxroom/syncd/internal/protocol"
)

// dispatch decodes an inbound frame and routes it by type. Room-scoped
// kinds are silently ignored when the session has no room, because a
// client may race its own leave_room. Unknown kinds and malformed frames
// get an error unicast; nothing here ever disconnects the peer.
func (s *Server) dispatch(c *Client, data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		s.sendError(c, decodeErrorText(err))
		return
	}

	// The type label comes straight from client input; unrecognized kinds
	// share one label value so a hostile client cannot mint unbounded series.
	if msg.Type == protocol.TypeJoinRoom || roomScoped(msg.Type) {
		s.metrics.MessageReceived(msg.Type)
	} else {
		s.metrics.MessageReceived("unknown")
	}

	if msg.Type == protocol.TypeJoinRoom {
		s.handleJoinRoom(c, msg)
		return
	}

	if !roomScoped(msg.Type) {
		s.sendError(c, fmt.Sprintf("Unknown message type: %s", msg.Type))
		return
	}

	r := c.Room()
	if r == nil {
		s.logger.Debug("Ignoring room-scoped message without a room", "clientId", c.id, "type", msg.Type)
		return
	}

	switch msg.Type {
	case protocol.TypeLeaveRoom:
		c.setRoom(nil)
		r.Leave(c)
		s.registry.DropIfEmpty(r.ID())

	case protocol.TypePlay, protocol.TypePause, protocol.TypeClientResume:
		// Local intent only; reply with the authoritative state so a
		// resuming client resyncs to the logical playhead.
		r.StateSync(c)

	case protocol.TypeClientPause:
		r.PauseAck(c)

	case protocol.TypeServerPlay:
		r.ServerPlay(c, float64(msg.Position), msg.SongID)

	case protocol.TypeSeek:
		r.Seek(c, float64(msg.Position), msg.IsPlaying)

	case protocol.TypeSongChange:
		if msg.Song == nil {
			s.sendError(c, "song is required")
			return
		}
		r.SongChange(c, msg.Song)

	case protocol.TypeAddSong:
		if msg.Song == nil {
			s.sendError(c, "song is required")
			return
		}
		r.AddSong(c, msg.Song, msg.SetAsCurrent)

	case protocol.TypePlaybackEnded:
		r.PlaybackEnded(c)

	case protocol.TypeGetRoomState:
		r.StateRequest(c, msg.RequestID)

	case protocol.TypeSyncRequest:
		r.SyncRequest(c)
	}
}

// roomScoped reports whether a message kind operates on the session's
// current room.
func roomScoped(msgType string) bool {
	switch msgType {
	case protocol.TypeLeaveRoom,
		protocol.TypePlay,
		protocol.TypePause,
		protocol.TypeClientPause,
		protocol.TypeClientResume,
		protocol.TypeServerPlay,
		protocol.TypeSeek,
		protocol.TypeSongChange,
		protocol.TypeAddSong,
		protocol.TypePlaybackEnded,
		protocol.TypeGetRoomState,
		protocol.TypeSyncRequest:
		return true
	}
	return false
}

// handleJoinRoom detaches the session from its previous room, if any, and
// attaches it to the target, creating the room on first reference.
func (s *Server) handleJoinRoom(c *Client, msg *protocol.ClientMessage) {
	if msg.RoomID == "" {
		s.sendError(c, "roomId is required")
		return
	}

	if prev := c.Room(); prev != nil {
		c.setRoom(nil)
		prev.Leave(c)
		s.registry.DropIfEmpty(prev.ID())
	}

	// The resolved room can be destroyed by a concurrent last-leave before
	// Join commits; a refused join re-resolves the id against the registry.
	for {
		r := s.registry.GetOrCreate(msg.RoomID)
		if r.Join(c) {
			c.setRoom(r)
			return
		}
	}
}

func (s *Server) sendError(c *Client, text string) {
	s.metrics.ErrorSent()
	c.Send(protocol.NewError(text, s.clock.NowMillis()))
}

func decodeErrorText(err error) string {
	if errors.Is(err, protocol.ErrMissingType) {
		return "Missing message type"
	}
	return "Invalid message format"
}

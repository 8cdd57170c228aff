package room

import (
	"sync"

	"github.com/auxroom/syncd/internal/protocol"
	"github.com/auxroom/syncd/internal/utils"
)

// Member is a session from the room's point of view: an identifier and a
// non-blocking send. Send reports false when the frame was dropped (closed
// or congested peer); a failing member never prevents delivery to others.
type Member interface {
	ID() string
	Send(v any) bool
}

// Room holds the playback state, the current song, the FIFO queue, and the
// member set for one room id. All methods serialize on the room mutex, so
// two handlers for the same room never interleave.
type Room struct {
	id        string
	createdAt int64

	clock  Clock
	logger *utils.Logger

	mu      sync.Mutex
	state   protocol.PlaybackState
	queue   []protocol.Song
	members map[string]Member
	closed  bool
}

func newRoom(id string, clock Clock, logger *utils.Logger) *Room {
	now := clock.NowMillis()
	return &Room{
		id:        id,
		createdAt: now,
		clock:     clock,
		logger:    logger,
		state: protocol.PlaybackState{
			IsPlaying:   false,
			CurrentSong: nil,
			Position:    0,
			StartTime:   nil,
			LastUpdated: now,
		},
		members: make(map[string]Member),
	}
}

// ID returns the room identifier.
func (r *Room) ID() string {
	return r.id
}

// CreatedAt returns the creation timestamp in milliseconds.
func (r *Room) CreatedAt() int64 {
	return r.createdAt
}

// Join adds a member, announces it to the existing members, and sends the
// joiner its room_joined and server_state_sync frames in that order. It
// reports false when the room has already been destroyed; the caller must
// then re-resolve the room id through the registry.
func (r *Room) Join(m Member) bool {
	now := r.clock.NowMillis()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}

	r.members[m.ID()] = m
	count := len(r.members)

	r.broadcastLocked(protocol.ClientJoined{
		Type:        protocol.TypeClientJoined,
		ClientID:    m.ID(),
		ClientCount: count,
	}, m)

	snap := r.snapshotLocked(now)
	m.Send(protocol.RoomJoined{
		Type:          protocol.TypeRoomJoined,
		RoomID:        r.id,
		PlaybackState: snap,
		ClientCount:   count,
	})
	m.Send(protocol.ServerStateSync{
		Type:            protocol.TypeServerStateSync,
		PlaybackState:   snap,
		ServerTime:      now,
		IsServerPlaying: snap.IsPlaying,
	})

	r.logger.Debug("Client joined room", "roomId", r.id, "clientId", m.ID(), "clientCount", count)
	return true
}

// Leave removes a member and announces the departure to the remaining
// members. It returns the remaining member count so the caller can decide
// whether to drop the room. Leaving does not mutate playback state.
func (r *Room) Leave(m Member) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[m.ID()]; !ok {
		return len(r.members)
	}

	delete(r.members, m.ID())
	count := len(r.members)

	r.broadcastLocked(protocol.ClientLeft{
		Type:        protocol.TypeClientLeft,
		ClientID:    m.ID(),
		ClientCount: count,
	}, nil)

	r.logger.Debug("Client left room", "roomId", r.id, "clientId", m.ID(), "clientCount", count)
	return count
}

// StateSync unicasts a server_state_sync with a derived position. Used for
// play, pause and client_resume, which carry local intent only.
func (r *Room) StateSync(m Member) {
	now := r.clock.NowMillis()

	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.snapshotLocked(now)
	m.Send(protocol.ServerStateSync{
		Type:            protocol.TypeServerStateSync,
		PlaybackState:   snap,
		ServerTime:      now,
		IsServerPlaying: snap.IsPlaying,
	})
}

// PauseAck acknowledges a client_pause without touching room state.
func (r *Room) PauseAck(m Member) {
	m.Send(protocol.ClientPauseAck{
		Type:      protocol.TypeClientPauseAck,
		ClientID:  m.ID(),
		Timestamp: r.clock.NowMillis(),
	})
}

// ServerPlay re-anchors playback at the given position and broadcasts
// server_play_sync to every member including the originator.
//
// The permissive trust model (any member may re-anchor) is deliberately
// isolated here so an authorization gate can be added in one place.
// A server_play with no current song is ignored: playing without a song
// would break the state machine's invariants.
func (r *Room) ServerPlay(m Member, position float64, songID string) {
	now := r.clock.NowMillis()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.CurrentSong == nil {
		r.logger.Debug("Ignoring server_play without a current song", "roomId", r.id, "clientId", m.ID())
		return
	}

	pos := clampPosition(position)
	start := now - int64(pos*1000)

	r.state.IsPlaying = true
	r.state.Position = pos
	r.state.StartTime = &start
	if songID != "" {
		r.state.SongID = songID
	}
	r.state.TriggeredBy = m.ID()
	r.touchLocked(now)

	r.broadcastLocked(protocol.ServerPlaySync{
		Type:        protocol.TypeServerPlaySync,
		Position:    pos,
		ServerTime:  now,
		StartTime:   start,
		SongID:      r.state.SongID,
		TriggeredBy: m.ID(),
	}, nil)
}

// Seek moves the playhead. While playing, the start time is recomputed so
// that the derived position equals the target; while paused, the stored
// position is updated and the start time stays absent. An explicit
// isPlaying=false pauses at the target position; an explicit true resumes,
// but only when a current song exists.
func (r *Room) Seek(m Member, position float64, explicit *bool) {
	now := r.clock.NowMillis()

	r.mu.Lock()
	defer r.mu.Unlock()

	pos := clampPosition(position)

	playing := r.state.IsPlaying
	if explicit != nil {
		if *explicit {
			if r.state.CurrentSong != nil {
				playing = true
			}
		} else {
			playing = false
		}
	}

	r.state.Position = pos
	r.state.IsPlaying = playing
	if playing {
		start := now - int64(pos*1000)
		r.state.StartTime = &start
	} else {
		r.state.StartTime = nil
	}
	r.state.TriggeredBy = m.ID()
	r.touchLocked(now)

	var start *int64
	if r.state.StartTime != nil {
		v := *r.state.StartTime
		start = &v
	}
	r.broadcastLocked(protocol.SeekSync{
		Type:        protocol.TypeSeekSync,
		Position:    pos,
		IsPlaying:   playing,
		ServerTime:  now,
		StartTime:   start,
		TriggeredBy: m.ID(),
	}, nil)
}

// SongChange replaces the current song and starts it from position zero.
func (r *Room) SongChange(m Member, song protocol.Song) {
	now := r.clock.NowMillis()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.startSongLocked(song, now, m.ID())

	r.broadcastLocked(protocol.SongChangeSync{
		Type:        protocol.TypeSongChangeSync,
		Song:        song,
		ServerTime:  now,
		StartTime:   now,
		TriggeredBy: m.ID(),
	}, nil)
}

// AddSong either promotes the song to current (when the room has no
// current song, or when the caller asks for it) or appends it to the queue
// tail. The song_added_response reports the effective outcome.
func (r *Room) AddSong(m Member, song protocol.Song, setAsCurrent bool) {
	now := r.clock.NowMillis()

	r.mu.Lock()
	defer r.mu.Unlock()

	wasIdle := r.state.CurrentSong == nil

	if wasIdle || setAsCurrent {
		r.startSongLocked(song, now, m.ID())

		m.Send(protocol.SongAddedResponse{
			Type:         protocol.TypeSongAddedResponse,
			Success:      true,
			Song:         song,
			SetAsCurrent: true,
			QueueLength:  len(r.queue),
		})
		r.broadcastLocked(protocol.NewSongNotification{
			Type:       protocol.TypeNewSongNotification,
			Song:       song,
			StartTime:  now,
			ServerTime: now,
			WasIdle:    &wasIdle,
		}, nil)
		return
	}

	r.queue = append(r.queue, song)
	r.touchLocked(now)

	m.Send(protocol.SongAddedResponse{
		Type:         protocol.TypeSongAddedResponse,
		Success:      true,
		Song:         song,
		SetAsCurrent: false,
		QueueLength:  len(r.queue),
	})
	r.logger.Debug("Song queued", "roomId", r.id, "songId", song.ID(), "queueLength", len(r.queue))
}

// PlaybackEnded handles a client-reported end of track. With a non-empty
// queue the head is dequeued and started as the next song, triggered by
// the server sentinel. With an empty queue the room goes quietly idle:
// no broadcast is emitted.
func (r *Room) PlaybackEnded(m Member) {
	now := r.clock.NowMillis()

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.queue) > 0 {
		next := r.queue[0]
		r.queue = r.queue[1:]
		r.startSongLocked(next, now, protocol.TriggeredByServer)

		r.broadcastLocked(protocol.NewSongNotification{
			Type:       protocol.TypeNewSongNotification,
			Song:       next,
			StartTime:  now,
			ServerTime: now,
		}, nil)

		r.logger.Debug("Auto-advanced to next song", "roomId", r.id, "songId", next.ID(), "queueLength", len(r.queue))
		return
	}

	r.state.IsPlaying = false
	r.state.CurrentSong = nil
	r.state.Position = 0
	r.state.StartTime = nil
	r.touchLocked(now)
}

// StateRequest answers get_room_state with a derived snapshot, the queue,
// and the echoed requestId.
func (r *Room) StateRequest(m Member, requestID string) {
	now := r.clock.NowMillis()

	r.mu.Lock()
	defer r.mu.Unlock()

	queue := make([]protocol.Song, 0, len(r.queue))
	queue = append(queue, r.queue...)

	m.Send(protocol.RoomStateResponse{
		Type:          protocol.TypeRoomStateResponse,
		RequestID:     requestID,
		PlaybackState: r.snapshotLocked(now),
		Queue:         queue,
		ServerTime:    now,
	})
}

// SyncRequest answers sync_request with a derived snapshot.
func (r *Room) SyncRequest(m Member) {
	now := r.clock.NowMillis()

	r.mu.Lock()
	defer r.mu.Unlock()

	m.Send(protocol.SyncResponse{
		Type:          protocol.TypeSyncResponse,
		PlaybackState: r.snapshotLocked(now),
		ServerTime:    now,
	})
}

// Snapshot returns the current state with a derived position.
func (r *Room) Snapshot() protocol.PlaybackState {
	now := r.clock.NowMillis()

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.snapshotLocked(now)
}

// QueueLength returns the number of queued songs.
func (r *Room) QueueLength() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.queue)
}

// MemberCount returns the number of members.
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.members)
}

// closeIfEmpty marks the room destroyed when it has no members. A closed
// room refuses joins, so a session racing the last leave re-resolves the
// id instead of landing in an orphaned room.
func (r *Room) closeIfEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.members) > 0 {
		return false
	}
	r.closed = true
	return true
}

// startSongLocked makes song current and starts it playing from zero.
func (r *Room) startSongLocked(song protocol.Song, now int64, triggeredBy string) {
	start := now
	r.state.CurrentSong = song
	r.state.Position = 0
	r.state.StartTime = &start
	r.state.IsPlaying = true
	r.state.SongID = song.ID()
	r.state.TriggeredBy = triggeredBy
	r.touchLocked(now)
}

// snapshotLocked copies the state, deriving the position from the start
// time while playing. The copy owns its own StartTime pointer.
func (r *Room) snapshotLocked(now int64) protocol.PlaybackState {
	snap := r.state
	if snap.IsPlaying && snap.StartTime != nil {
		start := *snap.StartTime
		snap.StartTime = &start
		snap.Position = clampPosition(float64(now-start) / 1000)
	}
	return snap
}

// touchLocked advances LastUpdated. It never moves backwards, even if the
// wall clock does.
func (r *Room) touchLocked(now int64) {
	if now > r.state.LastUpdated {
		r.state.LastUpdated = now
	}
}

// broadcastLocked fans a message out to every member except exclude.
// Send is non-blocking and logs its own drops; delivery always continues.
func (r *Room) broadcastLocked(v any, exclude Member) {
	for id, m := range r.members {
		if exclude != nil && id == exclude.ID() {
			continue
		}
		_ = m.Send(v)
	}
}

func clampPosition(p float64) float64 {
	if p < 0 {
		return 0
	}
	return p
}

// Package protocol defines the JSON wire protocol spoken over the WebSocket
// endpoint: the inbound envelope, the outbound message kinds, and the shared
// playback-state shape. Every frame is a JSON object with a string "type".
package protocol

import "encoding/json"

// Inbound message kinds.
const (
	TypeJoinRoom      = "join_room"
	TypeLeaveRoom     = "leave_room"
	TypePlay          = "play"
	TypePause         = "pause"
	TypeClientPause   = "client_pause"
	TypeClientResume  = "client_resume"
	TypeServerPlay    = "server_play"
	TypeSeek          = "seek"
	TypeSongChange    = "song_change"
	TypeAddSong       = "add_song"
	TypePlaybackEnded = "playback_ended"
	TypeGetRoomState  = "get_room_state"
	TypeSyncRequest   = "sync_request"
)

// Outbound message kinds.
const (
	TypeConnected           = "connected"
	TypeError               = "error"
	TypeRoomJoined          = "room_joined"
	TypeServerStateSync     = "server_state_sync"
	TypeClientJoined        = "client_joined"
	TypeClientLeft          = "client_left"
	TypeServerPlaySync      = "server_play_sync"
	TypeSeekSync            = "seek_sync"
	TypeSongChangeSync      = "song_change_sync"
	TypeNewSongNotification = "new_song_notification"
	TypeClientPauseAck      = "client_pause_ack"
	TypeSyncResponse        = "sync_response"
	TypeRoomStateResponse   = "room_state_response"
	TypeSongAddedResponse   = "song_added_response"
)

// TriggeredByServer is the triggeredBy sentinel used for auto-advance.
// Session identifiers always carry a "client_" prefix, so it cannot collide.
const TriggeredByServer = "server"

// Song is an opaque record supplied by clients. The hub never validates its
// contents; all fields are preserved verbatim when echoed back.
type Song map[string]any

// ID returns the song's "id" field when it is a string.
func (s Song) ID() string {
	v, _ := s["id"].(string)
	return v
}

// Title returns the song's "title" field when it is a string.
func (s Song) Title() string {
	v, _ := s["title"].(string)
	return v
}

// PlaybackState is the authoritative per-room playback snapshot as it
// appears on the wire. StartTime is present exactly when IsPlaying is true.
type PlaybackState struct {
	IsPlaying   bool    `json:"isPlaying"`
	CurrentSong Song    `json:"currentSong"`
	Position    float64 `json:"position"`
	StartTime   *int64  `json:"startTime"`
	LastUpdated int64   `json:"lastUpdated"`
	SongID      string  `json:"songId,omitempty"`
	TriggeredBy string  `json:"triggeredBy,omitempty"`
}

// LenientFloat decodes any JSON value; anything that is not a number
// becomes zero. Inbound numeric fields default to zero when missing or
// non-numeric.
type LenientFloat float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *LenientFloat) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*f = 0
		return nil
	}
	*f = LenientFloat(v)
	return nil
}

// ClientMessage is the inbound envelope. Unknown fields are ignored;
// fields irrelevant to a given kind are left at their zero values.
type ClientMessage struct {
	Type         string       `json:"type"`
	RoomID       string       `json:"roomId"`
	Position     LenientFloat `json:"position"`
	SongID       string       `json:"songId"`
	Song         Song         `json:"song"`
	SetAsCurrent bool         `json:"setAsCurrent"`
	IsPlaying    *bool        `json:"isPlaying"`
	RequestID    string       `json:"requestId"`
}

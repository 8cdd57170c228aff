package protocol

// Connected is the per-session welcome sent right after the upgrade.
type Connected struct {
	Type       string `json:"type"`
	ClientID   string `json:"clientId"`
	ServerTime int64  `json:"serverTime"`
}

// ErrorMessage is the unicast reply to malformed or unroutable frames.
type ErrorMessage struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// NewError builds an ErrorMessage stamped with the given timestamp.
func NewError(message string, now int64) ErrorMessage {
	return ErrorMessage{Type: TypeError, Message: message, Timestamp: now}
}

// RoomJoined is unicast to a session that joined a room.
type RoomJoined struct {
	Type          string        `json:"type"`
	RoomID        string        `json:"roomId"`
	PlaybackState PlaybackState `json:"playbackState"`
	ClientCount   int           `json:"clientCount"`
}

// ServerStateSync carries the authoritative state with a derived position.
type ServerStateSync struct {
	Type            string        `json:"type"`
	PlaybackState   PlaybackState `json:"playbackState"`
	ServerTime      int64         `json:"serverTime"`
	IsServerPlaying bool          `json:"isServerPlaying"`
}

// ClientJoined is broadcast to existing members when a session joins.
type ClientJoined struct {
	Type        string `json:"type"`
	ClientID    string `json:"clientId"`
	ClientCount int    `json:"clientCount"`
}

// ClientLeft is broadcast to remaining members when a session departs.
type ClientLeft struct {
	Type        string `json:"type"`
	ClientID    string `json:"clientId"`
	ClientCount int    `json:"clientCount"`
}

// ServerPlaySync is broadcast when a member re-anchors playback.
type ServerPlaySync struct {
	Type        string  `json:"type"`
	Position    float64 `json:"position"`
	ServerTime  int64   `json:"serverTime"`
	StartTime   int64   `json:"startTime"`
	SongID      string  `json:"songId,omitempty"`
	TriggeredBy string  `json:"triggeredBy"`
}

// SeekSync is broadcast when a member seeks. StartTime is null while paused.
type SeekSync struct {
	Type        string  `json:"type"`
	Position    float64 `json:"position"`
	IsPlaying   bool    `json:"isPlaying"`
	ServerTime  int64   `json:"serverTime"`
	StartTime   *int64  `json:"startTime"`
	TriggeredBy string  `json:"triggeredBy"`
}

// SongChangeSync is broadcast when a member replaces the current song.
type SongChangeSync struct {
	Type        string `json:"type"`
	Song        Song   `json:"song"`
	ServerTime  int64  `json:"serverTime"`
	StartTime   int64  `json:"startTime"`
	TriggeredBy string `json:"triggeredBy"`
}

// NewSongNotification is broadcast when a song becomes current, either by
// promotion on add or by queue auto-advance. WasIdle is only present for
// adds (true when the room had no current song, false on replace).
type NewSongNotification struct {
	Type       string `json:"type"`
	Song       Song   `json:"song"`
	StartTime  int64  `json:"startTime"`
	ServerTime int64  `json:"serverTime"`
	WasIdle    *bool  `json:"wasIdle,omitempty"`
}

// ClientPauseAck acknowledges a client_pause without mutating room state.
type ClientPauseAck struct {
	Type      string `json:"type"`
	ClientID  string `json:"clientId"`
	Timestamp int64  `json:"timestamp"`
}

// SyncResponse answers a sync_request with a derived-position snapshot.
type SyncResponse struct {
	Type          string        `json:"type"`
	PlaybackState PlaybackState `json:"playbackState"`
	ServerTime    int64         `json:"serverTime"`
}

// RoomStateResponse answers get_room_state, echoing the requestId.
type RoomStateResponse struct {
	Type          string        `json:"type"`
	RequestID     string        `json:"requestId"`
	PlaybackState PlaybackState `json:"playbackState"`
	Queue         []Song        `json:"queue"`
	ServerTime    int64         `json:"serverTime"`
}

// SongAddedResponse answers add_song. SetAsCurrent reports the effective
// outcome, which may differ from the request when an idle room promotes
// the song to current.
type SongAddedResponse struct {
	Type         string `json:"type"`
	Success      bool   `json:"success"`
	Song         Song   `json:"song"`
	SetAsCurrent bool   `json:"setAsCurrent"`
	QueueLength  int    `json:"queueLength"`
}

// Package room implements the per-room playback state machine, the FIFO
// song queue, and the room registry. A room is the unit of serialization:
// every read or mutation of its state runs under the room's own mutex.
package room

import "time"

// Clock supplies wall-clock-equivalent integer milliseconds. Every
// authoritative state change is stamped with it, and clients derive the
// current playhead from the timestamps it produces.
type Clock interface {
	NowMillis() int64
}

// SystemClock is the production clock, backed by time.Now.
type SystemClock struct{}

// NowMillis returns the current unix time in milliseconds.
func (SystemClock) NowMillis() int64 {
	return time.Now().UnixMilli()
}

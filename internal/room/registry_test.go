package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auxroom/syncd/internal/utils"
)

func newTestRegistry(clock Clock) *Registry {
	return NewRegistry(clock, utils.NewNopLogger())
}

func TestGetOrCreateReturnsSameRoom(t *testing.T) {
	reg := newTestRegistry(&fakeClock{ms: 1000})

	r1 := reg.GetOrCreate("room1")
	r2 := reg.GetOrCreate("room1")
	assert.Same(t, r1, r2)
	assert.Equal(t, 1, reg.Count())
}

func TestGetReturnsNilForUnknownRoom(t *testing.T) {
	reg := newTestRegistry(&fakeClock{ms: 1000})

	assert.Nil(t, reg.Get("missing"))
	assert.Zero(t, reg.Count())
}

func TestDropIfEmptyKeepsOccupiedRooms(t *testing.T) {
	reg := newTestRegistry(&fakeClock{ms: 1000})

	r := reg.GetOrCreate("room1")
	r.Join(&fakeMember{id: "client_a"})

	assert.False(t, reg.DropIfEmpty("room1"))
	assert.Equal(t, 1, reg.Count())
}

func TestDropIfEmptyDestroysEmptyRooms(t *testing.T) {
	reg := newTestRegistry(&fakeClock{ms: 1000})

	r := reg.GetOrCreate("room1")
	a := &fakeMember{id: "client_a"}
	r.Join(a)
	r.Leave(a)

	assert.True(t, reg.DropIfEmpty("room1"))
	assert.Zero(t, reg.Count())
	assert.False(t, reg.DropIfEmpty("room1"), "already destroyed")
}

func TestDestroyedRoomStateIsNotResurrected(t *testing.T) {
	clock := &fakeClock{ms: 1000}
	reg := newTestRegistry(clock)

	r := reg.GetOrCreate("room1")
	a := &fakeMember{id: "client_a"}
	r.Join(a)
	r.AddSong(a, song("s1"), false)
	r.Leave(a)
	require.True(t, reg.DropIfEmpty("room1"))

	clock.advance(5000)
	fresh := reg.GetOrCreate("room1")
	assert.NotSame(t, r, fresh)

	snap := fresh.Snapshot()
	assert.False(t, snap.IsPlaying)
	assert.Nil(t, snap.CurrentSong)
	assert.Zero(t, fresh.QueueLength())
	assert.Equal(t, int64(6000), snap.LastUpdated)
}

func TestJoinRefusedAfterDrop(t *testing.T) {
	reg := newTestRegistry(&fakeClock{ms: 1000})

	stale := reg.GetOrCreate("room1")
	a := &fakeMember{id: "client_a"}
	require.True(t, stale.Join(a))

	// Last member leaves and cleanup destroys the room while another
	// session still holds the resolved pointer.
	stale.Leave(a)
	require.True(t, reg.DropIfEmpty("room1"))

	c := &fakeMember{id: "client_c"}
	assert.False(t, stale.Join(c), "a destroyed room must refuse joins")
	assert.Zero(t, stale.MemberCount())
	assert.Empty(t, c.frames)

	// Re-resolving the id lands the session in a fresh room.
	fresh := reg.GetOrCreate("room1")
	assert.NotSame(t, stale, fresh)
	require.True(t, fresh.Join(c))
	assert.Equal(t, 1, fresh.MemberCount())
	assert.Equal(t, 1, reg.Count())
}

func TestDropIfEmptySkipsRejoinedRoom(t *testing.T) {
	reg := newTestRegistry(&fakeClock{ms: 1000})

	r := reg.GetOrCreate("room1")
	a := &fakeMember{id: "client_a"}
	require.True(t, r.Join(a))
	r.Leave(a)

	// Someone joins back before the departing session's cleanup runs.
	b := &fakeMember{id: "client_b"}
	require.True(t, r.Join(b))

	assert.False(t, reg.DropIfEmpty("room1"))
	assert.Same(t, r, reg.Get("room1"))
}

func TestRoomIDsSorted(t *testing.T) {
	reg := newTestRegistry(&fakeClock{ms: 1000})

	reg.GetOrCreate("zebra")
	reg.GetOrCreate("alpha")
	reg.GetOrCreate("mango")

	assert.Equal(t, []string{"alpha", "mango", "zebra"}, reg.RoomIDs())
}

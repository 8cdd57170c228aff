package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeValidMessage(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"join_room","roomId":"room1"}`))
	require.NoError(t, err)
	assert.Equal(t, TypeJoinRoom, msg.Type)
	assert.Equal(t, "room1", msg.RoomID)
}

func TestDecodeRejectsNonObjects(t *testing.T) {
	cases := map[string]string{
		"array":       `[1,2,3]`,
		"number":      `42`,
		"string":      `"hello"`,
		"null":        `null`,
		"invalid":     `{"type":`,
		"plain text":  `not json at all`,
		"bool":        `true`,
		"empty input": ``,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(payload))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecodeRejectsInvalidUTF8(t *testing.T) {
	_, err := Decode([]byte{0xff, 0xfe, '{', '}'})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeRequiresType(t *testing.T) {
	_, err := Decode([]byte(`{"roomId":"room1"}`))
	assert.ErrorIs(t, err, ErrMissingType)

	_, err = Decode([]byte(`{"type":""}`))
	assert.ErrorIs(t, err, ErrMissingType)
}

func TestDecodeLenientNumerics(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"seek","position":"not a number"}`))
	require.NoError(t, err)
	assert.Zero(t, float64(msg.Position))

	msg, err = Decode([]byte(`{"type":"seek"}`))
	require.NoError(t, err)
	assert.Zero(t, float64(msg.Position))

	msg, err = Decode([]byte(`{"type":"seek","position":12.5}`))
	require.NoError(t, err)
	assert.Equal(t, 12.5, float64(msg.Position))

	// Negative values survive decoding; clamping happens on use.
	msg, err = Decode([]byte(`{"type":"seek","position":-3}`))
	require.NoError(t, err)
	assert.Equal(t, -3.0, float64(msg.Position))
}

func TestDecodeExplicitIsPlaying(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"seek","position":5,"isPlaying":false}`))
	require.NoError(t, err)
	require.NotNil(t, msg.IsPlaying)
	assert.False(t, *msg.IsPlaying)

	msg, err = Decode([]byte(`{"type":"seek","position":5}`))
	require.NoError(t, err)
	assert.Nil(t, msg.IsPlaying)
}

func TestSongPreservesUnknownFields(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"add_song","song":{"id":"s1","title":"X","artist":"Y","durationMs":1234}}`))
	require.NoError(t, err)
	require.NotNil(t, msg.Song)
	assert.Equal(t, "s1", msg.Song.ID())
	assert.Equal(t, "X", msg.Song.Title())

	// Echoing the song must keep every field the client sent.
	data, err := Encode(msg.Song)
	require.NoError(t, err)

	var echoed map[string]any
	require.NoError(t, json.Unmarshal(data, &echoed))
	assert.Equal(t, "Y", echoed["artist"])
	assert.Equal(t, 1234.0, echoed["durationMs"])
}

func TestNewSongNotificationOmitsWasIdle(t *testing.T) {
	data, err := Encode(NewSongNotification{
		Type:       TypeNewSongNotification,
		Song:       Song{"id": "s2"},
		StartTime:  1000,
		ServerTime: 1000,
	})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "wasIdle")

	idle := false
	data, err = Encode(NewSongNotification{
		Type:       TypeNewSongNotification,
		Song:       Song{"id": "s2"},
		StartTime:  1000,
		ServerTime: 1000,
		WasIdle:    &idle,
	})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"wasIdle":false`)
}

func TestPlaybackStateNullFields(t *testing.T) {
	data, err := Encode(PlaybackState{LastUpdated: 5})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded["currentSong"])
	assert.Nil(t, decoded["startTime"])
	assert.Equal(t, false, decoded["isPlaying"])
}

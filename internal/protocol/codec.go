package protocol

import (
	"encoding/json"
	"errors"
	"unicode/utf8"
)

// Decode errors. Each maps to an error unicast; none disconnects the peer.
var (
	ErrMalformed   = errors.New("invalid message format")
	ErrMissingType = errors.New("missing message type")
)

// Decode parses an inbound text frame. The frame must be valid UTF-8 and a
// JSON object carrying a string "type"; anything else yields ErrMalformed
// or ErrMissingType. Numeric fields are decoded leniently (see LenientFloat),
// but a wrong-typed structural field fails the whole frame.
func Decode(data []byte) (*ClientMessage, error) {
	if !utf8.Valid(data) {
		return nil, ErrMalformed
	}

	// Reject non-object payloads (arrays, numbers, strings) up front;
	// json.Unmarshal into a struct accepts "null" silently.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil || probe == nil {
		return nil, ErrMalformed
	}

	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, ErrMalformed
	}

	if msg.Type == "" {
		return nil, ErrMissingType
	}

	return &msg, nil
}

// Encode serializes an outbound message as a JSON text frame.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

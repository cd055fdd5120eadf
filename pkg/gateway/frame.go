package gateway

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrNotADispatch is returned for frames without a dispatch event name, such
// as heartbeats and other transport opcodes the engine does not consume.
var ErrNotADispatch = errors.New("frame carries no dispatch event")

// ErrUnknownEvent is returned when no handler is registered for a dispatch
// event name.
var ErrUnknownEvent = errors.New("unknown dispatch event")

// Frame is one decoded transport frame: the event name discriminator, the
// optional sequence number, and the still-raw payload that the router decodes
// into the matching dispatch struct.
type Frame struct {
	Event    string
	Sequence int64
	Payload  json.RawMessage
}

// ParseFrame splits a raw gateway frame {"t":...,"s":...,"d":{...}} without
// decoding the payload. The discriminator is inspected first so unknown and
// non-dispatch frames can be rejected before any typed unmarshal work.
func ParseFrame(raw []byte) (Frame, error) {
	if !gjson.ValidBytes(raw) {
		return Frame{}, fmt.Errorf("parse frame: invalid JSON")
	}

	event := gjson.GetBytes(raw, "t")
	if !event.Exists() || event.Type == gjson.Null || event.String() == "" {
		return Frame{}, ErrNotADispatch
	}

	frame := Frame{
		Event:    event.String(),
		Sequence: gjson.GetBytes(raw, "s").Int(),
	}

	payload := gjson.GetBytes(raw, "d")
	if payload.Exists() && payload.Type != gjson.Null {
		frame.Payload = json.RawMessage(payload.Raw)
	}

	return frame, nil
}

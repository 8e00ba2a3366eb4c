package core

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/Whiteboard/internal/domain"
)

var ErrBadEnvelope = errors.New("bad envelope")

// Frame is one encoded outbound envelope.
type Frame []byte

// SessionID is the transport-level connection id.
type SessionID string

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

type EventName string

const (
	EventJoin          EventName = "join"
	EventCursorMove    EventName = "cursorMove"
	EventDraw          EventName = "draw"
	EventAddTextBox    EventName = "addTextBox"
	EventUpdateTextBox EventName = "updateTextBox"
	EventDisconnect    EventName = "disconnect"

	EventUserList         EventName = "userList"
	EventUserDisconnected EventName = "userDisconnected"
	EventRemoteCursor     EventName = "remoteCursor"

	// EventRemote carries a frame relayed by another instance. Never accepted from a client.
	EventRemote EventName = "$remote"
)

// ClientEvent reports whether a client may send the event over the wire.
// disconnect is raised by the transport itself.
func ClientEvent(name EventName) bool {
	switch name {
	case EventJoin, EventCursorMove, EventDraw, EventAddTextBox, EventUpdateTextBox:
		return true
	}
	return false
}

// Event is one unit of work for the serial processing stream.
type Event struct {
	Name EventName
	From SessionID
	Conn SignalConnection
	Data json.RawMessage

	// Room and Frame are set only for EventRemote.
	Room  domain.RoomID
	Frame Frame
}

// Envelope is the wire shape in both directions.
type Envelope struct {
	Event EventName       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func Encode(name EventName, payload any) (Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	b, err := json.Marshal(Envelope{Event: name, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return b, nil
}

func Decode(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("%w: missing event", ErrBadEnvelope)
	}
	return env, nil
}

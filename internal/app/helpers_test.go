package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/dkeye/Whiteboard/internal/core"
	"github.com/stretchr/testify/require"
)

type seqColors struct{ n int }

func (s *seqColors) Next() string {
	s.n++
	return fmt.Sprintf("c%d", s.n)
}

type fakeConn struct {
	frames []core.Frame
	full   bool
	closed bool
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	if f.full {
		return errors.New("full")
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() { f.closed = true }

func (f *fakeConn) envelopes(t *testing.T) []core.Envelope {
	t.Helper()
	out := make([]core.Envelope, 0, len(f.frames))
	for _, fr := range f.frames {
		env, err := core.Decode(fr)
		require.NoError(t, err)
		out = append(out, env)
	}
	return out
}

// named returns payloads of every received event called name.
func (f *fakeConn) named(t *testing.T, name core.EventName) []json.RawMessage {
	t.Helper()
	var out []json.RawMessage
	for _, env := range f.envelopes(t) {
		if env.Event == name {
			out = append(out, env.Data)
		}
	}
	return out
}

func (f *fakeConn) reset() { f.frames = nil }

type harness struct {
	relay *Relay
	conns map[core.SessionID]*fakeConn
}

func newHarness(opts ...Option) *harness {
	groups := NewGroups()
	reg := NewRegistry(&seqColors{})
	return &harness{
		relay: NewRelay(reg, groups, NewRoomRouter(groups, nil), opts...),
		conns: map[core.SessionID]*fakeConn{},
	}
}

func (h *harness) conn(sid core.SessionID) *fakeConn {
	c, ok := h.conns[sid]
	if !ok {
		c = &fakeConn{}
		h.conns[sid] = c
	}
	return c
}

func (h *harness) send(t *testing.T, sid core.SessionID, name core.EventName, data string) {
	t.Helper()
	var raw json.RawMessage
	if data != "" {
		raw = json.RawMessage(data)
	}
	require.NoError(t, h.relay.Handle(core.Event{Name: name, From: sid, Conn: h.conn(sid), Data: raw}))
}

func (h *harness) disconnect(t *testing.T, sid core.SessionID) {
	t.Helper()
	require.NoError(t, h.relay.Handle(core.Event{Name: core.EventDisconnect, From: sid}))
}

func strList(t *testing.T, raw json.RawMessage) []string {
	t.Helper()
	var out []string
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

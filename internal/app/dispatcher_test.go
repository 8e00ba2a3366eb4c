package app

import (
	"context"
	"testing"
	"time"

	"github.com/dkeye/Whiteboard/internal/core"
	"github.com/dkeye/Whiteboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncConn is safe to read from the test goroutine while the loop writes.
type syncConn struct {
	frames chan core.Frame
}

func (c *syncConn) TrySend(f core.Frame) error {
	c.frames <- f
	return nil
}

func (c *syncConn) Close() {}

func TestDispatcherProcessesInOrder(t *testing.T) {
	h := newHarness()
	d := NewDispatcher(h.relay, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	x := &syncConn{frames: make(chan core.Frame, 16)}
	require.NoError(t, d.Submit(ctx, core.Event{Name: core.EventJoin, From: "X", Conn: x, Data: []byte(`{"identity":"a","roomId":"r1"}`)}))
	require.NoError(t, d.Submit(ctx, core.Event{Name: core.EventJoin, From: "Y", Conn: &syncConn{frames: make(chan core.Frame, 16)}, Data: []byte(`{"identity":"b","roomId":"r1"}`)}))

	var users []domain.Identity
	require.NoError(t, d.Query(ctx, func(r *Relay) { users = r.Registry.ListIdentities("r1") }))
	assert.Equal(t, []domain.Identity{"a", "b"}, users)

	for _, want := range []string{`["a"]`, `["a","b"]`} {
		select {
		case f := <-x.frames:
			env, err := core.Decode(f)
			require.NoError(t, err)
			assert.Equal(t, core.EventUserList, env.Event)
			assert.JSONEq(t, want, string(env.Data))
		case <-time.After(time.Second):
			t.Fatal("no roster frame")
		}
	}
}

func TestDispatcherStopped(t *testing.T) {
	d := NewDispatcher(newHarness().relay, 0)
	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)
	cancel()
	<-d.Done()

	assert.ErrorIs(t, d.Submit(context.Background(), core.Event{Name: core.EventDisconnect, From: "X"}), ErrStopped)
	assert.ErrorIs(t, d.Query(context.Background(), func(*Relay) {}), ErrStopped)
}

func TestDispatcherSurvivesUnknownEvent(t *testing.T) {
	d := NewDispatcher(newHarness().relay, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	x := &syncConn{frames: make(chan core.Frame, 4)}
	require.NoError(t, d.Submit(ctx, core.Event{Name: "bogus", From: "X"}))
	require.NoError(t, d.Submit(ctx, core.Event{Name: core.EventJoin, From: "X", Conn: x, Data: []byte(`{"identity":"a","roomId":"r1"}`)}))

	var users []domain.Identity
	require.NoError(t, d.Query(ctx, func(r *Relay) { users = r.Registry.ListIdentities("r1") }))
	assert.Equal(t, []domain.Identity{"a"}, users)
}

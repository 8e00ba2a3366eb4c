package bus

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSkipsOwnAndMalformed(t *testing.T) {
	b := &RedisBus{origin: "me"}

	raw, err := json.Marshal(Message{Origin: "other", Room: "r1", Frame: json.RawMessage(`{"event":"draw"}`)})
	require.NoError(t, err)
	m, ok := b.decode(string(raw))
	require.True(t, ok)
	assert.Equal(t, "r1", string(m.Room))
	assert.JSONEq(t, `{"event":"draw"}`, string(m.Frame))

	own, _ := json.Marshal(Message{Origin: "me", Room: "r1", Frame: json.RawMessage(`{}`)})
	_, ok = b.decode(string(own))
	assert.False(t, ok)

	noRoom, _ := json.Marshal(Message{Origin: "other", Frame: json.RawMessage(`{}`)})
	_, ok = b.decode(string(noRoom))
	assert.False(t, ok)

	_, ok = b.decode("garbage")
	assert.False(t, ok)
}

func TestPublishNeverBlocks(t *testing.T) {
	b := &RedisBus{origin: "me", out: make(chan Message, 1)}
	require.NoError(t, b.Publish("r1", []byte(`{}`)))
	assert.ErrorIs(t, b.Publish("r1", []byte(`{}`)), ErrBusFull)

	m := <-b.out
	assert.Equal(t, "me", m.Origin)
}

package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/Whiteboard/internal/core"
	"github.com/dkeye/Whiteboard/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var ErrBusFull = errors.New("bus queue full")

// Message is what travels between instances.
type Message struct {
	Origin string          `json:"origin"`
	Room   domain.RoomID   `json:"room"`
	Frame  json.RawMessage `json:"frame"`
}

type Options struct {
	Addr    string
	DB      int
	Channel string
	Queue   int
}

// RedisBus fans relayed frames out to every other instance on one channel.
type RedisBus struct {
	rdb     *redis.Client
	channel string
	origin  string
	out     chan Message
}

// NewRedisBus connects to redis and verifies connectivity
func NewRedisBus(ctx context.Context, opts Options) (*RedisBus, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: opts.Addr,
		DB:   opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	if opts.Queue <= 0 {
		opts.Queue = 1024
	}
	return &RedisBus{
		rdb:     rdb,
		channel: opts.Channel,
		origin:  uuid.NewString(),
		out:     make(chan Message, opts.Queue),
	}, nil
}

// Publish queues a frame for the publish loop; it never blocks.
func (b *RedisBus) Publish(room domain.RoomID, frame core.Frame) error {
	select {
	case b.out <- Message{Origin: b.origin, Room: room, Frame: json.RawMessage(frame)}:
		return nil
	default:
		return ErrBusFull
	}
}

// Run drains the publish queue until ctx is cancelled.
func (b *RedisBus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-b.out:
			raw, err := json.Marshal(m)
			if err != nil {
				log.Error().Err(err).Str("module", "bus").Msg("marshal")
				continue
			}
			if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
				log.Warn().Err(err).Str("module", "bus").Str("room", string(m.Room)).Msg("publish")
			}
		}
	}
}

// Subscribe invokes fn for every frame published by another instance.
func (b *RedisBus) Subscribe(ctx context.Context, fn func(room domain.RoomID, frame core.Frame)) {
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			_ = pubsub.Close()
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			m, ok := b.decode(msg.Payload)
			if !ok {
				continue
			}
			fn(m.Room, core.Frame(m.Frame))
		}
	}
}

// decode drops malformed messages and our own echoes.
func (b *RedisBus) decode(payload string) (Message, bool) {
	var m Message
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		log.Warn().Err(err).Str("module", "bus").Msg("bad message")
		return Message{}, false
	}
	if m.Origin == b.origin || m.Room == "" || len(m.Frame) == 0 {
		return Message{}, false
	}
	return m, true
}

// Close shuts down the redis connection
func (b *RedisBus) Close() { _ = b.rdb.Close() }

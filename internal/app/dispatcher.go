package app

import (
	"context"
	"errors"

	"github.com/dkeye/Whiteboard/internal/core"
	"github.com/rs/zerolog/log"
)

var ErrStopped = errors.New("dispatcher stopped")

// Dispatcher is the single processing stream: events from every connection
// are queued and handled one at a time, each to completion.
type Dispatcher struct {
	relay   *Relay
	inbox   chan core.Event
	queries chan func()
	done    chan struct{}
}

func NewDispatcher(relay *Relay, buffer int) *Dispatcher {
	return &Dispatcher{
		relay:   relay,
		inbox:   make(chan core.Event, buffer),
		queries: make(chan func()),
		done:    make(chan struct{}),
	}
}

// Run processes events until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	log.Info().Str("module", "app.dispatcher").Msg("dispatcher started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.dispatcher").Msg("dispatcher ctx done")
			return
		case ev := <-d.inbox:
			// Handle already logs unknown events; they are dropped.
			if err := d.relay.Handle(ev); err != nil && !errors.Is(err, ErrUnknownEvent) {
				log.Error().Str("module", "app.dispatcher").Err(err).Str("event", string(ev.Name)).Msg("handle")
			}
		case fn := <-d.queries:
			fn()
		}
	}
}

// Submit queues ev. It blocks while the inbox is full.
func (d *Dispatcher) Submit(ctx context.Context, ev core.Event) error {
	select {
	case d.inbox <- ev:
		return nil
	case <-d.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Query runs fn on the loop between two events and waits for it.
func (d *Dispatcher) Query(ctx context.Context, fn func(*Relay)) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn(d.relay)
	}
	select {
	case d.queries <- wrapped:
	case <-d.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

// Done is closed once Run has returned.
func (d *Dispatcher) Done() <-chan struct{} { return d.done }

package app

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/Whiteboard/internal/core"
	"github.com/dkeye/Whiteboard/internal/domain"
	"github.com/dkeye/Whiteboard/internal/metrics"
	"github.com/rs/zerolog/log"
)

var ErrUnknownEvent = errors.New("unknown event")

// Publisher forwards relayed frames to other instances. Publish must not block.
type Publisher interface {
	Publish(room domain.RoomID, frame core.Frame) error
}

type HandlerFunc func(ev core.Event)

// Relay owns the per-event handlers and the state they touch.
type Relay struct {
	Registry *Registry
	Groups   *Groups
	Router   *RoomRouter

	bus               Publisher
	enforceMembership bool
	handlers          map[core.EventName]HandlerFunc
}

type Option func(*Relay)

// WithPublisher also forwards cursor/draw/text frames through p.
func WithPublisher(p Publisher) Option {
	return func(r *Relay) { r.bus = p }
}

// WithMembershipCheck drops relayed events for rooms the sender has not joined.
func WithMembershipCheck(on bool) Option {
	return func(r *Relay) { r.enforceMembership = on }
}

func NewRelay(reg *Registry, groups *Groups, router *RoomRouter, opts ...Option) *Relay {
	r := &Relay{Registry: reg, Groups: groups, Router: router}
	for _, opt := range opts {
		opt(r)
	}
	r.handlers = map[core.EventName]HandlerFunc{
		core.EventJoin:          r.handleJoin,
		core.EventCursorMove:    r.handleCursorMove,
		core.EventDraw:          r.handlePassThrough,
		core.EventAddTextBox:    r.handlePassThrough,
		core.EventUpdateTextBox: r.handlePassThrough,
		core.EventDisconnect:    r.handleDisconnect,
		core.EventRemote:        r.handleRemote,
	}
	return r
}

// Handle runs the handler for ev.Name to completion.
func (r *Relay) Handle(ev core.Event) error {
	h, ok := r.handlers[ev.Name]
	if !ok {
		log.Warn().Str("module", "app.relay").Str("sid", string(ev.From)).Str("event", string(ev.Name)).Msg("unknown event")
		return ErrUnknownEvent
	}
	metrics.Events.WithLabelValues(string(ev.Name)).Inc()
	h(ev)
	metrics.Rooms.Set(float64(r.Registry.Len()))
	return nil
}

func (r *Relay) handleJoin(ev core.Event) {
	req := domain.ResolveJoin(ev.Data)
	if ev.Conn != nil {
		r.Groups.Join(req.Room, ev.From, ev.Conn)
	}

	_, evicted := r.Registry.AddOrReplace(req.Room, ev.From, req.Identity)
	// A replaced tab stops receiving this room's broadcasts too.
	for _, sid := range evicted {
		r.Groups.Leave(req.Room, sid)
	}

	log.Info().Str("module", "app.relay").Str("sid", string(ev.From)).Str("room", string(req.Room)).
		Str("identity", string(req.Identity)).Bool("legacy", req.Legacy).Msg("join")
	r.Router.Broadcast(req.Room, ev.From, core.EventUserList, r.Registry.ListIdentities(req.Room), true)
}

func (r *Relay) handleCursorMove(ev core.Event) {
	room := domain.RoomOf(ev.Data)
	if !r.allowed(room, ev) {
		return
	}
	color := domain.DefaultColor
	if p, ok := r.Registry.FindByIdentity(room, domain.IdentityOf(ev.Data)); ok {
		color = p.DisplayColor
	}
	r.forward(room, ev.From, core.EventRemoteCursor, withColor(ev.Data, color))
}

// handlePassThrough relays draw and text-box events verbatim under the same name.
func (r *Relay) handlePassThrough(ev core.Event) {
	room := domain.RoomOf(ev.Data)
	if !r.allowed(room, ev) {
		return
	}
	r.forward(room, ev.From, ev.Name, ev.Data)
}

func (r *Relay) handleDisconnect(ev core.Event) {
	r.Sweep(ev.From)
}

func (r *Relay) handleRemote(ev core.Event) {
	r.Router.Deliver(ev.Room, ev.Frame, "")
}

func (r *Relay) forward(room domain.RoomID, from core.SessionID, name core.EventName, payload json.RawMessage) {
	frame := r.Router.Broadcast(room, from, name, payload, false)
	if r.bus == nil || frame == nil {
		return
	}
	if err := r.bus.Publish(room, frame); err != nil {
		log.Warn().Err(err).Str("module", "app.relay").Str("room", string(room)).Msg("bus publish")
	}
}

func (r *Relay) allowed(room domain.RoomID, ev core.Event) bool {
	if !r.enforceMembership || r.Groups.Has(room, ev.From) {
		return true
	}
	log.Debug().Str("module", "app.relay").Str("sid", string(ev.From)).Str("room", string(room)).
		Str("event", string(ev.Name)).Msg("sender not in room, dropped")
	return false
}

// withColor stamps displayColor onto an object payload. Anything else is
// replaced by an object holding only the color.
func withColor(data json.RawMessage, color string) json.RawMessage {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		fields = map[string]json.RawMessage{}
	}
	c, _ := json.Marshal(color)
	fields["displayColor"] = c
	out, err := json.Marshal(fields)
	if err != nil {
		return data
	}
	return out
}

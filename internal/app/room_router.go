package app

import (
	"github.com/dkeye/Whiteboard/internal/core"
	"github.com/dkeye/Whiteboard/internal/domain"
	"github.com/dkeye/Whiteboard/internal/metrics"
	"github.com/rs/zerolog/log"
)

// RoomRouter encodes events and fans them out inside one room scope.
type RoomRouter struct {
	groups *Groups
	policy Policy
}

func NewRoomRouter(groups *Groups, policy Policy) *RoomRouter {
	if policy == nil {
		policy = SimplePolicy{Action: DropFrame}
	}
	return &RoomRouter{groups: groups, policy: policy}
}

// Broadcast sends name+payload to every connection in room. The sender is
// skipped unless includeSender is set. The encoded frame is returned so
// callers can forward it elsewhere.
func (rt *RoomRouter) Broadcast(room domain.RoomID, from core.SessionID, name core.EventName, payload any, includeSender bool) core.Frame {
	frame, err := core.Encode(name, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Str("room", string(room)).Msg("encode")
		return nil
	}
	except := from
	if includeSender {
		except = ""
	}
	rt.Deliver(room, frame, except)
	return frame
}

// Deliver sends an already encoded frame.
func (rt *RoomRouter) Deliver(room domain.RoomID, frame core.Frame, except core.SessionID) PublishResult {
	res := rt.groups.Broadcast(room, frame, except)
	for _, slow := range res.Dropped {
		metrics.DroppedFrames.Inc()
		switch rt.policy.OnBackPressure(room, slow) {
		case KickMember:
			log.Warn().Str("module", "app.router").Str("sid", string(slow.SID)).Str("room", string(room)).Msg("slow member kicked")
			// Closing ends the read pump, which submits disconnect.
			slow.Conn.Close()
		case DropFrame, NoAction:
		}
	}
	log.Debug().Str("module", "app.router").Str("room", string(room)).Str("except", string(except)).
		Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

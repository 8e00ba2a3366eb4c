package app

import (
	"github.com/dkeye/Whiteboard/internal/core"
	"github.com/rs/zerolog/log"
)

// Sweep removes a terminated connection everywhere and announces the
// roster change in each room it held a record in. Calling it again for the
// same sid finds nothing and broadcasts nothing.
func (r *Relay) Sweep(sid core.SessionID) {
	r.Groups.LeaveAll(sid)

	removals := r.Registry.RemoveByConnection(sid)
	for _, rm := range removals {
		if rm.Departed {
			r.Router.Broadcast(rm.Room, sid, core.EventUserDisconnected, rm.Identity, true)
		}
		r.Router.Broadcast(rm.Room, sid, core.EventUserList, r.Registry.ListIdentities(rm.Room), true)
	}
	log.Info().Str("module", "app.sweeper").Str("sid", string(sid)).Int("rooms", len(removals)).Msg("connection swept")
}

package app

import (
	"github.com/dkeye/Whiteboard/internal/core"
	"github.com/dkeye/Whiteboard/internal/domain"
	"github.com/rs/zerolog/log"
)

// Member is a connection subscribed to a room scope.
type Member struct {
	SID  core.SessionID
	Conn core.SignalConnection
}

// PublishResult reports delivery stats/backpressure to the caller.
type PublishResult struct {
	SendTo  int
	Dropped []Member
}

// Groups is the room scope: which connections receive a room's broadcasts.
// It is independent of the Registry; a connection may be in a scope without a
// participant record. Owned by the Dispatcher loop, no locking.
type Groups struct {
	rooms map[domain.RoomID]map[core.SessionID]core.SignalConnection
	bySID map[core.SessionID]map[domain.RoomID]struct{}
}

func NewGroups() *Groups {
	return &Groups{
		rooms: make(map[domain.RoomID]map[core.SessionID]core.SignalConnection),
		bySID: make(map[core.SessionID]map[domain.RoomID]struct{}),
	}
}

func (g *Groups) Join(room domain.RoomID, sid core.SessionID, conn core.SignalConnection) {
	members, ok := g.rooms[room]
	if !ok {
		members = make(map[core.SessionID]core.SignalConnection)
		g.rooms[room] = members
	}
	members[sid] = conn

	joined, ok := g.bySID[sid]
	if !ok {
		joined = make(map[domain.RoomID]struct{})
		g.bySID[sid] = joined
	}
	joined[room] = struct{}{}
}

func (g *Groups) Leave(room domain.RoomID, sid core.SessionID) {
	if members, ok := g.rooms[room]; ok {
		delete(members, sid)
		if len(members) == 0 {
			delete(g.rooms, room)
		}
	}
	if joined, ok := g.bySID[sid]; ok {
		delete(joined, room)
		if len(joined) == 0 {
			delete(g.bySID, sid)
		}
	}
	log.Debug().Str("module", "app.groups").Str("sid", string(sid)).Str("room", string(room)).Msg("left scope")
}

// LeaveAll drops sid from every scope it joined.
func (g *Groups) LeaveAll(sid core.SessionID) {
	for room := range g.bySID[sid] {
		g.Leave(room, sid)
	}
}

func (g *Groups) Has(room domain.RoomID, sid core.SessionID) bool {
	_, ok := g.rooms[room][sid]
	return ok
}

func (g *Groups) Size(room domain.RoomID) int { return len(g.rooms[room]) }

// Broadcast offers frame to every connection in room except the one given.
func (g *Groups) Broadcast(room domain.RoomID, frame core.Frame, except core.SessionID) PublishResult {
	res := PublishResult{}
	for sid, conn := range g.rooms[room] {
		if sid == except {
			continue
		}
		if err := conn.TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, Member{SID: sid, Conn: conn})
			continue
		}
		res.SendTo++
	}
	return res
}

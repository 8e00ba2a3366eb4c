package app

import (
	"cmp"
	"slices"

	"github.com/dkeye/Whiteboard/internal/core"
	"github.com/dkeye/Whiteboard/internal/domain"
	"github.com/rs/zerolog/log"
)

// Removal describes one participant record dropped by RemoveByConnection.
type Removal struct {
	Room     domain.RoomID
	Identity domain.Identity
	// Departed is true when the identity has no records left in Room.
	Departed bool
	// Closed is true when Room became empty and was deleted.
	Closed bool
}

// Registry is the presence state: room id -> participants in join order.
// It is not safe for concurrent use; the Dispatcher loop owns it.
type Registry struct {
	rooms  map[domain.RoomID][]domain.Participant
	colors ColorSource
}

func NewRegistry(colors ColorSource) *Registry {
	return &Registry{
		rooms:  make(map[domain.RoomID][]domain.Participant),
		colors: colors,
	}
}

// AddOrReplace drops every record of identity in room (and any record held by
// sid there), appends a fresh one with a new color and returns that color
// plus the other connections whose records were evicted.
func (r *Registry) AddOrReplace(room domain.RoomID, sid core.SessionID, identity domain.Identity) (string, []core.SessionID) {
	var evicted []core.SessionID
	var kept []domain.Participant
	for _, p := range r.rooms[room] {
		if p.Identity == identity || p.ConnID == string(sid) {
			if p.ConnID != string(sid) {
				evicted = append(evicted, core.SessionID(p.ConnID))
			}
			continue
		}
		kept = append(kept, p)
	}

	color := r.colors.Next()
	r.rooms[room] = append(kept, domain.Participant{
		ConnID:       string(sid),
		Identity:     identity,
		DisplayColor: color,
		Room:         room,
	})
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(room)).
		Str("identity", string(identity)).Int("evicted", len(evicted)).Msg("participant registered")
	return color, evicted
}

func (r *Registry) FindByIdentity(room domain.RoomID, identity domain.Identity) (domain.Participant, bool) {
	for _, p := range r.rooms[room] {
		if p.Identity == identity {
			return p, true
		}
	}
	return domain.Participant{}, false
}

// RemoveByConnection scans every room for sid and removes its records.
// Rooms are visited in id order.
func (r *Registry) RemoveByConnection(sid core.SessionID) []Removal {
	ids := make([]domain.RoomID, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var out []Removal
	for _, id := range ids {
		list := r.rooms[id]
		idx := slices.IndexFunc(list, func(p domain.Participant) bool { return p.ConnID == string(sid) })
		if idx < 0 {
			continue
		}
		identity := list[idx].Identity
		list = slices.Delete(list, idx, idx+1)

		rm := Removal{Room: id, Identity: identity}
		rm.Departed = !slices.ContainsFunc(list, func(p domain.Participant) bool { return p.Identity == identity })
		if len(list) == 0 {
			delete(r.rooms, id)
			rm.Closed = true
		} else {
			r.rooms[id] = list
		}
		out = append(out, rm)
		log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(id)).
			Str("identity", string(identity)).Bool("departed", rm.Departed).Bool("closed", rm.Closed).Msg("participant removed")
	}
	return out
}

// ListIdentities returns identities in join order, duplicates included.
func (r *Registry) ListIdentities(room domain.RoomID) []domain.Identity {
	list := r.rooms[room]
	out := make([]domain.Identity, 0, len(list))
	for _, p := range list {
		out = append(out, p.Identity)
	}
	return out
}

// Participants returns a copy of the room's records in join order.
func (r *Registry) Participants(room domain.RoomID) []domain.Participant {
	return slices.Clone(r.rooms[room])
}

// Rooms lists live rooms ordered by id.
func (r *Registry) Rooms() []domain.RoomInfo {
	out := make([]domain.RoomInfo, 0, len(r.rooms))
	for id, list := range r.rooms {
		out = append(out, domain.RoomInfo{ID: id, Participants: len(list)})
	}
	slices.SortFunc(out, func(a, b domain.RoomInfo) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (r *Registry) Len() int { return len(r.rooms) }

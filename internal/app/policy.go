package app

import (
	"strings"

	"github.com/dkeye/Whiteboard/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a member whose outbound queue is full.
type Policy interface {
	OnBackPressure(room domain.RoomID, member Member) BackpressureAction
}

// SimplePolicy applies the same action to every slow member.
type SimplePolicy struct {
	Action BackpressureAction
}

func (p SimplePolicy) OnBackPressure(room domain.RoomID, member Member) BackpressureAction {
	return p.Action
}

// ParseBackpressure maps a config value ("drop", "kick") to an action.
func ParseBackpressure(s string) BackpressureAction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kick":
		return KickMember
	case "none":
		return NoAction
	default:
		return DropFrame
	}
}

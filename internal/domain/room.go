// Package domain contains entity without logic, just meta-data
package domain

type (
	RoomID   string
	Identity string
)

// DefaultRoom is the room used when a payload names none.
const DefaultRoom RoomID = "global"

// DefaultColor is stamped on cursors of senders that never joined.
const DefaultColor = "#000"

// Participant is one live connection's membership in one room.
// The connection id is kept as a plain string so domain stays transport free.
type Participant struct {
	ConnID       string   `json:"connectionId"`
	Identity     Identity `json:"identity"`
	DisplayColor string   `json:"displayColor"`
	Room         RoomID   `json:"roomId"`
}

type RoomInfo struct {
	ID           RoomID `json:"roomId"`
	Participants int    `json:"participants"`
}

package domain

import (
	"bytes"
	"encoding/json"
)

// JoinRequest is a join payload after the string-or-object shape is resolved.
type JoinRequest struct {
	Identity Identity
	Room     RoomID
	Legacy   bool
}

// ref is the object form shared by join and relayed payloads.
// email/whiteboardId are the names older clients send.
type ref struct {
	Identity     *string
	Email        *string
	RoomID       *string
	WhiteboardID *string
}

func (r ref) identity() Identity {
	if r.Identity != nil {
		return Identity(*r.Identity)
	}
	if r.Email != nil {
		return Identity(*r.Email)
	}
	return ""
}

func (r ref) room() RoomID {
	if r.RoomID != nil && *r.RoomID != "" {
		return RoomID(*r.RoomID)
	}
	if r.WhiteboardID != nil && *r.WhiteboardID != "" {
		return RoomID(*r.WhiteboardID)
	}
	return DefaultRoom
}

// ResolveJoin normalizes a join payload. A bare JSON string is the legacy
// identity-only form and lands in DefaultRoom. Identity is not validated;
// an unreadable payload yields an empty identity in DefaultRoom.
func ResolveJoin(raw json.RawMessage) JoinRequest {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return JoinRequest{Identity: Identity(s), Room: DefaultRoom, Legacy: true}
		}
	}
	r := parseRef(raw)
	return JoinRequest{Identity: r.identity(), Room: r.room()}
}

// RoomOf returns the room id carried in a relayed payload, or DefaultRoom.
func RoomOf(raw json.RawMessage) RoomID {
	return parseRef(raw).room()
}

// IdentityOf returns the sender identity carried in a relayed payload.
func IdentityOf(raw json.RawMessage) Identity {
	return parseRef(raw).identity()
}

// parseRef reads each known key on its own; a key holding anything but a
// string counts as absent and leaves its siblings intact.
func parseRef(raw json.RawMessage) ref {
	var r ref
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return r
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return r
	}
	r.Identity = stringField(fields, "identity")
	r.Email = stringField(fields, "email")
	r.RoomID = stringField(fields, "roomId")
	r.WhiteboardID = stringField(fields, "whiteboardId")
	return r
}

func stringField(fields map[string]json.RawMessage, key string) *string {
	v, ok := fields[key]
	if !ok || string(v) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil
	}
	return &s
}

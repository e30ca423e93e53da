// internal/domain/models/room.go
package models

import (
	"sort"
	"strings"
	"time"
)

// Room is a single hotel room as tracked by the desk.
//
// Number is the unique key. Type is the room type code (see RoomType).
// Grade is Ungraded until a manager grades the room.
type Room struct {
	Number     int    `json:"number" bson:"number"`
	Type       string `json:"type" bson:"type"`
	Grade      Grade  `json:"grade" bson:"grade,omitempty"`
	IsOccupied bool   `json:"isOccupied" bson:"is_occupied"`
}

// Graded reports whether the room carries a grade.
func (r Room) Graded() bool { return r.Grade != Ungraded }

// Available reports whether the room is vacant.
func (r Room) Available() bool { return !r.IsOccupied }

// RoomSet is the live room list together with the time it was last stored.
type RoomSet struct {
	Rooms     []Room    `json:"rooms"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// legacyTypeCodes maps historical misspellings to the canonical code.
var legacyTypeCodes = map[string]string{
	"KPXL": "KXPL",
}

// NormalizeType upper-cases and trims a room type code and maps legacy
// misspellings to their canonical form.
func NormalizeType(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if fixed, ok := legacyTypeCodes[code]; ok {
		return fixed
	}
	return code
}

// NormalizeRooms returns a copy of rooms with every Type normalized.
// The second result reports whether anything changed.
func NormalizeRooms(rooms []Room) ([]Room, bool) {
	out := make([]Room, len(rooms))
	changed := false
	for i, r := range rooms {
		t := NormalizeType(r.Type)
		if t != r.Type {
			changed = true
			r.Type = t
		}
		out[i] = r
	}
	return out, changed
}

// CloneRooms returns a shallow copy of rooms (Room has no reference fields).
func CloneRooms(rooms []Room) []Room {
	if rooms == nil {
		return []Room{}
	}
	out := make([]Room, len(rooms))
	copy(out, rooms)
	return out
}

// SortRooms orders rooms by number ascending, in place.
func SortRooms(rooms []Room) {
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Number < rooms[j].Number })
}

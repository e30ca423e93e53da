// internal/app/system/roomops/roomops.go
//
// Package roomops holds the pure room-set mutations used by the desk
// controller. Each function takes the current rooms and returns a fresh
// slice; the input is never modified, so a failed persist can simply keep
// the old slice.
package roomops

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dalemusser/roomdesk/internal/app/system/apperr"
	"github.com/dalemusser/roomdesk/internal/domain/models"
)

// Bulk update fields.
const (
	FieldGrade  = "grade"
	FieldStatus = "status"
)

// Status values accepted by a status bulk update.
const (
	StatusOccupied = "occupied"
	StatusVacant   = "vacant"
)

// ApplyBulkUpdate sets field to value on every room whose number is in
// selected. Numbers that match no room are ignored. Validation happens before
// any change, so an error means nothing was applied.
func ApplyBulkUpdate(rooms []models.Room, selected []int, field, value string) ([]models.Room, error) {
	var apply func(*models.Room)

	switch field {
	case FieldGrade:
		if strings.TrimSpace(value) == "" {
			return nil, apperr.Validation("grade is required")
		}
		g, ok := models.ParseGrade(value)
		if !ok {
			return nil, apperr.Validation(fmt.Sprintf("invalid grade %q", value))
		}
		apply = func(r *models.Room) { r.Grade = g }
	case FieldStatus:
		v := strings.ToLower(strings.TrimSpace(value))
		if v != StatusOccupied && v != StatusVacant {
			return nil, apperr.Validation(fmt.Sprintf("invalid status %q", value))
		}
		occupied := v == StatusOccupied
		apply = func(r *models.Room) { r.IsOccupied = occupied }
	default:
		return nil, apperr.Validation(fmt.Sprintf("unknown field %q", field))
	}

	set := make(map[int]struct{}, len(selected))
	for _, n := range selected {
		set[n] = struct{}{}
	}

	out := models.CloneRooms(rooms)
	for i := range out {
		if _, ok := set[out[i].Number]; ok {
			apply(&out[i])
		}
	}
	return out, nil
}

// AssignRoom marks room number as occupied. The grade is left alone.
func AssignRoom(rooms []models.Room, number int) ([]models.Room, error) {
	return updateOne(rooms, number, func(r *models.Room) { r.IsOccupied = true })
}

// ToggleStatus flips the occupancy of room number.
func ToggleStatus(rooms []models.Room, number int) ([]models.Room, error) {
	return updateOne(rooms, number, func(r *models.Room) { r.IsOccupied = !r.IsOccupied })
}

func updateOne(rooms []models.Room, number int, fn func(*models.Room)) ([]models.Room, error) {
	i := indexOf(rooms, number)
	if i < 0 {
		return nil, apperr.NotFound("room", strconv.Itoa(number))
	}
	out := models.CloneRooms(rooms)
	fn(&out[i])
	return out, nil
}

// FindRoom returns the room with number.
func FindRoom(rooms []models.Room, number int) (models.Room, bool) {
	i := indexOf(rooms, number)
	if i < 0 {
		return models.Room{}, false
	}
	return rooms[i], true
}

func indexOf(rooms []models.Room, number int) int {
	for i, r := range rooms {
		if r.Number == number {
			return i
		}
	}
	return -1
}

// ReplaceAllRooms returns newRooms as the complete room set, with types
// normalized and grades reduced to their canonical labels. Duplicate room
// numbers and grades outside A, B+, B, C are rejected.
func ReplaceAllRooms(newRooms []models.Room) ([]models.Room, error) {
	seen := make(map[int]struct{}, len(newRooms))
	var dups []string
	for _, r := range newRooms {
		if _, ok := seen[r.Number]; ok {
			dups = append(dups, strconv.Itoa(r.Number))
			continue
		}
		seen[r.Number] = struct{}{}
	}
	if len(dups) > 0 {
		return nil, apperr.Validation("duplicate room numbers", dups...)
	}
	out, _ := models.NormalizeRooms(newRooms)
	var bad []string
	for i := range out {
		if out[i].Grade == models.Ungraded {
			continue
		}
		g, ok := models.ParseGrade(string(out[i].Grade))
		if !ok {
			bad = append(bad, fmt.Sprintf("room %d: invalid grade %q", out[i].Number, string(out[i].Grade)))
			continue
		}
		out[i].Grade = g
	}
	if len(bad) > 0 {
		return nil, apperr.Validation("invalid grades", bad...)
	}
	return out, nil
}

// FilterAll is the type filter value that matches every type.
const FilterAll = "all"

// FilterRooms narrows rooms for the admin table. typeFilter is a type code or
// "all"/""; query matches a substring of the room number or type,
// case-insensitively.
func FilterRooms(rooms []models.Room, typeFilter, query string) []models.Room {
	typeFilter = strings.TrimSpace(typeFilter)
	if strings.EqualFold(typeFilter, FilterAll) {
		typeFilter = ""
	}
	if typeFilter != "" {
		typeFilter = models.NormalizeType(typeFilter)
	}
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]models.Room, 0, len(rooms))
	for _, r := range rooms {
		if typeFilter != "" && models.NormalizeType(r.Type) != typeFilter {
			continue
		}
		if q != "" &&
			!strings.Contains(strconv.Itoa(r.Number), q) &&
			!strings.Contains(strings.ToLower(r.Type), q) {
			continue
		}
		out = append(out, r)
	}
	return out
}

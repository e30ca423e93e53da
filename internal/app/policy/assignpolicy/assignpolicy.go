// internal/app/policy/assignpolicy/assignpolicy.go
//
// Package assignpolicy decides which rooms an agent is offered.
//
// Agents always see the best grade that still has a vacant room of the
// requested type, and only that grade. Everything here is pure: callers pass
// a room slice and get new values back; nothing is mutated.
package assignpolicy

import (
	"github.com/dalemusser/roomdesk/internal/domain/models"
)

// inPool reports whether r is a candidate for assignment as typ.
// typ must already be normalized.
func inPool(r models.Room, typ string) bool {
	return !r.IsOccupied && r.Graded() && models.NormalizeType(r.Type) == typ
}

// SelectAssignableRooms returns every vacant, graded room of typ at the
// highest grade that has at least one match. Result order follows rooms.
// The result is empty (never nil) when nothing qualifies.
func SelectAssignableRooms(rooms []models.Room, typ string) []models.Room {
	typ = models.NormalizeType(typ)
	grade, ok := ActiveGrade(rooms, typ)
	if !ok {
		return []models.Room{}
	}
	out := make([]models.Room, 0)
	for _, r := range rooms {
		if inPool(r, typ) && r.Grade == grade {
			out = append(out, r)
		}
	}
	return out
}

// ActiveGrade returns the grade SelectAssignableRooms would surface for typ.
func ActiveGrade(rooms []models.Room, typ string) (models.Grade, bool) {
	typ = models.NormalizeType(typ)
	present := make(map[models.Grade]bool, len(models.GradeOrder))
	for _, r := range rooms {
		if inPool(r, typ) {
			present[r.Grade] = true
		}
	}
	for _, g := range models.GradeOrder {
		if present[g] {
			return g, true
		}
	}
	return models.Ungraded, false
}

// CountAssignable is the size of the waiting pool for typ: every vacant,
// graded room of that type regardless of grade.
func CountAssignable(rooms []models.Room, typ string) int {
	typ = models.NormalizeType(typ)
	n := 0
	for _, r := range rooms {
		if inPool(r, typ) {
			n++
		}
	}
	return n
}

// CategoryCount sums CountAssignable over the category's types.
// Unknown categories count zero.
func CategoryCount(rooms []models.Room, c models.Category) int {
	n := 0
	for _, typ := range models.CategoryTypes(c) {
		n += CountAssignable(rooms, typ)
	}
	return n
}

// TypeSummary is one row of an agent's category view.
type TypeSummary struct {
	Code        string       `json:"code"`
	Description string       `json:"description"`
	Available   int          `json:"available"`
	ActiveGrade models.Grade `json:"activeGrade"`
	Selectable  bool         `json:"selectable"`
}

// TypeSummaries lists each type in category c with its pool size and the
// grade currently on offer. types supplies descriptions and may be nil.
func TypeSummaries(rooms []models.Room, c models.Category, types []models.RoomType) []TypeSummary {
	codes := models.CategoryTypes(c)
	out := make([]TypeSummary, 0, len(codes))
	for _, code := range codes {
		n := CountAssignable(rooms, code)
		g, _ := ActiveGrade(rooms, code)
		out = append(out, TypeSummary{
			Code:        code,
			Description: models.DescribeType(types, code),
			Available:   n,
			ActiveGrade: g,
			Selectable:  n > 0,
		})
	}
	return out
}

// NextGrade returns the grade ranked directly below g.
func NextGrade(g models.Grade) (models.Grade, bool) {
	i := g.Rank()
	if i < 0 || i+1 >= len(models.GradeOrder) {
		return models.Ungraded, false
	}
	return models.GradeOrder[i+1], true
}

// FallbackGrade returns the grade agents will be offered for typ once the
// active grade runs out: the next lower grade with a vacant room.
func FallbackGrade(rooms []models.Room, typ string) (models.Grade, bool) {
	typ = models.NormalizeType(typ)
	g, ok := ActiveGrade(rooms, typ)
	if !ok {
		return models.Ungraded, false
	}
	for next, ok := NextGrade(g); ok; next, ok = NextGrade(next) {
		for _, r := range rooms {
			if inPool(r, typ) && r.Grade == next {
				return next, true
			}
		}
	}
	return models.Ungraded, false
}

// internal/domain/models/grade.go
package models

import (
	"encoding/json"
	"strings"
)

// Grade is a room quality tier. The empty Grade means the room has not been
// graded yet; it serializes to JSON null.
type Grade string

// Canonical grades, best first.
const (
	GradeA     Grade = "A"
	GradeBPlus Grade = "B+"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
)

// Ungraded is the zero Grade.
const Ungraded Grade = ""

// GradeOrder is the preference order used when choosing rooms to assign.
// It is the single source of truth for valid grades.
var GradeOrder = []Grade{GradeA, GradeBPlus, GradeB, GradeC}

// ParseGrade trims s and matches it against the known grades.
// Matching is case-insensitive ("b+" parses as B+).
func ParseGrade(s string) (Grade, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, g := range GradeOrder {
		if string(g) == s {
			return g, true
		}
	}
	return Ungraded, false
}

// Valid reports whether g is one of the canonical grades.
func (g Grade) Valid() bool {
	return g.Rank() >= 0
}

// Rank returns g's position in GradeOrder (0 is best), or -1.
func (g Grade) Rank() int {
	for i, o := range GradeOrder {
		if o == g {
			return i
		}
	}
	return -1
}

// String returns the grade label, or "Ungraded".
func (g Grade) String() string {
	if g == Ungraded {
		return "Ungraded"
	}
	return string(g)
}

// MarshalJSON encodes the ungraded state as null.
func (g Grade) MarshalJSON() ([]byte, error) {
	if g == Ungraded {
		return []byte("null"), nil
	}
	return json.Marshal(string(g))
}

// UnmarshalJSON accepts null or a grade string.
func (g *Grade) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*g = Ungraded
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*g = Grade(s)
	return nil
}

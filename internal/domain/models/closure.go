// internal/domain/models/closure.go
package models

import "time"

// DateKeyLayout is the layout of closure date keys (YYYY-MM-DD).
const DateKeyLayout = "2006-01-02"

// ClosureRecord is the end-of-day snapshot of every room. There is at most
// one record per calendar day; closing the same day again replaces it.
type ClosureRecord struct {
	Date      string    `json:"date" bson:"_id"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Rooms     []Room    `json:"rooms" bson:"rooms"`
}

// ClosureSummary is a per-record rollup shown in history listings.
type ClosureSummary struct {
	Date      string         `json:"date"`
	Total     int            `json:"total"`
	Occupied  int            `json:"occupied"`
	Available int            `json:"available"`
	Ungraded  int            `json:"ungraded"`
	ByGrade   map[string]int `json:"byGrade"`
}

// Summary counts occupancy and grades across the snapshot.
func (c ClosureRecord) Summary() ClosureSummary {
	s := ClosureSummary{
		Date:    c.Date,
		Total:   len(c.Rooms),
		ByGrade: make(map[string]int, len(GradeOrder)),
	}
	for _, g := range GradeOrder {
		s.ByGrade[string(g)] = 0
	}
	for _, r := range c.Rooms {
		if r.IsOccupied {
			s.Occupied++
		} else {
			s.Available++
		}
		if r.Graded() {
			s.ByGrade[string(r.Grade)]++
		} else {
			s.Ungraded++
		}
	}
	return s
}

// DateKey formats t as a closure date key in loc. A nil loc means UTC.
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateKeyLayout)
}

// ParseDateKey validates a YYYY-MM-DD key.
func ParseDateKey(s string) (time.Time, error) {
	return time.Parse(DateKeyLayout, s)
}

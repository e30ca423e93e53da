package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dalemusser/roomdesk/internal/domain/models"
)

func TestParseGrade(t *testing.T) {
	tests := []struct {
		in     string
		want   models.Grade
		wantOK bool
	}{
		{"A", models.GradeA, true},
		{" b+ ", models.GradeBPlus, true},
		{"B", models.GradeB, true},
		{"c", models.GradeC, true},
		{"D", models.Ungraded, false},
		{"", models.Ungraded, false},
	}
	for _, tt := range tests {
		got, ok := models.ParseGrade(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseGrade(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestGradeRankFollowsOrder(t *testing.T) {
	for i, g := range models.GradeOrder {
		if g.Rank() != i {
			t.Errorf("%s.Rank() = %d, want %d", g, g.Rank(), i)
		}
	}
	if models.Ungraded.Valid() {
		t.Error("Ungraded should not be valid")
	}
}

func TestRoomJSON_UngradedIsNull(t *testing.T) {
	b, err := json.Marshal(models.Room{Number: 101, Type: "KXTY"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"number":101,"type":"KXTY","grade":null,"isOccupied":false}`
	if string(b) != want {
		t.Errorf("got %s, want %s", b, want)
	}

	var r models.Room
	if err := json.Unmarshal([]byte(`{"number":5,"type":"SXQL","grade":"B+","isOccupied":true}`), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.Grade != models.GradeBPlus || !r.IsOccupied {
		t.Errorf("unexpected room: %+v", r)
	}
}

func TestNormalizeType(t *testing.T) {
	cases := map[string]string{
		"KPXL":   "KXPL",
		" kxty ": "KXTY",
		"KXPL":   "KXPL",
		"custom": "CUSTOM",
	}
	for in, want := range cases {
		if got := models.NormalizeType(in); got != want {
			t.Errorf("NormalizeType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeRooms_ReportsChange(t *testing.T) {
	in := []models.Room{{Number: 1, Type: "KPXL"}, {Number: 2, Type: "SXQL"}}
	out, changed := models.NormalizeRooms(in)
	if !changed {
		t.Error("expected changed=true")
	}
	if out[0].Type != "KXPL" {
		t.Errorf("type: got %q, want %q", out[0].Type, "KXPL")
	}
	if in[0].Type != "KPXL" {
		t.Error("input slice must not be modified")
	}

	_, changed = models.NormalizeRooms(out)
	if changed {
		t.Error("already-normalized rooms should report no change")
	}
}

func TestCategoryOf(t *testing.T) {
	if got := models.CategoryOf("KPXL"); got != models.CategoryKing {
		t.Errorf("CategoryOf(KPXL) = %q, want king", got)
	}
	if got := models.CategoryOf("NQRUD"); got != models.CategoryQueen {
		t.Errorf("CategoryOf(NQRUD) = %q, want queen", got)
	}
	if got := models.CategoryOf("ZZZZ"); got != "" {
		t.Errorf("CategoryOf(ZZZZ) = %q, want empty", got)
	}
}

func TestDefaultRoomTypes(t *testing.T) {
	types := models.DefaultRoomTypes()
	if len(types) != 8 {
		t.Fatalf("expected 8 default types, got %d", len(types))
	}
	types[0].Code = "MUTATED"
	if models.DefaultRoomTypes()[0].Code != "KXTY" {
		t.Error("DefaultRoomTypes must return a copy")
	}
	if d := models.DescribeType(nil, "SXQL"); d != "2 Queen beds, non-smoking room" {
		t.Errorf("DescribeType(SXQL) = %q", d)
	}
	if d := models.DescribeType(nil, "ABC"); d != "ABC" {
		t.Errorf("DescribeType(ABC) = %q, want code fallback", d)
	}
}

func TestClosureSummary(t *testing.T) {
	rec := models.ClosureRecord{
		Date: "2026-10-16",
		Rooms: []models.Room{
			{Number: 1, Type: "KXTY", Grade: models.GradeA},
			{Number: 2, Type: "KXTY", Grade: models.GradeA, IsOccupied: true},
			{Number: 3, Type: "SXQL"},
		},
	}
	s := rec.Summary()
	if s.Total != 3 || s.Occupied != 1 || s.Available != 2 || s.Ungraded != 1 {
		t.Errorf("unexpected summary: %+v", s)
	}
	if s.ByGrade["A"] != 2 || s.ByGrade["C"] != 0 {
		t.Errorf("unexpected grade counts: %v", s.ByGrade)
	}
}

func TestDateKey_UsesLocation(t *testing.T) {
	ts := time.Date(2026, 10, 17, 2, 0, 0, 0, time.UTC)
	if got := models.DateKey(ts, nil); got != "2026-10-17" {
		t.Errorf("UTC key = %q", got)
	}
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	if got := models.DateKey(ts, ny); got != "2026-10-16" {
		t.Errorf("New York key = %q, want 2026-10-16", got)
	}
}

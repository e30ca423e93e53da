// internal/app/system/csvutil/rooms.go
package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dalemusser/roomdesk/internal/domain/models"
)

// RowError describes one rejected line of an upload.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// ParseResult holds the outcome of ParseRoomCSV. When any line is rejected,
// Rooms is empty: an upload replaces every room, so it is all or nothing.
type ParseResult struct {
	Rooms  []models.Room
	Errors []RowError
}

// HasErrors reports whether any line was rejected.
func (p *ParseResult) HasErrors() bool { return len(p.Errors) > 0 }

// Messages returns each row error formatted as "line N: reason".
func (p *ParseResult) Messages() []string {
	out := make([]string, len(p.Errors))
	for i, e := range p.Errors {
		out[i] = e.Error()
	}
	return out
}

// ParseOptions controls ParseRoomCSV.
type ParseOptions struct {
	// KnownTypes are the type codes an upload may use.
	KnownTypes []string
	// MaxRows caps the number of data lines; 0 means no cap.
	MaxRows int
}

// DefaultParseOptions accepts the built-in room types.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		KnownTypes: models.TypeCodes(models.DefaultRoomTypes()),
		MaxRows:    MaxRows,
	}
}

// ErrTooManyRows is returned when an upload exceeds ParseOptions.MaxRows.
var ErrTooManyRows = errors.New("csvutil: too many rows")

// ParseRoomCSV reads number,type[,grade] lines. Blank lines and an optional
// room_number,room_type,grade header are skipped. Types are normalized
// (upper case, KPXL becomes KXPL) and must be in opts.KnownTypes. Every
// produced room is vacant; a missing grade leaves the room ungraded.
//
// Row problems are reported in the result, not as an error; err is set only
// when the input cannot be read.
func ParseRoomCSV(r io.Reader, opts ParseOptions) (*ParseResult, error) {
	known := make(map[string]bool, len(opts.KnownTypes))
	for _, t := range opts.KnownTypes {
		known[models.NormalizeType(t)] = true
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	res := &ParseResult{}
	var rooms []models.Room
	firstLine := make(map[int]int)
	first := true
	data := 0

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)

		if first && len(rec) > 0 {
			rec[0] = strings.TrimPrefix(rec[0], "\ufeff")
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if blank(rec) {
			continue
		}
		if first {
			first = false
			if isHeader(rec) {
				continue
			}
		}

		data++
		if opts.MaxRows > 0 && data > opts.MaxRows {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRows, opts.MaxRows)
		}

		room, reason := parseRow(rec, known)
		if reason != "" {
			res.Errors = append(res.Errors, RowError{Line: line, Reason: reason})
			continue
		}
		if prev, dup := firstLine[room.Number]; dup {
			res.Errors = append(res.Errors, RowError{
				Line:   line,
				Reason: fmt.Sprintf("duplicate room number %d (first on line %d)", room.Number, prev),
			})
			continue
		}
		firstLine[room.Number] = line
		rooms = append(rooms, room)
	}

	if res.HasErrors() {
		res.Rooms = []models.Room{}
		return res, nil
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	res.Rooms = rooms
	return res, nil
}

func parseRow(rec []string, known map[string]bool) (models.Room, string) {
	if len(rec) < 2 || rec[0] == "" || rec[1] == "" {
		return models.Room{}, "missing number or type"
	}
	if len(rec) > 3 && !blank(rec[3:]) {
		return models.Room{}, "expected at most 3 fields"
	}

	n, err := strconv.Atoi(rec[0])
	if err != nil {
		return models.Room{}, fmt.Sprintf("invalid room number %q", rec[0])
	}

	typ := models.NormalizeType(rec[1])
	if !known[typ] {
		return models.Room{}, fmt.Sprintf("invalid room type %q", typ)
	}

	room := models.Room{Number: n, Type: typ}
	if len(rec) > 2 && rec[2] != "" {
		g, ok := models.ParseGrade(rec[2])
		if !ok {
			return models.Room{}, fmt.Sprintf("invalid grade %q", rec[2])
		}
		room.Grade = g
	}
	return room, ""
}

func isHeader(rec []string) bool {
	h := strings.ToLower(rec[0])
	return h == "room_number" || h == "room number"
}

func blank(rec []string) bool {
	for _, f := range rec {
		if f != "" {
			return false
		}
	}
	return true
}

// internal/app/system/csvutil/export.go
package csvutil

import (
	"io"
	"strconv"
	"strings"

	"github.com/dalemusser/roomdesk/internal/domain/models"
)

// ExportHeader is the first line of a room status export.
const ExportHeader = "Room Number,Type,Grade,Status"

// ImportTemplate is served to admins as a starting point for uploads.
const ImportTemplate = "room_number,room_type,grade\n101,KXTY,A\n102,KXPL,B+\n103,SXQL,B"

// ExportFilename names a status export for the given date key.
func ExportFilename(date string) string {
	return "room-status-" + date + ".csv"
}

// ExportRow renders the export columns for one room.
func ExportRow(r models.Room) []string {
	status := "Available"
	if r.IsOccupied {
		status = "Occupied"
	}
	return []string{strconv.Itoa(r.Number), r.Type, r.Grade.String(), status}
}

// FormatRooms renders rooms in the export layout: the header, a newline, then
// one line per room joined by newlines with no trailing newline.
func FormatRooms(rooms []models.Room) string {
	lines := make([]string, len(rooms))
	for i, r := range rooms {
		lines[i] = strings.Join(ExportRow(r), ",")
	}
	return ExportHeader + "\n" + strings.Join(lines, "\n")
}

// WriteRooms writes FormatRooms(rooms) to w.
func WriteRooms(w io.Writer, rooms []models.Room) error {
	_, err := io.WriteString(w, FormatRooms(rooms))
	return err
}

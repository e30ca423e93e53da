package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/roomdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SampleRooms returns a small mixed room set:
//
//	101 KXTY A vacant, 102 KXTY B vacant, 103 KXTY A occupied,
//	104 KPXL (legacy) B+ vacant, 201 SXQL ungraded vacant, 202 SXQL C vacant
func SampleRooms() []models.Room {
	return []models.Room{
		{Number: 101, Type: "KXTY", Grade: models.GradeA},
		{Number: 102, Type: "KXTY", Grade: models.GradeB},
		{Number: 103, Type: "KXTY", Grade: models.GradeA, IsOccupied: true},
		{Number: 104, Type: "KPXL", Grade: models.GradeBPlus},
		{Number: 201, Type: "SXQL"},
		{Number: 202, Type: "SXQL", Grade: models.GradeC},
	}
}

// Fixtures seeds a Mongo test database directly, bypassing the stores.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a Fixtures for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// SeedCurrentRooms writes rooms as the "current" record without any
// normalization, so tests can plant legacy data.
func (f *Fixtures) SeedCurrentRooms(ctx context.Context, rooms []models.Room) {
	f.t.Helper()
	doc := map[string]any{
		"_id":        "current",
		"rooms":      rooms,
		"updated_at": time.Now().UTC(),
	}
	_, err := f.db.Collection("hotel_rooms").ReplaceOne(ctx,
		map[string]any{"_id": "current"}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		f.t.Fatalf("failed to seed rooms: %v", err)
	}
}

// SeedClosure writes a closure record for date.
func (f *Fixtures) SeedClosure(ctx context.Context, date string, rooms []models.Room) models.ClosureRecord {
	f.t.Helper()
	rec := models.ClosureRecord{Date: date, Timestamp: time.Now().UTC(), Rooms: rooms}
	_, err := f.db.Collection("hotel_daily_closures").ReplaceOne(ctx,
		map[string]any{"_id": date}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		f.t.Fatalf("failed to seed closure: %v", err)
	}
	return rec
}

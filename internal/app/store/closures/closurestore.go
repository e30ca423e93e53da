// internal/app/store/closures/closurestore.go
package closurestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/roomdesk/internal/app/store/storeerr"
	"github.com/dalemusser/roomdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to hotel_daily_closures. Records are keyed by their
// YYYY-MM-DD date, so lexical order on _id is date order.
type Store struct {
	c *mongo.Collection
}

// New creates a closure store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("hotel_daily_closures")}
}

// Upsert writes rec, replacing any record for the same date.
func (s *Store) Upsert(ctx context.Context, rec models.ClosureRecord) error {
	rec.Rooms = models.CloneRooms(rec.Rooms)
	rec.Timestamp = rec.Timestamp.UTC().Truncate(time.Millisecond)
	opts := options.Replace().SetUpsert(true)
	_, err := s.c.ReplaceOne(ctx, bson.M{"_id": rec.Date}, rec, opts)
	return err
}

// FindByDate returns the record for date or storeerr.ErrNotFound.
func (s *Store) FindByDate(ctx context.Context, date string) (models.ClosureRecord, error) {
	var rec models.ClosureRecord
	err := s.c.FindOne(ctx, bson.M{"_id": date}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ClosureRecord{}, storeerr.ErrNotFound
	}
	if err != nil {
		return models.ClosureRecord{}, err
	}
	rec.Timestamp = rec.Timestamp.UTC()
	rec.Rooms = models.CloneRooms(rec.Rooms)
	return rec, nil
}

// ListByDateRange returns records with start <= date <= end, newest first.
func (s *Store) ListByDateRange(ctx context.Context, start, end string) ([]models.ClosureRecord, error) {
	filter := bson.M{"_id": bson.M{"$gte": start, "$lte": end}}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.ClosureRecord{}
	for cur.Next(ctx) {
		var rec models.ClosureRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, err
		}
		rec.Timestamp = rec.Timestamp.UTC()
		rec.Rooms = models.CloneRooms(rec.Rooms)
		out = append(out, rec)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

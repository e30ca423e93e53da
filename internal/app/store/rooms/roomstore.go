// internal/app/store/rooms/roomstore.go
package roomstore

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

// CurrentID is the _id of the single live record in each collection.
const CurrentID = "current"

type roomsDoc struct {
	ID        string        `bson:"_id"`
	Rooms     []models.Room `bson:"rooms"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

type typesDoc struct {
	ID        string            `bson:"_id"`
	Types     []models.RoomType `bson:"types"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

// Store keeps the live room set and the room-type catalog as one document
// each, both with _id "current".
type Store struct {
	rooms *mongo.Collection
	types *mongo.Collection
}

// New creates a room store over hotel_rooms and room_types.
func New(db *mongo.Database) *Store {
	return &Store{
		rooms: db.Collection("hotel_rooms"),
		types: db.Collection("room_types"),
	}
}

// Load returns the current room set, or storeerr.ErrNotFound if none has
// been saved.
func (s *Store) Load(ctx context.Context) (models.RoomSet, error) {
	var doc roomsDoc
	err := s.rooms.FindOne(ctx, bson.M{"_id": CurrentID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.RoomSet{}, storeerr.ErrNotFound
	}
	if err != nil {
		return models.RoomSet{}, err
	}
	return models.RoomSet{
		Rooms:     models.CloneRooms(doc.Rooms),
		UpdatedAt: doc.UpdatedAt.UTC(),
	}, nil
}

// Save replaces the current room set and returns the stored timestamp.
func (s *Store) Save(ctx context.Context, rooms []models.Room) (time.Time, error) {
	// Mongo stores milliseconds; truncate so Load returns the same instant.
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := roomsDoc{
		ID:        CurrentID,
		Rooms:     models.CloneRooms(rooms),
		UpdatedAt: now,
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.rooms.ReplaceOne(ctx, bson.M{"_id": CurrentID}, doc, opts); err != nil {
		return time.Time{}, err
	}
	return now, nil
}

// LoadTypes returns the stored catalog, or the built-in defaults when none
// has been saved.
func (s *Store) LoadTypes(ctx context.Context) ([]models.RoomType, error) {
	var doc typesDoc
	err := s.types.FindOne(ctx, bson.M{"_id": CurrentID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DefaultRoomTypes(), nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]models.RoomType, 0, len(doc.Types))
	for _, t := range doc.Types {
		out = append(out, models.NewRoomType(t.Code, t.Description))
	}
	return out, nil
}

// SaveTypes replaces the catalog.
func (s *Store) SaveTypes(ctx context.Context, types []models.RoomType) error {
	doc := typesDoc{
		ID:        CurrentID,
		Types:     types,
		UpdatedAt: time.Now().UTC(),
	}
	if doc.Types == nil {
		doc.Types = []models.RoomType{}
	}
	opts := options.Replace().SetUpsert(true)
	_, err := s.types.ReplaceOne(ctx, bson.M{"_id": CurrentID}, doc, opts)
	return err
}

// Version returns the updated_at of the current record without loading the
// rooms, or storeerr.ErrNotFound.
func (s *Store) Version(ctx context.Context) (time.Time, error) {
	var doc struct {
		UpdatedAt time.Time `bson:"updated_at"`
	}
	opts := options.FindOne().SetProjection(bson.M{"updated_at": 1})
	err := s.rooms.FindOne(ctx, bson.M{"_id": CurrentID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return time.Time{}, storeerr.ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return doc.UpdatedAt.UTC(), nil
}

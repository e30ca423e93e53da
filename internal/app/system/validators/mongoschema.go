// internal/app/system/validators/mongoschema.go
package validators

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Collection names used by the Mongo backend.
const (
	RoomsCollection     = "hotel_rooms"
	RoomTypesCollection = "room_types"
	ClosuresCollection  = "hotel_daily_closures"
	AuditCollection     = "audit_events"
)

// EnsureAll creates the room collections (if missing) and attaches
// JSON-Schema validators. Deployments that reject collMod (some DocumentDB
// versions) are logged and skipped.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if err := ensureCollection(ctx, db, coll, logger); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isUnsupported(err) {
				logger.Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
			return
		}
		logger.Info("validator ensured", zap.String("collection", coll))
	}

	ensure(RoomsCollection, roomsSchema())
	ensure(RoomTypesCollection, roomTypesSchema())
	ensure(ClosuresCollection, closuresSchema())
	ensure(AuditCollection, nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, logger *zap.Logger) error {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err == nil && len(names) > 0 {
		return nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExists(err) {
			return nil
		}
		return err
	}
	logger.Info("created collection", zap.String("collection", name))
	return nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	return db.RunCommand(ctx, cmd).Err()
}

func isNamespaceExists(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 48 {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

// isUnsupported matches "no such command" (59) and "not implemented" (115).
func isUnsupported(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || ce.Code == 115) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "no such command") ||
		strings.Contains(s, "not implemented") ||
		strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func roomSchema() bson.M {
	return bson.M{
		"bsonType": "object",
		"required": bson.A{"number", "type", "is_occupied"},
		"properties": bson.M{
			"number":      bson.M{"bsonType": bson.A{"int", "long"}},
			"type":        bson.M{"bsonType": "string", "minLength": 1, "pattern": "^[A-Z0-9]+$"},
			"grade":       bson.M{"enum": bson.A{"A", "B+", "B", "C", nil}},
			"is_occupied": bson.M{"bsonType": "bool"},
		},
	}
}

func roomsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"rooms", "updated_at"},
			"properties": bson.M{
				"rooms":      bson.M{"bsonType": "array", "items": roomSchema()},
				"updated_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func roomTypesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"types"},
			"properties": bson.M{
				"types": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"code"},
						"properties": bson.M{
							"code":        bson.M{"bsonType": "string", "minLength": 1},
							"description": bson.M{"bsonType": "string"},
						},
					},
				},
			},
		},
	}
}

func closuresSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"_id", "timestamp", "rooms"},
			"properties": bson.M{
				"_id":       bson.M{"bsonType": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
				"timestamp": bson.M{"bsonType": "date"},
				"rooms":     bson.M{"bsonType": "array", "items": roomSchema()},
			},
		},
	}
}

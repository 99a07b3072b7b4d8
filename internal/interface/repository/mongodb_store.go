package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"itinerary-service/internal/domain/entity"
	"itinerary-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoStore implements the DocumentStore interface on a MongoDB database.
// Documents are keyed by _id; the bearer token is not used.
type MongoStore struct {
	db *mongo.Database
}

// NewMongoStore creates a new MongoDB document store
func NewMongoStore(db *mongo.Database) repository.DocumentStore {
	return &MongoStore{
		db: db,
	}
}

// Create inserts a document, ErrDocumentExists on duplicate _id
func (r *MongoStore) Create(ctx context.Context, _ string, collection, id string, fields map[string]any) error {
	doc := bson.M{"_id": id}
	for k, v := range fields {
		doc[k] = v
	}

	_, err := r.db.Collection(collection).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s/%s", repository.ErrDocumentExists, collection, id)
	}
	if err != nil {
		return mongoDependencyError("mongo.create", err)
	}
	return nil
}

// Update sets the given fields on an existing document
func (r *MongoStore) Update(ctx context.Context, _ string, collection, id string, fields map[string]any) error {
	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}

	result, err := r.db.Collection(collection).UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
	)
	if err != nil {
		return mongoDependencyError("mongo.update", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s/%s", repository.ErrDocumentNotFound, collection, id)
	}

	return nil
}

// Get finds a document by id
func (r *MongoStore) Get(ctx context.Context, _ string, collection, id string) (map[string]any, error) {
	var doc bson.M
	err := r.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, mongoDependencyError("mongo.get", err)
	}

	delete(doc, "_id")
	return fromBSON(doc), nil
}

func mongoDependencyError(op string, err error) error {
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return &entity.DependencyError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// fromBSON maps driver types back to the plain document value set
func fromBSON(m bson.M) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = fromBSONValue(v)
	}
	return out
}

func fromBSONValue(v any) any {
	switch x := v.(type) {
	case bson.M:
		return fromBSON(x)
	case bson.D:
		return fromBSON(x.Map())
	case bson.A:
		out := make([]any, 0, len(x))
		for _, item := range x {
			out = append(out, fromBSONValue(item))
		}
		return out
	case primitive.DateTime:
		return x.Time().UTC()
	case time.Time:
		return x.UTC()
	case int32:
		return int64(x)
	case int:
		return int64(x)
	default:
		return v
	}
}

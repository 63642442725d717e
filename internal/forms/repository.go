package forms

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fieldverify/verification-portal-backend/internal/apperrors"
)

// Store persists the verification documents of a task.
type Store interface {
	CreateDefaults(ctx context.Context, taskID primitive.ObjectID, applicantName, verificationType string) error
	Fetch(ctx context.Context, taskID primitive.ObjectID, kind Kind) (map[string]interface{}, error)
	Update(ctx context.Context, taskID primitive.ObjectID, kind Kind, payload map[string]interface{}) error
	DeleteAll(ctx context.Context, taskID primitive.ObjectID) error
}

// MongoStore keeps one collection per form kind.
type MongoStore struct {
	db *mongo.Database
}

func NewStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

// EnsureIndexes creates the unique task_id index on every form collection.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	for kind, def := range registry {
		_, err := s.db.Collection(def.collection).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "task_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return fmt.Errorf("create %s index: %w", kind, err)
		}
	}
	return nil
}

// CreateDefaults inserts the default document for every kind the task's
// verification type calls for.
func (s *MongoStore) CreateDefaults(ctx context.Context, taskID primitive.ObjectID, applicantName, verificationType string) error {
	for _, kind := range KindsFor(verificationType) {
		def := registry[kind]
		if _, err := s.db.Collection(def.collection).InsertOne(ctx, def.defaults(taskID, applicantName)); err != nil {
			return fmt.Errorf("create %s form: %w", kind, err)
		}
	}
	return nil
}

// Fetch returns the raw document for one kind with the internal identifiers
// stripped.
func (s *MongoStore) Fetch(ctx context.Context, taskID primitive.ObjectID, kind Kind) (map[string]interface{}, error) {
	def := registry[kind]
	var doc bson.M
	err := s.db.Collection(def.collection).FindOne(ctx, bson.M{"task_id": taskID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s form for task %s: %w", kind, taskID.Hex(), apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s form: %w", kind, err)
	}
	delete(doc, "_id")
	delete(doc, "task_id")
	return doc, nil
}

// Update applies a top-level $set of the payload keys. Sub-documents present
// in the payload replace the stored sub-document wholesale.
func (s *MongoStore) Update(ctx context.Context, taskID primitive.ObjectID, kind Kind, payload map[string]interface{}) error {
	def := registry[kind]
	res, err := s.db.Collection(def.collection).UpdateOne(ctx,
		bson.M{"task_id": taskID},
		bson.M{"$set": bson.M(payload)},
	)
	if err != nil {
		return fmt.Errorf("update %s form: %w", kind, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s form for task %s: %w", kind, taskID.Hex(), apperrors.ErrNotFound)
	}
	return nil
}

// DeleteAll removes every form document of the task, across all kinds.
func (s *MongoStore) DeleteAll(ctx context.Context, taskID primitive.ObjectID) error {
	for kind, def := range registry {
		if _, err := s.db.Collection(def.collection).DeleteMany(ctx, bson.M{"task_id": taskID}); err != nil {
			return fmt.Errorf("delete %s form: %w", kind, err)
		}
	}
	return nil
}

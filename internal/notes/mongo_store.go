package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore is a Store backed by a MongoDB collection.
type MongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore constructs a MongoStore over the notes collection of database.
func NewMongoStore(database *mongo.Database) (*MongoStore, error) {
	if database == nil {
		return nil, fmt.Errorf("notes: mongo database required")
	}
	return &MongoStore{collection: database.Collection(CollectionName)}, nil
}

func ownedFilter(ownerID UserID, noteID NoteID) bson.M {
	return bson.M{"_id": noteID.String(), "owner_id": ownerID.String()}
}

func (s *MongoStore) Insert(ctx context.Context, note Note) error {
	_, err := s.collection.InsertOne(ctx, note)
	return err
}

func (s *MongoStore) ListByOwner(ctx context.Context, ownerID UserID) ([]Note, error) {
	cursor, err := s.collection.Find(ctx,
		bson.M{"owner_id": ownerID.String()},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	notes := make([]Note, 0)
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (s *MongoStore) FindOwned(ctx context.Context, ownerID UserID, noteID NoteID) (Note, error) {
	var note Note
	err := s.collection.FindOne(ctx, ownedFilter(ownerID, noteID)).Decode(&note)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Note{}, ErrNoteNotFound
	}
	if err != nil {
		return Note{}, err
	}
	return note, nil
}

func (s *MongoStore) UpdateOwned(ctx context.Context, ownerID UserID, noteID NoteID, content Content, updatedAt time.Time) (Note, error) {
	update := bson.M{"$set": bson.M{
		"title":       content.Title,
		"description": content.Description,
		"updated_at":  updatedAt,
	}}
	var note Note
	err := s.collection.FindOneAndUpdate(ctx,
		ownedFilter(ownerID, noteID),
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&note)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Note{}, ErrNoteNotFound
	}
	if err != nil {
		return Note{}, err
	}
	return note, nil
}

func (s *MongoStore) DeleteOwned(ctx context.Context, ownerID UserID, noteID NoteID) error {
	result, err := s.collection.DeleteOne(ctx, ownedFilter(ownerID, noteID))
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNoteNotFound
	}
	return nil
}

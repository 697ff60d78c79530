package users

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoStore is a Store backed by a MongoDB collection.
type MongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore constructs a MongoStore over the users collection of database.
func NewMongoStore(database *mongo.Database) (*MongoStore, error) {
	if database == nil {
		return nil, fmt.Errorf("users: mongo database required")
	}
	return &MongoStore{collection: database.Collection(CollectionName)}, nil
}

func (s *MongoStore) Create(ctx context.Context, user User) error {
	_, err := s.collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoStore) FindByID(ctx context.Context, userID string) (User, error) {
	return s.findOne(ctx, bson.M{"_id": userID})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (User, error) {
	var user User
	err := s.collection.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

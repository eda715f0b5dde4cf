package docstore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/ninetyone/TodoApp/internal/model"
	"github.com/ninetyone/TodoApp/internal/store"
)

// CreateUser inserts a new user document.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	doc := *user
	if doc.Tokens == nil {
		// $push and $pull need an array, not null.
		doc.Tokens = []model.Token{}
	}

	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.findUser(ctx, bson.D{{Key: "_id", Value: id}})
}

// GetUserByEmail retrieves a user by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, bson.D{{Key: "email", Value: email}})
}

// GetUserByToken retrieves a user only while its token list holds entry.
func (s *Store) GetUserByToken(ctx context.Context, userID string, entry model.Token) (*model.User, error) {
	return s.findUser(ctx, bson.D{
		{Key: "_id", Value: userID},
		{Key: "tokens", Value: bson.D{{Key: "$elemMatch", Value: bson.D{
			{Key: "access", Value: entry.Access},
			{Key: "token", Value: entry.Token},
		}}}},
	})
}

// AppendToken pushes entry onto the user's token list.
func (s *Store) AppendToken(ctx context.Context, userID string, entry model.Token) error {
	res, err := s.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: userID}},
		bson.D{{Key: "$push", Value: bson.D{{Key: "tokens", Value: entry}}}},
	)
	if err != nil {
		return fmt.Errorf("failed to append token: %w", err)
	}

	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}

	return nil
}

// RemoveToken pulls every entry carrying token from the user's list.
func (s *Store) RemoveToken(ctx context.Context, userID, token string) error {
	_, err := s.users.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: userID}},
		bson.D{{Key: "$pull", Value: bson.D{{Key: "tokens", Value: bson.D{{Key: "token", Value: token}}}}}},
	)
	if err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}

	return nil
}

// DeleteUser removes the user document, then its todos.
// The user goes first so its tokens stop working before anything else.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.users.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}

	if _, err := s.todos.DeleteMany(ctx, bson.D{{Key: "creatorId", Value: id}}); err != nil {
		return fmt.Errorf("failed to delete todos of user: %w", err)
	}

	return nil
}

func (s *Store) findUser(ctx context.Context, filter bson.D) (*model.User, error) {
	var user model.User
	if err := s.users.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

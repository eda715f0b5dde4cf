// Package docstore provides the MongoDB store.
//
// Users are documents with their tokens embedded, so token appends and
// removals are single-document updates and therefore atomic.
package docstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/ninetyone/TodoApp/internal/store"
)

// Collection names.
const (
	usersCollection = "users"
	todosCollection = "todos"
)

// Store is a store.Store backed by a MongoDB database.
type Store struct {
	client *mongo.Client
	users  *mongo.Collection
	todos  *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// New connects to uri, selects database and ensures the indexes exist.
func New(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client: client,
		users:  db.Collection(usersCollection),
		todos:  db.Collection(todosCollection),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create users email index: %w", err)
	}

	_, err = s.todos.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "creatorId", Value: 1},
			{Key: "createdAt", Value: 1},
			{Key: "_id", Value: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create todos creator index: %w", err)
	}

	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// Drop removes both collections. Intended for tests.
func (s *Store) Drop(ctx context.Context) error {
	if err := s.users.Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop users: %w", err)
	}
	if err := s.todos.Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop todos: %w", err)
	}
	return s.ensureIndexes(ctx)
}

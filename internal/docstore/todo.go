package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ninetyone/TodoApp/internal/model"
	"github.com/ninetyone/TodoApp/internal/store"
)

// CreateTodo inserts a new todo document for an existing creator.
//
// There is no foreign key, so the creator is checked before and after the
// insert. DeleteUser removes the user before its todos: if the creator is
// still present after the insert, its todo sweep has not run yet and will
// catch this document. Otherwise the insert is undone here.
func (s *Store) CreateTodo(ctx context.Context, todo *model.Todo) error {
	ok, err := s.userExists(ctx, todo.CreatorID)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound
	}

	if _, err := s.todos.InsertOne(ctx, todo); err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}

	ok, err = s.userExists(ctx, todo.CreatorID)
	if err == nil && ok {
		return nil
	}

	if _, delErr := s.todos.DeleteOne(ctx, bson.D{{Key: "_id", Value: todo.ID}}); delErr != nil {
		return errors.Join(fmt.Errorf("failed to undo todo insert: %w", delErr), err)
	}
	if err != nil {
		return err
	}
	return store.ErrNotFound
}

func (s *Store) userExists(ctx context.Context, id string) (bool, error) {
	n, err := s.users.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check todo creator: %w", err)
	}
	return n > 0, nil
}

// ListTodos returns all todos created by creatorID, oldest first.
func (s *Store) ListTodos(ctx context.Context, creatorID string) ([]*model.Todo, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "createdAt", Value: 1},
		{Key: "_id", Value: 1},
	})

	cur, err := s.todos.Find(ctx, bson.D{{Key: "creatorId", Value: creatorID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}

	todos := make([]*model.Todo, 0)
	if err := cur.All(ctx, &todos); err != nil {
		return nil, fmt.Errorf("error iterating todos: %w", err)
	}

	return todos, nil
}

// GetTodo retrieves a todo owned by creatorID.
func (s *Store) GetTodo(ctx context.Context, id, creatorID string) (*model.Todo, error) {
	return decodeTodo(s.todos.FindOne(ctx, ownedBy(id, creatorID)))
}

// UpdateTodo applies patch with one FindOneAndUpdate scoped by owner.
// The update is a pipeline so completedAt can be derived from the stored
// document in the same write.
func (s *Store) UpdateTodo(ctx context.Context, id, creatorID string, patch model.TodoPatch, now time.Time) (*model.Todo, error) {
	set := todoPatchStage(patch, now)
	if len(set) == 0 {
		return s.GetTodo(ctx, id, creatorID)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	pipeline := mongo.Pipeline{{{Key: "$set", Value: set}}}

	return decodeTodo(s.todos.FindOneAndUpdate(ctx, ownedBy(id, creatorID), pipeline, opts))
}

// DeleteTodo removes a todo owned by creatorID and returns it.
func (s *Store) DeleteTodo(ctx context.Context, id, creatorID string) (*model.Todo, error) {
	return decodeTodo(s.todos.FindOneAndDelete(ctx, ownedBy(id, creatorID)))
}

// todoPatchStage builds the $set stage for patch. Expressions inside one
// stage read the document as it was before the stage.
func todoPatchStage(patch model.TodoPatch, now time.Time) bson.D {
	var set bson.D

	if patch.Text != nil {
		// $literal keeps text such as "$x" from being read as a field path.
		set = append(set, bson.E{Key: "text", Value: bson.D{{Key: "$literal", Value: *patch.Text}}})
	}

	if patch.Completed != nil {
		set = append(set, bson.E{Key: "completed", Value: *patch.Completed})
		if *patch.Completed {
			set = append(set, bson.E{Key: "completedAt", Value: bson.D{{Key: "$cond", Value: bson.D{
				{Key: "if", Value: bson.D{{Key: "$eq", Value: bson.A{"$completed", true}}}},
				{Key: "then", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$completedAt", now}}}},
				{Key: "else", Value: now},
			}}}})
		} else {
			set = append(set, bson.E{Key: "completedAt", Value: nil})
		}
	}

	return set
}

func ownedBy(id, creatorID string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "creatorId", Value: creatorID},
	}
}

type singleResult interface {
	Decode(v any) error
}

func decodeTodo(res singleResult) (*model.Todo, error) {
	var todo model.Todo
	if err := res.Decode(&todo); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	return &todo, nil
}

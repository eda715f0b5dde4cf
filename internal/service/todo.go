package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ninetyone/TodoApp/internal/metrics"
	"github.com/ninetyone/TodoApp/internal/model"
	"github.com/ninetyone/TodoApp/internal/store"
)

// TodoService handles todo business logic. Every operation is scoped to the
// creator passed in, which callers take from the authenticated identity.
type TodoService struct {
	todos   store.TodoStore
	metrics metrics.Recorder
	now     func() time.Time
}

// NewTodoService creates a new TodoService.
func NewTodoService(todos store.TodoStore, recorder metrics.Recorder) *TodoService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &TodoService{
		todos:   todos,
		metrics: recorder,
		now:     time.Now,
	}
}

// Create adds an open todo for creatorID.
func (s *TodoService) Create(ctx context.Context, creatorID, text string) (*model.Todo, error) {
	text, err := normalizeTodoText(text)
	if err != nil {
		return nil, err
	}

	todo := &model.Todo{
		ID:        ulid.Make().String(),
		Text:      text,
		CreatorID: creatorID,
		CreatedAt: s.now().UTC(),
	}

	if err := s.todos.CreateTodo(ctx, todo); err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}

	s.metrics.IncTodoCreated()
	return todo, nil
}

// List returns every todo of creatorID.
func (s *TodoService) List(ctx context.Context, creatorID string) ([]*model.Todo, error) {
	todos, err := s.todos.ListTodos(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

// Get returns one todo of creatorID.
func (s *TodoService) Get(ctx context.Context, id, creatorID string) (*model.Todo, error) {
	if err := validateTodoID(id); err != nil {
		return nil, err
	}

	todo, err := s.todos.GetTodo(ctx, id, creatorID)
	if err != nil {
		return nil, mapTodoError(err)
	}
	return todo, nil
}

// Update applies patch to one todo of creatorID.
func (s *TodoService) Update(ctx context.Context, id, creatorID string, patch model.TodoPatch) (*model.Todo, error) {
	if err := validateTodoID(id); err != nil {
		return nil, err
	}

	if patch.Text != nil {
		text, err := normalizeTodoText(*patch.Text)
		if err != nil {
			return nil, err
		}
		patch.Text = &text
	}

	todo, err := s.todos.UpdateTodo(ctx, id, creatorID, patch, s.now().UTC())
	if err != nil {
		return nil, mapTodoError(err)
	}

	s.metrics.IncTodoUpdated()
	return todo, nil
}

// Delete removes one todo of creatorID and returns it.
func (s *TodoService) Delete(ctx context.Context, id, creatorID string) (*model.Todo, error) {
	if err := validateTodoID(id); err != nil {
		return nil, err
	}

	todo, err := s.todos.DeleteTodo(ctx, id, creatorID)
	if err != nil {
		return nil, mapTodoError(err)
	}

	s.metrics.IncTodoDeleted()
	return todo, nil
}

func mapTodoError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrTodoNotFound
	}
	return fmt.Errorf("todo store: %w", err)
}

// Package memstore is an in-process store.Store for development and tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ninetyone/TodoApp/internal/model"
	"github.com/ninetyone/TodoApp/internal/store"
)

// Store keeps users and todos in maps guarded by a single mutex, so every
// method is one atomic step.
type Store struct {
	mu      sync.RWMutex
	users   map[string]*model.User
	byEmail map[string]string
	todos   map[string]*model.Todo
}

var _ store.Store = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:   make(map[string]*model.User),
		byEmail: make(map[string]string),
		todos:   make(map[string]*model.Todo),
	}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// CreateUser inserts a new user.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[user.Email]; ok {
		return store.ErrDuplicateEmail
	}
	s.users[user.ID] = cloneUser(user)
	s.byEmail[user.Email] = user.ID
	return nil
}

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneUser(u), nil
}

// GetUserByEmail retrieves a user by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneUser(s.users[id]), nil
}

// GetUserByToken retrieves a user only while it holds the token.
func (s *Store) GetUserByToken(ctx context.Context, userID string, entry model.Token) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok || !u.HasToken(entry.Access, entry.Token) {
		return nil, store.ErrNotFound
	}
	return cloneUser(u), nil
}

// AppendToken adds a token to the user's list.
func (s *Store) AppendToken(ctx context.Context, userID string, entry model.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.Tokens = append(u.Tokens, entry)
	return nil
}

// RemoveToken drops every entry matching token.
func (s *Store) RemoveToken(ctx context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil
	}
	kept := u.Tokens[:0]
	for _, t := range u.Tokens {
		if t.Token != token {
			kept = append(kept, t)
		}
	}
	u.Tokens = kept
	return nil
}

// DeleteUser removes the user and everything it owns.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(s.byEmail, u.Email)
	delete(s.users, id)
	for todoID, t := range s.todos {
		if t.CreatorID == id {
			delete(s.todos, todoID)
		}
	}
	return nil
}

// CreateTodo inserts a todo.
func (s *Store) CreateTodo(ctx context.Context, todo *model.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[todo.CreatorID]; !ok {
		return store.ErrNotFound
	}
	s.todos[todo.ID] = cloneTodo(todo)
	return nil
}

// ListTodos returns the creator's todos, oldest first.
func (s *Store) ListTodos(ctx context.Context, creatorID string) ([]*model.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	todos := make([]*model.Todo, 0)
	for _, t := range s.todos {
		if t.CreatorID == creatorID {
			todos = append(todos, cloneTodo(t))
		}
	}
	sort.Slice(todos, func(i, j int) bool {
		if todos[i].CreatedAt.Equal(todos[j].CreatedAt) {
			return todos[i].ID < todos[j].ID
		}
		return todos[i].CreatedAt.Before(todos[j].CreatedAt)
	})
	return todos, nil
}

// GetTodo retrieves a todo owned by creatorID.
func (s *Store) GetTodo(ctx context.Context, id, creatorID string) (*model.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.todos[id]
	if !ok || t.CreatorID != creatorID {
		return nil, store.ErrNotFound
	}
	return cloneTodo(t), nil
}

// UpdateTodo patches a todo owned by creatorID.
func (s *Store) UpdateTodo(ctx context.Context, id, creatorID string, patch model.TodoPatch, now time.Time) (*model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.todos[id]
	if !ok || t.CreatorID != creatorID {
		return nil, store.ErrNotFound
	}
	patch.Apply(t, now)
	return cloneTodo(t), nil
}

// DeleteTodo removes a todo owned by creatorID.
func (s *Store) DeleteTodo(ctx context.Context, id, creatorID string) (*model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.todos[id]
	if !ok || t.CreatorID != creatorID {
		return nil, store.ErrNotFound
	}
	delete(s.todos, id)
	return t, nil
}

func cloneUser(u *model.User) *model.User {
	c := *u
	c.Tokens = append([]model.Token(nil), u.Tokens...)
	return &c
}

func cloneTodo(t *model.Todo) *model.Todo {
	c := *t
	if t.CompletedAt != nil {
		ts := *t.CompletedAt
		c.CompletedAt = &ts
	}
	return &c
}

// Package store defines the persistence contracts shared by every backend.
//
// Implementations must apply token appends and removals as single atomic
// operations, and must scope every todo read or write by its creator in the
// same statement that touches the row.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ninetyone/TodoApp/internal/model"
)

// Common errors returned by all store implementations.
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserStore owns user records and the tokens they hold.
type UserStore interface {
	// CreateUser inserts user. Returns ErrDuplicateEmail if the email is taken.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// GetUserByToken returns the user with the given id only if it currently
	// holds token for the given purpose. Otherwise ErrNotFound.
	GetUserByToken(ctx context.Context, userID string, entry model.Token) (*model.User, error)
	// AppendToken adds entry to the user's token list. ErrNotFound if the user is gone.
	AppendToken(ctx context.Context, userID string, entry model.Token) error
	// RemoveToken drops token from the user's list. Removing an absent token is not an error.
	RemoveToken(ctx context.Context, userID, token string) error
	// DeleteUser removes the user with all tokens and todos.
	DeleteUser(ctx context.Context, id string) error
}

// TodoStore owns todos. Every method except CreateTodo filters by creatorID;
// a todo owned by someone else is reported as ErrNotFound.
type TodoStore interface {
	CreateTodo(ctx context.Context, todo *model.Todo) error
	ListTodos(ctx context.Context, creatorID string) ([]*model.Todo, error)
	GetTodo(ctx context.Context, id, creatorID string) (*model.Todo, error)
	// UpdateTodo applies patch atomically; now stamps a fresh completion.
	UpdateTodo(ctx context.Context, id, creatorID string, patch model.TodoPatch, now time.Time) (*model.Todo, error)
	// DeleteTodo removes the todo and returns it as it was.
	DeleteTodo(ctx context.Context, id, creatorID string) (*model.Todo, error)
}

// Store is a complete persistence backend.
type Store interface {
	UserStore
	TodoStore
	Ping(ctx context.Context) error
	Close() error
}

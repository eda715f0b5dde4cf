package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ninetyone/TodoApp/internal/model"
	"github.com/ninetyone/TodoApp/internal/store"
)

const todoColumns = `id, text, completed, completed_at, creator_id, created_at`

// CreateTodo inserts a new todo.
func (r *Repository) CreateTodo(ctx context.Context, todo *model.Todo) error {
	query := `
		INSERT INTO todos (id, text, completed, completed_at, creator_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		todo.ID,
		todo.Text,
		todo.Completed,
		todo.CompletedAt,
		todo.CreatorID,
		todo.CreatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrNotFound
		}
		return fmt.Errorf("failed to create todo: %w", err)
	}

	return nil
}

// ListTodos returns all todos created by creatorID, oldest first.
func (r *Repository) ListTodos(ctx context.Context, creatorID string) ([]*model.Todo, error) {
	query := `
		SELECT ` + todoColumns + `
		FROM todos
		WHERE creator_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := make([]*model.Todo, 0)
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating todos: %w", err)
	}

	return todos, nil
}

// GetTodo retrieves a todo owned by creatorID.
func (r *Repository) GetTodo(ctx context.Context, id, creatorID string) (*model.Todo, error) {
	query := `
		SELECT ` + todoColumns + `
		FROM todos
		WHERE id = $1 AND creator_id = $2
	`

	return getTodo(r.pool.QueryRow(ctx, query, id, creatorID))
}

// UpdateTodo applies patch in a single statement scoped by owner.
// completed_at keeps its value on a repeated completion, takes now on the
// transition to completed and is cleared on reopen. The right-hand side of SET
// sees the row as it was before the update.
func (r *Repository) UpdateTodo(ctx context.Context, id, creatorID string, patch model.TodoPatch, now time.Time) (*model.Todo, error) {
	query := `
		UPDATE todos
		SET text = COALESCE($3, text),
			completed = COALESCE($4, completed),
			completed_at = CASE
				WHEN $4::boolean IS NULL THEN completed_at
				WHEN $4 AND completed AND completed_at IS NOT NULL THEN completed_at
				WHEN $4 THEN $5::timestamptz
				ELSE NULL
			END
		WHERE id = $1 AND creator_id = $2
		RETURNING ` + todoColumns

	return getTodo(r.pool.QueryRow(ctx, query, id, creatorID, patch.Text, patch.Completed, now))
}

// DeleteTodo removes a todo owned by creatorID and returns it.
func (r *Repository) DeleteTodo(ctx context.Context, id, creatorID string) (*model.Todo, error) {
	query := `
		DELETE FROM todos
		WHERE id = $1 AND creator_id = $2
		RETURNING ` + todoColumns

	return getTodo(r.pool.QueryRow(ctx, query, id, creatorID))
}

func getTodo(row pgx.Row) (*model.Todo, error) {
	todo, err := scanTodo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	return todo, nil
}

func scanTodo(row pgx.Row) (*model.Todo, error) {
	var todo model.Todo
	err := row.Scan(
		&todo.ID,
		&todo.Text,
		&todo.Completed,
		&todo.CompletedAt,
		&todo.CreatorID,
		&todo.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

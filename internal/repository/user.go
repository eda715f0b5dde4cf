package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ninetyone/TodoApp/internal/model"
	"github.com/ninetyone/TodoApp/internal/store"
)

// CreateUser inserts a new user into the database.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE id = $1
	`

	return r.getUser(ctx, query, id)
}

// GetUserByEmail retrieves a user by their email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE email = $1
	`

	return r.getUser(ctx, query, email)
}

// GetUserByToken retrieves a user only while it holds the given token.
// The join makes presence of the token row the deciding condition.
func (r *Repository) GetUserByToken(ctx context.Context, userID string, entry model.Token) (*model.User, error) {
	query := `
		SELECT u.id, u.email, u.password_hash, u.created_at
		FROM users u
		JOIN user_tokens t ON t.user_id = u.id
		WHERE u.id = $1 AND t.token = $2 AND t.access = $3
	`

	return r.getUser(ctx, query, userID, entry.Token, entry.Access)
}

// AppendToken stores a newly issued token for the user.
func (r *Repository) AppendToken(ctx context.Context, userID string, entry model.Token) error {
	query := `
		INSERT INTO user_tokens (user_id, access, token)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, token) DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, userID, entry.Access, entry.Token); err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrNotFound
		}
		return fmt.Errorf("failed to append token: %w", err)
	}

	return nil
}

// RemoveToken deletes the token row if present.
func (r *Repository) RemoveToken(ctx context.Context, userID, token string) error {
	query := `
		DELETE FROM user_tokens
		WHERE user_id = $1 AND token = $2
	`

	if _, err := r.pool.Exec(ctx, query, userID, token); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}

	return nil
}

// DeleteUser removes the user. Tokens and todos go with it via ON DELETE CASCADE.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (r *Repository) getUser(ctx context.Context, query string, args ...any) (*model.User, error) {
	var user model.User
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	tokens, err := r.listTokens(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Tokens = tokens

	return &user, nil
}

func (r *Repository) listTokens(ctx context.Context, userID string) ([]model.Token, error) {
	query := `
		SELECT access, token
		FROM user_tokens
		WHERE user_id = $1
		ORDER BY created_at, token
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}

	tokens, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Token, error) {
		var t model.Token
		err := row.Scan(&t.Access, &t.Token)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("error iterating tokens: %w", err)
	}

	return tokens, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // database/sql driver for goose
	"github.com/pressly/goose/v3"

	"github.com/ninetyone/TodoApp/migrations"
)

// Migrate applies every pending migration embedded in the binary.
// Already applied versions are skipped, so it is safe on every start.
func Migrate(ctx context.Context, databaseURL string) error {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

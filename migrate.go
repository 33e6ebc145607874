package iam

import (
	"context"
	"database/sql"
	"fmt"
	"path"
	"sync"

	"github.com/pressly/goose/v3"
)

// goose keeps its base fs and dialect in package state
var migrateMu sync.Mutex

// Migrate applies the embedded migrations for driver ("sqlite" or "postgres")
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	dialect, dir, err := migrationTarget(driver)
	if err != nil {
		return err
	}

	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func migrationTarget(driver string) (dialect, dir string, err error) {
	base := "data/sql/migrations"
	switch driver {
	case "sqlite", "sqlite3":
		return "sqlite3", path.Join(base, "sqlite"), nil
	case "postgres", "pg", "pgx":
		return "postgres", path.Join(base, "postgres"), nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

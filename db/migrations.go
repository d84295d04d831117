// Package db carries the SQL schema, embedded so the binary can migrate
// without the source tree.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var Migrations embed.FS

const (
	EmbeddedDir    = "migrations"
	VersionTable   = "schema_migrations"
	postgresDialect = "postgres"
)

// Migrate applies every pending migration, or rolls back the latest one.
// An empty dir uses the embedded files; otherwise dir is read from disk.
func Migrate(ctx context.Context, sqlDB *sql.DB, dir string, rollback bool) error {
	if dir == "" {
		goose.SetBaseFS(Migrations)
		dir = EmbeddedDir
	} else {
		goose.SetBaseFS(os.DirFS("."))
	}
	goose.SetTableName(VersionTable)
	if err := goose.SetDialect(postgresDialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	if rollback {
		if err := goose.DownContext(ctx, sqlDB, dir); err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
		return nil
	}
	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

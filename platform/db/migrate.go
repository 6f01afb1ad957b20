package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"webjs_backend/platform/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// MigrationFS returns the embedded migration files rooted at the migrations directory.
func MigrationFS() (fs.FS, error) {
	return fs.Sub(embeddedMigrations, "migrations")
}

// RunMigrations applies all pending embedded migrations.
// It is a no-op when migrations are disabled in config.
func RunMigrations(ctx context.Context, cfg config.MigrationConfig) ([]*goose.MigrationResult, error) {
	if !cfg.GetRunMigrations() {
		return nil, nil
	}

	connConfig, err := pgx.ParseConfig(cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	sqlDB := stdlib.OpenDB(*connConfig)
	defer sqlDB.Close()

	migrations, err := MigrationFS()
	if err != nil {
		return nil, err
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, migrations)
	if err != nil {
		return nil, fmt.Errorf("create migration provider: %w", err)
	}

	return provider.Up(ctx)
}

// Package migrations embeds the SQL schema of the durable nonce store.
package migrations

import (
	"database/sql"
	"embed"

	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
)

const tableName = "migrations"

//go:embed *.sql
var files embed.FS

// Source returns the embedded migrations.
func Source() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: files,
		Root:       ".",
	}
}

// Up applies all pending migrations and returns how many were applied.
func Up(db *sql.DB) (int, error) {
	migrate.SetTable(tableName)

	n, err := migrate.Exec(db, "postgres", Source(), migrate.Up)
	if err != nil {
		return 0, errors.Wrap(err, "failed to apply migrations")
	}

	return n, nil
}

// Pending returns the migrations that have not been applied yet.
func Pending(db *sql.DB) ([]*migrate.PlannedMigration, error) {
	migrate.SetTable(tableName)

	planned, _, err := migrate.PlanMigration(db, "postgres", Source(), migrate.Up, 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to plan migrations")
	}

	return planned, nil
}

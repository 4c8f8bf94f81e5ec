package database

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/noah-isme/exam-records-api/migrations"
)

// Migration directions understood by Migrate.
const (
	MigrateUp     = "up"
	MigrateDown   = "down"
	MigrateStatus = "status"
)

// Migrate applies the embedded goose migrations in the given direction.
func Migrate(db *sql.DB, direction string) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	switch direction {
	case MigrateUp:
		return goose.Up(db, ".")
	case MigrateDown:
		return goose.Down(db, ".")
	case MigrateStatus:
		return goose.Status(db, ".")
	default:
		return fmt.Errorf("unknown migration direction %q", direction)
	}
}

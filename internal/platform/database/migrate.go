package database

import (
	"database/sql"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrations embed.FS

// Migrate applies every pending up migration for the dialect. The migrate
// instance is not closed because that would close db.
func Migrate(db *sql.DB, dialect Dialect) error {
	var (
		driver database.Driver
		dir    string
		err    error
	)
	switch dialect {
	case SQLite:
		driver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
		dir = "migrations/sqlite"
	default:
		driver, err = migratepgx.WithInstance(db, &migratepgx.Config{})
		dir = "migrations/postgres"
	}
	if err != nil {
		return err
	}

	source, err := iofs.New(migrations, dir)
	if err != nil {
		return err
	}

	instance, err := migrate.NewWithInstance("iofs", source, dialect.String(), driver)
	if err != nil {
		return err
	}

	err = instance.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"oj_account/internal/platform/config"
	"strconv"
	"strings"
)

// Dialect selects placeholder syntax and migration set.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgres"
}

// Rebind rewrites '?' placeholders into the dialect's form. Queries are
// written with '?' and must not contain a literal question mark.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

var (
	DB             *sql.DB
	CurrentDialect Dialect
)

// Connect opens the database selected by config.AppConfig.DBDriver and
// applies pending migrations.
func Connect() error {
	var err error
	switch config.AppConfig.DBDriver {
	case "sqlite":
		DB, err = OpenSQLite(config.AppConfig.SQLitePath)
		CurrentDialect = SQLite
	case "pgx", "postgres":
		DB, err = OpenPostgres(config.AppConfig.DBConnStr)
		CurrentDialect = Postgres
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", config.AppConfig.DBDriver)
	}
	if err != nil {
		return err
	}

	if err := Migrate(DB, CurrentDialect); err != nil {
		return fmt.Errorf("migrate %s: %w", CurrentDialect, err)
	}

	slog.Info("database connected", "dialect", CurrentDialect.String())
	return nil
}

func Close() {
	if DB != nil {
		DB.Close()
		slog.Info("database connection closed")
	}
}

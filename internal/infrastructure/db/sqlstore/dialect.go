package sqlstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// dialect isolates the few places where SQLite and PostgreSQL disagree.
type dialect struct {
	name       string
	driverName string
	schema     string
	// numbered placeholders ($1, $2) instead of ?
	numbered bool
	isUnique func(error) bool
}

var sqliteDialect = dialect{
	name:       DriverSQLite,
	driverName: "sqlite3",
	schema: `
	CREATE TABLE IF NOT EXISTS shifts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		user_name TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT,
		comment TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_shifts_user_start
		ON shifts(user_id, start_time);

	-- at most one open shift per user
	CREATE UNIQUE INDEX IF NOT EXISTS idx_shifts_one_active
		ON shifts(user_id) WHERE end_time IS NULL;
	`,
	isUnique: func(err error) bool {
		var se sqlite3.Error
		return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
	},
}

var postgresDialect = dialect{
	name:       DriverPostgres,
	driverName: "postgres",
	numbered:   true,
	schema: `
	CREATE TABLE IF NOT EXISTS shifts (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		user_name TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT,
		comment TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_shifts_user_start
		ON shifts(user_id, start_time);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_shifts_one_active
		ON shifts(user_id) WHERE end_time IS NULL;
	`,
	isUnique: func(err error) bool {
		var pe *pq.Error
		return errors.As(err, &pe) && pe.Code == "23505"
	},
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite, "sqlite3", "":
		return sqliteDialect, nil
	case DriverPostgres, "postgresql":
		return postgresDialect, nil
	default:
		return dialect{}, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
}

// rebind rewrites ? placeholders for drivers that number their parameters.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// dsn prepares the connection string. SQLite files get their parent directory
// created and WAL, foreign keys and a busy timeout enabled.
func (d dialect) dsn(raw string) (string, error) {
	if d.name != DriverSQLite {
		return raw, nil
	}
	if raw == "" {
		raw = "data/shifts.db"
	}
	path, params, hasParams := strings.Cut(raw, "?")
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("sqlstore: create data dir: %w", err)
			}
		}
	}
	if hasParams {
		return path + "?" + params, nil
	}
	return path + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", nil
}

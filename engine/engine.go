package engine

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as "pgx"
	_ "modernc.org/sqlite"             // register pure-Go SQLite driver
)

// Supported backends.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// Open opens a SQLite database using the modernc.org/sqlite driver.
//
// For file-based databases, pass a path like "./closet.sqlite". For
// in-memory databases, pass ":memory:".
func Open(dsn string) (*sql.DB, error) { return sql.Open("sqlite", dsn) }

// OpenBackend opens dsn with the driver registered for backend.
func OpenBackend(backend, dsn string) (*sql.DB, error) {
	switch strings.ToLower(backend) {
	case SQLite, "sqlite3":
		return Open(dsn)
	case Postgres, "postgresql", "pgx":
		return sql.Open("pgx", dsn)
	default:
		return nil, fmt.Errorf("engine: unsupported backend %q", backend)
	}
}

package sqlhelper

import (
	"fmt"
	"regexp"
	"strings"
)

// Dialect identifies the SQL flavor a DB talks to. It decides how literal
// values are escaped and how stored procedures are discovered.
type Dialect string

// MySQL is the default dialect, also used for MariaDB.
// Postgres is PostgreSQL.
// SQLite is SQLite 3.
const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DialectOf returns the dialect matching a database/sql driver name.
// Unrecognized drivers (including sqlmock) are treated as MySQL.
func DialectOf(driverName string) Dialect {
	switch strings.ToLower(driverName) {
	case "postgres", "pgx", "pq", "cloudsqlpostgres":
		return Postgres
	case "sqlite", "sqlite3":
		return SQLite
	default:
		return MySQL
	}
}

// identifierRe matches plain SQL identifiers, optionally qualified with a
// table or schema name (e.g. "users.id").
var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// checkIdentifier returns ErrInvalidIdentifier (wrapped with the offending
// name) if name is not a plain identifier.
func checkIdentifier(name string) error {
	if len(name) == 0 || len(name) > 128 || !identifierRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return nil
}

// offsetOnly renders an OFFSET clause without a caller-supplied limit.
// MySQL and SQLite only accept OFFSET after a LIMIT, so an unbounded one
// is added.
func (d Dialect) offsetOnly(offset int) string {
	switch d {
	case Postgres:
		return fmt.Sprintf("OFFSET %d", offset)
	case SQLite:
		return fmt.Sprintf("LIMIT -1 OFFSET %d", offset)
	default:
		return fmt.Sprintf("LIMIT 18446744073709551615 OFFSET %d", offset)
	}
}

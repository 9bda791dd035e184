// Package sqlhelper implements a table-oriented SQL query builder and
// executor based on github.com/jmoiron/sqlx.
package sqlhelper

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// DefaultPageSize is the number of rows per page used when an Expose
// statement is paginated without an explicit limit.
const DefaultPageSize = 30

// DB is a wrapper around sqlx.DB (which is a wrapper around sql.DB). It
// owns the connection pool, the logger and the stored procedure registry,
// and creates a fresh statement for every query built through it. A DB is
// safe for concurrent use.
type DB struct {
	*sqlx.DB

	// ErrHandlers is a list of error handler functions copied into every
	// statement created by the DB
	ErrHandlers []func(err error)

	dialect  Dialect
	database string
	pageSize int
	logger   *slog.Logger
	procs    *Procedures
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger used for failed queries and connection
// problems. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(db *DB) {
		if logger != nil {
			db.logger = logger
		}
	}
}

// WithPageSize sets the default number of rows per page.
func WithPageSize(size int) Option {
	return func(db *DB) {
		if size > 0 {
			db.pageSize = size
		}
	}
}

// WithDatabase sets the name of the database (schema) the DB is connected
// to. It is used when discovering stored procedures.
func WithDatabase(name string) Option {
	return func(db *DB) {
		db.database = name
	}
}

// WithDialect overrides the dialect inferred from the driver name.
func WithDialect(d Dialect) Option {
	return func(db *DB) {
		db.dialect = d
	}
}

// WithErrHandler adds an error handler that is called with every error a
// statement fails with.
func WithErrHandler(handler func(err error)) Option {
	return func(db *DB) {
		db.ErrHandlers = append(db.ErrHandlers, handler)
	}
}

// New creates a new DB instance from an underlying sql.DB object.
// It requires the name of the SQL driver in order to escape values
// for the correct dialect
func New(db *sql.DB, driverName string, opts ...Option) *DB {
	return Newx(sqlx.NewDb(db, driverName), opts...)
}

// Newx creates a new DB instance from an underlying sqlx.DB object
func Newx(db *sqlx.DB, opts ...Option) *DB {
	dbh := &DB{
		DB:       db,
		dialect:  DialectOf(db.DriverName()),
		pageSize: DefaultPageSize,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(dbh)
	}
	return dbh
}

// Config holds what Open needs to create a DB.
type Config struct {
	// Driver is the database/sql driver name (e.g. "mysql")
	Driver string
	// DSN is the driver-specific data source name
	DSN string
	// Database is the name of the database, used for procedure discovery
	Database string
	// ConnectionLimit caps the number of open connections (0 = unlimited)
	ConnectionLimit int
	// UseProcedures enables stored procedure discovery at startup
	UseProcedures bool
	// PageSize is the default page size, DefaultPageSize if zero
	PageSize int
	// ConnectTimeout bounds the startup health check, 10 seconds if zero
	ConnectTimeout time.Duration
}

// Open creates a DB from cfg. It runs a one-time health check and, if
// enabled, discovers stored procedures. Neither step is fatal: failures
// are logged and the DB is returned in degraded mode, so callers get
// classified errors from the individual queries instead. Open only fails
// if the driver is unknown.
func Open(ctx context.Context, cfg Config, opts ...Option) (*DB, error) {
	sqlxDB, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed opening database: %w", err)
	}

	sqlxDB.SetMaxOpenConns(cfg.ConnectionLimit)
	if cfg.ConnectionLimit > 0 {
		sqlxDB.SetMaxIdleConns(cfg.ConnectionLimit)
	}

	opts = append([]Option{WithDatabase(cfg.Database), WithPageSize(cfg.PageSize)}, opts...)
	db := Newx(sqlxDB, opts...)

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.HealthCheck(checkCtx); err != nil {
		db.logger.Error("database unreachable, continuing in degraded mode",
			"database", cfg.Database, "error", err)
	} else {
		db.logger.Info("database connected", "database", cfg.Database, "dialect", string(db.dialect))
	}

	if cfg.UseProcedures {
		db.LoadProcedures(ctx)
	}

	return db, nil
}

// Dialect returns the dialect used to escape values.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Logger returns the DB's logger.
func (db *DB) Logger() *slog.Logger {
	return db.logger
}

// PageSize returns the default page size.
func (db *DB) PageSize() int {
	return db.pageSize
}

// Procedures returns the stored procedure registry, or nil if procedure
// discovery was not enabled.
func (db *DB) Procedures() *Procedures {
	return db.procs
}

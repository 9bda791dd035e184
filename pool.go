package sqlhelper

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Acquire takes a dedicated connection from the pool. The connection must
// be handed back with Release. Failures are returned as a ConnectionError.
func (db *DB) Acquire(ctx context.Context) (*sqlx.Conn, error) {
	conn, err := db.Connx(ctx)
	if err != nil {
		code, _ := connectionCode(err)
		return nil, &ConnectionError{Code: code, Err: err}
	}
	return conn, nil
}

// Release returns a connection obtained by Acquire to the pool.
func (db *DB) Release(conn *sqlx.Conn) {
	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil {
		db.logger.Warn("failed releasing connection", "error", err)
	}
}

// HealthCheck acquires a connection and immediately releases it, to confirm
// the database is reachable.
func (db *DB) HealthCheck(ctx context.Context) error {
	conn, err := db.Acquire(ctx)
	if err != nil {
		return err
	}
	db.Release(conn)
	return nil
}

// PoolStats returns statistics of the underlying connection pool.
func (db *DB) PoolStats() sql.DBStats {
	return db.DB.Stats()
}

// Execute runs query as-is on a pooled connection and returns the rows it
// produced. It is the pool-level primitive underneath every statement.
func (db *DB) Execute(ctx context.Context, query string) ([]Row, error) {
	var rows []Row
	err := db.withConn(ctx, query, func(conn *sqlx.Conn) error {
		res, err := conn.QueryxContext(ctx, query)
		if err != nil {
			return err
		}
		defer res.Close()

		rows, err = scanRows(res)
		return err
	})
	return rows, err
}

// exec runs a statement that does not return rows.
func (db *DB) exec(ctx context.Context, query string) (Result, error) {
	var result Result
	err := db.withConn(ctx, query, func(conn *sqlx.Conn) error {
		res, err := conn.ExecContext(ctx, query)
		if err != nil {
			return err
		}
		result = newResult(res)
		return nil
	})
	return result, err
}

// count runs a query returning a single integer.
func (db *DB) count(ctx context.Context, query string) (count int64, err error) {
	err = db.withConn(ctx, query, func(conn *sqlx.Conn) error {
		return conn.QueryRowxContext(ctx, query).Scan(&count)
	})
	return count, err
}

// scan runs a query and loads its rows into a slice of structs with sqlx.
func (db *DB) scan(ctx context.Context, query string, into interface{}) error {
	return db.withConn(ctx, query, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, into, query)
	})
}

// withConn acquires a connection, runs f with it and always releases it.
// Errors are classified and logged along with the offending query.
func (db *DB) withConn(ctx context.Context, query string, f func(conn *sqlx.Conn) error) error {
	conn, err := db.Acquire(ctx)
	if err != nil {
		db.logger.Error("failed acquiring connection", "code", err.(*ConnectionError).Code.String(), "error", err)
		return err
	}
	defer db.Release(conn)

	if err := f(conn); err != nil {
		err = classify(query, err)
		switch e := err.(type) {
		case *ConnectionError:
			db.logger.Error("connection failed during query", "code", e.Code.String(), "error", e.Err, "query", query)
		case *QueryError:
			db.logger.Error("query failed", "code", e.Code, "error", e.Err, "query", query)
		}
		return err
	}

	return nil
}

package sqlhelper

import (
	"context"
	"errors"
)

// Table is the builder facade for a single table. It holds no query
// state of its own: every method returns a new statement that belongs to
// the caller, so a Table may be shared between goroutines.
type Table struct {
	db   *DB
	name string
}

// Table returns the builder facade for the named table.
func (db *DB) Table(name string) *Table {
	return &Table{db: db, name: name}
}

// Name returns the table's name.
func (t *Table) Name() string {
	return t.name
}

// The methods below are one-shot shortcuts that build and execute a
// statement in a single call. Write operations report whether a row was
// changed: (false, nil) means the query ran but matched nothing, while a
// non-nil error is a ConnectionError, a QueryError or a validation error.

// Insert inserts a row built from values into table. The id of the new row
// is available through InsertStmt.Exec if needed.
func (db *DB) Insert(ctx context.Context, table string, values map[string]interface{}) (bool, error) {
	_, err := db.Table(table).Insert(values).Exec(ctx)
	return db.affected(table, "insert", err)
}

// Expose reads rows of table as configured by opts.
func (db *DB) Expose(ctx context.Context, table string, opts ExposeOptions) ([]Row, error) {
	return db.Table(table).Expose(opts).GetAll(ctx)
}

// Exist returns true if at least one row of table matches where.
func (db *DB) Exist(ctx context.Context, table string, where map[string]interface{}) (bool, error) {
	return db.Table(table).Is(where).Exist(ctx)
}

// Delete deletes the rows of table matching where. An empty where is
// rejected with ErrUnsafeStatement; use Table.Delete(...).All() to empty
// a table.
func (db *DB) Delete(ctx context.Context, table string, where map[string]interface{}) (bool, error) {
	_, err := db.Table(table).Delete(where).Exec(ctx)
	return db.affected(table, "delete", err)
}

// Update sets dataSets on the rows of table matching where. An empty where
// is rejected with ErrUnsafeStatement.
func (db *DB) Update(ctx context.Context, table string, dataSets, where map[string]interface{}) (bool, error) {
	_, err := db.Table(table).Update(dataSets, where).Exec(ctx)
	return db.affected(table, "update", err)
}

func (db *DB) affected(table, op string, err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNoRowsAffected):
		db.logger.Warn("no rows affected", "table", table, "operation", op)
		return false, nil
	default:
		return false, err
	}
}

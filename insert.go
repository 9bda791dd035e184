package sqlhelper

import (
	"context"
	"sort"
	"strings"
)

// InsertStmt represents an INSERT statement
type InsertStmt struct {
	*Statement
	Table  string
	fields []string
	values []string
}

// Insert creates a new InsertStmt object for the table, inserting
// the provided map of columns and values
func (t *Table) Insert(values map[string]interface{}) *InsertStmt {
	stmt := &InsertStmt{
		Statement: t.db.statement(),
		Table:     t.name,
	}
	stmt.fail(checkIdentifier(t.name))
	return stmt.ValueMap(values)
}

// Set adds a single column and value to the insert.
func (stmt *InsertStmt) Set(col string, value interface{}) *InsertStmt {
	if err := checkIdentifier(col); err != nil {
		stmt.fail(err)
		return stmt
	}
	stmt.fields = append(stmt.fields, col)
	stmt.values = append(stmt.values, stmt.db.dialect.Escape(value))
	return stmt
}

// ValueMap receives a map of columns and values to insert. Columns
// are added in sorted order.
func (stmt *InsertStmt) ValueMap(vals map[string]interface{}) *InsertStmt {
	cols := make([]string, 0, len(vals))
	for col := range vals {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	for _, col := range cols {
		stmt.Set(col, vals[col])
	}
	return stmt
}

// ToSQL generates the INSERT statement's SQL. It is used internally
// by Exec, but is exported if you wish to use it directly.
func (stmt *InsertStmt) ToSQL() (asSQL string, err error) {
	if err := stmt.check(); err != nil {
		return "", err
	}

	if len(stmt.fields) == 0 {
		return "", ErrEmptyValues
	}

	clauses := []string{
		"INSERT INTO " + stmt.Table,
		"(" + strings.Join(stmt.fields, ", ") + ")",
		"VALUES (" + strings.Join(stmt.values, ", ") + ")",
	}

	return strings.Join(clauses, " "), nil
}

// Exec executes the INSERT statement. The returned Result holds the
// id of the inserted row. If no row was inserted, ErrNoRowsAffected is
// returned.
func (stmt *InsertStmt) Exec(ctx context.Context) (res Result, err error) {
	defer stmt.reset()

	asSQL, err := stmt.ToSQL()
	if err != nil {
		stmt.HandleError(err)
		return res, err
	}

	res, err = stmt.db.exec(ctx, asSQL)
	if err != nil {
		stmt.HandleError(err)
		return res, err
	}

	if !res.OK() {
		return res, ErrNoRowsAffected
	}

	return res, nil
}

func (stmt *InsertStmt) reset() {
	stmt.fields = nil
	stmt.values = nil
	stmt.done()
}

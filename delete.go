package sqlhelper

import (
	"context"
	"strings"
)

// DeleteStmt represents a DELETE statement
type DeleteStmt struct {
	*Statement
	Table      string
	conditions []WhereCondition
	all        bool
}

// Delete creates a new DeleteStmt object for the table, deleting rows
// matching the provided map of columns and values. An empty map is
// rejected with ErrUnsafeStatement when executed, unless All is called.
func (t *Table) Delete(where map[string]interface{}) *DeleteStmt {
	stmt := &DeleteStmt{
		Statement: t.db.statement(),
		Table:     t.name,
	}
	stmt.fail(checkIdentifier(t.name))
	return stmt.Where(WhereMap(where)...)
}

// Where creates one or more WHERE conditions for the DELETE statement.
// If multiple conditions are passed, they are considered AND conditions.
func (stmt *DeleteStmt) Where(conds ...WhereCondition) *DeleteStmt {
	stmt.conditions = append(stmt.conditions, conds...)
	return stmt
}

// All allows the statement to run without conditions, deleting every
// row of the table.
func (stmt *DeleteStmt) All() *DeleteStmt {
	stmt.all = true
	return stmt
}

// ToSQL generates the DELETE statement's SQL. It is used internally by
// Exec, but is exported if you wish to use it directly.
func (stmt *DeleteStmt) ToSQL() (asSQL string, err error) {
	if err := stmt.check(); err != nil {
		return "", err
	}

	var clauses = []string{"DELETE FROM " + stmt.Table}

	if !stmt.all && matchesAll(stmt.conditions) {
		return "", ErrUnsafeStatement
	}

	if len(stmt.conditions) > 0 {
		whereClause, err := parseConditions(stmt.db.dialect, stmt.conditions)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, "WHERE "+whereClause)
	}

	return strings.Join(clauses, " "), nil
}

// Exec executes the DELETE statement. If no row was deleted,
// ErrNoRowsAffected is returned.
func (stmt *DeleteStmt) Exec(ctx context.Context) (res Result, err error) {
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

func (stmt *DeleteStmt) reset() {
	stmt.conditions = nil
	stmt.all = false
	stmt.done()
}

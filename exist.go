package sqlhelper

import (
	"context"
	"strings"
)

// ExistStmt represents a SELECT COUNT(*) statement checking whether
// matching rows exist
type ExistStmt struct {
	*Statement
	Table      string
	conditions []WhereCondition
}

// Is creates a new ExistStmt object for the table, matching rows by the
// provided map of columns and values. Call Exist to run it.
func (t *Table) Is(where map[string]interface{}) *ExistStmt {
	stmt := &ExistStmt{
		Statement: t.db.statement(),
		Table:     t.name,
	}
	stmt.fail(checkIdentifier(t.name))
	return stmt.Where(WhereMap(where)...)
}

// Where adds conditions to the statement. If multiple conditions are
// passed, they are considered AND conditions.
func (stmt *ExistStmt) Where(conditions ...WhereCondition) *ExistStmt {
	stmt.conditions = append(stmt.conditions, conditions...)
	return stmt
}

// ToSQL generates the statement's SQL.
func (stmt *ExistStmt) ToSQL() (asSQL string, err error) {
	if err := stmt.check(); err != nil {
		return "", err
	}

	clauses := []string{"SELECT COUNT(*) AS result FROM " + stmt.Table}

	if len(stmt.conditions) > 0 {
		whereClause, err := parseConditions(stmt.db.dialect, stmt.conditions)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, "WHERE "+whereClause)
	}

	return strings.Join(clauses, " "), nil
}

// Count executes the statement and returns the number of matching rows.
func (stmt *ExistStmt) Count(ctx context.Context) (count int64, err error) {
	defer stmt.reset()

	asSQL, err := stmt.ToSQL()
	if err != nil {
		stmt.HandleError(err)
		return 0, err
	}

	count, err = stmt.db.count(ctx, asSQL)
	if err != nil {
		stmt.HandleError(err)
		return 0, err
	}

	return count, nil
}

// Exist executes the statement and returns true if at least one row
// matches.
func (stmt *ExistStmt) Exist(ctx context.Context) (bool, error) {
	count, err := stmt.Count(ctx)
	return count > 0, err
}

func (stmt *ExistStmt) reset() {
	stmt.conditions = nil
	stmt.done()
}

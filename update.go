package sqlhelper

import (
	"context"
	"sort"
	"strings"
)

// UpdateStmt represents an UPDATE statement
type UpdateStmt struct {
	*Statement
	Table      string
	updates    map[string]interface{}
	conditions []WhereCondition
	all        bool
}

// Update creates a new UpdateStmt object for the table, setting the
// columns of dataSets on the rows matching where. An empty where map is
// rejected with ErrUnsafeStatement when executed, unless All is called.
func (t *Table) Update(dataSets, where map[string]interface{}) *UpdateStmt {
	stmt := &UpdateStmt{
		Statement: t.db.statement(),
		Table:     t.name,
		updates:   make(map[string]interface{}),
	}
	stmt.fail(checkIdentifier(t.name))
	return stmt.SetMap(dataSets).Where(WhereMap(where)...)
}

// Set receives the name of a column and a new value. Multiple calls to Set
// can be chained together to modify multiple columns. Set can also be chained
// with calls to SetMap. Use Indirect to set a column to an SQL expression.
func (stmt *UpdateStmt) Set(col string, value interface{}) *UpdateStmt {
	if err := checkIdentifier(col); err != nil {
		stmt.fail(err)
		return stmt
	}
	if stmt.updates == nil {
		stmt.updates = make(map[string]interface{})
	}
	stmt.updates[col] = value
	return stmt
}

// SetMap receives a map of columns and values. Multiple calls to both Set and
// SetMap can be chained to modify multiple columns.
func (stmt *UpdateStmt) SetMap(updates map[string]interface{}) *UpdateStmt {
	for col, value := range updates {
		stmt.Set(col, value)
	}
	return stmt
}

// Where creates one or more WHERE conditions for the UPDATE statement.
// If multiple conditions are passed, they are considered AND conditions.
func (stmt *UpdateStmt) Where(conditions ...WhereCondition) *UpdateStmt {
	stmt.conditions = append(stmt.conditions, conditions...)
	return stmt
}

// All allows the statement to run without conditions, updating every
// row of the table.
func (stmt *UpdateStmt) All() *UpdateStmt {
	stmt.all = true
	return stmt
}

// ToSQL generates the UPDATE statement's SQL. It is used internally by
// Exec, but is exported if you wish to use it directly.
func (stmt *UpdateStmt) ToSQL() (asSQL string, err error) {
	if err := stmt.check(); err != nil {
		return "", err
	}

	if len(stmt.updates) == 0 {
		return "", ErrEmptyValues
	}

	var clauses = []string{"UPDATE " + stmt.Table}

	cols := make([]string, 0, len(stmt.updates))
	for col := range stmt.updates {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	updates := make([]string, 0, len(cols))
	for _, col := range cols {
		updates = append(updates, col+" = "+stmt.db.dialect.Escape(stmt.updates[col]))
	}

	clauses = append(clauses, "SET "+strings.Join(updates, ", "))

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

// Exec executes the UPDATE statement. If no row was changed,
// ErrNoRowsAffected is returned.
func (stmt *UpdateStmt) Exec(ctx context.Context) (res Result, err error) {
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

func (stmt *UpdateStmt) reset() {
	stmt.updates = nil
	stmt.conditions = nil
	stmt.all = false
	stmt.done()
}

// UpdateFunction represents a function call in the context of
// updating a column's value, e.g. Set("name", Func("UPPER", Indirect("name"))).
// Arguments are escaped unless wrapped with Indirect.
type UpdateFunction struct {
	Name      string
	Arguments []interface{}
}

// Func creates an UpdateFunction calling the named SQL function.
func Func(name string, args ...interface{}) UpdateFunction {
	return UpdateFunction{Name: name, Arguments: args}
}

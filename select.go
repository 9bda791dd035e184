package sqlhelper

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// JoinType is an enumerated type representing the
// type of a JOIN clause (INNER, LEFT, RIGHT or FULL)
type JoinType int

// String returns the string representation of the
// join type (e.g. "FULL JOIN")
func (j JoinType) String() string {
	if !j.valid() {
		return fmt.Sprintf("JoinType(%d)", int(j))
	}
	return []string{"INNER", "LEFT", "RIGHT", "FULL"}[int(j)] + " JOIN"
}

func (j JoinType) valid() bool {
	return j >= InnerJoin && j <= FullJoin
}

// InnerJoin represents an inner join
// LeftJoin represents a left join
// RightJoin represents a right join
// FullJoin represents a full join
const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullJoin
)

// JoinClause represents a JOIN clause in a SELECT statement. On is
// an SQL fragment used verbatim, e.g. "orders.user_id = users.id".
type JoinClause struct {
	Type  JoinType
	Table string
	On    string
}

// OrderColumn represents a column in an ORDER BY
// clause (with direction)
type OrderColumn struct {
	Column string
	Desc   bool
}

// ToSQL generates SQL for an OrderColumn
func (o OrderColumn) ToSQL() string {
	str := o.Column
	if o.Desc {
		str += " DESC"
	} else {
		str += " ASC"
	}
	return str
}

// Asc creates an OrderColumn for the provided
// column in ascending order
func Asc(col string) OrderColumn {
	return OrderColumn{col, false}
}

// Desc creates an OrderColumn for the provided
// column in descending order
func Desc(col string) OrderColumn {
	return OrderColumn{col, true}
}

// ExposeOptions lists everything an Expose call may be configured with.
// All fields are optional.
type ExposeOptions struct {
	// Fields are the columns to read; defaults to "*". Fields are SQL
	// fragments (e.g. "COUNT(*) AS total") and are used verbatim.
	Fields []string
	// Where holds equality conditions, AND-combined, values escaped
	Where map[string]interface{}
	// Join lists the tables to join; all of them are kept, in order
	Join []JoinClause
	// OrderBy sets the ordering
	OrderBy []OrderColumn
	// Page is a 1-based page number; when set, rows are paginated with
	// Limit (or the DB's page size) and Limit/Offset are not emitted
	// on their own
	Page int
	// Limit caps the number of rows
	Limit int
	// Offset skips rows
	Offset int
	// Extra is a raw SQL fragment appended to the end of the query.
	// It is NOT escaped: never build it from user-supplied input.
	Extra string
}

// ExposeStmt represents a SELECT statement reading rows of a table
type ExposeStmt struct {
	*Statement
	Table      string
	exposed    []string
	joins      []JoinClause
	conditions []WhereCondition
	ordering   []OrderColumn
	page       int
	limit      int
	offset     int
	extra      string
}

// Expose creates a new ExposeStmt object for the table, configured
// with opts
func (t *Table) Expose(opts ExposeOptions) *ExposeStmt {
	stmt := &ExposeStmt{
		Statement: t.db.statement(),
		Table:     t.name,
	}
	stmt.fail(checkIdentifier(t.name))

	stmt.Fields(opts.Fields...).
		Where(WhereMap(opts.Where)...).
		OrderBy(opts.OrderBy...).
		Extra(opts.Extra)

	for _, join := range opts.Join {
		stmt.Join(join.Type, join.Table, join.On)
	}
	if opts.Page != 0 {
		stmt.Page(opts.Page)
	}
	if opts.Limit != 0 {
		stmt.Limit(opts.Limit)
	}
	if opts.Offset != 0 {
		stmt.Offset(opts.Offset)
	}

	return stmt
}

// Fields sets the columns to select
func (stmt *ExposeStmt) Fields(cols ...string) *ExposeStmt {
	stmt.exposed = append(stmt.exposed, cols...)
	return stmt
}

// Join adds a join of the supplied type on the supplied table. Joins
// accumulate: every call adds another JOIN clause.
func (stmt *ExposeStmt) Join(joinType JoinType, table, on string) *ExposeStmt {
	if !joinType.valid() {
		stmt.fail(fmt.Errorf("%w: %d", ErrInvalidJoin, int(joinType)))
		return stmt
	}
	if err := checkIdentifier(table); err != nil {
		stmt.fail(err)
		return stmt
	}
	stmt.joins = append(stmt.joins, JoinClause{joinType, table, on})
	return stmt
}

// InnerJoin is a wrapper of Join for creating an INNER JOIN
func (stmt *ExposeStmt) InnerJoin(table, on string) *ExposeStmt {
	return stmt.Join(InnerJoin, table, on)
}

// LeftJoin is a wrapper of Join for creating a LEFT JOIN
func (stmt *ExposeStmt) LeftJoin(table, on string) *ExposeStmt {
	return stmt.Join(LeftJoin, table, on)
}

// Where creates one or more WHERE conditions for the SELECT statement.
// If multiple conditions are passed, they are considered AND conditions.
func (stmt *ExposeStmt) Where(conditions ...WhereCondition) *ExposeStmt {
	stmt.conditions = append(stmt.conditions, conditions...)
	return stmt
}

// OrderBy sets an ORDER BY clause for the query. Pass OrderColumn objects
// using the Asc and Desc functions.
func (stmt *ExposeStmt) OrderBy(cols ...OrderColumn) *ExposeStmt {
	for _, col := range cols {
		if err := checkIdentifier(col.Column); err != nil {
			stmt.fail(err)
			return stmt
		}
	}
	stmt.ordering = append(stmt.ordering, cols...)
	return stmt
}

// Page selects a 1-based page of results.
func (stmt *ExposeStmt) Page(page int) *ExposeStmt {
	if page < 1 {
		stmt.fail(fmt.Errorf("%w: page %d", ErrInvalidPagination, page))
	}
	stmt.page = page
	return stmt
}

// Limit limits the amount of results returned to the provided value
// (this is a LIMIT clause). With Page, it sets the page size.
func (stmt *ExposeStmt) Limit(limit int) *ExposeStmt {
	if limit < 0 {
		stmt.fail(fmt.Errorf("%w: limit %d", ErrInvalidPagination, limit))
	}
	stmt.limit = limit
	return stmt
}

// Offset skips the provided number of results. It is ignored when Page
// is used.
func (stmt *ExposeStmt) Offset(offset int) *ExposeStmt {
	if offset < 0 {
		stmt.fail(fmt.Errorf("%w: offset %d", ErrInvalidPagination, offset))
	}
	stmt.offset = offset
	return stmt
}

// Extra appends a raw SQL fragment to the end of the query. The fragment
// is used verbatim and is an injection risk if built from user input.
func (stmt *ExposeStmt) Extra(fragment string) *ExposeStmt {
	stmt.extra = fragment
	return stmt
}

// ToSQL generates the SELECT statement's SQL. It is used internally by
// GetAll and friends, but is exported if you wish to use it directly.
func (stmt *ExposeStmt) ToSQL() (asSQL string, err error) {
	if err := stmt.check(); err != nil {
		return "", err
	}

	var clauses = []string{"SELECT"}

	if len(stmt.exposed) == 0 {
		clauses = append(clauses, "*")
	} else {
		clauses = append(clauses, strings.Join(stmt.exposed, ", "))
	}

	clauses = append(clauses, "FROM "+stmt.Table)

	for _, join := range stmt.joins {
		clauses = append(clauses, join.Type.String()+" "+join.Table+" ON "+join.On)
	}

	if len(stmt.conditions) > 0 {
		whereClause, err := parseConditions(stmt.db.dialect, stmt.conditions)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, "WHERE "+whereClause)
	}

	if len(stmt.ordering) > 0 {
		var ordering []string
		for _, order := range stmt.ordering {
			ordering = append(ordering, order.ToSQL())
		}
		clauses = append(clauses, "ORDER BY "+strings.Join(ordering, ", "))
	}

	if stmt.page > 0 {
		limit := stmt.limit
		if limit == 0 {
			limit = stmt.db.pageSize
		}
		clauses = append(clauses, fmt.Sprintf("LIMIT %d OFFSET %d", limit, (stmt.page-1)*limit))
	} else if stmt.limit > 0 {
		clause := fmt.Sprintf("LIMIT %d", stmt.limit)
		if stmt.offset > 0 {
			clause += fmt.Sprintf(" OFFSET %d", stmt.offset)
		}
		clauses = append(clauses, clause)
	} else if stmt.offset > 0 {
		clauses = append(clauses, stmt.db.dialect.offsetOnly(stmt.offset))
	}

	if stmt.extra != "" {
		clauses = append(clauses, stmt.extra)
	}

	return strings.Join(clauses, " "), nil
}

// GetAll executes the SELECT statement and returns all the resulting
// rows.
func (stmt *ExposeStmt) GetAll(ctx context.Context) (rows []Row, err error) {
	defer stmt.reset()

	asSQL, err := stmt.ToSQL()
	if err != nil {
		stmt.HandleError(err)
		return nil, err
	}

	rows, err = stmt.db.Execute(ctx, asSQL)
	if err != nil {
		stmt.HandleError(err)
		return nil, err
	}

	return rows, nil
}

// GetRow executes the SELECT statement and returns the first resulting
// row, or sql.ErrNoRows if there is none.
func (stmt *ExposeStmt) GetRow(ctx context.Context) (Row, error) {
	if stmt.limit == 0 && stmt.page == 0 {
		stmt.Limit(1)
	}

	rows, err := stmt.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, sql.ErrNoRows
	}
	return rows[0], nil
}

// Scan executes the SELECT statement and loads all the results into
// the provided slice variable, using sqlx struct scanning.
func (stmt *ExposeStmt) Scan(ctx context.Context, into interface{}) error {
	defer stmt.reset()

	asSQL, err := stmt.ToSQL()
	if err != nil {
		stmt.HandleError(err)
		return err
	}

	if err := stmt.db.scan(ctx, asSQL, into); err != nil {
		stmt.HandleError(err)
		return err
	}

	return nil
}

// GetCount executes the SELECT statement disregarding limits,
// offsets, selected columns and ordering; and returns the
// total number of matching results. This is useful when
// paginating results.
func (stmt *ExposeStmt) GetCount(ctx context.Context) (count int64, err error) {
	defer stmt.reset()

	countStmt := *stmt
	countStmt.Statement = &Statement{
		ErrHandlers: stmt.ErrHandlers,
		db:          stmt.db,
		err:         stmt.err,
		consumed:    stmt.consumed,
	}
	countStmt.exposed = []string{"COUNT(*)"}
	countStmt.ordering = nil
	countStmt.page = 0
	countStmt.limit = 0
	countStmt.offset = 0
	countStmt.extra = ""

	asSQL, err := countStmt.ToSQL()
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

func (stmt *ExposeStmt) reset() {
	stmt.exposed = nil
	stmt.joins = nil
	stmt.conditions = nil
	stmt.ordering = nil
	stmt.page, stmt.limit, stmt.offset = 0, 0, 0
	stmt.extra = ""
	stmt.done()
}

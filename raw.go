package sqlhelper

import "context"

// RawStmt is an arbitrary SQL statement that bypasses the builder. The
// text is sent to the database verbatim; never build it from user input.
type RawStmt struct {
	*Statement
	query string
}

// Raw creates a new RawStmt for the provided SQL text.
func (db *DB) Raw(query string) *RawStmt {
	return &RawStmt{
		Statement: db.statement(),
		query:     query,
	}
}

// ToSQL returns the statement's SQL.
func (stmt *RawStmt) ToSQL() (string, error) {
	if err := stmt.check(); err != nil {
		return "", err
	}
	return stmt.query, nil
}

// Execute runs the statement and returns the rows it produced (none for
// statements that don't return rows).
func (stmt *RawStmt) Execute(ctx context.Context) (rows []Row, err error) {
	defer stmt.done()

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

// Exec runs the statement and returns its Result, for statements that
// don't return rows.
func (stmt *RawStmt) Exec(ctx context.Context) (res Result, err error) {
	defer stmt.done()

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

	return res, nil
}

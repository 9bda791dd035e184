package sqlhelper

// SQLStmt is an interface representing a general SQL statement. All
// specific statement types (e.g. ExposeStmt, UpdateStmt, etc.)
// implement this interface
type SQLStmt interface {
	ToSQL() (string, error)
}

// Statement is a base struct for all statement types in the library. Every
// statement value is created for a single call and owned by its caller;
// once executed, its accumulated state is cleared and it cannot be run
// again.
type Statement struct {
	// ErrHandlers is a list of error handler functions
	ErrHandlers []func(err error)

	db       *DB
	err      error
	consumed bool
}

func (db *DB) statement() *Statement {
	return &Statement{
		ErrHandlers: append([]func(error){}, db.ErrHandlers...),
		db:          db,
	}
}

// HandleError receives an error value, logs it and executes all of the
// statements error handlers with it.
func (stmt *Statement) HandleError(err error) {
	if err == nil {
		return
	}
	if stmt.db != nil && !IsConnectionError(err) && !IsQueryError(err) {
		// database failures are logged where they are classified
		stmt.db.logger.Warn("statement rejected", "error", err)
	}
	for _, handler := range stmt.ErrHandlers {
		handler(err)
	}
}

// fail records the first error raised while building the statement; it
// is returned when the statement is rendered.
func (stmt *Statement) fail(err error) {
	if stmt.err == nil {
		stmt.err = err
	}
}

// check returns the building error, or ErrStatementConsumed if the
// statement was already executed.
func (stmt *Statement) check() error {
	if stmt.consumed {
		return ErrStatementConsumed
	}
	return stmt.err
}

// done marks the statement as executed.
func (stmt *Statement) done() {
	stmt.consumed = true
	stmt.err = nil
}

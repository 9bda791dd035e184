package sqlhelper

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Procedures is the registry of stored procedures found in the database
// when the DB was opened. It is immutable: procedures created later are
// only picked up by a new DB.
type Procedures struct {
	db    *DB
	names map[string]struct{}
}

// DiscoverProcedures lists the stored procedures of the DB's database and
// returns a registry exposing them. On failure the error is logged and an
// empty registry is returned; the failure is never fatal.
func (db *DB) DiscoverProcedures(ctx context.Context) *Procedures {
	procs := &Procedures{db: db, names: make(map[string]struct{})}

	names, err := db.listProcedures(ctx)
	if err != nil {
		db.logger.Error("stored procedure discovery failed", "error", err)
		return procs
	}

	for _, name := range names {
		procs.names[name] = struct{}{}
	}
	db.logger.Info("stored procedures registered", "count", len(names))

	return procs
}

// LoadProcedures discovers the stored procedures and makes them callable
// through DB.Call. It is meant to run once, before the DB is shared.
func (db *DB) LoadProcedures(ctx context.Context) *Procedures {
	db.procs = db.DiscoverProcedures(ctx)
	return db.procs
}

func (db *DB) listProcedures(ctx context.Context) ([]string, error) {
	database := db.database
	if database == "" && db.dialect != SQLite {
		var err error
		if database, err = db.currentDatabase(ctx); err != nil {
			return nil, &DiscoveryError{Err: err}
		}
	}

	var query string
	switch db.dialect {
	case MySQL:
		query = "SHOW PROCEDURE STATUS WHERE Db = " + db.dialect.Escape(database)
	case Postgres:
		query = "SELECT routine_name AS \"Name\" FROM information_schema.routines " +
			"WHERE routine_type = 'PROCEDURE' AND routine_catalog = " + db.dialect.Escape(database)
	default:
		// no stored procedures
		return nil, nil
	}

	rows, err := db.Execute(ctx, query)
	if err != nil {
		return nil, &DiscoveryError{Database: database, Err: err}
	}

	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if name := row.String("Name"); name != "" {
			names = append(names, name)
		}
	}

	return names, nil
}

func (db *DB) currentDatabase(ctx context.Context) (string, error) {
	query := "SELECT DATABASE() AS name"
	if db.dialect == Postgres {
		query = "SELECT current_database() AS name"
	}

	rows, err := db.Execute(ctx, query)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 || rows[0].String("name") == "" {
		return "", fmt.Errorf("no database selected")
	}
	return rows[0].String("name"), nil
}

// Names returns the names of all registered procedures, sorted.
func (p *Procedures) Names() []string {
	names := make([]string, 0, len(p.names))
	for name := range p.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has returns true if a procedure with the provided name was discovered.
func (p *Procedures) Has(name string) bool {
	_, ok := p.names[name]
	return ok
}

// CallStmt represents a CALL statement for a stored procedure
type CallStmt struct {
	*Statement
	Procedure string
	params    string
}

// Prepare creates a CallStmt for the named procedure, escaping every
// argument. Unknown procedures fail with ErrUnknownProcedure.
func (p *Procedures) Prepare(name string, args ...interface{}) *CallStmt {
	params := make([]string, 0, len(args))
	for _, arg := range args {
		params = append(params, p.db.dialect.Escape(arg))
	}
	return p.PrepareRaw(name, strings.Join(params, ", "))
}

// PrepareRaw creates a CallStmt for the named procedure with a parameter
// list written directly in SQL. The list is used verbatim.
func (p *Procedures) PrepareRaw(name, params string) *CallStmt {
	stmt := &CallStmt{
		Statement: p.db.statement(),
		Procedure: name,
		params:    params,
	}
	if !p.Has(name) {
		stmt.fail(fmt.Errorf("%w: %q", ErrUnknownProcedure, name))
	}
	return stmt
}

// Call runs the named procedure with escaped arguments and returns the
// rows of its first result set.
func (p *Procedures) Call(ctx context.Context, name string, args ...interface{}) ([]Row, error) {
	return p.Prepare(name, args...).Execute(ctx)
}

// ToSQL generates the CALL statement's SQL.
func (stmt *CallStmt) ToSQL() (string, error) {
	if err := stmt.check(); err != nil {
		return "", err
	}
	return "CALL " + stmt.Procedure + "(" + stmt.params + ")", nil
}

// Execute runs the procedure.
func (stmt *CallStmt) Execute(ctx context.Context) (rows []Row, err error) {
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

// Call runs a discovered stored procedure. It fails with
// ErrProceduresDisabled if the DB was opened without procedure discovery.
func (db *DB) Call(ctx context.Context, name string, args ...interface{}) ([]Row, error) {
	if db.procs == nil {
		return nil, ErrProceduresDisabled
	}
	return db.procs.Call(ctx, name, args...)
}

// CallRaw runs a discovered stored procedure with a parameter list written
// directly in SQL. The list is used verbatim; prefer Call.
func (db *DB) CallRaw(ctx context.Context, name, params string) ([]Row, error) {
	if db.procs == nil {
		return nil, ErrProceduresDisabled
	}
	return db.procs.PrepareRaw(name, params).Execute(ctx)
}

package sqlhelper

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"syscall"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// Sentinel errors returned by statements and the procedure registry.
var (
	// ErrNoRowsAffected is returned by Exec when a write statement ran
	// successfully but did not change any row.
	ErrNoRowsAffected = errors.New("sqlhelper: no rows affected")

	// ErrEmptyValues is returned when an INSERT or UPDATE has nothing to write.
	ErrEmptyValues = errors.New("sqlhelper: no values to write")

	// ErrUnsafeStatement is returned when a DELETE or UPDATE has no
	// conditions and was not explicitly marked with All.
	ErrUnsafeStatement = errors.New("sqlhelper: refusing to modify all rows without All()")

	// ErrInvalidIdentifier is returned when a table or column name is not a
	// plain SQL identifier.
	ErrInvalidIdentifier = errors.New("sqlhelper: invalid identifier")

	// ErrInvalidJoin is returned for a JoinType outside of InnerJoin..FullJoin.
	ErrInvalidJoin = errors.New("sqlhelper: invalid join type")

	// ErrInvalidPagination is returned for negative page, limit or offset values.
	ErrInvalidPagination = errors.New("sqlhelper: invalid pagination")

	// ErrStatementConsumed is returned when a statement is executed twice.
	ErrStatementConsumed = errors.New("sqlhelper: statement already executed")

	// ErrUnknownProcedure is returned when calling a procedure that was not
	// discovered at startup.
	ErrUnknownProcedure = errors.New("sqlhelper: unknown stored procedure")

	// ErrProceduresDisabled is returned by DB.Call when procedure discovery
	// was not enabled.
	ErrProceduresDisabled = errors.New("sqlhelper: stored procedures are disabled")
)

// ConnCode classifies connection-level failures.
type ConnCode int

// ConnectionLost means an established connection was closed underneath us.
// TooManyConnections means the server refused a new connection because of
// its connection limit. AccessDenied means authentication failed.
// ConnectionRefused means the server could not be reached at all.
// Unknown covers every other failure to obtain a connection.
const (
	Unknown ConnCode = iota
	ConnectionLost
	TooManyConnections
	AccessDenied
	ConnectionRefused
)

// String returns the string representation of the code
func (c ConnCode) String() string {
	switch c {
	case ConnectionLost:
		return "CONNECTION_LOST"
	case TooManyConnections:
		return "TOO_MANY_CONNECTIONS"
	case AccessDenied:
		return "ACCESS_DENIED"
	case ConnectionRefused:
		return "CONNECTION_REFUSED"
	default:
		return "UNKNOWN"
	}
}

// Message returns a human readable description of the code, suitable for
// startup logs.
func (c ConnCode) Message() string {
	switch c {
	case ConnectionLost:
		return "database connection was closed"
	case TooManyConnections:
		return "database has too many connections"
	case AccessDenied:
		return "access denied for database user and password"
	case ConnectionRefused:
		return "database connection was refused"
	default:
		return "database connection failed"
	}
}

// ConnectionError is returned when a connection could not be obtained from
// the pool, or was lost while a query was running.
type ConnectionError struct {
	Code ConnCode
	Err  error
}

// Error returns the error string.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("sqlhelper: [%s] %s: %v", e.Code, e.Code.Message(), e.Err)
}

// Unwrap returns the underlying driver error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// QueryError is returned when the database rejected a query. Code holds the
// driver-reported error code (MySQL error number or PostgreSQL SQLSTATE)
// when one is available.
type QueryError struct {
	Code  string
	Query string
	Err   error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("sqlhelper: [%s] %v at '%s'", e.Code, e.Err, e.Query)
	}
	return fmt.Sprintf("sqlhelper: %v at '%s'", e.Err, e.Query)
}

// Unwrap returns the underlying driver error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// DiscoveryError is returned when stored procedures could not be listed.
type DiscoveryError struct {
	Database string
	Err      error
}

// Error returns the error string.
func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("sqlhelper: failed discovering procedures of %q: %v", e.Database, e.Err)
}

// Unwrap returns the underlying error.
func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// IsConnectionError returns true if the error is, or wraps, a ConnectionError.
func IsConnectionError(err error) bool {
	var e *ConnectionError
	return errors.As(err, &e)
}

// IsQueryError returns true if the error is, or wraps, a QueryError.
func IsQueryError(err error) bool {
	var e *QueryError
	return errors.As(err, &e)
}

// MySQL server error numbers that indicate connection trouble.
const (
	mysqlTooManyConnections = 1040
	mysqlDBAccessDenied     = 1044
	mysqlAccessDenied       = 1045
	mysqlServerGone         = 2006
	mysqlServerLost         = 2013
)

// PostgreSQL SQLSTATE codes that indicate connection trouble.
const (
	pgTooManyConnections     = "53300"
	pgInvalidAuthorization   = "28000"
	pgInvalidPassword        = "28P01"
	pgConnectionFailure      = "08006"
	pgConnectionDoesNotExist = "08003"
	pgAdminShutdown          = "57P01"
)

// connectionCode inspects err and reports whether it is a connection-level
// failure, and which one.
func connectionCode(err error) (ConnCode, bool) {
	if err == nil {
		return Unknown, false
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return ConnectionLost, true
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return ConnectionRefused, true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlTooManyConnections:
			return TooManyConnections, true
		case mysqlAccessDenied, mysqlDBAccessDenied:
			return AccessDenied, true
		case mysqlServerGone, mysqlServerLost:
			return ConnectionLost, true
		}
		return Unknown, false
	}

	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		switch string(pgErr.Code) {
		case pgTooManyConnections:
			return TooManyConnections, true
		case pgInvalidAuthorization, pgInvalidPassword:
			return AccessDenied, true
		case pgConnectionFailure, pgConnectionDoesNotExist, pgAdminShutdown:
			return ConnectionLost, true
		}
		return Unknown, false
	}

	// fallback to string matching for drivers that don't expose codes
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"):
		return ConnectionRefused, true
	case strings.Contains(msg, "too many connections"):
		return TooManyConnections, true
	case strings.Contains(msg, "access denied"):
		return AccessDenied, true
	case strings.Contains(msg, "connection reset"), strings.Contains(msg, "broken pipe"):
		return ConnectionLost, true
	}

	return Unknown, false
}

// errorCode extracts the driver-reported error code from err, if any.
func errorCode(err error) string {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return strconv.Itoa(int(myErr.Number))
	}

	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return string(pgErr.Code)
	}

	return ""
}

// classify converts a driver error raised while running query into either
// a ConnectionError or a QueryError.
func classify(query string, err error) error {
	if err == nil {
		return nil
	}

	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return err
	}

	if code, ok := connectionCode(err); ok {
		return &ConnectionError{Code: code, Err: err}
	}

	return &QueryError{Code: errorCode(err), Query: query, Err: err}
}

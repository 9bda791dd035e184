package sqlhelper

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Row is a single result row, mapping column names to values. Text values
// returned by the driver as byte slices are converted to strings.
type Row map[string]interface{}

// Get returns the value of a column, matching the name case-insensitively
// if there is no exact match.
func (r Row) Get(col string) (interface{}, bool) {
	if val, ok := r[col]; ok {
		return val, true
	}
	for key, val := range r {
		if strings.EqualFold(key, col) {
			return val, true
		}
	}
	return nil, false
}

// String returns the value of a column as a string.
func (r Row) String(col string) string {
	val, ok := r.Get(col)
	if !ok || val == nil {
		return ""
	}
	return fmt.Sprint(val)
}

// Int64 returns the value of a column as an int64.
func (r Row) Int64(col string) (int64, error) {
	val, ok := r.Get(col)
	if !ok {
		return 0, fmt.Errorf("sqlhelper: no column %q in row", col)
	}
	switch v := val.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("sqlhelper: column %q is %T, not an integer", col, val)
	}
}

func scanRows(rows *sqlx.Rows) ([]Row, error) {
	results := []Row{}
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		for col, val := range row {
			if b, isBytes := val.([]byte); isBytes {
				row[col] = string(b)
			}
		}
		results = append(results, Row(row))
	}
	return results, rows.Err()
}

// Result describes the outcome of a write statement.
type Result struct {
	// RowsAffected is the number of rows changed by the statement
	RowsAffected int64
	// LastInsertID is the id generated by an INSERT, if the driver
	// reports one
	LastInsertID int64
}

// OK returns true if the statement changed at least one row.
func (r Result) OK() bool {
	return r.RowsAffected > 0
}

func newResult(res sql.Result) Result {
	var result Result
	// drivers that don't support either value return an error we ignore
	if n, err := res.RowsAffected(); err == nil {
		result.RowsAffected = n
	}
	if id, err := res.LastInsertId(); err == nil {
		result.LastInsertID = id
	}
	return result
}

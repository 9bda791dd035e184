package sqlhelper

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// IndirectValue represents a reference to a database name
// (e.g. column, function) that should be used as-is in a
// query rather than escaped as a literal.
type IndirectValue struct {
	Reference string
}

// Indirect receives a string and injects it into a query
// as-is rather than as an escaped literal. Use this when
// comparing columns, modifying columns based on their (or
// others') existing values, using database functions, etc.
// Never use this with user-supplied input, as this may
// open the door for SQL injections!
func Indirect(value string) IndirectValue {
	return IndirectValue{value}
}

// timeFormat is the literal format used for time.Time values.
const timeFormat = "2006-01-02 15:04:05.999999"

// Escape renders value as an SQL literal for the dialect. Strings are
// quoted and escaped, numbers and booleans are written bare, nil becomes
// NULL, byte slices become hex literals and time values are quoted in
// "YYYY-MM-DD HH:MM:SS" form. Values implementing driver.Valuer are
// converted first. Pointers are dereferenced, a nil pointer becomes NULL.
// IndirectValue is written verbatim, UpdateFunction as a function call
// with escaped arguments.
func (d Dialect) Escape(value interface{}) string {
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return "NULL"
		}
		// keep the pointer if only it implements driver.Valuer
		elem := rv.Elem().Interface()
		_, ptrValuer := value.(driver.Valuer)
		_, elemValuer := elem.(driver.Valuer)
		if !ptrValuer || elemValuer {
			return d.Escape(elem)
		}
	}

	switch v := value.(type) {
	case nil:
		return "NULL"
	case IndirectValue:
		return v.Reference
	case UpdateFunction:
		args := make([]string, 0, len(v.Arguments))
		for _, arg := range v.Arguments {
			args = append(args, d.Escape(arg))
		}
		return v.Name + "(" + strings.Join(args, ", ") + ")"
	case string:
		return d.quote(v)
	case []byte:
		if v == nil {
			return "NULL"
		}
		if d == Postgres {
			return `'\x` + hex.EncodeToString(v) + `'`
		}
		return "X'" + hex.EncodeToString(v) + "'"
	case time.Time:
		return d.quote(v.Format(timeFormat))
	case driver.Valuer:
		val, err := v.Value()
		if err != nil {
			return d.quote(fmt.Sprint(value))
		}
		return d.Escape(val)
	case fmt.Stringer:
		return d.quote(v.String())
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return "TRUE"
		}
		return "FALSE"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64)
	case reflect.String:
		return d.quote(rv.String())
	case reflect.Slice, reflect.Array:
		// lists are rendered as comma separated literals, for IN conditions
		items := make([]string, rv.Len())
		for i := range items {
			items[i] = d.Escape(rv.Index(i).Interface())
		}
		return strings.Join(items, ", ")
	}

	return d.quote(fmt.Sprint(value))
}

// quote wraps s in single quotes. MySQL treats the backslash as an escape
// character, so control characters and quotes are backslash-escaped there;
// the other dialects follow standard SQL and only double single quotes.
func (d Dialect) quote(s string) string {
	if d != MySQL {
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}

	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case 0:
			b.WriteString(`\0`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\x1a':
			b.WriteString(`\Z`)
		case '\'':
			b.WriteString(`\'`)
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

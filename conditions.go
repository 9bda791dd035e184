package sqlhelper

import (
	"reflect"
	"sort"
	"strings"
)

// WhereCondition is an interface describing conditions
// that can be used inside an SQL WHERE clause. It defines
// the Parse function that generates SQL from the condition(s),
// escaping any literal values for the provided dialect.
type WhereCondition interface {
	Parse(d Dialect) (asSQL string, err error)
}

// SimpleCondition represents the most basic WHERE
// condition, where one left-value (usually a column)
// is compared with a right-value using an operator (e.g.
// "=", "<>", ">=", ...)
type SimpleCondition struct {
	Left     string
	Right    interface{}
	Operator string
}

// AndOrCondition represents a group of AND or OR
// conditions.
type AndOrCondition struct {
	Or         bool
	Conditions []WhereCondition
}

// SQLCondition represents a condition written directly in
// SQL. It is used verbatim, so never build one from
// user-supplied input.
type SQLCondition struct {
	Condition string
}

// InCondition is a struct representing IN and NOT IN conditions
type InCondition struct {
	NotIn bool
	Left  string
	Right []interface{}
}

// And joins multiple where conditions as an AndOrCondition
// (representing AND conditions).
func And(conds ...WhereCondition) AndOrCondition {
	return AndOrCondition{false, conds}
}

// Or joins multiple where conditions as an AndOrCondition
// (representing OR conditions).
func Or(conds ...WhereCondition) AndOrCondition {
	return AndOrCondition{true, conds}
}

// Eq represents a simple equality condition ("=" operator)
func Eq(col string, value interface{}) SimpleCondition {
	return SimpleCondition{col, value, "="}
}

// Ne represents a simple non-equality condition ("<>" operator)
func Ne(col string, value interface{}) SimpleCondition {
	return SimpleCondition{col, value, "<>"}
}

// Gt represents a simple greater-than condition (">" operator)
func Gt(col string, value interface{}) SimpleCondition {
	return SimpleCondition{col, value, ">"}
}

// Gte represents a simple greater-than-or-equals condition (">=" operator)
func Gte(col string, value interface{}) SimpleCondition {
	return SimpleCondition{col, value, ">="}
}

// Lt represents a simple less-than condition ("<" operator)
func Lt(col string, value interface{}) SimpleCondition {
	return SimpleCondition{col, value, "<"}
}

// Lte represents a simple less-than-or-equals condition ("<=" operator)
func Lte(col string, value interface{}) SimpleCondition {
	return SimpleCondition{col, value, "<="}
}

// Like represents a wildcard equality condition ("LIKE" operator)
func Like(col string, value interface{}) SimpleCondition {
	return SimpleCondition{col, value, "LIKE"}
}

// IsNull represents a simple nullity condition ("IS NULL" operator)
func IsNull(col string) SimpleCondition {
	return SimpleCondition{col, nil, "IS NULL"}
}

// IsNotNull represents a simple non-nullity condition ("IS NOT NULL" operator)
func IsNotNull(col string) SimpleCondition {
	return SimpleCondition{col, nil, "IS NOT NULL"}
}

// In creates an IN condition for matching the value of a column
// against an array of possible values
func In(col string, values ...interface{}) InCondition {
	return InCondition{false, col, values}
}

// NotIn creates a NOT IN condition for checking that the value
// of a column is not one of the defined values
func NotIn(col string, values ...interface{}) InCondition {
	return InCondition{true, col, values}
}

// SQLCond creates an SQL condition, allowing to use complex SQL conditions
// that are not supported by sqlhelper. The condition is used verbatim.
func SQLCond(condition string) SQLCondition {
	return SQLCondition{condition}
}

// WhereMap converts a map of column names to values into equality
// conditions, sorted by column name. A nil value produces an IS NULL
// condition, a slice value produces an IN condition.
func WhereMap(where map[string]interface{}) []WhereCondition {
	cols := make([]string, 0, len(where))
	for col := range where {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	conds := make([]WhereCondition, 0, len(cols))
	for _, col := range cols {
		val := where[col]
		if val == nil {
			conds = append(conds, IsNull(col))
			continue
		}
		if rv := reflect.ValueOf(val); rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 {
			items := make([]interface{}, rv.Len())
			for i := range items {
				items[i] = rv.Index(i).Interface()
			}
			conds = append(conds, In(col, items...))
			continue
		}
		conds = append(conds, Eq(col, val))
	}

	return conds
}

// Parse implements the WhereCondition interface, generating SQL from
// the condition
func (simple SimpleCondition) Parse(d Dialect) (asSQL string, err error) {
	if err := checkIdentifier(simple.Left); err != nil {
		return "", err
	}

	asSQL = simple.Left + " " + simple.Operator

	if simple.Right != nil {
		asSQL += " " + d.Escape(simple.Right)
	}

	return asSQL, nil
}

// Parse implements the WhereCondition interface, generating SQL from
// the condition
func (cond SQLCondition) Parse(_ Dialect) (asSQL string, err error) {
	return cond.Condition, nil
}

// Parse implements the WhereCondition interface, generating SQL from
// the condition
func (in InCondition) Parse(d Dialect) (asSQL string, err error) {
	if err := checkIdentifier(in.Left); err != nil {
		return "", err
	}

	if len(in.Right) == 0 {
		// nothing is IN an empty list, everything is NOT IN it
		if in.NotIn {
			return "1 = 1", nil
		}
		return "1 = 0", nil
	}

	asSQL = in.Left
	if in.NotIn {
		asSQL += " NOT"
	}

	values := make([]string, 0, len(in.Right))
	for _, val := range in.Right {
		values = append(values, d.Escape(val))
	}

	return asSQL + " IN (" + strings.Join(values, ", ") + ")", nil
}

// Parse implements the WhereCondition interface, generating SQL from
// the condition
func (andOr AndOrCondition) Parse(d Dialect) (asSQL string, err error) {
	sqls := make([]string, 0, len(andOr.Conditions))
	for _, cond := range andOr.Conditions {
		innerSQL, err := cond.Parse(d)
		if err != nil {
			return "", err
		}
		sqls = append(sqls, innerSQL)
	}
	op := " AND "
	if andOr.Or {
		op = " OR "
	}
	return "(" + strings.Join(sqls, op) + ")", nil
}

func parseConditions(d Dialect, conds []WhereCondition) (asSQL string, err error) {
	var grouped bool

	switch {
	case len(conds) > 1:
		asSQL, err = (AndOrCondition{false, conds}).Parse(d)
		grouped = true
	case len(conds) == 1:
		asSQL, err = conds[0].Parse(d)
		_, grouped = conds[0].(AndOrCondition)
	}
	if err != nil {
		return "", err
	}

	if grouped {
		asSQL = strings.TrimPrefix(strings.TrimSuffix(asSQL, ")"), "(")
	}

	return asSQL, nil
}

// matchesAll reports whether conds restrict nothing, such as a lone NOT IN
// with an empty list.
func matchesAll(conds []WhereCondition) bool {
	if len(conds) == 0 {
		return true
	}
	for _, cond := range conds {
		if !alwaysTrue(cond) {
			return false
		}
	}
	return true
}

func alwaysTrue(cond WhereCondition) bool {
	switch c := cond.(type) {
	case InCondition:
		return c.NotIn && len(c.Right) == 0
	case AndOrCondition:
		if !c.Or {
			return matchesAll(c.Conditions)
		}
		for _, sub := range c.Conditions {
			if alwaysTrue(sub) {
				return true
			}
		}
	}
	return false
}

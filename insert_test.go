package sqlhelper

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInsert(t *testing.T) {
	runTests(t, func(dbh *DB) []test {
		return []test{
			{
				"insert with value map",
				dbh.Table("users").Insert(map[string]interface{}{"name": "My Name", "id": 1}),
				"INSERT INTO users (id, name) VALUES (1, 'My Name')",
				nil,
			},

			{
				"insert with chained columns",
				dbh.Table("users").Insert(nil).Set("name", "My Name").Set("active", true).Set("deleted_at", nil),
				"INSERT INTO users (name, active, deleted_at) VALUES ('My Name', TRUE, NULL)",
				nil,
			},

			{
				"insert escapes quotes",
				dbh.Table("users").Insert(map[string]interface{}{"name": `O'Brien "Bob" \`}),
				`INSERT INTO users (name) VALUES ('O\'Brien \"Bob\" \\')`,
				nil,
			},

			{
				"insert with nullable pointers",
				dbh.Table("users").Insert(map[string]interface{}{
					"deleted_at": (*time.Time)(nil),
					"nickname":   (*sql.NullString)(nil),
				}),
				"INSERT INTO users (deleted_at, nickname) VALUES (NULL, NULL)",
				nil,
			},

			{
				"insert with an sql function",
				dbh.Table("users").Insert(map[string]interface{}{"created_at": Indirect("NOW()")}),
				"INSERT INTO users (created_at) VALUES (NOW())",
				nil,
			},

			{
				"insert without values",
				dbh.Table("users").Insert(map[string]interface{}{}),
				"",
				ErrEmptyValues,
			},

			{
				"insert into an invalid column",
				dbh.Table("users").Insert(map[string]interface{}{"name) VALUES ('x'); --": 1}),
				"",
				ErrInvalidIdentifier,
			},

			{
				"insert into an invalid table",
				dbh.Table("users; DROP TABLE users").Insert(map[string]interface{}{"id": 1}),
				"",
				ErrInvalidIdentifier,
			},
		}
	})
}

func TestInsertFieldsAlignWithValues(t *testing.T) {
	dbh, _ := newMockDB(t)

	inputs := []map[string]interface{}{
		{"a": 1},
		{"a": "x", "b": "it's", "c": nil},
		{"name": "O'Reilly", "bio": `back\slash`, "age": 42, "score": 1.5, "ok": false},
	}

	for _, values := range inputs {
		stmt := dbh.Table("people").Insert(values)
		assert.Len(t, stmt.fields, len(values))
		assert.Len(t, stmt.values, len(stmt.fields))

		for _, val := range stmt.values {
			if !strings.HasPrefix(val, "'") {
				continue
			}
			// every quote inside a string literal must be escaped
			inner := val[1 : len(val)-1]
			assert.NotContains(t, strings.ReplaceAll(inner, `\'`, ""), "'", val)
		}
	}
}

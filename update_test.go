package sqlhelper

import "testing"

func TestUpdate(t *testing.T) {
	runTests(t, func(dbh *DB) []test {
		return []test{
			{
				"simple update",
				dbh.Table("users").Update(map[string]interface{}{"name": "x"}, map[string]interface{}{"id": 5}),
				"UPDATE users SET name = 'x' WHERE id = 5",
				nil,
			},

			{
				"update with multiple columns and conditions",
				dbh.Table("users").Update(
					map[string]interface{}{"something": 3, "active": true, "bio": "it's"},
					map[string]interface{}{"id": 123, "tenant": "acme"},
				),
				`UPDATE users SET active = TRUE, bio = 'it\'s', something = 3 WHERE id = 123 AND tenant = 'acme'`,
				nil,
			},

			{
				"update with chained setters",
				dbh.Table("users").Update(nil, nil).Set("something", nil).Where(Eq("id", 123), Gte("date", 109234234)),
				"UPDATE users SET something = NULL WHERE id = 123 AND date >= 109234234",
				nil,
			},

			{
				"update with sql expressions",
				dbh.Table("users").Update(map[string]interface{}{
					"logins": Indirect("logins + 1"),
					"name":   Func("UPPER", Indirect("name")),
					"email":  Func("LOWER", "Bob@Example.com"),
				}, map[string]interface{}{"id": 1}),
				"UPDATE users SET email = LOWER('Bob@Example.com'), logins = logins + 1, name = UPPER(name) WHERE id = 1",
				nil,
			},

			{
				"update of all rows must be explicit",
				dbh.Table("users").Update(map[string]interface{}{"active": false}, nil).All(),
				"UPDATE users SET active = FALSE",
				nil,
			},

			{
				"update with an empty not in list",
				dbh.Table("users").Update(map[string]interface{}{"active": false}, nil).Where(NotIn("role")),
				"",
				ErrUnsafeStatement,
			},

			{
				"update without conditions",
				dbh.Table("users").Update(map[string]interface{}{"active": false}, map[string]interface{}{}),
				"",
				ErrUnsafeStatement,
			},

			{
				"update without values",
				dbh.Table("users").Update(nil, map[string]interface{}{"id": 1}),
				"",
				ErrEmptyValues,
			},

			{
				"update of an invalid column",
				dbh.Table("users").Update(map[string]interface{}{"name = 'x', admin": 1}, map[string]interface{}{"id": 1}),
				"",
				ErrInvalidIdentifier,
			},
		}
	})
}

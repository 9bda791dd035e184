package sqlhelper

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"
)

const createUsers = `CREATE TABLE users (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT,
	age INTEGER,
	active BOOLEAN NOT NULL DEFAULT FALSE
)`

// newSQLiteDB opens an in-memory database. The pool is capped at one
// connection since every sqlite memory connection is a separate database.
func newSQLiteDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	dbh, err := Open(ctx, Config{
		Driver:          "sqlite",
		DSN:             ":memory:",
		ConnectionLimit: 1,
		UseProcedures:   true,
	}, WithLogger(quietLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { dbh.Close() })

	_, err = dbh.Raw(createUsers).Exec(ctx)
	require.NoError(t, err)

	return dbh
}

func TestOpen(t *testing.T) {
	dbh := newSQLiteDB(t)

	assert.Equal(t, SQLite, dbh.Dialect())
	assert.Equal(t, DefaultPageSize, dbh.PageSize())
	require.NotNil(t, dbh.Procedures())
	assert.Empty(t, dbh.Procedures().Names())
	assert.Equal(t, 1, dbh.PoolStats().MaxOpenConnections)

	_, err := Open(context.Background(), Config{Driver: "nosuchdriver"}, WithLogger(quietLogger()))
	assert.Error(t, err)
}

func TestInsertExistDelete(t *testing.T) {
	dbh := newSQLiteDB(t)
	ctx := context.Background()

	ok, err := dbh.Insert(ctx, "users", map[string]interface{}{"name": "alice", "age": 30, "active": true})
	require.NoError(t, err)
	assert.True(t, ok)

	exists, err := dbh.Exist(ctx, "users", map[string]interface{}{"name": "alice"})
	require.NoError(t, err)
	assert.True(t, exists)

	ok, err = dbh.Delete(ctx, "users", map[string]interface{}{"name": "alice"})
	require.NoError(t, err)
	assert.True(t, ok)

	exists, err = dbh.Exist(ctx, "users", map[string]interface{}{"name": "alice"})
	require.NoError(t, err)
	assert.False(t, exists)

	ok, err = dbh.Delete(ctx, "users", map[string]interface{}{"name": "alice"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateThenExpose(t *testing.T) {
	dbh := newSQLiteDB(t)
	ctx := context.Background()

	res, err := dbh.Table("users").Insert(map[string]interface{}{"name": "bob"}).Exec(ctx)
	require.NoError(t, err)
	require.Positive(t, res.LastInsertID)

	ok, err := dbh.Update(ctx, "users", map[string]interface{}{"name": "x", "email": nil}, map[string]interface{}{"id": res.LastInsertID})
	require.NoError(t, err)
	assert.True(t, ok)

	row, err := dbh.Table("users").Expose(ExposeOptions{Where: map[string]interface{}{"id": res.LastInsertID}}).GetRow(ctx)
	require.NoError(t, err)
	assert.Equal(t, "x", row.String("name"))
	assert.Nil(t, row["email"])
}

func TestInjectionRoundTrip(t *testing.T) {
	dbh := newSQLiteDB(t)
	ctx := context.Background()

	names := []string{
		`Robert'); DROP TABLE users; --`,
		`O'Brien "Bob" \`,
		`' OR '1'='1`,
	}

	for _, name := range names {
		ok, err := dbh.Insert(ctx, "users", map[string]interface{}{"name": name})
		require.NoError(t, err)
		require.True(t, ok)
	}

	for _, name := range names {
		rows, err := dbh.Expose(ctx, "users", ExposeOptions{Where: map[string]interface{}{"name": name}})
		require.NoError(t, err)
		require.Len(t, rows, 1, name)
		assert.Equal(t, name, rows[0].String("name"))
	}

	count, err := dbh.Table("users").Is(nil).Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, len(names), count)
}

func TestPagination(t *testing.T) {
	dbh := newSQLiteDB(t)
	ctx := context.Background()

	for i := 1; i <= 25; i++ {
		_, err := dbh.Table("users").Insert(map[string]interface{}{
			"id":     i,
			"name":   fmt.Sprintf("user%02d", i),
			"active": i%2 == 0,
		}).Exec(ctx)
		require.NoError(t, err)
	}

	rows, err := dbh.Expose(ctx, "users", ExposeOptions{
		Fields:  []string{"id"},
		OrderBy: []OrderColumn{Asc("id")},
		Page:    2,
		Limit:   10,
	})
	require.NoError(t, err)
	require.Len(t, rows, 10)
	for i, row := range rows {
		id, err := row.Int64("id")
		require.NoError(t, err)
		assert.EqualValues(t, 11+i, id)
	}

	rows, err = dbh.Expose(ctx, "users", ExposeOptions{Page: 1})
	require.NoError(t, err)
	assert.Len(t, rows, 25)

	rows, err = dbh.Expose(ctx, "users", ExposeOptions{
		Fields:  []string{"id"},
		OrderBy: []OrderColumn{Asc("id")},
		Offset:  20,
	})
	require.NoError(t, err)
	require.Len(t, rows, 5)
	id, err := rows[0].Int64("id")
	require.NoError(t, err)
	assert.EqualValues(t, 21, id)

	count, err := dbh.Table("users").Expose(ExposeOptions{
		Where: map[string]interface{}{"active": true},
		Page:  2,
		Limit: 5,
	}).GetCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 12, count)

	type user struct {
		ID    int64          `db:"id"`
		Name  string         `db:"name"`
		Email sql.NullString `db:"email"`
	}
	var users []user
	err = dbh.Table("users").Expose(ExposeOptions{
		Fields:  []string{"id", "name", "email"},
		OrderBy: []OrderColumn{Desc("id")},
		Limit:   3,
	}).Scan(ctx, &users)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "user25", users[0].Name)
	assert.False(t, users[0].Email.Valid)
}

func TestConcurrentStatementsAreIsolated(t *testing.T) {
	dbh := newSQLiteDB(t)
	g, ctx := errgroup.WithContext(context.Background())

	for i := 0; i < 20; i++ {
		i := i
		g.Go(func() error {
			name := fmt.Sprintf("worker%d", i)

			stmt := dbh.Table("users").Expose(ExposeOptions{Where: map[string]interface{}{"name": name}})
			asSQL, err := stmt.ToSQL()
			if err != nil {
				return err
			}
			if expected := "SELECT * FROM users WHERE name = '" + name + "'"; asSQL != expected {
				return fmt.Errorf("expected %q, got %q", expected, asSQL)
			}

			if _, err := dbh.Insert(ctx, "users", map[string]interface{}{"name": name, "age": i}); err != nil {
				return err
			}

			rows, err := stmt.GetAll(ctx)
			if err != nil {
				return err
			}
			if len(rows) != 1 || rows[0].String("name") != name {
				return fmt.Errorf("%s: unexpected rows %v", name, rows)
			}
			return nil
		})
	}

	require.NoError(t, g.Wait())

	count, err := dbh.Table("users").Is(nil).Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 20, count)
}

func TestUnsafeWrites(t *testing.T) {
	dbh := newSQLiteDB(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		_, err := dbh.Insert(ctx, "users", map[string]interface{}{"name": name})
		require.NoError(t, err)
	}

	_, err := dbh.Update(ctx, "users", map[string]interface{}{"active": true}, nil)
	assert.ErrorIs(t, err, ErrUnsafeStatement)

	_, err = dbh.Delete(ctx, "users", map[string]interface{}{})
	assert.ErrorIs(t, err, ErrUnsafeStatement)

	exists, err := dbh.Exist(ctx, "users", nil)
	require.NoError(t, err)
	assert.True(t, exists)

	res, err := dbh.Table("users").Update(map[string]interface{}{"active": true}, nil).All().Exec(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.RowsAffected)

	res, err = dbh.Table("users").Delete(nil).All().Exec(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.RowsAffected)

	exists, err = dbh.Exist(ctx, "users", nil)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRawQueryError(t *testing.T) {
	dbh := newSQLiteDB(t)

	_, err := dbh.Raw("SELECT * FROM missing_table").Execute(context.Background())
	require.Error(t, err)
	assert.True(t, IsQueryError(err))
	assert.False(t, IsConnectionError(err))
	assert.Contains(t, err.Error(), "SELECT * FROM missing_table")
}

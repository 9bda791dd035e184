package main

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/ido50/sqlhelper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func useSQLite(t *testing.T) {
	t.Helper()
	t.Setenv("SQLHELPER_DATABASE_DRIVER", "sqlite")
	t.Setenv("SQLHELPER_DATABASE_NAME", filepath.Join(t.TempDir(), "test.db"))
	t.Setenv("SQLHELPER_LOG_LEVEL", "error")
}

func TestQueryCommand(t *testing.T) {
	useSQLite(t)

	out, err := runCommand(t, "query", "--exec", "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)")
	require.NoError(t, err)
	assert.Contains(t, out, "0 row(s) affected")

	out, err = runCommand(t, "query", "-e", "INSERT INTO users (name) VALUES ('alice')")
	require.NoError(t, err)
	assert.Contains(t, out, "1 row(s) affected")

	out, err = runCommand(t, "query", "SELECT id, name FROM users")
	require.NoError(t, err)
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "1 row(s)")

	out, err = runCommand(t, "query", "SELECT * FROM users WHERE id = 2")
	require.NoError(t, err)
	assert.Contains(t, out, "no rows")

	_, err = runCommand(t, "query", "SELECT * FROM missing_table")
	assert.True(t, sqlhelper.IsQueryError(err))

	_, err = runCommand(t, "query")
	assert.Error(t, err)
}

func TestPingCommand(t *testing.T) {
	useSQLite(t)

	out, err := runCommand(t, "ping")
	require.NoError(t, err)
	assert.Contains(t, out, "connected (sqlite)")
}

func TestProceduresCommand(t *testing.T) {
	useSQLite(t)

	out, err := runCommand(t, "procedures")
	require.NoError(t, err)
	assert.Contains(t, out, "no stored procedures found")

	_, err = runCommand(t, "procedures", "call", "get_user", "5")
	assert.ErrorIs(t, err, sqlhelper.ErrUnknownProcedure)
}

func TestInvalidConfig(t *testing.T) {
	t.Setenv("SQLHELPER_DATABASE_DRIVER", "oracle")

	_, err := runCommand(t, "ping")
	assert.ErrorContains(t, err, "unsupported database driver")
}

package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openRawDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file:"+filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}

func countRows(t *testing.T, db *sql.DB, query string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(query).Scan(&n))
	return n
}

func TestApplyMigrationsRecordsEachFileOnce(t *testing.T) {
	db := openRawDB(t)
	ctx := context.Background()
	fsys := fstest.MapFS{
		"001_items.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREATE TABLE items(id INTEGER PRIMARY KEY);\n-- +migrate Down\nDROP TABLE items;")},
		"002_tags.sql":  &fstest.MapFile{Data: []byte("CREATE TABLE tags(id INTEGER PRIMARY KEY);")},
		"README.md":     &fstest.MapFile{Data: []byte("not a migration")},
	}

	require.NoError(t, applyMigrations(ctx, db, fsys, ""))
	require.NoError(t, applyMigrations(ctx, db, fsys, "."))

	assert.Equal(t, 2, countRows(t, db, "SELECT COUNT(*) FROM schema_migrations"))
	assert.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='items'"))
	assert.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='tags'"))
}

func TestApplyMigrationsDoesNotRecordFailure(t *testing.T) {
	db := openRawDB(t)
	ctx := context.Background()

	bad := fstest.MapFS{
		"001_bad.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREAT TABLE things(id INT);")},
	}
	require.Error(t, applyMigrations(ctx, db, bad, ""))
	assert.Equal(t, 0, countRows(t, db, "SELECT COUNT(*) FROM schema_migrations"))

	fixed := fstest.MapFS{
		"001_bad.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREATE TABLE things(id INTEGER PRIMARY KEY);")},
	}
	require.NoError(t, applyMigrations(ctx, db, fixed, ""))
	assert.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM schema_migrations"))
}

func TestApplyMigrationsUsesRootInKey(t *testing.T) {
	db := openRawDB(t)
	fsys := fstest.MapFS{
		"schema/001_rows.sql": &fstest.MapFile{Data: []byte("CREATE TABLE event_rows(id INTEGER PRIMARY KEY);")},
	}
	require.NoError(t, applyMigrations(context.Background(), db, fsys, "schema"))

	var name string
	require.NoError(t, db.QueryRow("SELECT name FROM schema_migrations").Scan(&name))
	assert.Equal(t, "schema/001_rows.sql", name)
}

func TestUpSection(t *testing.T) {
	assert.Equal(t, "\nA;\n", upSection("-- +migrate Up\nA;\n-- +migrate Down\nB;"))
	assert.Equal(t, "\nA;", upSection("-- +migrate Up\nA;"))
	assert.Equal(t, "A;", upSection("A;"))
}

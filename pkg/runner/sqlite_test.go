package runner_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yusufsyaifudin/migtest/pkg/command"
	"github.com/yusufsyaifudin/migtest/pkg/connexec"
	"github.com/yusufsyaifudin/migtest/pkg/history"
	"github.com/yusufsyaifudin/migtest/pkg/migration"
	"github.com/yusufsyaifudin/migtest/pkg/runner"

	_ "modernc.org/sqlite"
)

var testScripts = []migration.Script{
	migration.Static{
		Revision: "1_users",
		UpSQL:    "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL)",
		DownSQL:  "DROP TABLE users",
	},
	migration.Static{
		Revision: "2_users_email",
		UpSQL:    "ALTER TABLE users ADD COLUMN email TEXT NOT NULL DEFAULT ''",
		DownSQL:  "ALTER TABLE users DROP COLUMN email",
	},
	migration.Static{
		Revision: "3_orders",
		UpSQL:    "CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER NOT NULL)",
		DownSQL:  "DROP TABLE orders",
	},
}

type sqliteBundle struct {
	db   *sqlx.DB
	dir  string
	exec *command.SQLMigrate
}

func setupSqlite(t *testing.T, seed map[string]connexec.SeedData) (*runner.Runner, *sqliteBundle) {
	t.Helper()
	ctx := context.Background()

	sqlDB, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db := sqlx.NewDb(sqlDB, "sqlite3")

	source, err := migration.MemorySource(ctx, testScripts...)
	require.NoError(t, err)

	bundle := &sqliteBundle{db: db, dir: t.TempDir()}
	bundle.exec, err = command.NewSQLMigrate(command.SQLMigrateConfig{
		DB:      sqlDB,
		Dialect: "sqlite3",
		Source:  source,
		Dir:     bundle.dir,
	})
	require.NoError(t, err)

	conn, err := connexec.NewSQL(connexec.SQLConfig{Conn: db})
	require.NoError(t, err)

	r, err := runner.New(runner.Config{
		Command:             command.WithLog(bundle.exec),
		Connection:          conn,
		RevisionUpgradeData: seed,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	return r, bundle
}

func tables(t *testing.T, db *sqlx.DB) []string {
	t.Helper()

	var out []string
	err := db.Select(&out, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	require.NoError(t, err)
	return out
}

func TestSqlite_ManagedUpgradeSeedsPreRevisionSchema(t *testing.T) {
	ctx := context.Background()

	// inserted before 2_users_email runs, so the row must not need the email column
	r, bundle := setupSqlite(t, map[string]connexec.SeedData{
		"2_users_email": {{Table: "users", Values: connexec.Row{"id": 1, "name": "john"}}},
	})

	current, err := r.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, history.Base, current)

	require.NoError(t, r.MigrateUpTo(ctx, "heads"))

	current, err = r.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3_orders", current)

	var email string
	require.NoError(t, bundle.db.Get(&email, `SELECT email FROM users WHERE id = 1`))
	assert.Equal(t, "", email)

	require.NoError(t, r.InsertInto(ctx, "orders", connexec.Row{"id": 1, "user_id": 1}))

	var count int
	require.NoError(t, bundle.db.Get(&count, `SELECT COUNT(*) FROM orders`))
	assert.Equal(t, 1, count)
}

func TestSqlite_StepwiseEqualsDirectUpgrade(t *testing.T) {
	ctx := context.Background()

	stepwise, stepwiseBundle := setupSqlite(t, nil)
	h, err := stepwise.History(ctx)
	require.NoError(t, err)

	revisions, err := h.RevisionRange(history.Base, "3_orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"1_users", "2_users_email", "3_orders"}, revisions)

	for _, rev := range revisions {
		_, err = stepwise.RawCommand(ctx, command.Upgrade{Target: command.Target(rev)})
		require.NoError(t, err)
	}

	_, directBundle := setupSqlite(t, nil)
	require.NoError(t, directBundle.exec.Upgrade(ctx, "3_orders"))

	current, err := stepwise.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3_orders", current)
	assert.Equal(t, tables(t, directBundle.db), tables(t, stepwiseBundle.db))
}

func TestSqlite_Roundtrip(t *testing.T) {
	ctx := context.Background()
	r, bundle := setupSqlite(t, nil)

	require.NoError(t, r.MigrateUpTo(ctx, "3_orders"))
	want := tables(t, bundle.db)

	require.NoError(t, r.MigrateDownTo(ctx, "2_users_email"))
	assert.NotContains(t, tables(t, bundle.db), "orders")

	require.NoError(t, r.MigrateUpTo(ctx, "3_orders"))
	assert.Equal(t, want, tables(t, bundle.db))

	require.NoError(t, r.MigrateDownTo(ctx, history.Base))
	current, err := r.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, history.Base, current)

	for i := 0; i < 3; i++ {
		require.NoError(t, r.RoundtripNextRevision(ctx))
	}

	assert.ErrorIs(t, r.MigrateUpOne(ctx), runner.ErrNoNextRevision)
}

func TestSqlite_MigrateBefore(t *testing.T) {
	ctx := context.Background()
	r, _ := setupSqlite(t, nil)

	require.NoError(t, r.MigrateUpBefore(ctx, "3_orders"))
	current, err := r.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2_users_email", current)

	require.NoError(t, r.MigrateUpOne(ctx))
	require.NoError(t, r.MigrateDownBefore(ctx, "1_users"))

	current, err = r.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2_users_email", current)

	require.NoError(t, r.MigrateDownOne(ctx))
	current, err = r.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1_users", current)
}

func TestSqlite_GenerateRevisionWritesNothing(t *testing.T) {
	ctx := context.Background()
	r, bundle := setupSqlite(t, nil)

	calls := 0
	rev, err := r.GenerateRevision(ctx, command.RevisionOptions{
		Message: "add phone",
		Up:      []string{"ALTER TABLE users ADD COLUMN phone TEXT"},
		Hook: func(_ context.Context, rc command.RevisionContext, d *command.Directives) (command.HookResult, error) {
			calls++
			assert.Equal(t, []string{"3_orders"}, rc.Heads)
			assert.Equal(t, "3_orders", d.Parent)
			return command.Continue, nil
		},
	})
	require.NoError(t, err)
	assert.Nil(t, rev)
	assert.Equal(t, 1, calls)

	entries, err := os.ReadDir(bundle.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	heads, err := r.Heads(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"3_orders"}, heads)
}

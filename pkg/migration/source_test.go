package migration_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yusufsyaifudin/migtest/pkg/migration"
)

type brokenScript struct{}

func (brokenScript) ID(context.Context) string            { return "9_broken" }
func (brokenScript) Up(context.Context) (string, error)   { return "", errors.New("cannot render") }
func (brokenScript) Down(context.Context) (string, error) { return "", nil }

func TestMemorySource(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		src, err := migration.MemorySource(ctx,
			migration.Static{Revision: "2_users_email", UpSQL: "ALTER TABLE users ADD COLUMN email TEXT", DownSQL: ""},
			migration.Static{Revision: "1_users", UpSQL: "CREATE TABLE users (id INTEGER)", DownSQL: "DROP TABLE users"},
		)
		require.NoError(t, err)

		migs, err := src.FindMigrations()
		require.NoError(t, err)
		require.Len(t, migs, 2)

		// sorted by numeric prefix
		assert.Equal(t, "1_users", migs[0].Id)
		assert.Equal(t, []string{"CREATE TABLE users (id INTEGER)"}, migs[0].Up)
		assert.Equal(t, "2_users_email", migs[1].Id)
		assert.Empty(t, migs[1].Down)
	})

	t.Run("duplicate", func(t *testing.T) {
		_, err := migration.MemorySource(ctx,
			migration.Static{Revision: "1_a"},
			migration.Static{Revision: "1_a"},
		)
		assert.Error(t, err)
	})

	t.Run("empty id", func(t *testing.T) {
		_, err := migration.MemorySource(ctx, migration.Static{Revision: " "})
		assert.Error(t, err)
	})

	t.Run("script error", func(t *testing.T) {
		_, err := migration.MemorySource(ctx, brokenScript{})
		assert.ErrorContains(t, err, "cannot render")
	})
}

func TestRender(t *testing.T) {
	out := migration.Render(
		[]string{"CREATE TABLE users (id INTEGER)", "CREATE INDEX idx_users ON users (id);"},
		[]string{"DROP TABLE users"},
	)

	assert.Contains(t, out, "-- +migrate Up\n")
	assert.Contains(t, out, "CREATE TABLE users (id INTEGER);\nCREATE INDEX idx_users ON users (id);\n")
	assert.Contains(t, out, "-- +migrate Down\n")
	assert.Contains(t, out, "DROP TABLE users;\n")

	// rendered output can be read back by sql-migrate
	mig, err := migrate.ParseMigration("1_users.sql", strings.NewReader(out))
	require.NoError(t, err)
	assert.Len(t, mig.Up, 2)
	assert.Len(t, mig.Down, 1)
}

package raw_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/cli"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yusufsyaifudin/migtest/cmd"
	"github.com/yusufsyaifudin/migtest/cmd/raw"
	"github.com/yusufsyaifudin/migtest/pkg/command"
)

func writeConfig(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	revisionDir := filepath.Join(dir, "revisions")
	conf := fmt.Sprintf(`
log:
  level: error
database:
  main:
    driver: sqlite
    sqlite:
      dsn: %s
migration:
  dbLabel: main
  dir: %s
  revisionDir: %s
`, filepath.Join(dir, "main.db"), filepath.Join("..", "..", "assets", "migrations", "sqlite"), revisionDir)

	file := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(file, []byte(conf), 0o600))
	return file, revisionDir
}

func run(t *testing.T, args ...string) (int, *bytes.Buffer) {
	t.Helper()

	c, err := raw.NewCmd()()
	require.NoError(t, err)

	out := &bytes.Buffer{}
	c.(*raw.Cmd).SetOutput(out)
	return c.Run(args), out
}

func TestCmd_Run(t *testing.T) {
	file, revisionDir := writeConfig(t)

	code, out := run(t, "-c", file, "heads")
	require.Equal(t, cmd.ExitSuccess, code)
	assert.Equal(t, "3_create_orders.sql\n", out.String())

	code, out = run(t, "-c", file, "upgrade", "+2")
	require.Equal(t, cmd.ExitSuccess, code)
	assert.Empty(t, out.String())

	// database state survives between invocations
	code, out = run(t, "-c", file, "current")
	require.Equal(t, cmd.ExitSuccess, code)
	assert.Equal(t, "2_add_users_email.sql\n", out.String())

	code, out = run(t, "-c", file, "revision", "add", "phone")
	require.Equal(t, cmd.ExitSuccess, code)

	var directives command.Directives
	require.NoError(t, json.Unmarshal(out.Bytes(), &directives))
	assert.Equal(t, "add phone", directives.Message)
	assert.Equal(t, "3_create_orders.sql", directives.Parent)

	_, err := os.Stat(revisionDir)
	assert.True(t, os.IsNotExist(err))

	code, _ = run(t, "-c", file, "downgrade", "9_unknown")
	assert.Equal(t, cmd.ExitErr, code)

	code, _ = run(t, "-c", file, "stamp", "head")
	assert.Equal(t, cmd.ExitErr, code)

	code, _ = run(t, "-c", file)
	assert.Equal(t, cli.RunResultHelp, code)
}

package cmdflags

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/andrebq/turnstile/internal/config"
	"github.com/andrebq/turnstile/session"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runWith(t *testing.T, args ...string) config.Config {
	var settings Settings
	var cfg config.Config
	app := &cli.App{
		Name: "test",
		Commands: []*cli.Command{{
			Name:  "run",
			Flags: settings.Flags(),
			Action: func(ctx *cli.Context) error {
				var err error
				cfg, err = settings.Config(ctx)
				return err
			},
		}},
	}
	require.NoError(t, app.Run(append([]string{"test", "run"}, args...)))
	return cfg
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "turnstile.yaml")
	err := os.WriteFile(file, []byte(`
users_db: from-file.db
log:
  level: debug
session_store:
  kind: file
  path: from-file.json
`), 0644)
	require.NoError(t, err)

	cfg := runWith(t, "--config", file)
	require.Equal(t, "from-file.db", cfg.UsersDB)
	require.Equal(t, "from-file.json", cfg.SessionStore.Path)
	require.Equal(t, "debug", cfg.Log.Level)

	cfg = runWith(t, "--config", file, "--users-db", "flag.db", "--log-format", "console")
	require.Equal(t, "flag.db", cfg.UsersDB)
	require.Equal(t, "from-file.json", cfg.SessionStore.Path)
	require.Equal(t, "console", cfg.Log.Format)

	cfg = runWith(t, "--redis-addr", "localhost:6379")
	require.Equal(t, session.KindRedis, cfg.SessionStore.Kind)
	require.Equal(t, "localhost:6379", cfg.SessionStore.Redis.Addr)
}

func TestDefaults(t *testing.T) {
	cfg := runWith(t)
	def := config.Default()
	require.Equal(t, def.SessionName, cfg.SessionName)
	require.Equal(t, def.ExcludedPaths, cfg.ExcludedPaths)
}

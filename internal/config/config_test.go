package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/andrebq/turnstile/session"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:5000", cfg.Bind)
	require.Equal(t, DefaultSessionName, cfg.SessionName)
	require.Equal(t, 0, cfg.SessionDuration)
	require.Equal(t, session.KindFile, cfg.SessionStore.Kind)
	require.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "turnstile.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
auth_type: session_db_auth
session_duration: 60
session_store:
  kind: file
  path: /tmp/sessions.json
log:
  level: debug
`), 0644))
	cfg, err := Load(file)
	require.NoError(t, err)
	require.Equal(t, "session_db_auth", cfg.AuthType)
	require.Equal(t, 60, cfg.SessionDuration)
	require.Equal(t, "/tmp/sessions.json", cfg.SessionStore.Path)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, DefaultSessionName, cfg.SessionName, "unset keys keep their defaults")
	require.NoError(t, cfg.Validate())

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envFrom(map[string]string{
		AuthTypeEnvVar:        "session_exp_auth",
		SessionNameEnvVar:     "sid",
		SessionDurationEnvVar: "30",
		PortEnvVar:            "8080",
		RedisAddrEnvVar:       "localhost:6379",
	}))
	require.NoError(t, err)
	require.Equal(t, "session_exp_auth", cfg.AuthType)
	require.Equal(t, "sid", cfg.SessionName)
	require.Equal(t, 30, cfg.SessionDuration)
	require.Equal(t, "0.0.0.0:8080", cfg.Bind)
	require.Equal(t, session.KindRedis, cfg.SessionStore.Kind)
	require.NoError(t, cfg.Validate())

	err = cfg.ApplyEnv(envFrom(map[string]string{SessionDurationEnvVar: "soon"}))
	require.ErrorAs(t, err, &InvalidValue{})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.AuthType = "oauth"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.SessionStore.Kind = "postgres"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.SessionStore = session.StoreOptions{Kind: session.KindRedis}
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.SessionDuration = math.MaxInt
	var invalid InvalidValue
	require.ErrorAs(t, cfg.Validate(), &invalid)
	require.Equal(t, "session_duration", invalid.Name)

	cfg = Default()
	cfg.SessionDuration = 3600
	require.NoError(t, cfg.Validate())
}

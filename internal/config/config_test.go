package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "parley.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
db:
  path: /var/lib/parley/data.db
transport:
  mode: stdio
auth:
  default_user: admin
rate:
  rps: 5
`), 0o600))

	t.Setenv("PARLEY_CONFIG_PATH", path)
	t.Setenv("PARLEY_SERVER_PORT", "9191")
	t.Setenv("PARLEY_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("PARLEY_AUTH_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9191, cfg.Server.Port)
	require.Equal(t, "/var/lib/parley/data.db", cfg.DB.Path)
	require.Equal(t, "stdio", cfg.Transport.Mode)
	require.Equal(t, "admin", cfg.Auth.DefaultUser)
	require.False(t, cfg.Auth.Enabled)
	require.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	require.InDelta(t, 5.0, cfg.Rate.RPS, 0.0001)
	require.Equal(t, 40, cfg.Rate.Burst)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PARLEY_NODE_ID=7\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("PARLEY_NODE_ID") })

	cfg, err := Load()
	require.NoError(t, err)
	require.EqualValues(t, 7, cfg.Node.ID)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Chdir(t.TempDir())

	cases := map[string]string{
		"PARLEY_SERVER_PORT":    "eighty",
		"PARLEY_AUTH_ENABLED":   "maybe",
		"PARLEY_RATE_RPS":       "fast",
		"PARLEY_TRANSPORT_MODE": "carrier-pigeon",
		"PARLEY_NODE_ID":        "4096",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

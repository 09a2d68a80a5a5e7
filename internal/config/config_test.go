package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "devroom.db", cfg.DB.Path)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "gemini-2.0-flash", cfg.AI.Model)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DEVROOM_SERVER_HOST", "127.0.0.1")
	t.Setenv("DEVROOM_SERVER_PORT", "9090")
	t.Setenv("DEVROOM_DB_PATH", "/tmp/test.db")
	t.Setenv("DEVROOM_LOG_LEVEL", "debug")
	t.Setenv("DEVROOM_AUTH_SECRET", "s3cret")
	t.Setenv("DEVROOM_ALLOWED_ORIGINS", "app.example.com, admin.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "/tmp/test.db", cfg.DB.Path)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "s3cret", cfg.Auth.Secret)
	require.Equal(t, []string{"app.example.com", "admin.example.com"}, cfg.Server.AllowedOrigins)
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("DEVROOM_SERVER_PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  host: 10.0.0.1
  port: 3000
db:
  path: /data/devroom.db
ai:
  model: gemini-2.5-pro
`), 0o644))

	t.Setenv("DEVROOM_CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1", cfg.Server.Host)
	require.Equal(t, 3000, cfg.Server.Port)
	require.Equal(t, "/data/devroom.db", cfg.DB.Path)
	require.Equal(t, "gemini-2.5-pro", cfg.AI.Model)
}

func TestLoadEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 3000\n"), 0o644))

	t.Setenv("DEVROOM_CONFIG_PATH", path)
	t.Setenv("DEVROOM_SERVER_PORT", "4000")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 4000, cfg.Server.Port)
}

func TestSplitCSV(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, splitCSV("a, b,"))
	require.Empty(t, splitCSV("  ,  "))
}

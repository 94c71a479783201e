package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp moves the test into an empty directory so no stray joinagame.yaml
// from the repository is picked up.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, DriverJSON, cfg.Store.Driver)
	assert.Equal(t, "data/data.json", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "tint", cfg.Log.Format)
	assert.Equal(t, 720*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.TokensEnabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("JOINAGAME_SERVER_PORT", "8088")
	t.Setenv("JOINAGAME_STORE_DRIVER", "SQLite")
	t.Setenv("JOINAGAME_STORE_PATH", "/var/lib/joinagame/db.sqlite")
	t.Setenv("JOINAGAME_AUTH_JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("JOINAGAME_AUTH_TOKEN_TTL", "2h")
	t.Setenv("JOINAGAME_CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/var/lib/joinagame/db.sqlite", cfg.Store.Path)
	assert.True(t, cfg.TokensEnabled())
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := chdirTemp(t)
	yaml := `
server:
  port: 9000
  static_dir: ./dist
store:
  path: games.json
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "joinagame.yaml"), []byte(yaml), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "./dist", cfg.Server.StaticDir)
	assert.Equal(t, "games.json", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "joinagame.yaml"), []byte("server:\n  port: 9000\n"), 0o644))
	t.Setenv("JOINAGAME_SERVER_PORT", "9100")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	chdirTemp(t)

	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown driver", "JOINAGAME_STORE_DRIVER", "postgres"},
		{"port out of range", "JOINAGAME_SERVER_PORT", "70000"},
		{"short secret", "JOINAGAME_AUTH_JWT_SECRET", "short"},
		{"bad log format", "JOINAGAME_LOG_FORMAT", "xml"},
		{"empty store path", "JOINAGAME_STORE_PATH", " "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirTemp(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

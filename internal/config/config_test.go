package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "memory", c.Storage.Driver)
	assert.Equal(t, "HS256", c.JWT.Alg)
	assert.Equal(t, 15*time.Minute, c.JWT.AccessTTL)
	assert.Equal(t, 720*time.Hour, c.JWT.RefreshTTL)
	assert.Equal(t, 2*time.Second, c.Auth.BlacklistTimeout)
	assert.Equal(t, "0 * * * *", c.Cleanup.Schedule)
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  addr: ":9999"
storage:
  driver: memory
jwt:
  access_ttl: 5m
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("SERVER_ADDR", ":7777")
	t.Setenv("JWT_ACCESS_TTL", "1m")

	c, err := Load(path)
	require.NoError(t, err)

	// Env pisa YAML.
	assert.Equal(t, ":7777", c.Server.Addr)
	assert.Equal(t, time.Minute, c.JWT.AccessTTL)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "bad_alg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jwt:\n  alg: RS256\n"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)

	path = filepath.Join(dir, "pg_no_dsn.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: postgres\njwt:\n  secret: 0123456789abcdef0123456789abcdef\n"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "badger", cfg.SessionBackend)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, int64(50), cfg.SearchLimit)
	assert.Equal(t, 10, cfg.MaxResults)
	assert.Equal(t, 5*time.Second, cfg.Deadline)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
storage:
  data_dir: /var/lib/membersearch
limits:
  searches_per_window: 25
session:
  backend: redis
  redis:
    addr: localhost:6379
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/membersearch", cfg.DataDir)
	assert.Equal(t, int64(25), cfg.SearchLimit)
	assert.Equal(t, "redis", cfg.SessionBackend)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	// Untouched keys keep their defaults.
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
}

func TestLoadRejectsBadBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session:\n  backend: etcd\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRedisNeedsAddr(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session:\n  backend: redis\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

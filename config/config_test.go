package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "agency.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadValidConfiguration(t *testing.T) {
	path := writeConfig(t, `
id: 1
size: 3
endpoints:
  - http://127.0.0.1:9001
  - http://127.0.0.1:9002
  - http://127.0.0.1:9003
min_ping: 0.15
max_ping: 0.3
notify_on_start: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cfg.ID)
	assert.Equal(t, 3, cfg.Size)
	assert.Len(t, cfg.Endpoints, 3)
	assert.True(t, cfg.NotifyOnStart)
	assert.Equal(t, "./data", cfg.DataDir)
}

func TestLoadRefusesInconsistentSize(t *testing.T) {
	path := writeConfig(t, `
id: 0
size: 3
endpoints:
  - http://127.0.0.1:9001
min_ping: 0.1
max_ping: 0.2
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRefusesOutOfRangeID(t *testing.T) {
	path := writeConfig(t, `
id: 5
size: 3
endpoints:
  - http://127.0.0.1:9001
  - http://127.0.0.1:9002
  - http://127.0.0.1:9003
min_ping: 0.1
max_ping: 0.2
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRefusesBadPingBounds(t *testing.T) {
	path := writeConfig(t, `
id: 0
size: 1
endpoints:
  - http://127.0.0.1:9001
min_ping: 0.3
max_ping: 0.1
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

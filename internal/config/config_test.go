package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewManager_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	m, err := NewManager("")
	require.NoError(t, err)
	assert.Equal(t, Default(), m.Get())
	assert.Empty(t, m.File())
}

func TestNewManager_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reportgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
  read_timeout: 3s
templates:
  dir: ./templates
  watch: true
pdf:
  concurrency: 4
`), 0o644))
	t.Setenv("REPORTGEN_STORE_PATH", "/tmp/reports.db")
	t.Setenv("REPORTGEN_LOG_LEVEL", "debug")

	m, err := NewManager(path)
	require.NoError(t, err)

	cfg := m.Get()
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "./templates", cfg.Templates.Dir)
	assert.True(t, cfg.Templates.Watch)
	assert.Equal(t, 4, cfg.PDF.Concurrency)
	assert.Equal(t, uint(3), cfg.PDF.LaunchAttempts)
	assert.Equal(t, "/tmp/reports.db", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, path, m.File())
}

func TestNewManager_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := NewManager(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read")
}

func TestReload_NotifiesCallbacks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reportgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":8081\"\n"), 0o644))

	m, err := NewManager(path)
	require.NoError(t, err)

	var got []string
	m.OnChange(func(cfg Config) { got = append(got, cfg.Server.Addr) })

	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":8082\"\n"), 0o644))
	require.NoError(t, m.v.ReadInConfig())
	m.reload()

	assert.Equal(t, []string{":8082"}, got)
	assert.Equal(t, ":8082", m.Get().Server.Addr)
}

func TestWriteDefault_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "reportgen.yaml")
	require.NoError(t, WriteDefault(path, false))

	err := WriteDefault(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	require.NoError(t, WriteDefault(path, true))

	m, err := NewManager(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), m.Get())
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "warn"}, false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))

	logger, err = NewLogger(LogConfig{Level: "warn", Development: true}, true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	_, err = NewLogger(LogConfig{Level: "loud"}, false)
	require.Error(t, err)
}

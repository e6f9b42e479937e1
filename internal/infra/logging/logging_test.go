package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONToWriter(t *testing.T) {
	var buf bytes.Buffer
	log, err := newWithWriter(DefaultConfig(), &buf)
	require.NoError(t, err)

	log.Info("hello")
	require.NoError(t, log.Sync())
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Level = "warn"
	log, err := newWithWriter(cfg, &buf)
	require.NoError(t, err)

	log.Info("quiet")
	log.Warn("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestNew_WritesFile(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.File = filepath.Join(t.TempDir(), "logs", "exhale.log")
	log, err := newWithWriter(cfg, &buf)
	require.NoError(t, err)

	log.Info("to file")
	_ = log.Sync()

	data, err := os.ReadFile(cfg.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestNew_RejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "loud"
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Format = "xml"
	_, err = New(cfg)
	assert.Error(t, err)
}

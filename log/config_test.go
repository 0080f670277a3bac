package log

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "log.yml")
	content := "level: debug\nformat: json\nfilter: \"debug:stats info,warn,error:*\"\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	cfg, err := LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, &Config{
		Level:  "debug",
		Format: "json",
		Filter: "debug:stats info,warn,error:*",
	}, cfg)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestConfigBuildFilter(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{Level: "debug", Format: "json", Filter: "debug:stats"}
	l, err := cfg.Build(&buf, InfoLevel, "text")
	require.NoError(t, err)

	l.Named("stats").Debug("kept")
	l.Named("http").Debug("dropped")
	_ = l.Sync()

	assert.Contains(t, buf.String(), "kept")
	assert.NotContains(t, buf.String(), "dropped")
}

func TestConfigBuildInvalidLevel(t *testing.T) {
	cfg := &Config{Level: "loud"}
	_, err := cfg.Build(&bytes.Buffer{}, InfoLevel, "json")
	assert.Error(t, err)
}

func TestGetFromContext(t *testing.T) {
	l := New(&bytes.Buffer{}, DebugLevel)
	ctx := AddToContext(t.Context(), l)
	assert.Same(t, l, GetFromContext(ctx))
	assert.Same(t, Default(), GetFromContext(t.Context()))
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 100, cfg.Detection.MinNodeArea)
	assert.Equal(t, 10000, cfg.Detection.MaxNodeArea)
	assert.Equal(t, 0.70, cfg.Detection.Circularity)
	assert.Equal(t, 30, cfg.Detection.MinEdgeLength)
	assert.Equal(t, 40.0, cfg.Detection.EndpointMatchDist)

	assert.True(t, cfg.Text.Enabled)
	assert.Equal(t, []string{"eng"}, cfg.Text.Languages)
	assert.Equal(t, 0.3, cfg.Text.MinConfidence)
	assert.Equal(t, 50.0, cfg.Text.ClaimDist)

	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "fs", cfg.Cache.Backend)

	assert.Equal(t, 0, cfg.Workers.CPU)
	assert.Equal(t, 2, cfg.Workers.OCR)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.toml")
	content := "[detection]\nmin_node_area = 5\n\n[cache]\nbackend = \"sqlite\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Detection.MinNodeArea)
	assert.Equal(t, "sqlite", cfg.Cache.Backend)
	// Untouched fields keep their defaults.
	assert.Equal(t, 10000, cfg.Detection.MaxNodeArea)
	assert.True(t, cfg.Text.Enabled)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("[detection\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	cfg := Default()
	cfg.Detection.MinEdgeLength = 42
	cfg.Text.Languages = []string{"eng", "deu"}
	cfg.Cache.Dir = "/tmp/somewhere"

	path := filepath.Join(t.TempDir(), "out.toml")
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

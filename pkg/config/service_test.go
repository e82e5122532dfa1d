package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPipelineConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pvdiag.toml")

	cfg, err := LoadPipelineConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = os.Stat(path)
	require.NoError(t, err, "first run writes a default config file")

	// A second load round-trips the written file.
	again, err := LoadPipelineConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadPipelineConfigReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pvdiag.toml")
	content := `
plant_metadata_path = "plants/meta.csv"
cache_dir = "/var/cache/pvdiag"
fetch_workers = 8
verbose = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadPipelineConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "plants/meta.csv", cfg.PlantMetadataPath)
	assert.Equal(t, "/var/cache/pvdiag", cfg.CacheDir)
	assert.Equal(t, 8, cfg.FetchWorkers)
	assert.True(t, cfg.Verbose)
	// Unset keys keep their defaults.
	assert.Equal(t, DefaultConfig().PVGISBaseURL, cfg.PVGISBaseURL)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PVDIAG_CACHE_DIR", "/tmp/override")
	t.Setenv("PVDIAG_FETCH_WORKERS", "2")
	t.Setenv("PVDIAG_VERBOSE", "true")

	cfg, err := LoadPipelineConfig(filepath.Join(t.TempDir(), "pvdiag.toml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override", cfg.CacheDir)
	assert.Equal(t, 2, cfg.FetchWorkers)
	assert.True(t, cfg.Verbose)
}

func TestEnvOverridesIgnoreBadInt(t *testing.T) {
	t.Setenv("PVDIAG_FETCH_WORKERS", "lots")

	cfg, err := LoadPipelineConfig(filepath.Join(t.TempDir(), "pvdiag.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().FetchWorkers, cfg.FetchWorkers)
}

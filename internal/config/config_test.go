package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)
	t.Setenv("SIMKL_CLIENT_ID", "client")
	t.Setenv("TASTE_USERNAME", "someone")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "someone", cfg.TasteUsername)
	assert.Equal(t, "https://www.taste.io/api", cfg.TasteBaseURL)
	assert.Equal(t, 96, cfg.PageSize)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 1500*time.Millisecond, cfg.MinDelay)
	assert.Equal(t, 4*time.Second, cfg.MaxDelay)
	assert.Equal(t, "file", cfg.CacheBackend)
	assert.True(t, cfg.ScrapeRatings)
	assert.True(t, cfg.KeepUnresolvedRated)
	assert.Equal(t, filepath.Join(dir, "SimklBackup.json"), cfg.OutputFile)
	assert.Equal(t, filepath.Join(dir, "watched_episodes.json"), cfg.WatchedEpisodesFile)
	assert.NoError(t, cfg.ValidateBackup())
	assert.Error(t, cfg.ValidateImport())
}

func TestMissingClientID(t *testing.T) {
	v := viper.New()
	v.Set("CONFIG_DIR", t.TempDir())

	_, err := fromViper(v)
	assert.ErrorContains(t, err, "SIMKL_CLIENT_ID")
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	v.Set("CONFIG_DIR", t.TempDir())
	v.Set("SIMKL_CLIENT_ID", "client")
	v.Set("CACHE_BACKEND", "BOLT")
	v.Set("OUTPUT_FILE", "/tmp/out.json")
	v.Set("SCRAPE_SAVED", false)
	v.Set("KEEP_UNRESOLVED_RATED", false)
	v.Set("SIMKL_BASE_URL", "http://localhost:9000/")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "bolt", cfg.CacheBackend)
	assert.Equal(t, "/tmp/out.json", cfg.OutputFile)
	assert.False(t, cfg.ScrapeSaved)
	assert.False(t, cfg.KeepUnresolvedRated)
	assert.Equal(t, "http://localhost:9000", cfg.SimklBaseURL)
	assert.Error(t, cfg.ValidateBackup())
}

func TestInvalidBackend(t *testing.T) {
	v := viper.New()
	v.Set("CONFIG_DIR", t.TempDir())
	v.Set("SIMKL_CLIENT_ID", "client")
	v.Set("CACHE_BACKEND", "redis")

	_, err := fromViper(v)
	assert.Error(t, err)
}

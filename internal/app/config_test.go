package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polybars/internal/model"
)

// chdir stands in for testing.T.Chdir (Go 1.24+) on older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadConfigDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	chdir(t, t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "POLYGON_API", cfg.APIKeyEnv)
	assert.False(t, cfg.Cache)
	assert.True(t, cfg.Wait)
	assert.Equal(t, filepath.Join(home, ".polybars", "ohlcv_cache"), cfg.CacheDir)
	assert.Equal(t, "csv.gz", cfg.SegmentFormat)
	assert.Equal(t, 12*time.Second, cfg.RateLimitWait)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())
}

func TestLoadConfigFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("POLYBARS_CACHE", "true")
	t.Setenv("POLYBARS_WAIT", "false")
	t.Setenv("POLYBARS_CACHE_DIR", "/tmp/bars")
	t.Setenv("POLYBARS_RATE_LIMIT_WAIT", "1m")
	t.Setenv("POLYBARS_SEGMENT_FORMAT", "parquet")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Cache)
	assert.False(t, cfg.Wait)
	assert.Equal(t, "/tmp/bars", cfg.CacheDir)
	assert.Equal(t, time.Minute, cfg.RateLimitWait)

	codec, err := ProvideCodec(cfg)
	require.NoError(t, err)
	assert.Equal(t, "parquet", codec.Extension())

	cfg.SegmentFormat = "xlsx"
	_, err = ProvideCodec(cfg)
	assert.Error(t, err)
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("POLYGON_API", "env-key-0123456789")
	t.Setenv("MY_KEY", "short")

	cfg := &Config{APIKeyEnv: "POLYGON_API"}
	key, err := cfg.ResolveAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "env-key-0123456789", key)

	cfg.APIKey = "direct-key-0123456789"
	key, err = cfg.ResolveAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "direct-key-0123456789", key, "direct key overrides the environment")

	cfg = &Config{APIKeyEnv: "MY_KEY"}
	_, err = cfg.ResolveAPIKey()
	assert.ErrorIs(t, err, model.ErrConfig)

	cfg = &Config{APIKeyEnv: "UNSET_KEY_VAR"}
	_, err = cfg.ResolveAPIKey()
	assert.ErrorIs(t, err, model.ErrConfig)
}

func TestCreateProvider(t *testing.T) {
	cfg := &Config{Provider: "polygon", APIKey: "direct-key-0123456789"}
	dp, err := CreateProvider(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "Polygon", dp.GetName())
	require.NoError(t, dp.Close())

	cfg.Provider = "tiingo"
	_, err = CreateProvider(cfg, nil)
	assert.Error(t, err)
}

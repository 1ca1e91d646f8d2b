package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, int64(1800), cfg.Slots.DefaultSlotLength)
	assert.Equal(t, 2*time.Hour, cfg.Slots.StoreTTL)
	assert.Equal(t, "explicit", cfg.Slots.PatchMode)
	assert.False(t, cfg.JWT.Enabled)
	assert.False(t, cfg.Redis.Enabled)
	assert.True(t, cfg.RateLimit.FailOpen)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ENV", EnvProduction)
	t.Setenv("PORT", "9090")
	t.Setenv("DEFAULT_SLOT_LENGTH", "900")
	t.Setenv("SLOT_STORE_TTL", "15m")
	t.Setenv("INCLUSIVE_OVERLAP", "true")
	t.Setenv("PATCH_MODE", "ignore_falsy")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("ENABLE_AUTH", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvProduction, cfg.Env)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, int64(900), cfg.Slots.DefaultSlotLength)
	assert.Equal(t, 15*time.Minute, cfg.Slots.StoreTTL)
	assert.True(t, cfg.Slots.InclusiveOverlap)
	assert.Equal(t, "ignore_falsy", cfg.Slots.PatchMode)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.JWT.Enabled)
}

func TestFromViperFallsBackOnBadValues(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("DEFAULT_SLOT_LENGTH", -5)
	v.Set("EXPORT_CACHE_TTL", "soon")

	cfg := fromViper(v)
	assert.Equal(t, int64(1800), cfg.Slots.DefaultSlotLength)
	assert.Equal(t, 10*time.Minute, cfg.Export.CacheTTL)
}

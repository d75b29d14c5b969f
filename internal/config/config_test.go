package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Stage)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "data/reference", cfg.ReferenceDir)
	assert.Equal(t, 5*time.Second, cfg.CalculationTimeout)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "@every 5m", cfg.RefreshSchedule)
	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, 8, cfg.MaxParallelism)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("VATCALC_STAGE", "prod")
	t.Setenv("VATCALC_CALCULATION_TIMEOUT", "750ms")
	t.Setenv("VATCALC_CURRENCY", "GBP")
	t.Setenv("VATCALC_MAX_PARALLELISM", "2")
	t.Setenv("VATCALC_REFRESH_SCHEDULE", "*/10 * * * *")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 750*time.Millisecond, cfg.CalculationTimeout)
	assert.Equal(t, "GBP", cfg.Currency)
	assert.Equal(t, 2, cfg.MaxParallelism)
}

func TestLoad_FileOverridesEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vatcalc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("currency: JPY\ncache_ttl: 30s\n"), 0o600))
	t.Setenv("VATCALC_CONFIG_FILE", path)
	t.Setenv("VATCALC_CURRENCY", "GBP")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "JPY", cfg.Currency)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"VATCALC_CURRENCY":            "euro",
		"VATCALC_MAX_PARALLELISM":     "0",
		"VATCALC_CALCULATION_TIMEOUT": "0s",
		"VATCALC_CACHE_TTL":           "0s",
		"VATCALC_REFRESH_SCHEDULE":    "whenever",
		"VATCALC_STAGE":               "qa",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}

	t.Run("unparseable duration", func(t *testing.T) {
		t.Setenv("VATCALC_CACHE_TTL", "soon")
		_, err := Load()
		assert.ErrorContains(t, err, "failed to load config from env")
	})
}

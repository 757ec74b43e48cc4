package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORE_BACKEND", "HTTP_TIMEOUT", "LEDGER_TIMEZONE", "PRICE_COUNTRIES", "PRICE_REFRESH_INTERVAL", "PRICE_CACHE_TTL", "UPSTREAM_RETRIES"} {
		t.Setenv(k, "")
	}

	cfg, err := fromEnv()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.StoreBackend)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, time.UTC, cfg.LedgerLocation)
	assert.Empty(t, cfg.PriceCountries)
	assert.Equal(t, time.Hour, cfg.PriceRefresh)
	assert.Equal(t, time.Hour, cfg.PriceCacheTTL)
	assert.Equal(t, 1, cfg.UpstreamRetries)
}

func TestOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("REDIS_URL", "redis://cache:6379/2")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("LEDGER_TIMEZONE", "Europe/Madrid")
	t.Setenv("PRICE_COUNTRIES", "Spain, Portugal,,France")

	cfg, err := fromEnv()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "redis", cfg.StoreBackend)
	assert.Equal(t, "redis://cache:6379/2", cfg.RedisURL)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "Europe/Madrid", cfg.LedgerLocation.String())
	assert.Equal(t, []string{"Spain", "Portugal", "France"}, cfg.PriceCountries)
}

func TestInvalid(t *testing.T) {
	cases := map[string]string{
		"STORE_BACKEND":          "mongo",
		"HTTP_TIMEOUT":           "soon",
		"PRICE_REFRESH_INTERVAL": "-5m",
		"LEDGER_TIMEZONE":        "Nowhere/Land",
		"UPSTREAM_RETRIES":       "-1",
		"PRICE_CACHE_TTL":        "0s",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := fromEnv()
			assert.Error(t, err)
		})
	}
}

func TestInvalidRetriesIsAnError(t *testing.T) {
	t.Setenv("UPSTREAM_RETRIES", "twice")

	_, err := fromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UPSTREAM_RETRIES")
}

package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bsenturk/country-cache/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "https://open.er-api.com/v6/latest/USD", cfg.RatesURL)
	assert.Contains(t, cfg.CountriesURL, "restcountries.com/v2/all")
	assert.Equal(t, 30*time.Second, cfg.SourceTimeout)
	assert.Equal(t, "data/cache/summary.png", cfg.SummaryImagePath)
	assert.Equal(t, 100, cfg.RateRPS)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SOURCE_TIMEOUT_SECONDS", "5")
	t.Setenv("SUMMARY_IMAGE_PATH", "/tmp/summary.png")
	t.Setenv("RATE_LIMIT_RPS", "7")

	cfg := config.Load()

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 5*time.Second, cfg.SourceTimeout)
	assert.Equal(t, "/tmp/summary.png", cfg.SummaryImagePath)
	assert.Equal(t, 7, cfg.RateRPS)
}

func TestLoad_RejectsNonPositiveInts(t *testing.T) {
	t.Setenv("SOURCE_TIMEOUT_SECONDS", "-2")
	t.Setenv("RATE_LIMIT_RPS", "not-a-number")

	cfg := config.Load()

	assert.Equal(t, 30*time.Second, cfg.SourceTimeout)
	assert.Equal(t, 100, cfg.RateRPS)
}

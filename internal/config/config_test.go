package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CITATION_REGISTRY_URL", "https://api.crossref.org")
	cfg := Load()

	assert.Equal(t, "https://api.crossref.org", cfg.Citation.RegistryURL)
	assert.Equal(t, 30*time.Second, cfg.Citation.HTTPTimeout)
	assert.Equal(t, float64(10), cfg.Citation.RegistryRPS)
	assert.Equal(t, []string{"apa", "mla"}, cfg.Citation.PrefetchStyles)
	assert.Equal(t, "memory", cfg.Citation.SessionStore)
	assert.Equal(t, 24*time.Hour, cfg.Citation.SessionTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CITATION_HTTP_TIMEOUT_SECONDS", "5")
	t.Setenv("CITATION_REGISTRY_RPS", "2.5")
	t.Setenv("CSL_PREFETCH_STYLES", " apa, ,ieee ")
	t.Setenv("CITATION_SESSION_STORE", "redis")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("GO_ENV", "production")

	cfg := Load()

	assert.Equal(t, 5*time.Second, cfg.Citation.HTTPTimeout)
	assert.Equal(t, 2.5, cfg.Citation.RegistryRPS)
	assert.Equal(t, []string{"apa", "ieee"}, cfg.Citation.PrefetchStyles)
	assert.Equal(t, "redis", cfg.Citation.SessionStore)
	assert.True(t, cfg.Otel.Enabled)
	assert.True(t, cfg.IsProduction())
}

func TestGetEnvAsIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("CITATION_HTTP_TIMEOUT_SECONDS", "soon")
	assert.Equal(t, 30, getEnvAsInt("CITATION_HTTP_TIMEOUT_SECONDS", 30))
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, 8000, c.Server.Port)
	assert.Equal(t, []string{"*"}, c.Server.CORSOrigins)
	assert.Equal(t, "info", c.Logging.Level)
	assert.Equal(t, 10*time.Second, c.Feeds.Timeout)
	assert.Equal(t, 30*time.Second, c.Feeds.CacheTTL)
	assert.Equal(t, "DEMO_KEY", c.Feeds.Donki.APIKey)
	assert.Equal(t, 3, c.Feeds.Donki.LookbackDays)
	assert.Equal(t, "flarecast.predictions", c.Kafka.PredictionsTopic)
	assert.False(t, c.Kafka.Enabled)
	assert.True(t, c.RateLimit.Enabled)
}

func TestLoadOverridesDefaults(t *testing.T) {
	p := writeConfig(t, `
environment: production
server:
  port: 9090
feeds:
  cache_ttl: 1m
  donki:
    api_key: abc
kafka:
  enabled: true
  brokers: ["k1:9092", "k2:9092"]
`)
	c, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, time.Minute, c.Feeds.CacheTTL)
	assert.Equal(t, "abc", c.Feeds.Donki.APIKey)
	assert.Equal(t, 3, c.Feeds.Donki.LookbackDays, "untouched nested defaults survive")
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"port":          "server:\n  port: 70000\n",
		"kafka brokers": "kafka:\n  enabled: true\n",
		"consumer":      "kafka:\n  consumer:\n    enabled: true\n",
		"rate limit":    "rate_limit:\n  rps: 0\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("PORT", "8123")
	t.Setenv("KAFKA_BROKERS", "a:1, b:2")
	t.Setenv("NASA_API_KEY", "secret")
	t.Setenv("MODEL_DIR", "/srv/models")

	c, err := LoadWithEnv(writeConfig(t, "environment: staging\n"))
	require.NoError(t, err)

	assert.Equal(t, 8123, c.Server.Port)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"a:1", "b:2"}, c.Kafka.Brokers)
	assert.Equal(t, "secret", c.Feeds.Donki.APIKey)
	assert.Equal(t, "/srv/models", c.Model.Dir)
}

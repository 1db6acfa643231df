package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "file", config.Stream.Source)
	assert.Equal(t, "sqlite", config.Storage.Backend)
	assert.Equal(t, 15, config.Engine.WindowSize)
	assert.Equal(t, "./high_risk_reports", config.Reports.Dir)
	assert.Equal(t, "./knowledge", config.Assistant.KnowledgeDir)
	assert.Equal(t, "tcp://localhost:1883", config.Stream.MQTT.Broker)
	assert.Equal(t, 5*time.Second, config.Stream.HTTP.PollInterval)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STREAM_SOURCE", "mqtt")
	t.Setenv("MQTT_BROKER", "tcp://broker.fazenda.local:1883")
	t.Setenv("STORAGE_BACKEND", "redis")
	t.Setenv("REDIS_HOST", "cache.fazenda.local")
	t.Setenv("WINDOW_SIZE", "30")
	t.Setenv("HTTP_POLL_INTERVAL", "12s")

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "mqtt", config.Stream.Source)
	assert.Equal(t, "tcp://broker.fazenda.local:1883", config.Stream.MQTT.Broker)
	assert.Equal(t, "redis", config.Storage.Backend)
	assert.Equal(t, "cache.fazenda.local", config.Storage.Redis.Host)
	assert.Equal(t, 30, config.Engine.WindowSize)
	assert.Equal(t, 12*time.Second, config.Stream.HTTP.PollInterval)
}

func TestInvalidEnvironmentValuesKeepDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "porta")
	t.Setenv("WINDOW_SIZE", "")
	t.Setenv("HTTP_POLL_INTERVAL", "logo")

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, 15, config.Engine.WindowSize)
	assert.Equal(t, 5*time.Second, config.Stream.HTTP.PollInterval)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.DotEnvLoaded)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 100*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 10*time.Minute, cfg.WeatherRefreshInterval)
	assert.Equal(t, 6*time.Hour, cfg.ForecastRefreshInterval)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 20*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "./state", cfg.StateDir)
	assert.Equal(t, "log", cfg.DisplayDriver)
	assert.Equal(t, "microdashboard", cfg.MQTTTopicPrefix)
	assert.Equal(t, 144, cfg.StoreMaxHistory)
	assert.Equal(t, 24*time.Hour, cfg.StoreMaxAge)
	assert.False(t, cfg.Debug)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("TICK_INTERVAL", "50ms")
	t.Setenv("WEATHER_REFRESH_INTERVAL", "15m")
	t.Setenv("DISPLAY_DRIVER", "ssd1306")
	t.Setenv("I2C_BUS", "1")
	t.Setenv("MQTT_BROKER", "tcp://localhost:1883")
	t.Setenv("STORE_MAX_HISTORY", "10")
	t.Setenv("DEBUG", "true")
	t.Setenv("DEFAULT_CITY", "Oslo, Norway")
	t.Setenv("DEFAULT_TEMP_UNIT", "B")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 50*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 15*time.Minute, cfg.WeatherRefreshInterval)
	assert.Equal(t, "ssd1306", cfg.DisplayDriver)
	assert.Equal(t, "1", cfg.I2CBus)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, 10, cfg.StoreMaxHistory)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "Oslo, Norway", cfg.DefaultCity)
	assert.Equal(t, "B", cfg.DefaultTempUnit)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"TICK_INTERVAL":             "soon",
		"FORECAST_REFRESH_INTERVAL": "10s",
		"DISPLAY_DRIVER":            "vga",
		"DEFAULT_TEMP_UNIT":         "K",
		"PORT":                      "http",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

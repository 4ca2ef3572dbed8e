package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// AppConfig is the process-level configuration read from the environment.
// The user-facing display settings live in internal/settings instead.
type AppConfig struct {
	Port string `validate:"required,numeric"`

	// Scheduler cadence.
	TickInterval            time.Duration `validate:"gte=10ms,lte=1s"`
	WeatherRefreshInterval  time.Duration `validate:"gte=1m"`
	ForecastRefreshInterval time.Duration `validate:"gte=1m"`

	// HTTPTimeout bounds a single provider request; FetchTimeout bounds one
	// whole fetch including retries and fallbacks.
	HTTPTimeout  time.Duration `validate:"gt=0"`
	FetchTimeout time.Duration `validate:"gt=0"`

	StateDir      string `validate:"required"`
	DisplayDriver string `validate:"oneof=log ssd1306 none"`
	I2CBus        string

	OpenWeatherAPIKey    string
	WeatherAPIKey        string
	GoogleGeocoderAPIKey string

	MQTTBroker      string `validate:"omitempty,url"`
	MQTTTopicPrefix string `validate:"required"`

	// In-memory history retention.
	StoreMaxHistory int           `validate:"gte=0"` // 0 = unlimited
	StoreMaxAge     time.Duration `validate:"gte=0"` // 0 = unlimited

	Debug bool

	// First-boot display settings, used when no configuration is persisted.
	DefaultCity        string `validate:"max=50"`
	DefaultDisplayName string `validate:"max=30"`
	DefaultTempUnit    string `validate:"omitempty,oneof=C F B"`

	// DotEnvLoaded reports whether a .env file was read.
	DotEnvLoaded bool `validate:"-"`
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	cfg.DotEnvLoaded = godotenv.Load() == nil

	cfg.Port = getenvDefault("PORT", "8080")

	var err error
	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"TICK_INTERVAL", "100ms", &cfg.TickInterval},
		{"WEATHER_REFRESH_INTERVAL", "10m", &cfg.WeatherRefreshInterval},
		{"FORECAST_REFRESH_INTERVAL", "6h", &cfg.ForecastRefreshInterval},
		{"HTTP_TIMEOUT", "10s", &cfg.HTTPTimeout},
		{"FETCH_TIMEOUT", "20s", &cfg.FetchTimeout},
		{"STORE_MAX_AGE", "24h", &cfg.StoreMaxAge},
	}
	for _, d := range durations {
		if *d.dst, err = getenvDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	cfg.StateDir = getenvDefault("STATE_DIR", "./state")
	cfg.DisplayDriver = getenvDefault("DISPLAY_DRIVER", "log")
	cfg.I2CBus = os.Getenv("I2C_BUS")

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.GoogleGeocoderAPIKey = os.Getenv("GOOGLE_GEOCODER_API_KEY")

	cfg.MQTTBroker = os.Getenv("MQTT_BROKER")
	cfg.MQTTTopicPrefix = getenvDefault("MQTT_TOPIC_PREFIX", "microdashboard")

	// 144 is one day at the default 10-minute refresh.
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 144)

	cfg.Debug = getenvBool("DEBUG", false)

	cfg.DefaultCity = os.Getenv("DEFAULT_CITY")
	cfg.DefaultDisplayName = os.Getenv("DEFAULT_DISPLAY_NAME")
	cfg.DefaultTempUnit = os.Getenv("DEFAULT_TEMP_UNIT")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/microdashboard/internal/api/http"
	"github.com/i474232898/microdashboard/internal/clock"
	"github.com/i474232898/microdashboard/internal/config"
	"github.com/i474232898/microdashboard/internal/display"
	"github.com/i474232898/microdashboard/internal/publish"
	"github.com/i474232898/microdashboard/internal/scheduler"
	"github.com/i474232898/microdashboard/internal/settings"
	"github.com/i474232898/microdashboard/internal/store"
	"github.com/i474232898/microdashboard/internal/sysinfo"
	"github.com/i474232898/microdashboard/internal/weather"
	"github.com/i474232898/microdashboard/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		zap.NewExample().Sugar().Fatalw("failed to load config", "error", err)
	}

	log := newLogger(cfg.Debug)
	defer func() { _ = log.Sync() }()
	if !cfg.DotEnvLoaded {
		log.Infow("no .env file loaded, using process environment")
	}

	bootID := uuid.NewString()
	bootTime := time.Now()
	log.Infow("starting", "boot", bootID, "driver", cfg.DisplayDriver, "port", cfg.Port)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Open-Meteo serves both current weather and the forecast without a key.
	// Keyed providers are fallbacks for current weather only.
	openMeteo := providers.NewOpenMeteoProvider(httpClient)
	current := []weather.CurrentFetcher{openMeteo}
	if cfg.OpenWeatherAPIKey != "" {
		current = append(current, providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey))
	}
	if cfg.WeatherAPIKey != "" {
		current = append(current, providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey))
	}
	geocoders := []weather.Geocoder{providers.NewOpenMeteoGeocoder(httpClient)}
	if cfg.GoogleGeocoderAPIKey != "" {
		geocoders = append(geocoders, providers.NewGoogleGeocoder(cfg.GoogleGeocoderAPIKey))
	}
	service := weather.NewService(current, []weather.ForecastFetcher{openMeteo}, geocoders, cfg.FetchTimeout, log)

	settingsStore := settings.NewStore(cfg.StateDir, log)
	displayCfg := loadSettings(settingsStore, cfg, log)

	// In-memory store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	sink, err := display.NewSink(cfg.DisplayDriver, cfg.I2CBus, log)
	if err != nil {
		log.Fatalw("failed to open display", "driver", cfg.DisplayDriver, "error", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.Warnw("display close", "error", err)
		}
	}()

	var pub scheduler.Publisher
	if cfg.MQTTBroker != "" {
		m := publish.NewMQTT(publish.Config{
			Broker:      cfg.MQTTBroker,
			ClientID:    "microdashboard-" + bootID[:8],
			TopicPrefix: cfg.MQTTTopicPrefix,
			Timeout:     cfg.HTTPTimeout,
		}, log)
		if err := m.Connect(); err != nil {
			log.Errorw("mqtt disabled", "broker", cfg.MQTTBroker, "error", err)
		} else {
			pub = m
			defer m.Close()
		}
	}

	system := sysinfo.NewCollector(bootTime)
	engine := scheduler.NewEngine(scheduler.Options{
		Config:           displayCfg,
		Fetcher:          service,
		Clock:            func(tz string) clock.Source { return clock.NewSystem(tz) },
		Sink:             sink,
		System:           system,
		History:          memStore,
		Publisher:        pub,
		Settings:         settingsStore,
		WeatherInterval:  cfg.WeatherRefreshInterval,
		ForecastInterval: cfg.ForecastRefreshInterval,
		BootID:           bootID,
	}, log)

	sched := scheduler.New(engine, cfg.TickInterval, log)
	if err := sched.Start(); err != nil {
		log.Fatalw("failed to start scheduler", "error", err)
	}
	defer sched.Stop()

	app := httpapi.NewApp(cfg.Debug)
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Engine:   engine,
		Settings: settingsStore,
		History:  memStore,
		System:   system,
		Log:      log,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Errorw("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorw("error during shutdown", "error", err)
	}
}

func newLogger(debug bool) *zap.SugaredLogger {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return l.Sugar()
}

// loadSettings reads the persisted display configuration. On first boot it
// builds one from the DEFAULT_* environment and saves it; the engine resolves
// the city's coordinates on its first tick.
func loadSettings(s *settings.Store, cfg *config.AppConfig, log *zap.SugaredLogger) settings.Configuration {
	c, err := s.Load()
	if err == nil {
		log.Infow("settings loaded", "city", c.City, "unit", c.TempUnit, "rotation", c.RotationInterval)
		return c
	}
	if !errors.Is(err, settings.ErrNoConfig) {
		log.Errorw("settings unreadable, using defaults", "error", err)
	}

	c = settings.Defaults()
	if cfg.DefaultCity != "" {
		c.City = cfg.DefaultCity
		c.DisplayName = cfg.DefaultDisplayName
	}
	if cfg.DefaultTempUnit != "" {
		c.TempUnit = settings.TempUnit(cfg.DefaultTempUnit)
	}

	if err := s.Save(c); err != nil {
		log.Errorw("settings save failed", "error", err)
	}
	return c
}

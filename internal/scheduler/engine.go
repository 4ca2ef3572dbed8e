package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/i474232898/microdashboard/internal/clock"
	"github.com/i474232898/microdashboard/internal/display"
	"github.com/i474232898/microdashboard/internal/settings"
	"github.com/i474232898/microdashboard/internal/sysinfo"
	"github.com/i474232898/microdashboard/internal/weather"
)

// Default refresh cadence.
const (
	DefaultWeatherInterval  = 10 * time.Minute
	DefaultForecastInterval = 6 * time.Hour
)

// Fetcher is the remote data the engine pulls. *weather.Service implements it.
type Fetcher interface {
	FetchCurrentWeather(ctx context.Context, coords weather.Coordinates) (weather.CurrentConditions, error)
	FetchForecast(ctx context.Context, coords weather.Coordinates) (weather.ForecastReport, error)
	Geocode(ctx context.Context, query string) (weather.Place, error)
}

// Publisher mirrors accepted snapshots somewhere else (MQTT).
type Publisher interface {
	PublishWeather(s weather.WeatherSnapshot) error
	PublishForecast(s weather.ForecastSnapshot) error
}

// SettingsSaver persists a configuration. *settings.Store implements it.
type SettingsSaver interface {
	Save(cfg settings.Configuration) error
}

// SystemCollector samples host facts. *sysinfo.Collector implements it.
type SystemCollector interface {
	Collect(now time.Time) sysinfo.Info
}

// State is what the engine is doing. It is Idle between ticks; a tick
// reports the states it passed through in TickResult.States.
type State int

const (
	StateIdle State = iota
	StateRotating
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRotating:
		return "rotating"
	case StateRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// Transition names one step of the per-tick table.
type Transition int

const (
	TransitionSettings Transition = iota
	TransitionRotation
	TransitionWeather
	TransitionForecast
	TransitionRender
)

func (t Transition) String() string {
	switch t {
	case TransitionSettings:
		return "settings"
	case TransitionRotation:
		return "rotation"
	case TransitionWeather:
		return "weather"
	case TransitionForecast:
		return "forecast"
	case TransitionRender:
		return "render"
	default:
		return "unknown"
	}
}

// tick carries one iteration's monotonic timestamp and outcome.
type tick struct {
	ctx    context.Context
	now    time.Time
	dirty  bool
	result TickResult
}

// TickResult reports what one tick did.
type TickResult struct {
	Panel             display.Panel
	SettingsApplied   bool
	Rotated           bool
	WeatherAttempted  bool
	WeatherRefreshed  bool
	ForecastAttempted bool
	ForecastRefreshed bool
	Geocoded          bool
	Rendered          bool
	// States lists the non-idle states entered, in order.
	States []State
}

func (t *tick) enter(s State) {
	if n := len(t.result.States); n > 0 && t.result.States[n-1] == s {
		return
	}
	t.result.States = append(t.result.States, s)
}

type step struct {
	name Transition
	run  func(e *Engine, t *tick)
}

// transitions are evaluated in this order every tick. Rotation comes before
// the refreshes so a rotated-to panel is drawn once, with fresh data.
var transitions = [...]step{
	{TransitionSettings, (*Engine).stepSettings},
	{TransitionRotation, (*Engine).stepRotation},
	{TransitionWeather, (*Engine).stepWeather},
	{TransitionForecast, (*Engine).stepForecast},
	{TransitionRender, (*Engine).stepRender},
}

// Options wires the engine's collaborators. Fetcher, Clock and Sink are
// required.
type Options struct {
	Config           settings.Configuration
	Fetcher          Fetcher
	Clock            func(timezone string) clock.Source
	Sink             display.Sink
	System           SystemCollector
	History          weather.Store
	Publisher        Publisher
	Settings         SettingsSaver
	WeatherInterval  time.Duration
	ForecastInterval time.Duration
	BootID           string
	// Intn picks the quote; defaults to math/rand.
	Intn func(n int) int
}

// Engine is the refresh scheduler. Tick must be called from one goroutine;
// Apply and Status are safe from any goroutine.
type Engine struct {
	log      *zap.SugaredLogger
	fetcher  Fetcher
	clockFor func(string) clock.Source
	sink     display.Sink
	system   SystemCollector
	history  weather.Store
	pub      Publisher
	saver    SettingsSaver
	intn     func(int) int
	bootID   string

	weatherEvery  time.Duration
	forecastEvery time.Duration

	// Owned by the ticking goroutine.
	started             bool
	config              settings.Configuration
	clock               clock.Source
	panel               display.Panel
	lastRotation        time.Time
	weather             weather.WeatherSnapshot
	forecast            weather.ForecastSnapshot
	weatherAttempted    bool
	lastWeatherAttempt  time.Time
	forecastAttempted   bool
	lastForecastAttempt time.Time
	needGeocode         bool
	geocodeAttempted    bool
	lastGeocodeAttempt  time.Time
	lastWeatherErr      string
	lastForecastErr     string
	quoteIndex          int

	pending chan settings.Configuration
	status  atomic.Value // Status
	ticks   atomic.Uint64
	renders atomic.Uint64
}

// NewEngine builds an engine on the Clock panel with never-populated snapshots.
func NewEngine(opts Options, log *zap.SugaredLogger) *Engine {
	e := &Engine{
		log:           log,
		fetcher:       opts.Fetcher,
		clockFor:      opts.Clock,
		sink:          opts.Sink,
		system:        opts.System,
		history:       opts.History,
		pub:           opts.Publisher,
		saver:         opts.Settings,
		intn:          opts.Intn,
		bootID:        opts.BootID,
		weatherEvery:  opts.WeatherInterval,
		forecastEvery: opts.ForecastInterval,
		config:        opts.Config,
		needGeocode:   !opts.Config.ManualCoordinates,
		panel:         display.PanelClock,
		pending:       make(chan settings.Configuration, 1),
	}
	if e.weatherEvery <= 0 {
		e.weatherEvery = DefaultWeatherInterval
	}
	if e.forecastEvery <= 0 {
		e.forecastEvery = DefaultForecastInterval
	}
	if e.intn == nil {
		e.intn = rand.Intn
	}
	if e.system == nil {
		e.system = sysinfo.NewCollector(time.Now())
	}
	e.clock = e.clockFor(e.config.Timezone)
	return e
}

// Apply hands a new configuration to the engine. It takes effect at the
// start of the next tick; a newer call replaces one not yet applied.
func (e *Engine) Apply(cfg settings.Configuration) {
	for {
		select {
		case e.pending <- cfg:
			return
		default:
		}
		select {
		case <-e.pending:
		default:
		}
	}
}

// Tick runs one iteration of the transition table at monotonic time now.
func (e *Engine) Tick(ctx context.Context, now time.Time) TickResult {
	t := &tick{ctx: ctx, now: now}
	if !e.started {
		e.started = true
		e.lastRotation = now
		t.dirty = true
	}
	for _, s := range transitions {
		s.run(e, t)
	}
	e.ticks.Inc()
	if len(t.result.States) > 0 {
		e.log.Debugw("scheduler: tick", "states", fmt.Sprint(t.result.States), "panel", e.panel.String())
	}
	t.result.Panel = e.panel
	e.publishStatus(now)
	return t.result
}

// stepSettings applies a pending configuration, then resolves the city when
// it still needs geocoding. Geocoding runs on the first tick and after every
// city change; a failure is retried on the weather interval.
func (e *Engine) stepSettings(t *tick) {
	select {
	case cfg := <-e.pending:
		e.applySettings(t, cfg)
	default:
	}
	if e.needGeocode && due(e.geocodeAttempted, e.lastGeocodeAttempt, t.now, e.weatherEvery) {
		e.geocode(t)
	}
}

func (e *Engine) applySettings(t *tick, cfg settings.Configuration) {
	prev := e.config
	if cfg.ManualCoordinates {
		e.needGeocode = false
	} else if cfg.City != prev.City || prev.ManualCoordinates {
		// the old place stays until the new city resolves
		cfg.Latitude, cfg.Longitude = prev.Latitude, prev.Longitude
		if cfg.Timezone == "" {
			cfg.Timezone = prev.Timezone
		}
		e.needGeocode = true
		e.geocodeAttempted = false
	}
	e.setConfig(t, cfg)
	t.result.SettingsApplied = true
	e.log.Infow("scheduler: settings applied", "city", cfg.City, "lat", cfg.Latitude, "lon", cfg.Longitude,
		"rotation", cfg.RotationInterval, "unit", cfg.TempUnit)
}

// setConfig installs cfg and forces both refreshes. Snapshots for another
// place are dropped.
func (e *Engine) setConfig(t *tick, cfg settings.Configuration) {
	prev := e.config
	if cfg.Timezone != prev.Timezone {
		e.clock = e.clockFor(cfg.Timezone)
	}
	e.config = cfg

	e.weatherAttempted = false
	e.forecastAttempted = false
	if cfg.Coordinates() != prev.Coordinates() {
		e.weather = weather.WeatherSnapshot{}
		e.forecast = weather.ForecastSnapshot{}
	}
	t.dirty = true
}

// geocode resolves the configured city. On failure the current coordinates
// are kept. A changed result is saved.
func (e *Engine) geocode(t *tick) {
	t.enter(StateRefreshing)
	e.geocodeAttempted = true
	e.lastGeocodeAttempt = t.now

	city := e.config.City
	place, err := e.fetcher.Geocode(t.ctx, city)
	if err != nil {
		e.log.Warnw("scheduler: geocoding failed, keeping previous coordinates",
			"city", city, "kind", weather.Classify(err), "error", err)
		return
	}
	e.needGeocode = false
	t.result.Geocoded = true

	cfg := e.config.WithPlace(place)
	if cfg == e.config {
		return
	}
	e.setConfig(t, cfg)
	e.log.Infow("scheduler: geocoded", "city", cfg.City, "lat", cfg.Latitude, "lon", cfg.Longitude, "tz", cfg.Timezone)
	if e.saver != nil {
		if err := e.saver.Save(cfg); err != nil {
			e.log.Warnw("scheduler: saving geocoded settings failed", "error", err)
		}
	}
}

func (e *Engine) stepRotation(t *tick) {
	interval := e.config.RotationInterval
	if interval <= 0 || t.now.Sub(e.lastRotation) < interval {
		return
	}
	t.enter(StateRotating)
	e.panel = e.panel.Next()
	e.lastRotation = t.now
	if e.panel == display.PanelQuote {
		e.quoteIndex = e.intn(display.QuoteCount)
	}
	t.dirty = true
	t.result.Rotated = true
	e.log.Debugw("scheduler: rotated", "panel", e.panel.String())
}

func due(attempted bool, last, now time.Time, every time.Duration) bool {
	return !attempted || now.Sub(last) >= every
}

func (e *Engine) stepWeather(t *tick) {
	if !due(e.weatherAttempted, e.lastWeatherAttempt, t.now, e.weatherEvery) {
		return
	}
	t.enter(StateRefreshing)
	e.weatherAttempted = true
	e.lastWeatherAttempt = t.now
	t.result.WeatherAttempted = true

	coords := e.config.Coordinates()
	cur, err := e.fetcher.FetchCurrentWeather(t.ctx, coords)
	if err != nil {
		e.lastWeatherErr = weather.Classify(err)
		e.log.Warnw("scheduler: weather refresh failed", "kind", e.lastWeatherErr, "error", err)
		return
	}

	// Replace by value; renderers only ever see whole snapshots.
	e.weather = e.weather.Next(cur, t.now)
	e.lastWeatherErr = ""
	t.dirty = true
	t.result.WeatherRefreshed = true
	e.log.Infow("scheduler: weather refreshed", "provider", cur.ProviderName,
		"tempC", cur.TemperatureC, "code", cur.Code, "trend", e.weather.Trend().String())

	if e.history != nil {
		e.history.SaveSnapshot(coords.Key(), e.weather)
	}
	if e.pub != nil {
		if err := e.pub.PublishWeather(e.weather); err != nil {
			e.log.Warnw("scheduler: publish weather failed", "error", err)
		}
	}
}

func (e *Engine) stepForecast(t *tick) {
	if !due(e.forecastAttempted, e.lastForecastAttempt, t.now, e.forecastEvery) {
		return
	}
	t.enter(StateRefreshing)
	e.forecastAttempted = true
	e.lastForecastAttempt = t.now
	t.result.ForecastAttempted = true

	report, err := e.fetcher.FetchForecast(t.ctx, e.config.Coordinates())
	if err != nil {
		e.lastForecastErr = weather.Classify(err)
		e.log.Warnw("scheduler: forecast refresh failed", "kind", e.lastForecastErr, "error", err)
		return
	}

	e.forecast = weather.NewForecastSnapshot(report, t.now)
	e.lastForecastErr = ""
	t.dirty = true
	t.result.ForecastRefreshed = true
	e.log.Infow("scheduler: forecast refreshed", "provider", report.ProviderName,
		"sunrise", report.Sunrise, "sunset", report.Sunset)

	if e.pub != nil {
		if err := e.pub.PublishForecast(e.forecast); err != nil {
			e.log.Warnw("scheduler: publish forecast failed", "error", err)
		}
	}
}

// stepRender draws at most once per tick: when something changed, or every
// tick while the clock panel is up so its seconds keep moving.
func (e *Engine) stepRender(t *tick) {
	if !t.dirty && e.panel != display.PanelClock {
		return
	}

	in := display.Input{
		Config:     e.config,
		Weather:    e.weather,
		Forecast:   e.forecast,
		Clock:      e.readClock(),
		QuoteIndex: e.quoteIndex,
	}
	if e.panel == display.PanelQuote || e.panel == display.PanelSystemInfo {
		in.System = e.system.Collect(time.Now())
	}

	frame := display.Render(e.panel, in)
	if err := e.sink.Show(frame); err != nil {
		e.log.Warnw("scheduler: display write failed", "panel", e.panel.String(), "error", err)
	}
	e.renders.Inc()
	t.result.Rendered = true
}

func (e *Engine) readClock() clock.Reading {
	r, err := e.clock.Now()
	if err != nil {
		e.log.Debugw("scheduler: clock unavailable", "error", err)
		return clock.Reading{}
	}
	return r
}

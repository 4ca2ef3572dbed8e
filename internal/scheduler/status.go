package scheduler

import (
	"time"

	"github.com/i474232898/microdashboard/internal/clock"
	"github.com/i474232898/microdashboard/internal/display"
	"github.com/i474232898/microdashboard/internal/settings"
	"github.com/i474232898/microdashboard/internal/weather"
)

// Status is a read-only copy of the engine state, published after every tick.
type Status struct {
	BootID            string
	UpdatedAt         time.Time
	Panel             display.Panel
	Config            settings.Configuration
	Weather           weather.WeatherSnapshot
	Forecast          weather.ForecastSnapshot
	Clock             clock.Reading
	LastWeatherError  string
	LastForecastError string
	Ticks             uint64
	Renders           uint64
}

func (e *Engine) publishStatus(now time.Time) {
	e.status.Store(Status{
		BootID:            e.bootID,
		UpdatedAt:         now,
		Panel:             e.panel,
		Config:            e.config,
		Weather:           e.weather,
		Forecast:          e.forecast,
		Clock:             e.readClock(),
		LastWeatherError:  e.lastWeatherErr,
		LastForecastError: e.lastForecastErr,
		Ticks:             e.ticks.Load(),
		Renders:           e.renders.Load(),
	})
}

// Status returns the state as of the last completed tick. ok is false until
// the first tick has run.
func (e *Engine) Status() (s Status, ok bool) {
	s, ok = e.status.Load().(Status)
	return s, ok
}

// Order lists the per-tick transitions in evaluation order.
func Order() []Transition {
	out := make([]Transition, 0, len(transitions))
	for _, s := range transitions {
		out = append(out, s.name)
	}
	return out
}

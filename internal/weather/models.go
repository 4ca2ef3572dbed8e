package weather

import (
	"fmt"
	"time"
)

// Coordinates identify the place we fetch weather for.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Key returns a canonical string key for indexing these coordinates in stores.
func (c Coordinates) Key() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

// Place is a geocoding result.
type Place struct {
	Name        string      `json:"name"`
	Country     string      `json:"country"`
	Timezone    string      `json:"timezone,omitempty"`
	Coordinates Coordinates `json:"coordinates"`
}

// CurrentConditions is one fetcher's normalized current-weather reading.
type CurrentConditions struct {
	ProviderName string    `json:"provider"`
	Timestamp    time.Time `json:"timestamp"`
	TemperatureC float64   `json:"temperatureC"`
	Code         int       `json:"weatherCode"` // WMO code
}

// ForecastDay is a single day of the 3-day forecast.
type ForecastDay struct {
	Date string  `json:"date"` // YYYY-MM-DD
	MaxC float64 `json:"maxTemp"`
	MinC float64 `json:"minTemp"`
	Code int     `json:"code"`
}

// ForecastDays is the fixed number of forecast days we fetch and display.
const ForecastDays = 3

// ForecastReport is a forecast fetcher's fully populated result.
type ForecastReport struct {
	ProviderName string                    `json:"provider"`
	Days         [ForecastDays]ForecastDay `json:"days"`
	Sunrise      string                    `json:"sunrise"` // HH:MM local
	Sunset       string                    `json:"sunset"`  // HH:MM local
}

// WeatherSnapshot is the current-weather state the display renders.
// The zero value is the "never populated" snapshot.
type WeatherSnapshot struct {
	Valid        bool      `json:"valid"`
	TemperatureC float64   `json:"temperatureC"`
	Code         int       `json:"weatherCode"`
	PreviousC    float64   `json:"previousTemperatureC"`
	HasPrevious  bool      `json:"hasPrevious"`
	FetchedAt    time.Time `json:"fetchedAt"`
	Provider     string    `json:"provider,omitempty"`
}

// Next builds the snapshot that replaces s after a successful fetch.
// The previous temperature is carried over only from a populated snapshot.
func (s WeatherSnapshot) Next(c CurrentConditions, at time.Time) WeatherSnapshot {
	next := WeatherSnapshot{
		Valid:        true,
		TemperatureC: c.TemperatureC,
		Code:         c.Code,
		FetchedAt:    at,
		Provider:     c.ProviderName,
	}
	if s.Valid {
		next.PreviousC = s.TemperatureC
		next.HasPrevious = true
	}
	return next
}

// Trend reports the temperature direction since the previous fetch.
func (s WeatherSnapshot) Trend() Trend {
	if !s.Valid || !s.HasPrevious {
		return TrendNone
	}
	return TrendOf(s.PreviousC, s.TemperatureC)
}

// ForecastSnapshot is the forecast and sun-times state the display renders.
// The zero value is the "never populated" snapshot.
type ForecastSnapshot struct {
	Valid     bool                      `json:"valid"`
	Days      [ForecastDays]ForecastDay `json:"days"`
	Sunrise   string                    `json:"sunrise"`
	Sunset    string                    `json:"sunset"`
	FetchedAt time.Time                 `json:"fetchedAt"`
	Provider  string                    `json:"provider,omitempty"`
}

// NewForecastSnapshot builds a populated snapshot from a fetched report.
func NewForecastSnapshot(r ForecastReport, at time.Time) ForecastSnapshot {
	return ForecastSnapshot{
		Valid:     true,
		Days:      r.Days,
		Sunrise:   r.Sunrise,
		Sunset:    r.Sunset,
		FetchedAt: at,
		Provider:  r.ProviderName,
	}
}

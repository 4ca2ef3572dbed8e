package weather

import (
	"context"
	"errors"
)

// Fetch failure taxonomy. Every fetcher error wraps exactly one of these.
var (
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrRequestFailed      = errors.New("request failed")
	ErrMalformedResponse  = errors.New("malformed response")
)

// Classify returns the taxonomy label of a fetch error, for logs and status.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNetworkUnavailable):
		return "NetworkUnavailable"
	case errors.Is(err, ErrRequestFailed):
		return "RequestFailed"
	case errors.Is(err, ErrMalformedResponse):
		return "MalformedResponse"
	default:
		return "Unknown"
	}
}

// CurrentFetcher abstracts a current-weather source (e.g. Open-Meteo, OpenWeatherMap, WeatherAPI).
// Implementations must return either a fully populated reading or an error, never both.
type CurrentFetcher interface {
	Name() string
	FetchCurrentWeather(ctx context.Context, coords Coordinates) (CurrentConditions, error)
}

// ForecastFetcher abstracts a 3-day forecast and sun-times source.
type ForecastFetcher interface {
	Name() string
	FetchForecast(ctx context.Context, coords Coordinates) (ForecastReport, error)
}

// Geocoder resolves a "City, Country" query to coordinates.
type Geocoder interface {
	Name() string
	Geocode(ctx context.Context, query string) (Place, error)
}

// Store is the contract the snapshot history store must satisfy.
type Store interface {
	SaveSnapshot(key string, snapshot WeatherSnapshot)
}

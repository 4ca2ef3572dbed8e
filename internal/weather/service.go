package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultFetchTimeout bounds a single fetch including provider retries.
const DefaultFetchTimeout = 20 * time.Second

// Service runs fetchers one at a time, in order, on the caller's goroutine.
// The first fetcher that succeeds wins; failures fall through to the next one.
type Service struct {
	current   []CurrentFetcher
	forecast  []ForecastFetcher
	geocoders []Geocoder
	timeout   time.Duration
	log       *zap.SugaredLogger
}

// NewService creates a new Service.
func NewService(current []CurrentFetcher, forecast []ForecastFetcher, geocoders []Geocoder, timeout time.Duration, log *zap.SugaredLogger) *Service {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Service{
		current:   current,
		forecast:  forecast,
		geocoders: geocoders,
		timeout:   timeout,
		log:       log,
	}
}

// FetchCurrentWeather asks each current-weather fetcher in turn.
// The returned error wraps the last fetcher's error so its taxonomy survives.
func (s *Service) FetchCurrentWeather(ctx context.Context, coords Coordinates) (CurrentConditions, error) {
	if len(s.current) == 0 {
		return CurrentConditions{}, fmt.Errorf("%w: no weather fetchers configured", ErrRequestFailed)
	}

	var lastErr error
	for _, f := range s.current {
		c, err := s.fetchCurrent(ctx, f, coords)
		if err == nil {
			return c, nil
		}
		s.log.Debugw("weather fetcher failed", "provider", f.Name(), "kind", Classify(err), "error", err)
		lastErr = fmt.Errorf("%s: %w", f.Name(), err)
	}
	return CurrentConditions{}, lastErr
}

func (s *Service) fetchCurrent(ctx context.Context, f CurrentFetcher, coords Coordinates) (CurrentConditions, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	c, err := f.FetchCurrentWeather(ctx, coords)
	return c, timeoutAsNetwork(err)
}

// FetchForecast asks each forecast fetcher in turn.
func (s *Service) FetchForecast(ctx context.Context, coords Coordinates) (ForecastReport, error) {
	if len(s.forecast) == 0 {
		return ForecastReport{}, fmt.Errorf("%w: no forecast fetchers configured", ErrRequestFailed)
	}

	var lastErr error
	for _, f := range s.forecast {
		r, err := s.fetchForecast(ctx, f, coords)
		if err == nil {
			return r, nil
		}
		s.log.Debugw("forecast fetcher failed", "provider", f.Name(), "kind", Classify(err), "error", err)
		lastErr = fmt.Errorf("%s: %w", f.Name(), err)
	}
	return ForecastReport{}, lastErr
}

func (s *Service) fetchForecast(ctx context.Context, f ForecastFetcher, coords Coordinates) (ForecastReport, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	r, err := f.FetchForecast(ctx, coords)
	return r, timeoutAsNetwork(err)
}

// Geocode resolves a city query with the first geocoder that finds it.
func (s *Service) Geocode(ctx context.Context, query string) (Place, error) {
	if len(s.geocoders) == 0 {
		return Place{}, fmt.Errorf("%w: no geocoders configured", ErrRequestFailed)
	}

	var lastErr error
	for _, g := range s.geocoders {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		p, err := g.Geocode(ctx, query)
		cancel()
		if err == nil {
			return p, nil
		}
		s.log.Debugw("geocoder failed", "provider", g.Name(), "query", query, "error", err)
		lastErr = fmt.Errorf("%s: %w", g.Name(), timeoutAsNetwork(err))
	}
	return Place{}, lastErr
}

// timeoutAsNetwork folds context expiry into the taxonomy.
func timeoutAsNetwork(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrNetworkUnavailable) {
		return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}
	return err
}

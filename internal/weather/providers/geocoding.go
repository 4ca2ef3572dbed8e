package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kelvins/geocoder"
	"github.com/sony/gobreaker"

	"github.com/i474232898/microdashboard/internal/common"
	"github.com/i474232898/microdashboard/internal/weather"
)

// OpenMeteoGeocoder implements weather.Geocoder with the Open-Meteo geocoding API.
type OpenMeteoGeocoder struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoGeocoder(client *http.Client) *OpenMeteoGeocoder {
	return &OpenMeteoGeocoder{
		name:    "openmeteo-geocoding",
		baseURL: "https://geocoding-api.open-meteo.com/v1/search",
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff,
		},
		circuit: newCircuitBreaker("openmeteo-geocoding"),
	}
}

func (g *OpenMeteoGeocoder) Name() string {
	return g.name
}

// Geocode looks up "City, Country". The search runs on the city alone; when a
// country is given, the first result matching it by name or ISO code wins.
func (g *OpenMeteoGeocoder) Geocode(ctx context.Context, query string) (weather.Place, error) {
	city, country := common.SplitCity(query)
	if city == "" {
		return weather.Place{}, fmt.Errorf("%w: empty city", weather.ErrRequestFailed)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("name", city)
		values.Set("count", "5")
		values.Set("language", "en")
		values.Set("format", "json")

		u := fmt.Sprintf("%s?%s", g.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, g.httpCfg, g.circuit, buildRequest)
	if err != nil {
		return weather.Place{}, err
	}

	var payload struct {
		Results []struct {
			Name        string  `json:"name"`
			Latitude    float64 `json:"latitude"`
			Longitude   float64 `json:"longitude"`
			Timezone    string  `json:"timezone"`
			Country     string  `json:"country"`
			CountryCode string  `json:"country_code"`
		} `json:"results"`
	}
	if err := decodeJSON(resp, &payload); err != nil {
		return weather.Place{}, err
	}
	if len(payload.Results) == 0 {
		return weather.Place{}, fmt.Errorf("%w: city %q not found", weather.ErrRequestFailed, query)
	}

	best := payload.Results[0]
	if country != "" {
		for _, r := range payload.Results {
			if strings.EqualFold(r.Country, country) || strings.EqualFold(r.CountryCode, country) {
				best = r
				break
			}
		}
	}

	return weather.Place{
		Name:     best.Name,
		Country:  best.Country,
		Timezone: best.Timezone,
		Coordinates: weather.Coordinates{
			Latitude:  best.Latitude,
			Longitude: best.Longitude,
		},
	}, nil
}

// GoogleGeocoder implements weather.Geocoder with the Google Geocoding API.
// It returns no timezone, so the configured one is kept.
type GoogleGeocoder struct {
	name   string
	lookup func(geocoder.Address) (geocoder.Location, error)
}

// NewGoogleGeocoder sets the geocoder package's API key; only one key per process.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{
		name:   "google-geocoding",
		lookup: geocoder.Geocoding,
	}
}

func (g *GoogleGeocoder) Name() string {
	return g.name
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, query string) (weather.Place, error) {
	city, country := common.SplitCity(query)
	if city == "" {
		return weather.Place{}, fmt.Errorf("%w: empty city", weather.ErrRequestFailed)
	}

	type result struct {
		loc geocoder.Location
		err error
	}
	// The geocoder package takes no context; bound it by ours.
	done := make(chan result, 1)
	go func() {
		loc, err := g.lookup(geocoder.Address{City: city, Country: country})
		done <- result{loc: loc, err: err}
	}()

	select {
	case <-ctx.Done():
		return weather.Place{}, fmt.Errorf("%w: %v", weather.ErrNetworkUnavailable, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return weather.Place{}, fmt.Errorf("%w: %v", weather.ErrRequestFailed, r.err)
		}
		return weather.Place{
			Name:    city,
			Country: country,
			Coordinates: weather.Coordinates{
				Latitude:  r.loc.Latitude,
				Longitude: r.loc.Longitude,
			},
		}, nil
	}
}

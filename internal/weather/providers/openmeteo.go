package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/microdashboard/internal/weather"
)

// OpenMeteoProvider implements weather.CurrentFetcher and weather.ForecastFetcher for Open-Meteo.
// It needs no API key.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff,
		},
		circuit: newCircuitBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) request(ctx context.Context, coords weather.Coordinates, extra url.Values) (*http.Response, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(coords.Latitude, 'f', 4, 64))
		values.Set("longitude", strconv.FormatFloat(coords.Longitude, 'f', 4, 64))
		for k, vs := range extra {
			for _, v := range vs {
				values.Add(k, v)
			}
		}

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	return doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
}

func (p *OpenMeteoProvider) FetchCurrentWeather(ctx context.Context, coords weather.Coordinates) (weather.CurrentConditions, error) {
	resp, err := p.request(ctx, coords, url.Values{"current_weather": {"true"}})
	if err != nil {
		return weather.CurrentConditions{}, err
	}

	var payload struct {
		CurrentWeather *struct {
			Temperature *float64 `json:"temperature"`
			WeatherCode *int     `json:"weathercode"`
			Time        string   `json:"time"`
		} `json:"current_weather"`
	}
	if err := decodeJSON(resp, &payload); err != nil {
		return weather.CurrentConditions{}, err
	}

	cw := payload.CurrentWeather
	if cw == nil {
		return weather.CurrentConditions{}, fmt.Errorf("%w: no current_weather in response", weather.ErrMalformedResponse)
	}
	if cw.Temperature == nil || cw.WeatherCode == nil {
		return weather.CurrentConditions{}, fmt.Errorf("%w: current_weather lacks temperature or weathercode", weather.ErrMalformedResponse)
	}

	ts, err := time.Parse(openMeteoTimeLayout, cw.Time)
	if err != nil {
		ts = time.Now().UTC()
	}

	return weather.CurrentConditions{
		ProviderName: p.name,
		Timestamp:    ts.UTC(),
		TemperatureC: *cw.Temperature,
		Code:         *cw.WeatherCode,
	}, nil
}

// openMeteoTimeLayout is the ISO8601 minute-resolution layout Open-Meteo uses
// for current_weather.time and daily sunrise/sunset.
const openMeteoTimeLayout = "2006-01-02T15:04"

func (p *OpenMeteoProvider) FetchForecast(ctx context.Context, coords weather.Coordinates) (weather.ForecastReport, error) {
	resp, err := p.request(ctx, coords, url.Values{
		"daily":         {"temperature_2m_max,temperature_2m_min,weathercode,sunrise,sunset"},
		"forecast_days": {strconv.Itoa(weather.ForecastDays)},
		"timezone":      {"auto"},
	})
	if err != nil {
		return weather.ForecastReport{}, err
	}

	var payload struct {
		Daily *struct {
			Time    []string  `json:"time"`
			MaxTemp []float64 `json:"temperature_2m_max"`
			MinTemp []float64 `json:"temperature_2m_min"`
			Code    []int     `json:"weathercode"`
			Sunrise []string  `json:"sunrise"`
			Sunset  []string  `json:"sunset"`
		} `json:"daily"`
	}
	if err := decodeJSON(resp, &payload); err != nil {
		return weather.ForecastReport{}, err
	}

	d := payload.Daily
	if d == nil {
		return weather.ForecastReport{}, fmt.Errorf("%w: no daily data in response", weather.ErrMalformedResponse)
	}
	n := weather.ForecastDays
	if len(d.Time) < n || len(d.MaxTemp) < n || len(d.MinTemp) < n || len(d.Code) < n {
		return weather.ForecastReport{}, fmt.Errorf("%w: daily arrays shorter than %d days", weather.ErrMalformedResponse, n)
	}
	if len(d.Sunrise) == 0 || len(d.Sunset) == 0 {
		return weather.ForecastReport{}, fmt.Errorf("%w: no sunrise/sunset data", weather.ErrMalformedResponse)
	}

	sunrise, err := clockTime(d.Sunrise[0])
	if err != nil {
		return weather.ForecastReport{}, err
	}
	sunset, err := clockTime(d.Sunset[0])
	if err != nil {
		return weather.ForecastReport{}, err
	}

	report := weather.ForecastReport{
		ProviderName: p.name,
		Sunrise:      sunrise,
		Sunset:       sunset,
	}
	for i := 0; i < n; i++ {
		if _, err := time.Parse("2006-01-02", d.Time[i]); err != nil {
			return weather.ForecastReport{}, fmt.Errorf("%w: bad forecast date %q", weather.ErrMalformedResponse, d.Time[i])
		}
		report.Days[i] = weather.ForecastDay{
			Date: d.Time[i],
			MaxC: d.MaxTemp[i],
			MinC: d.MinTemp[i],
			Code: d.Code[i],
		}
	}
	return report, nil
}

// clockTime extracts local "HH:MM" from an Open-Meteo timestamp.
func clockTime(s string) (string, error) {
	t, err := time.Parse(openMeteoTimeLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: bad time %q", weather.ErrMalformedResponse, s)
	}
	return t.Format("15:04"), nil
}

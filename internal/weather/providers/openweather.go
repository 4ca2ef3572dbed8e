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

// OpenWeatherProvider implements weather.CurrentFetcher for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/weather",
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff,
		},
		circuit: newCircuitBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) FetchCurrentWeather(ctx context.Context, coords weather.Coordinates) (weather.CurrentConditions, error) {
	if p.apiKey == "" {
		return weather.CurrentConditions{}, fmt.Errorf("%w: openweather api key is not configured", weather.ErrRequestFailed)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")
		values.Set("lat", strconv.FormatFloat(coords.Latitude, 'f', 4, 64))
		values.Set("lon", strconv.FormatFloat(coords.Longitude, 'f', 4, 64))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.CurrentConditions{}, err
	}

	var payload struct {
		Dt   int64 `json:"dt"`
		Main *struct {
			Temp *float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			ID int `json:"id"`
		} `json:"weather"`
	}
	if err := decodeJSON(resp, &payload); err != nil {
		return weather.CurrentConditions{}, err
	}
	if payload.Main == nil || payload.Main.Temp == nil {
		return weather.CurrentConditions{}, fmt.Errorf("%w: openweather payload lacks main.temp", weather.ErrMalformedResponse)
	}

	ts := time.Unix(payload.Dt, 0).UTC()
	if payload.Dt == 0 {
		ts = time.Now().UTC()
	}

	code := weather.CodeUnknown
	if len(payload.Weather) > 0 {
		code = wmoFromOpenWeather(payload.Weather[0].ID)
	}

	return weather.CurrentConditions{
		ProviderName: p.name,
		Timestamp:    ts,
		TemperatureC: *payload.Main.Temp,
		Code:         code,
	}, nil
}

// wmoFromOpenWeather approximates the WMO code for an OpenWeatherMap condition id.
func wmoFromOpenWeather(id int) int {
	switch {
	case id >= 200 && id < 300:
		return 95
	case id >= 300 && id < 400:
		return 53
	case id == 511:
		return 66
	case id >= 520 && id < 600:
		return 81
	case id >= 500 && id < 600:
		return 63
	case id >= 620 && id < 700:
		return 85
	case id >= 600 && id < 700:
		return 73
	case id >= 700 && id < 800:
		return 45
	case id == 800:
		return 0
	case id == 801:
		return 1
	case id == 802:
		return 2
	case id == 803 || id == 804:
		return 3
	default:
		return weather.CodeUnknown
	}
}

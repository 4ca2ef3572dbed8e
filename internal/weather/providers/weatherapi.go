package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/microdashboard/internal/common"
	"github.com/i474232898/microdashboard/internal/weather"
)

// WeatherAPIProvider implements weather.CurrentFetcher for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1/current.json",
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff,
		},
		circuit: newCircuitBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) FetchCurrentWeather(ctx context.Context, coords weather.Coordinates) (weather.CurrentConditions, error) {
	if p.apiKey == "" {
		return weather.CurrentConditions{}, fmt.Errorf("%w: weatherapi api key is not configured", weather.ErrRequestFailed)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		// WeatherAPI uses "q" for location; it accepts "lat,lon".
		values.Set("q", fmt.Sprintf("%.4f,%.4f", coords.Latitude, coords.Longitude))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.CurrentConditions{}, err
	}

	var payload struct {
		Current *struct {
			LastUpdatedEpoch int64    `json:"last_updated_epoch"`
			TempC            *float64 `json:"temp_c"`
			Condition        struct {
				Text string `json:"text"`
			} `json:"condition"`
		} `json:"current"`
	}
	if err := decodeJSON(resp, &payload); err != nil {
		return weather.CurrentConditions{}, err
	}
	if payload.Current == nil || payload.Current.TempC == nil {
		return weather.CurrentConditions{}, fmt.Errorf("%w: weatherapi payload lacks current.temp_c", weather.ErrMalformedResponse)
	}

	ts := time.Unix(payload.Current.LastUpdatedEpoch, 0).UTC()
	if payload.Current.LastUpdatedEpoch == 0 {
		ts = time.Now().UTC()
	}

	return weather.CurrentConditions{
		ProviderName: p.name,
		Timestamp:    ts,
		TemperatureC: *payload.Current.TempC,
		Code:         wmoFromWeatherAPIText(payload.Current.Condition.Text),
	}, nil
}

// wmoFromWeatherAPIText approximates a WMO code from WeatherAPI's condition text.
// Order matters: "patchy rain nearby" must hit rain before cloud.
func wmoFromWeatherAPIText(text string) int {
	t := strings.ToLower(text)
	switch {
	case t == "":
		return weather.CodeUnknown
	case common.HasAny(t, "thunder", "storm"):
		return 95
	case common.HasAny(t, "freezing rain", "freezing drizzle"):
		return 66
	case common.HasAny(t, "snow shower"):
		return 85
	case common.HasAny(t, "snow", "sleet", "blizzard", "ice pellets"):
		return 73
	case common.HasAny(t, "shower"):
		return 81
	case common.HasAny(t, "drizzle"):
		return 53
	case common.HasAny(t, "rain"):
		return 63
	case common.HasAny(t, "fog", "mist"):
		return 45
	case common.HasAny(t, "overcast"):
		return 3
	case common.HasAny(t, "partly"):
		return 2
	case common.HasAny(t, "cloud"):
		return 3
	case common.HasAny(t, "sunny", "clear"):
		return 0
	default:
		return weather.CodeUnknown
	}
}

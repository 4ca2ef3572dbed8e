package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kelvins/geocoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/microdashboard/internal/weather"
)

var fastBackoff = BackoffConfig{
	MaxRetries:      2,
	InitialInterval: time.Millisecond,
	MaxInterval:     2 * time.Millisecond,
}

func serveJSON(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func testOpenMeteo(srv *httptest.Server) *OpenMeteoProvider {
	p := NewOpenMeteoProvider(srv.Client())
	p.baseURL = srv.URL
	p.httpCfg.Backoff = fastBackoff
	return p
}

var kreuzlingen = weather.Coordinates{Latitude: 47.65, Longitude: 9.18}

func TestOpenMeteoCurrentWeather(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"current_weather":{"temperature":12.4,"weathercode":3,"time":"2026-10-17T09:00"}}`))
	}))
	defer srv.Close()

	c, err := testOpenMeteo(srv).FetchCurrentWeather(context.Background(), kreuzlingen)
	require.NoError(t, err)
	assert.Equal(t, "openmeteo", c.ProviderName)
	assert.Equal(t, 12.4, c.TemperatureC)
	assert.Equal(t, 3, c.Code)
	assert.Equal(t, time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC), c.Timestamp)
	assert.Contains(t, gotQuery, "latitude=47.6500")
	assert.Contains(t, gotQuery, "current_weather=true")
}

func TestOpenMeteoCurrentWeatherMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":          `<html>`,
		"no current":        `{"daily":{}}`,
		"no temperature":    `{"current_weather":{"weathercode":3}}`,
		"no weathercode":    `{"current_weather":{"temperature":3}}`,
		"wrong value types": `{"current_weather":{"temperature":"warm","weathercode":3}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv, _ := serveJSON(t, http.StatusOK, body)
			_, err := testOpenMeteo(srv).FetchCurrentWeather(context.Background(), kreuzlingen)
			require.Error(t, err)
			assert.True(t, errors.Is(err, weather.ErrMalformedResponse), "got %v", err)
		})
	}
}

func TestOpenMeteoClientErrorIsNotRetried(t *testing.T) {
	srv, hits := serveJSON(t, http.StatusBadRequest, `{"error":true}`)

	_, err := testOpenMeteo(srv).FetchCurrentWeather(context.Background(), kreuzlingen)
	require.Error(t, err)
	assert.True(t, errors.Is(err, weather.ErrRequestFailed))
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestOpenMeteoServerErrorIsRetried(t *testing.T) {
	srv, hits := serveJSON(t, http.StatusServiceUnavailable, ``)

	_, err := testOpenMeteo(srv).FetchCurrentWeather(context.Background(), kreuzlingen)
	require.Error(t, err)
	assert.True(t, errors.Is(err, weather.ErrRequestFailed))
	assert.Equal(t, int32(fastBackoff.MaxRetries+1), atomic.LoadInt32(hits))
}

func TestOpenMeteoNetworkUnavailable(t *testing.T) {
	srv, _ := serveJSON(t, http.StatusOK, `{}`)
	p := testOpenMeteo(srv)
	srv.Close()

	_, err := p.FetchCurrentWeather(context.Background(), kreuzlingen)
	require.Error(t, err)
	assert.True(t, errors.Is(err, weather.ErrNetworkUnavailable), "got %v", err)
}

func TestOpenMeteoCircuitOpensAfterRepeatedFailures(t *testing.T) {
	srv, hits := serveJSON(t, http.StatusBadRequest, ``)
	p := testOpenMeteo(srv)

	for i := 0; i < 5; i++ {
		_, err := p.FetchCurrentWeather(context.Background(), kreuzlingen)
		require.Error(t, err)
	}
	_, err := p.FetchCurrentWeather(context.Background(), kreuzlingen)
	require.Error(t, err)
	assert.True(t, errors.Is(err, weather.ErrNetworkUnavailable), "got %v", err)
	assert.Equal(t, int32(5), atomic.LoadInt32(hits))
}

const forecastBody = `{
  "daily": {
    "time": ["2026-10-17","2026-10-18","2026-10-19"],
    "temperature_2m_max": [14.2, 11.0, 9.5],
    "temperature_2m_min": [6.1, 4.0, 2.2],
    "weathercode": [2, 61, 71],
    "sunrise": ["2026-10-17T07:45","2026-10-18T07:46","2026-10-19T07:48"],
    "sunset": ["2026-10-17T18:31","2026-10-18T18:29","2026-10-19T18:27"]
  }
}`

func TestOpenMeteoForecast(t *testing.T) {
	srv, _ := serveJSON(t, http.StatusOK, forecastBody)

	r, err := testOpenMeteo(srv).FetchForecast(context.Background(), kreuzlingen)
	require.NoError(t, err)
	assert.Equal(t, "07:45", r.Sunrise)
	assert.Equal(t, "18:31", r.Sunset)
	assert.Equal(t, weather.ForecastDay{Date: "2026-10-18", MaxC: 11.0, MinC: 4.0, Code: 61}, r.Days[1])
	assert.Equal(t, 71, r.Days[2].Code)
}

func TestOpenMeteoForecastMalformed(t *testing.T) {
	cases := map[string]string{
		"no daily":      `{"current_weather":{}}`,
		"short arrays":  `{"daily":{"time":["2026-10-17"],"temperature_2m_max":[1],"temperature_2m_min":[0],"weathercode":[0],"sunrise":["2026-10-17T07:45"],"sunset":["2026-10-17T18:31"]}}`,
		"no sunrise":    `{"daily":{"time":["2026-10-17","2026-10-18","2026-10-19"],"temperature_2m_max":[1,2,3],"temperature_2m_min":[0,0,0],"weathercode":[0,0,0],"sunset":["2026-10-17T18:31"]}}`,
		"bad sunset":    `{"daily":{"time":["2026-10-17","2026-10-18","2026-10-19"],"temperature_2m_max":[1,2,3],"temperature_2m_min":[0,0,0],"weathercode":[0,0,0],"sunrise":["2026-10-17T07:45"],"sunset":["later"]}}`,
		"bad date":      `{"daily":{"time":["today","2026-10-18","2026-10-19"],"temperature_2m_max":[1,2,3],"temperature_2m_min":[0,0,0],"weathercode":[0,0,0],"sunrise":["2026-10-17T07:45"],"sunset":["2026-10-17T18:31"]}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv, _ := serveJSON(t, http.StatusOK, body)
			_, err := testOpenMeteo(srv).FetchForecast(context.Background(), kreuzlingen)
			require.Error(t, err)
			assert.True(t, errors.Is(err, weather.ErrMalformedResponse), "got %v", err)
		})
	}
}

func TestOpenWeatherCurrentWeather(t *testing.T) {
	srv, _ := serveJSON(t, http.StatusOK, `{"dt":1760000000,"main":{"temp":8.5},"weather":[{"id":501}]}`)
	p := NewOpenWeatherProvider(srv.Client(), "key")
	p.baseURL = srv.URL
	p.httpCfg.Backoff = fastBackoff

	c, err := p.FetchCurrentWeather(context.Background(), kreuzlingen)
	require.NoError(t, err)
	assert.Equal(t, 8.5, c.TemperatureC)
	assert.Equal(t, 63, c.Code)
	assert.Equal(t, time.Unix(1760000000, 0).UTC(), c.Timestamp)
}

func TestOpenWeatherRequiresKey(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, "")
	_, err := p.FetchCurrentWeather(context.Background(), kreuzlingen)
	assert.True(t, errors.Is(err, weather.ErrRequestFailed))
}

func TestWMOFromOpenWeather(t *testing.T) {
	cases := map[int]int{
		211: 95, 301: 53, 511: 66, 521: 81, 500: 63, 601: 73, 621: 85,
		741: 45, 800: 0, 801: 1, 802: 2, 804: 3, 999: weather.CodeUnknown,
	}
	for id, want := range cases {
		assert.Equal(t, want, wmoFromOpenWeather(id), "id %d", id)
	}
}

func TestWeatherAPICurrentWeather(t *testing.T) {
	srv, _ := serveJSON(t, http.StatusOK, `{"current":{"last_updated_epoch":1760000000,"temp_c":-1.5,"condition":{"text":"Light snow showers"}}}`)
	p := NewWeatherAPIProvider(srv.Client(), "key")
	p.baseURL = srv.URL
	p.httpCfg.Backoff = fastBackoff

	c, err := p.FetchCurrentWeather(context.Background(), kreuzlingen)
	require.NoError(t, err)
	assert.Equal(t, -1.5, c.TemperatureC)
	assert.Equal(t, 85, c.Code)
}

func TestWMOFromWeatherAPIText(t *testing.T) {
	cases := map[string]int{
		"":                          weather.CodeUnknown,
		"Sunny":                     0,
		"Partly cloudy":             2,
		"Overcast":                  3,
		"Mist":                      45,
		"Patchy rain nearby":        63,
		"Light drizzle":             53,
		"Moderate rain shower":      81,
		"Light freezing rain":       66,
		"Blizzard":                  73,
		"Thundery outbreaks nearby": 95,
	}
	for text, want := range cases {
		assert.Equal(t, want, wmoFromWeatherAPIText(text), "text %q", text)
	}
}

func TestOpenMeteoGeocoderPrefersCountryMatch(t *testing.T) {
	var gotName, gotCount string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotName = r.URL.Query().Get("name")
		gotCount = r.URL.Query().Get("count")
		_, _ = w.Write([]byte(`{"results":[
			{"name":"Kreuzlingen","latitude":1,"longitude":2,"timezone":"Europe/Berlin","country":"Germany","country_code":"DE"},
			{"name":"Kreuzlingen","latitude":47.65,"longitude":9.17,"timezone":"Europe/Zurich","country":"Switzerland","country_code":"CH"}
		]}`))
	}))
	defer srv.Close()

	g := NewOpenMeteoGeocoder(srv.Client())
	g.baseURL = srv.URL
	g.httpCfg.Backoff = fastBackoff

	p, err := g.Geocode(context.Background(), "Kreuzlingen, CH")
	require.NoError(t, err)
	assert.Equal(t, "Kreuzlingen", gotName)
	assert.Equal(t, "5", gotCount)
	assert.Equal(t, "Europe/Zurich", p.Timezone)
	assert.Equal(t, weather.Coordinates{Latitude: 47.65, Longitude: 9.17}, p.Coordinates)
}

func TestOpenMeteoGeocoderNotFound(t *testing.T) {
	srv, _ := serveJSON(t, http.StatusOK, `{"generationtime_ms":0.5}`)
	g := NewOpenMeteoGeocoder(srv.Client())
	g.baseURL = srv.URL

	_, err := g.Geocode(context.Background(), "Atlantis")
	assert.True(t, errors.Is(err, weather.ErrRequestFailed))
}

func TestGoogleGeocoder(t *testing.T) {
	g := &GoogleGeocoder{
		name: "google-geocoding",
		lookup: func(a geocoder.Address) (geocoder.Location, error) {
			if a.City != "Zurich" || a.Country != "Switzerland" {
				return geocoder.Location{}, errors.New("unexpected address")
			}
			return geocoder.Location{Latitude: 47.37, Longitude: 8.54}, nil
		},
	}

	p, err := g.Geocode(context.Background(), "Zurich, Switzerland")
	require.NoError(t, err)
	assert.Equal(t, 47.37, p.Coordinates.Latitude)
	assert.Empty(t, p.Timezone)

	g.lookup = func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, errors.New("ZERO_RESULTS")
	}
	_, err = g.Geocode(context.Background(), "Zurich, Switzerland")
	assert.True(t, errors.Is(err, weather.ErrRequestFailed))
}

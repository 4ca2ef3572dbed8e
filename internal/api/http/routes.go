package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/i474232898/microdashboard/internal/display"
	"github.com/i474232898/microdashboard/internal/scheduler"
	"github.com/i474232898/microdashboard/internal/settings"
	"github.com/i474232898/microdashboard/internal/store"
	"github.com/i474232898/microdashboard/internal/sysinfo"
	"github.com/i474232898/microdashboard/internal/weather"
)

var validate = validator.New()

// StatusSource exposes the scheduler's last published state.
type StatusSource interface {
	Status() (scheduler.Status, bool)
	Apply(cfg settings.Configuration)
}

// SettingsSaver persists the display configuration.
type SettingsSaver interface {
	Save(cfg settings.Configuration) error
}

// History serves accepted weather snapshots.
type History interface {
	GetLatest(key string) (weather.WeatherSnapshot, error)
	GetRange(key string, from, to time.Time) ([]weather.WeatherSnapshot, error)
}

// SystemCollector samples host facts.
type SystemCollector interface {
	Collect(now time.Time) sysinfo.Info
}

// Deps are the handlers' collaborators.
type Deps struct {
	Engine   StatusSource
	Settings SettingsSaver
	History  History
	System   SystemCollector
	Log      *zap.SugaredLogger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/status", func(c *fiber.Ctx) error {
		st, ok := d.Engine.Status()
		if !ok {
			return fiber.NewError(fiber.StatusServiceUnavailable, "display not started yet")
		}
		return c.JSON(newStatusResponse(st, d.System.Collect(time.Now())))
	})

	v1.Get("/settings", func(c *fiber.Ctx) error {
		st, ok := d.Engine.Status()
		if !ok {
			return fiber.NewError(fiber.StatusServiceUnavailable, "display not started yet")
		}
		return c.JSON(st.Config)
	})

	v1.Post("/settings", func(c *fiber.Ctx) error {
		var req settingsRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid settings body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		st, ok := d.Engine.Status()
		if !ok {
			return fiber.NewError(fiber.StatusServiceUnavailable, "display not started yet")
		}
		cfg := req.merge(st.Config)
		if err := cfg.Validate(); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := d.Settings.Save(cfg); err != nil {
			d.Log.Errorw("api: settings save failed", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save settings")
		}
		d.Engine.Apply(cfg)
		d.Log.Infow("api: settings saved", "city", cfg.City, "unit", cfg.TempUnit, "rotation", cfg.RotationInterval)

		return c.Status(fiber.StatusAccepted).JSON(cfg)
	})

	v1.Get("/weather/latest", func(c *fiber.Ctx) error {
		st, ok := d.Engine.Status()
		if !ok {
			return fiber.NewError(fiber.StatusServiceUnavailable, "display not started yet")
		}
		coords := st.Config.Coordinates()
		snapshot, err := d.History.GetLatest(coords.Key())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather recorded for current location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch latest weather")
		}

		return c.JSON(fiber.Map{
			"location":    st.Config.Title(),
			"coordinates": coords,
			"snapshot":    snapshot,
			"trend":       snapshot.Trend().String(),
		})
	})

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		st, ok := d.Engine.Status()
		if !ok {
			return fiber.NewError(fiber.StatusServiceUnavailable, "display not started yet")
		}
		coords := st.Config.Coordinates()
		snapshots, err := d.History.GetRange(coords.Key(), req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
		}

		return c.JSON(fiber.Map{
			"location":    st.Config.Title(),
			"coordinates": coords,
			"from":        req.From,
			"to":          req.To,
			"snapshots":   snapshots,
		})
	})
}

// settingsRequest is a partial update from the settings form or a JSON
// client. Zero fields leave the current value unchanged.
type settingsRequest struct {
	City            string   `json:"city" form:"city" validate:"omitempty,max=50"`
	DisplayName     string   `json:"displayName" form:"displayName" validate:"omitempty,max=30"`
	TempUnit        string   `json:"tempUnit" form:"tempUnit" validate:"omitempty,oneof=C F B"`
	DurationSeconds int      `json:"duration" form:"duration" validate:"omitempty,gte=1,lte=60"`
	Manual          *bool    `json:"manual" form:"manual"`
	Latitude        *float64 `json:"latitude" form:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude       *float64 `json:"longitude" form:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

func (r settingsRequest) merge(cfg settings.Configuration) settings.Configuration {
	if r.City != "" {
		cfg.City = r.City
	}
	if r.DisplayName != "" {
		cfg.DisplayName = r.DisplayName
	}
	if r.TempUnit != "" {
		cfg.TempUnit = settings.TempUnit(r.TempUnit)
	}
	if r.DurationSeconds > 0 {
		cfg.RotationInterval = time.Duration(r.DurationSeconds) * time.Second
	}
	if r.Manual != nil {
		cfg.ManualCoordinates = *r.Manual
	}
	if cfg.ManualCoordinates {
		if r.Latitude != nil {
			cfg.Latitude = *r.Latitude
		}
		if r.Longitude != nil {
			cfg.Longitude = *r.Longitude
		}
	}
	return cfg
}

type forecastDay struct {
	Date    string  `json:"date"`
	MaxTemp float64 `json:"maxTemp"`
	MinTemp float64 `json:"minTemp"`
	Code    int     `json:"code"`
	Desc    string  `json:"desc"`
}

type statusResponse struct {
	BootID   string `json:"bootId"`
	Uptime   string `json:"uptime"`
	FreeHeap uint64 `json:"freeHeap"`
	RSSI     *int   `json:"rssi"`
	IP       string `json:"ip"`
	SSID     string `json:"ssid,omitempty"`
	Host     string `json:"host"`

	Time string `json:"time"`
	Date string `json:"date"`
	Day  string `json:"day"`

	Temperature *float64   `json:"temperature"`
	WeatherCode int        `json:"weatherCode"`
	WeatherDesc string     `json:"weatherDesc"`
	Trend       string     `json:"trend"`
	TempUnit    string     `json:"tempUnit"`
	UpdatedAt   *time.Time `json:"weatherUpdatedAt,omitempty"`

	Sunrise          string        `json:"sunrise"`
	Sunset           string        `json:"sunset"`
	DayLength        string        `json:"dayLength"`
	MoonPhase        string        `json:"moonPhase"`
	MoonIllumination int           `json:"moonIllumination"`
	Forecast         []forecastDay `json:"forecast"`

	Location          string `json:"location"`
	ViewDuration      int    `json:"viewDuration"`
	Panel             string `json:"panel"`
	LastWeatherError  string `json:"lastWeatherError,omitempty"`
	LastForecastError string `json:"lastForecastError,omitempty"`
}

func newStatusResponse(st scheduler.Status, sys sysinfo.Info) statusResponse {
	resp := statusResponse{
		BootID:       st.BootID,
		Uptime:       display.FormatUptime(sys.Uptime),
		FreeHeap:     sys.FreeBytes,
		IP:           sys.IP,
		SSID:         sys.Interface,
		Host:         sys.Hostname,
		Time:         "??:??",
		Date:         "??-??-????",
		Day:          "??",
		WeatherCode:  weather.CodeUnknown,
		WeatherDesc:  display.Placeholder,
		Trend:        st.Weather.Trend().String(),
		TempUnit:     string(st.Config.TempUnit),
		Sunrise:      display.Placeholder,
		Sunset:       display.Placeholder,
		DayLength:    display.Placeholder,
		MoonPhase:    display.Placeholder,
		Forecast:     []forecastDay{},
		Location:     st.Config.Title(),
		ViewDuration: int(st.Config.RotationInterval / time.Second),
		Panel:        st.Panel.String(),

		LastWeatherError:  st.LastWeatherError,
		LastForecastError: st.LastForecastError,
	}
	if sys.HasRSSI {
		rssi := sys.RSSI
		resp.RSSI = &rssi
	}

	if r := st.Clock; r.Valid {
		resp.Time = r.Time.Format("15:04")
		resp.Date = r.Time.Format("02-01-2006")
		resp.Day = r.Weekday.String()
		m := display.Moon(r.Year, int(r.Month), r.Day)
		resp.MoonPhase = m.Name()
		resp.MoonIllumination = int(m.Illumination * 100)
	}

	if w := st.Weather; w.Valid {
		temp := w.TemperatureC
		resp.Temperature = &temp
		resp.WeatherCode = w.Code
		resp.WeatherDesc = weather.Describe(w.Code)
		at := w.FetchedAt
		resp.UpdatedAt = &at
	}

	if f := st.Forecast; f.Valid {
		resp.Sunrise = f.Sunrise
		resp.Sunset = f.Sunset
		resp.DayLength = display.DayLength(f.Sunrise, f.Sunset)
		for _, d := range f.Days {
			resp.Forecast = append(resp.Forecast, forecastDay{
				Date:    d.Date,
				MaxTemp: d.MaxC,
				MinTemp: d.MinC,
				Code:    d.Code,
				Desc:    weather.Describe(d.Code),
			})
		}
	}
	return resp
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}

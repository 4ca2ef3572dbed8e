// Package settings holds the user-facing display configuration and its
// persistent store.
package settings

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/microdashboard/internal/weather"
)

var validate = validator.New()

// TempUnit selects how temperatures are shown.
type TempUnit string

const (
	Celsius    TempUnit = "C"
	Fahrenheit TempUnit = "F"
	Both       TempUnit = "B"
)

// Rotation interval bounds accepted from the settings form.
const (
	MinRotationInterval = time.Second
	MaxRotationInterval = 60 * time.Second
)

// Configuration is the display configuration. It is replaced as a whole, never
// mutated in place while the scheduler runs.
type Configuration struct {
	City              string        `json:"cityName" validate:"required,max=50"`
	DisplayName       string        `json:"displayName" validate:"max=30"`
	Latitude          float64       `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude         float64       `json:"longitude" validate:"gte=-180,lte=180"`
	Timezone          string        `json:"timezone" validate:"max=50"`
	TempUnit          TempUnit      `json:"tempUnit" validate:"oneof=C F B"`
	RotationInterval  time.Duration `json:"-" validate:"gte=1s,lte=60s"`
	ManualCoordinates bool          `json:"manualCoordinates"`
}

// Defaults returns the factory configuration.
func Defaults() Configuration {
	return Configuration{
		City:             "Kreuzlingen, Switzerland",
		DisplayName:      "Kreuzlingen, CH",
		Latitude:         47.65,
		Longitude:        9.18,
		Timezone:         "Europe/Zurich",
		TempUnit:         Celsius,
		RotationInterval: 5 * time.Second,
	}
}

// Validate checks field ranges.
func (c Configuration) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Coordinates returns the configured position.
func (c Configuration) Coordinates() weather.Coordinates {
	return weather.Coordinates{Latitude: c.Latitude, Longitude: c.Longitude}
}

// Title is the header text: DisplayName, falling back to City.
func (c Configuration) Title() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.City
}

// WithPlace applies a geocoding result. An empty timezone keeps the current one.
func (c Configuration) WithPlace(p weather.Place) Configuration {
	c.Latitude = p.Coordinates.Latitude
	c.Longitude = p.Coordinates.Longitude
	if p.Timezone != "" {
		c.Timezone = p.Timezone
	}
	return c
}

type plainConfiguration Configuration

// MarshalJSON writes the rotation interval as a duration string ("5s").
func (c Configuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		plainConfiguration
		ViewDuration string `json:"viewDuration"`
	}{plainConfiguration(c), c.RotationInterval.String()})
}

// UnmarshalJSON accepts viewDuration either as a duration string or as a
// number of milliseconds, the format older firmware wrote.
func (c *Configuration) UnmarshalJSON(b []byte) error {
	aux := struct {
		*plainConfiguration
		ViewDuration json.RawMessage `json:"viewDuration"`
	}{plainConfiguration: (*plainConfiguration)(c)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if len(aux.ViewDuration) == 0 {
		return nil
	}

	var s string
	if err := json.Unmarshal(aux.ViewDuration, &s); err == nil {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("viewDuration: %w", err)
		}
		c.RotationInterval = d
		return nil
	}
	var ms int64
	if err := json.Unmarshal(aux.ViewDuration, &ms); err != nil {
		return fmt.Errorf("viewDuration: %w", err)
	}
	c.RotationInterval = time.Duration(ms) * time.Millisecond
	return nil
}

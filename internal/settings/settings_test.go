package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/i474232898/microdashboard/internal/weather"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	return NewStore(dir, zap.NewNop().Sugar()), dir
}

func TestStoreRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	want := Configuration{
		City:              "Bern, Switzerland",
		DisplayName:       "Bern",
		Latitude:          46.948,
		Longitude:         7.4474,
		Timezone:          "Europe/Zurich",
		TempUnit:          Both,
		RotationInterval:  12 * time.Second,
		ManualCoordinates: true,
	}

	require.NoError(t, s.Save(want))
	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStoreLoadEmpty(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Load()
	assert.Equal(t, ErrNoConfig, err)
}

func TestStoreSaveOverwrites(t *testing.T) {
	s, _ := newTestStore(t)
	first := Defaults()
	second := Defaults()
	second.City = "Oslo, Norway"
	second.TempUnit = Fahrenheit

	require.NoError(t, s.Save(first))
	require.NoError(t, s.Save(second))
	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestStoreShorterSaveSurvivesReopen(t *testing.T) {
	s, dir := newTestStore(t)
	long := Defaults()
	long.City = "Llanfairpwllgwyngyll, United Kingdom"
	long.DisplayName = "Llanfairpwllgwyngyll"
	short := Defaults()
	short.City = "Oslo, Norway"
	short.DisplayName = ""

	require.NoError(t, s.Save(long))
	require.NoError(t, s.Save(short))

	got, err := NewStore(dir, zap.NewNop().Sugar()).Load()
	require.NoError(t, err)
	assert.Equal(t, short, got)
}

func TestStoreRejectsOversizedRecord(t *testing.T) {
	s, _ := newTestStore(t)
	s.recordSize = 64

	assert.Error(t, s.Save(Defaults()))
	_, err := s.Load()
	assert.Equal(t, ErrNoConfig, err)
}

func TestStoreRejectsInvalid(t *testing.T) {
	s, _ := newTestStore(t)
	cfg := Defaults()
	cfg.TempUnit = "K"

	assert.Error(t, s.Save(cfg))
	_, err := s.Load()
	assert.Equal(t, ErrNoConfig, err)
}

func TestStoreSurvivesCorruptMain(t *testing.T) {
	s, dir := newTestStore(t)
	want := Defaults()
	want.City = "Lima, Peru"
	require.NoError(t, s.Save(want))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.v1.main"), []byte("garbage"), 0644))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Defaults().Validate())

	cases := map[string]func(*Configuration){
		"empty city":     func(c *Configuration) { c.City = "" },
		"long name":      func(c *Configuration) { c.DisplayName = "this display name is far too long" },
		"bad unit":       func(c *Configuration) { c.TempUnit = "X" },
		"fast rotation":  func(c *Configuration) { c.RotationInterval = 500 * time.Millisecond },
		"slow rotation":  func(c *Configuration) { c.RotationInterval = 2 * time.Minute },
		"bad latitude":   func(c *Configuration) { c.Latitude = 91 },
		"bad longitude":  func(c *Configuration) { c.Longitude = -181 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Defaults()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestUnmarshalLegacyMilliseconds(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, json.Unmarshal([]byte(`{"cityName":"Graz, Austria","viewDuration":8000,"manualCoordinates":true}`), &cfg))

	assert.Equal(t, "Graz, Austria", cfg.City)
	assert.Equal(t, 8*time.Second, cfg.RotationInterval)
	assert.True(t, cfg.ManualCoordinates)
	assert.Equal(t, Defaults().Timezone, cfg.Timezone)
}

func TestMarshalDurationString(t *testing.T) {
	b, err := json.Marshal(Defaults())
	require.NoError(t, err)
	assert.Contains(t, string(b), `"viewDuration":"5s"`)
	assert.NotContains(t, string(b), "RotationInterval")
}

func TestTitleAndPlace(t *testing.T) {
	c := Defaults()
	c.DisplayName = ""
	assert.Equal(t, c.City, c.Title())

	c = c.WithPlace(weather.Place{Coordinates: weather.Coordinates{Latitude: 1, Longitude: 2}})
	assert.Equal(t, weather.Coordinates{Latitude: 1, Longitude: 2}, c.Coordinates())
	assert.Equal(t, "Europe/Zurich", c.Timezone)

	c = c.WithPlace(weather.Place{Timezone: "America/Lima"})
	assert.Equal(t, "America/Lima", c.Timezone)
}

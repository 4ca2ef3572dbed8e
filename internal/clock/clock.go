// Package clock supplies wall-clock readings in the configured timezone.
package clock

import (
	"errors"
	"fmt"
	"time"
)

// ErrClockUnavailable means the wall clock cannot be trusted yet, e.g. before
// NTP sync on a board without an RTC, or with an unknown timezone.
var ErrClockUnavailable = errors.New("clock unavailable")

// minValidYear rejects the epoch-ish time a device reports before it syncs.
const minValidYear = 2020

// Reading is one wall-clock sample. Valid is false when the source failed;
// renderers then show placeholders.
type Reading struct {
	Valid   bool
	Time    time.Time
	Year    int
	Month   time.Month
	Day     int
	Hour    int
	Minute  int
	Second  int
	Weekday time.Weekday
}

// NewReading splits t into its wall-clock fields.
func NewReading(t time.Time) Reading {
	return Reading{
		Valid:   true,
		Time:    t,
		Year:    t.Year(),
		Month:   t.Month(),
		Day:     t.Day(),
		Hour:    t.Hour(),
		Minute:  t.Minute(),
		Second:  t.Second(),
		Weekday: t.Weekday(),
	}
}

// Source supplies wall-clock readings.
type Source interface {
	Now() (Reading, error)
}

// System reads the host clock in a fixed location.
type System struct {
	loc *time.Location
	err error
	now func() time.Time
}

// NewSystem creates a clock for an IANA timezone name such as "Europe/Zurich".
// An unknown zone does not fail construction; every Now() reports
// ErrClockUnavailable instead so the display keeps running.
func NewSystem(timezone string) *System {
	s := &System{now: time.Now}
	if timezone == "" {
		s.loc = time.Local
		return s
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		s.err = fmt.Errorf("%w: timezone %q: %v", ErrClockUnavailable, timezone, err)
		return s
	}
	s.loc = loc
	return s
}

func (s *System) Now() (Reading, error) {
	if s.err != nil {
		return Reading{}, s.err
	}
	t := s.now().In(s.loc)
	if t.Year() < minValidYear {
		return Reading{}, fmt.Errorf("%w: clock reads %s", ErrClockUnavailable, t.Format(time.RFC3339))
	}
	return NewReading(t), nil
}

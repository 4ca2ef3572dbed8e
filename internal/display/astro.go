package display

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/i474232898/microdashboard/internal/clock"
)

// synodicMonth is the mean length of a lunar cycle in days.
const synodicMonth = 29.53

// knownNewMoonJD is the Julian day of the 2000-01-06 new moon.
const knownNewMoonJD = 2451549.5

var moonPhaseNames = [8]string{
	"New Moon",
	"Waxing Crescent",
	"First Quarter",
	"Waxing Gibbous",
	"Full Moon",
	"Waning Gibbous",
	"Last Quarter",
	"Waning Crescent",
}

// MoonInfo describes the moon on a calendar day.
type MoonInfo struct {
	Phase        int     // 0 new .. 4 full .. 7
	Age          float64 // fraction of the cycle elapsed, [0,1)
	Illumination float64 // lit fraction of the disc, [0,1]
}

// Name returns the phase name.
func (m MoonInfo) Name() string {
	return moonPhaseNames[m.Phase&7]
}

// LunarDay is the day within the cycle.
func (m MoonInfo) LunarDay() int {
	return int(m.Age * synodicMonth)
}

// Moon computes the phase for a date from its Julian day number.
func Moon(year int, month int, day int) MoonInfo {
	if month < 3 {
		year--
		month += 12
	}
	a := year / 100
	b := a / 4
	c := 2 - a + b
	e := int(365.25 * float64(year+4716))
	f := int(30.6001 * float64(month+1))
	jd := float64(c+day+e+f) - 1524.5

	cycles := (jd - knownNewMoonJD) / synodicMonth
	age := cycles - math.Floor(cycles)

	return MoonInfo{
		Phase:        phaseIndex(age),
		Age:          age,
		Illumination: (1 - math.Cos(2*math.Pi*age)) / 2,
	}
}

func phaseIndex(age float64) int {
	// eight sectors centred on the principal phases
	return int(math.Floor(age*8+0.5)) % 8
}

// parseHHMM parses "HH:MM" into minutes after midnight.
func parseHHMM(s string) (int, bool) {
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0, false
	}
	hh, err := strconv.Atoi(h)
	if err != nil || hh < 0 || hh > 23 {
		return 0, false
	}
	mm, err := strconv.Atoi(m)
	if err != nil || mm < 0 || mm > 59 {
		return 0, false
	}
	return hh*60 + mm, true
}

// DayLength renders the time between sunrise and sunset as "10h 46m".
func DayLength(sunrise, sunset string) string {
	rise, ok1 := parseHHMM(sunrise)
	set, ok2 := parseHHMM(sunset)
	if !ok1 || !ok2 {
		return Placeholder
	}
	total := set - rise
	if total < 0 {
		return Placeholder
	}
	return fmt.Sprintf("%dh %dm", total/60, total%60)
}

// TimeUntilSunset renders the remaining daylight, or "Set" once the sun is down.
func TimeUntilSunset(sunset string, now clock.Reading) string {
	set, ok := parseHHMM(sunset)
	if !ok || !now.Valid {
		return Placeholder
	}
	remaining := set - (now.Hour*60 + now.Minute)
	if remaining < 0 {
		return "Set"
	}
	if remaining >= 60 {
		return fmt.Sprintf("%dh %dm", remaining/60, remaining%60)
	}
	return fmt.Sprintf("%dm", remaining)
}

package display

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/microdashboard/internal/settings"
)

// Placeholder is shown for data that was never populated.
const Placeholder = "N/A"

func CelsiusToFahrenheit(c float64) float64 {
	return c*9.0/5.0 + 32.0
}

// FormatTemp formats a Celsius reading for unit: "12.3C", "54.1F" or "12.3C/54F".
func FormatTemp(c float64, unit settings.TempUnit) string {
	switch unit {
	case settings.Fahrenheit:
		return strconv.FormatFloat(CelsiusToFahrenheit(c), 'f', 1, 64) + "F"
	case settings.Both:
		return strconv.FormatFloat(c, 'f', 1, 64) + "C/" + strconv.FormatFloat(CelsiusToFahrenheit(c), 'f', 0, 64) + "F"
	default:
		return strconv.FormatFloat(c, 'f', 1, 64) + "C"
	}
}

// wholeTemp is the truncated reading in the display unit. Both shows Celsius.
func wholeTemp(c float64, unit settings.TempUnit) (int, string) {
	if unit == settings.Fahrenheit {
		return int(CelsiusToFahrenheit(c)), "F"
	}
	return int(c), "C"
}

// FormatRange formats a forecast max/min pair: "14/6C".
func FormatRange(maxC, minC float64, unit settings.TempUnit) string {
	hi, u := wholeTemp(maxC, unit)
	lo, _ := wholeTemp(minC, unit)
	return fmt.Sprintf("%d/%d%s", hi, lo, u)
}

// clipText cuts s to the characters that fit in width pixels at size.
func clipText(s string, width, size int) string {
	n := width / (GlyphWidth * max(size, 1))
	r := []rune(s)
	if n >= len(r) {
		return s
	}
	if n <= 0 {
		return ""
	}
	return string(r[:n])
}

// FormatUptime renders "2d 3h", "3h 12m" or "12m".
func FormatUptime(d time.Duration) string {
	secs := int64(d / time.Second)
	days := secs / 86400
	hours := (secs % 86400) / 3600
	minutes := (secs % 3600) / 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// SignalBars renders an RSSI as four bar characters.
func SignalBars(rssi int) string {
	switch {
	case rssi >= -50:
		return "####"
	case rssi >= -60:
		return "###."
	case rssi >= -70:
		return "##.."
	case rssi >= -80:
		return "#..."
	default:
		return "...."
	}
}

// Wrap greedily breaks text into lines of at most width runes, splitting
// words only when a single word is longer than width.
func Wrap(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	var lines []string
	var cur []rune
	for _, word := range strings.Fields(text) {
		w := []rune(word)
		for len(w) > width {
			if len(cur) > 0 {
				lines = append(lines, string(cur))
				cur = nil
			}
			lines = append(lines, string(w[:width]))
			w = w[width:]
		}
		switch {
		case len(cur) == 0:
			cur = w
		case len(cur)+1+len(w) <= width:
			cur = append(append(cur, ' '), w...)
		default:
			lines = append(lines, string(cur))
			cur = w
		}
	}
	if len(cur) > 0 {
		lines = append(lines, string(cur))
	}
	return lines
}

// dayOfMonth extracts "DD" from "YYYY-MM-DD".
func dayOfMonth(date string) string {
	if len(date) >= 10 {
		return date[8:10]
	}
	return "  "
}

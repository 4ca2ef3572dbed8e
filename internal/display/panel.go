// Package display renders dashboard panels into pixel commands and pushes
// them to a 128x64 monochrome screen.
package display

// Panel is one full-screen display mode.
type Panel int

const (
	PanelClock Panel = iota
	PanelDate
	PanelWeather
	PanelQuote
	PanelSunTimes
	PanelMoon
	PanelForecast
	PanelSystemInfo
)

// PanelCount is the size of the rotation.
const PanelCount = 8

// Next returns the circularly next panel.
func (p Panel) Next() Panel {
	return Panel((int(p) + 1) % PanelCount)
}

// Valid reports whether p is one of the fixed panels.
func (p Panel) Valid() bool {
	return p >= 0 && p < PanelCount
}

func (p Panel) String() string {
	switch p {
	case PanelClock:
		return "clock"
	case PanelDate:
		return "date"
	case PanelWeather:
		return "weather"
	case PanelQuote:
		return "quote"
	case PanelSunTimes:
		return "sun"
	case PanelMoon:
		return "moon"
	case PanelForecast:
		return "forecast"
	case PanelSystemInfo:
		return "system"
	default:
		return "invalid"
	}
}

package weather

// Condition represents a normalized icon class for a WMO weather code.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionFog     Condition = "fog"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
)

// CodeUnknown marks a missing or unmapped WMO code.
const CodeUnknown = -1

// ConditionOf maps a WMO weather code to the icon class drawn on the weather panel.
func ConditionOf(code int) Condition {
	switch code {
	case 0, 1:
		return ConditionClear
	case 2, 3:
		return ConditionCloudy
	case 45, 48:
		return ConditionFog
	case 51, 53, 55, 61, 63, 65, 80, 81, 82:
		return ConditionRain
	case 71, 73, 75, 77, 85, 86:
		return ConditionSnow
	case 95, 96, 99:
		return ConditionStorm
	default:
		return ConditionUnknown
	}
}

// Describe returns the short text shown for a WMO code. Fits in 8 columns.
func Describe(code int) string {
	switch {
	case code == 0:
		return "Clear"
	case code == 1:
		return "M.Clear"
	case code == 2:
		return "P.Cloudy"
	case code == 3:
		return "Overcast"
	case code == 45 || code == 48:
		return "Fog"
	case code >= 51 && code <= 55:
		return "Drizzle"
	case code >= 61 && code <= 65:
		return "Rain"
	case code == 66 || code == 67:
		return "Fr.Rain"
	case code >= 71 && code <= 77:
		return "Snow"
	case code >= 80 && code <= 82:
		return "Showers"
	case code >= 85 && code <= 86:
		return "SnowSh"
	case code >= 95 && code <= 99:
		return "Storm"
	default:
		return "N/A"
	}
}

// Glyph is the single-character forecast icon for a WMO code.
func Glyph(code int) string {
	switch {
	case code == 0 || code == 1:
		return "O"
	case code == 2 || code == 3:
		return "~"
	case code == 45 || code == 48:
		return "="
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return "'"
	case (code >= 71 && code <= 77) || (code >= 85 && code <= 86):
		return "*"
	case code >= 95:
		return "#"
	default:
		return " "
	}
}

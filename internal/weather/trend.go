package weather

// Trend is the direction of temperature change between two fetches.
type Trend int

const (
	TrendNone Trend = iota
	TrendSteady
	TrendRising
	TrendFalling
)

// trendEpsilon absorbs rounding noise in provider readings.
const trendEpsilon = 0.05

// TrendOf compares two temperatures.
func TrendOf(prev, cur float64) Trend {
	d := cur - prev
	switch {
	case d > trendEpsilon:
		return TrendRising
	case d < -trendEpsilon:
		return TrendFalling
	default:
		return TrendSteady
	}
}

func (t Trend) String() string {
	switch t {
	case TrendSteady:
		return "steady"
	case TrendRising:
		return "rising"
	case TrendFalling:
		return "falling"
	default:
		return "none"
	}
}

package display

import (
	"fmt"
	"math"
	"strings"

	"github.com/i474232898/microdashboard/internal/clock"
	"github.com/i474232898/microdashboard/internal/settings"
	"github.com/i474232898/microdashboard/internal/sysinfo"
	"github.com/i474232898/microdashboard/internal/weather"
)

// Input is everything a panel renderer may look at. It is passed by value
// and never retained.
type Input struct {
	Config     settings.Configuration
	Weather    weather.WeatherSnapshot
	Forecast   weather.ForecastSnapshot
	Clock      clock.Reading
	System     sysinfo.Info
	QuoteIndex int
}

// Layout rows for size-1 text below the header rule.
const (
	headerRuleY = 13
	row1        = 15
	row2        = 27
	row3        = 39
	row4        = 51
)

// charsPerLine is how many size-1 glyphs fit across the screen.
const charsPerLine = Width / GlyphWidth

// Render draws panel p. It has no side effects.
func Render(p Panel, in Input) Frame {
	f := Frame{Panel: p}
	switch p {
	case PanelClock:
		renderClock(&f, in)
	case PanelDate:
		renderDate(&f, in)
	case PanelWeather:
		renderWeather(&f, in)
	case PanelQuote:
		renderQuote(&f, in)
	case PanelSunTimes:
		renderSunTimes(&f, in)
	case PanelMoon:
		renderMoon(&f, in)
	case PanelForecast:
		renderForecast(&f, in)
	case PanelSystemInfo:
		renderSystemInfo(&f, in)
	}
	return f
}

func header(f *Frame, title string) {
	f.Text(2, 0, 1, title)
	f.HLine(0, headerRuleY, Width)
}

func renderClock(f *Frame, in Input) {
	header(f, in.Config.Title())
	if !in.Clock.Valid {
		f.TextCentered(row1+2, 3, "??:??")
		return
	}
	f.TextCentered(row1+2, 3, fmt.Sprintf("%02d:%02d", in.Clock.Hour, in.Clock.Minute))

	const barHeight = 3
	if w := in.Clock.Second * Width / 59; w > 0 {
		f.FillRect(0, Height-barHeight, w, barHeight, White)
	}
}

func renderDate(f *Frame, in Input) {
	c := in.Clock
	if !c.Valid {
		header(f, "???")
		f.Text(2, row1+1, 2, "??")
		f.Text(2, row4-4, 1, "??-??-????")
		return
	}
	_, week := c.Time.ISOWeek()
	header(f, c.Month.String())
	f.TextRight(0, 1, 2, fmt.Sprintf("CW %02d", week))
	f.Text(2, row1+1, 2, c.Weekday.String())
	f.Text(2, row4-4, 1, fmt.Sprintf("%02d-%02d-%04d", c.Day, int(c.Month), c.Year))
}

func renderWeather(f *Frame, in Input) {
	header(f, "Current Weather")
	w := in.Weather
	if !w.Valid {
		drawIcon(f, 4, 17, weather.ConditionUnknown)
		f.Text(40, row1+1, 3, Placeholder)
		f.Text(2, row4, 1, Placeholder)
		return
	}

	drawIcon(f, 4, 17, weather.ConditionOf(w.Code))

	n, unit := wholeTemp(w.TemperatureC, in.Config.TempUnit)
	num := fmt.Sprint(n)
	f.Text(40, row1+1, 3, num)
	ux := 40 + TextWidth(num, 3) + 2
	f.Text(ux, row1+1, 1, "o")
	f.Text(ux+GlyphWidth, row1+1, 1, unit)

	switch w.Trend() {
	case weather.TrendRising:
		f.Tag("trend:rising", func() { drawArrow(f, 112, 31, 45, true) })
	case weather.TrendFalling:
		f.Tag("trend:falling", func() { drawArrow(f, 112, 31, 45, false) })
	}

	f.Text(2, row4, 1, weather.Describe(w.Code))
	f.TextRight(row4, 1, 1, FormatTemp(w.TemperatureC, in.Config.TempUnit))
}

func renderQuote(f *Frame, in Input) {
	title := in.System.Interface
	if title == "" {
		title = in.System.Hostname
	}
	header(f, title)

	q := Quote(in.QuoteIndex)
	big := Width / (GlyphWidth * 2)
	if lines := Wrap(q, big); len(lines) <= 2 {
		for i, l := range lines {
			f.Text(2, 14+i*26, 2, l)
		}
		return
	}
	for i, l := range Wrap(q, charsPerLine-1) {
		if i > 3 {
			break
		}
		f.Text(2, row1+i*12, 1, l)
	}
}

func renderSunTimes(f *Frame, in Input) {
	header(f, "Sun Times")
	rise, set := Placeholder, Placeholder
	if in.Forecast.Valid {
		rise, set = in.Forecast.Sunrise, in.Forecast.Sunset
	}

	f.Tag("icon:sunrise", func() { drawSmallSun(f, 4, row1+6, -1) })
	f.Text(12, row1, 1, "Rise "+rise)
	f.Tag("icon:sunset", func() { drawSmallSun(f, 4, row2+6, 1) })
	f.Text(12, row2, 1, "Set  "+set)

	f.Text(2, row3, 1, "Length: "+DayLength(rise, set))
	f.Text(2, row4, 1, "Left: "+TimeUntilSunset(set, in.Clock))
}

func renderMoon(f *Frame, in Input) {
	header(f, "Moon Phase")
	if !in.Clock.Valid {
		f.Text(2, row3-2, 1, Placeholder)
		return
	}
	m := Moon(in.Clock.Year, int(in.Clock.Month), in.Clock.Day)

	f.Tag(fmt.Sprintf("icon:moon%d", m.Phase), func() { drawMoonIcon(f, 5, 17, m.Phase) })
	f.Text(26, row1+4, 1, fmt.Sprintf("%d%%", int(m.Illumination*100)))
	f.Text(2, row3-2, 1, m.Name())
	f.Text(2, row4, 1, fmt.Sprintf("Day %d of 29", m.LunarDay()))
}

func renderForecast(f *Frame, in Input) {
	header(f, "3-Day Forecast")
	unit := in.Config.TempUnit
	if !in.Forecast.Valid {
		f.TextCentered(row2, 1, Placeholder)
	} else {
		for i, d := range in.Forecast.Days {
			y := 14 + i*11
			r := FormatRange(d.MaxC, d.MinC, unit)
			rx := Width - 1 - TextWidth(r, 1)
			label := weather.Glyph(d.Code) + dayOfMonth(d.Date) + " " + weather.Describe(d.Code)
			f.Text(2, y, 1, clipText(label, rx-3, 1))
			f.Text(rx, y, 1, r)
		}
	}

	f.HLine(0, 50, Width)
	if !in.Weather.Valid {
		f.Text(2, row4, 1, "Now "+Placeholder)
		return
	}
	n, u := wholeTemp(in.Weather.TemperatureC, unit)
	f.Text(2, row4, 1, "Now "+weather.Describe(in.Weather.Code))
	f.TextRight(row4, 1, 1, fmt.Sprintf("%d%s", n, u))
}

func renderSystemInfo(f *Frame, in Input) {
	header(f, "System Info")
	s := in.System

	wifi := "WiFi: " + Placeholder
	if s.HasRSSI {
		wifi = fmt.Sprintf("WiFi:%s %ddBm", SignalBars(s.RSSI), s.RSSI)
	}
	f.Text(2, row1, 1, wifi)
	f.Text(2, row2, 1, "Up: "+FormatUptime(s.Uptime))
	f.Text(2, row3, 1, fmt.Sprintf("RAM: %dKB", s.FreeBytes/1024))
	ip := s.IP
	if ip == "" {
		ip = Placeholder
	}
	f.Text(2, row4, 1, "IP: "+ip)
}

// drawIcon draws a ~20x25 condition icon with its top-left at (x, y).
func drawIcon(f *Frame, x, y int, c weather.Condition) {
	f.Tag("icon:"+string(c), func() {
		switch c {
		case weather.ConditionClear:
			drawSun(f, x, y)
		case weather.ConditionCloudy:
			drawCloud(f, x, y)
		case weather.ConditionFog:
			drawCloud(f, x, y)
			for i := 0; i < 3; i++ {
				f.Line(x, y+19+i*3, x+20, y+19+i*3, White)
			}
		case weather.ConditionRain:
			drawCloud(f, x, y)
			for _, dx := range []int{5, 10, 15} {
				f.Line(x+dx, y+20, x+dx, y+25, White)
			}
		case weather.ConditionSnow:
			drawCloud(f, x, y)
			for _, p := range [][2]int{{5, 20}, {10, 22}, {15, 20}} {
				f.Pixel(x+p[0], y+p[1])
				f.Pixel(x+p[0], y+p[1]+1)
				f.Pixel(x+p[0]+1, y+p[1])
			}
		case weather.ConditionStorm:
			drawCloud(f, x, y)
			f.Line(x+10, y+15, x+5, y+25, White)
			f.Line(x+5, y+25, x+15, y+20, White)
		default:
			f.Text(x+6, y+4, 1, "?")
		}
	})
}

func drawSun(f *Frame, x, y int) {
	f.FillCircle(x+10, y+10, 8, White)
	f.Line(x+10, y, x+10, y+20, White)
	f.Line(x, y+10, x+20, y+10, White)
	f.Line(x+3, y+3, x+17, y+17, White)
	f.Line(x+3, y+17, x+17, y+3, White)
}

func drawCloud(f *Frame, x, y int) {
	f.FillCircle(x+8, y+10, 6, White)
	f.FillCircle(x+18, y+10, 8, White)
	f.FillCircle(x+13, y+5, 7, White)
}

// drawSmallSun draws a 9px sun with a vertical ray pointing up (dir<0) or down.
func drawSmallSun(f *Frame, cx, cy, dir int) {
	f.FillCircle(cx, cy, 2, White)
	f.Line(cx, cy+dir*4, cx, cy+dir*3, White)
	f.Line(cx-4, cy, cx-3, cy, White)
	f.Line(cx+3, cy, cx+4, cy, White)
}

func drawArrow(f *Frame, x, top, bottom int, up bool) {
	f.Line(x, top, x, bottom, White)
	tip, back := top, top+4
	if !up {
		tip, back = bottom, bottom-4
	}
	f.Line(x, tip, x-4, back, White)
	f.Line(x, tip, x+4, back, White)
}

func drawMoonIcon(f *Frame, x, y, phase int) {
	const r = 8
	cx, cy := x+r, y+r
	f.FillCircle(cx, cy, r, White)

	switch {
	case phase == 0:
		f.FillCircle(cx, cy, r-1, Black)
	case phase == 4:
	case phase < 4:
		// waxing: shadow on the left
		edge := r - phase*r/2
		for i := -r; i <= r; i++ {
			if i < edge {
				h := int(math.Sqrt(float64(r*r - i*i)))
				f.Line(cx+i, cy-h, cx+i, cy+h, Black)
			}
		}
	default:
		edge := -r + (phase-4)*r/2
		for i := -r; i <= r; i++ {
			if i > edge {
				h := int(math.Sqrt(float64(r*r - i*i)))
				f.Line(cx+i, cy-h, cx+i, cy+h, Black)
			}
		}
	}
	f.Circle(cx, cy, r, White)
}

// Summary renders the frame's text ops one per line, for logs.
func (f Frame) Summary() string {
	return f.Panel.String() + ": " + strings.Join(f.Texts(), " | ")
}

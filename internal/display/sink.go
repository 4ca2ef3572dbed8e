package display

import (
	"fmt"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
)

// Sink puts frames on a screen.
type Sink interface {
	Show(f Frame) error
	Close() error
}

// Sink drivers accepted by NewSink.
const (
	DriverSSD1306 = "ssd1306"
	DriverLog     = "log"
	DriverNone    = "none"
)

// NewSink opens the sink for driver. busName selects the I2C bus for the
// OLED; empty means the first bus found.
func NewSink(driver, busName string, log *zap.SugaredLogger) (Sink, error) {
	switch driver {
	case DriverSSD1306:
		return NewSSD1306(busName, log)
	case DriverLog:
		return NewLogSink(log), nil
	case DriverNone, "":
		return NopSink{}, nil
	default:
		return nil, fmt.Errorf("unknown display driver %q", driver)
	}
}

// SSD1306 drives a 128x64 SSD1306 OLED on I2C (address 0x3C).
type SSD1306 struct {
	bus i2c.BusCloser
	dev *ssd1306.Dev
	log *zap.SugaredLogger
}

// NewSSD1306 initialises the host drivers and opens the panel.
func NewSSD1306(busName string, log *zap.SugaredLogger) (*SSD1306, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}
	opts := ssd1306.DefaultOpts
	opts.W, opts.H = Width, Height
	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("open ssd1306: %w", err)
	}
	log.Infow("display: ssd1306 ready", "bus", bus.String())
	return &SSD1306{bus: bus, dev: dev, log: log}, nil
}

// Show rasterizes f and sends the whole buffer.
func (s *SSD1306) Show(f Frame) error {
	img := Monochrome(f)
	if err := s.dev.Draw(s.dev.Bounds(), img, img.Bounds().Min); err != nil {
		return fmt.Errorf("draw %s: %w", f.Panel, err)
	}
	return nil
}

// Close blanks the panel and releases the bus.
func (s *SSD1306) Close() error {
	if err := s.dev.Halt(); err != nil {
		s.log.Warnw("display: halt failed", "error", err)
	}
	return s.bus.Close()
}

// LogSink writes each frame's text to the debug log. Used on headless hosts.
type LogSink struct {
	log    *zap.SugaredLogger
	frames atomic.Int64
}

func NewLogSink(log *zap.SugaredLogger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Show(f Frame) error {
	n := s.frames.Inc()
	s.log.Debugw("display: frame", "n", n, "panel", f.Panel.String(), "text", f.Summary())
	return nil
}

// Frames is the number of frames shown so far.
func (s *LogSink) Frames() int64 {
	return s.frames.Load()
}

func (s *LogSink) Close() error {
	s.log.Infow("display: log sink closed", "frames", s.Frames())
	return nil
}

// NopSink discards frames.
type NopSink struct{}

func (NopSink) Show(Frame) error { return nil }
func (NopSink) Close() error     { return nil }

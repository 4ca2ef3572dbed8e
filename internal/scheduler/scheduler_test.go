package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/i474232898/microdashboard/internal/display"
)

func TestSchedulerDrivesEngine(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.Sink = display.NopSink{} })
	h.fetcher.okCurrent(18, 1)

	s := New(h.engine, 10*time.Millisecond, zap.NewNop().Sugar())
	require.NoError(t, s.Start())
	defer s.Stop()

	require.Eventually(t, func() bool {
		st, ok := h.engine.Status()
		return ok && st.Ticks >= 3
	}, 2*time.Second, 5*time.Millisecond)

	st, _ := h.engine.Status()
	assert.True(t, st.Weather.Valid)
	assert.Equal(t, 18.0, st.Weather.TemperatureC)
	assert.Equal(t, 1, h.fetcher.count("current"))
}

func TestSchedulerSkipsTicksMissedWhileBlocked(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.Sink = display.NopSink{} })
	h.fetcher.slowOnce = 300 * time.Millisecond
	h.fetcher.okCurrent(18, 1)

	s := New(h.engine, 10*time.Millisecond, zap.NewNop().Sugar())
	require.NoError(t, s.Start())
	defer s.Stop()

	require.Eventually(t, func() bool {
		st, ok := h.engine.Status()
		return ok && st.Weather.Valid
	}, 2*time.Second, 5*time.Millisecond)
	start, _ := h.engine.Status()

	time.Sleep(50 * time.Millisecond)
	st, _ := h.engine.Status()
	// about 5 ticks fit in 50ms; replaying the ~30 missed ones would far exceed that
	assert.Less(t, st.Ticks-start.Ticks, uint64(15))
}

func TestNewDefaultsTickInterval(t *testing.T) {
	h := newHarness(t, nil)
	s := New(h.engine, 0, zap.NewNop().Sugar())
	assert.Equal(t, DefaultTickInterval, s.interval)
	s.Stop()
}

package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// DefaultTickInterval is how often the engine runs when nothing else is set.
const DefaultTickInterval = 100 * time.Millisecond

// Scheduler drives an Engine from a gocron job. At most one tick runs at a
// time; runs that come due while a fetch blocks a tick are skipped, not
// queued, so the display does not replay missed ticks afterwards.
type Scheduler struct {
	scheduler *gocron.Scheduler
	engine    *Engine
	interval  time.Duration
	log       *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Scheduler.
func New(engine *Engine, interval time.Duration, log *zap.SugaredLogger) *Scheduler {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		engine:    engine,
		interval:  interval,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start schedules the tick job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	s.scheduler.SetMaxConcurrentJobs(1, gocron.RescheduleMode)
	_, err := s.scheduler.Every(s.interval).Do(func() {
		s.engine.Tick(s.ctx, time.Now())
	})
	if err != nil {
		return err
	}

	s.log.Infow("scheduler: started", "tick", s.interval)
	s.scheduler.StartAsync()
	return nil
}

// Stop cancels in-flight fetches and stops future ticks.
func (s *Scheduler) Stop() {
	s.cancel()
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	s.log.Infow("scheduler: stopped")
}

package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status is a snapshot of the scheduler state.
type Status struct {
	IsRunning  bool          `json:"is_running"`
	Interval   time.Duration `json:"interval"`
	LastTickAt time.Time     `json:"last_tick_at,omitempty"`
	TickCount  uint64        `json:"tick_count"`
}

// Scheduler runs a task on a fixed interval. The lifecycle is strictly
// stopped -> running -> stopped; Stop never interrupts a tick already in
// flight, it only prevents new ticks from starting.
type Scheduler struct {
	logger   *zap.Logger
	interval time.Duration
	taskFunc func(context.Context) error

	mu         sync.RWMutex
	isRunning  bool
	lastTickAt time.Time
	tickCount  uint64
	stopCh     chan struct{}
	doneCh     chan struct{}
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(logger *zap.Logger, interval time.Duration, taskFunc func(context.Context) error) *Scheduler {
	return &Scheduler{
		logger:   logger,
		interval: interval,
		taskFunc: taskFunc,
	}
}

// Start begins the recurring loop and performs one tick immediately rather
// than waiting for the first interval.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		s.logger.Warn("Start called on a running scheduler")
		return ErrSchedulerAlreadyRunning
	}

	s.isRunning = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	go s.run(ctx)

	s.logger.Info("Scheduler started", zap.Duration("interval", s.interval))
	return nil
}

// Stop halts the loop and waits for the current tick, if any, to finish.
// The running flag flips before the channel close, so only one of several
// concurrent stops closes it; the rest get ErrSchedulerNotRunning.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.isRunning = false
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)
	<-doneCh

	s.logger.Info("Scheduler stopped")
	return nil
}

// IsRunning returns whether the scheduler is currently running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Status returns a snapshot of the scheduler state.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		IsRunning:  s.isRunning,
		Interval:   s.interval,
		LastTickAt: s.lastTickAt,
		TickCount:  s.tickCount,
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)
	defer func() {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	}()

	// First tick does not wait for the interval.
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler context canceled")
			return
		case <-s.stopCh:
			s.logger.Info("Scheduler stop signal received")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs the task once. Task failures are logged, never fatal: the next
// tick must always be attempted.
func (s *Scheduler) tick(ctx context.Context) {
	s.mu.Lock()
	s.lastTickAt = time.Now()
	s.tickCount++
	s.mu.Unlock()

	if err := s.taskFunc(ctx); err != nil {
		s.logger.Error("Scheduled task failed", zap.Error(err))
	}
}

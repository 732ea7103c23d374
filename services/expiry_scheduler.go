package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultSweepInterval = 60 * time.Second

// Sweeper is one expiry pass.
type Sweeper interface {
	ExpirePendingBookings(ctx context.Context) (SweepResult, error)
}

// SweepLocker elects a single sweeping replica per tick. TryLock returns
// false when another replica holds the lock.
type SweepLocker interface {
	TryLock(ctx context.Context, ttl time.Duration) (bool, error)
}

// Scheduler runs a Sweeper on a fixed interval until stopped.
type Scheduler struct {
	sweeper  Sweeper
	log      *zap.Logger
	interval time.Duration
	locker   SweepLocker

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewScheduler(sweeper Sweeper, log *zap.Logger, interval time.Duration, locker SweepLocker) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Scheduler{
		sweeper:  sweeper,
		log:      log,
		interval: interval,
		locker:   locker,
		stopCh:   make(chan struct{}),
	}
}

// Start sweeps once immediately and then on every tick, in a goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("starting expiry scheduler", zap.Duration("interval", s.interval))
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop ends the loop and waits for an in-flight pass to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.log.Info("stopping expiry scheduler")
		close(s.stopCh)
	})
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-s.stopCh:
			s.log.Info("expiry scheduler stopped")
			return
		case <-ctx.Done():
			s.log.Info("expiry scheduler cancelled")
			return
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if s.locker != nil {
		// Lease ends before the next tick.
		ok, err := s.locker.TryLock(ctx, s.interval*9/10)
		if err != nil {
			s.log.Warn("expiry lock unavailable, sweeping anyway", zap.Error(err))
		} else if !ok {
			s.log.Debug("expiry sweep held by another instance")
			return
		}
	}
	if _, err := s.RunOnceNow(ctx); err != nil {
		s.log.Error("expiry sweep failed", zap.Error(err))
	}
}

// RunOnceNow performs one pass synchronously.
func (s *Scheduler) RunOnceNow(ctx context.Context) (SweepResult, error) {
	return s.sweeper.ExpirePendingBookings(ctx)
}

package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/slackrag/internal/core/domain"
	"github.com/custodia-labs/slackrag/internal/core/ports/driving"
	"github.com/custodia-labs/slackrag/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// Scheduler repeats incremental syncs. Each pass starts interval after
// the previous one ended, so passes never overlap.
type Scheduler struct {
	interval time.Duration
	syncOrch driving.SyncOrchestrator

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	last    *driving.RunResult
}

// NewScheduler creates a scheduler. A non-positive interval uses the
// default sync interval.
func NewScheduler(interval time.Duration, syncOrch driving.SyncOrchestrator) *Scheduler {
	if interval <= 0 {
		interval = domain.DefaultSettings().Sync.Interval
	}
	return &Scheduler{
		interval: interval,
		syncOrch: syncOrch,
	}
}

// Start runs a sync immediately and then once per interval. This method
// blocks until the context is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	defer s.markStopped()

	logger.Info("Scheduler started, syncing every %s", s.interval)
	return s.run(ctx, stopCh)
}

// Stop gracefully shuts down the scheduler, waiting for an in-flight
// sync to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()

	return nil
}

// LastRun returns the outcome of the most recent pass, or nil before the
// first pass has finished.
func (s *Scheduler) LastRun() *driving.RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil {
		return nil
	}
	r := *s.last
	return &r
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	for {
		s.runOnce(ctx)

		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-stopCh:
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// runOnce executes a single pass. Failures are logged and recorded, never
// returned: the next pass retries from the stored cursors.
func (s *Scheduler) runOnce(ctx context.Context) {
	if s.syncOrch == nil {
		return
	}

	result := &driving.RunResult{StartedAt: time.Now()}
	result.Err = s.syncOrch.SyncAll(ctx)
	result.EndedAt = time.Now()

	if result.Err != nil {
		logger.Error("Scheduled sync failed: %v", result.Err)
	} else {
		logger.Debug("Scheduled sync finished in %s", result.EndedAt.Sub(result.StartedAt))
	}

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()
}

func (s *Scheduler) markStopped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.running = false
		close(s.stopCh)
	}
}

// Package maintenance runs the periodic housekeeping cycle: retention
// trimming of the record store, index cleanup for removed records, and
// storage compaction.
package maintenance

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/user/topic-scout/internal/config"
	"github.com/user/topic-scout/internal/index"
	"github.com/user/topic-scout/internal/store"
)

// Scheduler manages the periodic maintenance task.
type Scheduler struct {
	store   store.Store
	index   *index.Index
	config  *config.MaintenanceConfig
	running atomic.Bool
	mu      sync.Mutex // prevents overlapping maintenance cycles
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(st store.Store, idx *index.Index, cfg *config.MaintenanceConfig) *Scheduler {
	return &Scheduler{
		store:  st,
		index:  idx,
		config: cfg,
		stopCh: make(chan struct{}),
	}
}

// Start begins the scheduler with an initial delay and periodic
// execution at the configured interval.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.config.Enabled {
		log.Info().Msg("Maintenance scheduler is disabled")
		return
	}

	s.wg.Add(1)
	go s.run(ctx)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	initialDelay := 5 * time.Second
	log.Info().Dur("delay", initialDelay).Msg("Maintenance scheduler starting with initial delay")

	select {
	case <-time.After(initialDelay):
		s.executeCycle(ctx)
	case <-s.stopCh:
		log.Info().Msg("Maintenance scheduler stopped during initial delay")
		return
	case <-ctx.Done():
		log.Info().Msg("Maintenance scheduler context cancelled during initial delay")
		return
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.config.Interval).Msg("Maintenance scheduler started periodic execution")

	for {
		select {
		case <-ticker.C:
			s.executeCycle(ctx)
		case <-s.stopCh:
			log.Info().Msg("Maintenance scheduler stopped")
			return
		case <-ctx.Done():
			log.Info().Msg("Maintenance scheduler context cancelled")
			return
		}
	}
}

// executeCycle runs a single maintenance cycle. A trigger that fires
// while a cycle is still running is skipped rather than queued.
func (s *Scheduler) executeCycle(ctx context.Context) {
	if !s.mu.TryLock() {
		log.Warn().Msg("Maintenance cycle already running, skipping this trigger")
		return
	}
	defer s.mu.Unlock()

	s.running.Store(true)
	defer s.running.Store(false)

	startTime := time.Now()
	log.Info().Int("keep", s.config.MaxVideosRetained).Msg("Starting maintenance cycle")

	if err := s.RunOnce(ctx, s.config.MaxVideosRetained); err != nil {
		log.Error().Err(err).Msg("Maintenance cycle failed")
	}

	duration := time.Since(startTime)
	log.Info().
		Dur("duration", duration).
		Msg("Maintenance cycle completed")
}

// RunOnce executes a single trim, index-cleanup and vacuum cycle.
func (s *Scheduler) RunOnce(ctx context.Context, keep int) error {
	removed, err := s.store.RetentionTrim(ctx, keep)
	if err != nil {
		return err
	}

	if len(removed) > 0 {
		for _, id := range removed {
			if err := s.index.Delete(id); err != nil {
				log.Error().Err(err).Str("videoID", id).Msg("Failed to remove record from index")
			}
		}
		log.Info().Int("removed", len(removed)).Msg("Trimmed record store")

		if err := s.store.Vacuum(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to vacuum database")
		}
	}

	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping maintenance scheduler...")
	close(s.stopCh)
	s.wg.Wait()
	log.Info().Msg("Maintenance scheduler stopped")
}

// IsRunning returns true if a maintenance cycle is currently running.
func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

// TryRun attempts to run a maintenance cycle immediately. Returns
// false if a cycle is already running.
func (s *Scheduler) TryRun(ctx context.Context, keep int) bool {
	if !s.mu.TryLock() {
		return false
	}
	defer s.mu.Unlock()

	s.running.Store(true)
	defer s.running.Store(false)

	startTime := time.Now()
	log.Info().Int("keep", keep).Msg("Starting manual maintenance cycle")

	if err := s.RunOnce(ctx, keep); err != nil {
		log.Error().Err(err).Msg("Manual maintenance cycle failed")
	}

	duration := time.Since(startTime)
	log.Info().Dur("duration", duration).Msg("Manual maintenance cycle completed")

	return true
}

package filestore

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/asset-rating-service/internal/observability"
	"github.com/robfig/cron/v3"
)

// Sweeper periodically deletes output files older than the retention period.
type Sweeper struct {
	cron      *cron.Cron
	store     *Store
	retention time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewSweeper creates a Sweeper for store. It does nothing until Start.
func NewSweeper(store *Store, retention time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Sweeper {
	return &Sweeper{
		cron:      cron.New(),
		store:     store,
		retention: retention,
		logger:    logger,
		metrics:   metrics,
	}
}

// Start schedules the sweep using a standard cron spec or descriptor such as "@every 1h".
func (s *Sweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.Run); err != nil {
		return fmt.Errorf("schedule output sweep: %w", err)
	}
	s.cron.Start()
	s.logger.Info("output sweeper started", "schedule", schedule, "retention", s.retention)
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Run performs one sweep.
func (s *Sweeper) Run() {
	removed, err := s.store.Sweep(s.retention)
	if err != nil {
		s.logger.Error("output sweep failed", "error", err)
		return
	}
	s.metrics.OutputFilesSwept.Add(float64(removed))
	if removed > 0 {
		s.logger.Info("expired output files removed", "count", removed)
	}
}

package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/pulse-api/internal/repository"
	"github.com/jwalitptl/pulse-api/pkg/metrics"
)

// NotificationCleanupWorker periodically purges read notifications older
// than the retention window.
type NotificationCleanupWorker struct {
	repo            repository.NotificationRepository
	retention       time.Duration
	cleanupInterval time.Duration
	metrics         *metrics.Metrics
	now             func() time.Time
}

func NewNotificationCleanupWorker(repo repository.NotificationRepository, retention, cleanupInterval time.Duration, m *metrics.Metrics) *NotificationCleanupWorker {
	return &NotificationCleanupWorker{
		repo:            repo,
		retention:       retention,
		cleanupInterval: cleanupInterval,
		metrics:         m,
		now:             time.Now,
	}
}

// Start blocks until ctx is cancelled.
func (w *NotificationCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	log.Info().
		Dur("retention", w.retention).
		Dur("interval", w.cleanupInterval).
		Msg("notification cleanup worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("notification cleanup worker stopped")
			return
		case <-ticker.C:
			if _, err := w.Cleanup(ctx); err != nil {
				log.Error().Err(err).Msg("notification cleanup failed")
			}
		}
	}
}

// Cleanup runs one purge pass and returns the number of rows removed.
func (w *NotificationCleanupWorker) Cleanup(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.retention)

	rows, err := w.repo.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup notifications: %w", err)
	}
	if w.metrics != nil {
		w.metrics.NotificationsPurged.Add(float64(rows))
	}

	log.Info().Int64("rows", rows).Time("cutoff", cutoff).Msg("purged read notifications")
	return rows, nil
}

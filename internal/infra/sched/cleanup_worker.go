package sched

import (
	"context"
	"time"

	"telegram-event-bot/internal/usecase"

	"github.com/rs/zerolog"
)

// CleanupWorker periodically purges finished events for users who opted into
// auto-deletion.
type CleanupWorker struct {
	interval time.Duration
	eventUC  usecase.EventUseCase
	log      *zerolog.Logger
}

func NewCleanupWorker(interval time.Duration, eventUC usecase.EventUseCase, logger *zerolog.Logger) *CleanupWorker {
	compLog := logger.With().Str("component", "CleanupWorker").Logger()
	return &CleanupWorker{
		interval: interval,
		eventUC:  eventUC,
		log:      &compLog,
	}
}

func (w *CleanupWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting cleanup worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping cleanup worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.eventUC.PurgeExpired(ctx, time.Now())
			if err != nil {
				w.log.Error().Err(err).Msg("cleanup worker error")
			}
			if n > 0 {
				w.log.Info().Int64("count", n).Msg("expired events purged")
			}
		}
	}
}

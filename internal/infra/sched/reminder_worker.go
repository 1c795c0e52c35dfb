package sched

import (
	"context"
	"time"

	"telegram-event-bot/internal/infra/redis"
	"telegram-event-bot/internal/usecase"

	"github.com/rs/zerolog"
)

// reminderLockKey serializes the sweep across instances so a due reminder
// cannot go out twice when several bots share the database.
const reminderLockKey = "sched:reminder_sweep"

type ReminderWorker struct {
	interval   time.Duration
	reminderUC usecase.ReminderUseCase
	locker     redis.Locker
	log        *zerolog.Logger
}

func NewReminderWorker(interval time.Duration, reminderUC usecase.ReminderUseCase, locker redis.Locker, logger *zerolog.Logger) *ReminderWorker {
	compLog := logger.With().Str("component", "ReminderWorker").Logger()
	return &ReminderWorker{
		interval:   interval,
		reminderUC: reminderUC,
		locker:     locker,
		log:        &compLog,
	}
}

func (w *ReminderWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting reminder worker")
	// Run once on startup, then on every tick
	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping reminder worker")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ReminderWorker) sweep(ctx context.Context) {
	if w.locker != nil {
		token, err := w.locker.TryLock(ctx, reminderLockKey, w.interval)
		if err != nil {
			// Another instance holds the lock; its sweep covers this tick.
			return
		}
		defer w.locker.Unlock(ctx, reminderLockKey, token)
	}

	sent, err := w.reminderUC.SendDue(ctx, time.Now())
	if err != nil {
		w.log.Error().Err(err).Msg("reminder sweep failed")
	}
	if sent > 0 {
		w.log.Info().Int("count", sent).Msg("reminders delivered")
	}
}

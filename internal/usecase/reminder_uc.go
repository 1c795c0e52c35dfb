package usecase

import (
	"context"
	"errors"
	"html"
	"time"

	"telegram-event-bot/internal/domain"
	"telegram-event-bot/internal/domain/model"
	"telegram-event-bot/internal/domain/ports/adapter"
	"telegram-event-bot/internal/domain/ports/repository"
	"telegram-event-bot/internal/infra/i18n"
	"telegram-event-bot/internal/infra/logging"
	"telegram-event-bot/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// reminderBatchSize caps how many due reminders one sweep picks up.
const reminderBatchSize = 100

// Compile-time check
var _ ReminderUseCase = (*reminderUC)(nil)

// ReminderUseCase delivers due event reminders over Telegram.
type ReminderUseCase interface {
	// SendDue finds reminders whose fire time has passed, sends each one and
	// marks it delivered in the same transaction so it cannot fire twice.
	// Returns how many reminders went out.
	SendDue(ctx context.Context, now time.Time) (int, error)
}

type reminderUC struct {
	events repository.EventRepository
	users  repository.UserRepository
	bot    adapter.TelegramBotAdapter
	tm     repository.TransactionManager
	tr     *i18n.Translator
	defLoc *time.Location
	log    *zerolog.Logger
}

func NewReminderUseCase(
	events repository.EventRepository,
	users repository.UserRepository,
	bot adapter.TelegramBotAdapter,
	tm repository.TransactionManager,
	tr *i18n.Translator,
	defaultZone string,
	logger *zerolog.Logger,
) *reminderUC {
	loc, err := time.LoadLocation(defaultZone)
	if err != nil {
		loc = time.UTC
	}
	return &reminderUC{
		events: events,
		users:  users,
		bot:    bot,
		tm:     tm,
		tr:     tr,
		defLoc: loc,
		log:    logger,
	}
}

func (u *reminderUC) SendDue(ctx context.Context, now time.Time) (int, error) {
	defer logging.TraceDuration(u.log, "ReminderUC.SendDue")()

	due, err := u.events.FindDueReminders(ctx, repository.NoTX, now, reminderBatchSize)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	sent := 0
	for _, ev := range due {
		if err := u.deliver(ctx, ev, now); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Another sweep claimed this reminder between the list and
				// the guarded mark. Nothing to do.
				continue
			}
			metrics.IncReminder("failed")
			u.log.Error().Err(err).Str("event_id", ev.ID).Msg("reminder delivery failed")
			continue
		}
		metrics.IncReminder("sent")
		sent++
	}
	if sent > 0 {
		u.log.Info().Int("sent", sent).Int("due", len(due)).Msg("reminder sweep complete")
	}
	return sent, nil
}

// deliver marks first, then sends. A failed send rolls the mark back, so the
// reminder is retried on the next sweep; the IS NULL guard on the mark keeps
// a retried row from going out twice.
func (u *reminderUC) deliver(ctx context.Context, ev *model.CalendarEvent, now time.Time) error {
	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.events.MarkReminded(ctx, tx, ev.ID, now); err != nil {
			return err
		}
		usr, err := u.users.FindByID(ctx, tx, ev.UserID)
		if err != nil {
			return err
		}

		loc := ev.Local(usr.Location(u.defLoc))
		startText := ev.StartAt.In(loc).Format("Mon, 02 Jan 15:04")
		var text string
		if ev.Location != "" {
			text = u.tr.T("reminder_text_location", html.EscapeString(ev.Title), startText, html.EscapeString(ev.Location))
		} else {
			text = u.tr.T("reminder_text", html.EscapeString(ev.Title), startText)
		}

		return u.bot.SendMessage(ctx, adapter.SendMessageParams{
			ChatID:    usr.TelegramID,
			Text:      text,
			ParseMode: "HTML",
		})
	})
}

package application

import (
	"context"
	"fmt"

	"telegram-event-bot/internal/domain/model"
	"telegram-event-bot/internal/infra/logging"
	"telegram-event-bot/internal/usecase"
)

// BotFacade composes usecases into the surface the Telegram adapter talks to.
// Adapters reach simple operations through the exported usecase fields; the
// facade methods cover the flows that span user resolution plus an event
// operation, keyed by the Telegram id the transport actually has.
type BotFacade struct {
	UserUC     usecase.UserUseCase
	EventUC    usecase.EventUseCase
	ReminderUC usecase.ReminderUseCase
	StatsUC    usecase.StatsUseCase
}

func NewBotFacade(
	userUC usecase.UserUseCase,
	eventUC usecase.EventUseCase,
	reminderUC usecase.ReminderUseCase,
	statsUC usecase.StatsUseCase,
) *BotFacade {
	return &BotFacade{
		UserUC:     userUC,
		EventUC:    eventUC,
		ReminderUC: reminderUC,
		StatsUC:    statsUC,
	}
}

// HandleIncomingText runs the full message-to-event pipeline: the sender is
// registered (or touched) and the text goes through extraction. Returns the
// created event together with the resolved user so the adapter can render
// times in the right zone.
func (b *BotFacade) HandleIncomingText(ctx context.Context, tgID int64, username, text string) (*model.CalendarEvent, *model.User, error) {
	if b.UserUC == nil || b.EventUC == nil {
		return nil, nil, fmt.Errorf("usecases not available")
	}
	user, err := b.UserUC.RegisterOrFetch(ctx, tgID, username)
	if err != nil {
		return nil, nil, fmt.Errorf("register/fetch user: %w", err)
	}
	ctx = logging.WithUserID(ctx, user.ID)
	ev, err := b.EventUC.ParseAndCreate(ctx, user, text)
	if err != nil {
		return nil, user, err
	}
	return ev, user, nil
}

// UpcomingEvents resolves the user behind a Telegram id and lists their
// scheduled events.
func (b *BotFacade) UpcomingEvents(ctx context.Context, tgID int64, limit int) (*model.User, []*model.CalendarEvent, error) {
	if b.UserUC == nil || b.EventUC == nil {
		return nil, nil, fmt.Errorf("usecases not available")
	}
	user, err := b.UserUC.GetByTelegramID(ctx, tgID)
	if err != nil {
		return nil, nil, err
	}
	events, err := b.EventUC.ListUpcoming(ctx, user.ID, limit)
	if err != nil {
		return nil, nil, err
	}
	return user, events, nil
}

// EventDetail fetches one of the user's events, source text decrypted, ready
// for rendering or calendar export.
func (b *BotFacade) EventDetail(ctx context.Context, tgID int64, eventID string) (*model.User, *model.CalendarEvent, error) {
	if b.UserUC == nil || b.EventUC == nil {
		return nil, nil, fmt.Errorf("usecases not available")
	}
	user, err := b.UserUC.GetByTelegramID(ctx, tgID)
	if err != nil {
		return nil, nil, err
	}
	ev, err := b.EventUC.Get(ctx, user.ID, eventID)
	if err != nil {
		return nil, nil, err
	}
	return user, ev, nil
}

// DiscardEvent cancels one of the user's events.
func (b *BotFacade) DiscardEvent(ctx context.Context, tgID int64, eventID string) error {
	if b.UserUC == nil || b.EventUC == nil {
		return fmt.Errorf("usecases not available")
	}
	user, err := b.UserUC.GetByTelegramID(ctx, tgID)
	if err != nil {
		return err
	}
	return b.EventUC.Discard(ctx, user.ID, eventID)
}

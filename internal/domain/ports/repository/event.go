package repository

import (
	"context"
	"time"

	"telegram-event-bot/internal/domain/model"
)

// -----------------------------
// Calendar events
// -----------------------------

type EventRepository interface {
	Save(ctx context.Context, tx Tx, e *model.CalendarEvent) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.CalendarEvent, error)

	// FindUpcomingByUser returns scheduled events ending at or after from,
	// ordered by start time ascending.
	FindUpcomingByUser(ctx context.Context, tx Tx, userID string, from time.Time, limit int) ([]*model.CalendarEvent, error)

	// FindDueReminders returns scheduled events whose reminder time has
	// passed and which have not been reminded yet.
	FindDueReminders(ctx context.Context, tx Tx, now time.Time, limit int) ([]*model.CalendarEvent, error)
	MarkReminded(ctx context.Context, tx Tx, id string, at time.Time) error

	UpdateStatus(ctx context.Context, tx Tx, id string, status model.EventStatus) error

	// ClearSourceText removes the stored message text from all of a user's
	// events, returning the ids of the rows it touched.
	ClearSourceText(ctx context.Context, tx Tx, userID string) ([]string, error)

	// DeleteExpired purges finished events for users who opted into
	// auto-deletion, honoring each user's retention window. Returns the
	// number of rows removed.
	DeleteExpired(ctx context.Context, tx Tx, now time.Time) (int64, error)

	CountEvents(ctx context.Context, tx Tx) (int, error)
	CountCreatedSince(ctx context.Context, tx Tx, since time.Time) (int, error)
	CountPendingReminders(ctx context.Context, tx Tx) (int, error)
}

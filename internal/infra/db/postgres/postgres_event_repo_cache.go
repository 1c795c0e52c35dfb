package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"telegram-event-bot/internal/domain/model"
	"telegram-event-bot/internal/domain/ports/repository"
	"telegram-event-bot/internal/infra/metrics"
	red "telegram-event-bot/internal/infra/redis"
	"time"
)

var _ repository.EventRepository = (*eventRepoCacheDecorator)(nil)

// eventRepoCacheDecorator caches single-event lookups. Callback taps
// (download .ics, delete) arrive right after the event card is sent, so
// FindByID is by far the hottest read.
type eventRepoCacheDecorator struct {
	inner repository.EventRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewEventRepoCacheDecorator(inner repository.EventRepository, cache red.RedisClient) repository.EventRepository {
	return &eventRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   15 * time.Minute,
	}
}

func eventKey(id string) string { return fmt.Sprintf("event:id:%s", id) }

func (d *eventRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, e *model.CalendarEvent) error {
	_ = d.cache.Del(ctx, eventKey(e.ID))
	return d.inner.Save(ctx, tx, e)
}

func (d *eventRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CalendarEvent, error) {
	key := eventKey(id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("event", "hit")
		var ev model.CalendarEvent
		if json.Unmarshal([]byte(val), &ev) == nil {
			return &ev, nil
		}
	}

	metrics.IncCacheRequest("event", "miss")
	ev, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if ev != nil {
		bytes, _ := json.Marshal(ev)
		_ = d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return ev, nil
}

// Write operations must invalidate the item cache.
func (d *eventRepoCacheDecorator) MarkReminded(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	_ = d.cache.Del(ctx, eventKey(id))
	return d.inner.MarkReminded(ctx, tx, id, at)
}

func (d *eventRepoCacheDecorator) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.EventStatus) error {
	_ = d.cache.Del(ctx, eventKey(id))
	return d.inner.UpdateStatus(ctx, tx, id, status)
}

func (d *eventRepoCacheDecorator) ClearSourceText(ctx context.Context, tx repository.Tx, userID string) ([]string, error) {
	ids, err := d.inner.ClearSourceText(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	// Cached copies still carry the text the user asked us to drop.
	for _, id := range ids {
		_ = d.cache.Del(ctx, eventKey(id))
	}
	return ids, nil
}

// List and sweep queries change on every tick, so they always go to the DB.
func (d *eventRepoCacheDecorator) FindUpcomingByUser(ctx context.Context, tx repository.Tx, userID string, from time.Time, limit int) ([]*model.CalendarEvent, error) {
	return d.inner.FindUpcomingByUser(ctx, tx, userID, from, limit)
}

func (d *eventRepoCacheDecorator) FindDueReminders(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.CalendarEvent, error) {
	return d.inner.FindDueReminders(ctx, tx, now, limit)
}

func (d *eventRepoCacheDecorator) DeleteExpired(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	return d.inner.DeleteExpired(ctx, tx, now)
}

func (d *eventRepoCacheDecorator) CountEvents(ctx context.Context, tx repository.Tx) (int, error) {
	return d.inner.CountEvents(ctx, tx)
}

func (d *eventRepoCacheDecorator) CountCreatedSince(ctx context.Context, tx repository.Tx, since time.Time) (int, error) {
	return d.inner.CountCreatedSince(ctx, tx, since)
}

func (d *eventRepoCacheDecorator) CountPendingReminders(ctx context.Context, tx repository.Tx) (int, error) {
	return d.inner.CountPendingReminders(ctx, tx)
}

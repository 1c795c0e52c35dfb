//go:build !integration

package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"telegram-event-bot/internal/domain/model"
	"telegram-event-bot/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

func TestEventRepoCacheDecorator(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	event := &model.CalendarEvent{
		ID:      "01J0EXAMPLEEVENTID00000000",
		UserID:  "user-123",
		Title:   "Dentist",
		StartAt: start,
		EndAt:   start.Add(time.Hour),
		Status:  model.EventStatusScheduled,
	}

	t.Run("FindByID should serve from cache on hit", func(t *testing.T) {
		cached, _ := json.Marshal(event)
		innerRepoCalled := false

		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) {
				if key != "event:id:"+event.ID {
					t.Errorf("unexpected cache key %q", key)
				}
				return string(cached), nil
			},
		}
		mockInnerRepo := &mockInnerEventRepo{
			FindByIDFunc: func(ctx context.Context, tx repository.Tx, id string) (*model.CalendarEvent, error) {
				innerRepoCalled = true
				return event, nil
			},
		}

		decorator := NewEventRepoCacheDecorator(mockInnerRepo, mockRedis)

		result, err := decorator.FindByID(ctx, nil, event.ID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if innerRepoCalled {
			t.Error("inner repository should not be called on a cache hit")
		}
		if result == nil || result.Title != "Dentist" {
			t.Error("did not return the cached event")
		}
	})

	t.Run("FindByID should fetch from DB and set cache on miss", func(t *testing.T) {
		innerRepoCalled := false
		setKey := ""

		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) {
				return "", redis.Nil
			},
			SetFunc: func(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
				setKey = key
				return nil
			},
		}
		mockInnerRepo := &mockInnerEventRepo{
			FindByIDFunc: func(ctx context.Context, tx repository.Tx, id string) (*model.CalendarEvent, error) {
				innerRepoCalled = true
				return event, nil
			},
		}

		decorator := NewEventRepoCacheDecorator(mockInnerRepo, mockRedis)

		result, err := decorator.FindByID(ctx, nil, event.ID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !innerRepoCalled {
			t.Error("inner repository should be called on a cache miss")
		}
		if setKey != "event:id:"+event.ID {
			t.Errorf("expected cache set for the event key, got %q", setKey)
		}
		if result == nil || result.ID != event.ID {
			t.Error("did not return the event from the inner repository")
		}
	})

	t.Run("UpdateStatus should invalidate the item cache", func(t *testing.T) {
		deleted := ""
		mockRedis := &mockRedisClient{
			DelFunc: func(ctx context.Context, keys ...string) error {
				if len(keys) > 0 {
					deleted = keys[0]
				}
				return nil
			},
		}
		mockInnerRepo := &mockInnerEventRepo{
			UpdateStatusFunc: func(ctx context.Context, tx repository.Tx, id string, status model.EventStatus) error {
				return nil
			},
		}

		decorator := NewEventRepoCacheDecorator(mockInnerRepo, mockRedis)

		if err := decorator.UpdateStatus(ctx, nil, event.ID, model.EventStatusCanceled); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if deleted != "event:id:"+event.ID {
			t.Errorf("expected invalidation of the event key, got %q", deleted)
		}
	})

	t.Run("ClearSourceText should invalidate every touched event", func(t *testing.T) {
		var deleted []string
		mockRedis := &mockRedisClient{
			DelFunc: func(ctx context.Context, keys ...string) error {
				deleted = append(deleted, keys...)
				return nil
			},
		}
		mockInnerRepo := &mockInnerEventRepo{
			ClearSourceTextFunc: func(ctx context.Context, tx repository.Tx, userID string) ([]string, error) {
				return []string{"ev-1", "ev-2"}, nil
			},
		}

		decorator := NewEventRepoCacheDecorator(mockInnerRepo, mockRedis)

		ids, err := decorator.ClearSourceText(ctx, nil, "user-123")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(ids) != 2 {
			t.Fatalf("expected 2 scrubbed ids, got %d", len(ids))
		}
		if len(deleted) != 2 || deleted[0] != "event:id:ev-1" || deleted[1] != "event:id:ev-2" {
			t.Errorf("expected both event keys invalidated, got %v", deleted)
		}
	})

	t.Run("FindDueReminders always goes to the DB", func(t *testing.T) {
		innerRepoCalled := false
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) {
				t.Error("sweep queries must not touch the cache")
				return "", redis.Nil
			},
		}
		mockInnerRepo := &mockInnerEventRepo{
			FindDueRemindersFunc: func(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.CalendarEvent, error) {
				innerRepoCalled = true
				return []*model.CalendarEvent{event}, nil
			},
		}

		decorator := NewEventRepoCacheDecorator(mockInnerRepo, mockRedis)

		due, err := decorator.FindDueReminders(ctx, nil, start, 100)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !innerRepoCalled || len(due) != 1 {
			t.Error("expected the inner repository to serve the sweep query")
		}
	})
}

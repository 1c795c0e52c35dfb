package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telegram-event-bot/internal/domain/model"
	"telegram-event-bot/internal/domain/ports/repository"
	"telegram-event-bot/internal/infra/metrics"
	red "telegram-event-bot/internal/infra/redis"
)

var _ repository.UserRepository = (*userRepoCacheDecorator)(nil)

// userRepoCacheDecorator is a read-through cache in front of the user repo.
// Users are looked up on every incoming Telegram update, so both lookup keys
// (internal id and Telegram id) are warmed together on a miss and dropped
// together on a write.
type userRepoCacheDecorator struct {
	inner repository.UserRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewUserRepoCacheDecorator(inner repository.UserRepository, cache red.RedisClient) repository.UserRepository {
	return &userRepoCacheDecorator{inner: inner, cache: cache, ttl: time.Hour}
}

func userIDKey(id string) string    { return fmt.Sprintf("user:id:%s", id) }
func userTgIDKey(tgID int64) string { return fmt.Sprintf("user:tgid:%d", tgID) }

// warm stores the user under both keys. Cache failures are not surfaced; the
// next lookup simply misses.
func (d *userRepoCacheDecorator) warm(ctx context.Context, u *model.User) {
	payload, err := json.Marshal(u)
	if err != nil {
		return
	}
	_ = d.cache.Set(ctx, userIDKey(u.ID), payload, d.ttl)
	_ = d.cache.Set(ctx, userTgIDKey(u.TelegramID), payload, d.ttl)
}

// lookup checks one key and reports hit/miss to the cache metrics.
func (d *userRepoCacheDecorator) lookup(ctx context.Context, key string) *model.User {
	val, err := d.cache.Get(ctx, key)
	if err != nil {
		metrics.IncCacheRequest("user", "miss")
		return nil
	}
	var u model.User
	if json.Unmarshal([]byte(val), &u) != nil {
		metrics.IncCacheRequest("user", "miss")
		return nil
	}
	metrics.IncCacheRequest("user", "hit")
	return &u
}

// Save drops both cache entries before touching the database, so a concurrent
// reader can at worst re-warm with the fresh row.
func (d *userRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	_ = d.cache.Del(ctx, userIDKey(u.ID))
	_ = d.cache.Del(ctx, userTgIDKey(u.TelegramID))
	return d.inner.Save(ctx, tx, u)
}

func (d *userRepoCacheDecorator) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	if u := d.lookup(ctx, userTgIDKey(tgID)); u != nil {
		return u, nil
	}
	u, err := d.inner.FindByTelegramID(ctx, tx, tgID)
	if err != nil {
		return nil, err
	}
	if u != nil {
		d.warm(ctx, u)
	}
	return u, nil
}

func (d *userRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if u := d.lookup(ctx, userIDKey(id)); u != nil {
		return u, nil
	}
	u, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if u != nil {
		d.warm(ctx, u)
	}
	return u, nil
}

// Listing and counting serve the admin surface only; they go straight through.

func (d *userRepoCacheDecorator) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	return d.inner.List(ctx, tx, offset, limit)
}

func (d *userRepoCacheDecorator) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	return d.inner.CountUsers(ctx, tx)
}

func (d *userRepoCacheDecorator) CountInactiveUsers(ctx context.Context, tx repository.Tx, since time.Time) (int, error) {
	return d.inner.CountInactiveUsers(ctx, tx, since)
}

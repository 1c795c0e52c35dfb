//go:build !integration

package postgres

import (
	"context"
	"telegram-event-bot/internal/domain/model"
	"telegram-event-bot/internal/domain/ports/repository"
	red "telegram-event-bot/internal/infra/redis"
	"time"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerUserRepo mocks the database repository that the User decorator wraps.
type mockInnerUserRepo struct {
	SaveFunc               func(ctx context.Context, tx repository.Tx, u *model.User) error
	FindByTelegramIDFunc   func(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error)
	FindByIDFunc           func(ctx context.Context, tx repository.Tx, id string) (*model.User, error)
	ListFunc               func(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error)
	CountUsersFunc         func(ctx context.Context, tx repository.Tx) (int, error)
	CountInactiveUsersFunc func(ctx context.Context, tx repository.Tx, since time.Time) (int, error)
}

func (m *mockInnerUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	return m.SaveFunc(ctx, tx, u)
}
func (m *mockInnerUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	return m.FindByTelegramIDFunc(ctx, tx, tgID)
}
func (m *mockInnerUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerUserRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	return m.ListFunc(ctx, tx, offset, limit)
}
func (m *mockInnerUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	return m.CountUsersFunc(ctx, tx)
}
func (m *mockInnerUserRepo) CountInactiveUsers(ctx context.Context, tx repository.Tx, since time.Time) (int, error) {
	return m.CountInactiveUsersFunc(ctx, tx, since)
}

// mockInnerEventRepo mocks the database repository that the Event decorator wraps.
type mockInnerEventRepo struct {
	SaveFunc                  func(ctx context.Context, tx repository.Tx, e *model.CalendarEvent) error
	FindByIDFunc              func(ctx context.Context, tx repository.Tx, id string) (*model.CalendarEvent, error)
	FindUpcomingByUserFunc    func(ctx context.Context, tx repository.Tx, userID string, from time.Time, limit int) ([]*model.CalendarEvent, error)
	FindDueRemindersFunc      func(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.CalendarEvent, error)
	MarkRemindedFunc          func(ctx context.Context, tx repository.Tx, id string, at time.Time) error
	UpdateStatusFunc          func(ctx context.Context, tx repository.Tx, id string, status model.EventStatus) error
	ClearSourceTextFunc       func(ctx context.Context, tx repository.Tx, userID string) ([]string, error)
	DeleteExpiredFunc         func(ctx context.Context, tx repository.Tx, now time.Time) (int64, error)
	CountEventsFunc           func(ctx context.Context, tx repository.Tx) (int, error)
	CountCreatedSinceFunc     func(ctx context.Context, tx repository.Tx, since time.Time) (int, error)
	CountPendingRemindersFunc func(ctx context.Context, tx repository.Tx) (int, error)
}

func (m *mockInnerEventRepo) Save(ctx context.Context, tx repository.Tx, e *model.CalendarEvent) error {
	return m.SaveFunc(ctx, tx, e)
}
func (m *mockInnerEventRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CalendarEvent, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerEventRepo) FindUpcomingByUser(ctx context.Context, tx repository.Tx, userID string, from time.Time, limit int) ([]*model.CalendarEvent, error) {
	return m.FindUpcomingByUserFunc(ctx, tx, userID, from, limit)
}
func (m *mockInnerEventRepo) FindDueReminders(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.CalendarEvent, error) {
	return m.FindDueRemindersFunc(ctx, tx, now, limit)
}
func (m *mockInnerEventRepo) MarkReminded(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	return m.MarkRemindedFunc(ctx, tx, id, at)
}
func (m *mockInnerEventRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.EventStatus) error {
	return m.UpdateStatusFunc(ctx, tx, id, status)
}
func (m *mockInnerEventRepo) ClearSourceText(ctx context.Context, tx repository.Tx, userID string) ([]string, error) {
	return m.ClearSourceTextFunc(ctx, tx, userID)
}
func (m *mockInnerEventRepo) DeleteExpired(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	return m.DeleteExpiredFunc(ctx, tx, now)
}
func (m *mockInnerEventRepo) CountEvents(ctx context.Context, tx repository.Tx) (int, error) {
	return m.CountEventsFunc(ctx, tx)
}
func (m *mockInnerEventRepo) CountCreatedSince(ctx context.Context, tx repository.Tx, since time.Time) (int, error) {
	return m.CountCreatedSinceFunc(ctx, tx, since)
}
func (m *mockInnerEventRepo) CountPendingReminders(ctx context.Context, tx repository.Tx) (int, error) {
	return m.CountPendingRemindersFunc(ctx, tx)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }

package usecase

import (
	"context"
	"time"

	"telegram-event-bot/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// StatsTotals is the aggregate snapshot behind /stats and the admin API.
type StatsTotals struct {
	Users            int `json:"users"`
	ActiveUsers24h   int `json:"active_users_24h"`
	Events           int `json:"events"`
	EventsCreated7d  int `json:"events_created_7d"`
	PendingReminders int `json:"pending_reminders"`
}

type StatsUseCase interface {
	Totals(ctx context.Context) (*StatsTotals, error)
	InactiveUsers(ctx context.Context, olderThan time.Time) (int, error)
}

type statsUC struct {
	users  repository.UserRepository
	events repository.EventRepository

	log *zerolog.Logger
}

func NewStatsUseCase(users repository.UserRepository, events repository.EventRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{users: users, events: events, log: logger}
}

func (s *statsUC) Totals(ctx context.Context) (*StatsTotals, error) {
	now := time.Now()

	users, err := s.users.CountUsers(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	inactive, err := s.users.CountInactiveUsers(ctx, repository.NoTX, now.Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}
	events, err := s.events.CountEvents(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	created, err := s.events.CountCreatedSince(ctx, repository.NoTX, now.Add(-7*24*time.Hour))
	if err != nil {
		return nil, err
	}
	pending, err := s.events.CountPendingReminders(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	return &StatsTotals{
		Users:            users,
		ActiveUsers24h:   users - inactive,
		Events:           events,
		EventsCreated7d:  created,
		PendingReminders: pending,
	}, nil
}

func (s *statsUC) InactiveUsers(ctx context.Context, olderThan time.Time) (int, error) {
	return s.users.CountInactiveUsers(ctx, repository.NoTX, olderThan)
}

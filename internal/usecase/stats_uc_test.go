//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-event-bot/internal/domain/ports/repository"
	"telegram-event-bot/internal/usecase"
)

func TestStatsUseCase(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()

	t.Run("Totals should return aggregated data from repositories", func(t *testing.T) {
		// --- Arrange ---
		mockUserRepo := NewMockUserRepo()
		mockEventRepo := NewMockEventRepo()

		mockUserRepo.CountUsersFunc = func(ctx context.Context, tx repository.Tx) (int, error) {
			return 150, nil
		}
		mockUserRepo.CountInactiveUsersFunc = func(ctx context.Context, tx repository.Tx, olderThan time.Time) (int, error) {
			return 120, nil
		}
		mockEventRepo.CountEventsFunc = func(ctx context.Context, tx repository.Tx) (int, error) {
			return 900, nil
		}
		mockEventRepo.CountCreatedSinceFunc = func(ctx context.Context, tx repository.Tx, since time.Time) (int, error) {
			return 75, nil
		}
		mockEventRepo.CountPendingRemindersFunc = func(ctx context.Context, tx repository.Tx) (int, error) {
			return 12, nil
		}

		uc := usecase.NewStatsUseCase(mockUserRepo, mockEventRepo, testLogger)

		// --- Act ---
		totals, err := uc.Totals(ctx)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if totals.Users != 150 {
			t.Errorf("expected 150 users, got %d", totals.Users)
		}
		if totals.ActiveUsers24h != 30 {
			t.Errorf("expected 30 active users, got %d", totals.ActiveUsers24h)
		}
		if totals.Events != 900 {
			t.Errorf("expected 900 events, got %d", totals.Events)
		}
		if totals.EventsCreated7d != 75 {
			t.Errorf("expected 75 events created this week, got %d", totals.EventsCreated7d)
		}
		if totals.PendingReminders != 12 {
			t.Errorf("expected 12 pending reminders, got %d", totals.PendingReminders)
		}
	})

	t.Run("Totals should propagate repository errors", func(t *testing.T) {
		// --- Arrange ---
		mockUserRepo := NewMockUserRepo()
		mockEventRepo := NewMockEventRepo()
		expectedErr := errors.New("connection refused")
		mockEventRepo.CountEventsFunc = func(ctx context.Context, tx repository.Tx) (int, error) {
			return 0, expectedErr
		}
		uc := usecase.NewStatsUseCase(mockUserRepo, mockEventRepo, testLogger)

		// --- Act ---
		_, err := uc.Totals(ctx)

		// --- Assert ---
		if !errors.Is(err, expectedErr) {
			t.Fatalf("expected the repository error, got %v", err)
		}
	})

	t.Run("InactiveUsers should delegate to the user repository", func(t *testing.T) {
		// --- Arrange ---
		mockUserRepo := NewMockUserRepo()
		mockUserRepo.CountInactiveUsersFunc = func(ctx context.Context, tx repository.Tx, olderThan time.Time) (int, error) {
			return 7, nil
		}
		uc := usecase.NewStatsUseCase(mockUserRepo, NewMockEventRepo(), testLogger)

		// --- Act ---
		n, err := uc.InactiveUsers(ctx, time.Now().AddDate(0, -1, 0))

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if n != 7 {
			t.Errorf("expected 7 inactive users, got %d", n)
		}
	})
}

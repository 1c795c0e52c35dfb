package usecase

import (
	"context"
	"errors"
	"time"

	"telegram-event-bot/internal/domain"
	"telegram-event-bot/internal/domain/model"
	"telegram-event-bot/internal/domain/ports/repository"
	"telegram-event-bot/internal/infra/logging"
	"telegram-event-bot/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// StepAwaitingTimezone marks a conversation waiting for the user to type an
// IANA zone name after /timezone.
const StepAwaitingTimezone = "awaiting_timezone"

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase exposes user-related operations used by bot/admin flows.
type UserUseCase interface {
	RegisterOrFetch(ctx context.Context, tgID int64, username string) (*model.User, error)
	GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, offset, limit int) ([]*model.User, error)

	// SetTimezone validates and stores the user's preferred IANA zone.
	SetTimezone(ctx context.Context, tgID int64, zone string) (*model.User, error)

	// ToggleSourceStorage flips the allow-source-storage privacy flag. When
	// storage becomes disallowed, already stored message texts are wiped in
	// the same transaction.
	ToggleSourceStorage(ctx context.Context, tgID int64) (*model.User, error)

	SetConversationState(ctx context.Context, tgID int64, state *repository.ConversationState) error
	GetConversationState(ctx context.Context, tgID int64) (*repository.ConversationState, error)
	ClearConversationState(ctx context.Context, tgID int64) error

	Count(ctx context.Context) (int, error)
	CountInactiveSince(ctx context.Context, since time.Time) (int, error)
}

type userUC struct {
	users  repository.UserRepository
	events repository.EventRepository
	states repository.StateRepository
	tm     repository.TransactionManager
	log    *zerolog.Logger
}

func NewUserUseCase(
	users repository.UserRepository,
	events repository.EventRepository,
	states repository.StateRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *userUC {
	return &userUC{
		users:  users,
		events: events,
		states: states,
		tm:     tm,
		log:    logger,
	}
}

func (u *userUC) RegisterOrFetch(ctx context.Context, tgID int64, username string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.RegisterOrFetch")()

	var user *model.User
	// Serializable so the find and the save act as one atomic step; two
	// concurrent first messages from the same account create one row.
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		usr, err := u.users.FindByTelegramID(ctx, tx, tgID)
		switch {
		case err == nil:
			if usr.Username != username && username != "" {
				usr.Username = username
			}
			usr.Touch()
			if err := u.users.Save(ctx, tx, usr); err != nil {
				return err
			}
			user = usr
			return nil
		case errors.Is(err, domain.ErrNotFound):
			nu, err := model.NewUser("", tgID, username)
			if err != nil {
				return err
			}
			if err := u.users.Save(ctx, tx, nu); err != nil {
				return err
			}
			metrics.IncUsersRegistered()
			u.log.Info().Int64("tg_id", tgID).Str("user_id", nu.ID).Msg("registered new user")
			user = nu
			return nil
		default:
			return err
		}
	})
	if err != nil {
		u.log.Error().Err(err).Int64("tg_id", tgID).Msg("RegisterOrFetch failed")
		return nil, err
	}
	return user, nil
}

func (u *userUC) GetByTelegramID(ctx context.Context, tgID int64) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.GetByTelegramID")()
	return u.users.FindByTelegramID(ctx, repository.NoTX, tgID)
}

func (u *userUC) GetByID(ctx context.Context, id string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.GetByID")()
	return u.users.FindByID(ctx, repository.NoTX, id)
}

func (u *userUC) List(ctx context.Context, offset, limit int) ([]*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.List")()
	return u.users.List(ctx, repository.NoTX, offset, limit)
}

func (u *userUC) SetTimezone(ctx context.Context, tgID int64, zone string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.SetTimezone")()

	if zone == "" {
		return nil, domain.ErrUnknownTimezone
	}
	if _, err := time.LoadLocation(zone); err != nil {
		return nil, domain.ErrUnknownTimezone
	}

	var user *model.User
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		usr, err := u.users.FindByTelegramID(ctx, tx, tgID)
		if err != nil {
			return err
		}
		usr.Timezone = zone
		usr.Touch()
		if err := u.users.Save(ctx, tx, usr); err != nil {
			return err
		}
		user = usr
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info().Int64("tg_id", tgID).Str("timezone", zone).Msg("timezone updated")
	return user, nil
}

func (u *userUC) ToggleSourceStorage(ctx context.Context, tgID int64) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.ToggleSourceStorage")()

	var user *model.User
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		usr, err := u.users.FindByTelegramID(ctx, tx, tgID)
		if err != nil {
			return err
		}
		usr.Privacy.AllowSourceStorage = !usr.Privacy.AllowSourceStorage
		usr.Privacy.UpdatedAt = time.Now()
		if !usr.Privacy.AllowSourceStorage {
			cleared, err := u.events.ClearSourceText(ctx, tx, usr.ID)
			if err != nil {
				return err
			}
			if len(cleared) > 0 {
				u.log.Info().Str("user_id", usr.ID).Int("events", len(cleared)).Msg("wiped stored source texts")
			}
		}
		if err := u.users.Save(ctx, tx, usr); err != nil {
			return err
		}
		user = usr
		return nil
	})
	if err != nil {
		u.log.Error().Err(err).Int64("tg_id", tgID).Msg("ToggleSourceStorage failed")
		return nil, err
	}
	return user, nil
}

func (u *userUC) SetConversationState(ctx context.Context, tgID int64, state *repository.ConversationState) error {
	return u.states.SetState(ctx, tgID, state)
}

func (u *userUC) GetConversationState(ctx context.Context, tgID int64) (*repository.ConversationState, error) {
	return u.states.GetState(ctx, tgID)
}

func (u *userUC) ClearConversationState(ctx context.Context, tgID int64) error {
	return u.states.ClearState(ctx, tgID)
}

func (u *userUC) Count(ctx context.Context) (int, error) {
	defer logging.TraceDuration(u.log, "UserUC.Count")()
	return u.users.CountUsers(ctx, repository.NoTX)
}

func (u *userUC) CountInactiveSince(ctx context.Context, since time.Time) (int, error) {
	defer logging.TraceDuration(u.log, "UserUC.CountInactiveSince")()
	return u.users.CountInactiveUsers(ctx, repository.NoTX, since)
}

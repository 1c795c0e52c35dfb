package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-event-bot/internal/domain"
	"telegram-event-bot/internal/domain/model"
	"telegram-event-bot/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

const userColumns = `id, telegram_id, username, timezone, registered_at, last_active_at,
       allow_source_storage, auto_delete_past, event_retention_days, data_encrypted, is_admin`

func (r *PostgresUserRepo) Save(ctx context.Context, qx any, u *model.User) error {
	const q = `
INSERT INTO users (
  id, telegram_id, username, timezone, registered_at, last_active_at,
  allow_source_storage, auto_delete_past, event_retention_days, data_encrypted, is_admin
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
) ON CONFLICT (id) DO UPDATE SET
  telegram_id=$2, username=$3, timezone=$4, last_active_at=$6,
  allow_source_storage=$7, auto_delete_past=$8, event_retention_days=$9, data_encrypted=$10, is_admin=$11;
`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q,
		u.ID, u.TelegramID, u.Username, u.Timezone, u.RegisteredAt, u.LastActiveAt,
		u.Privacy.AllowSourceStorage, u.Privacy.AutoDeletePast, u.Privacy.EventRetentionDays,
		u.Privacy.DataEncrypted, u.IsAdmin)
	return err
}

func (r *PostgresUserRepo) scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.TelegramID, &u.Username, &u.Timezone, &u.RegisteredAt, &u.LastActiveAt,
		&u.Privacy.AllowSourceStorage, &u.Privacy.AutoDeletePast, &u.Privacy.EventRetentionDays,
		&u.Privacy.DataEncrypted, &u.IsAdmin); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	u.Privacy.UserID = u.ID
	return &u, nil
}

func (r *PostgresUserRepo) FindByTelegramID(ctx context.Context, qx any, tgID int64) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE telegram_id=$1;`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	return r.scanUser(ex.QueryRow(ctx, q, tgID))
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, qx any, id string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id=$1;`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	return r.scanUser(ex.QueryRow(ctx, q, id))
}

func (r *PostgresUserRepo) List(ctx context.Context, qx any, offset, limit int) ([]*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users ORDER BY registered_at DESC OFFSET $1 LIMIT $2;`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresUserRepo) CountUsers(ctx context.Context, qx any) (int, error) {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM users;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *PostgresUserRepo) CountInactiveUsers(ctx context.Context, qx any, since time.Time) (int, error) {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE last_active_at IS NULL OR last_active_at < $1;`, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count inactive: %w", err)
	}
	return n, nil
}

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

var _ repository.EventRepository = (*PostgresEventRepo)(nil)

type PostgresEventRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresEventRepo(pool *pgxpool.Pool) *PostgresEventRepo {
	return &PostgresEventRepo{pool: pool}
}

const eventColumns = `id, user_id, title, location, source_text, start_at, end_at, timezone,
       reminder_minutes, reminder_at, reminded_at, status, created_at, updated_at`

func (r *PostgresEventRepo) Save(ctx context.Context, qx any, e *model.CalendarEvent) error {
	const q = `
INSERT INTO calendar_events (
  id, user_id, title, location, source_text, start_at, end_at, timezone,
  reminder_minutes, reminder_at, reminded_at, status, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
) ON CONFLICT (id) DO UPDATE SET
  title=$3, location=$4, source_text=$5, start_at=$6, end_at=$7, timezone=$8,
  reminder_minutes=$9, reminder_at=$10, reminded_at=$11, status=$12, updated_at=$14;
`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q,
		e.ID, e.UserID, e.Title, e.Location, e.SourceText, e.StartAt, e.EndAt, e.Timezone,
		e.ReminderMinutes, e.ReminderAt, e.RemindedAt, e.Status, e.CreatedAt, e.UpdatedAt)
	return err
}

func (r *PostgresEventRepo) scanEvent(row pgx.Row) (*model.CalendarEvent, error) {
	var e model.CalendarEvent
	if err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Location, &e.SourceText, &e.StartAt, &e.EndAt,
		&e.Timezone, &e.ReminderMinutes, &e.ReminderAt, &e.RemindedAt, &e.Status, &e.CreatedAt,
		&e.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *PostgresEventRepo) FindByID(ctx context.Context, qx any, id string) (*model.CalendarEvent, error) {
	q := `SELECT ` + eventColumns + ` FROM calendar_events WHERE id=$1;`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	return r.scanEvent(ex.QueryRow(ctx, q, id))
}

func (r *PostgresEventRepo) FindUpcomingByUser(ctx context.Context, qx any, userID string, from time.Time, limit int) ([]*model.CalendarEvent, error) {
	q := `SELECT ` + eventColumns + `
  FROM calendar_events
 WHERE user_id=$1 AND status=$2 AND end_at >= $3
 ORDER BY start_at ASC
 LIMIT $4;`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, userID, model.EventStatusScheduled, from, limit)
	if err != nil {
		return nil, fmt.Errorf("find upcoming: %w", err)
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *PostgresEventRepo) FindDueReminders(ctx context.Context, qx any, now time.Time, limit int) ([]*model.CalendarEvent, error) {
	q := `SELECT ` + eventColumns + `
  FROM calendar_events
 WHERE status=$1
   AND reminder_at IS NOT NULL
   AND reminded_at IS NULL
   AND reminder_at <= $2
   AND end_at > $2
 ORDER BY reminder_at ASC
 LIMIT $3;`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, model.EventStatusScheduled, now, limit)
	if err != nil {
		return nil, fmt.Errorf("find due reminders: %w", err)
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *PostgresEventRepo) MarkReminded(ctx context.Context, qx any, id string, at time.Time) error {
	const q = `UPDATE calendar_events SET reminded_at=$2, updated_at=$2 WHERE id=$1 AND reminded_at IS NULL;`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, q, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresEventRepo) UpdateStatus(ctx context.Context, qx any, id string, status model.EventStatus) error {
	const q = `UPDATE calendar_events SET status=$2, updated_at=$3 WHERE id=$1;`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, q, id, status, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresEventRepo) ClearSourceText(ctx context.Context, qx any, userID string) ([]string, error) {
	const q = `
UPDATE calendar_events
   SET source_text='', updated_at=$2
 WHERE user_id=$1 AND source_text <> ''
RETURNING id;
`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, userID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("clear source text: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteExpired honors each user's retention window; only users who opted
// into auto-deletion are affected.
func (r *PostgresEventRepo) DeleteExpired(ctx context.Context, qx any, now time.Time) (int64, error) {
	const q = `
DELETE FROM calendar_events e
 USING users u
 WHERE e.user_id = u.id
   AND u.auto_delete_past
   AND e.end_at < $1 - make_interval(days => u.event_retention_days);
`
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return 0, err
	}
	tag, err := ex.Exec(ctx, q, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresEventRepo) CountEvents(ctx context.Context, qx any) (int, error) {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM calendar_events;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

func (r *PostgresEventRepo) CountCreatedSince(ctx context.Context, qx any, since time.Time) (int, error) {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM calendar_events WHERE created_at >= $1;`, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count created since: %w", err)
	}
	return n, nil
}

func (r *PostgresEventRepo) CountPendingReminders(ctx context.Context, qx any) (int, error) {
	ex, err := getExecutor(r.pool, qx)
	if err != nil {
		return 0, err
	}
	var n int
	q := `SELECT COUNT(*) FROM calendar_events
 WHERE status=$1 AND reminder_at IS NOT NULL AND reminded_at IS NULL;`
	if err := ex.QueryRow(ctx, q, model.EventStatusScheduled).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pending reminders: %w", err)
	}
	return n, nil
}

func (r *PostgresEventRepo) collect(rows pgx.Rows) ([]*model.CalendarEvent, error) {
	var out []*model.CalendarEvent
	for rows.Next() {
		e, err := r.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

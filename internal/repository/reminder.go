package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hray3182/remindcall/internal/database"
	"github.com/hray3182/remindcall/internal/models"
)

const reminderColumns = `id, subject, raw_time_expression, recurrence, next_fire_at, created_at,
	last_fired_at, fire_count, active, recipient_handle, owner_ref`

// ReminderRepository is the Postgres-backed reminder store.
type ReminderRepository struct {
	db *database.DB
}

func NewReminderRepository(db *database.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

func (r *ReminderRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO reminders (`+reminderColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		reminder.ID, reminder.SubjectDescription, reminder.RawTimeExpression, string(reminder.Recurrence),
		toMillis(reminder.NextFireAt), toMillis(reminder.CreatedAt), optionalMillis(reminder.LastFiredAt),
		reminder.FireCount, reminder.Active, reminder.RecipientHandle, reminder.OwnerRef,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", models.ErrDuplicateID, reminder.ID)
	}
	return err
}

func (r *ReminderRepository) Get(ctx context.Context, id string) (*models.Reminder, error) {
	reminder, err := scanReminder(r.db.Pool.QueryRow(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return reminder, err
}

func (r *ReminderRepository) FindDue(ctx context.Context, now time.Time) ([]*models.Reminder, error) {
	return r.query(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE active = true AND next_fire_at > 0 AND next_fire_at <= $1`,
		toMillis(now),
	)
}

func (r *ReminderRepository) FindUpcoming(ctx context.Context, now time.Time, horizon time.Duration) ([]*models.Reminder, error) {
	return r.query(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE active = true AND next_fire_at > $1 AND next_fire_at <= $2
		 ORDER BY next_fire_at ASC`,
		toMillis(now), toMillis(now.Add(horizon)),
	)
}

// RecordDispatch reports false when no active reminder with id exists.
// A nil next retires the reminder.
func (r *ReminderRepository) RecordDispatch(ctx context.Context, id string, dispatchedAt time.Time, next *time.Time) (bool, error) {
	var tag pgconn.CommandTag
	var err error
	if next != nil {
		tag, err = r.db.Pool.Exec(ctx,
			`UPDATE reminders SET fire_count = fire_count + 1, last_fired_at = $2, next_fire_at = $3, active = true
			 WHERE id = $1 AND active = true`,
			id, toMillis(dispatchedAt), toMillis(*next),
		)
	} else {
		tag, err = r.db.Pool.Exec(ctx,
			`UPDATE reminders SET fire_count = fire_count + 1, last_fired_at = $2, active = false
			 WHERE id = $1 AND active = true`,
			id, toMillis(dispatchedAt),
		)
	}
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ReminderRepository) Cancel(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE reminders SET active = false WHERE id = $1 AND active = true`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ReminderRepository) ListActiveFor(ctx context.Context, recipient string) ([]*models.Reminder, error) {
	return r.query(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE recipient_handle = $1 AND active = true
		 ORDER BY next_fire_at ASC`,
		recipient,
	)
}

func (r *ReminderRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM reminders WHERE active = true`).Scan(&n)
	return n, err
}

func (r *ReminderRepository) query(ctx context.Context, sql string, args ...any) ([]*models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []*models.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}

func scanReminder(row pgx.Row) (*models.Reminder, error) {
	var (
		reminder   models.Reminder
		recurrence string
		nextFireAt int64
		createdAt  int64
		lastFired  *int64
	)
	err := row.Scan(&reminder.ID, &reminder.SubjectDescription, &reminder.RawTimeExpression, &recurrence,
		&nextFireAt, &createdAt, &lastFired, &reminder.FireCount, &reminder.Active,
		&reminder.RecipientHandle, &reminder.OwnerRef)
	if err != nil {
		return nil, err
	}

	reminder.Recurrence = models.Recurrence(recurrence)
	reminder.NextFireAt = fromMillis(nextFireAt)
	reminder.CreatedAt = fromMillis(createdAt)
	if lastFired != nil {
		t := fromMillis(*lastFired)
		reminder.LastFiredAt = &t
	}
	return &reminder, nil
}

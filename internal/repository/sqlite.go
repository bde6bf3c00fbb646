package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/hray3182/remindcall/internal/models"
)

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

var sqliteMigrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS reminders (
	id                  TEXT PRIMARY KEY,
	subject             TEXT NOT NULL,
	raw_time_expression TEXT NOT NULL DEFAULT '',
	recurrence          TEXT NOT NULL,
	next_fire_at        INTEGER NOT NULL,
	created_at          INTEGER NOT NULL,
	last_fired_at       INTEGER,
	fire_count          INTEGER NOT NULL DEFAULT 0,
	active              INTEGER NOT NULL DEFAULT 1,
	recipient_handle    TEXT NOT NULL,
	owner_ref           TEXT
);

CREATE INDEX IF NOT EXISTS idx_reminders_due ON reminders(active, next_fire_at);
CREATE INDEX IF NOT EXISTS idx_reminders_recipient ON reminders(recipient_handle, active);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}

// reminderRow mirrors the reminders table for sqlx scanning.
type reminderRow struct {
	ID                string         `db:"id"`
	Subject           string         `db:"subject"`
	RawTimeExpression string         `db:"raw_time_expression"`
	Recurrence        string         `db:"recurrence"`
	NextFireAt        int64          `db:"next_fire_at"`
	CreatedAt         int64          `db:"created_at"`
	LastFiredAt       sql.NullInt64  `db:"last_fired_at"`
	FireCount         int            `db:"fire_count"`
	Active            bool           `db:"active"`
	RecipientHandle   string         `db:"recipient_handle"`
	OwnerRef          sql.NullString `db:"owner_ref"`
}

func (row reminderRow) model() *models.Reminder {
	reminder := &models.Reminder{
		ID:                 row.ID,
		SubjectDescription: row.Subject,
		RawTimeExpression:  row.RawTimeExpression,
		Recurrence:         models.Recurrence(row.Recurrence),
		NextFireAt:         fromMillis(row.NextFireAt),
		CreatedAt:          fromMillis(row.CreatedAt),
		FireCount:          row.FireCount,
		Active:             row.Active,
		RecipientHandle:    row.RecipientHandle,
	}
	if row.LastFiredAt.Valid {
		t := fromMillis(row.LastFiredAt.Int64)
		reminder.LastFiredAt = &t
	}
	if row.OwnerRef.Valid {
		owner := row.OwnerRef.String
		reminder.OwnerRef = &owner
	}
	return reminder
}

// SQLiteReminderRepository is the embedded reminder store used for single-node
// deployments and tests.
type SQLiteReminderRepository struct {
	db *sqlx.DB
}

// NewSQLiteReminderRepository opens (or creates) a SQLite database at path,
// enables WAL mode, and runs any pending schema migrations. ":memory:" is
// held on a single connection so every query sees the same database.
func NewSQLiteReminderRepository(path string) (*SQLiteReminderRepository, error) {
	db, err := sqlx.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	s := &SQLiteReminderRepository{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// sqliteDSN attaches the connection pragmas to path so that every pooled
// connection waits on a held write lock instead of failing with SQLITE_BUSY.
func sqliteDSN(path string) string {
	if path == ":memory:" {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Close closes the underlying database connection.
func (s *SQLiteReminderRepository) Close() error {
	return s.db.Close()
}

func (s *SQLiteReminderRepository) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'")
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}
	if tableCount > 0 {
		if err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range sqliteMigrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}
	return nil
}

func (s *SQLiteReminderRepository) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders (`+reminderColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reminder.ID, reminder.SubjectDescription, reminder.RawTimeExpression, string(reminder.Recurrence),
		toMillis(reminder.NextFireAt), toMillis(reminder.CreatedAt), optionalMillis(reminder.LastFiredAt),
		reminder.FireCount, reminder.Active, reminder.RecipientHandle, reminder.OwnerRef,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %s", models.ErrDuplicateID, reminder.ID)
	}
	return err
}

func (s *SQLiteReminderRepository) Get(ctx context.Context, id string) (*models.Reminder, error) {
	var row reminderRow
	err := s.db.GetContext(ctx, &row, `SELECT `+reminderColumns+` FROM reminders WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.model(), nil
}

func (s *SQLiteReminderRepository) FindDue(ctx context.Context, now time.Time) ([]*models.Reminder, error) {
	return s.selectReminders(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE active = 1 AND next_fire_at > 0 AND next_fire_at <= ?`,
		toMillis(now),
	)
}

func (s *SQLiteReminderRepository) FindUpcoming(ctx context.Context, now time.Time, horizon time.Duration) ([]*models.Reminder, error) {
	return s.selectReminders(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE active = 1 AND next_fire_at > ? AND next_fire_at <= ?
		 ORDER BY next_fire_at ASC`,
		toMillis(now), toMillis(now.Add(horizon)),
	)
}

// RecordDispatch reports false when no active reminder with id exists.
// A nil next retires the reminder.
func (s *SQLiteReminderRepository) RecordDispatch(ctx context.Context, id string, dispatchedAt time.Time, next *time.Time) (bool, error) {
	var res sql.Result
	var err error
	if next != nil {
		res, err = s.db.ExecContext(ctx,
			`UPDATE reminders SET fire_count = fire_count + 1, last_fired_at = ?, next_fire_at = ?, active = 1
			 WHERE id = ? AND active = 1`,
			toMillis(dispatchedAt), toMillis(*next), id,
		)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE reminders SET fire_count = fire_count + 1, last_fired_at = ?, active = 0
			 WHERE id = ? AND active = 1`,
			toMillis(dispatchedAt), id,
		)
	}
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *SQLiteReminderRepository) Cancel(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE reminders SET active = 0 WHERE id = ? AND active = 1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *SQLiteReminderRepository) ListActiveFor(ctx context.Context, recipient string) ([]*models.Reminder, error) {
	return s.selectReminders(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE recipient_handle = ? AND active = 1
		 ORDER BY next_fire_at ASC`,
		recipient,
	)
}

func (s *SQLiteReminderRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM reminders WHERE active = 1`)
	return n, err
}

func (s *SQLiteReminderRepository) selectReminders(ctx context.Context, query string, args ...any) ([]*models.Reminder, error) {
	var rows []reminderRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	reminders := make([]*models.Reminder, 0, len(rows))
	for _, row := range rows {
		reminders = append(reminders, row.model())
	}
	return reminders, nil
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"renewal_reminders/internal/domain/reminder"

	"github.com/lib/pq" // For pq.Array and pq.Error
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

type PostgresRunLogRepository struct {
	db *sql.DB
}

func NewPostgresRunLogRepository(db *sql.DB) *PostgresRunLogRepository {
	return &PostgresRunLogRepository{db: db}
}

func (r *PostgresRunLogRepository) HasSent(ctx context.Context, recordID string, st reminder.ServiceType, reminderNumber int) (bool, error) {
	query := `SELECT EXISTS (
                 SELECT 1 FROM reminder_runs
                 WHERE record_id = $1 AND service_type = $2 AND reminder_number = $3)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, recordID, st, reminderNumber).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking reminder run: %w", err)
	}
	return exists, nil
}

func (r *PostgresRunLogRepository) MaxSentOrdinal(ctx context.Context, recordID string, st reminder.ServiceType) (int, error) {
	query := `SELECT COALESCE(MAX(reminder_number), 0)
               FROM reminder_runs
               WHERE record_id = $1 AND service_type = $2`

	var maxSent int
	if err := r.db.QueryRowContext(ctx, query, recordID, st).Scan(&maxSent); err != nil {
		return 0, fmt.Errorf("error getting highest sent reminder: %w", err)
	}
	return maxSent, nil
}

// RecordSent inserts rec and relies on reminder_runs_record_tier_unique to
// reject a second entry for the same key, so concurrent runs cannot both win.
func (r *PostgresRunLogRepository) RecordSent(ctx context.Context, rec *reminder.RunRecord) error {
	query := `INSERT INTO reminder_runs (run_id, record_id, service_type, reminder_number, sent_on, channels)
               VALUES ($1, $2, $3, $4, $5, $6)
               ON CONFLICT ON CONSTRAINT reminder_runs_record_tier_unique DO NOTHING
               RETURNING id, created_at`

	channels := rec.Channels
	if channels == nil {
		channels = []string{}
	}
	err := r.db.QueryRowContext(ctx, query,
		rec.RunID, rec.RecordID, rec.ServiceType, rec.ReminderNumber, reminder.CalendarDate(rec.SentOn), pq.Array(channels),
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err) {
			return reminder.ErrDuplicateRun
		}
		return fmt.Errorf("error recording reminder run (record %s, %s, #%d): %w", rec.RecordID, rec.ServiceType, rec.ReminderNumber, err)
	}
	return nil
}

func (r *PostgresRunLogRepository) History(ctx context.Context, recordID string, st reminder.ServiceType) ([]*reminder.RunRecord, error) {
	query := `SELECT id, run_id, record_id, service_type, reminder_number, sent_on, channels, created_at
               FROM reminder_runs
               WHERE record_id = $1 AND service_type = $2
               ORDER BY reminder_number ASC`

	rows, err := r.db.QueryContext(ctx, query, recordID, st)
	if err != nil {
		return nil, fmt.Errorf("error querying reminder runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*reminder.RunRecord, 0)
	for rows.Next() {
		rec := reminder.RunRecord{}
		var channels pq.StringArray
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.RecordID, &rec.ServiceType, &rec.ReminderNumber, &rec.SentOn, &channels, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning reminder run row: %w", err)
		}
		rec.Channels = []string(channels)
		runs = append(runs, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder run rows: %w", err)
	}
	return runs, nil
}

// isUniqueViolation covers an insert that races past ON CONFLICT, e.g. when
// the constraint is redefined under another name.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

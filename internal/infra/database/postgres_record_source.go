package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"renewal_reminders/internal/domain/reminder"

	"github.com/jmoiron/sqlx"
)

type candidateRow struct {
	ID             string         `db:"id"`
	ExpiryDate     sql.NullTime   `db:"expiry_date"`
	StartDate      sql.NullTime   `db:"start_date"`
	TermYears      sql.NullInt32  `db:"term_years"`
	RecipientName  sql.NullString `db:"recipient_name"`
	RecipientEmail sql.NullString `db:"recipient_email"`
	RecipientPhone sql.NullString `db:"recipient_phone"`
	ReferenceNo    sql.NullString `db:"reference_no"`
	SubjectName    sql.NullString `db:"subject_name"`
	Amount         sql.NullString `db:"amount"`
	CompanyName    sql.NullString `db:"company_name"`
}

func (c candidateRow) toRecord(st reminder.ServiceType) *reminder.Record {
	return &reminder.Record{
		ID:          c.ID,
		ServiceType: st,
		ExpiryDate:  c.ExpiryDate,
		StartDate:   c.StartDate,
		TermYears:   c.TermYears,
		Recipient: reminder.Recipient{
			Name:  c.RecipientName.String,
			Email: c.RecipientEmail.String,
			Phone: c.RecipientPhone.String,
		},
		Fields: map[string]string{
			reminder.FieldReference: c.ReferenceNo.String,
			reminder.FieldSubject:   c.SubjectName.String,
			reminder.FieldAmount:    c.Amount.String,
			reminder.FieldCompany:   c.CompanyName.String,
		},
	}
}

// PostgresRecordSource reads renewal candidates from the back-office tables.
type PostgresRecordSource struct {
	db            *sqlx.DB
	lookAheadDays int
	overdueDays   int
}

// NewPostgresRecordSource returns a source that selects records expiring within
// lookAheadDays after the reference date, or at most overdueDays before it.
// A policy whose horizon reaches further widens the window for its own type.
func NewPostgresRecordSource(db *sql.DB, lookAheadDays, overdueDays int) *PostgresRecordSource {
	return &PostgresRecordSource{
		db:            sqlx.NewDb(db, "postgres"),
		lookAheadDays: lookAheadDays,
		overdueDays:   overdueDays,
	}
}

func (s *PostgresRecordSource) FetchCandidates(ctx context.Context, st reminder.ServiceType, reference time.Time, horizonDays int) ([]*reminder.Record, error) {
	query, ok := candidateQueries[st]
	if !ok {
		return nil, fmt.Errorf("no candidate query for %s: %w", st, reminder.ErrUnknownServiceType)
	}

	day := reminder.CalendarDate(reference)
	windowEnd := day.AddDate(0, 0, max(s.lookAheadDays, horizonDays))
	windowStart := day.AddDate(0, 0, -s.overdueDays)

	var rows []candidateRow
	if err := s.db.SelectContext(ctx, &rows, query, windowEnd, windowStart); err != nil {
		return nil, fmt.Errorf("error fetching %s candidates: %w", st, err)
	}

	records := make([]*reminder.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord(st))
	}
	return records, nil
}

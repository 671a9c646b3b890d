// internal/domain/reminder/runlog.go
package reminder

import (
	"context"
	"time"
)

// RunRecord is one successfully dispatched reminder.
// Corresponds to the 'reminder_runs' table. Rows are never updated.
type RunRecord struct {
	ID             int64
	RunID          string // dispatcher run that sent it
	RecordID       string
	ServiceType    ServiceType
	ReminderNumber int       // 1-based tier
	SentOn         time.Time // calendar date, no time of day
	Channels       []string  // channels that delivered
	CreatedAt      time.Time
}

// RunLog is the append-only ledger of sent reminders.
// At most one entry exists per (RecordID, ServiceType, ReminderNumber).
type RunLog interface {
	HasSent(ctx context.Context, recordID string, st ServiceType, reminderNumber int) (bool, error)
	// MaxSentOrdinal returns the highest reminder number sent, or 0.
	MaxSentOrdinal(ctx context.Context, recordID string, st ServiceType) (int, error)
	// RecordSent appends rec. It fails with ErrDuplicateRun when the key already exists;
	// the check and the insert are a single atomic operation.
	RecordSent(ctx context.Context, rec *RunRecord) error
	// History lists entries for one record in reminder number order.
	History(ctx context.Context, recordID string, st ServiceType) ([]*RunRecord, error)
}

// Package memory holds in-process implementations of the reminder stores,
// used for dry runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"renewal_reminders/internal/domain/reminder"
)

type runKey struct {
	recordID    string
	serviceType reminder.ServiceType
	number      int
}

// RunLog is a reminder.RunLog kept in memory. The uniqueness check and the
// insert happen under one lock.
type RunLog struct {
	mu     sync.RWMutex
	nextID int64
	runs   map[runKey]*reminder.RunRecord
	now    func() time.Time
}

func NewRunLog() *RunLog {
	return &RunLog{
		runs: make(map[runKey]*reminder.RunRecord),
		now:  time.Now,
	}
}

func (l *RunLog) HasSent(_ context.Context, recordID string, st reminder.ServiceType, reminderNumber int) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.runs[runKey{recordID, st, reminderNumber}]
	return ok, nil
}

func (l *RunLog) MaxSentOrdinal(_ context.Context, recordID string, st reminder.ServiceType) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	maxSent := 0
	for k := range l.runs {
		if k.recordID == recordID && k.serviceType == st && k.number > maxSent {
			maxSent = k.number
		}
	}
	return maxSent, nil
}

func (l *RunLog) RecordSent(_ context.Context, rec *reminder.RunRecord) error {
	key := runKey{rec.RecordID, rec.ServiceType, rec.ReminderNumber}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.runs[key]; exists {
		return reminder.ErrDuplicateRun
	}

	l.nextID++
	rec.ID = l.nextID
	rec.CreatedAt = l.now()
	stored := *rec
	stored.Channels = append([]string(nil), rec.Channels...)
	l.runs[key] = &stored
	return nil
}

func (l *RunLog) History(_ context.Context, recordID string, st reminder.ServiceType) ([]*reminder.RunRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*reminder.RunRecord, 0)
	for k, rec := range l.runs {
		if k.recordID == recordID && k.serviceType == st {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReminderNumber < out[j].ReminderNumber })
	return out, nil
}

// Len returns the number of stored entries.
func (l *RunLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.runs)
}

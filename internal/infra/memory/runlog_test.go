package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"renewal_reminders/internal/domain/reminder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLog_RecordAndQuery(t *testing.T) {
	ctx := context.Background()
	log := NewRunLog()
	sentOn := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	sent, err := log.HasSent(ctx, "42", reminder.ServiceDSC, 1)
	require.NoError(t, err)
	assert.False(t, sent)

	maxSent, err := log.MaxSentOrdinal(ctx, "42", reminder.ServiceDSC)
	require.NoError(t, err)
	assert.Equal(t, 0, maxSent)

	require.NoError(t, log.RecordSent(ctx, &reminder.RunRecord{RecordID: "42", ServiceType: reminder.ServiceDSC, ReminderNumber: 3, SentOn: sentOn}))
	require.NoError(t, log.RecordSent(ctx, &reminder.RunRecord{RecordID: "42", ServiceType: reminder.ServiceDSC, ReminderNumber: 1, SentOn: sentOn}))
	require.NoError(t, log.RecordSent(ctx, &reminder.RunRecord{RecordID: "42", ServiceType: reminder.ServiceLabourLicense, ReminderNumber: 4, SentOn: sentOn}))

	sent, err = log.HasSent(ctx, "42", reminder.ServiceDSC, 3)
	require.NoError(t, err)
	assert.True(t, sent)

	maxSent, err = log.MaxSentOrdinal(ctx, "42", reminder.ServiceDSC)
	require.NoError(t, err)
	assert.Equal(t, 3, maxSent)

	history, err := log.History(ctx, "42", reminder.ServiceDSC)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].ReminderNumber)
	assert.Equal(t, 3, history[1].ReminderNumber)
}

func TestRunLog_DuplicateIsRejected(t *testing.T) {
	ctx := context.Background()
	log := NewRunLog()
	rec := &reminder.RunRecord{RecordID: "9", ServiceType: reminder.ServiceVehicleInsurance, ReminderNumber: 2}

	require.NoError(t, log.RecordSent(ctx, rec))
	err := log.RecordSent(ctx, &reminder.RunRecord{RecordID: "9", ServiceType: reminder.ServiceVehicleInsurance, ReminderNumber: 2})
	assert.True(t, errors.Is(err, reminder.ErrDuplicateRun))
	assert.Equal(t, 1, log.Len())
}

func TestRunLog_ConcurrentWritesKeepOneEntry(t *testing.T) {
	ctx := context.Background()
	log := NewRunLog()

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := log.RecordSent(ctx, &reminder.RunRecord{RecordID: "1", ServiceType: reminder.ServiceDSC, ReminderNumber: 1})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, log.Len())
}

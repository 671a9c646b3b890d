package app

import (
	"context"
	"database/sql"
	"io"
	"time"

	"renewal_reminders/internal/domain/notify"
	"renewal_reminders/internal/domain/reminder"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

var refDate = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

func day(offset int) time.Time { return refDate.AddDate(0, 0, offset) }

func intervalsConfig(st reminder.ServiceType, intervals ...int) *reminder.PolicyConfig {
	return &reminder.PolicyConfig{
		ServiceType:       st,
		ServiceName:       "Test " + string(st),
		ReminderIntervals: intervals,
		IsActive:          true,
	}
}

type fakePolicyRepo struct {
	configs []*reminder.PolicyConfig
	err     error
}

func (f *fakePolicyRepo) ListActive(context.Context) ([]*reminder.PolicyConfig, error) {
	return f.configs, f.err
}

func (f *fakePolicyRepo) GetActiveByService(_ context.Context, st reminder.ServiceType) (*reminder.PolicyConfig, error) {
	for _, c := range f.configs {
		if c.ServiceType == st && c.IsActive {
			return c, nil
		}
	}
	return nil, reminder.ErrPolicyNotFound
}

type fakeSource struct {
	records map[reminder.ServiceType][]*reminder.Record
	errs    map[reminder.ServiceType]error
	calls   map[reminder.ServiceType]int
	horizon map[reminder.ServiceType]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		records: make(map[reminder.ServiceType][]*reminder.Record),
		errs:    make(map[reminder.ServiceType]error),
		calls:   make(map[reminder.ServiceType]int),
		horizon: make(map[reminder.ServiceType]int),
	}
}

func (f *fakeSource) FetchCandidates(_ context.Context, st reminder.ServiceType, _ time.Time, horizonDays int) ([]*reminder.Record, error) {
	f.calls[st]++
	f.horizon[st] = horizonDays
	if err := f.errs[st]; err != nil {
		return nil, err
	}
	return f.records[st], nil
}

func (f *fakeSource) add(rec *reminder.Record) {
	f.records[rec.ServiceType] = append(f.records[rec.ServiceType], rec)
}

func expiringRecord(id string, st reminder.ServiceType, expiry time.Time) *reminder.Record {
	return &reminder.Record{
		ID:          id,
		ServiceType: st,
		ExpiryDate:  sql.NullTime{Time: expiry, Valid: true},
		Recipient:   reminder.Recipient{Name: "Asha Rao", Email: "asha@example.com", Phone: "+919800000001"},
		Fields:      map[string]string{reminder.FieldReference: "POL-" + id},
	}
}

type sentMessage struct {
	to  notify.Recipient
	msg notify.Message
}

type fakeSender struct {
	channel notify.Channel
	err     error
	sent    []sentMessage
	calls   int
}

func (f *fakeSender) Channel() notify.Channel { return f.channel }

func (f *fakeSender) Send(_ context.Context, to notify.Recipient, msg notify.Message) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{to: to, msg: msg})
	return nil
}

type recordingObserver struct {
	sent     map[notify.Channel]int
	failed   map[notify.Channel]int
	skipped  map[string]int
	config   []reminder.ServiceType
	finished int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		sent:    make(map[notify.Channel]int),
		failed:  make(map[notify.Channel]int),
		skipped: make(map[string]int),
	}
}

func (o *recordingObserver) ReminderSent(_ reminder.ServiceType, ch notify.Channel) { o.sent[ch]++ }
func (o *recordingObserver) SendFailed(_ reminder.ServiceType, ch notify.Channel)   { o.failed[ch]++ }
func (o *recordingObserver) RecordSkipped(_ reminder.ServiceType, reason string)    { o.skipped[reason]++ }
func (o *recordingObserver) ConfigError(st reminder.ServiceType)                    { o.config = append(o.config, st) }
func (o *recordingObserver) RunFinished(RunSummary, time.Duration)                  { o.finished++ }

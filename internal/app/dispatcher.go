package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"renewal_reminders/internal/domain/clock"
	"renewal_reminders/internal/domain/notify"
	"renewal_reminders/internal/domain/reminder"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Skip reasons reported to the RunObserver.
const (
	SkipNotYet           = string(reminder.OutcomeNotYet)
	SkipAlreadySent      = string(reminder.OutcomeAlreadySent)
	SkipExhausted        = string(reminder.OutcomeExhausted)
	SkipUnresolvedExpiry = "unresolved_expiry"
	SkipNoRecipient      = "no_recipient"
	SkipError            = "error"
)

// RunObserver receives run events, e.g. for metrics.
type RunObserver interface {
	ReminderSent(st reminder.ServiceType, ch notify.Channel)
	SendFailed(st reminder.ServiceType, ch notify.Channel)
	RecordSkipped(st reminder.ServiceType, reason string)
	ConfigError(st reminder.ServiceType)
	RunFinished(summary RunSummary, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ReminderSent(reminder.ServiceType, notify.Channel) {}
func (nopObserver) SendFailed(reminder.ServiceType, notify.Channel)   {}
func (nopObserver) RecordSkipped(reminder.ServiceType, string)        {}
func (nopObserver) ConfigError(reminder.ServiceType)                  {}
func (nopObserver) RunFinished(RunSummary, time.Duration)             {}

// RunSummary counts what happened to each candidate in one run.
type RunSummary struct {
	RunID         string
	ReferenceDate time.Time
	Policies      int
	Candidates    int
	Sent          int
	Failed        int // every channel failed, will retry next run
	AlreadySent   int
	NotYet        int
	Exhausted     int
	Unresolved    int
	NoRecipient   int
	Errors        int // run log or render errors
	SourceErrors  int // service types whose records could not be fetched
	ConfigErrors  []*reminder.ConfigurationError
	Interrupted   bool
}

// Format renders the summary for the operator chat.
func (s RunSummary) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reminder run %s for %s\n", s.RunID, s.ReferenceDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "Policies: %d, candidates: %d\n", s.Policies, s.Candidates)
	fmt.Fprintf(&b, "Sent: %d, failed: %d\n", s.Sent, s.Failed)
	fmt.Fprintf(&b, "Already sent: %d, not yet due: %d, exhausted: %d\n", s.AlreadySent, s.NotYet, s.Exhausted)
	if s.Unresolved > 0 || s.NoRecipient > 0 || s.Errors > 0 {
		fmt.Fprintf(&b, "Unresolved expiry: %d, no contact: %d, errors: %d\n", s.Unresolved, s.NoRecipient, s.Errors)
	}
	if s.SourceErrors > 0 {
		fmt.Fprintf(&b, "Service types not fetched: %d\n", s.SourceErrors)
	}
	for _, e := range s.ConfigErrors {
		fmt.Fprintf(&b, "Config error: %s\n", e.Error())
	}
	if s.Interrupted {
		b.WriteString("Run was interrupted before all records were processed\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Dispatcher runs the daily reminder batch. It holds no state between runs;
// everything it knows about past sends comes from the run log.
type Dispatcher struct {
	catalog     *PolicyCatalog
	registry    *Registry
	source      reminder.RecordSource
	runLog      reminder.RunLog
	senders     map[notify.Channel]notify.Sender
	clock       clock.Clock
	observer    RunObserver
	sendTimeout time.Duration
	logger      *logrus.Entry
}

type DispatcherOption func(*Dispatcher)

func WithObserver(o RunObserver) DispatcherOption {
	return func(d *Dispatcher) { d.observer = o }
}

func WithSendTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) { d.sendTimeout = timeout }
}

func NewDispatcher(
	catalog *PolicyCatalog,
	registry *Registry,
	source reminder.RecordSource,
	runLog reminder.RunLog,
	senders []notify.Sender,
	clk clock.Clock,
	logger *logrus.Entry,
	opts ...DispatcherOption,
) *Dispatcher {
	d := &Dispatcher{
		catalog:     catalog,
		registry:    registry,
		source:      source,
		runLog:      runLog,
		senders:     make(map[notify.Channel]notify.Sender, len(senders)),
		clock:       clk,
		observer:    nopObserver{},
		sendTimeout: 15 * time.Second,
		logger:      logger,
	}
	for _, s := range senders {
		d.senders[s.Channel()] = s
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RunToday runs the batch for the clock's current date.
func (d *Dispatcher) RunToday(ctx context.Context) (RunSummary, error) {
	return d.RunDailyReminders(ctx, clock.Today(d.clock))
}

// RunDailyReminders evaluates every candidate record of every active policy as
// of referenceDate and sends the reminders that are due. A failing record or
// service type never stops the others. An error is returned only when the
// policies cannot be loaded or ctx is cancelled mid-run.
func (d *Dispatcher) RunDailyReminders(ctx context.Context, referenceDate time.Time) (RunSummary, error) {
	started := d.clock.Now()
	summary := RunSummary{
		RunID:         uuid.NewString(),
		ReferenceDate: reminder.CalendarDate(referenceDate),
	}
	logger := d.logger.WithFields(logrus.Fields{
		"run_id":         summary.RunID,
		"reference_date": summary.ReferenceDate.Format("2006-01-02"),
	})
	logger.Info("Starting reminder run")

	loaded, err := d.catalog.LoadActive(ctx)
	if err != nil {
		logger.WithError(err).Error("Failed to load reminder policies")
		return summary, fmt.Errorf("failed to load reminder policies: %w", err)
	}
	summary.Policies = len(loaded.Policies)
	summary.ConfigErrors = loaded.Errors
	for _, cfgErr := range loaded.Errors {
		logger.WithField("service_type", cfgErr.ServiceType).WithError(cfgErr).
			Error("Skipping service type with invalid reminder policy")
		d.observer.ConfigError(cfgErr.ServiceType)
	}

	for _, p := range loaded.Policies {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}
		d.runPolicy(ctx, p, referenceDate, &summary, logger.WithField("service_type", p.ServiceType()))
	}

	elapsed := d.clock.Now().Sub(started)
	d.observer.RunFinished(summary, elapsed)
	logger.WithFields(logrus.Fields{
		"candidates": summary.Candidates,
		"sent":       summary.Sent,
		"failed":     summary.Failed,
		"elapsed":    elapsed.String(),
	}).Info("Reminder run finished")

	if summary.Interrupted {
		return summary, fmt.Errorf("reminder run %s interrupted: %w", summary.RunID, ctx.Err())
	}
	return summary, nil
}

func (d *Dispatcher) runPolicy(ctx context.Context, p reminder.Policy, ref time.Time, summary *RunSummary, logger *logrus.Entry) {
	st := p.ServiceType()
	bundle, err := d.registry.Lookup(st)
	if err != nil {
		summary.SourceErrors++
		logger.WithError(err).Error("No handlers for service type")
		return
	}

	records, err := d.source.FetchCandidates(ctx, st, ref, p.Horizon())
	if err != nil {
		summary.SourceErrors++
		logger.WithError(err).Error("Failed to fetch candidate records")
		return
	}
	logger.WithField("candidates", len(records)).Debug("Fetched candidate records")

	for _, rec := range records {
		if ctx.Err() != nil {
			summary.Interrupted = true
			return
		}
		summary.Candidates++
		reason := d.processRecord(ctx, p, bundle, rec, ref, summary, logger.WithField("record_id", rec.ID))
		if reason != "" {
			d.observer.RecordSkipped(st, reason)
		}
	}
}

// processRecord handles one candidate and returns the skip reason, or "" when
// a reminder went out or every channel failed.
func (d *Dispatcher) processRecord(
	ctx context.Context,
	p reminder.Policy,
	bundle ServiceBundle,
	rec *reminder.Record,
	ref time.Time,
	summary *RunSummary,
	logger *logrus.Entry,
) string {
	st := p.ServiceType()

	expiry, err := reminder.ComputeExpiry(bundle.Expiry, rec, ref)
	if err != nil {
		summary.Unresolved++
		logger.WithError(err).Debug("Skipping record without a resolvable expiry")
		return SkipUnresolvedExpiry
	}

	maxSent, err := d.runLog.MaxSentOrdinal(ctx, rec.ID, st)
	if err != nil {
		summary.Errors++
		logger.WithError(err).Error("Failed to read reminder history")
		return SkipError
	}

	decision := reminder.Decide(p, expiry.DaysUntil, maxSent)
	switch decision.Outcome {
	case reminder.OutcomeNotYet:
		summary.NotYet++
		return SkipNotYet
	case reminder.OutcomeAlreadySent:
		summary.AlreadySent++
		return SkipAlreadySent
	case reminder.OutcomeExhausted:
		summary.Exhausted++
		return SkipExhausted
	}

	tier := decision.Tier
	logger = logger.WithFields(logrus.Fields{"tier": tier, "days_until": expiry.DaysUntil})

	// Another run may have logged this tier since MaxSentOrdinal was read.
	sent, err := d.runLog.HasSent(ctx, rec.ID, st, tier)
	if err != nil {
		summary.Errors++
		logger.WithError(err).Error("Failed to check reminder history")
		return SkipError
	}
	if sent {
		summary.AlreadySent++
		return SkipAlreadySent
	}

	msg, err := bundle.Renderer.Render(newMessageData(p, rec, expiry, tier))
	if err != nil {
		summary.Errors++
		logger.WithError(err).Error("Failed to render reminder")
		return SkipError
	}

	delivered, attempted := d.deliver(ctx, st, bundle.Recipients(rec), msg, logger)
	if attempted == 0 {
		summary.NoRecipient++
		logger.Warn("Record has no contact on any configured channel")
		return SkipNoRecipient
	}
	if len(delivered) == 0 {
		summary.Failed++
		logger.Warn("Reminder not delivered on any channel, will retry next run")
		return ""
	}
	summary.Sent++

	err = d.runLog.RecordSent(ctx, &reminder.RunRecord{
		RunID:          summary.RunID,
		RecordID:       rec.ID,
		ServiceType:    st,
		ReminderNumber: tier,
		SentOn:         reminder.CalendarDate(ref),
		Channels:       delivered,
	})
	switch {
	case errors.Is(err, reminder.ErrDuplicateRun):
		logger.Warn("Reminder was already recorded by an overlapping run")
	case err != nil:
		summary.Errors++
		logger.WithError(err).Error("Reminder sent but not recorded; it may be sent again next run")
	default:
		logger.WithField("channels", delivered).Info("Reminder sent")
	}
	return ""
}

// deliver sends msg to every addressee whose channel has a sender. It returns
// the channels that succeeded and how many sends were attempted.
func (d *Dispatcher) deliver(
	ctx context.Context,
	st reminder.ServiceType,
	to []Addressee,
	msg notify.Message,
	logger *logrus.Entry,
) ([]string, int) {
	var delivered []string
	attempted := 0
	for _, a := range to {
		sender, ok := d.senders[a.Channel]
		if !ok {
			continue
		}
		attempted++

		sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
		err := sender.Send(sendCtx, a.Recipient, msg)
		cancel()
		if err != nil {
			err = &notify.SendError{Channel: a.Channel, Err: err}
			entry := logger.WithField("channel", a.Channel).WithError(err)
			if errors.Is(err, notify.ErrInvalidRecipient) {
				entry.Warn("Channel rejected the record's contact details")
			} else {
				entry.Warn("Reminder send failed")
			}
			d.observer.SendFailed(st, a.Channel)
			continue
		}
		d.observer.ReminderSent(st, a.Channel)
		delivered = append(delivered, string(a.Channel))
	}
	return delivered, attempted
}

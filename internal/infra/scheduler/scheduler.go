package scheduler

import (
	"context"
	"fmt"
	"time"

	"renewal_reminders/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ReminderRunner is the part of the dispatcher the scheduler drives.
type ReminderRunner interface {
	RunToday(ctx context.Context) (app.RunSummary, error)
}

// SummaryNotifier receives the summary of every scheduled run.
type SummaryNotifier interface {
	NotifyRunSummary(ctx context.Context, summary app.RunSummary) error
}

type ReminderScheduler struct {
	cronEngine *cron.Cron
	runner     ReminderRunner
	notifier   SummaryNotifier
	logger     *logrus.Entry
	cronSpec   string
	runTimeout time.Duration
}

// NewReminderScheduler runs the reminder batch on cronSpec in loc. A run that
// is still going when the next one is due makes the next one skip.
// notifier may be nil.
func NewReminderScheduler(
	runner ReminderRunner,
	notifier SummaryNotifier,
	logger *logrus.Entry,
	cronSpec string, // e.g., "0 9 * * *" (9 AM daily)
	loc *time.Location,
	runTimeout time.Duration,
) *ReminderScheduler {
	if loc == nil {
		loc = time.Local
	}
	return &ReminderScheduler{
		cronEngine: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger))),
		),
		runner:     runner,
		notifier:   notifier,
		logger:     logger,
		cronSpec:   cronSpec,
		runTimeout: runTimeout,
	}
}

func (s *ReminderScheduler) Start() error {
	s.logger.Info("Starting reminder scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Info("Cron job triggered for daily reminders.")
		s.RunOnce(context.Background())
	})
	if err != nil {
		return fmt.Errorf("could not add daily reminder cron job %q: %w", s.cronSpec, err)
	}

	s.cronEngine.Start()
	s.logger.WithField("cron_spec", s.cronSpec).Info("Reminder scheduler started.")
	return nil
}

// RunOnce performs one scheduled run and reports its summary.
func (s *ReminderScheduler) RunOnce(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, s.runTimeout)
	defer cancel()

	summary, err := s.runner.RunToday(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Error during daily reminder run")
	}
	if summary.RunID == "" || s.notifier == nil {
		return
	}

	notifyCtx, notifyCancel := context.WithTimeout(parent, 30*time.Second)
	defer notifyCancel()
	if err := s.notifier.NotifyRunSummary(notifyCtx, summary); err != nil {
		s.logger.WithError(err).Warn("Failed to deliver run summary")
	}
}

func (s *ReminderScheduler) Stop() {
	s.logger.Info("Stopping reminder scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Reminder scheduler gracefully stopped.")
}

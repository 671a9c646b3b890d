package app

import (
	"context"
	"fmt"
	"time"

	"renewal_reminders/internal/domain/reminder"
)

// Custom application-level errors for admin service
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")

// AdminService backs the operator commands of the Telegram bot.
type AdminService struct {
	catalog         *PolicyCatalog
	registry        *Registry
	dispatcher      *Dispatcher
	runLog          reminder.RunLog
	adminTelegramID int64
}

func NewAdminService(catalog *PolicyCatalog, registry *Registry, dispatcher *Dispatcher, runLog reminder.RunLog, adminID int64) *AdminService {
	return &AdminService{
		catalog:         catalog,
		registry:        registry,
		dispatcher:      dispatcher,
		runLog:          runLog,
		adminTelegramID: adminID,
	}
}

// ListPolicies returns the active policies and the ones rejected as misconfigured.
func (s *AdminService) ListPolicies(ctx context.Context, performingAdminID int64) (LoadedPolicies, error) {
	if performingAdminID != s.adminTelegramID {
		return LoadedPolicies{}, ErrAdminNotAuthorized
	}
	return s.catalog.LoadActive(ctx)
}

// RunReminders starts a manual run. A zero referenceDate means today.
func (s *AdminService) RunReminders(ctx context.Context, performingAdminID int64, referenceDate time.Time) (RunSummary, error) {
	if performingAdminID != s.adminTelegramID {
		return RunSummary{}, ErrAdminNotAuthorized
	}
	if referenceDate.IsZero() {
		return s.dispatcher.RunToday(ctx)
	}
	return s.dispatcher.RunDailyReminders(ctx, referenceDate)
}

// History lists the reminders sent for one record, lowest tier first.
func (s *AdminService) History(ctx context.Context, performingAdminID int64, st reminder.ServiceType, recordID string) ([]*reminder.RunRecord, error) {
	if performingAdminID != s.adminTelegramID {
		return nil, ErrAdminNotAuthorized
	}
	if _, err := s.registry.Lookup(st); err != nil {
		return nil, err
	}
	records, err := s.runLog.History(ctx, recordID, st)
	if err != nil {
		return nil, fmt.Errorf("failed to load reminder history for %s/%s: %w", st, recordID, err)
	}
	return records, nil
}

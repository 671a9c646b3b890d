package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"renewal_reminders/internal/app"
	"renewal_reminders/internal/domain/reminder"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const unauthorizedReply = "Error: you are not allowed to run this command."

// RegisterAdminHandlers registers handlers for operator commands.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, adminService *app.AdminService, adminTelegramID int64, baseLogger *logrus.Entry) {
	b.Handle("/policies", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/policies",
			"sender_id": c.Sender().ID,
		})
		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedReply)
		}

		loaded, err := adminService.ListPolicies(ctx, c.Sender().ID)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to load policies")
			return c.Send(fmt.Sprintf("Could not load policies: %s", err.Error()))
		}
		handlerLogger.WithField("policies_count", len(loaded.Policies)).Info("Listed policies")
		return c.Send(formatPolicies(loaded))
	})

	b.Handle("/run_reminders", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/run_reminders",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")
		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedReply)
		}

		referenceDate, err := parseRunDate(c.Args())
		if err != nil {
			return c.Send("Invalid format. Use: /run_reminders [YYYY-MM-DD]")
		}

		if err := c.Send("Reminder run started..."); err != nil {
			handlerLogger.WithError(err).Warn("Failed to acknowledge command")
		}
		summary, err := adminService.RunReminders(ctx, c.Sender().ID, referenceDate)
		if err != nil {
			handlerLogger.WithError(err).Error("Manual reminder run failed")
			if summary.RunID == "" {
				return c.Send(fmt.Sprintf("Reminder run failed: %s", err.Error()))
			}
		}
		return c.Send(summary.Format())
	})

	b.Handle("/history", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/history",
			"sender_id": c.Sender().ID,
		})
		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(unauthorizedReply)
		}

		args := c.Args()
		if len(args) != 2 {
			return c.Send("Invalid format. Use: /history <service_type> <record_id>")
		}
		st := reminder.ServiceType(strings.ToLower(args[0]))
		recordID := args[1]
		handlerLogger = handlerLogger.WithFields(logrus.Fields{"service_type": st, "record_id": recordID})

		history, err := adminService.History(ctx, c.Sender().ID, st, recordID)
		if err != nil {
			if errors.Is(err, reminder.ErrUnknownServiceType) {
				return c.Send(fmt.Sprintf("Unknown service type %q.", st))
			}
			handlerLogger.WithError(err).Error("Failed to load reminder history")
			return c.Send(fmt.Sprintf("Could not load history: %s", err.Error()))
		}
		return c.Send(formatHistory(st, recordID, history))
	})
}

// parseRunDate reads the optional date argument of /run_reminders.
// No argument yields the zero time, meaning today.
func parseRunDate(args []string) (time.Time, error) {
	switch len(args) {
	case 0:
		return time.Time{}, nil
	case 1:
		return time.Parse("2006-01-02", args[0])
	default:
		return time.Time{}, fmt.Errorf("expected at most one argument, got %d", len(args))
	}
}

func formatPolicies(loaded app.LoadedPolicies) string {
	if len(loaded.Policies) == 0 && len(loaded.Errors) == 0 {
		return "No active reminder policies."
	}

	var response strings.Builder
	response.WriteString("--- Active reminder policies ---\n")
	for _, p := range loaded.Policies {
		if p.UsesLegacy() {
			response.WriteString(fmt.Sprintf("%s (%s): legacy, first reminder %d days before expiry, %d reminders\n",
				p.ServiceName(), p.ServiceType(), p.ReminderDays(), p.MaxTier()))
			continue
		}
		response.WriteString(fmt.Sprintf("%s (%s): days before expiry %v\n", p.ServiceName(), p.ServiceType(), p.Intervals()))
	}
	for _, e := range loaded.Errors {
		response.WriteString(fmt.Sprintf("SKIPPED %s: %s\n", e.ServiceType, e.Reason))
	}
	return strings.TrimRight(response.String(), "\n")
}

func formatHistory(st reminder.ServiceType, recordID string, history []*reminder.RunRecord) string {
	if len(history) == 0 {
		return fmt.Sprintf("No reminders sent yet for %s %s.", st, recordID)
	}
	var response strings.Builder
	response.WriteString(fmt.Sprintf("--- Reminders for %s %s ---\n", st, recordID))
	for _, h := range history {
		response.WriteString(fmt.Sprintf("#%d on %s via %s\n", h.ReminderNumber, h.SentOn.Format("2006-01-02"), strings.Join(h.Channels, ", ")))
	}
	return strings.TrimRight(response.String(), "\n")
}

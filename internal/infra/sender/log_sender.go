package sender

import (
	"context"

	"renewal_reminders/internal/domain/notify"

	"github.com/sirupsen/logrus"
)

// LogSender writes messages to the log instead of delivering them. Used in dry-run mode.
type LogSender struct {
	channel notify.Channel
	logger  *logrus.Entry
}

func NewLogSender(channel notify.Channel, logger *logrus.Entry) *LogSender {
	return &LogSender{channel: channel, logger: logger}
}

func (s *LogSender) Channel() notify.Channel { return s.channel }

func (s *LogSender) Send(_ context.Context, to notify.Recipient, msg notify.Message) error {
	s.logger.WithFields(logrus.Fields{
		"channel": s.channel,
		"to":      to.Address,
		"subject": msg.Subject,
	}).Info("Dry run: reminder not delivered")
	s.logger.Debug(msg.Body)
	return nil
}

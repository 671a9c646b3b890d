package sender

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"renewal_reminders/internal/domain/notify"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds the SMTP relay settings for reminder email.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EmailSender delivers reminders over SMTP.
type EmailSender struct {
	client *mail.Client
	from   string
}

func NewEmailSender(cfg SMTPConfig) (*EmailSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client for %s: %w", cfg.Host, err)
	}
	return &EmailSender{client: client, from: cfg.From}, nil
}

func (s *EmailSender) Channel() notify.Channel { return notify.ChannelEmail }

func (s *EmailSender) Send(ctx context.Context, to notify.Recipient, msg notify.Message) error {
	m, err := s.buildMessage(to, msg)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		if recipientRefused(err) {
			return fmt.Errorf("smtp server refused %s: %w: %w", to.Address, notify.ErrInvalidRecipient, err)
		}
		return fmt.Errorf("smtp delivery to %s: %w", to.Address, err)
	}
	return nil
}

// recipientRefused reports a permanent RCPT TO rejection, e.g. an unknown mailbox.
func recipientRefused(err error) bool {
	var sendErr *mail.SendError
	return errors.As(err, &sendErr) && sendErr.Reason == mail.ErrSMTPRcptTo && !sendErr.IsTemp()
}

func (s *EmailSender) buildMessage(to notify.Recipient, msg notify.Message) (*mail.Msg, error) {
	if strings.TrimSpace(to.Address) == "" {
		return nil, fmt.Errorf("empty email address: %w", notify.ErrInvalidRecipient)
	}
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", s.from, err)
	}
	if to.Name != "" {
		if err := m.AddToFormat(to.Name, to.Address); err != nil {
			return nil, fmt.Errorf("invalid recipient address %q: %w: %w", to.Address, notify.ErrInvalidRecipient, err)
		}
	} else if err := m.To(to.Address); err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w: %w", to.Address, notify.ErrInvalidRecipient, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}

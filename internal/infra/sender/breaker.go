package sender

import (
	"context"
	"errors"
	"time"

	"renewal_reminders/internal/domain/notify"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// BreakerSender stops calling a channel after consecutive failures until
// openFor has passed, so a dead gateway fails the rest of a batch fast.
// Records that fail this way are retried on the next run. Rejections of a
// single recipient (notify.ErrInvalidRecipient) never count toward opening it.
type BreakerSender struct {
	next notify.Sender
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerSender(next notify.Sender, failures uint32, openFor time.Duration, logger *logrus.Entry) *BreakerSender {
	if failures == 0 {
		failures = 1
	}
	settings := gobreaker.Settings{
		Name:    string(next.Channel()),
		Timeout: openFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, notify.ErrInvalidRecipient)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"channel": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Sender circuit breaker changed state")
		},
	}
	return &BreakerSender{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *BreakerSender) Channel() notify.Channel { return b.next.Channel() }

func (b *BreakerSender) Send(ctx context.Context, to notify.Recipient, msg notify.Message) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Send(ctx, to, msg)
	})
	return err
}

// State exposes the breaker state for logging and tests.
func (b *BreakerSender) State() gobreaker.State { return b.cb.State() }

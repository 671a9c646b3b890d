package sender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"renewal_reminders/internal/domain/notify"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakySender struct {
	err   error
	calls int
}

func (f *flakySender) Channel() notify.Channel { return notify.ChannelEmail }

func (f *flakySender) Send(context.Context, notify.Recipient, notify.Message) error {
	f.calls++
	return f.err
}

func TestBreakerSender_OpensAfterConsecutiveFailures(t *testing.T) {
	next := &flakySender{err: errors.New("connection refused")}
	b := NewBreakerSender(next, 2, time.Minute, testLogger())
	ctx := context.Background()

	assert.Error(t, b.Send(ctx, notify.Recipient{}, notify.Message{}))
	assert.Error(t, b.Send(ctx, notify.Recipient{}, notify.Message{}))
	assert.Equal(t, gobreaker.StateOpen, b.State())

	err := b.Send(ctx, notify.Recipient{}, notify.Message{})
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, next.calls)
}

func TestBreakerSender_IgnoresRecipientRejections(t *testing.T) {
	next := &flakySender{err: fmt.Errorf("mailbox unknown: %w", notify.ErrInvalidRecipient)}
	b := NewBreakerSender(next, 2, time.Minute, testLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := b.Send(ctx, notify.Recipient{}, notify.Message{})
		require.ErrorIs(t, err, notify.ErrInvalidRecipient)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Equal(t, 5, next.calls)
}

func TestBreakerSender_BadNumbersDoNotBlockValidRecipients(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload waMessage
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload.To != "919800000001" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":131026,"message":"Message undeliverable"}}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b := NewBreakerSender(newTestWhatsApp(srv.URL), 5, time.Minute, testLogger())
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		err := b.Send(ctx, notify.Recipient{Address: fmt.Sprintf("00%d", i)}, notify.Message{Body: "hi"})
		require.ErrorIs(t, err, notify.ErrInvalidRecipient)
	}

	require.NoError(t, b.Send(ctx, notify.Recipient{Address: "+919800000001"}, notify.Message{Body: "hi"}))
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerSender_PassesThroughSuccess(t *testing.T) {
	next := &flakySender{}
	b := NewBreakerSender(next, 3, time.Minute, testLogger())

	require.NoError(t, b.Send(context.Background(), notify.Recipient{}, notify.Message{}))
	assert.Equal(t, notify.ChannelEmail, b.Channel())
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestEmailSender_BuildMessage(t *testing.T) {
	s, err := NewEmailSender(SMTPConfig{Host: "smtp.example.com", Port: 587, From: "reminders@example.com"})
	require.NoError(t, err)
	assert.Equal(t, notify.ChannelEmail, s.Channel())

	_, err = s.buildMessage(notify.Recipient{Name: "Asha", Address: "asha@example.com"},
		notify.Message{Subject: "Renewal", Body: "Body"})
	require.NoError(t, err)

	_, err = s.buildMessage(notify.Recipient{Address: "not an address"}, notify.Message{})
	assert.ErrorIs(t, err, notify.ErrInvalidRecipient)

	_, err = s.buildMessage(notify.Recipient{Name: "Asha"}, notify.Message{})
	assert.ErrorIs(t, err, notify.ErrInvalidRecipient)
}

func TestEmailSender_InvalidSenderIsNotRecipientError(t *testing.T) {
	s, err := NewEmailSender(SMTPConfig{Host: "smtp.example.com", Port: 587, From: "not an address"})
	require.NoError(t, err)

	_, err = s.buildMessage(notify.Recipient{Address: "asha@example.com"}, notify.Message{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, notify.ErrInvalidRecipient)
}

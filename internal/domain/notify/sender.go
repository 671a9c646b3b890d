package notify

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidRecipient marks a send the channel refused for this recipient or
// message alone. Resending it unchanged fails again, and it says nothing about
// the health of the channel itself.
var ErrInvalidRecipient = errors.New("recipient rejected by channel")

// Channel is a delivery channel for reminders.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
)

// Channels lists every channel in delivery order.
var Channels = []Channel{ChannelEmail, ChannelWhatsApp}

// Recipient is a single addressee on one channel. Address is an email
// address or an E.164 phone number depending on the channel.
type Recipient struct {
	Name    string
	Address string
}

// Message is rendered reminder content. Params are the values for channels
// that only deliver pre-approved templates, in placeholder order.
type Message struct {
	Subject string
	Body    string
	Params  []string
}

// Sender delivers a rendered message over one channel.
// This keeps the reminder engine independent of the transport libraries.
type Sender interface {
	Channel() Channel
	Send(ctx context.Context, to Recipient, msg Message) error
}

// SendError wraps a delivery failure with the channel it happened on.
type SendError struct {
	Channel Channel
	Err     error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send via %s failed: %v", e.Channel, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"time"

	"renewal_reminders/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// MessageSender sends a text message to a Telegram chat.
type MessageSender interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
}

// TelebotAdapter implements MessageSender using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

func (tba *TelebotAdapter) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}
	_, err := tba.bot.Send(&telebot.User{ID: recipientChatID}, text, options)
	return err
}

// NewBot creates a long-polling bot that logs handler errors through logger.
func NewBot(token string, logger *logrus.Entry) (*telebot.Bot, error) {
	return telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := logger.WithError(err)
			if c != nil && c.Sender() != nil {
				entry = entry.WithFields(logrus.Fields{"sender_id": c.Sender().ID, "text": c.Text()})
			}
			entry.Error("Telegram handler failed")
		},
	})
}

// AdminNotifier posts run summaries to the admin chat.
type AdminNotifier struct {
	client  MessageSender
	adminID int64
}

func NewAdminNotifier(client MessageSender, adminID int64) *AdminNotifier {
	return &AdminNotifier{client: client, adminID: adminID}
}

func (n *AdminNotifier) NotifyRunSummary(ctx context.Context, summary app.RunSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.client.SendMessage(n.adminID, summary.Format(), nil)
}

package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"renewal_reminders/internal/domain/notify"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

const (
	defaultGraphURL         = "https://graph.facebook.com/v19.0"
	defaultTemplateLanguage = "en"
)

// WhatsAppConfig holds WhatsApp Cloud API settings.
type WhatsAppConfig struct {
	BaseURL       string // defaults to the Graph API
	PhoneNumberID string
	AccessToken   string
	MaxRetries    uint64
	RetryInterval time.Duration // first backoff interval

	// TemplateName is the pre-approved message template reminders are sent
	// with. Empty sends free-form text, which the API only accepts inside an
	// open customer session.
	TemplateName     string
	TemplateLanguage string
}

// WhatsAppSender posts reminders to the WhatsApp Cloud API.
// Transport errors and 5xx/429 responses are retried; other 4xx are not.
type WhatsAppSender struct {
	cfg    WhatsAppConfig
	client *http.Client
	logger *logrus.Entry
}

func NewWhatsAppSender(cfg WhatsAppConfig, client *http.Client, logger *logrus.Entry) *WhatsAppSender {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGraphURL
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 500 * time.Millisecond
	}
	if cfg.TemplateLanguage == "" {
		cfg.TemplateLanguage = defaultTemplateLanguage
	}
	if client == nil {
		client = &http.Client{}
	}
	return &WhatsAppSender{cfg: cfg, client: client, logger: logger}
}

func (s *WhatsAppSender) Channel() notify.Channel { return notify.ChannelWhatsApp }

type waMessage struct {
	MessagingProduct string      `json:"messaging_product"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             *waText     `json:"text,omitempty"`
	Template         *waTemplate `json:"template,omitempty"`
}

type waText struct {
	Body string `json:"body"`
}

type waTemplate struct {
	Name       string        `json:"name"`
	Language   waLanguage    `json:"language"`
	Components []waComponent `json:"components,omitempty"`
}

type waLanguage struct {
	Code string `json:"code"`
}

type waComponent struct {
	Type       string        `json:"type"`
	Parameters []waParameter `json:"parameters"`
}

type waParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (s *WhatsAppSender) buildPayload(to notify.Recipient, msg notify.Message) waMessage {
	payload := waMessage{
		MessagingProduct: "whatsapp",
		To:               strings.TrimPrefix(strings.TrimSpace(to.Address), "+"),
	}

	if s.cfg.TemplateName == "" {
		body := msg.Body
		if msg.Subject != "" {
			body = "*" + msg.Subject + "*\n\n" + msg.Body
		}
		payload.Type = "text"
		payload.Text = &waText{Body: body}
		return payload
	}

	payload.Type = "template"
	payload.Template = &waTemplate{
		Name:     s.cfg.TemplateName,
		Language: waLanguage{Code: s.cfg.TemplateLanguage},
	}
	if len(msg.Params) > 0 {
		params := make([]waParameter, 0, len(msg.Params))
		for _, p := range msg.Params {
			params = append(params, waParameter{Type: "text", Text: p})
		}
		payload.Template.Components = []waComponent{{Type: "body", Parameters: params}}
	}
	return payload
}

func (s *WhatsAppSender) Send(ctx context.Context, to notify.Recipient, msg notify.Message) error {
	if strings.TrimSpace(to.Address) == "" {
		return fmt.Errorf("empty whatsapp number: %w", notify.ErrInvalidRecipient)
	}

	body, err := json.Marshal(s.buildPayload(to, msg))
	if err != nil {
		return fmt.Errorf("failed to encode whatsapp message: %w", err)
	}
	url := fmt.Sprintf("%s/%s/messages", strings.TrimRight(s.cfg.BaseURL, "/"), s.cfg.PhoneNumberID)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.cfg.RetryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, s.cfg.MaxRetries), ctx)

	return backoff.RetryNotify(func() error {
		return s.post(ctx, url, body)
	}, policy, func(err error, wait time.Duration) {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"to":       to.Address,
			"retry_in": wait.String(),
		}).Warn("WhatsApp send failed, retrying")
	})
}

func (s *WhatsAppSender) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to build whatsapp request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.AccessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	statusErr := fmt.Errorf("whatsapp api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return statusErr
	case rejectsRecipient(resp.StatusCode):
		return backoff.Permanent(fmt.Errorf("%w: %w", notify.ErrInvalidRecipient, statusErr))
	default:
		// 401/403 and the like: the gateway credentials are broken for every recipient.
		return backoff.Permanent(statusErr)
	}
}

// rejectsRecipient reports whether a status refers to the single message
// (bad number, unknown template parameters) rather than the account.
func rejectsRecipient(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

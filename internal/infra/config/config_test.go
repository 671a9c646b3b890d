package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/reminders?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "0 9 * * *", cfg.CronSpecDaily)
	assert.Equal(t, "Asia/Kolkata", cfg.Location.String())
	assert.Equal(t, 60, cfg.LookAheadDays)
	assert.Equal(t, 30, cfg.OverdueGraceDays)
	assert.Equal(t, 15*time.Second, cfg.SendTimeout)
	assert.Equal(t, 30*time.Minute, cfg.RunTimeout)
	assert.True(t, cfg.MigrationsEnabled)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, uint32(5), cfg.BreakerFailures)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, "renewal_reminder", cfg.WhatsAppTemplate)
	assert.Equal(t, "en", cfg.WhatsAppTemplateLang)
	assert.False(t, cfg.EmailEnabled())
	assert.False(t, cfg.WhatsAppEnabled())
	assert.False(t, cfg.BotEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/reminders")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("LOOKAHEAD_DAYS", "45")
	t.Setenv("SEND_TIMEOUT", "5s")
	t.Setenv("DRY_RUN", "true")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_FROM", "reminders@example.com")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "1001")
	t.Setenv("WHATSAPP_ACCESS_TOKEN", "token")
	t.Setenv("WHATSAPP_TEMPLATE_NAME", "policy_expiry_v2")
	t.Setenv("WHATSAPP_TEMPLATE_LANGUAGE", "en_IN")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("ADMIN_TELEGRAM_ID", "4242")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, 45, cfg.LookAheadDays)
	assert.Equal(t, 5*time.Second, cfg.SendTimeout)
	assert.True(t, cfg.DryRun)
	assert.True(t, cfg.EmailEnabled())
	assert.True(t, cfg.WhatsAppEnabled())
	assert.Equal(t, "policy_expiry_v2", cfg.WhatsAppTemplate)
	assert.Equal(t, "en_IN", cfg.WhatsAppTemplateLang)
	assert.True(t, cfg.BotEnabled())
	assert.Equal(t, int64(4242), cfg.AdminTelegramID)
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]map[string]string{
		"missing database url": {"DATABASE_URL": ""},
		"bad timezone":         {"TIMEZONE": "Mars/Olympus"},
		"bad lookahead":        {"LOOKAHEAD_DAYS": "soon"},
		"zero lookahead":       {"LOOKAHEAD_DAYS": "0"},
		"bad timeout":          {"SEND_TIMEOUT": "-1s"},
		"bad dry run":          {"DRY_RUN": "maybe"},
		"smtp without from":    {"SMTP_HOST": "smtp.example.com", "SMTP_FROM": ""},
		"bot without admin":    {"TELEGRAM_TOKEN": "123:abc", "ADMIN_TELEGRAM_ID": ""},
		"bad admin id":         {"TELEGRAM_TOKEN": "123:abc", "ADMIN_TELEGRAM_ID": "admin"},
		"zero breaker":         {"BREAKER_FAILURES": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://db/reminders")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

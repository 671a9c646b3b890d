package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL       string
	LogLevel          string
	Environment       string
	CronSpecDaily     string // when the daily reminder run fires
	Location          *time.Location
	LookAheadDays     int
	OverdueGraceDays  int
	SendTimeout       time.Duration
	RunTimeout        time.Duration
	MigrationsEnabled bool
	DryRun            bool

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	WhatsAppBaseURL       string
	WhatsAppPhoneNumberID string
	WhatsAppAccessToken   string
	WhatsAppMaxRetries    uint64
	WhatsAppTemplate      string // approved template reminders are sent with
	WhatsAppTemplateLang  string

	BreakerFailures uint32
	BreakerOpenFor  time.Duration

	// Operator bot, disabled when TelegramToken is empty.
	TelegramToken   string
	AdminTelegramID int64

	MetricsAddr string // empty disables the metrics server
}

// EmailEnabled reports whether SMTP delivery is configured.
func (c *AppConfig) EmailEnabled() bool { return c.SMTPHost != "" }

// WhatsAppEnabled reports whether WhatsApp delivery is configured.
func (c *AppConfig) WhatsAppEnabled() bool {
	return c.WhatsAppPhoneNumberID != "" && c.WhatsAppAccessToken != ""
}

// BotEnabled reports whether the operator bot should run.
func (c *AppConfig) BotEnabled() bool { return c.TelegramToken != "" }

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getEnv("ENVIRONMENT", "development"))
	cfg.CronSpecDaily = getEnv("CRON_SPEC_DAILY", "0 9 * * *") // Default: 9 AM daily

	tz := getEnv("TIMEZONE", "Asia/Kolkata")
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	if cfg.LookAheadDays, err = getInt("LOOKAHEAD_DAYS", 60); err != nil {
		return nil, err
	}
	if cfg.OverdueGraceDays, err = getInt("OVERDUE_GRACE_DAYS", 30); err != nil {
		return nil, err
	}
	if cfg.LookAheadDays <= 0 || cfg.OverdueGraceDays < 0 {
		return nil, fmt.Errorf("LOOKAHEAD_DAYS must be positive and OVERDUE_GRACE_DAYS not negative")
	}
	if cfg.SendTimeout, err = getDuration("SEND_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.RunTimeout, err = getDuration("RUN_TIMEOUT", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.MigrationsEnabled, err = getBool("MIGRATIONS_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.DryRun, err = getBool("DRY_RUN", false); err != nil {
		return nil, err
	}

	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	if cfg.SMTPPort, err = getInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.SMTPFrom = os.Getenv("SMTP_FROM")
	if cfg.SMTPHost != "" && cfg.SMTPFrom == "" {
		return nil, fmt.Errorf("SMTP_FROM is not set")
	}

	cfg.WhatsAppBaseURL = os.Getenv("WHATSAPP_API_URL")
	cfg.WhatsAppPhoneNumberID = os.Getenv("WHATSAPP_PHONE_NUMBER_ID")
	cfg.WhatsAppAccessToken = os.Getenv("WHATSAPP_ACCESS_TOKEN")
	retries, err := getInt("WHATSAPP_MAX_RETRIES", 3)
	if err != nil {
		return nil, err
	}
	if retries < 0 {
		return nil, fmt.Errorf("WHATSAPP_MAX_RETRIES must not be negative")
	}
	cfg.WhatsAppMaxRetries = uint64(retries)
	cfg.WhatsAppTemplate = getEnv("WHATSAPP_TEMPLATE_NAME", "renewal_reminder")
	cfg.WhatsAppTemplateLang = getEnv("WHATSAPP_TEMPLATE_LANGUAGE", "en")

	failures, err := getInt("BREAKER_FAILURES", 5)
	if err != nil {
		return nil, err
	}
	if failures <= 0 {
		return nil, fmt.Errorf("BREAKER_FAILURES must be positive")
	}
	cfg.BreakerFailures = uint32(failures)
	if cfg.BreakerOpenFor, err = getDuration("BREAKER_OPEN_FOR", time.Minute); err != nil {
		return nil, err
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken != "" {
		adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID")
		if adminIDStr == "" {
			return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set")
		}
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	cfg.MetricsAddr = getEnv("METRICS_ADDR", ":9090")

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

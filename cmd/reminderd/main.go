package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"renewal_reminders/internal/app"
	"renewal_reminders/internal/domain/clock"
	"renewal_reminders/internal/domain/notify"
	"renewal_reminders/internal/domain/reminder"
	"renewal_reminders/internal/infra/config"
	idb "renewal_reminders/internal/infra/database"
	"renewal_reminders/internal/infra/logger"
	"renewal_reminders/internal/infra/memory"
	"renewal_reminders/internal/infra/metrics"
	"renewal_reminders/internal/infra/scheduler"
	"renewal_reminders/internal/infra/sender"
	"renewal_reminders/internal/infra/telegram"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"timezone":    cfg.Location.String(),
		"dry_run":     cfg.DryRun,
	}).Info("Configuration loaded")

	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL, logger.Component("database"))
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()

	if cfg.MigrationsEnabled {
		if err := idb.MigrateUp(cfg.DatabaseURL); err != nil {
			mainLogger.WithError(err).Fatal("Could not apply database migrations")
		}
		mainLogger.Info("Database migrations applied")
	}

	registry, err := app.DefaultRegistry()
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not build service registry")
	}
	catalog := app.NewPolicyCatalog(idb.NewPostgresPolicyRepository(db), registry)
	source := idb.NewPostgresRecordSource(db, cfg.LookAheadDays, cfg.OverdueGraceDays)

	var runLog reminder.RunLog = idb.NewPostgresRunLogRepository(db)
	if cfg.DryRun {
		runLog = memory.NewRunLog()
	}

	senders, err := buildSenders(cfg, logger.Component("sender"))
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not configure senders")
	}
	if len(senders) == 0 {
		mainLogger.Warn("No delivery channel is configured; every due reminder will be counted as unreachable")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(reg)

	dispatcher := app.NewDispatcher(
		catalog, registry, source, runLog, senders,
		clock.System{Location: cfg.Location},
		logger.Component("dispatcher"),
		app.WithObserver(recorder),
		app.WithSendTimeout(cfg.SendTimeout),
	)

	var notifier scheduler.SummaryNotifier
	group, gctx := errgroup.WithContext(ctx)

	if cfg.BotEnabled() {
		botLogger := logger.Component("telegram")
		bot, err := telegram.NewBot(cfg.TelegramToken, botLogger)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not create Telegram bot")
		}
		adminService := app.NewAdminService(catalog, registry, dispatcher, runLog, cfg.AdminTelegramID)
		telegram.RegisterBotCommands(bot, cfg.AdminTelegramID, botLogger)
		telegram.RegisterAdminHandlers(gctx, bot, adminService, cfg.AdminTelegramID, botLogger)
		notifier = telegram.NewAdminNotifier(telegram.NewTelebotAdapter(bot), cfg.AdminTelegramID)

		group.Go(func() error {
			go bot.Start()
			<-gctx.Done()
			bot.Stop()
			return nil
		})
		mainLogger.Info("Operator bot started")
	}

	reminderScheduler := scheduler.NewReminderScheduler(
		dispatcher, notifier, logger.Component("scheduler"),
		cfg.CronSpecDaily, cfg.Location, cfg.RunTimeout,
	)
	if err := reminderScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start scheduler")
	}
	group.Go(func() error {
		<-gctx.Done()
		reminderScheduler.Stop()
		return nil
	})

	if cfg.MetricsAddr != "" {
		metricsServer := metrics.NewServer(cfg.MetricsAddr, reg, logger.Component("metrics"))
		group.Go(func() error {
			return metricsServer.Run(gctx)
		})
	}

	mainLogger.Info("Renewal reminder service started")
	if err := group.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		mainLogger.WithError(err).Error("Service stopped with error")
		os.Exit(1)
	}
	mainLogger.Info("Service shut down gracefully")
}

func buildSenders(cfg *config.AppConfig, log *logrus.Entry) ([]notify.Sender, error) {
	if cfg.DryRun {
		return []notify.Sender{
			sender.NewLogSender(notify.ChannelEmail, log),
			sender.NewLogSender(notify.ChannelWhatsApp, log),
		}, nil
	}

	var senders []notify.Sender
	if cfg.EmailEnabled() {
		email, err := sender.NewEmailSender(sender.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		if err != nil {
			return nil, err
		}
		senders = append(senders, sender.NewBreakerSender(email, cfg.BreakerFailures, cfg.BreakerOpenFor, log))
	}
	if cfg.WhatsAppEnabled() {
		wa := sender.NewWhatsAppSender(sender.WhatsAppConfig{
			BaseURL:       cfg.WhatsAppBaseURL,
			PhoneNumberID: cfg.WhatsAppPhoneNumberID,
			AccessToken:   cfg.WhatsAppAccessToken,
			MaxRetries:    cfg.WhatsAppMaxRetries,

			TemplateName:     cfg.WhatsAppTemplate,
			TemplateLanguage: cfg.WhatsAppTemplateLang,
		}, &http.Client{Timeout: cfg.SendTimeout}, log)
		senders = append(senders, sender.NewBreakerSender(wa, cfg.BreakerFailures, cfg.BreakerOpenFor, log))
	}
	return senders, nil
}

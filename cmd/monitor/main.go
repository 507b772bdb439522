package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"magister_monitor/internal/app"
	"magister_monitor/internal/infra/auth"
	"magister_monitor/internal/infra/config"
	"magister_monitor/internal/infra/logger"
	"magister_monitor/internal/infra/magister"
	"magister_monitor/internal/infra/metrics"
	"magister_monitor/internal/infra/notify"
	"magister_monitor/internal/infra/scheduler"

	dnotify "magister_monitor/internal/domain/notify"

	"gopkg.in/telebot.v3"
)

func main() {
	fmt.Println("Magister monitor starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg)
	log := logger.Get()
	log.WithField("environment", cfg.Environment).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Token lifecycle: file-persisted bearer token, refreshed through the
	// external login helper.
	tokenStore := auth.NewFileStore(cfg.TokenFile)
	refresher := auth.NewCommandRefresher(cfg.LoginCommand, cfg.SchoolURL, cfg.Username, cfg.Password)
	tokens := auth.NewManager(tokenStore, refresher, log)
	if err := tokens.Bootstrap(ctx); err != nil {
		// Not fatal: the first auth failure will trigger another refresh.
		log.WithError(err).Error("Could not obtain an initial token, continuing without one")
	}

	client := magister.NewClient(cfg.SchoolURL, tokens.Current, log)

	// Notification sinks.
	var sinks []dnotify.Notifier
	if cfg.DiscordWebhookURL != "" {
		sinks = append(sinks, notify.NewDiscordWebhook(cfg.DiscordWebhookURL))
		log.Info("Discord webhook sink configured")
	}
	if cfg.TelegramToken != "" {
		bot, err := telebot.NewBot(telebot.Settings{Token: cfg.TelegramToken})
		if err != nil {
			log.WithError(err).Fatal("Could not create Telegram bot")
		}
		sinks = append(sinks, notify.NewTelebotAdapter(bot, cfg.TelegramChatID))
		log.Info("Telegram sink configured")
	}
	notifier := notify.NewFanout(sinks...)

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := m.Serve(cfg.MetricsAddr, log); err != nil {
				log.WithError(err).Error("Metrics listener stopped")
			}
		}()
	}

	monitorService := app.NewMonitorService(client, notifier, tokens, m, log, cfg.MaxChanges, cfg.SettleDelay)

	var digestScheduler *scheduler.DigestScheduler
	if cfg.DigestEnabled {
		digestService := app.NewDigestService(client, notifier, log)
		digestScheduler = scheduler.NewDigestScheduler(digestService, log, cfg.CronSpecDigest)
		if err := digestScheduler.Start(); err != nil {
			log.WithError(err).Fatal("Could not start digest scheduler")
		}
	}

	monitorService.AnnounceStartup(ctx)

	loop := scheduler.NewLoop(
		cfg.CheckInterval,
		cfg.JitterMin,
		cfg.JitterMax,
		scheduler.QuietHours{StartHour: cfg.SleepStartHour, EndHour: cfg.SleepEndHour},
		log,
	)
	loop.Run(ctx, monitorService.RunCycle)

	// Context cancelled: shut down without flushing state, it is rebuilt as
	// a fresh baseline on restart.
	log.Info("Shutting down")
	if digestScheduler != nil {
		digestScheduler.Stop()
	}
	log.Info("Shut down gracefully")
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/bot"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/config"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/conversation"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/database"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/payment"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/queue"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/repository"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/scheduler"
)

func main() {
	cfg := config.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.Env == "dev" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connect failed")
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn().Msg("redis unavailable, debounce and callback dedup disabled")
	}

	theaterEvents := repository.NewTheaterEventRepo(db)
	scheduleEvents := repository.NewScheduleEventRepo(db)
	baseTickets := repository.NewBaseTicketRepo(db)
	tickets := repository.NewTicketRepo(db)
	customEvents := repository.NewCustomEventRepo(db)
	waitlist := repository.NewWaitlistRepo(db)
	settings := repository.NewSettingsRepo(db)
	overrides := repository.NewPriceOverrideRepo(db)
	convStates := repository.NewConversationStateRepo(db)

	store := conversation.NewStore(convStates, cfg.FlushInterval, logger)
	go store.Run(ctx)
	timers := conversation.NewTimers()

	var publisher *queue.Publisher
	if cfg.AMQPURL != "" {
		publisher = queue.NewPublisher(cfg.AMQPURL, logger)
	} else {
		logger.Warn().Msg("no broker configured, spreadsheet export disabled")
	}

	var payments *payment.Client
	if cfg.ShopID != "" {
		payments = payment.NewClient(cfg.ShopID, cfg.ShopSecretKey, logger)
	} else {
		logger.Warn().Msg("no payment gateway configured, payment links disabled")
	}

	b, err := bot.New(bot.Deps{
		Config:         cfg,
		Store:          store,
		Timers:         timers,
		Redis:          rdb,
		TheaterEvents:  theaterEvents,
		ScheduleEvents: scheduleEvents,
		BaseTickets:    baseTickets,
		Tickets:        tickets,
		CustomEvents:   customEvents,
		Waitlist:       waitlist,
		Settings:       settings,
		Overrides:      overrides,
		Publisher:      publisher,
		Payments:       payments,
		Logger:         logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("bot startup failed")
	}

	if err := b.RestoreConversations(ctx); err != nil {
		logger.Error().Err(err).Msg("restoring conversations failed")
	}

	if cfg.AMQPURL != "" {
		go queue.StartDeadLetterConsumer(ctx, cfg.AMQPURL, func(ctx context.Context, text string) {
			b.NotifyOperator(text)
		}, logger)
	}

	reminders := scheduler.NewReminders(scheduleEvents, tickets, settings, b.Notify, logger)
	go reminders.Run(ctx)

	e := echo.New()
	e.HideBanner = true
	payment.RegisterWebhook(e, b.HandlePaymentNotification, logger)
	go func() {
		if err := e.Start(":" + cfg.WebhookPort); err != nil {
			logger.Info().Err(err).Msg("webhook server stopped")
		}
	}()

	logger.Info().Str("env", cfg.Env).Msg("starting update loop")
	b.Start(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("webhook server shutdown failed")
	}
	if err := store.Flush(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("final conversation flush failed")
	}
	logger.Info().Msg("stopped")
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/remindcall/internal/ai"
	"github.com/hray3182/remindcall/internal/api"
	"github.com/hray3182/remindcall/internal/bot"
	"github.com/hray3182/remindcall/internal/config"
	"github.com/hray3182/remindcall/internal/database"
	"github.com/hray3182/remindcall/internal/delivery"
	"github.com/hray3182/remindcall/internal/logging"
	"github.com/hray3182/remindcall/internal/reminders"
	"github.com/hray3182/remindcall/internal/repository"
	"github.com/hray3182/remindcall/internal/scheduler"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type store interface {
	scheduler.Store
	reminders.Store
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.DevMode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalw("Failed to open reminder store", "error", err)
	}
	defer closeStore()

	var tgAPI *tgbotapi.BotAPI
	if cfg.TelegramToken != "" {
		tgAPI, err = tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			logger.Fatalw("Failed to create Telegram API", "error", err)
		}
		logger.Infow("Authorized on Telegram", "account", tgAPI.Self.UserName)
	}

	// AI composer is optional
	var composer delivery.Composer = delivery.TemplateComposer{}
	if cfg.AIAPIKey != "" {
		client := ai.New(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel)
		composer = delivery.NewAIComposer(client, logger.Named("composer"))
		logger.Infow("AI composer enabled", "model", client.Model())
	}

	deliverer := newDeliverer(cfg, tgAPI, composer, logger.Named("delivery"))

	sched := scheduler.New(st, deliverer, logger.Named("scheduler"), scheduler.Options{
		Interval:        cfg.PollInterval,
		DeliveryTimeout: cfg.DeliveryTimeout,
		UpcomingHorizon: cfg.UpcomingHorizon,
	})

	svc := reminders.New(st, sched, clockwork.NewRealClock(), logger.Named("reminders"))
	if n, err := svc.Resume(ctx); err != nil {
		logger.Warnw("Could not count active reminders, scheduler will start on first creation", "error", err)
	} else {
		logger.Infow("Active reminders at boot", "count", n, "scheduler_running", sched.IsRunning())
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.New(svc, logger, cfg.UpcomingHorizon).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infow("Starting HTTP server", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("HTTP server failed", "error", err)
			stop()
		}
	}()

	if tgAPI != nil {
		b := bot.New(tgAPI, svc, logger)
		go func() {
			if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorw("Bot stopped", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("HTTP shutdown", "error", err)
	}
	if err := sched.Stop(); err != nil {
		logger.Warnw("Scheduler shutdown", "error", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (store, func(), error) {
	if cfg.UsePostgres() {
		db, err := database.New(ctx, cfg.DatabaseURI)
		if err != nil {
			return nil, nil, err
		}
		applied, err := db.Migrate(ctx)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Infow("Connected to Postgres", "migrations_applied", applied)
		return repository.NewReminderRepository(db), db.Close, nil
	}

	s, err := repository.NewSQLiteReminderRepository(cfg.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	logger.Infow("Using SQLite store", "path", cfg.SQLitePath)
	return s, func() { _ = s.Close() }, nil
}

func newDeliverer(cfg *config.Config, tgAPI *tgbotapi.BotAPI, composer delivery.Composer, logger *zap.SugaredLogger) delivery.Deliverer {
	switch cfg.DeliveryChannel {
	case config.ChannelTelegram:
		return delivery.NewTelegram(tgAPI, composer, logger)
	case config.ChannelWebPush:
		return delivery.NewWebPush(delivery.WebPushOptions{
			PublicKey:  cfg.VAPIDPublicKey,
			PrivateKey: cfg.VAPIDPrivateKey,
			Subscriber: cfg.VAPIDSubscriber,
		}, composer, logger)
	default:
		return delivery.NewLog(composer, logger)
	}
}

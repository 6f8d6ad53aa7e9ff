package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-crm/internal/database"
	"github.com/hugh/go-crm/internal/notify"
	"github.com/hugh/go-crm/internal/store"
	"github.com/hugh/go-crm/internal/tasks"
	"github.com/hugh/go-crm/pkg/config"
	"github.com/hugh/go-crm/pkg/queue"
	"github.com/hugh/go-crm/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("starting Go CRM worker")

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	stores := store.New(db, cfg.App.QueryLimit)

	mailer := notify.NewMailer(notify.MailerConfig{
		SMTP:      cfg.SMTP,
		AppName:   cfg.App.Name,
		AppURL:    cfg.App.URL,
		InviteTTL: cfg.Account.InviteTTL(),
		OTPTTL:    cfg.Account.OTPTTL(),
	})

	// Create task handler
	handler := tasks.NewHandler(mailer, stores.OTPs, logger)

	// Register handlers
	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	// Periodic housekeeping
	scheduler := queue.NewScheduler(&cfg.Redis, logger)
	entryID, err := tasks.RegisterPeriodic(scheduler, cfg.Housekeeping.Cron)
	if err != nil {
		logger.Error("failed to schedule housekeeping", "error", err)
		os.Exit(1)
	}
	if runs, err := util.CronRuns(cfg.Housekeeping.Cron, time.Now(), 3); err == nil {
		logger.Info("housekeeping scheduled", "entry_id", entryID, "next_runs", runs)
	}
	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	// Create Asynq server
	srv := queue.NewServer(&cfg.Redis, 10, logger)
	if err := srv.Start(mux); err != nil {
		logger.Error("worker error", "error", err)
		os.Exit(1)
	}

	logger.Info("worker started, waiting for tasks...")

	// Handle shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker...")
	scheduler.Shutdown()
	srv.Shutdown()

	// Close database connection
	if err := database.Close(db); err != nil {
		logger.Error("failed to close database", "error", err)
	}

	logger.Info("worker stopped")
}

package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-crm/internal/account"
	"github.com/hugh/go-crm/internal/activity"
	"github.com/hugh/go-crm/internal/api"
	"github.com/hugh/go-crm/internal/api/handlers"
	"github.com/hugh/go-crm/internal/api/middleware"
	"github.com/hugh/go-crm/internal/auth"
	"github.com/hugh/go-crm/internal/crm"
	"github.com/hugh/go-crm/internal/database"
	"github.com/hugh/go-crm/internal/notify"
	"github.com/hugh/go-crm/internal/storage"
	"github.com/hugh/go-crm/internal/store"
	"github.com/hugh/go-crm/internal/tasks"
	"github.com/hugh/go-crm/internal/throttle"
	"github.com/hugh/go-crm/pkg/config"
	"github.com/hugh/go-crm/pkg/crypto"
	"github.com/hugh/go-crm/pkg/queue"
	"github.com/hugh/go-crm/pkg/util"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
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

	logger.Info("starting Go CRM server",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
	)

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	switch {
	case cfg.Database.Migrate:
		if err := database.Migrate(db, logger); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	case cfg.Server.IsDevelopment():
		if err := database.AutoMigrate(db); err != nil {
			logger.Error("failed to auto-migrate database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("failed to connect to Redis", "error", err)
		redisClient = nil
	}

	// Emails go through the worker when Redis is up
	var (
		asynqClient *asynq.Client
		notifier    notify.Notifier
		resetLimit  account.Throttle
	)
	if redisClient != nil {
		asynqClient = queue.NewClient(&cfg.Redis)
		notifier = tasks.NewQueueNotifier(asynqClient)
		resetLimit = throttle.NewRedis(redisClient, cfg.Account.OTPRequestsPerHour, time.Hour)
	} else {
		logger.Warn("emails will be logged, not sent")
		notifier = notify.NewLogNotifier(logger, cfg.Server.IsDevelopment())
	}

	// Initialize encryptor for banking details
	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key, cfg.Encryption.RetiredKeys...)
	if err != nil {
		logger.Error("failed to create encryptor", "error", err)
		os.Exit(1)
	}
	if cfg.Encryption.Key == "" {
		logger.Warn("ENCRYPTION_KEY not set, using generated key - banking details will be unreadable after restart")
	}

	objects, err := storage.New(context.Background(), &cfg.Storage, logger)
	if err != nil {
		logger.Error("failed to create object storage", "error", err)
		os.Exit(1)
	}

	// Initialize services
	stores := store.New(db, cfg.App.QueryLimit)
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry(), cfg.JWT.ResetExpiry())
	recorder := activity.NewRecorder(stores.Activities, logger, time.Now)

	accountService := account.NewService(account.Deps{
		Users:    stores.Users,
		Invites:  stores.Invites,
		OTPs:     stores.OTPs,
		Tokens:   jwtService,
		Notifier: notifier,
		Activity: recorder,
		Throttle: resetLimit,
		Logger:   logger,
	}, account.Options{
		InviteTTL:      cfg.Account.InviteTTL(),
		OTPTTL:         cfg.Account.OTPTTL(),
		OTPLength:      cfg.Account.OTPLength,
		OTPMaxAttempts: cfg.Account.OTPMaxAttempts,
		AppName:        cfg.App.Name,
	})

	crmDeps := crm.Deps{
		Clients:  stores.Clients,
		Contacts: stores.Contacts,
		Reports:  stores.Reports,
		Users:    stores.Users,
		Sealer:   encryptor,
		Storage:  objects,
		Activity: recorder,
		Logger:   logger,
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)

	// Create router
	router := api.NewRouter(api.RouterConfig{
		DB:             stores,
		Redis:          redisClient,
		Logger:         logger,
		Account:        accountService,
		Clients:        crm.NewClients(crmDeps),
		Contacts:       crm.NewContacts(crmDeps),
		Reports:        crm.NewReports(crmDeps),
		Activities:     recorder,
		AllowedOrigins: cfg.App.AllowedOrigins,
		RateLimiter:    rateLimiter,
		Cookie: handlers.CookieOptions{
			Secure: !cfg.Server.IsDevelopment(),
			MaxAge: cfg.JWT.Expiry(),
		},
		MaxUploadBytes: cfg.App.MaxFileSize(),
	})

	// Create HTTP server. Uploads need a longer write window than JSON.
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	rateLimiter.Stop()
	// Activity writes still in flight need the database
	recorder.Wait()

	if closer, ok := objects.(io.Closer); ok {
		_ = closer.Close()
	}

	// Close Asynq client
	if asynqClient != nil {
		asynqClient.Close()
	}

	// Close Redis connection
	if redisClient != nil {
		redisClient.Close()
	}

	// Close database connection
	if err := database.Close(db); err != nil {
		logger.Error("failed to close database", "error", err)
	}

	logger.Info("server stopped")
}

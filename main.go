package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"leadcatcher/config"
	"leadcatcher/middleware"
	"leadcatcher/models"
	"leadcatcher/ratelimit"
	"leadcatcher/realtime"
	"leadcatcher/routes"
	"leadcatcher/utils"
	"leadcatcher/worker"
)

const demoPassword = "password123"

func main() {
	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := config.AppConfig

	utils.InitLogger(cfg.Environment, cfg.LogLevel)
	logger := utils.NewLogger("MAIN")

	if err := utils.InitSentry(cfg.SentryDSN, cfg.Environment); err != nil {
		logger.WithError(err).Warn("Sentry disabled")
	}
	defer sentry.Flush(2 * time.Second)

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if cfg.SeedDemoData {
		seedDemoData(logger)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	redisClient, err := config.ConnectRedis(ctx)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}

	hub := realtime.NewHub(utils.NewLogger("REALTIME"))
	deps := routes.Dependencies{
		DB:  config.DB,
		Hub: hub,
		Mailer: utils.NewSMTPMailer(utils.SMTPConfig{
			Host:      cfg.SMTP.Host,
			Port:      cfg.SMTP.Port,
			Username:  cfg.SMTP.Username,
			Password:  cfg.SMTP.Password,
			From:      cfg.SMTP.From,
			ClientURL: cfg.ClientURL,
		}),
		ResetTokens:   utils.NewResetTokenIssuer(cfg.SessionSecret, time.Hour),
		SessionTTL:    cfg.SessionTTL,
		SecureCookies: cfg.IsProduction(),
		CORSOrigins:   cfg.CORSOrigins,
		AccessLog:     true,
	}

	if redisClient != nil {
		defer redisClient.Close()
		hub.WithRelay(redisClient, "leadcatcher:realtime")
		deps.SessionStorage = middleware.NewRedisStorage(redisClient, "leadcatcher:session:")
		deps.Limiter = ratelimit.NewLimiter(
			ratelimit.NewRedisStore(redisClient, "leadcatcher:submissions:"),
			cfg.SubmissionLimit, cfg.SubmissionWindow,
		)
	} else {
		store := ratelimit.NewMemoryStore()
		deps.Limiter = ratelimit.NewLimiter(store, cfg.SubmissionLimit, cfg.SubmissionWindow)

		janitor := worker.NewRateLimitJanitor(store, cfg.SubmissionWindow, worker.DefaultJanitorInterval, utils.NewLogger("JANITOR"))
		go janitor.Start(ctx)
	}

	go func() {
		if err := hub.Run(ctx); err != nil {
			logger.WithError(err).Error("Realtime relay stopped")
		}
	}()

	// Create Fiber app
	app := routes.NewApp(cfg.TrustProxy)
	routes.SetupRoutes(app, deps)

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.WithError(err).Error("Shutdown failed")
		}
	}()

	// Start server
	logger.Infof("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}

func seedDemoData(logger *logrus.Entry) {
	hash, err := utils.HashPassword(demoPassword)
	if err != nil {
		logger.Fatalf("Failed to hash demo password: %v", err)
	}
	seeded, err := models.SeedDemoData(config.DB, hash)
	if err != nil {
		logger.Fatalf("Failed to seed demo data: %v", err)
	}
	if seeded {
		logger.Info("Seeded demo data (demo@leadcatcher.com / rep@leadcatcher.com)")
	}
}

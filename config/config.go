package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"leadcatcher/models"
)

var (
	DB        *gorm.DB
	AppConfig Config
	envLoaded bool
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

type SMTPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"-"`
	From     string `json:"from"`
}

type Config struct {
	Environment    string        `json:"environment"`
	ServerPort     string        `json:"server_port"`
	DBHost         string        `json:"db_host"`
	DBPort         string        `json:"db_port"`
	DBUser         string        `json:"db_user"`
	DBPassword     string        `json:"-"`
	DBName         string        `json:"db_name"`
	DBSSLMode      string        `json:"db_ssl_mode"`
	DBMaxIdleConns int           `json:"db_max_idle_conns"`
	DBMaxOpenConns int           `json:"db_max_open_conns"`
	SessionSecret  string        `json:"-"`
	SessionTTL     time.Duration `json:"session_ttl"`
	Redis          RedisConfig   `json:"redis"`
	SMTP           SMTPConfig    `json:"smtp"`
	ClientURL      string        `json:"client_url"`
	SentryDSN      string        `json:"-"`
	LogLevel       string        `json:"log_level"`
	CORSOrigins    []string      `json:"cors_origins"`
	TrustProxy     bool          `json:"trust_proxy"`

	SubmissionLimit  int           `json:"submission_limit"`
	SubmissionWindow time.Duration `json:"submission_window"`
	SeedDemoData     bool          `json:"seed_demo_data"`
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
	envLoaded = true
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func LoadConfig() error {
	AppConfig = Config{
		Environment:    getEnv("ENVIRONMENT", "development"),
		ServerPort:     getEnv("SERVER_PORT", "5000"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "leadcatcher"),
		DBSSLMode:      getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
		SessionSecret:  getEnv("SESSION_SECRET", ""),
		SessionTTL:     time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 720)) * time.Hour,
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("EMAIL_FROM", "LeadCatcher <no-reply@leadcatcher.com>"),
		},
		ClientURL:   getEnv("CLIENT_URL", "http://localhost:5000"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5000"}),
		TrustProxy:  getEnvAsBool("TRUST_PROXY", false),

		SubmissionLimit:  getEnvAsInt("SUBMISSION_LIMIT", 10),
		SubmissionWindow: time.Duration(getEnvAsInt("SUBMISSION_WINDOW_MINUTES", 60)) * time.Minute,
		SeedDemoData:     getEnvAsBool("SEED_DEMO_DATA", false),
	}

	if err := AppConfig.validate(); err != nil {
		return err
	}

	logConfig()
	return nil
}

func (c *Config) validate() error {
	if c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.SessionSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("SESSION_SECRET is required in production")
		}
		c.SessionSecret = "leadcatcher-dev-secret"
		logrus.Warn("SESSION_SECRET not set, using an insecure development secret")
	}
	if c.SubmissionLimit <= 0 {
		return fmt.Errorf("SUBMISSION_LIMIT must be positive")
	}
	if c.SubmissionWindow <= 0 {
		return fmt.Errorf("SUBMISSION_WINDOW_MINUTES must be positive")
	}
	return nil
}

func ConnectDB() error {
	logrus.Info("Attempting to connect to database...")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBSSLMode,
	)
	logrus.WithField("dsn", maskPassword(dsn)).Debug("Using connection string")

	gormLogger := logger.Default.LogMode(logger.Warn)
	if !AppConfig.IsProduction() && AppConfig.LogLevel == "debug" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(AppConfig.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(AppConfig.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logrus.Info("Successfully connected to the database")

	logrus.Info("Starting database migration...")
	if err := models.AutoMigrate(DB); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	logrus.Info("Database migration completed")
	return nil
}

// ConnectRedis returns nil when Redis is disabled.
func ConnectRedis(ctx context.Context) (*redis.Client, error) {
	if !AppConfig.Redis.Enabled {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     AppConfig.Redis.Address,
		Password: AppConfig.Redis.Password,
		DB:       AppConfig.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logrus.WithField("address", AppConfig.Redis.Address).Info("Connected to Redis")
	return client, nil
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	if !envLoaded && fallback == "" {
		logrus.Warnf("Environment variable %s not found and no fallback provided", key)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

func logConfig() {
	logrus.WithFields(logrus.Fields{
		"environment":       AppConfig.Environment,
		"server_port":       AppConfig.ServerPort,
		"database":          fmt.Sprintf("%s@%s:%s/%s", AppConfig.DBUser, AppConfig.DBHost, AppConfig.DBPort, AppConfig.DBName),
		"redis":             AppConfig.Redis.Enabled,
		"smtp":              AppConfig.SMTP.Host != "",
		"submission_limit":  AppConfig.SubmissionLimit,
		"submission_window": AppConfig.SubmissionWindow.String(),
	}).Info("Loaded configuration")
}

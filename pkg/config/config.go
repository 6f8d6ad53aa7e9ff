package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hugh/go-crm/pkg/util"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Account      AccountConfig
	App          AppConfig
	Encryption   EncryptionConfig
	SMTP         SMTPConfig
	Storage      StorageConfig
	RateLimit    RateLimitConfig
	Housekeeping HousekeepingConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	Migrate  bool

	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeMinutes int
	// LogLevel is one of silent, error, warn or info (every statement).
	LogLevel               string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

type JWTConfig struct {
	Secret                  string
	ExpiryHours             int
	ResetTokenExpiryMinutes int
}

// AccountConfig holds the invite and password-reset lifetimes.
type AccountConfig struct {
	InviteExpiryHours  int
	OTPExpirySeconds   int
	OTPLength          int
	OTPMaxAttempts     int
	OTPRequestsPerHour int
}

type AppConfig struct {
	Name           string
	URL            string
	AllowedOrigins []string
	QueryLimit     int
	MaxFileSizeMB  int
}

// EncryptionConfig holds the age identity used for banking details. Values
// sealed for a RetiredKeys identity still open until they are rewritten.
type EncryptionConfig struct {
	Key         string
	RetiredKeys []string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// StorageConfig selects the object store used for logos and report files.
// Provider is "s3", "gcs" or empty (in-memory, development only).
type StorageConfig struct {
	Provider           string
	S3Endpoint         string
	S3Region           string
	S3AccessKey        string
	S3SecretKey        string
	S3Bucket           string
	S3PublicURL        string
	GCSBucket          string
	GCSCredentialsFile string
}

type RateLimitConfig struct {
	Requests      int
	WindowSeconds int
}

type HousekeepingConfig struct {
	Cron string
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func (d *DatabaseConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(d.ConnMaxLifetimeMinutes) * time.Minute
}

// URL returns the connection string in URL form, as golang-migrate expects it.
func (d *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func (j *JWTConfig) Expiry() time.Duration {
	return time.Duration(j.ExpiryHours) * time.Hour
}

func (j *JWTConfig) ResetExpiry() time.Duration {
	return time.Duration(j.ResetTokenExpiryMinutes) * time.Minute
}

func (a *AccountConfig) InviteTTL() time.Duration {
	return time.Duration(a.InviteExpiryHours) * time.Hour
}

func (a *AccountConfig) OTPTTL() time.Duration {
	return time.Duration(a.OTPExpirySeconds) * time.Second
}

// MaxFileSize returns the upload limit in bytes.
func (a *AppConfig) MaxFileSize() int64 {
	return int64(a.MaxFileSizeMB) << 20
}

func (s *SMTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s *ServerConfig) IsDevelopment() bool {
	return s.Env == "development"
}

func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "gocrm")
	v.SetDefault("DATABASE_PASSWORD", "gocrm_secret")
	v.SetDefault("DATABASE_NAME", "gocrm")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MIGRATE", true)
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 100)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 10)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME_MINUTES", 30)
	v.SetDefault("DATABASE_LOG_LEVEL", "warn")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("JWT_SECRET", "change-me-in-production")
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("RESET_TOKEN_EXPIRY_MINUTES", 15)
	v.SetDefault("INVITE_EXPIRY_HOURS", 24)
	v.SetDefault("OTP_EXPIRY_SECONDS", 600)
	v.SetDefault("OTP_LENGTH", 6)
	v.SetDefault("OTP_MAX_ATTEMPTS", 5)
	v.SetDefault("OTP_REQUESTS_PER_HOUR", 5)
	v.SetDefault("APP_NAME", "Go CRM")
	v.SetDefault("APP_URL", "http://localhost:3000")
	v.SetDefault("QUERY_LIMIT", 20)
	v.SetDefault("MAX_FILE_SIZE_MB", 10)
	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 1025)
	v.SetDefault("SMTP_FROM", "no-reply@localhost")
	v.SetDefault("STORAGE_PROVIDER", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("HOUSEKEEPING_CRON", "0 * * * *")

	// Load from .env file if present
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Override with environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
			Env:  v.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DATABASE_HOST"),
			Port:     v.GetInt("DATABASE_PORT"),
			User:     v.GetString("DATABASE_USER"),
			Password: v.GetString("DATABASE_PASSWORD"),
			Name:     v.GetString("DATABASE_NAME"),
			SSLMode:  v.GetString("DATABASE_SSLMODE"),
			Migrate:  v.GetBool("DATABASE_MIGRATE"),

			MaxOpenConns:           v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			MaxIdleConns:           v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			ConnMaxLifetimeMinutes: v.GetInt("DATABASE_CONN_MAX_LIFETIME_MINUTES"),
			LogLevel:               strings.ToLower(v.GetString("DATABASE_LOG_LEVEL")),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		JWT: JWTConfig{
			Secret:                  v.GetString("JWT_SECRET"),
			ExpiryHours:             v.GetInt("JWT_EXPIRY_HOURS"),
			ResetTokenExpiryMinutes: v.GetInt("RESET_TOKEN_EXPIRY_MINUTES"),
		},
		Account: AccountConfig{
			InviteExpiryHours:  v.GetInt("INVITE_EXPIRY_HOURS"),
			OTPExpirySeconds:   v.GetInt("OTP_EXPIRY_SECONDS"),
			OTPLength:          v.GetInt("OTP_LENGTH"),
			OTPMaxAttempts:     v.GetInt("OTP_MAX_ATTEMPTS"),
			OTPRequestsPerHour: v.GetInt("OTP_REQUESTS_PER_HOUR"),
		},
		App: AppConfig{
			Name:           v.GetString("APP_NAME"),
			URL:            strings.TrimRight(v.GetString("APP_URL"), "/"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			QueryLimit:     v.GetInt("QUERY_LIMIT"),
			MaxFileSizeMB:  v.GetInt("MAX_FILE_SIZE_MB"),
		},
		Encryption: EncryptionConfig{
			Key:         v.GetString("ENCRYPTION_KEY"),
			RetiredKeys: splitList(v.GetString("ENCRYPTION_RETIRED_KEYS")),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		Storage: StorageConfig{
			Provider:           strings.ToLower(v.GetString("STORAGE_PROVIDER")),
			S3Endpoint:         v.GetString("S3_ENDPOINT"),
			S3Region:           v.GetString("S3_REGION"),
			S3AccessKey:        v.GetString("S3_ACCESS_KEY"),
			S3SecretKey:        v.GetString("S3_SECRET_KEY"),
			S3Bucket:           v.GetString("S3_BUCKET"),
			S3PublicURL:        strings.TrimRight(v.GetString("S3_PUBLIC_URL"), "/"),
			GCSBucket:          v.GetString("GCS_BUCKET"),
			GCSCredentialsFile: v.GetString("GCS_CREDENTIALS_FILE"),
		},
		RateLimit: RateLimitConfig{
			Requests:      v.GetInt("RATE_LIMIT_REQUESTS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Housekeeping: HousekeepingConfig{
			Cron: v.GetString("HOUSEKEEPING_CRON"),
		},
	}

	// The frontend named by APP_URL is always allowed
	if len(cfg.App.AllowedOrigins) == 0 {
		cfg.App.AllowedOrigins = []string{cfg.App.URL}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// splitList parses a comma-separated env value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate rejects configurations the services cannot run with.
func (c *Config) Validate() error {
	if c.App.QueryLimit < 1 {
		return fmt.Errorf("QUERY_LIMIT must be positive, got %d", c.App.QueryLimit)
	}
	if c.Account.OTPLength < 4 || c.Account.OTPLength > 10 {
		return fmt.Errorf("OTP_LENGTH must be between 4 and 10, got %d", c.Account.OTPLength)
	}
	switch c.Storage.Provider {
	case "", "s3", "gcs":
	default:
		return fmt.Errorf("unknown STORAGE_PROVIDER %q", c.Storage.Provider)
	}
	if c.Storage.Provider == "s3" && c.Storage.S3Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required when STORAGE_PROVIDER=s3")
	}
	if c.Storage.Provider == "gcs" && c.Storage.GCSBucket == "" {
		return fmt.Errorf("GCS_BUCKET is required when STORAGE_PROVIDER=gcs")
	}
	if err := util.ValidateCronExpr(c.Housekeeping.Cron); err != nil {
		return fmt.Errorf("HOUSEKEEPING_CRON: %w", err)
	}
	return nil
}

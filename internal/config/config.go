package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting, read once at startup.
type Config struct {
	Port    string
	AppName string
	// Public URL of the web app, used for links inside notifications
	AppBaseURL string
	LogLevel   string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Telegram TelegramConfig
	SMTP     SMTPConfig

	OTPTTL            time.Duration
	RequireInvoiceOTP bool
	PhoneRegion       string

	AdminEmail    string
	AdminPassword string
}

type DatabaseConfig struct {
	URL      string
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	TimeZone string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
	// LockTTL bounds how long a product stays locked if the holder dies
	LockTTL time.Duration
	// CacheTTL is how long a derived stock view stays cached
	CacheTTL time.Duration
}

// Enabled reports whether Redis backs the cache and the product locks.
func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

type JWTConfig struct {
	Secret   string
	Issuer   string
	Lifetime time.Duration
}

type TelegramConfig struct {
	BotToken      string
	ChatID        string
	WebhookSecret string
	APIBaseURL    string
	Timeout       time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, bool) {
	envLoaded := godotenv.Load() == nil

	cfg := &Config{
		Port:       getEnv("PORT", "3000"),
		AppName:    getEnv("APP_NAME", "Bill Mart"),
		AppBaseURL: strings.TrimRight(getEnv("APP_BASE_URL", "https://bill-mart.vercel.app"), "/"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "bill_mart"),
			Port:     getEnv("DB_PORT", "5432"),
			TimeZone: getEnv("DB_TIMEZONE", "Asia/Kolkata"),
		},
		Redis: RedisConfig{
			Address:  os.Getenv("REDIS_ADDRESS"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
			LockTTL:  getEnvDuration("STOCK_LOCK_TTL", 30*time.Second),
			CacheTTL: getEnvDuration("STOCK_CACHE_TTL", 5*time.Minute),
		},
		JWT: JWTConfig{
			Secret:   getEnv("JWT_SECRET", "your-super-secret-key-change-in-production"),
			Issuer:   getEnv("JWT_ISSUER", "bill-mart"),
			Lifetime: getEnvDuration("JWT_LIFETIME", 24*time.Hour),
		},
		Telegram: TelegramConfig{
			BotToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
			ChatID:        os.Getenv("TELEGRAM_CHAT_ID"),
			WebhookSecret: os.Getenv("TELEGRAM_WEBHOOK_SECRET"),
			APIBaseURL:    getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
			Timeout:       getEnvDuration("TELEGRAM_TIMEOUT", 10*time.Second),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "no-reply@bill-mart.local"),
		},
		OTPTTL:            getEnvDuration("OTP_TTL", 5*time.Minute),
		RequireInvoiceOTP: getEnvBool("REQUIRE_INVOICE_OTP", false),
		PhoneRegion:       getEnv("PHONE_REGION", "IN"),
		AdminEmail:        getEnv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword:     getEnv("ADMIN_PASSWORD", "admin123"),
	}

	return cfg, envLoaded
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

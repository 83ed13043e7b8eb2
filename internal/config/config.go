package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type Config struct {
	BotToken    string
	AdminChatID int64

	MongoURI string
	DBName   string

	Port           string
	WebhookBaseURL string // empty means long polling
	WebhookSecret  string

	PageSize          int64
	RateLimitInterval time.Duration
	RateLimitFailOpen bool
	SessionTTL        time.Duration

	JWTSecret      string
	AdminAPISecret string

	ResendAPIKey string
	EmailFrom    string
	EmailTo      string

	LogLevel string
	LogFile  string
}

// Load reads configuration from the environment. A .env file is honored
// when present (ignored in production, where env vars are set directly).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:       os.Getenv("BOT_TOKEN"),
		MongoURI:       os.Getenv("MONGODB_URI"),
		DBName:         getEnv("DB_NAME", "feedback"),
		Port:           getEnv("PORT", "8080"),
		WebhookBaseURL: os.Getenv("WEBHOOK_BASE_URL"),
		WebhookSecret:  os.Getenv("WEBHOOK_SECRET"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AdminAPISecret: os.Getenv("ADMIN_API_SECRET"),
		ResendAPIKey:   os.Getenv("RESEND_API_KEY"),
		EmailFrom:      os.Getenv("FROM_EMAIL"),
		EmailTo:        os.Getenv("ADMIN_EMAIL"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFile:        os.Getenv("LOG_FILE"),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.AdminAPISecret == "" {
		return nil, fmt.Errorf("ADMIN_API_SECRET is required")
	}

	adminChatID, err := strconv.ParseInt(os.Getenv("ADMIN_CHAT_ID"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_CHAT_ID is required and must be numeric")
	}
	cfg.AdminChatID = adminChatID

	cfg.PageSize = getEnvInt64("PAGE_SIZE", 10)
	cfg.RateLimitInterval = time.Duration(getEnvInt64("FEEDBACK_INTERVAL_HOURS", 24)) * time.Hour
	cfg.RateLimitFailOpen = getEnvBool("RATE_LIMIT_FAIL_OPEN", false)
	cfg.SessionTTL = time.Duration(getEnvInt64("SESSION_TTL_MINUTES", 120)) * time.Minute

	// Webhook mode needs a secret path segment; generate one when unset.
	if cfg.WebhookBaseURL != "" && cfg.WebhookSecret == "" {
		cfg.WebhookSecret = uuid.New().String()
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the configuration for the application.
type Config struct {
	HTTPAddr     string
	DatabasePath string
	BaseURL      string

	// Auth
	SessionTTL  time.Duration
	TokenSecret string

	// Recipe import (optional; the importer is disabled without a key)
	GeminiAPIKey string

	// Telegram notifications (optional)
	TelegramBotToken string

	// Rollover schedule in cron syntax. Default is Monday 00:00.
	RolloverSchedule string

	LogLevel string
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		return nil, fmt.Errorf("DATABASE_PATH environment variable not set")
	}

	tokenSecret := os.Getenv("TOKEN_SECRET")
	if tokenSecret == "" {
		return nil, fmt.Errorf("TOKEN_SECRET environment variable not set")
	}

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost" + httpAddr
	}

	sessionTTL := 24 * time.Hour
	if ttlStr := os.Getenv("SESSION_TTL_HOURS"); ttlStr != "" {
		hours, err := strconv.Atoi(ttlStr)
		if err != nil || hours <= 0 {
			return nil, fmt.Errorf("SESSION_TTL_HOURS must be a positive integer, got %q", ttlStr)
		}
		sessionTTL = time.Duration(hours) * time.Hour
	}

	rolloverSchedule := os.Getenv("ROLLOVER_SCHEDULE")
	if rolloverSchedule == "" {
		rolloverSchedule = "0 0 * * MON"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		HTTPAddr:         httpAddr,
		DatabasePath:     dbPath,
		BaseURL:          baseURL,
		SessionTTL:       sessionTTL,
		TokenSecret:      tokenSecret,
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		RolloverSchedule: rolloverSchedule,
		LogLevel:         logLevel,
	}, nil
}

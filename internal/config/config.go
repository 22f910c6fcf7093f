// Package config provides environment configuration for the bot.
package config

import (
	"errors"
	"os"
	"strconv"
)

// Config holds all configuration for the application.
type Config struct {
	// Telegram settings
	TelegramToken    string
	AuthorizedUserID int64

	// LLM settings
	OpenAIAPIKey string
	OpenAIModel  string

	// Google backend settings
	SheetID            string
	CalendarID         string
	ServiceAccountFile string
	CalendarTimezone   string

	// Ledger settings
	DefaultCurrency string

	// Conversation memory
	MemoryFile string

	// Ops HTTP server
	OpsPort string

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Telegram
		TelegramToken:    getEnv("TELEGRAM_TOKEN", ""),
		AuthorizedUserID: getInt64Env("AUTHORIZED_USER_ID", 0),

		// LLM
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		// Google backends
		SheetID:            getEnv("GOOGLE_SHEET_ID", ""),
		CalendarID:         getEnv("GOOGLE_CALENDAR_ID", ""),
		ServiceAccountFile: getEnv("SERVICE_ACCOUNT_FILE", "service_account.json"),
		CalendarTimezone:   getEnv("CALENDAR_TIMEZONE", "Asia/Shanghai"),

		// Ledger
		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "€"),

		// Memory
		MemoryFile: getEnv("MEMORY_FILE", "memory.json"),

		// Ops
		OpsPort: getEnv("OPS_PORT", "8080"),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks that the settings without a usable default are present.
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_TOKEN is required")
	}
	if c.AuthorizedUserID == 0 {
		return errors.New("AUTHORIZED_USER_ID is required")
	}
	if c.OpenAIAPIKey == "" {
		return errors.New("OPENAI_API_KEY is required")
	}
	if c.SheetID == "" {
		return errors.New("GOOGLE_SHEET_ID is required")
	}
	if c.CalendarID == "" {
		return errors.New("GOOGLE_CALENDAR_ID is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

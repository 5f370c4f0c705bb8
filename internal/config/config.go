package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the process configuration, read from the environment with an
// optional .env file for local development.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string

	// DBPath is the SQLite database file.
	DBPath string

	// GeminiAPIKey authorizes model calls. Required.
	GeminiAPIKey string

	// ShareSecret signs public share links. Share routes are disabled
	// when empty.
	ShareSecret string

	// Object store for durable image hosting. Uploads fall back to
	// inline data URIs when BaseURL is empty.
	ObjectStoreURL    string
	ObjectStoreAPIKey string
	ObjectStoreBucket string

	// Telegram batch notifications; disabled when the token is empty.
	TelegramToken  string
	TelegramChatID int64
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:              getEnv("ADDR", ":8080"),
		DBPath:            getEnv("DB_PATH", "wizard.db"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		ShareSecret:       os.Getenv("SHARE_SECRET"),
		ObjectStoreURL:    os.Getenv("OBJECT_STORE_URL"),
		ObjectStoreAPIKey: os.Getenv("OBJECT_STORE_API_KEY"),
		ObjectStoreBucket: os.Getenv("OBJECT_STORE_BUCKET"),
		TelegramToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID must be a valid integer: %w", err)
		}
		cfg.TelegramChatID = id
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID == 0 {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the monitor.
type AppConfig struct {
	// Magister identity. SchoolURL is the portal base URL; the credentials
	// are opaque strings forwarded to the external login helper.
	SchoolURL string
	Username  string
	Password  string

	// LoginCommand is the external helper invoked to obtain a fresh bearer
	// token (browser-driven flow, out of process). It must print the token
	// on stdout.
	LoginCommand string
	// TokenFile is where the current bearer token is persisted.
	TokenFile string

	// Notification sinks. Either or both may be configured.
	DiscordWebhookURL string
	TelegramToken     string
	TelegramChatID    int64

	// Poll cadence.
	CheckInterval time.Duration
	JitterMin     time.Duration
	JitterMax     time.Duration

	// Quiet hours (24h clock, wraparound supported). Equal hours disable the
	// window entirely.
	SleepStartHour int
	SleepEndHour   int

	// Defensive heuristics.
	MaxChanges  int
	SettleDelay time.Duration

	// Daily digest.
	DigestEnabled  bool
	CronSpecDigest string

	// Optional Prometheus listener, e.g. ":9190". Empty disables it.
	MetricsAddr string

	LogLevel    string
	Environment string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.SchoolURL = os.Getenv("SCHOOL_URL")
	if cfg.SchoolURL == "" {
		return nil, fmt.Errorf("SCHOOL_URL is not set")
	}
	cfg.Username = os.Getenv("MAGISTER_USERNAME")
	cfg.Password = os.Getenv("MAGISTER_PASSWORD")

	cfg.LoginCommand = os.Getenv("LOGIN_COMMAND")
	cfg.TokenFile = envOrDefault("TOKEN_FILE", "access_token.txt")

	cfg.DiscordWebhookURL = os.Getenv("DISCORD_WEBHOOK_URL")
	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		cfg.TelegramChatID, err = strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID == 0 {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID must be set when TELEGRAM_TOKEN is set")
	}
	if cfg.DiscordWebhookURL == "" && cfg.TelegramToken == "" {
		return nil, fmt.Errorf("no notification sink configured: set DISCORD_WEBHOOK_URL and/or TELEGRAM_TOKEN")
	}

	if cfg.CheckInterval, err = envSeconds("CHECK_INTERVAL_SECONDS", 300); err != nil {
		return nil, err
	}
	if cfg.JitterMin, err = envSeconds("JITTER_MIN_SECONDS", 5); err != nil {
		return nil, err
	}
	if cfg.JitterMax, err = envSeconds("JITTER_MAX_SECONDS", 45); err != nil {
		return nil, err
	}
	if cfg.JitterMax < cfg.JitterMin {
		return nil, fmt.Errorf("JITTER_MAX_SECONDS (%v) is below JITTER_MIN_SECONDS (%v)", cfg.JitterMax, cfg.JitterMin)
	}

	if cfg.SleepStartHour, err = envHour("SLEEP_START_HOUR", 23); err != nil {
		return nil, err
	}
	if cfg.SleepEndHour, err = envHour("SLEEP_END_HOUR", 7); err != nil {
		return nil, err
	}

	if cfg.MaxChanges, err = envInt("MAX_CHANGES", 5); err != nil {
		return nil, err
	}
	if cfg.MaxChanges < 1 {
		return nil, fmt.Errorf("MAX_CHANGES must be at least 1")
	}
	if cfg.SettleDelay, err = envSeconds("SETTLE_DELAY_SECONDS", 5); err != nil {
		return nil, err
	}

	cfg.DigestEnabled = envOrDefault("DIGEST_ENABLED", "true") == "true"
	cfg.CronSpecDigest = envOrDefault("CRON_SPEC_DAILY_DIGEST", "0 8 * * *")

	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	cfg.LogLevel = strings.ToLower(envOrDefault("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(envOrDefault("ENVIRONMENT", "development"))

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envSeconds(key string, fallback int) (time.Duration, error) {
	n, err := envInt(key, fallback)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return time.Duration(n) * time.Second, nil
}

func envHour(key string, fallback int) (int, error) {
	n, err := envInt(key, fallback)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > 23 {
		return 0, fmt.Errorf("%s must be an hour between 0 and 23", key)
	}
	return n, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	DatabaseType   string
	DatabasePath   string
	DatabaseURL    string
	MigrationsPath string
	WordsPath      string

	// Payment provider (Blink GraphQL API)
	BlinkServer   string
	BlinkAPIKey   string
	BlinkWalletID string

	// Payment gating
	GamePriceSats       int64
	PaymentPollInterval time.Duration
	PaymentTimeout      time.Duration
	GatePolicy          string // "daily" or "free-plays"
	FreePlays           int

	// Play tokens
	PlayTokenSecret string
	PlayTokenTTL    time.Duration

	// Optional remote stats mirror; empty disables mirroring
	StatsMirrorURL string

	// Languages whose guesses are validated against the word list
	DictionaryCheckLangs []string
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := &Config{
		ServerPort:     getEnv("PORT", "8080"),
		DatabaseType:   getEnv("DB_TYPE", "sqlite"),
		DatabasePath:   getEnv("DB_PATH", "./turtleword.db"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		WordsPath:      getEnv("WORDS_PATH", "./words"),

		BlinkServer:   os.Getenv("BLINK_SERVER"),
		BlinkAPIKey:   os.Getenv("BLINK_API_KEY"),
		BlinkWalletID: os.Getenv("BLINK_WALLET_ID"),

		GamePriceSats:       getEnvInt64("GAME_PRICE_SATS", 100),
		PaymentPollInterval: getEnvDuration("PAYMENT_POLL_INTERVAL", time.Second),
		PaymentTimeout:      getEnvDuration("PAYMENT_TIMEOUT", 5*time.Minute),
		GatePolicy:          getEnv("GATE_POLICY", "daily"),
		FreePlays:           getEnvInt("FREE_PLAYS", 1),

		PlayTokenSecret: os.Getenv("PLAY_TOKEN_SECRET"),
		PlayTokenTTL:    getEnvDuration("PLAY_TOKEN_TTL", time.Hour),

		StatsMirrorURL: os.Getenv("STATS_MIRROR_URL"),

		DictionaryCheckLangs: []string{getEnv("DICTIONARY_CHECK_LANG", "english")},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks if all required configuration is present
func (c *Config) validate() error {
	if c.BlinkServer == "" {
		return fmt.Errorf("BLINK_SERVER is required")
	}
	if c.BlinkAPIKey == "" {
		return fmt.Errorf("BLINK_API_KEY is required")
	}
	if c.BlinkWalletID == "" {
		return fmt.Errorf("BLINK_WALLET_ID is required")
	}
	if c.PlayTokenSecret == "" {
		return fmt.Errorf("PLAY_TOKEN_SECRET is required")
	}
	switch c.GatePolicy {
	case "daily", "free-plays":
	default:
		return fmt.Errorf("unsupported GATE_POLICY: %s", c.GatePolicy)
	}
	if c.GamePriceSats <= 0 {
		return fmt.Errorf("GAME_PRICE_SATS must be positive")
	}
	return nil
}

// DictionaryCheckEnabled reports whether guesses in lang must appear in
// the language's word list
func (c *Config) DictionaryCheckEnabled(lang string) bool {
	for _, l := range c.DictionaryCheckLangs {
		if l == lang {
			return true
		}
	}
	return false
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

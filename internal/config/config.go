// Package config reads service settings from the environment, after loading
// an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port          string
	DBDriver      string
	DatabaseURL   string
	JWTSecret     string
	JWTExpiration time.Duration

	CoinGeckoURL    string
	CoinGeckoKey    string
	ExchangeRateURL string
	ExchangeRateKey string

	AdminKey           string
	ClerkSecretKey     string
	ClerkWebhookSecret string

	CORSOrigins []string
	LogLevel    string
	LogPretty   bool
	GinMode     string
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	cfg := read()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTool reads the configuration for command line tools, which need the
// store and price settings but none of the HTTP secrets.
func LoadTool() (*Config, error) {
	cfg := read()
	if err := cfg.validateStore(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func read() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          getEnv("PORT", "8080"),
		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		DatabaseURL:   getEnv("DATABASE_URL", "database/ledger.db"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTExpiration: time.Duration(getEnvAsInt("JWT_EXPIRATION", 3600*24*7)) * time.Second,

		CoinGeckoURL:    getEnv("COIN_GECKO_URL", "https://api.coingecko.com/api/v3"),
		CoinGeckoKey:    getEnv("COIN_GECKO_KEY", ""),
		ExchangeRateURL: getEnv("EXCHANGE_RATE_URL", "https://v6.exchangerate-api.com/v6"),
		ExchangeRateKey: getEnv("EXCHANGE_RATE_KEY", ""),

		AdminKey:           getEnv("ADMIN_KEY", ""),
		ClerkSecretKey:     getEnv("CLERK_SECRET_KEY", ""),
		ClerkWebhookSecret: getEnv("CLERK_WEBHOOK_SECRET", ""),

		CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogPretty:   getEnvAsBool("LOG_PRETTY", false),
		GinMode:     getEnv("GIN_MODE", "release"),
	}
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTExpiration <= 0 {
		return fmt.Errorf("JWT_EXPIRATION must be positive")
	}
	return c.validateStore()
}

func (c *Config) validateStore() error {
	if c.DBDriver != DriverSQLite && c.DBDriver != DriverPostgres {
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.DBDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fallback
		}
		return i
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fallback
		}
		return b
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

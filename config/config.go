package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/tabula-io/tabula-backend/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// Config holds application configuration values
type Config struct {
	ServerPort   string
	JWTSecret    string
	DatabasePath string
	TablesFile   string
	AdminGroup   string

	// RateLimitPerMinute caps requests per client IP per minute.
	RateLimitPerMinute int

	// StrictQuery rejects a request on any dropped filter/sort segment
	// instead of proceeding with the valid remainder.
	StrictQuery bool
	// StrictFilterTypes drops filter values that do not coerce to the
	// field's declared type instead of binding them as raw strings.
	StrictFilterTypes bool
}

// LoadConfig loads configuration from environment variables.
// It uses a .env file for local development if present (ignores it for production).
func LoadConfig() (*Config, error) {
	customLog.Println("Loading configuration from environment variables...")

	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			customLog.Warnf("Warning: Error loading .env file: %v", err)
		}
	}

	port := getEnv("SERVER_PORT", "8080")
	jwtSecret := getEnv("JWT_SECRET", "") // No sensible default for secret!
	dbPath := getEnv("DATABASE_PATH", "data/app.db")
	tablesFile := getEnv("TABLES_FILE", "tables.json")
	adminGroup := getEnv("ADMIN_GROUP", "admin")

	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable must be set")
	}
	if jwtSecret == "!!replace_this_with_a_real_secret_key!!" {
		customLog.Warnln("WARNING: JWT_SECRET is set to the default placeholder!")
	}

	cfg := &Config{
		ServerPort:         port,
		JWTSecret:          jwtSecret,
		DatabasePath:       dbPath,
		TablesFile:         tablesFile,
		AdminGroup:         adminGroup,
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		StrictQuery:        getEnvBool("STRICT_QUERY", false),
		StrictFilterTypes:  getEnvBool("STRICT_FILTER_TYPES", false),
	}

	customLog.Printf("Configuration loaded successfully. Port: %s, Tables: %s", cfg.ServerPort, cfg.TablesFile)
	return cfg, nil
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt reads a positive integer environment variable, keeping the
// fallback on unparseable or non-positive values.
func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		customLog.Warnf("Invalid value for %s: '%s'. Using default %d.", key, value, fallback)
		return fallback
	}
	return parsed
}

// getEnvBool reads a boolean environment variable, keeping the fallback on
// unparseable values.
func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		customLog.Warnf("Invalid boolean for %s: '%s'. Using default %v.", key, value, fallback)
		return fallback
	}
	return parsed
}

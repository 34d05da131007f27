package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Login modes accepted by LOGIN_FIELD.
const (
	LoginByName  = "name"
	LoginByEmail = "email"
)

// Config holds the reference server configuration loaded from environment.
type Config struct {
	IsProduction      bool
	LogLevel          string
	ProdOrigins       string
	HTTPAddr          string
	DBDSN             string
	JWTSecret         string
	JWTAccessTokenTTL time.Duration
	BcryptCost        int
	StoragePath       string
	AuthRateLimit     int // per IP per minute on /login and /signup
}

// ClientConfig holds the planner client configuration.
type ClientConfig struct {
	IsProduction       bool
	LogLevel           string
	APIBaseURL         string
	APITimeout         time.Duration
	RateLimit          float64 // requests per second, 0 disables pacing
	RateBurst          int
	LoginField         string
	SessionFile        string
	UploadMaxDimension int
	BookingIdempotency bool
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{}

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// Application environment (default: dev)
	cfg.IsProduction = getEnv("APP_ENV", "dev") == PROD_STRING
	cfg.LogLevel = getEnv("LOG_LEVEL", "")

	// HTTP listen address (default: :8085, the port the front-end expects)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8085")

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	// JWT secret is required for signing tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	ttl, err := getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 10*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_TOKEN_TTL: %w", err)
	}
	cfg.JWTAccessTokenTTL = ttl

	// Bcrypt cost for password hashing (default: 12)
	cfg.BcryptCost, err = getEnvAsInt("BCRYPT_COST", 12)
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	// Uploaded images land here
	cfg.StoragePath = getEnv("STORAGE_PATH", "./storage")

	cfg.AuthRateLimit, err = getEnvAsInt("AUTH_RATE_LIMIT", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_RATE_LIMIT: %w", err)
	}

	return cfg, nil
}

// LoadClient loads the planner configuration. Nothing is required; every
// setting has a default suitable for a local reference server.
func LoadClient() (*ClientConfig, error) {
	loadDotEnv()

	cfg := &ClientConfig{}
	cfg.IsProduction = getEnv("APP_ENV", "dev") == PROD_STRING
	cfg.LogLevel = getEnv("LOG_LEVEL", "warn")
	cfg.APIBaseURL = getEnv("API_BASE_URL", "http://localhost:8085")

	var err error
	cfg.APITimeout, err = getEnvAsDuration("API_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid API_TIMEOUT: %w", err)
	}

	if v := getEnv("API_RATE_LIMIT", ""); v != "" {
		cfg.RateLimit, err = strconv.ParseFloat(v, 64)
		if err != nil || cfg.RateLimit < 0 {
			return nil, fmt.Errorf("invalid API_RATE_LIMIT %q", v)
		}
	}
	cfg.RateBurst, err = getEnvAsInt("API_RATE_BURST", 1)
	if err != nil {
		return nil, fmt.Errorf("invalid API_RATE_BURST: %w", err)
	}

	cfg.LoginField = getEnv("LOGIN_FIELD", LoginByName)
	if cfg.LoginField != LoginByName && cfg.LoginField != LoginByEmail {
		return nil, fmt.Errorf("LOGIN_FIELD must be %q or %q, got %q", LoginByName, LoginByEmail, cfg.LoginField)
	}

	cfg.SessionFile = getEnv("SESSION_FILE", defaultSessionFile())

	cfg.UploadMaxDimension, err = getEnvAsInt("UPLOAD_MAX_DIMENSION", 1600)
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_MAX_DIMENSION: %w", err)
	}

	if v := getEnv("BOOKING_IDEMPOTENCY", ""); v != "" {
		cfg.BookingIdempotency, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid BOOKING_IDEMPOTENCY: %w", err)
		}
	}

	return cfg, nil
}

func loadDotEnv() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to load .env file: %v", err)
	}
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".planner-session.json"
	}
	return filepath.Join(dir, "event-planner", "session.json")
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		// Return 0 and a wrapped error to provide context
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

// getEnvAsDuration parses values like "15m" or "1h".
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}
	return val, nil
}

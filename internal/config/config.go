package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change-this-jwt-secret-in-production"

const (
	// SessionDuration is the fixed lifetime of a session token
	SessionDuration = 7 * 24 * time.Hour
	// ResetTokenTTL is the fixed lifetime of a password reset token
	ResetTokenTTL = time.Hour
)

// Config holds application configuration
type Config struct {
	ServerPort string

	DatabaseType string
	DatabasePath string
	DatabaseURL  string

	JWTSecret       string
	JWTIssuer       string
	SecretKey       string
	SessionDuration time.Duration
	ResetTokenTTL   time.Duration
	BcryptCost      int

	AppBaseURL   string
	AWSRegion    string
	SESFromEmail string
	SESFromName  string

	AllowedOrigins  []string
	RateLimit       int
	RateLimitWindow time.Duration
	TrustProxy      bool

	LogLevel string
	LogFile  string
	Debug    bool
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present; variables
// already set in the environment win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		DatabaseType:    getEnv("DB_TYPE", "sqlite"),
		DatabasePath:    getEnv("DB_PATH", "./kawan_umkm.db"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		JWTSecret:       getEnv("JWT_SECRET_KEY", defaultJWTSecret),
		JWTIssuer:       getEnv("JWT_ISSUER", "kawan-umkm"),
		SecretKey:       getEnv("SECRET_KEY", ""),
		SessionDuration: SessionDuration,
		ResetTokenTTL:   ResetTokenTTL,
		BcryptCost:      getEnvInt("BCRYPT_COST", 12),
		AppBaseURL:      strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:5173"), "/"),
		AWSRegion:       getEnv("AWS_REGION", "ap-southeast-1"),
		SESFromEmail:    getEnv("SES_FROM_EMAIL", ""),
		SESFromName:     getEnv("SES_FROM_NAME", "Kawan UMKM"),
		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{
			"https://kawan-umkm-sekawanpapat.netlify.app",
			"http://localhost:3000",
			"http://localhost:5173",
		}),
		RateLimit:       getEnvInt("RATE_LIMIT_REQUESTS", 10),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		TrustProxy:      getEnvBool("TRUST_PROXY", false),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFile:         getEnv("LOG_FILE", ""),
		Debug:           getEnvBool("DEBUG", false),
	}
}

// Validate reports configuration that would make the server unsafe to run.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is required"))
	} else if c.JWTSecret == defaultJWTSecret && !c.Debug {
		errs = append(errs, errors.New("JWT_SECRET_KEY must be changed from the default outside debug mode"))
	}
	if c.BcryptCost < 10 || c.BcryptCost > 14 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 10 and 14, got %d", c.BcryptCost))
	}
	if c.SessionDuration <= 0 {
		errs = append(errs, errors.New("session duration must be positive"))
	}
	if c.ResetTokenTTL <= 0 {
		errs = append(errs, errors.New("reset token lifetime must be positive"))
	}
	switch strings.ToLower(c.DatabaseType) {
	case "sqlite", "sqlite3", "":
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for %s", c.DatabaseType))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_TYPE: %s", c.DatabaseType))
	}
	return errors.Join(errs...)
}

// ResetDigestKey returns the key used to digest reset tokens before storage.
// It falls back to the JWT secret so a single secret is enough for small deployments.
func (c *Config) ResetDigestKey() string {
	if c.SecretKey != "" {
		return c.SecretKey
	}
	return c.JWTSecret
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

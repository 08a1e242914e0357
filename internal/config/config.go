package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	App      AppSettings
	Database DatabaseConfig
	JWT      JWTConfig
	Auth     AuthConfig
	Security SecurityConfig
	CORS     CORSConfig
	Cookie   CookieConfig
}

// AppSettings holds core application settings
type AppSettings struct {
	Port     string
	Mode     string
	LogLevel string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessTokenMins  int
	RefreshTokenDays int
}

// AuthConfig holds login and session policy
type AuthConfig struct {
	MaxLoginAttempts    int
	LockoutDurationMins int
	SessionTimeoutMins  int
	PasswordMinLength   int
	Require2FA          bool
}

// SecurityConfig holds encryption and audit policy
type SecurityConfig struct {
	EncryptionKey      string
	AuditRetentionDays int
}

// CORSConfig holds allowed origins
type CORSConfig struct {
	Origins string
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Get APP_MODE (default to "development") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "development"))
	if appMode != "development" && appMode != "production" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'development' or 'production')", appMode)
	}

	config := &Config{
		App: AppSettings{
			Port:     getEnv("PORT", "8000"),
			Mode:     appMode,
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "root:@tcp(localhost:3306)/financepro?charset=utf8mb4&parseTime=True&loc=Local"),
		},
		JWT: JWTConfig{
			Secret:           getEnv("SECRET_KEY", ""),
			AccessTokenMins:  getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30),
			RefreshTokenDays: getEnvInt("REFRESH_TOKEN_EXPIRE_DAYS", 7),
		},
		Auth: AuthConfig{
			MaxLoginAttempts:    getEnvInt("MAX_LOGIN_ATTEMPTS", 5),
			LockoutDurationMins: getEnvInt("LOCKOUT_DURATION_MINUTES", 30),
			SessionTimeoutMins:  getEnvInt("SESSION_TIMEOUT_MINUTES", 60),
			PasswordMinLength:   getEnvInt("PASSWORD_MIN_LENGTH", 8),
			Require2FA:          getEnvBool("REQUIRE_2FA", false),
		},
		Security: SecurityConfig{
			EncryptionKey:      getEnv("ENCRYPTION_KEY", ""),
			AuditRetentionDays: getEnvInt("AUDIT_LOG_RETENTION_DAYS", 365),
		},
		CORS: CORSConfig{
			Origins: getEnv("CORS_ORIGINS", ""),
		},
		Cookie: CookieConfig{
			Secure:   getEnvBool("COOKIE_SECURE", appMode == "production"),
			SameSite: getEnv("COOKIE_SAMESITE", "lax"),
			Domain:   getEnv("COOKIE_DOMAIN", ""),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	// Set global config
	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

// validate refuses to boot with keys that weaken tokens or PII encryption
func (c *Config) validate() error {
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("SECRET_KEY must be at least 32 characters (got %d)", len(c.JWT.Secret))
	}
	if len(c.Security.EncryptionKey) != 32 {
		return fmt.Errorf("ENCRYPTION_KEY must be exactly 32 characters (got %d)", len(c.Security.EncryptionKey))
	}
	if c.JWT.AccessTokenMins <= 0 || c.JWT.RefreshTokenDays <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	return nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with default value
func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using default %d", key, raw, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvBool gets a boolean environment variable with default value
func getEnvBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using default %t", key, raw, defaultValue)
		return defaultValue
	}
	return value
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.App.Mode == "development"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.App.Mode == "production"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	if c.CORS.Origins == "" {
		if c.IsDev() {
			return "*"
		}
		// Default production origin
		return "https://app.financepro.com.pa"
	}
	return c.CORS.Origins
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecretKey     = "jwt-signing-secret-for-tests-0123456789"
	testEncryptionKey = "0123456789abcdef0123456789abcdef"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_MODE", "development")
	t.Setenv("SECRET_KEY", testSecretKey)
	t.Setenv("ENCRYPTION_KEY", testEncryptionKey)
}

func TestLoad_PolicyDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Mode)
	assert.Equal(t, 30, cfg.JWT.AccessTokenMins)
	assert.Equal(t, 7, cfg.JWT.RefreshTokenDays)
	assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, 30, cfg.Auth.LockoutDurationMins)
	assert.Equal(t, 60, cfg.Auth.SessionTimeoutMins)
	assert.Equal(t, 8, cfg.Auth.PasswordMinLength)
	assert.False(t, cfg.Auth.Require2FA)
	assert.Equal(t, 365, cfg.Security.AuditRetentionDays)
	assert.False(t, cfg.Cookie.Secure)
	assert.Equal(t, "lax", cfg.Cookie.SameSite)

	assert.Same(t, cfg, AppConfig)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9100")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "15")
	t.Setenv("REFRESH_TOKEN_EXPIRE_DAYS", "30")
	t.Setenv("MAX_LOGIN_ATTEMPTS", "3")
	t.Setenv("REQUIRE_2FA", "true")
	t.Setenv("AUDIT_LOG_RETENTION_DAYS", "90")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.App.Port)
	assert.Equal(t, 15, cfg.JWT.AccessTokenMins)
	assert.Equal(t, 30, cfg.JWT.RefreshTokenDays)
	assert.Equal(t, 3, cfg.Auth.MaxLoginAttempts)
	assert.True(t, cfg.Auth.Require2FA)
	assert.Equal(t, 90, cfg.Security.AuditRetentionDays)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "abc")
	t.Setenv("REQUIRE_2FA", "maybe")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.JWT.AccessTokenMins)
	assert.False(t, cfg.Auth.Require2FA)
}

func TestLoad_InvalidMode(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_MODE", "staging")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid APP_MODE")
}

func TestLoad_RejectsShortSecretKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SECRET_KEY", "too-short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECRET_KEY")
}

func TestLoad_RejectsBadEncryptionKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENCRYPTION_KEY", "only-31-characters-long-0123456")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENCRYPTION_KEY")
}

func TestLoad_RejectsNonPositiveLifetimes(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token lifetimes")
}

func TestConfig_Modes(t *testing.T) {
	dev := &Config{App: AppSettings{Mode: "development"}}
	assert.True(t, dev.IsDev())
	assert.False(t, dev.IsProd())

	prod := &Config{App: AppSettings{Mode: "production"}}
	assert.True(t, prod.IsProd())
	assert.False(t, prod.IsDev())
}

func TestConfig_GetAllowedOrigins(t *testing.T) {
	dev := &Config{App: AppSettings{Mode: "development"}}
	assert.Equal(t, "*", dev.GetAllowedOrigins())

	prod := &Config{App: AppSettings{Mode: "production"}}
	assert.Equal(t, "https://app.financepro.com.pa", prod.GetAllowedOrigins())

	explicit := &Config{
		App:  AppSettings{Mode: "production"},
		CORS: CORSConfig{Origins: "https://sucursal.financepro.com.pa"},
	}
	assert.Equal(t, "https://sucursal.financepro.com.pa", explicit.GetAllowedOrigins())
}

package handlers

import (
	"net/http/httptest"
	"testing"

	"financepro-backend/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_Root(t *testing.T) {
	prev := config.AppConfig
	config.AppConfig = &config.Config{App: config.AppSettings{Mode: "development"}}
	t.Cleanup(func() { config.AppConfig = prev })

	app := fiber.New()
	app.Get("/", NewHealthHandler().Root)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := parseBody(t, resp)
	assert.Equal(t, "running", body["status"])
	assert.Equal(t, "development", body["mode"])
	assert.Equal(t, "/swagger/index.html", body["docs"])
}

func TestHealthHandler_HealthCheck_DatabaseUnavailable(t *testing.T) {
	prev := config.AppConfig
	config.AppConfig = &config.Config{Auth: config.AuthConfig{Require2FA: true}}
	t.Cleanup(func() { config.AppConfig = prev })

	app := fiber.New()
	app.Get("/health", NewHealthHandler().HealthCheck)

	// No database connection exists in the test binary
	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	body := parseBody(t, resp)
	assert.Equal(t, "degraded", body["status"])

	checks, ok := body["checks"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "healthy", checks["api"])
	assert.Equal(t, "unhealthy", checks["database"])

	features, ok := body["security_features"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, features["2fa_required"])
	assert.Equal(t, true, features["pii_encryption"])
}

package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"financepro-backend/internal/config"
	"financepro-backend/internal/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestCustomErrorHandler_FiberError(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: CustomErrorHandler})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "short and stout", body["message"])
}

func TestCustomErrorHandler_PlainError(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: CustomErrorHandler})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("sql: connection refused")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	// Internal error text must not reach the client
	body := decodeBody(t, resp)
	assert.Equal(t, "Internal Server Error", body["message"])
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "middleware-test-secret-0123456789"}}

	app := fiber.New()
	app.Get("/protegido", AuthMiddleware(cfg), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":     c.Locals("userID"),
			"rol":         c.Locals("rol"),
			"sucursal_id": c.Locals("sucursalID"),
		})
	})

	t.Run("missing token", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protegido", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "Access token required", body["error"])
	})

	t.Run("bearer header", func(t *testing.T) {
		token, err := jwt.GenerateAccessToken("user-1", "maria@financepro.com", "GERENTE", "suc-1", cfg.JWT.Secret, 30)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/protegido", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "user-1", body["user_id"])
		assert.Equal(t, "GERENTE", body["rol"])
		assert.Equal(t, "suc-1", body["sucursal_id"])
	})

	t.Run("cookie", func(t *testing.T) {
		token, err := jwt.GenerateAccessToken("user-2", "carlos@financepro.com", "EMPLEADO", "suc-2", cfg.JWT.Secret, 30)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/protegido", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: token})

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "user-2", body["user_id"])
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := jwt.GenerateAccessToken("user-1", "maria@financepro.com", "ADMIN", "", cfg.JWT.Secret, -1)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/protegido", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "Access token expired", body["error"])
	})

	t.Run("refresh token rejected on protected routes", func(t *testing.T) {
		token, err := jwt.GenerateRefreshToken("user-1", "maria@financepro.com", cfg.JWT.Secret, 7)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/protegido", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "Invalid access token", body["error"])
	})
}

func TestRoleMiddleware(t *testing.T) {
	newApp := func(rol string) *fiber.App {
		app := fiber.New()
		app.Use(func(c *fiber.Ctx) error {
			if rol != "" {
				c.Locals("rol", rol)
			}
			return c.Next()
		})
		app.Delete("/solo-admin", AdminOnly(), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})
		return app
	}

	t.Run("admin allowed", func(t *testing.T) {
		resp, err := newApp("ADMIN").Test(httptest.NewRequest(http.MethodDelete, "/solo-admin", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("employee forbidden", func(t *testing.T) {
		resp, err := newApp("EMPLEADO").Test(httptest.NewRequest(http.MethodDelete, "/solo-admin", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("no role in context", func(t *testing.T) {
		resp, err := newApp("").Test(httptest.NewRequest(http.MethodDelete, "/solo-admin", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestGerenteOrAdmin(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("rol", "GERENTE")
		return c.Next()
	})
	app.Post("/bloquear", GerenteOrAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/bloquear", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthRateLimiter(t *testing.T) {
	app := fiber.New()
	app.Post("/login", AuthRateLimiter(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, "request %d", i+1)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "Too many login attempts, wait a minute before retrying", body["error"])
}

func TestStrictRateLimiter(t *testing.T) {
	app := fiber.New()
	app.Get("/pii", StrictRateLimiter(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/pii", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, "request %d", i+1)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/pii", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestCatalogCache(t *testing.T) {
	app := fiber.New()
	app.Get("/catalogos", CatalogCache(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/catalogos", nil))
	require.NoError(t, err)
	assert.Equal(t, "public, max-age=3600", resp.Header.Get("Cache-Control"))
}

func TestCacheControl_SkipsErrorResponses(t *testing.T) {
	app := fiber.New()
	app.Get("/catalogos", CatalogCache(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNotFound)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/catalogos", nil))
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get("Cache-Control"))
}

func TestNoCacheHeaders(t *testing.T) {
	app := fiber.New()
	app.Get("/pii", NoCacheHeaders(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/pii", nil))
	require.NoError(t, err)
	assert.Equal(t, "no-store, no-cache, must-revalidate", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "no-cache", resp.Header.Get("Pragma"))
	assert.Equal(t, "0", resp.Header.Get("Expires"))
}

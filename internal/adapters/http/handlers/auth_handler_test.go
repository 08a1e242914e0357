package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"financepro-backend/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestAuthHandler_Login_Validation(t *testing.T) {
	h := NewAuthHandler(nil, nil, &config.Config{})
	app := fiber.New()
	app.Post("/auth/login", h.Login)

	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{"malformed json", `{"email": `, "Invalid request body"},
		{"missing email", `{"password":"Secreta123","sucursal_id":"suc-1"}`, "Email is required"},
		{"missing password", `{"email":"maria@financepro.com","sucursal_id":"suc-1"}`, "Password is required"},
		{"missing branch", `{"email":"maria@financepro.com","password":"Secreta123"}`, "Branch is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(jsonRequest(t, "POST", "/auth/login", tt.body))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

			body := parseBody(t, resp)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestAuthHandler_VerifyTwoFactor_Validation(t *testing.T) {
	h := NewAuthHandler(nil, nil, &config.Config{})
	app := fiber.New()
	app.Post("/auth/verify-2fa", h.VerifyTwoFactor)

	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{"missing pending token", `{"code":"123456"}`, "Pending token is required"},
		{"missing code", `{"pending_token":"abc"}`, "Code is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(jsonRequest(t, "POST", "/auth/verify-2fa", tt.body))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.wantError, parseBody(t, resp)["error"])
		})
	}
}

func TestAuthHandler_Refresh_MissingToken(t *testing.T) {
	h := NewAuthHandler(nil, nil, &config.Config{})
	app := fiber.New()
	app.Post("/auth/refresh", h.Refresh)

	resp, err := app.Test(httptest.NewRequest("POST", "/auth/refresh", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Refresh token not found", parseBody(t, resp)["error"])
}

func TestAuthHandler_Logout_WithoutSession(t *testing.T) {
	h := NewAuthHandler(nil, nil, &config.Config{})
	app := fiber.New()
	app.Post("/auth/logout", h.Logout)

	resp, err := app.Test(httptest.NewRequest("POST", "/auth/logout", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logged out successfully", parseBody(t, resp)["message"])

	// Both auth cookies must be cleared even when no session existed
	var cleared []string
	for _, ck := range resp.Cookies() {
		assert.Empty(t, ck.Value)
		cleared = append(cleared, ck.Name)
	}
	assert.Contains(t, cleared, "access_token")
	assert.Contains(t, cleared, "refresh_token")
}

func TestAuthHandler_SetupTwoFactor_RequiresAuth(t *testing.T) {
	h := NewAuthHandler(nil, nil, &config.Config{})
	app := fiber.New()
	app.Post("/auth/2fa/setup", h.SetupTwoFactor)

	resp, err := app.Test(httptest.NewRequest("POST", "/auth/2fa/setup", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Unauthorized", parseBody(t, resp)["error"])
}

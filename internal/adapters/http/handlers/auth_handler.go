package handlers

import (
	"errors"
	"strings"
	"time"

	"financepro-backend/internal/config"
	"financepro-backend/internal/core/domain"
	"financepro-backend/internal/core/services"
	"financepro-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService      *services.AuthService
	twoFactorService *services.TwoFactorService
	cfg              *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, twoFactorService *services.TwoFactorService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService:      authService,
		twoFactorService: twoFactorService,
		cfg:              cfg,
	}
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	SucursalID string `json:"sucursal_id"`
}

// LoginSimpleRequest represents login request body without branch selection
type LoginSimpleRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyTwoFactorRequest represents the second step of a 2FA login
type VerifyTwoFactorRequest struct {
	PendingToken string `json:"pending_token"`
	Code         string `json:"code"`
}

// RefreshRequest represents token refresh request body
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// EnableTwoFactorRequest represents 2FA enable request body
type EnableTwoFactorRequest struct {
	Code string `json:"code"`
}

// DisableTwoFactorRequest represents 2FA disable request body
type DisableTwoFactorRequest struct {
	Password string `json:"password"`
}

// Login handles branch-scoped user login
// @Summary Login user
// @Description Authenticate against a branch and return tokens, or a pending token when 2FA is enabled
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 423 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	// Validate required fields
	if req.Email == "" {
		return response.BadRequest(c, "Email is required")
	}
	if req.Password == "" {
		return response.BadRequest(c, "Password is required")
	}
	if req.SucursalID == "" {
		return response.BadRequest(c, "Branch is required")
	}

	result, err := h.authService.Login(c.Context(), &services.LoginInput{
		Email:      strings.TrimSpace(strings.ToLower(req.Email)),
		Password:   req.Password,
		SucursalID: req.SucursalID,
		IPAddress:  c.IP(),
		UserAgent:  c.Get("User-Agent"),
	})
	if err != nil {
		return h.mapLoginError(c, err)
	}

	return h.sendLoginResult(c, result)
}

// LoginSimple handles login without branch selection
// @Summary Login user without branch
// @Description Authenticate with email and password only, the user's home branch is assumed
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginSimpleRequest true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 423 {object} response.Response
// @Router /auth/login-simple [post]
func (h *AuthHandler) LoginSimple(c *fiber.Ctx) error {
	var req LoginSimpleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Email == "" {
		return response.BadRequest(c, "Email is required")
	}
	if req.Password == "" {
		return response.BadRequest(c, "Password is required")
	}

	result, err := h.authService.LoginSimple(c.Context(), &services.LoginInput{
		Email:     strings.TrimSpace(strings.ToLower(req.Email)),
		Password:  req.Password,
		IPAddress: c.IP(),
		UserAgent: c.Get("User-Agent"),
	})
	if err != nil {
		return h.mapLoginError(c, err)
	}

	return h.sendLoginResult(c, result)
}

// VerifyTwoFactor completes a 2FA login
// @Summary Verify 2FA code
// @Description Exchange a pending token plus a TOTP code for the session tokens
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body VerifyTwoFactorRequest true "Pending token and TOTP code"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 423 {object} response.Response
// @Router /auth/verify-2fa [post]
func (h *AuthHandler) VerifyTwoFactor(c *fiber.Ctx) error {
	var req VerifyTwoFactorRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.PendingToken == "" {
		return response.BadRequest(c, "Pending token is required")
	}
	if req.Code == "" {
		return response.BadRequest(c, "Code is required")
	}

	result, err := h.authService.VerifyTwoFactor(c.Context(), req.PendingToken, req.Code, c.IP(), c.Get("User-Agent"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenExpired):
			return response.Unauthorized(c, "2FA window expired, please login again")
		case errors.Is(err, domain.ErrTokenInvalid):
			return response.Unauthorized(c, "Invalid pending token")
		case errors.Is(err, domain.ErrTwoFactorInvalid):
			return response.Unauthorized(c, "Invalid 2FA code")
		case errors.Is(err, domain.ErrAccountLocked):
			return response.Locked(c, "Account is temporarily locked")
		case errors.Is(err, domain.ErrAccountInactive):
			return response.Forbidden(c, "User account is inactive")
		default:
			return response.InternalServerError(c, "Failed to verify 2FA code")
		}
	}

	return h.sendLoginResult(c, result)
}

// Refresh handles token refresh
// @Summary Refresh access token
// @Description Rotate the session using the refresh token from the cookie or body
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	refreshToken := c.Cookies("refresh_token")
	if refreshToken == "" {
		var req RefreshRequest
		if err := c.BodyParser(&req); err == nil {
			refreshToken = req.RefreshToken
		}
	}
	if refreshToken == "" {
		return response.Unauthorized(c, "Refresh token not found")
	}

	result, err := h.authService.Refresh(c.Context(), refreshToken, c.IP(), c.Get("User-Agent"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenExpired):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Refresh token expired, please login again")
		case errors.Is(err, domain.ErrSessionRevoked):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Session revoked, please login again")
		case errors.Is(err, domain.ErrTokenInvalid):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Invalid refresh token")
		case errors.Is(err, domain.ErrAccountInactive):
			h.clearAuthCookies(c)
			return response.Forbidden(c, "User account is inactive")
		default:
			return response.InternalServerError(c, "Failed to refresh token")
		}
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)

	return response.Success(c, "Token refreshed successfully", fiber.Map{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"user":          result.User,
	})
}

// Logout handles user logout
// @Summary Logout user
// @Description Revoke the current session and clear cookies
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	refreshToken := c.Cookies("refresh_token")
	if refreshToken == "" {
		var req RefreshRequest
		if err := c.BodyParser(&req); err == nil {
			refreshToken = req.RefreshToken
		}
	}

	if refreshToken != "" {
		_ = h.authService.Logout(c.Context(), refreshToken, c.IP(), c.Get("User-Agent"))
	}

	h.clearAuthCookies(c)

	return response.Success(c, "Logged out successfully", nil)
}

// SetupTwoFactor generates the TOTP secret for the current user
// @Summary Setup 2FA
// @Description Generate a TOTP secret and otpauth URL. 2FA stays disabled until confirmed.
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /auth/2fa/setup [post]
func (h *AuthHandler) SetupTwoFactor(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	setup, err := h.twoFactorService.Setup(c.Context(), userID, c.IP(), c.Get("User-Agent"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTwoFactorEnabled):
			return response.Conflict(c, "2FA is already enabled")
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		default:
			return response.InternalServerError(c, "Failed to setup 2FA")
		}
	}

	return response.Success(c, "2FA secret generated", fiber.Map{
		"secret":      setup.Secret,
		"otpauth_url": setup.OtpauthURL,
	})
}

// EnableTwoFactor confirms the TOTP setup with a first valid code
// @Summary Enable 2FA
// @Description Confirm the generated secret with a valid TOTP code
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body EnableTwoFactorRequest true "TOTP code"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/2fa/enable [post]
func (h *AuthHandler) EnableTwoFactor(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req EnableTwoFactorRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Code == "" {
		return response.BadRequest(c, "Code is required")
	}

	if err := h.twoFactorService.Enable(c.Context(), userID, req.Code, c.IP(), c.Get("User-Agent")); err != nil {
		switch {
		case errors.Is(err, domain.ErrTwoFactorInvalid):
			return response.BadRequest(c, "Invalid 2FA code")
		case errors.Is(err, domain.ErrTwoFactorEnabled):
			return response.Conflict(c, "2FA is already enabled")
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		default:
			return response.InternalServerError(c, "Failed to enable 2FA")
		}
	}

	return response.Success(c, "2FA enabled successfully", nil)
}

// DisableTwoFactor turns 2FA off after re-checking the password
// @Summary Disable 2FA
// @Description Disable 2FA for the current user, requires the account password
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body DisableTwoFactorRequest true "Account password"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/2fa/disable [post]
func (h *AuthHandler) DisableTwoFactor(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req DisableTwoFactorRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Password == "" {
		return response.BadRequest(c, "Password is required")
	}

	if err := h.twoFactorService.Disable(c.Context(), userID, req.Password, c.IP(), c.Get("User-Agent")); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			return response.Unauthorized(c, "Invalid password")
		case errors.Is(err, domain.ErrTwoFactorNotEnabled):
			return response.Conflict(c, "2FA is not enabled")
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		default:
			return response.InternalServerError(c, "Failed to disable 2FA")
		}
	}

	return response.Success(c, "2FA disabled successfully", nil)
}

// ListSessions lists the current user's active sessions
// @Summary List active sessions
// @Description List the active sessions of the current user
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /sesiones [get]
func (h *AuthHandler) ListSessions(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	sessions, err := h.authService.ListSessions(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list sessions")
	}

	return response.Success(c, "Sessions retrieved successfully", fiber.Map{
		"sessions": sessions,
	})
}

// RevokeSession revokes one of the current user's sessions
// @Summary Revoke session
// @Description Revoke one of the current user's sessions by ID
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /sesiones/{id} [delete]
func (h *AuthHandler) RevokeSession(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.authService.RevokeSession(c.Context(), userID, c.Params("id")); err != nil {
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			return response.NotFound(c, "Session not found")
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "Cannot revoke another user's session")
		default:
			return response.InternalServerError(c, "Failed to revoke session")
		}
	}

	return response.Success(c, "Session revoked successfully", nil)
}

// mapLoginError translates login failures into status codes. A failing
// password attempt is always 401, even the one that trips the lock.
func (h *AuthHandler) mapLoginError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrSucursalNotFound):
		return response.NotFound(c, "Branch not found")
	case errors.Is(err, domain.ErrBranchInactive):
		return response.Forbidden(c, "Branch is inactive")
	case errors.Is(err, domain.ErrBranchAccessDenied):
		return response.Forbidden(c, "User does not belong to this branch")
	case errors.Is(err, domain.ErrInvalidCredentials):
		return response.Unauthorized(c, "Invalid email or password")
	case errors.Is(err, domain.ErrAccountLocked):
		return response.Locked(c, "Account is temporarily locked, try again later")
	case errors.Is(err, domain.ErrAccountInactive):
		return response.Forbidden(c, "User account is inactive")
	default:
		return response.InternalServerError(c, "Failed to login")
	}
}

// sendLoginResult sends either the pending 2FA challenge or the tokens
func (h *AuthHandler) sendLoginResult(c *fiber.Ctx, result *services.LoginResult) error {
	if result.RequiresTwoFactor {
		return response.Success(c, "2FA code required", fiber.Map{
			"requires_2fa":  true,
			"pending_token": result.PendingToken,
		})
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)

	return response.Success(c, "Login successful", fiber.Map{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"user":          result.User,
	})
}

// setAuthCookies sets access and refresh token cookies
func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	// Access token cookie (shorter expiry)
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		MaxAge:   h.cfg.JWT.AccessTokenMins * 60, // Convert minutes to seconds
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})

	// Refresh token cookie (longer expiry)
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   h.cfg.JWT.RefreshTokenDays * 24 * 60 * 60, // Convert days to seconds
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}

// clearAuthCookies clears auth cookies
func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Now().Add(-1 * time.Hour),
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})

	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Now().Add(-1 * time.Hour),
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}

// currentUserID reads the authenticated user ID set by the auth middleware
func currentUserID(c *fiber.Ctx) (string, bool) {
	userID, ok := c.Locals("userID").(string)
	return userID, ok && userID != ""
}

// currentRol reads the authenticated user's role set by the auth middleware
func currentRol(c *fiber.Ctx) string {
	rol, _ := c.Locals("rol").(string)
	return rol
}

// currentSucursalID reads the authenticated user's branch set by the auth middleware
func currentSucursalID(c *fiber.Ctx) string {
	sucursalID, _ := c.Locals("sucursalID").(string)
	return sucursalID
}

// requestContext builds the audit context of the current request
func requestContext(c *fiber.Ctx) services.RequestContext {
	userID, _ := currentUserID(c)
	return services.RequestContext{
		ActorID:   userID,
		IPAddress: c.IP(),
		UserAgent: c.Get("User-Agent"),
	}
}

package services

import (
	"context"
	"errors"
	"time"

	"financepro-backend/internal/adapters/persistence/models"
	"financepro-backend/internal/adapters/persistence/repositories"
	"financepro-backend/internal/config"
	"financepro-backend/internal/core/domain"
	"financepro-backend/internal/pkg/crypto"
	"financepro-backend/internal/pkg/jwt"
	"financepro-backend/internal/pkg/logger"
	"financepro-backend/internal/pkg/password"

	"gorm.io/gorm"
)

// AuthService handles authentication business logic
type AuthService struct {
	usuarioRepo  repositories.UsuarioRepository
	sucursalRepo *repositories.SucursalRepository
	sessionRepo  repositories.SessionRepository
	twoFactor    *TwoFactorService
	auditor      Auditor
	cfg          *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(
	usuarioRepo repositories.UsuarioRepository,
	sucursalRepo *repositories.SucursalRepository,
	sessionRepo repositories.SessionRepository,
	twoFactor *TwoFactorService,
	auditor Auditor,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		usuarioRepo:  usuarioRepo,
		sucursalRepo: sucursalRepo,
		sessionRepo:  sessionRepo,
		twoFactor:    twoFactor,
		auditor:      auditor,
		cfg:          cfg,
	}
}

// LoginInput represents login input
type LoginInput struct {
	Email      string
	Password   string
	SucursalID string
	IPAddress  string
	UserAgent  string
}

// LoginResult carries either a pending 2FA challenge or the issued pair
type LoginResult struct {
	RequiresTwoFactor bool                    `json:"requires_2fa"`
	PendingToken      string                  `json:"pending_token,omitempty"`
	User              *models.UsuarioResponse `json:"user,omitempty"`
	AccessToken       string                  `json:"access_token,omitempty"`
	RefreshToken      string                  `json:"refresh_token,omitempty"`
	SessionID         string                  `json:"-"`
}

// Login authenticates a user against a selected branch
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*LoginResult, error) {
	// 1. Branch must exist and be active
	sucursal, err := s.sucursalRepo.GetByID(ctx, input.SucursalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSucursalNotFound
		}
		return nil, err
	}
	if !sucursal.Activa {
		return nil, domain.ErrBranchInactive
	}

	// 2. Credential and lockout checks
	user, err := s.authenticate(ctx, input)
	if err != nil {
		return nil, err
	}

	// 3. Non-admin users only log into their own branch
	if user.Rol != models.RolAdmin && user.SucursalID != input.SucursalID {
		s.recordLoginAttempt(ctx, user.ID, input, false, "branch mismatch", nil)
		return nil, domain.ErrBranchAccessDenied
	}

	return s.completeLogin(ctx, user, input)
}

// LoginSimple authenticates against the user's assigned branch
func (s *AuthService) LoginSimple(ctx context.Context, input *LoginInput) (*LoginResult, error) {
	user, err := s.authenticate(ctx, input)
	if err != nil {
		return nil, err
	}
	input.SucursalID = user.SucursalID
	return s.completeLogin(ctx, user, input)
}

// VerifyTwoFactor exchanges a pending token plus a valid TOTP code for
// the real token pair
func (s *AuthService) VerifyTwoFactor(ctx context.Context, pendingToken, code, ip, userAgent string) (*LoginResult, error) {
	// 1. Validate the pending token
	claims, err := jwt.ValidatePendingToken(pendingToken, s.cfg.JWT.Secret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	// 2. Re-check the account state
	user, err := s.usuarioRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Activo {
		return nil, domain.ErrAccountInactive
	}
	if user.IsLocked() {
		return nil, domain.ErrAccountLocked
	}

	// 3. Validate the code against the stored secret
	valid, err := s.twoFactor.VerifyCode(user, code)
	if err != nil {
		return nil, err
	}
	if !valid {
		s.auditor.Record(ctx, AuditEntry{
			UsuarioID:     user.ID,
			EventType:     models.AuditEventLoginAttempt,
			ResourceType:  "usuario",
			ResourceID:    user.ID,
			Action:        "verify_2fa",
			IPAddress:     ip,
			UserAgent:     userAgent,
			Success:       false,
			FailureReason: "invalid 2fa code",
		})
		return nil, domain.ErrTwoFactorInvalid
	}

	// 4. Issue the pair and open the session
	result, err := s.issueSession(ctx, user, ip, userAgent)
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    user.ID,
		EventType:    models.AuditEventLoginAttempt,
		ResourceType: "usuario",
		ResourceID:   user.ID,
		Action:       "verify_2fa",
		IPAddress:    ip,
		UserAgent:    userAgent,
		SessionID:    result.SessionID,
		Success:      true,
	})

	logger.Infof("✅ User logged in (2FA): %s", user.Email)
	return result, nil
}

// Refresh rotates a valid refresh token into a new pair. The old
// session row is revoked and a fresh one opened (token rotation).
func (s *AuthService) Refresh(ctx context.Context, refreshToken, ip, userAgent string) (*LoginResult, error) {
	// 1. Validate the refresh token JWT
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.Secret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	// 2. The hash must match a live session
	tokenHash := password.HashToken(refreshToken)
	session, err := s.sessionRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	if session.IsRevoked() {
		return nil, domain.ErrSessionRevoked
	}
	if session.IsExpired() {
		return nil, domain.ErrTokenExpired
	}

	// 3. The account must still be usable
	user, err := s.usuarioRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	if !user.Activo {
		return nil, domain.ErrAccountInactive
	}

	// 4. Rotate: revoke the old session, open a new one
	if err := s.sessionRepo.Revoke(ctx, session.ID); err != nil {
		return nil, err
	}

	result, err := s.issueSession(ctx, user, ip, userAgent)
	if err != nil {
		return nil, err
	}

	logger.Infof("✅ Token refreshed for %s", user.Email)
	return result, nil
}

// Logout revokes the session behind a refresh token. Unknown tokens are
// ignored so logout stays idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken, ip, userAgent string) error {
	if refreshToken == "" {
		return nil
	}

	tokenHash := password.HashToken(refreshToken)
	session, err := s.sessionRepo.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if err := s.sessionRepo.Revoke(ctx, session.ID); err != nil {
		return err
	}

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    session.UsuarioID,
		EventType:    models.AuditEventLogout,
		ResourceType: "usuario",
		ResourceID:   session.UsuarioID,
		Action:       "logout",
		IPAddress:    ip,
		UserAgent:    userAgent,
		SessionID:    session.ID,
		Success:      true,
	})

	logger.Infof("✅ User logged out (session %s)", session.ID)
	return nil
}

// ListSessions lists the caller's live sessions
func (s *AuthService) ListSessions(ctx context.Context, userID string) ([]*models.UserSession, error) {
	return s.sessionRepo.ListActiveByUserID(ctx, userID)
}

// RevokeSession revokes one of the caller's own sessions
func (s *AuthService) RevokeSession(ctx context.Context, userID, sessionID string) error {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrSessionNotFound
		}
		return err
	}
	if session.UsuarioID != userID {
		return domain.ErrForbidden
	}
	return s.sessionRepo.Revoke(ctx, sessionID)
}

// PurgeSessions deletes expired, revoked and idle sessions
func (s *AuthService) PurgeSessions(ctx context.Context) (int64, error) {
	staleBefore := time.Now().Add(-time.Duration(s.cfg.Auth.SessionTimeoutMins) * time.Minute)
	return s.sessionRepo.DeleteExpired(ctx, staleBefore)
}

// authenticate resolves the email, enforces lockout and verifies the
// password. Shared by Login and LoginSimple.
func (s *AuthService) authenticate(ctx context.Context, input *LoginInput) (*models.Usuario, error) {
	// 1. Find user by principal or active secondary email
	user, err := s.findUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The attempted email is PII, only its masked form goes to the trail
			s.recordLoginAttempt(ctx, "", input, false, "unknown email", map[string]interface{}{
				"email": crypto.MaskEmail(input.Email),
			})
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Inactive accounts cannot log in
	if !user.Activo {
		s.recordLoginAttempt(ctx, user.ID, input, false, "account inactive", nil)
		return nil, domain.ErrAccountInactive
	}

	// 3. Honor an active lockout window
	if user.IsLocked() {
		s.recordLoginAttempt(ctx, user.ID, input, false, "account locked", map[string]interface{}{
			"locked_until": user.LockedUntil,
		})
		return nil, domain.ErrAccountLocked
	}

	// 4. Verify password, counting failures toward the lockout
	if !password.Verify(input.Password, user.HashedPassword) {
		s.registerFailedAttempt(ctx, user, input)
		return nil, domain.ErrInvalidCredentials
	}

	// 5. Success clears the counter and stamps last_login
	now := time.Now()
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLogin = &now
	if err := s.usuarioRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// completeLogin hands out either the 2FA challenge or the token pair
func (s *AuthService) completeLogin(ctx context.Context, user *models.Usuario, input *LoginInput) (*LoginResult, error) {
	if user.TwoFAEnabled {
		pending, err := jwt.GeneratePendingToken(user.ID, user.Email, s.cfg.JWT.Secret)
		if err != nil {
			return nil, err
		}
		s.recordLoginAttempt(ctx, user.ID, input, true, "", map[string]interface{}{
			"phase": "password",
			"2fa":   "pending",
		})
		logger.Infof("✅ Password accepted, 2FA pending: %s", user.Email)
		return &LoginResult{
			RequiresTwoFactor: true,
			PendingToken:      pending,
		}, nil
	}

	result, err := s.issueSession(ctx, user, input.IPAddress, input.UserAgent)
	if err != nil {
		return nil, err
	}

	s.recordLoginAttempt(ctx, user.ID, input, true, "", map[string]interface{}{
		"sucursal_id": input.SucursalID,
		"session_id":  result.SessionID,
	})

	logger.Infof("✅ User logged in: %s", user.Email)
	return result, nil
}

// issueSession generates the token pair and opens a session row
func (s *AuthService) issueSession(ctx context.Context, user *models.Usuario, ip, userAgent string) (*LoginResult, error) {
	accessToken, err := jwt.GenerateAccessToken(
		user.ID,
		user.Email,
		user.Rol,
		user.SucursalID,
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	refreshToken, err := jwt.GenerateRefreshToken(
		user.ID,
		user.Email,
		s.cfg.JWT.Secret,
		s.cfg.JWT.RefreshTokenDays,
	)
	if err != nil {
		return nil, err
	}

	session := &models.UserSession{
		UsuarioID:    user.ID,
		TokenHash:    password.HashToken(refreshToken),
		IPAddress:    ip,
		UserAgent:    userAgent,
		ExpiresAt:    jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays),
		LastActivity: time.Now(),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	return &LoginResult{
		User:         user.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionID:    session.ID,
	}, nil
}

// registerFailedAttempt bumps the failure counter and locks the account
// once it reaches the configured limit
func (s *AuthService) registerFailedAttempt(ctx context.Context, user *models.Usuario, input *LoginInput) {
	user.FailedLoginAttempts++
	if user.FailedLoginAttempts >= s.cfg.Auth.MaxLoginAttempts {
		lockedUntil := time.Now().Add(time.Duration(s.cfg.Auth.LockoutDurationMins) * time.Minute)
		user.LockedUntil = &lockedUntil
		logger.Warnf("⚠️ Account locked after %d failed attempts: %s", user.FailedLoginAttempts, user.Email)
	}
	if err := s.usuarioRepo.Update(ctx, user); err != nil {
		logger.Errorf("❌ Could not persist failed attempt for %s: %v", user.Email, err)
	}

	s.recordLoginAttempt(ctx, user.ID, input, false, "wrong password", map[string]interface{}{
		"failed_attempts": user.FailedLoginAttempts,
	})
}

// recordLoginAttempt writes the audit entry for one login attempt
func (s *AuthService) recordLoginAttempt(ctx context.Context, userID string, input *LoginInput, success bool, reason string, details map[string]interface{}) {
	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:     userID,
		EventType:     models.AuditEventLoginAttempt,
		ResourceType:  "usuario",
		ResourceID:    userID,
		Action:        "login",
		IPAddress:     input.IPAddress,
		UserAgent:     input.UserAgent,
		Details:       details,
		Success:       success,
		FailureReason: reason,
	})
}

// findUserByEmail checks the principal email first, then the active
// secondary emails
func (s *AuthService) findUserByEmail(ctx context.Context, email string) (*models.Usuario, error) {
	user, err := s.usuarioRepo.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return s.usuarioRepo.GetBySecondaryEmail(ctx, email)
}

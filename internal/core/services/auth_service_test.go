package services

import (
	"context"
	"testing"
	"time"

	"financepro-backend/internal/adapters/persistence/models"
	"financepro-backend/internal/config"
	"financepro-backend/internal/core/domain"
	"financepro-backend/internal/pkg/crypto"
	"financepro-backend/internal/pkg/jwt"
	"financepro-backend/internal/pkg/password"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type sessionRepoStub struct {
	sessions    map[string]*models.UserSession
	staleBefore time.Time
	purged      int64
}

func newSessionRepoStub() *sessionRepoStub {
	return &sessionRepoStub{sessions: make(map[string]*models.UserSession)}
}

func (s *sessionRepoStub) Create(_ context.Context, session *models.UserSession) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *sessionRepoStub) GetByID(_ context.Context, id string) (*models.UserSession, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return session, nil
}

func (s *sessionRepoStub) GetByTokenHash(_ context.Context, tokenHash string) (*models.UserSession, error) {
	for _, session := range s.sessions {
		if session.TokenHash == tokenHash {
			return session, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *sessionRepoStub) ListActiveByUserID(_ context.Context, userID string) ([]*models.UserSession, error) {
	var out []*models.UserSession
	for _, session := range s.sessions {
		if session.UsuarioID == userID && !session.IsRevoked() && !session.IsExpired() {
			out = append(out, session)
		}
	}
	return out, nil
}

func (s *sessionRepoStub) Revoke(_ context.Context, id string) error {
	session, ok := s.sessions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	session.RevokedAt = &now
	return nil
}

func (s *sessionRepoStub) RevokeAllByUserID(ctx context.Context, userID string) error {
	for id, session := range s.sessions {
		if session.UsuarioID == userID {
			if err := s.Revoke(ctx, id); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *sessionRepoStub) DeleteExpired(_ context.Context, staleBefore time.Time) (int64, error) {
	s.staleBefore = staleBefore
	return s.purged, nil
}

func newAuthService(t *testing.T, users ...*models.Usuario) (*AuthService, *usuarioRepoStub, *sessionRepoStub, *recordingAuditor) {
	t.Helper()

	cipher, err := crypto.NewCipher("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	userRepo := newUsuarioRepoStub(users...)
	sessionRepo := newSessionRepoStub()
	auditor := &recordingAuditor{}
	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:           "auth-service-test-secret-0123456789",
			AccessTokenMins:  30,
			RefreshTokenDays: 7,
		},
		Auth: config.AuthConfig{
			MaxLoginAttempts:    3,
			LockoutDurationMins: 30,
			SessionTimeoutMins:  60,
		},
	}

	svc := NewAuthService(userRepo, nil, sessionRepo, NewTwoFactorService(userRepo, cipher, auditor), auditor, cfg)
	return svc, userRepo, sessionRepo, auditor
}

func testUsuario(t *testing.T, plainPassword string) *models.Usuario {
	t.Helper()

	hash, err := password.Hash(plainPassword)
	require.NoError(t, err)
	return &models.Usuario{
		ID:             "user-1",
		CodigoEmpleado: "EMP001",
		Nombre:         "María",
		Apellido:       "Rodríguez",
		Email:          "maria@financepro.com",
		HashedPassword: hash,
		Rol:            models.RolEmpleado,
		SucursalID:     "suc-1",
		Activo:         true,
	}
}

func TestAuthService_LoginSimple(t *testing.T) {
	user := testUsuario(t, "Secreta123")
	user.FailedLoginAttempts = 2
	svc, repo, sessions, auditor := newAuthService(t, user)

	result, err := svc.LoginSimple(context.Background(), &LoginInput{
		Email:     "maria@financepro.com",
		Password:  "Secreta123",
		IPAddress: "10.0.0.5",
		UserAgent: "tests",
	})
	require.NoError(t, err)

	assert.False(t, result.RequiresTwoFactor)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	require.NotNil(t, result.User)
	assert.Equal(t, "user-1", result.User.ID)

	// A successful login clears the failure counter and opens a session
	assert.Zero(t, repo.users["user-1"].FailedLoginAttempts)
	assert.NotNil(t, repo.users["user-1"].LastLogin)
	assert.Len(t, sessions.sessions, 1)

	// The session stores the hash of the refresh token, never the token
	session := sessions.sessions[result.SessionID]
	require.NotNil(t, session)
	assert.Equal(t, password.HashToken(result.RefreshToken), session.TokenHash)

	require.NotEmpty(t, auditor.entries)
	assert.True(t, auditor.entries[len(auditor.entries)-1].Success)
}

func TestAuthService_LoginSimple_UnknownEmail(t *testing.T) {
	svc, _, _, auditor := newAuthService(t)

	_, err := svc.LoginSimple(context.Background(), &LoginInput{
		Email:    "nadie@financepro.com",
		Password: "Secreta123",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	require.Len(t, auditor.entries, 1)
	assert.False(t, auditor.entries[0].Success)
	assert.Empty(t, auditor.entries[0].UsuarioID)
}

func TestAuthService_LoginSimple_InactiveAccount(t *testing.T) {
	user := testUsuario(t, "Secreta123")
	user.Activo = false
	svc, _, _, _ := newAuthService(t, user)

	_, err := svc.LoginSimple(context.Background(), &LoginInput{
		Email:    "maria@financepro.com",
		Password: "Secreta123",
	})
	assert.ErrorIs(t, err, domain.ErrAccountInactive)
}

func TestAuthService_LoginSimple_LockoutAfterMaxAttempts(t *testing.T) {
	user := testUsuario(t, "Secreta123")
	svc, repo, _, _ := newAuthService(t, user)
	input := &LoginInput{Email: "maria@financepro.com", Password: "equivocada1"}

	// MaxLoginAttempts is 3 in the test config
	for i := 0; i < 3; i++ {
		_, err := svc.LoginSimple(context.Background(), input)
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials, "attempt %d", i+1)
	}

	stored := repo.users["user-1"]
	assert.Equal(t, 3, stored.FailedLoginAttempts)
	require.NotNil(t, stored.LockedUntil)
	assert.True(t, stored.IsLocked())

	// Even the right password is rejected while the lockout is active
	_, err := svc.LoginSimple(context.Background(), &LoginInput{
		Email:    "maria@financepro.com",
		Password: "Secreta123",
	})
	assert.ErrorIs(t, err, domain.ErrAccountLocked)
}

func TestAuthService_LoginSimple_TwoFactorChallenge(t *testing.T) {
	user := testUsuario(t, "Secreta123")
	svc, _, sessions, _ := newAuthService(t, user)

	// Enroll and enable 2FA first
	setup, err := svc.twoFactor.Setup(context.Background(), "user-1", "", "")
	require.NoError(t, err)
	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.twoFactor.Enable(context.Background(), "user-1", code, "", ""))

	result, err := svc.LoginSimple(context.Background(), &LoginInput{
		Email:    "maria@financepro.com",
		Password: "Secreta123",
	})
	require.NoError(t, err)

	// Password alone only yields the pending challenge
	assert.True(t, result.RequiresTwoFactor)
	assert.NotEmpty(t, result.PendingToken)
	assert.Empty(t, result.AccessToken)
	assert.Empty(t, result.RefreshToken)
	assert.Empty(t, sessions.sessions)
}

func TestAuthService_VerifyTwoFactor(t *testing.T) {
	user := testUsuario(t, "Secreta123")
	svc, _, sessions, _ := newAuthService(t, user)

	setup, err := svc.twoFactor.Setup(context.Background(), "user-1", "", "")
	require.NoError(t, err)
	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.twoFactor.Enable(context.Background(), "user-1", code, "", ""))

	login, err := svc.LoginSimple(context.Background(), &LoginInput{
		Email:    "maria@financepro.com",
		Password: "Secreta123",
	})
	require.NoError(t, err)
	require.True(t, login.RequiresTwoFactor)

	code, err = totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)

	result, err := svc.VerifyTwoFactor(context.Background(), login.PendingToken, code, "10.0.0.5", "tests")
	require.NoError(t, err)

	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Len(t, sessions.sessions, 1)
}

func TestAuthService_VerifyTwoFactor_BadCode(t *testing.T) {
	user := testUsuario(t, "Secreta123")
	svc, _, sessions, _ := newAuthService(t, user)

	setup, err := svc.twoFactor.Setup(context.Background(), "user-1", "", "")
	require.NoError(t, err)
	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.twoFactor.Enable(context.Background(), "user-1", code, "", ""))

	login, err := svc.LoginSimple(context.Background(), &LoginInput{
		Email:    "maria@financepro.com",
		Password: "Secreta123",
	})
	require.NoError(t, err)

	_, err = svc.VerifyTwoFactor(context.Background(), login.PendingToken, "12345", "", "")
	assert.ErrorIs(t, err, domain.ErrTwoFactorInvalid)
	assert.Empty(t, sessions.sessions)
}

func TestAuthService_VerifyTwoFactor_RejectsAccessToken(t *testing.T) {
	user := testUsuario(t, "Secreta123")
	svc, _, _, _ := newAuthService(t, user)

	// An access token must not pass as a pending 2FA token
	access, err := jwt.GenerateAccessToken("user-1", user.Email, user.Rol, user.SucursalID,
		"auth-service-test-secret-0123456789", 30)
	require.NoError(t, err)

	_, err = svc.VerifyTwoFactor(context.Background(), access, "123456", "", "")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestAuthService_Refresh_RotatesSession(t *testing.T) {
	user := testUsuario(t, "Secreta123")
	svc, _, sessions, _ := newAuthService(t, user)

	login, err := svc.LoginSimple(context.Background(), &LoginInput{
		Email:    "maria@financepro.com",
		Password: "Secreta123",
	})
	require.NoError(t, err)

	result, err := svc.Refresh(context.Background(), login.RefreshToken, "10.0.0.5", "tests")
	require.NoError(t, err)

	assert.NotEmpty(t, result.AccessToken)
	assert.NotEqual(t, login.RefreshToken, result.RefreshToken)

	// Rotation revokes the old session and opens a new one
	assert.Len(t, sessions.sessions, 2)
	old := sessions.sessions[login.SessionID]
	require.NotNil(t, old)
	assert.True(t, old.IsRevoked())

	// The rotated-out token is dead
	_, err = svc.Refresh(context.Background(), login.RefreshToken, "", "")
	assert.ErrorIs(t, err, domain.ErrSessionRevoked)
}

func TestAuthService_Refresh_UnknownToken(t *testing.T) {
	user := testUsuario(t, "Secreta123")
	svc, _, _, _ := newAuthService(t, user)

	// Valid JWT but no session row behind it
	orphan, err := jwt.GenerateRefreshToken("user-1", user.Email, "auth-service-test-secret-0123456789", 7)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), orphan, "", "")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestAuthService_Logout(t *testing.T) {
	user := testUsuario(t, "Secreta123")
	svc, _, sessions, auditor := newAuthService(t, user)

	login, err := svc.LoginSimple(context.Background(), &LoginInput{
		Email:    "maria@financepro.com",
		Password: "Secreta123",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken, "10.0.0.5", "tests"))
	assert.True(t, sessions.sessions[login.SessionID].IsRevoked())

	last := auditor.entries[len(auditor.entries)-1]
	assert.Equal(t, models.AuditEventLogout, last.EventType)

	// Logging out twice or with an unknown token stays silent
	require.NoError(t, svc.Logout(context.Background(), "token-desconocido", "", ""))
	require.NoError(t, svc.Logout(context.Background(), "", "", ""))
}

func TestAuthService_RevokeSession_OwnershipCheck(t *testing.T) {
	user := testUsuario(t, "Secreta123")
	svc, _, sessions, _ := newAuthService(t, user)

	login, err := svc.LoginSimple(context.Background(), &LoginInput{
		Email:    "maria@financepro.com",
		Password: "Secreta123",
	})
	require.NoError(t, err)

	err = svc.RevokeSession(context.Background(), "otro-usuario", login.SessionID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.False(t, sessions.sessions[login.SessionID].IsRevoked())

	require.NoError(t, svc.RevokeSession(context.Background(), "user-1", login.SessionID))
	assert.True(t, sessions.sessions[login.SessionID].IsRevoked())

	err = svc.RevokeSession(context.Background(), "user-1", "sesion-inexistente")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestAuthService_PurgeSessions(t *testing.T) {
	user := testUsuario(t, "Secreta123")
	svc, _, sessions, _ := newAuthService(t, user)
	sessions.purged = 4

	purged, err := svc.PurgeSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), purged)

	// Idle cutoff follows SESSION_TIMEOUT_MINUTES (60 in the test config)
	wantStale := time.Now().Add(-60 * time.Minute)
	assert.WithinDuration(t, wantStale, sessions.staleBefore, time.Minute)
}

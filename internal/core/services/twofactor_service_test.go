package services

import (
	"context"
	"testing"
	"time"

	"financepro-backend/internal/adapters/persistence/models"
	"financepro-backend/internal/core/domain"
	"financepro-backend/internal/pkg/crypto"
	"financepro-backend/internal/pkg/password"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type usuarioRepoStub struct {
	users      map[string]*models.Usuario
	emails     []*models.UsuarioEmail
	emailTaken bool
}

func newUsuarioRepoStub(users ...*models.Usuario) *usuarioRepoStub {
	s := &usuarioRepoStub{users: make(map[string]*models.Usuario)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *usuarioRepoStub) Create(_ context.Context, u *models.Usuario) error {
	s.users[u.ID] = u
	return nil
}

func (s *usuarioRepoStub) GetByID(_ context.Context, id string) (*models.Usuario, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (s *usuarioRepoStub) GetByEmail(_ context.Context, email string) (*models.Usuario, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *usuarioRepoStub) GetBySecondaryEmail(_ context.Context, _ string) (*models.Usuario, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *usuarioRepoStub) Update(_ context.Context, u *models.Usuario) error {
	s.users[u.ID] = u
	return nil
}

func (s *usuarioRepoStub) List(_ context.Context, _, _, _ string, _, _ int) ([]*models.Usuario, int64, error) {
	out := make([]*models.Usuario, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func (s *usuarioRepoStub) ExistsByCodigoEmpleado(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (s *usuarioRepoStub) ListEmails(_ context.Context, userID string) ([]*models.UsuarioEmail, error) {
	out := make([]*models.UsuarioEmail, 0, len(s.emails))
	for _, e := range s.emails {
		if e.UsuarioID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *usuarioRepoStub) AddEmail(_ context.Context, row *models.UsuarioEmail) error {
	s.emails = append(s.emails, row)
	return nil
}

func (s *usuarioRepoStub) SetPrincipalEmail(_ context.Context, _, _ string) error {
	return nil
}

func (s *usuarioRepoStub) EmailInUse(_ context.Context, _ string) (bool, error) {
	return s.emailTaken, nil
}

type recordingAuditor struct {
	entries []AuditEntry
}

func (a *recordingAuditor) Record(_ context.Context, entry AuditEntry) {
	a.entries = append(a.entries, entry)
}

func newTwoFactorService(t *testing.T, users ...*models.Usuario) (*TwoFactorService, *usuarioRepoStub, *recordingAuditor) {
	t.Helper()

	cipher, err := crypto.NewCipher("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	repo := newUsuarioRepoStub(users...)
	auditor := &recordingAuditor{}
	return NewTwoFactorService(repo, cipher, auditor), repo, auditor
}

func TestTwoFactorService_Setup(t *testing.T) {
	user := &models.Usuario{ID: "user-1", Email: "maria@financepro.com"}
	svc, repo, auditor := newTwoFactorService(t, user)

	setup, err := svc.Setup(context.Background(), "user-1", "10.0.0.5", "tests")
	require.NoError(t, err)
	require.NotNil(t, setup)

	assert.NotEmpty(t, setup.Secret)
	assert.Contains(t, setup.OtpauthURL, "otpauth://totp/")

	// The stored secret is ciphertext, never the shared secret itself
	stored := repo.users["user-1"]
	require.NotNil(t, stored.TwoFASecret)
	assert.NotEqual(t, setup.Secret, *stored.TwoFASecret)
	assert.False(t, stored.TwoFAEnabled)

	require.Len(t, auditor.entries, 1)
	assert.Equal(t, "2fa_setup", auditor.entries[0].Action)
	assert.True(t, auditor.entries[0].Success)
}

func TestTwoFactorService_Setup_AlreadyEnabled(t *testing.T) {
	secret := "stored-ciphertext"
	user := &models.Usuario{ID: "user-1", Email: "maria@financepro.com", TwoFAEnabled: true, TwoFASecret: &secret}
	svc, _, _ := newTwoFactorService(t, user)

	_, err := svc.Setup(context.Background(), "user-1", "", "")
	assert.ErrorIs(t, err, domain.ErrTwoFactorEnabled)
}

func TestTwoFactorService_Setup_UnknownUser(t *testing.T) {
	svc, _, _ := newTwoFactorService(t)

	_, err := svc.Setup(context.Background(), "missing", "", "")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestTwoFactorService_Enable(t *testing.T) {
	user := &models.Usuario{ID: "user-1", Email: "maria@financepro.com"}
	svc, repo, _ := newTwoFactorService(t, user)

	setup, err := svc.Setup(context.Background(), "user-1", "10.0.0.5", "tests")
	require.NoError(t, err)

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)

	require.NoError(t, svc.Enable(context.Background(), "user-1", code, "10.0.0.5", "tests"))
	assert.True(t, repo.users["user-1"].TwoFAEnabled)
}

func TestTwoFactorService_Enable_RejectsBadCode(t *testing.T) {
	user := &models.Usuario{ID: "user-1", Email: "maria@financepro.com"}
	svc, repo, auditor := newTwoFactorService(t, user)

	_, err := svc.Setup(context.Background(), "user-1", "10.0.0.5", "tests")
	require.NoError(t, err)

	// Wrong length can never match a six digit code
	err = svc.Enable(context.Background(), "user-1", "12345", "10.0.0.5", "tests")
	assert.ErrorIs(t, err, domain.ErrTwoFactorInvalid)
	assert.False(t, repo.users["user-1"].TwoFAEnabled)

	last := auditor.entries[len(auditor.entries)-1]
	assert.Equal(t, "2fa_enable", last.Action)
	assert.False(t, last.Success)
}

func TestTwoFactorService_Enable_WithoutSetup(t *testing.T) {
	user := &models.Usuario{ID: "user-1", Email: "maria@financepro.com"}
	svc, _, _ := newTwoFactorService(t, user)

	err := svc.Enable(context.Background(), "user-1", "123456", "", "")
	assert.ErrorIs(t, err, domain.ErrTwoFactorNotEnabled)
}

func TestTwoFactorService_Disable(t *testing.T) {
	hash, err := password.Hash("Secreta123")
	require.NoError(t, err)

	user := &models.Usuario{ID: "user-1", Email: "maria@financepro.com", HashedPassword: hash}
	svc, repo, _ := newTwoFactorService(t, user)

	setup, err := svc.Setup(context.Background(), "user-1", "", "")
	require.NoError(t, err)
	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.Enable(context.Background(), "user-1", code, "", ""))

	require.NoError(t, svc.Disable(context.Background(), "user-1", "Secreta123", "", ""))

	stored := repo.users["user-1"]
	assert.False(t, stored.TwoFAEnabled)
	assert.Nil(t, stored.TwoFASecret)
}

func TestTwoFactorService_Disable_WrongPassword(t *testing.T) {
	hash, err := password.Hash("Secreta123")
	require.NoError(t, err)

	user := &models.Usuario{ID: "user-1", Email: "maria@financepro.com", HashedPassword: hash, TwoFAEnabled: true}
	svc, repo, auditor := newTwoFactorService(t, user)

	err = svc.Disable(context.Background(), "user-1", "otra-clave", "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.True(t, repo.users["user-1"].TwoFAEnabled)

	require.NotEmpty(t, auditor.entries)
	last := auditor.entries[len(auditor.entries)-1]
	assert.Equal(t, "2fa_disable", last.Action)
	assert.False(t, last.Success)
}

func TestTwoFactorService_Disable_NotEnabled(t *testing.T) {
	user := &models.Usuario{ID: "user-1", Email: "maria@financepro.com"}
	svc, _, _ := newTwoFactorService(t, user)

	err := svc.Disable(context.Background(), "user-1", "Secreta123", "", "")
	assert.ErrorIs(t, err, domain.ErrTwoFactorNotEnabled)
}

func TestTwoFactorService_VerifyCode(t *testing.T) {
	user := &models.Usuario{ID: "user-1", Email: "maria@financepro.com"}
	svc, repo, _ := newTwoFactorService(t, user)

	setup, err := svc.Setup(context.Background(), "user-1", "", "")
	require.NoError(t, err)

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)

	valid, err := svc.VerifyCode(repo.users["user-1"], code)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = svc.VerifyCode(repo.users["user-1"], "12345")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestTwoFactorService_VerifyCode_NoSecret(t *testing.T) {
	svc, _, _ := newTwoFactorService(t)

	_, err := svc.VerifyCode(&models.Usuario{ID: "user-1"}, "123456")
	assert.ErrorIs(t, err, domain.ErrTwoFactorNotEnabled)
}

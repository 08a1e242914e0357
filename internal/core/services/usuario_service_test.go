package services

import (
	"context"
	"testing"
	"time"

	"financepro-backend/internal/adapters/persistence/models"
	"financepro-backend/internal/config"
	"financepro-backend/internal/core/domain"
	"financepro-backend/internal/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUsuarioService(t *testing.T, users ...*models.Usuario) (*UsuarioService, *usuarioRepoStub, *sessionRepoStub, *recordingAuditor) {
	t.Helper()

	repo := newUsuarioRepoStub(users...)
	sessions := newSessionRepoStub()
	auditor := &recordingAuditor{}
	cfg := &config.Config{Auth: config.AuthConfig{PasswordMinLength: 8}}

	return NewUsuarioService(repo, nil, sessions, auditor, cfg), repo, sessions, auditor
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestUsuarioService_Update_CannotChangeOwnRole(t *testing.T) {
	user := &models.Usuario{ID: "user-1", Email: "maria@financepro.com", Rol: models.RolAdmin, Activo: true}
	svc, repo, _, _ := newUsuarioService(t, user)

	_, err := svc.Update(context.Background(), "user-1",
		&UpdateUsuarioInput{Rol: strPtr(models.RolEmpleado)},
		RequestContext{ActorID: "user-1"})

	assert.ErrorIs(t, err, domain.ErrCannotChangeOwnRole)
	assert.Equal(t, models.RolAdmin, repo.users["user-1"].Rol)
}

func TestUsuarioService_Update_CannotDisableSelf(t *testing.T) {
	user := &models.Usuario{ID: "user-1", Email: "maria@financepro.com", Rol: models.RolAdmin, Activo: true}
	svc, repo, _, _ := newUsuarioService(t, user)

	_, err := svc.Update(context.Background(), "user-1",
		&UpdateUsuarioInput{Activo: boolPtr(false)},
		RequestContext{ActorID: "user-1"})

	assert.ErrorIs(t, err, domain.ErrCannotDisableSelf)
	assert.True(t, repo.users["user-1"].Activo)
}

func TestUsuarioService_Update_ByAnotherAdmin(t *testing.T) {
	user := &models.Usuario{ID: "user-1", Email: "maria@financepro.com", Rol: models.RolEmpleado, Activo: true}
	svc, repo, sessions, auditor := newUsuarioService(t, user)
	require.NoError(t, sessions.Create(context.Background(), &models.UserSession{
		ID:        "ses-1",
		UsuarioID: "user-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	resp, err := svc.Update(context.Background(), "user-1",
		&UpdateUsuarioInput{Rol: strPtr(models.RolGerente), Activo: boolPtr(false)},
		RequestContext{ActorID: "admin-1"})
	require.NoError(t, err)

	assert.Equal(t, models.RolGerente, resp.Rol)
	assert.False(t, repo.users["user-1"].Activo)

	// Disabling the account kills its live sessions
	assert.True(t, sessions.sessions["ses-1"].IsRevoked())

	require.Len(t, auditor.entries, 1)
	assert.Equal(t, "update", auditor.entries[0].Action)
	assert.Equal(t, "admin-1", auditor.entries[0].UsuarioID)
}

func TestUsuarioService_Update_RejectsUnknownRole(t *testing.T) {
	user := &models.Usuario{ID: "user-1", Email: "maria@financepro.com", Rol: models.RolEmpleado, Activo: true}
	svc, _, _, _ := newUsuarioService(t, user)

	_, err := svc.Update(context.Background(), "user-1",
		&UpdateUsuarioInput{Rol: strPtr("SUPERVISOR")},
		RequestContext{ActorID: "admin-1"})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUsuarioService_Update_NoChangesSkipsAudit(t *testing.T) {
	user := &models.Usuario{ID: "user-1", Nombre: "María", Email: "maria@financepro.com", Rol: models.RolEmpleado, Activo: true}
	svc, _, _, auditor := newUsuarioService(t, user)

	resp, err := svc.Update(context.Background(), "user-1",
		&UpdateUsuarioInput{Nombre: strPtr("María")},
		RequestContext{ActorID: "admin-1"})
	require.NoError(t, err)

	assert.Equal(t, "María", resp.Nombre)
	assert.Empty(t, auditor.entries)
}

func TestUsuarioService_Desbloquear(t *testing.T) {
	lockedUntil := time.Now().Add(20 * time.Minute)
	user := &models.Usuario{
		ID:                  "user-1",
		Email:               "maria@financepro.com",
		FailedLoginAttempts: 5,
		LockedUntil:         &lockedUntil,
	}
	svc, repo, _, auditor := newUsuarioService(t, user)

	require.NoError(t, svc.Desbloquear(context.Background(), "user-1", RequestContext{ActorID: "admin-1"}))

	stored := repo.users["user-1"]
	assert.Zero(t, stored.FailedLoginAttempts)
	assert.Nil(t, stored.LockedUntil)
	assert.False(t, stored.IsLocked())

	require.Len(t, auditor.entries, 1)
	assert.Equal(t, "unlock", auditor.entries[0].Action)
}

func TestUsuarioService_Desbloquear_UnknownUser(t *testing.T) {
	svc, _, _, _ := newUsuarioService(t)

	err := svc.Desbloquear(context.Background(), "missing", RequestContext{ActorID: "admin-1"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUsuarioService_ChangePassword(t *testing.T) {
	hash, err := password.Hash("Anterior123")
	require.NoError(t, err)
	user := &models.Usuario{ID: "user-1", Email: "maria@financepro.com", HashedPassword: hash}
	svc, repo, sessions, auditor := newUsuarioService(t, user)
	require.NoError(t, sessions.Create(context.Background(), &models.UserSession{
		ID:        "ses-1",
		UsuarioID: "user-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	require.NoError(t, svc.ChangePassword(context.Background(), "user-1", "Anterior123", "Renovada456", RequestContext{ActorID: "user-1"}))

	stored := repo.users["user-1"]
	assert.True(t, password.Verify("Renovada456", stored.HashedPassword))
	assert.False(t, password.Verify("Anterior123", stored.HashedPassword))
	assert.NotNil(t, stored.LastPasswordChange)

	// Sessions opened under the old password are revoked
	assert.True(t, sessions.sessions["ses-1"].IsRevoked())

	require.Len(t, auditor.entries, 1)
	assert.Equal(t, "change_password", auditor.entries[0].Action)
	assert.True(t, auditor.entries[0].Success)
}

func TestUsuarioService_ChangePassword_WrongCurrent(t *testing.T) {
	hash, err := password.Hash("Anterior123")
	require.NoError(t, err)
	user := &models.Usuario{ID: "user-1", Email: "maria@financepro.com", HashedPassword: hash}
	svc, repo, _, auditor := newUsuarioService(t, user)

	err = svc.ChangePassword(context.Background(), "user-1", "equivocada1", "Renovada456", RequestContext{ActorID: "user-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidPassword)
	assert.True(t, password.Verify("Anterior123", repo.users["user-1"].HashedPassword))

	require.Len(t, auditor.entries, 1)
	assert.False(t, auditor.entries[0].Success)
}

func TestUsuarioService_ChangePassword_WeakNewPassword(t *testing.T) {
	hash, err := password.Hash("Anterior123")
	require.NoError(t, err)
	user := &models.Usuario{ID: "user-1", Email: "maria@financepro.com", HashedPassword: hash}
	svc, repo, _, _ := newUsuarioService(t, user)

	// No digit, below the minimum length
	err = svc.ChangePassword(context.Background(), "user-1", "Anterior123", "corta", RequestContext{ActorID: "user-1"})
	assert.ErrorIs(t, err, domain.ErrPasswordTooWeak)
	assert.True(t, password.Verify("Anterior123", repo.users["user-1"].HashedPassword))
}

func TestUsuarioService_GetProfile_UnknownUser(t *testing.T) {
	svc, _, _, _ := newUsuarioService(t)

	_, err := svc.GetProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUsuarioService_Update_EmailInUse(t *testing.T) {
	user := &models.Usuario{ID: "user-1", Email: "maria@financepro.com", Rol: models.RolEmpleado, Activo: true}
	svc, repo, _, _ := newUsuarioService(t, user)
	repo.emailTaken = true

	_, err := svc.Update(context.Background(), "user-1",
		&UpdateUsuarioInput{Email: strPtr("ocupado@financepro.com")},
		RequestContext{ActorID: "admin-1"})

	assert.ErrorIs(t, err, domain.ErrEmailInUse)
	assert.Equal(t, "maria@financepro.com", repo.users["user-1"].Email)
}

func TestUsuarioService_AddEmail(t *testing.T) {
	user := &models.Usuario{ID: "user-1", Email: "maria@financepro.com", Activo: true}
	svc, _, _, auditor := newUsuarioService(t, user)

	row, err := svc.AddEmail(context.Background(), "user-1", "maria.trabajo@financepro.com", RequestContext{ActorID: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, "user-1", row.UsuarioID)
	assert.Equal(t, "maria.trabajo@financepro.com", row.Email)
	assert.True(t, row.Activo)
	assert.False(t, row.EsPrincipal)

	emails, err := svc.ListEmails(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, "maria.trabajo@financepro.com", emails[0].Email)

	require.Len(t, auditor.entries, 1)
	assert.Equal(t, models.AuditEventDataChange, auditor.entries[0].EventType)
}

func TestUsuarioService_AddEmail_AlreadyInUse(t *testing.T) {
	user := &models.Usuario{ID: "user-1", Email: "maria@financepro.com", Activo: true}
	svc, repo, _, _ := newUsuarioService(t, user)
	repo.emailTaken = true

	_, err := svc.AddEmail(context.Background(), "user-1", "ocupado@financepro.com", RequestContext{ActorID: "user-1"})
	assert.ErrorIs(t, err, domain.ErrEmailInUse)
	assert.Empty(t, repo.emails)
}

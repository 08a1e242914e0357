package services

import (
	"context"
	"errors"
	"time"

	"financepro-backend/internal/adapters/persistence/models"
	"financepro-backend/internal/adapters/persistence/repositories"
	"financepro-backend/internal/config"
	"financepro-backend/internal/core/domain"
	"financepro-backend/internal/pkg/logger"
	"financepro-backend/internal/pkg/password"

	"gorm.io/gorm"
)

// UsuarioService handles user management business logic
type UsuarioService struct {
	usuarioRepo  repositories.UsuarioRepository
	sucursalRepo *repositories.SucursalRepository
	sessionRepo  repositories.SessionRepository
	auditor      Auditor
	cfg          *config.Config
}

// NewUsuarioService creates a new user service
func NewUsuarioService(
	usuarioRepo repositories.UsuarioRepository,
	sucursalRepo *repositories.SucursalRepository,
	sessionRepo repositories.SessionRepository,
	auditor Auditor,
	cfg *config.Config,
) *UsuarioService {
	return &UsuarioService{
		usuarioRepo:  usuarioRepo,
		sucursalRepo: sucursalRepo,
		sessionRepo:  sessionRepo,
		auditor:      auditor,
		cfg:          cfg,
	}
}

// CreateUsuarioInput represents create user input
type CreateUsuarioInput struct {
	CodigoEmpleado string
	Nombre         string
	Apellido       string
	Email          string
	Password       string
	Rol            string
	SucursalID     string
}

// UpdateUsuarioInput represents update user input (admin)
type UpdateUsuarioInput struct {
	Nombre     *string
	Apellido   *string
	Email      *string
	Rol        *string
	SucursalID *string
	Activo     *bool
}

// RequestContext carries the actor identity for audited mutations
type RequestContext struct {
	ActorID   string
	IPAddress string
	UserAgent string
}

// Create creates a new user with its principal email registered
func (s *UsuarioService) Create(ctx context.Context, input *CreateUsuarioInput, req RequestContext) (*models.UsuarioResponse, error) {
	// 1. Role must be one of the three known roles
	if input.Rol != models.RolAdmin && input.Rol != models.RolGerente && input.Rol != models.RolEmpleado {
		return nil, domain.ErrInvalidInput
	}

	// 2. Password policy
	if !password.Validate(input.Password, s.cfg.Auth.PasswordMinLength) {
		return nil, domain.ErrPasswordTooWeak
	}

	// 3. Branch must exist
	if _, err := s.sucursalRepo.GetByID(ctx, input.SucursalID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSucursalNotFound
		}
		return nil, err
	}

	// 4. Employee code and email must be free
	exists, err := s.usuarioRepo.ExistsByCodigoEmpleado(ctx, input.CodigoEmpleado)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserAlreadyExists
	}

	inUse, err := s.usuarioRepo.EmailInUse(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if inUse {
		return nil, domain.ErrEmailInUse
	}

	// 5. Hash password and create
	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.Usuario{
		CodigoEmpleado: input.CodigoEmpleado,
		Nombre:         input.Nombre,
		Apellido:       input.Apellido,
		Email:          input.Email,
		HashedPassword: hashed,
		Rol:            input.Rol,
		SucursalID:     input.SucursalID,
		Activo:         true,
	}
	if err := s.usuarioRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// 6. Mirror the principal email into usuario_emails
	principal := &models.UsuarioEmail{
		UsuarioID:   user.ID,
		Email:       user.Email,
		EsPrincipal: true,
		Activo:      true,
	}
	if err := s.usuarioRepo.AddEmail(ctx, principal); err != nil {
		logger.Warnf("⚠️ Principal email row not created for %s: %v", user.Email, err)
	}

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    req.ActorID,
		EventType:    models.AuditEventDataChange,
		ResourceType: "usuario",
		ResourceID:   user.ID,
		Action:       "create",
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		Details: map[string]interface{}{
			"codigo_empleado": user.CodigoEmpleado,
			"rol":             user.Rol,
			"sucursal_id":     user.SucursalID,
		},
		Success: true,
	})

	logger.Infof("✅ User created: %s (%s)", user.CodigoEmpleado, user.Email)
	return user.ToResponse(), nil
}

// GetProfile gets a user profile by ID
func (s *UsuarioService) GetProfile(ctx context.Context, userID string) (*models.UsuarioResponse, error) {
	user, err := s.usuarioRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user.ToResponse(), nil
}

// List lists users with filters and pagination
func (s *UsuarioService) List(ctx context.Context, sucursalID, rol, search string, offset, limit int) ([]*models.UsuarioResponse, int64, error) {
	users, total, err := s.usuarioRepo.List(ctx, sucursalID, rol, search, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*models.UsuarioResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, total, nil
}

// Update updates a user (admin operation)
func (s *UsuarioService) Update(ctx context.Context, id string, input *UpdateUsuarioInput, req RequestContext) (*models.UsuarioResponse, error) {
	user, err := s.usuarioRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	changed := make(map[string]interface{})

	if input.Nombre != nil && *input.Nombre != user.Nombre {
		user.Nombre = *input.Nombre
		changed["nombre"] = *input.Nombre
	}
	if input.Apellido != nil && *input.Apellido != user.Apellido {
		user.Apellido = *input.Apellido
		changed["apellido"] = *input.Apellido
	}

	if input.Email != nil && *input.Email != user.Email {
		inUse, err := s.usuarioRepo.EmailInUse(ctx, *input.Email)
		if err != nil {
			return nil, err
		}
		if inUse {
			return nil, domain.ErrEmailInUse
		}
		user.Email = *input.Email
		changed["email"] = *input.Email
		if err := s.usuarioRepo.SetPrincipalEmail(ctx, user.ID, *input.Email); err != nil {
			logger.Warnf("⚠️ Principal email row not updated for %s: %v", user.ID, err)
		}
	}

	if input.Rol != nil && *input.Rol != user.Rol {
		if id == req.ActorID {
			return nil, domain.ErrCannotChangeOwnRole
		}
		if *input.Rol != models.RolAdmin && *input.Rol != models.RolGerente && *input.Rol != models.RolEmpleado {
			return nil, domain.ErrInvalidInput
		}
		user.Rol = *input.Rol
		changed["rol"] = *input.Rol
	}

	if input.SucursalID != nil && *input.SucursalID != user.SucursalID {
		if _, err := s.sucursalRepo.GetByID(ctx, *input.SucursalID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrSucursalNotFound
			}
			return nil, err
		}
		user.SucursalID = *input.SucursalID
		changed["sucursal_id"] = *input.SucursalID
	}

	if input.Activo != nil && *input.Activo != user.Activo {
		if id == req.ActorID && !*input.Activo {
			return nil, domain.ErrCannotDisableSelf
		}
		user.Activo = *input.Activo
		changed["activo"] = *input.Activo
	}

	if len(changed) == 0 {
		return user.ToResponse(), nil
	}

	if err := s.usuarioRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	// A disabled account must not keep refreshing its old sessions
	if disabled, ok := changed["activo"].(bool); ok && !disabled {
		if err := s.sessionRepo.RevokeAllByUserID(ctx, user.ID); err != nil {
			logger.Warnf("⚠️ Sessions not revoked for disabled user %s: %v", user.ID, err)
		}
	}

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    req.ActorID,
		EventType:    models.AuditEventDataChange,
		ResourceType: "usuario",
		ResourceID:   user.ID,
		Action:       "update",
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		Details:      changed,
		Success:      true,
	})

	logger.Infof("✅ User updated: %s", user.CodigoEmpleado)
	return user.ToResponse(), nil
}

// Desbloquear clears the lockout state of a user (admin operation)
func (s *UsuarioService) Desbloquear(ctx context.Context, id string, req RequestContext) error {
	user, err := s.usuarioRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	if err := s.usuarioRepo.Update(ctx, user); err != nil {
		return err
	}

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    req.ActorID,
		EventType:    models.AuditEventSecurity,
		ResourceType: "usuario",
		ResourceID:   user.ID,
		Action:       "unlock",
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		Success:      true,
	})

	logger.Infof("✅ Account unlocked: %s", user.Email)
	return nil
}

// ChangePassword changes the caller's own password
func (s *UsuarioService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string, req RequestContext) error {
	user, err := s.usuarioRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	if !password.Verify(currentPassword, user.HashedPassword) {
		s.auditor.Record(ctx, AuditEntry{
			UsuarioID:     userID,
			EventType:     models.AuditEventSecurity,
			ResourceType:  "usuario",
			ResourceID:    userID,
			Action:        "change_password",
			IPAddress:     req.IPAddress,
			UserAgent:     req.UserAgent,
			Success:       false,
			FailureReason: "wrong current password",
		})
		return domain.ErrInvalidPassword
	}

	if !password.Validate(newPassword, s.cfg.Auth.PasswordMinLength) {
		return domain.ErrPasswordTooWeak
	}

	hashed, err := password.Hash(newPassword)
	if err != nil {
		return err
	}

	now := time.Now()
	user.HashedPassword = hashed
	user.LastPasswordChange = &now
	if err := s.usuarioRepo.Update(ctx, user); err != nil {
		return err
	}

	// Refresh tokens issued under the old password die with it
	if err := s.sessionRepo.RevokeAllByUserID(ctx, userID); err != nil {
		logger.Warnf("⚠️ Sessions not revoked after password change for %s: %v", userID, err)
	}

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    userID,
		EventType:    models.AuditEventSecurity,
		ResourceType: "usuario",
		ResourceID:   userID,
		Action:       "change_password",
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		Success:      true,
	})

	logger.Infof("✅ Password changed: %s", user.Email)
	return nil
}

// ListEmails lists a user's registered emails
func (s *UsuarioService) ListEmails(ctx context.Context, userID string) ([]*models.UsuarioEmail, error) {
	if _, err := s.usuarioRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return s.usuarioRepo.ListEmails(ctx, userID)
}

// AddEmail registers a secondary email for a user
func (s *UsuarioService) AddEmail(ctx context.Context, userID, email string, req RequestContext) (*models.UsuarioEmail, error) {
	if _, err := s.usuarioRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	inUse, err := s.usuarioRepo.EmailInUse(ctx, email)
	if err != nil {
		return nil, err
	}
	if inUse {
		return nil, domain.ErrEmailInUse
	}

	row := &models.UsuarioEmail{
		UsuarioID:   userID,
		Email:       email,
		EsPrincipal: false,
		Activo:      true,
	}
	if err := s.usuarioRepo.AddEmail(ctx, row); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    req.ActorID,
		EventType:    models.AuditEventDataChange,
		ResourceType: "usuario_email",
		ResourceID:   row.ID,
		Action:       "create",
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		Details:      map[string]interface{}{"usuario_id": userID},
		Success:      true,
	})

	return row, nil
}

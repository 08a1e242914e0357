package repositories

import (
	"context"
	"time"

	"financepro-backend/internal/adapters/persistence/models"
)

// UsuarioRepository defines user repository interface
type UsuarioRepository interface {
	Create(ctx context.Context, usuario *models.Usuario) error
	GetByID(ctx context.Context, id string) (*models.Usuario, error)
	GetByEmail(ctx context.Context, email string) (*models.Usuario, error)
	GetBySecondaryEmail(ctx context.Context, email string) (*models.Usuario, error)
	Update(ctx context.Context, usuario *models.Usuario) error
	List(ctx context.Context, sucursalID, rol, search string, offset, limit int) ([]*models.Usuario, int64, error)
	ExistsByCodigoEmpleado(ctx context.Context, codigo string) (bool, error)
	ListEmails(ctx context.Context, usuarioID string) ([]*models.UsuarioEmail, error)
	AddEmail(ctx context.Context, email *models.UsuarioEmail) error
	SetPrincipalEmail(ctx context.Context, usuarioID, email string) error
	EmailInUse(ctx context.Context, email string) (bool, error)
}

// SessionRepository defines user session repository interface
type SessionRepository interface {
	Create(ctx context.Context, session *models.UserSession) error
	GetByID(ctx context.Context, id string) (*models.UserSession, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.UserSession, error)
	ListActiveByUserID(ctx context.Context, userID string) ([]*models.UserSession, error)
	Revoke(ctx context.Context, id string) error
	RevokeAllByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, staleBefore time.Time) (int64, error)
}

// AuditLogRepository defines audit log repository interface
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, filter AuditFilter, offset, limit int) ([]*models.AuditLog, int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

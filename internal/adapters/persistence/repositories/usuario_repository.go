package repositories

import (
	"context"

	"financepro-backend/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// usuarioRepository implements UsuarioRepository interface
type usuarioRepository struct {
	db *gorm.DB
}

// NewUsuarioRepository creates a new user repository
func NewUsuarioRepository(db *gorm.DB) UsuarioRepository {
	return &usuarioRepository{db: db}
}

// Create creates a new user
func (r *usuarioRepository) Create(ctx context.Context, usuario *models.Usuario) error {
	return r.db.WithContext(ctx).Create(usuario).Error
}

// GetByID gets a user by ID with branch relation
func (r *usuarioRepository) GetByID(ctx context.Context, id string) (*models.Usuario, error) {
	var usuario models.Usuario
	err := r.db.WithContext(ctx).
		Preload("Sucursal").
		Where("id = ?", id).
		First(&usuario).Error
	if err != nil {
		return nil, err
	}
	return &usuario, nil
}

// GetByEmail gets a user by principal email
func (r *usuarioRepository) GetByEmail(ctx context.Context, email string) (*models.Usuario, error) {
	var usuario models.Usuario
	err := r.db.WithContext(ctx).
		Preload("Sucursal").
		Where("email = ?", email).
		First(&usuario).Error
	if err != nil {
		return nil, err
	}
	return &usuario, nil
}

// GetBySecondaryEmail gets a user through an active secondary email
func (r *usuarioRepository) GetBySecondaryEmail(ctx context.Context, email string) (*models.Usuario, error) {
	var usuario models.Usuario
	err := r.db.WithContext(ctx).
		Preload("Sucursal").
		Joins("JOIN usuario_emails ON usuario_emails.usuario_id = usuarios.id").
		Where("usuario_emails.email = ? AND usuario_emails.activo = ?", email, true).
		First(&usuario).Error
	if err != nil {
		return nil, err
	}
	return &usuario, nil
}

// Update updates a user
func (r *usuarioRepository) Update(ctx context.Context, usuario *models.Usuario) error {
	return r.db.WithContext(ctx).Save(usuario).Error
}

// List lists users with branch, role and search filters
func (r *usuarioRepository) List(ctx context.Context, sucursalID, rol, search string, offset, limit int) ([]*models.Usuario, int64, error) {
	var usuarios []*models.Usuario
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Usuario{})
	if sucursalID != "" {
		query = query.Where("sucursal_id = ?", sucursalID)
	}
	if rol != "" {
		query = query.Where("rol = ?", rol)
	}
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("nombre LIKE ? OR apellido LIKE ? OR email LIKE ? OR codigo_empleado LIKE ?",
			like, like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Sucursal").
		Order("codigo_empleado ASC").
		Offset(offset).
		Limit(limit).
		Find(&usuarios).Error
	if err != nil {
		return nil, 0, err
	}

	return usuarios, total, nil
}

// ExistsByCodigoEmpleado checks if an employee code exists
func (r *usuarioRepository) ExistsByCodigoEmpleado(ctx context.Context, codigo string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Usuario{}).Where("codigo_empleado = ?", codigo).Count(&count).Error
	return count > 0, err
}

// ListEmails lists the secondary emails of a user
func (r *usuarioRepository) ListEmails(ctx context.Context, usuarioID string) ([]*models.UsuarioEmail, error) {
	var emails []*models.UsuarioEmail
	err := r.db.WithContext(ctx).
		Where("usuario_id = ?", usuarioID).
		Order("es_principal DESC, created_at ASC").
		Find(&emails).Error
	if err != nil {
		return nil, err
	}
	return emails, nil
}

// AddEmail registers a secondary email for a user
func (r *usuarioRepository) AddEmail(ctx context.Context, email *models.UsuarioEmail) error {
	return r.db.WithContext(ctx).Create(email).Error
}

// SetPrincipalEmail keeps the usuario_emails principal row in sync
// after a principal email change
func (r *usuarioRepository) SetPrincipalEmail(ctx context.Context, usuarioID, email string) error {
	return r.db.WithContext(ctx).
		Model(&models.UsuarioEmail{}).
		Where("usuario_id = ? AND es_principal = ?", usuarioID, true).
		Update("email", email).Error
}

// EmailInUse checks both the principal and the secondary email tables
func (r *usuarioRepository) EmailInUse(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Usuario{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	err = r.db.WithContext(ctx).Model(&models.UsuarioEmail{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

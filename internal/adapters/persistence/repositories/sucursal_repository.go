package repositories

import (
	"context"

	"financepro-backend/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// SucursalRepository handles branch data access
type SucursalRepository struct {
	db *gorm.DB
}

// NewSucursalRepository creates a new branch repository
func NewSucursalRepository(db *gorm.DB) *SucursalRepository {
	return &SucursalRepository{db: db}
}

// Create creates a new branch
func (r *SucursalRepository) Create(ctx context.Context, sucursal *models.Sucursal) error {
	return r.db.WithContext(ctx).Create(sucursal).Error
}

// GetByID gets a branch by ID
func (r *SucursalRepository) GetByID(ctx context.Context, id string) (*models.Sucursal, error) {
	var sucursal models.Sucursal
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&sucursal).Error
	if err != nil {
		return nil, err
	}
	return &sucursal, nil
}

// ExistsByCodigo checks if a branch code exists
func (r *SucursalRepository) ExistsByCodigo(ctx context.Context, codigo string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Sucursal{}).Where("codigo = ?", codigo).Count(&count).Error
	return count > 0, err
}

// ListActivas lists active branches ordered by code (login screen selector)
func (r *SucursalRepository) ListActivas(ctx context.Context) ([]*models.Sucursal, error) {
	var sucursales []*models.Sucursal
	err := r.db.WithContext(ctx).
		Where("activa = ?", true).
		Order("codigo ASC").
		Find(&sucursales).Error
	if err != nil {
		return nil, err
	}
	return sucursales, nil
}

// List lists all branches with pagination
func (r *SucursalRepository) List(ctx context.Context, offset, limit int) ([]*models.Sucursal, int64, error) {
	var sucursales []*models.Sucursal
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Sucursal{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Order("codigo ASC").
		Offset(offset).
		Limit(limit).
		Find(&sucursales).Error
	if err != nil {
		return nil, 0, err
	}

	return sucursales, total, nil
}

// Update updates a branch
func (r *SucursalRepository) Update(ctx context.Context, sucursal *models.Sucursal) error {
	return r.db.WithContext(ctx).Save(sucursal).Error
}

// CountUsuarios counts the active users assigned to a branch
func (r *SucursalRepository) CountUsuarios(ctx context.Context, sucursalID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Usuario{}).
		Where("sucursal_id = ? AND activo = ?", sucursalID, true).
		Count(&count).Error
	return count, err
}

// CountClientes counts the active clients registered at a branch
func (r *SucursalRepository) CountClientes(ctx context.Context, sucursalID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Cliente{}).
		Where("sucursal_id = ? AND activo = ?", sucursalID, true).
		Count(&count).Error
	return count, err
}

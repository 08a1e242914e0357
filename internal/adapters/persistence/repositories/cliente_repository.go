package repositories

import (
	"context"

	"financepro-backend/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// ClienteFilter narrows client listings
type ClienteFilter struct {
	SucursalID  string
	NivelRiesgo string
	Search      string
	SoloActivos bool
}

// ClienteRepository handles client data access
type ClienteRepository struct {
	db *gorm.DB
}

// NewClienteRepository creates a new client repository
func NewClienteRepository(db *gorm.DB) *ClienteRepository {
	return &ClienteRepository{db: db}
}

// Create creates a new client
func (r *ClienteRepository) Create(ctx context.Context, cliente *models.Cliente) error {
	return r.db.WithContext(ctx).Create(cliente).Error
}

// GetByID gets a client by ID with branch relation
func (r *ClienteRepository) GetByID(ctx context.Context, id string) (*models.Cliente, error) {
	var cliente models.Cliente
	err := r.db.WithContext(ctx).
		Preload("Sucursal").
		Where("id = ?", id).
		First(&cliente).Error
	if err != nil {
		return nil, err
	}
	return &cliente, nil
}

// ExistsByNumeroCliente checks if a client number exists
func (r *ClienteRepository) ExistsByNumeroCliente(ctx context.Context, numero string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Cliente{}).Where("numero_cliente = ?", numero).Count(&count).Error
	return count > 0, err
}

// List lists clients with pagination. Search only covers plaintext
// columns, the encrypted PII fields are not searchable.
func (r *ClienteRepository) List(ctx context.Context, filter ClienteFilter, offset, limit int) ([]*models.Cliente, int64, error) {
	var clientes []*models.Cliente
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Cliente{})
	if filter.SucursalID != "" {
		query = query.Where("sucursal_id = ?", filter.SucursalID)
	}
	if filter.NivelRiesgo != "" {
		query = query.Where("nivel_riesgo = ?", filter.NivelRiesgo)
	}
	if filter.SoloActivos {
		query = query.Where("activo = ?", true)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("nombre LIKE ? OR apellido LIKE ? OR numero_cliente LIKE ?", like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Sucursal").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&clientes).Error
	if err != nil {
		return nil, 0, err
	}

	return clientes, total, nil
}

// Update updates a client
func (r *ClienteRepository) Update(ctx context.Context, cliente *models.Cliente) error {
	return r.db.WithContext(ctx).Save(cliente).Error
}

// CountPrestamosActivos counts the client's loans still open
func (r *ClienteRepository) CountPrestamosActivos(ctx context.Context, clienteID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Prestamo{}).
		Where("cliente_id = ?", clienteID).
		Where("estado IN ?", models.EstadosActivos()).
		Count(&count).Error
	return count, err
}

package repositories

import (
	"context"

	"financepro-backend/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// DocumentoRepository handles document metadata access
type DocumentoRepository struct {
	db *gorm.DB
}

// NewDocumentoRepository creates a new document repository
func NewDocumentoRepository(db *gorm.DB) *DocumentoRepository {
	return &DocumentoRepository{db: db}
}

// Create creates a new document record
func (r *DocumentoRepository) Create(ctx context.Context, documento *models.Documento) error {
	return r.db.WithContext(ctx).Create(documento).Error
}

// GetByID gets a document by ID with relations
func (r *DocumentoRepository) GetByID(ctx context.Context, id string) (*models.Documento, error) {
	var documento models.Documento
	err := r.db.WithContext(ctx).
		Preload("Prestamo").
		Preload("Cliente").
		Preload("Subidor").
		Where("id = ?", id).
		First(&documento).Error
	if err != nil {
		return nil, err
	}
	return &documento, nil
}

// List lists documents filtered by loan or client
func (r *DocumentoRepository) List(ctx context.Context, prestamoID, clienteID string, offset, limit int) ([]*models.Documento, int64, error) {
	var documentos []*models.Documento
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Documento{})
	if prestamoID != "" {
		query = query.Where("prestamo_id = ?", prestamoID)
	}
	if clienteID != "" {
		query = query.Where("cliente_id = ?", clienteID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Subidor").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&documentos).Error
	if err != nil {
		return nil, 0, err
	}

	return documentos, total, nil
}

// Delete removes a document record
func (r *DocumentoRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Documento{}).Error
}

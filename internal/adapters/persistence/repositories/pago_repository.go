package repositories

import (
	"context"

	"financepro-backend/internal/adapters/persistence/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PagoRepository handles payment data access
type PagoRepository struct {
	db *gorm.DB
}

// NewPagoRepository creates a new payment repository
func NewPagoRepository(db *gorm.DB) *PagoRepository {
	return &PagoRepository{db: db}
}

// Create creates a new payment
func (r *PagoRepository) Create(ctx context.Context, pago *models.Pago) error {
	return r.db.WithContext(ctx).Create(pago).Error
}

// GetByID gets a payment by ID with relations
func (r *PagoRepository) GetByID(ctx context.Context, id string) (*models.Pago, error) {
	var pago models.Pago
	err := r.db.WithContext(ctx).
		Preload("Prestamo").
		Preload("Registrador").
		Where("id = ?", id).
		First(&pago).Error
	if err != nil {
		return nil, err
	}
	return &pago, nil
}

// ExistsByNumero checks if a payment number exists
func (r *PagoRepository) ExistsByNumero(ctx context.Context, numero string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Pago{}).Where("numero_pago = ?", numero).Count(&count).Error
	return count > 0, err
}

// ListByPrestamo lists the payments of a loan, newest first
func (r *PagoRepository) ListByPrestamo(ctx context.Context, prestamoID string, offset, limit int) ([]*models.Pago, int64, error) {
	var pagos []*models.Pago
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Pago{}).Where("prestamo_id = ?", prestamoID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Registrador").
		Order("fecha_pago DESC").
		Offset(offset).
		Limit(limit).
		Find(&pagos).Error
	if err != nil {
		return nil, 0, err
	}

	return pagos, total, nil
}

// List lists payments across loans, optionally scoped to one branch
func (r *PagoRepository) List(ctx context.Context, sucursalID string, offset, limit int) ([]*models.Pago, int64, error) {
	var pagos []*models.Pago
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Pago{})
	if sucursalID != "" {
		query = query.
			Joins("JOIN prestamos ON prestamos.id = pagos.prestamo_id").
			Where("prestamos.sucursal_id = ?", sucursalID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Prestamo").
		Preload("Registrador").
		Order("pagos.fecha_pago DESC").
		Offset(offset).
		Limit(limit).
		Find(&pagos).Error
	if err != nil {
		return nil, 0, err
	}

	return pagos, total, nil
}

// SumByPrestamo sums the payments registered on a loan
func (r *PagoRepository) SumByPrestamo(ctx context.Context, prestamoID string) (decimal.Decimal, error) {
	var raw string
	err := r.db.WithContext(ctx).
		Model(&models.Pago{}).
		Select("COALESCE(SUM(monto), 0)").
		Where("prestamo_id = ?", prestamoID).
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}

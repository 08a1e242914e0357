package repositories

import (
	"context"
	"time"

	"financepro-backend/internal/adapters/persistence/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PrestamoFilter narrows loan listings
type PrestamoFilter struct {
	SucursalID string
	ClienteID  string
	Estado     string
	Tipo       string
	Search     string
}

// PrestamoRepository handles loan data access
type PrestamoRepository struct {
	db *gorm.DB
}

// NewPrestamoRepository creates a new loan repository
func NewPrestamoRepository(db *gorm.DB) *PrestamoRepository {
	return &PrestamoRepository{db: db}
}

// Create creates a new loan
func (r *PrestamoRepository) Create(ctx context.Context, prestamo *models.Prestamo) error {
	return r.db.WithContext(ctx).Create(prestamo).Error
}

// GetByID gets a loan by ID with relations
func (r *PrestamoRepository) GetByID(ctx context.Context, id string) (*models.Prestamo, error) {
	var prestamo models.Prestamo
	err := r.db.WithContext(ctx).
		Preload("Cliente").
		Preload("Sucursal").
		Preload("Aprobador").
		Where("id = ?", id).
		First(&prestamo).Error
	if err != nil {
		return nil, err
	}
	return &prestamo, nil
}

// GetByNumero gets a loan by its loan number
func (r *PrestamoRepository) GetByNumero(ctx context.Context, numero string) (*models.Prestamo, error) {
	var prestamo models.Prestamo
	err := r.db.WithContext(ctx).
		Preload("Cliente").
		Preload("Sucursal").
		Preload("Aprobador").
		Where("numero_prestamo = ?", numero).
		First(&prestamo).Error
	if err != nil {
		return nil, err
	}
	return &prestamo, nil
}

// ExistsByNumero checks if a loan number exists
func (r *PrestamoRepository) ExistsByNumero(ctx context.Context, numero string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Prestamo{}).Where("numero_prestamo = ?", numero).Count(&count).Error
	return count > 0, err
}

// List lists loans with pagination
func (r *PrestamoRepository) List(ctx context.Context, filter PrestamoFilter, offset, limit int) ([]*models.Prestamo, int64, error) {
	var prestamos []*models.Prestamo
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Prestamo{})
	if filter.SucursalID != "" {
		query = query.Where("sucursal_id = ?", filter.SucursalID)
	}
	if filter.ClienteID != "" {
		query = query.Where("cliente_id = ?", filter.ClienteID)
	}
	if filter.Estado != "" {
		query = query.Where("estado = ?", filter.Estado)
	}
	if filter.Tipo != "" {
		query = query.Where("tipo = ?", filter.Tipo)
	}
	if filter.Search != "" {
		query = query.Where("numero_prestamo LIKE ?", "%"+filter.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Cliente").
		Preload("Sucursal").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&prestamos).Error
	if err != nil {
		return nil, 0, err
	}

	return prestamos, total, nil
}

// Update updates a loan
func (r *PrestamoRepository) Update(ctx context.Context, prestamo *models.Prestamo) error {
	return r.db.WithContext(ctx).Save(prestamo).Error
}

// ListEnMora lists delinquent loans ordered by days overdue
func (r *PrestamoRepository) ListEnMora(ctx context.Context, sucursalID string) ([]*models.Prestamo, error) {
	var prestamos []*models.Prestamo

	query := r.db.WithContext(ctx).Where("estado = ?", models.EstadoMora)
	if sucursalID != "" {
		query = query.Where("sucursal_id = ?", sucursalID)
	}

	err := query.
		Preload("Cliente").
		Preload("Sucursal").
		Order("dias_mora DESC").
		Find(&prestamos).Error
	if err != nil {
		return nil, err
	}
	return prestamos, nil
}

// ListVencidos lists loans past their due date that the delinquency
// sweep still needs to look at (live ones to flip, MORA to refresh)
func (r *PrestamoRepository) ListVencidos(ctx context.Context, asOf time.Time) ([]*models.Prestamo, error) {
	var prestamos []*models.Prestamo
	err := r.db.WithContext(ctx).
		Where("estado IN ?", []string{models.EstadoDesembolsado, models.EstadoVigente, models.EstadoMora}).
		Where("fecha_vencimiento IS NOT NULL AND fecha_vencimiento < ?", asOf).
		Find(&prestamos).Error
	if err != nil {
		return nil, err
	}
	return prestamos, nil
}

// ListPorVencer lists live loans whose due date falls inside the window
func (r *PrestamoRepository) ListPorVencer(ctx context.Context, desde, hasta time.Time, sucursalID string) ([]*models.Prestamo, error) {
	var prestamos []*models.Prestamo

	query := r.db.WithContext(ctx).
		Where("estado IN ?", []string{models.EstadoDesembolsado, models.EstadoVigente}).
		Where("fecha_vencimiento IS NOT NULL AND fecha_vencimiento >= ? AND fecha_vencimiento <= ?", desde, hasta)
	if sucursalID != "" {
		query = query.Where("sucursal_id = ?", sucursalID)
	}

	err := query.
		Preload("Cliente").
		Preload("Sucursal").
		Order("fecha_vencimiento ASC").
		Find(&prestamos).Error
	if err != nil {
		return nil, err
	}
	return prestamos, nil
}

// CountByEstado counts loans grouped by state
func (r *PrestamoRepository) CountByEstado(ctx context.Context, sucursalID string) (map[string]int64, error) {
	var rows []struct {
		Estado string
		Total  int64
	}

	query := r.db.WithContext(ctx).
		Model(&models.Prestamo{}).
		Select("estado, COUNT(*) as total").
		Group("estado")
	if sucursalID != "" {
		query = query.Where("sucursal_id = ?", sucursalID)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Estado] = row.Total
	}
	return counts, nil
}

// CountByTipo counts loans grouped by product type
func (r *PrestamoRepository) CountByTipo(ctx context.Context, sucursalID string) (map[string]int64, error) {
	var rows []struct {
		Tipo  string
		Total int64
	}

	query := r.db.WithContext(ctx).
		Model(&models.Prestamo{}).
		Select("tipo, COUNT(*) as total").
		Group("tipo")
	if sucursalID != "" {
		query = query.Where("sucursal_id = ?", sucursalID)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Tipo] = row.Total
	}
	return counts, nil
}

// CountByNivelMora buckets delinquent loans into the mora bands
func (r *PrestamoRepository) CountByNivelMora(ctx context.Context, sucursalID string) (map[string]int64, error) {
	var row struct {
		AlDia    int64
		Temprana int64
		Media    int64
		Tardia   int64
		Critica  int64
	}

	query := r.db.WithContext(ctx).
		Model(&models.Prestamo{}).
		Select(`
			SUM(CASE WHEN dias_mora <= 0 THEN 1 ELSE 0 END) as al_dia,
			SUM(CASE WHEN dias_mora BETWEEN 1 AND 30 THEN 1 ELSE 0 END) as temprana,
			SUM(CASE WHEN dias_mora BETWEEN 31 AND 60 THEN 1 ELSE 0 END) as media,
			SUM(CASE WHEN dias_mora BETWEEN 61 AND 90 THEN 1 ELSE 0 END) as tardia,
			SUM(CASE WHEN dias_mora > 90 THEN 1 ELSE 0 END) as critica
		`).
		Where("estado IN ?", []string{models.EstadoVigente, models.EstadoMora})
	if sucursalID != "" {
		query = query.Where("sucursal_id = ?", sucursalID)
	}
	if err := query.Scan(&row).Error; err != nil {
		return nil, err
	}

	return map[string]int64{
		models.MoraAlDia:    row.AlDia,
		models.MoraTemprana: row.Temprana,
		models.MoraMedia:    row.Media,
		models.MoraTardia:   row.Tardia,
		models.MoraCritica:  row.Critica,
	}, nil
}

// SumMontoColocado sums the principal of every loan that reached disbursement
func (r *PrestamoRepository) SumMontoColocado(ctx context.Context, sucursalID string) (decimal.Decimal, error) {
	return r.sumWhere(ctx, "monto", sucursalID, models.EstadoDesembolsado, models.EstadoVigente,
		models.EstadoMora, models.EstadoCancelado, models.EstadoRefinanciado, models.EstadoCastigado)
}

// SumMontoRecuperado sums the payments received on disbursed loans
func (r *PrestamoRepository) SumMontoRecuperado(ctx context.Context, sucursalID string) (decimal.Decimal, error) {
	return r.sumWhere(ctx, "monto_pagado", sucursalID, models.EstadoDesembolsado, models.EstadoVigente,
		models.EstadoMora, models.EstadoCancelado, models.EstadoRefinanciado, models.EstadoCastigado)
}

// SumSaldoEnRiesgo sums the outstanding balance of delinquent loans
func (r *PrestamoRepository) SumSaldoEnRiesgo(ctx context.Context, sucursalID string) (decimal.Decimal, error) {
	return r.sumWhere(ctx, "saldo_pendiente", sucursalID, models.EstadoMora)
}

func (r *PrestamoRepository) sumWhere(ctx context.Context, column, sucursalID string, estados ...string) (decimal.Decimal, error) {
	var raw string

	query := r.db.WithContext(ctx).
		Model(&models.Prestamo{}).
		Select("COALESCE(SUM(" + column + "), 0)").
		Where("estado IN ?", estados)
	if sucursalID != "" {
		query = query.Where("sucursal_id = ?", sucursalID)
	}
	if err := query.Scan(&raw).Error; err != nil {
		return decimal.Zero, err
	}

	return decimal.NewFromString(raw)
}

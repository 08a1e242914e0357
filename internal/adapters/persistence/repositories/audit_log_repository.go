package repositories

import (
	"context"
	"time"

	"financepro-backend/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// AuditFilter narrows audit log listings
type AuditFilter struct {
	UsuarioID    string
	EventType    string
	ResourceType string
	ResourceID   string
	Desde        *time.Time
	Hasta        *time.Time
	Success      *bool
}

// auditLogRepository implements AuditLogRepository interface
type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

// Create appends an audit entry
func (r *auditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// List lists audit entries newest first
func (r *auditLogRepository) List(ctx context.Context, filter AuditFilter, offset, limit int) ([]*models.AuditLog, int64, error) {
	var entries []*models.AuditLog
	var total int64

	query := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if filter.UsuarioID != "" {
		query = query.Where("usuario_id = ?", filter.UsuarioID)
	}
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		query = query.Where("resource_id = ?", filter.ResourceID)
	}
	if filter.Desde != nil {
		query = query.Where("timestamp >= ?", filter.Desde)
	}
	if filter.Hasta != nil {
		query = query.Where("timestamp <= ?", filter.Hasta)
	}
	if filter.Success != nil {
		query = query.Where("success = ?", *filter.Success)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("timestamp DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// DeleteOlderThan removes entries past the retention window
func (r *auditLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("timestamp < ?", cutoff).
		Delete(&models.AuditLog{})
	return result.RowsAffected, result.Error
}

package services

import (
	"context"
	"encoding/json"
	"time"

	"financepro-backend/internal/adapters/persistence/models"
	"financepro-backend/internal/adapters/persistence/repositories"
	"financepro-backend/internal/pkg/logger"
)

// AuditEntry is the service-level shape of one audit trail event
type AuditEntry struct {
	UsuarioID     string
	EventType     string
	ResourceType  string
	ResourceID    string
	Action        string
	IPAddress     string
	UserAgent     string
	SessionID     string
	Details       map[string]interface{}
	Success       bool
	FailureReason string
}

// AuditService handles the audit trail
type AuditService struct {
	auditRepo     repositories.AuditLogRepository
	retentionDays int
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo repositories.AuditLogRepository, retentionDays int) *AuditService {
	return &AuditService{
		auditRepo:     auditRepo,
		retentionDays: retentionDays,
	}
}

// Record appends one audit entry. Failures are logged and swallowed so
// the calling business flow never breaks on a trail write.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	row := &models.AuditLog{
		EventType:     entry.EventType,
		ResourceType:  entry.ResourceType,
		ResourceID:    entry.ResourceID,
		Action:        entry.Action,
		IPAddress:     entry.IPAddress,
		UserAgent:     entry.UserAgent,
		SessionID:     entry.SessionID,
		Success:       entry.Success,
		FailureReason: entry.FailureReason,
	}

	if entry.UsuarioID != "" {
		row.UsuarioID = &entry.UsuarioID
	}

	if len(entry.Details) > 0 {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			logger.Warnf("⚠️ Audit details dropped (marshal failed): %v", err)
		} else {
			row.Details = string(raw)
		}
	}

	if err := s.auditRepo.Create(ctx, row); err != nil {
		logger.Warnf("⚠️ Audit write failed (%s/%s): %v", entry.EventType, entry.Action, err)
		return
	}

	logger.Debugf("Audit: %s/%s on %s %s", entry.EventType, entry.Action, entry.ResourceType, entry.ResourceID)
}

// List lists audit entries with filters and pagination
func (s *AuditService) List(ctx context.Context, filter repositories.AuditFilter, offset, limit int) ([]*models.AuditLog, int64, error) {
	return s.auditRepo.List(ctx, filter, offset, limit)
}

// PurgeExpired deletes entries older than the retention window
func (s *AuditService) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	deleted, err := s.auditRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		logger.Infof("🗑️ Audit retention: removed %d entries older than %s", deleted, cutoff.Format("2006-01-02"))
	}
	return deleted, nil
}

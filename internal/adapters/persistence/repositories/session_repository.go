package repositories

import (
	"context"
	"time"

	"financepro-backend/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// sessionRepository implements SessionRepository interface
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Create creates a new session
func (r *sessionRepository) Create(ctx context.Context, session *models.UserSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// GetByID gets a session by ID
func (r *sessionRepository) GetByID(ctx context.Context, id string) (*models.UserSession, error) {
	var session models.UserSession
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetByTokenHash gets a non-revoked session by its refresh token hash
func (r *sessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.UserSession, error) {
	var session models.UserSession
	err := r.db.WithContext(ctx).
		Where("token_hash = ?", tokenHash).
		Where("revoked_at IS NULL").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListActiveByUserID lists the live sessions of a user
func (r *sessionRepository) ListActiveByUserID(ctx context.Context, userID string) ([]*models.UserSession, error) {
	var sessions []*models.UserSession
	err := r.db.WithContext(ctx).
		Where("usuario_id = ?", userID).
		Where("revoked_at IS NULL").
		Where("expires_at > ?", time.Now()).
		Order("last_activity DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// Revoke revokes a session by ID
func (r *sessionRepository) Revoke(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.UserSession{}).
		Where("id = ?", id).
		Update("revoked_at", &now).Error
}

// RevokeAllByUserID revokes all sessions of a user
func (r *sessionRepository) RevokeAllByUserID(ctx context.Context, userID string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.UserSession{}).
		Where("usuario_id = ?", userID).
		Where("revoked_at IS NULL").
		Update("revoked_at", &now).Error
}

// DeleteExpired deletes expired, revoked and idle sessions (cleanup job)
func (r *sessionRepository) DeleteExpired(ctx context.Context, staleBefore time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at IS NOT NULL OR last_activity < ?", time.Now(), staleBefore).
		Delete(&models.UserSession{})
	return result.RowsAffected, result.Error
}

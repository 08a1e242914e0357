package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"financepro-backend/internal/adapters/persistence/models"
	"financepro-backend/internal/adapters/persistence/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type auditRepoStub struct {
	created   []*models.AuditLog
	createErr error

	listed []*models.AuditLog

	deleted      int64
	deleteErr    error
	deleteCutoff time.Time
}

func (s *auditRepoStub) Create(_ context.Context, entry *models.AuditLog) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, entry)
	return nil
}

func (s *auditRepoStub) List(_ context.Context, _ repositories.AuditFilter, _, _ int) ([]*models.AuditLog, int64, error) {
	return s.listed, int64(len(s.listed)), nil
}

func (s *auditRepoStub) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.deleteCutoff = cutoff
	return s.deleted, s.deleteErr
}

func TestAuditService_Record(t *testing.T) {
	repo := &auditRepoStub{}
	svc := NewAuditService(repo, 365)

	svc.Record(context.Background(), AuditEntry{
		UsuarioID:    "user-1",
		EventType:    models.AuditEventDataChange,
		ResourceType: "cliente",
		ResourceID:   "cli-1",
		Action:       "update",
		IPAddress:    "10.0.0.5",
		UserAgent:    "tests",
		Details:      map[string]interface{}{"campo": "telefono"},
		Success:      true,
	})

	require.Len(t, repo.created, 1)
	row := repo.created[0]

	require.NotNil(t, row.UsuarioID)
	assert.Equal(t, "user-1", *row.UsuarioID)
	assert.Equal(t, models.AuditEventDataChange, row.EventType)
	assert.Equal(t, "cliente", row.ResourceType)
	assert.Equal(t, "cli-1", row.ResourceID)
	assert.Equal(t, "update", row.Action)
	assert.Equal(t, "10.0.0.5", row.IPAddress)
	assert.JSONEq(t, `{"campo":"telefono"}`, row.Details)
	assert.True(t, row.Success)
}

func TestAuditService_Record_AnonymousActor(t *testing.T) {
	repo := &auditRepoStub{}
	svc := NewAuditService(repo, 365)

	svc.Record(context.Background(), AuditEntry{
		EventType:     models.AuditEventLoginAttempt,
		Action:        "login",
		Success:       false,
		FailureReason: "user not found",
	})

	require.Len(t, repo.created, 1)
	row := repo.created[0]

	assert.Nil(t, row.UsuarioID)
	assert.Empty(t, row.Details)
	assert.False(t, row.Success)
	assert.Equal(t, "user not found", row.FailureReason)
}

func TestAuditService_Record_SwallowsRepositoryError(t *testing.T) {
	repo := &auditRepoStub{createErr: errors.New("table locked")}
	svc := NewAuditService(repo, 365)

	assert.NotPanics(t, func() {
		svc.Record(context.Background(), AuditEntry{
			EventType: models.AuditEventSecurity,
			Action:    "2fa_enable",
		})
	})
	assert.Empty(t, repo.created)
}

func TestAuditService_List(t *testing.T) {
	repo := &auditRepoStub{listed: []*models.AuditLog{{ID: "a"}, {ID: "b"}}}
	svc := NewAuditService(repo, 365)

	rows, total, err := svc.List(context.Background(), repositories.AuditFilter{}, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, rows, 2)
}

func TestAuditService_PurgeExpired(t *testing.T) {
	repo := &auditRepoStub{deleted: 12}
	svc := NewAuditService(repo, 365)

	deleted, err := svc.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), deleted)

	wantCutoff := time.Now().AddDate(0, 0, -365)
	assert.WithinDuration(t, wantCutoff, repo.deleteCutoff, time.Minute)
}

func TestAuditService_PurgeExpired_Error(t *testing.T) {
	repo := &auditRepoStub{deleteErr: errors.New("deadlock")}
	svc := NewAuditService(repo, 30)

	deleted, err := svc.PurgeExpired(context.Background())
	assert.Error(t, err)
	assert.Zero(t, deleted)
}

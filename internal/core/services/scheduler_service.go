package services

import (
	"context"
	"time"

	"financepro-backend/internal/pkg/logger"

	"github.com/robfig/cron/v3"
)

// ============================================================
// Background jobs: session purge + delinquency sweep + audit retention
// ============================================================

// SchedulerService runs the recurring maintenance jobs
type SchedulerService struct {
	authService     *AuthService
	prestamoService *PrestamoService
	auditService    *AuditService
	cron            *cron.Cron
}

// NewSchedulerService creates a new scheduler service
func NewSchedulerService(
	authService *AuthService,
	prestamoService *PrestamoService,
	auditService *AuditService,
) *SchedulerService {
	return &SchedulerService{
		authService:     authService,
		prestamoService: prestamoService,
		auditService:    auditService,
		cron:            cron.New(),
	}
}

// Start registers and launches all jobs
func (s *SchedulerService) Start() error {
	// Expired/revoked/idle sessions: every 5 minutes
	if _, err := s.cron.AddFunc("*/5 * * * *", s.purgeSessions); err != nil {
		return err
	}
	// Delinquency sweep: hourly
	if _, err := s.cron.AddFunc("0 * * * *", s.sweepMora); err != nil {
		return err
	}
	// Audit retention: daily at 03:00
	if _, err := s.cron.AddFunc("0 3 * * *", s.purgeAuditLogs); err != nil {
		return err
	}

	s.cron.Start()
	logger.Info("🚀 SchedulerService started (3 jobs)")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("🛑 SchedulerService stopped")
}

func (s *SchedulerService) purgeSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := s.authService.PurgeSessions(ctx)
	if err != nil {
		logger.Errorf("❌ Session purge failed: %v", err)
		return
	}
	if deleted > 0 {
		logger.Infof("🗑️ Purged %d stale sessions", deleted)
	}
}

func (s *SchedulerService) sweepMora() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := s.prestamoService.SweepMora(ctx); err != nil {
		logger.Errorf("❌ Delinquency sweep failed: %v", err)
	}
}

func (s *SchedulerService) purgeAuditLogs() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := s.auditService.PurgeExpired(ctx); err != nil {
		logger.Errorf("❌ Audit retention purge failed: %v", err)
	}
}

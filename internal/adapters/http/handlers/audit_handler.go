package handlers

import (
	"time"

	"financepro-backend/internal/adapters/persistence/repositories"
	"financepro-backend/internal/core/services"
	"financepro-backend/internal/pkg/pagination"
	"financepro-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuditHandler handles audit trail endpoints
type AuditHandler struct {
	auditService *services.AuditService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// List lists audit log entries (admin)
// @Summary List audit logs
// @Description List audit trail entries, filterable by user, event type, resource and date range
// @Tags Auditoria
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param usuario_id query string false "Actor filter"
// @Param event_type query string false "Event type filter"
// @Param resource_type query string false "Resource type filter"
// @Param resource_id query string false "Resource ID filter"
// @Param desde query string false "Start date (RFC3339 or YYYY-MM-DD)"
// @Param hasta query string false "End date (RFC3339 or YYYY-MM-DD)"
// @Param success query bool false "Success filter"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	filter := repositories.AuditFilter{
		UsuarioID:    c.Query("usuario_id"),
		EventType:    c.Query("event_type"),
		ResourceType: c.Query("resource_type"),
		ResourceID:   c.Query("resource_id"),
	}

	if desde, ok := parseAuditTime(c.Query("desde")); ok {
		filter.Desde = &desde
	}
	if hasta, ok := parseAuditTime(c.Query("hasta")); ok {
		filter.Hasta = &hasta
	}
	if raw := c.Query("success"); raw != "" {
		success := c.QueryBool("success")
		filter.Success = &success
	}

	logs, total, err := h.auditService.List(c.Context(), filter, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list audit logs")
	}

	return response.Success(c, "Audit logs retrieved successfully", pagination.NewResponse(logs, params, total))
}

// parseAuditTime accepts RFC3339 timestamps or bare dates
func parseAuditTime(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

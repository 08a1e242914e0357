package handlers

import (
	"errors"
	"strings"

	"financepro-backend/internal/adapters/persistence/models"
	"financepro-backend/internal/adapters/persistence/repositories"
	"financepro-backend/internal/core/domain"
	"financepro-backend/internal/core/services"
	"financepro-backend/internal/pkg/pagination"
	"financepro-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ClienteHandler handles client endpoints
type ClienteHandler struct {
	clienteService *services.ClienteService
}

// NewClienteHandler creates a new client handler
func NewClienteHandler(clienteService *services.ClienteService) *ClienteHandler {
	return &ClienteHandler{clienteService: clienteService}
}

// scopedSucursalID resolves the branch filter of a list request. Only
// admins can look across branches, everyone else is pinned to their own.
func scopedSucursalID(c *fiber.Ctx) string {
	if currentRol(c) == models.RolAdmin {
		return c.Query("sucursal_id")
	}
	return currentSucursalID(c)
}

// CreateClienteRequest represents create client request body
type CreateClienteRequest struct {
	Nombre            string          `json:"nombre" validate:"required,max=100"`
	Apellido          string          `json:"apellido" validate:"required,max=100"`
	Telefono          string          `json:"telefono" validate:"max=30"`
	Direccion         string          `json:"direccion" validate:"max=500"`
	Cedula            string          `json:"cedula" validate:"max=30"`
	Ruc               string          `json:"ruc" validate:"max=30"`
	FechaNacimiento   string          `json:"fecha_nacimiento" validate:"omitempty,datetime=2006-01-02"`
	IngresosMensuales decimal.Decimal `json:"ingresos_mensuales"`
	Ocupacion         string          `json:"ocupacion" validate:"max=100"`
	NivelRiesgo       string          `json:"nivel_riesgo" validate:"omitempty,oneof=BAJO MEDIO ALTO"`
	EsPEP             bool            `json:"es_pep"`
	SucursalID        string          `json:"sucursal_id" validate:"required,uuid"`
}

// UpdateClienteRequest represents update client request body
type UpdateClienteRequest struct {
	Nombre            *string          `json:"nombre" validate:"omitempty,max=100"`
	Apellido          *string          `json:"apellido" validate:"omitempty,max=100"`
	Telefono          *string          `json:"telefono" validate:"omitempty,max=30"`
	Direccion         *string          `json:"direccion" validate:"omitempty,max=500"`
	Cedula            *string          `json:"cedula" validate:"omitempty,max=30"`
	Ruc               *string          `json:"ruc" validate:"omitempty,max=30"`
	FechaNacimiento   *string          `json:"fecha_nacimiento" validate:"omitempty,datetime=2006-01-02"`
	IngresosMensuales *decimal.Decimal `json:"ingresos_mensuales"`
	Ocupacion         *string          `json:"ocupacion" validate:"omitempty,max=100"`
	NivelRiesgo       *string          `json:"nivel_riesgo" validate:"omitempty,oneof=BAJO MEDIO ALTO"`
	EsPEP             *bool            `json:"es_pep"`
}

// BloquearClienteRequest represents block/unblock request body
type BloquearClienteRequest struct {
	Motivo string `json:"motivo" validate:"max=255"`
}

// Create creates a client
// @Summary Create client
// @Description Register a new client, PII is encrypted at rest
// @Tags Clientes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateClienteRequest true "Client data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /clientes [post]
func (h *ClienteHandler) Create(c *fiber.Ctx) error {
	var req CreateClienteRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if msg := validateStruct(req); msg != "" {
		return response.UnprocessableEntity(c, msg)
	}

	cliente, err := h.clienteService.Create(c.Context(), &services.CreateClienteInput{
		Nombre:            strings.TrimSpace(req.Nombre),
		Apellido:          strings.TrimSpace(req.Apellido),
		Telefono:          strings.TrimSpace(req.Telefono),
		Direccion:         strings.TrimSpace(req.Direccion),
		Cedula:            strings.TrimSpace(req.Cedula),
		Ruc:               strings.TrimSpace(req.Ruc),
		FechaNacimiento:   strings.TrimSpace(req.FechaNacimiento),
		IngresosMensuales: req.IngresosMensuales,
		Ocupacion:         strings.TrimSpace(req.Ocupacion),
		NivelRiesgo:       req.NivelRiesgo,
		EsPEP:             req.EsPEP,
		SucursalID:        req.SucursalID,
	}, requestContext(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSucursalNotFound):
			return response.NotFound(c, "Branch not found")
		case errors.Is(err, domain.ErrMontoInvalido):
			return response.BadRequest(c, "Monthly income cannot be negative")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Invalid client data")
		default:
			return response.InternalServerError(c, "Failed to create client")
		}
	}

	return response.Created(c, "Client created successfully", fiber.Map{
		"cliente": cliente,
	})
}

// List lists clients with masked PII
// @Summary List clients
// @Description List clients with masked PII, filterable and paginated
// @Tags Clientes
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param sucursal_id query string false "Branch filter (admin only)"
// @Param nivel_riesgo query string false "Risk level filter"
// @Param activo query bool false "Only active clients"
// @Param search query string false "Search over name and client number"
// @Success 200 {object} response.Response
// @Router /clientes [get]
func (h *ClienteHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	filter := repositories.ClienteFilter{
		SucursalID:  scopedSucursalID(c),
		NivelRiesgo: c.Query("nivel_riesgo"),
		Search:      params.Search,
		SoloActivos: c.QueryBool("activo"),
	}

	clientes, total, err := h.clienteService.List(c.Context(), filter, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list clients")
	}

	return response.Success(c, "Clients retrieved successfully", pagination.NewResponse(clientes, params, total))
}

// GetByID gets a client with masked PII
// @Summary Get client
// @Description Get one client with masked PII
// @Tags Clientes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /clientes/{id} [get]
func (h *ClienteHandler) GetByID(c *fiber.Ctx) error {
	cliente, err := h.clienteService.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrClienteNotFound) {
			return response.NotFound(c, "Client not found")
		}
		return response.InternalServerError(c, "Failed to get client")
	}

	return response.Success(c, "Client retrieved successfully", fiber.Map{
		"cliente": cliente,
	})
}

// GetPII gets a client with decrypted PII (ADMIN or GERENTE, audited)
// @Summary Get client PII
// @Description Get one client with decrypted PII. Every call is written to the audit trail.
// @Tags Clientes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /clientes/{id}/pii [get]
func (h *ClienteHandler) GetPII(c *fiber.Ctx) error {
	cliente, err := h.clienteService.GetPII(c.Context(), c.Params("id"), requestContext(c))
	if err != nil {
		if errors.Is(err, domain.ErrClienteNotFound) {
			return response.NotFound(c, "Client not found")
		}
		return response.InternalServerError(c, "Failed to get client")
	}

	return response.Success(c, "Client retrieved successfully", fiber.Map{
		"cliente": cliente,
	})
}

// Update updates a client
// @Summary Update client
// @Description Update a client, changed PII is re-encrypted
// @Tags Clientes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Param body body UpdateClienteRequest true "Client fields to update"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /clientes/{id} [put]
func (h *ClienteHandler) Update(c *fiber.Ctx) error {
	var req UpdateClienteRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if msg := validateStruct(req); msg != "" {
		return response.UnprocessableEntity(c, msg)
	}

	cliente, err := h.clienteService.Update(c.Context(), c.Params("id"), &services.UpdateClienteInput{
		Nombre:            req.Nombre,
		Apellido:          req.Apellido,
		Telefono:          req.Telefono,
		Direccion:         req.Direccion,
		Cedula:            req.Cedula,
		Ruc:               req.Ruc,
		FechaNacimiento:   req.FechaNacimiento,
		IngresosMensuales: req.IngresosMensuales,
		Ocupacion:         req.Ocupacion,
		NivelRiesgo:       req.NivelRiesgo,
		EsPEP:             req.EsPEP,
	}, requestContext(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrClienteNotFound):
			return response.NotFound(c, "Client not found")
		case errors.Is(err, domain.ErrMontoInvalido):
			return response.BadRequest(c, "Monthly income cannot be negative")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Invalid client data")
		default:
			return response.InternalServerError(c, "Failed to update client")
		}
	}

	return response.Success(c, "Client updated successfully", fiber.Map{
		"cliente": cliente,
	})
}

// Delete deactivates a client
// @Summary Delete client
// @Description Deactivate a client. Rejected while the client has open loans.
// @Tags Clientes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /clientes/{id} [delete]
func (h *ClienteHandler) Delete(c *fiber.Ctx) error {
	if err := h.clienteService.Delete(c.Context(), c.Params("id"), requestContext(c)); err != nil {
		switch {
		case errors.Is(err, domain.ErrClienteNotFound):
			return response.NotFound(c, "Client not found")
		case errors.Is(err, domain.ErrClienteConPrestamos):
			return response.Conflict(c, "Client still has open loans")
		default:
			return response.InternalServerError(c, "Failed to delete client")
		}
	}

	return response.Success(c, "Client deactivated successfully", nil)
}

// Bloquear blocks a client
// @Summary Block client
// @Description Block a client from new operations
// @Tags Clientes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Param body body BloquearClienteRequest false "Block reason"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /clientes/{id}/bloquear [post]
func (h *ClienteHandler) Bloquear(c *fiber.Ctx) error {
	var req BloquearClienteRequest
	_ = c.BodyParser(&req)

	if err := h.clienteService.Bloquear(c.Context(), c.Params("id"), strings.TrimSpace(req.Motivo), requestContext(c)); err != nil {
		if errors.Is(err, domain.ErrClienteNotFound) {
			return response.NotFound(c, "Client not found")
		}
		return response.InternalServerError(c, "Failed to block client")
	}

	return response.Success(c, "Client blocked successfully", nil)
}

// Desbloquear lifts a client block
// @Summary Unblock client
// @Description Lift a client block
// @Tags Clientes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Param body body BloquearClienteRequest false "Unblock reason"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /clientes/{id}/desbloquear [post]
func (h *ClienteHandler) Desbloquear(c *fiber.Ctx) error {
	var req BloquearClienteRequest
	_ = c.BodyParser(&req)

	if err := h.clienteService.Desbloquear(c.Context(), c.Params("id"), strings.TrimSpace(req.Motivo), requestContext(c)); err != nil {
		if errors.Is(err, domain.ErrClienteNotFound) {
			return response.NotFound(c, "Client not found")
		}
		return response.InternalServerError(c, "Failed to unblock client")
	}

	return response.Success(c, "Client unblocked successfully", nil)
}

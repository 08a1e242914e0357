package handlers

import (
	"errors"
	"strings"

	"financepro-backend/internal/adapters/persistence/repositories"
	"financepro-backend/internal/core/domain"
	"financepro-backend/internal/core/services"
	"financepro-backend/internal/pkg/pagination"
	"financepro-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// PrestamoHandler handles loan endpoints
type PrestamoHandler struct {
	prestamoService *services.PrestamoService
}

// NewPrestamoHandler creates a new loan handler
func NewPrestamoHandler(prestamoService *services.PrestamoService) *PrestamoHandler {
	return &PrestamoHandler{prestamoService: prestamoService}
}

// CreatePrestamoRequest represents create loan request body
type CreatePrestamoRequest struct {
	ClienteID     string          `json:"cliente_id" validate:"required,uuid"`
	SucursalID    string          `json:"sucursal_id" validate:"omitempty,uuid"`
	Tipo          string          `json:"tipo" validate:"required"`
	Monto         decimal.Decimal `json:"monto"`
	TasaInteres   decimal.Decimal `json:"tasa_interes"`
	PlazoMeses    int             `json:"plazo_meses" validate:"required,min=1,max=480"`
	ModalidadPago string          `json:"modalidad_pago"`
	Observaciones string          `json:"observaciones" validate:"max=2000"`
}

// UpdatePrestamoRequest represents update loan request body
type UpdatePrestamoRequest struct {
	Estado        *string          `json:"estado"`
	Monto         *decimal.Decimal `json:"monto"`
	TasaInteres   *decimal.Decimal `json:"tasa_interes"`
	PlazoMeses    *int             `json:"plazo_meses" validate:"omitempty,min=1,max=480"`
	ModalidadPago *string          `json:"modalidad_pago"`
	Observaciones *string          `json:"observaciones" validate:"omitempty,max=2000"`
}

// RevocarDescuentoRequest represents revoke authorization request body
type RevocarDescuentoRequest struct {
	Motivo string `json:"motivo" validate:"max=255"`
}

// Create creates a loan application
// @Summary Create loan
// @Description Open a loan application in SOLICITUD state
// @Tags Prestamos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreatePrestamoRequest true "Loan data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /prestamos [post]
func (h *PrestamoHandler) Create(c *fiber.Ctx) error {
	var req CreatePrestamoRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if msg := validateStruct(req); msg != "" {
		return response.UnprocessableEntity(c, msg)
	}

	prestamo, err := h.prestamoService.Create(c.Context(), &services.CreatePrestamoInput{
		ClienteID:     req.ClienteID,
		SucursalID:    req.SucursalID,
		Tipo:          strings.ToUpper(strings.TrimSpace(req.Tipo)),
		Monto:         req.Monto,
		TasaInteres:   req.TasaInteres,
		PlazoMeses:    req.PlazoMeses,
		ModalidadPago: strings.ToUpper(strings.TrimSpace(req.ModalidadPago)),
		Observaciones: strings.TrimSpace(req.Observaciones),
	}, requestContext(c))
	if err != nil {
		return h.mapPrestamoError(c, err, "Failed to create loan")
	}

	return response.Created(c, "Loan created successfully", fiber.Map{
		"prestamo": prestamo,
	})
}

// List lists loans
// @Summary List loans
// @Description List loans, filterable and paginated
// @Tags Prestamos
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param estado query string false "State filter"
// @Param tipo query string false "Type filter"
// @Param sucursal_id query string false "Branch filter (admin only)"
// @Param cliente_id query string false "Client filter"
// @Param search query string false "Search over loan number"
// @Success 200 {object} response.Response
// @Router /prestamos [get]
func (h *PrestamoHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	filter := repositories.PrestamoFilter{
		SucursalID: scopedSucursalID(c),
		ClienteID:  c.Query("cliente_id"),
		Estado:     strings.ToUpper(c.Query("estado")),
		Tipo:       strings.ToUpper(c.Query("tipo")),
		Search:     params.Search,
	}

	prestamos, total, err := h.prestamoService.List(c.Context(), filter, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list loans")
	}

	return response.Success(c, "Loans retrieved successfully", pagination.NewResponse(prestamos, params, total))
}

// GetByID gets a loan
// @Summary Get loan
// @Description Get one loan by ID
// @Tags Prestamos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /prestamos/{id} [get]
func (h *PrestamoHandler) GetByID(c *fiber.Ctx) error {
	prestamo, err := h.prestamoService.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return h.mapPrestamoError(c, err, "Failed to get loan")
	}

	return response.Success(c, "Loan retrieved successfully", fiber.Map{
		"prestamo": prestamo,
	})
}

// GetByNumero gets a loan by its business number
// @Summary Get loan by number
// @Description Get one loan by its business number
// @Tags Prestamos
// @Produce json
// @Security BearerAuth
// @Param numero path string true "Loan number"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /prestamos/numero/{numero} [get]
func (h *PrestamoHandler) GetByNumero(c *fiber.Ctx) error {
	prestamo, err := h.prestamoService.GetByNumero(c.Context(), c.Params("numero"))
	if err != nil {
		return h.mapPrestamoError(c, err, "Failed to get loan")
	}

	return response.Success(c, "Loan retrieved successfully", fiber.Map{
		"prestamo": prestamo,
	})
}

// Update updates a loan
// @Summary Update loan
// @Description Update a loan. State changes are validated against the transition table.
// @Tags Prestamos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Param body body UpdatePrestamoRequest true "Loan fields to update"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /prestamos/{id} [put]
func (h *PrestamoHandler) Update(c *fiber.Ctx) error {
	var req UpdatePrestamoRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if msg := validateStruct(req); msg != "" {
		return response.UnprocessableEntity(c, msg)
	}

	prestamo, err := h.prestamoService.Update(c.Context(), c.Params("id"), &services.UpdatePrestamoInput{
		Estado:        req.Estado,
		Monto:         req.Monto,
		TasaInteres:   req.TasaInteres,
		PlazoMeses:    req.PlazoMeses,
		ModalidadPago: req.ModalidadPago,
		Observaciones: req.Observaciones,
	}, requestContext(c))
	if err != nil {
		return h.mapPrestamoError(c, err, "Failed to update loan")
	}

	return response.Success(c, "Loan updated successfully", fiber.Map{
		"prestamo": prestamo,
	})
}

// Aprobar approves a loan under evaluation
// @Summary Approve loan
// @Description Move a loan from EVALUACION to APROBADO
// @Tags Prestamos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /prestamos/{id}/aprobar [post]
func (h *PrestamoHandler) Aprobar(c *fiber.Ctx) error {
	prestamo, err := h.prestamoService.Aprobar(c.Context(), c.Params("id"), requestContext(c))
	if err != nil {
		return h.mapPrestamoError(c, err, "Failed to approve loan")
	}

	return response.Success(c, "Loan approved successfully", fiber.Map{
		"prestamo": prestamo,
	})
}

// Desembolsar disburses an approved loan
// @Summary Disburse loan
// @Description Disburse an approved loan, computing dates and totals
// @Tags Prestamos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /prestamos/{id}/desembolsar [post]
func (h *PrestamoHandler) Desembolsar(c *fiber.Ctx) error {
	prestamo, err := h.prestamoService.Desembolsar(c.Context(), c.Params("id"), requestContext(c))
	if err != nil {
		return h.mapPrestamoError(c, err, "Failed to disburse loan")
	}

	return response.Success(c, "Loan disbursed successfully", fiber.Map{
		"prestamo": prestamo,
	})
}

// AutorizarDescuento authorizes the payroll deduction
// @Summary Authorize direct discount
// @Description Authorize the payroll deduction of a direct-discount loan (30%-of-income cap)
// @Tags Prestamos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /prestamos/{id}/autorizar-descuento [post]
func (h *PrestamoHandler) AutorizarDescuento(c *fiber.Ctx) error {
	prestamo, err := h.prestamoService.AutorizarDescuento(c.Context(), c.Params("id"), requestContext(c))
	if err != nil {
		return h.mapPrestamoError(c, err, "Failed to authorize direct discount")
	}

	return response.Success(c, "Direct discount authorized successfully", fiber.Map{
		"prestamo": prestamo,
	})
}

// RevocarDescuento revokes the payroll deduction authorization
// @Summary Revoke direct discount
// @Description Revoke the payroll deduction authorization of a loan
// @Tags Prestamos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Param body body RevocarDescuentoRequest false "Revocation reason"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /prestamos/{id}/revocar-descuento [post]
func (h *PrestamoHandler) RevocarDescuento(c *fiber.Ctx) error {
	var req RevocarDescuentoRequest
	_ = c.BodyParser(&req)

	prestamo, err := h.prestamoService.RevocarDescuento(c.Context(), c.Params("id"), strings.TrimSpace(req.Motivo), requestContext(c))
	if err != nil {
		return h.mapPrestamoError(c, err, "Failed to revoke direct discount")
	}

	return response.Success(c, "Direct discount revoked successfully", fiber.Map{
		"prestamo": prestamo,
	})
}

// ValidarDescuento checks the discount against the income cap
// @Summary Validate direct discount
// @Description Check whether the installment fits inside 30% of the client's income
// @Tags Prestamos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /prestamos/{id}/validar-descuento [get]
func (h *PrestamoHandler) ValidarDescuento(c *fiber.Ctx) error {
	validacion, err := h.prestamoService.ValidarDescuento(c.Context(), c.Params("id"))
	if err != nil {
		return h.mapPrestamoError(c, err, "Failed to validate direct discount")
	}

	return response.Success(c, "Validation completed", fiber.Map{
		"validacion": validacion,
	})
}

// ReportePorVencer lists loans due inside the window
// @Summary Loans due soon
// @Description List live loans whose due date falls within the next N days
// @Tags Prestamos
// @Produce json
// @Security BearerAuth
// @Param dias query int false "Window in days (default 30)"
// @Param sucursal_id query string false "Branch filter (admin only)"
// @Success 200 {object} response.Response
// @Router /prestamos/reportes/por-vencer [get]
func (h *PrestamoHandler) ReportePorVencer(c *fiber.Ctx) error {
	dias := c.QueryInt("dias", 30)

	prestamos, err := h.prestamoService.ReportePorVencer(c.Context(), dias, scopedSucursalID(c))
	if err != nil {
		return response.InternalServerError(c, "Failed to build report")
	}

	return response.Success(c, "Report built successfully", fiber.Map{
		"dias":      dias,
		"prestamos": prestamos,
	})
}

// ReporteEnMora lists delinquent loans
// @Summary Delinquency report
// @Description List delinquent loans ordered by days overdue
// @Tags Prestamos
// @Produce json
// @Security BearerAuth
// @Param sucursal_id query string false "Branch filter (admin only)"
// @Success 200 {object} response.Response
// @Router /prestamos/reportes/en-mora [get]
func (h *PrestamoHandler) ReporteEnMora(c *fiber.Ctx) error {
	items, err := h.prestamoService.ReporteEnMora(c.Context(), scopedSucursalID(c))
	if err != nil {
		return response.InternalServerError(c, "Failed to build report")
	}

	return response.Success(c, "Report built successfully", fiber.Map{
		"prestamos": items,
	})
}

// Estadisticas aggregates the loan portfolio
// @Summary Loan statistics
// @Description Aggregate the loan portfolio by state, type and delinquency band
// @Tags Prestamos
// @Produce json
// @Security BearerAuth
// @Param sucursal_id query string false "Branch filter (admin only)"
// @Success 200 {object} response.Response
// @Router /prestamos/estadisticas [get]
func (h *PrestamoHandler) Estadisticas(c *fiber.Ctx) error {
	stats, err := h.prestamoService.Estadisticas(c.Context(), scopedSucursalID(c))
	if err != nil {
		return response.InternalServerError(c, "Failed to build statistics")
	}

	return response.Success(c, "Statistics built successfully", fiber.Map{
		"estadisticas": stats,
	})
}

// CatalogoTipos lists the loan types
// @Summary Loan types catalog
// @Tags Prestamos
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /prestamos/catalogos/tipos [get]
func (h *PrestamoHandler) CatalogoTipos(c *fiber.Ctx) error {
	return response.Success(c, "Catalog retrieved successfully", fiber.Map{
		"tipos": h.prestamoService.Catalogos().Tipos,
	})
}

// CatalogoEstados lists the loan states
// @Summary Loan states catalog
// @Tags Prestamos
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /prestamos/catalogos/estados [get]
func (h *PrestamoHandler) CatalogoEstados(c *fiber.Ctx) error {
	return response.Success(c, "Catalog retrieved successfully", fiber.Map{
		"estados": h.prestamoService.Catalogos().Estados,
	})
}

// CatalogoModalidades lists the payment modalities
// @Summary Payment modalities catalog
// @Tags Prestamos
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /prestamos/catalogos/modalidades [get]
func (h *PrestamoHandler) CatalogoModalidades(c *fiber.Ctx) error {
	return response.Success(c, "Catalog retrieved successfully", fiber.Map{
		"modalidades": h.prestamoService.Catalogos().Modalidades,
	})
}

// mapPrestamoError translates loan failures into status codes
func (h *PrestamoHandler) mapPrestamoError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrPrestamoNotFound):
		return response.NotFound(c, "Loan not found")
	case errors.Is(err, domain.ErrClienteNotFound):
		return response.NotFound(c, "Client not found")
	case errors.Is(err, domain.ErrSucursalNotFound):
		return response.NotFound(c, "Branch not found")
	case errors.Is(err, domain.ErrClienteBloqueado):
		return response.Conflict(c, "Client is blocked")
	case errors.Is(err, domain.ErrEstadoInvalido):
		return response.Conflict(c, "Invalid state transition for this loan")
	case errors.Is(err, domain.ErrTipoInvalido):
		return response.BadRequest(c, "Invalid loan type")
	case errors.Is(err, domain.ErrModalidadInvalida):
		return response.BadRequest(c, "Invalid payment modality for this operation")
	case errors.Is(err, domain.ErrMontoInvalido):
		return response.BadRequest(c, "Amount must be positive")
	case errors.Is(err, domain.ErrDescuentoNoAutorizado):
		return response.Conflict(c, "Direct discount is not authorized")
	case errors.Is(err, domain.ErrDescuentoYaAutorizado):
		return response.Conflict(c, "Direct discount is already authorized")
	case errors.Is(err, domain.ErrIngresosNoRegistrados):
		return response.UnprocessableEntity(c, "Client has no registered monthly income")
	case errors.Is(err, domain.ErrDescuentoExcedeLimite):
		return response.UnprocessableEntity(c, "Installment exceeds 30% of the client's income")
	case errors.Is(err, domain.ErrInvalidInput):
		return response.BadRequest(c, "Invalid loan data")
	default:
		return response.InternalServerError(c, fallback)
	}
}

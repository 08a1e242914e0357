package handlers

import (
	"errors"
	"strings"
	"time"

	"financepro-backend/internal/core/domain"
	"financepro-backend/internal/core/services"
	"financepro-backend/internal/pkg/pagination"
	"financepro-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// PagoHandler handles payment endpoints
type PagoHandler struct {
	pagoService *services.PagoService
}

// NewPagoHandler creates a new payment handler
func NewPagoHandler(pagoService *services.PagoService) *PagoHandler {
	return &PagoHandler{pagoService: pagoService}
}

// CreatePagoRequest represents register payment request body
type CreatePagoRequest struct {
	PrestamoID    string          `json:"prestamo_id" validate:"required,uuid"`
	Monto         decimal.Decimal `json:"monto"`
	MetodoPago    string          `json:"metodo_pago"`
	Referencia    string          `json:"referencia" validate:"max=50"`
	Observaciones string          `json:"observaciones" validate:"max=2000"`
	FechaPago     *time.Time      `json:"fecha_pago"`
}

// Registrar registers a payment
// @Summary Register payment
// @Description Register a payment against a loan, rolling its balance forward
// @Tags Pagos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreatePagoRequest true "Payment data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /pagos [post]
func (h *PagoHandler) Registrar(c *fiber.Ctx) error {
	var req CreatePagoRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if msg := validateStruct(req); msg != "" {
		return response.UnprocessableEntity(c, msg)
	}

	pago, err := h.pagoService.Registrar(c.Context(), &services.CreatePagoInput{
		PrestamoID:    req.PrestamoID,
		Monto:         req.Monto,
		MetodoPago:    strings.ToUpper(strings.TrimSpace(req.MetodoPago)),
		Referencia:    strings.TrimSpace(req.Referencia),
		Observaciones: strings.TrimSpace(req.Observaciones),
		FechaPago:     req.FechaPago,
	}, requestContext(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPrestamoNotFound):
			return response.NotFound(c, "Loan not found")
		case errors.Is(err, domain.ErrPrestamoNoPagable):
			return response.Conflict(c, "Loan does not accept payments in its current state")
		case errors.Is(err, domain.ErrPagoExcedeSaldo):
			return response.BadRequest(c, "Payment exceeds the open balance")
		case errors.Is(err, domain.ErrMontoInvalido):
			return response.BadRequest(c, "Amount must be positive")
		case errors.Is(err, domain.ErrModalidadInvalida):
			return response.BadRequest(c, "Invalid payment method")
		default:
			return response.InternalServerError(c, "Failed to register payment")
		}
	}

	return response.Created(c, "Payment registered successfully", fiber.Map{
		"pago": pago,
	})
}

// List lists payments
// @Summary List payments
// @Description List payments, by loan when prestamo_id is given
// @Tags Pagos
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param prestamo_id query string false "Loan filter"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /pagos [get]
func (h *PagoHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	if prestamoID := c.Query("prestamo_id"); prestamoID != "" {
		pagos, total, err := h.pagoService.ListByPrestamo(c.Context(), prestamoID, params.Offset, params.Limit)
		if err != nil {
			if errors.Is(err, domain.ErrPrestamoNotFound) {
				return response.NotFound(c, "Loan not found")
			}
			return response.InternalServerError(c, "Failed to list payments")
		}
		return response.Success(c, "Payments retrieved successfully", pagination.NewResponse(pagos, params, total))
	}

	pagos, total, err := h.pagoService.List(c.Context(), scopedSucursalID(c), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list payments")
	}

	return response.Success(c, "Payments retrieved successfully", pagination.NewResponse(pagos, params, total))
}

// GetByID gets a payment
// @Summary Get payment
// @Description Get one payment by ID
// @Tags Pagos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /pagos/{id} [get]
func (h *PagoHandler) GetByID(c *fiber.Ctx) error {
	pago, err := h.pagoService.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrPagoNotFound) {
			return response.NotFound(c, "Payment not found")
		}
		return response.InternalServerError(c, "Failed to get payment")
	}

	return response.Success(c, "Payment retrieved successfully", fiber.Map{
		"pago": pago,
	})
}

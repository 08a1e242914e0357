package handlers

import (
	"errors"
	"strings"

	"financepro-backend/internal/core/domain"
	"financepro-backend/internal/core/services"
	"financepro-backend/internal/pkg/pagination"
	"financepro-backend/internal/pkg/response"
	"financepro-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// validateStruct runs the shared validator over a request struct and
// returns the first failure message, or "" when valid
func validateStruct(req interface{}) string {
	return validation.Struct(req)
}

// SucursalHandler handles branch endpoints
type SucursalHandler struct {
	sucursalService *services.SucursalService
}

// NewSucursalHandler creates a new branch handler
func NewSucursalHandler(sucursalService *services.SucursalService) *SucursalHandler {
	return &SucursalHandler{sucursalService: sucursalService}
}

// CreateSucursalRequest represents create branch request body
type CreateSucursalRequest struct {
	Codigo    string `json:"codigo" validate:"required,max=10"`
	Nombre    string `json:"nombre" validate:"required,max=100"`
	Direccion string `json:"direccion" validate:"max=255"`
	Provincia string `json:"provincia" validate:"max=50"`
	Pais      string `json:"pais" validate:"max=50"`
	Telefono  string `json:"telefono" validate:"max=20"`
	Gerente   string `json:"gerente" validate:"max=100"`
}

// UpdateSucursalRequest represents update branch request body
type UpdateSucursalRequest struct {
	Nombre    *string `json:"nombre" validate:"omitempty,max=100"`
	Direccion *string `json:"direccion" validate:"omitempty,max=255"`
	Provincia *string `json:"provincia" validate:"omitempty,max=50"`
	Pais      *string `json:"pais" validate:"omitempty,max=50"`
	Telefono  *string `json:"telefono" validate:"omitempty,max=20"`
	Gerente   *string `json:"gerente" validate:"omitempty,max=100"`
	Activa    *bool   `json:"activa"`
}

// GetActivas lists active branches, the public endpoint the login form uses
// @Summary List active branches
// @Description List every active branch
// @Tags Sucursales
// @Produce json
// @Success 200 {object} response.Response
// @Router /sucursales [get]
func (h *SucursalHandler) GetActivas(c *fiber.Ctx) error {
	sucursales, err := h.sucursalService.ListActivas(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list branches")
	}

	return response.Success(c, "Branches retrieved successfully", fiber.Map{
		"sucursales": sucursales,
	})
}

// GetByID gets one active branch
// @Summary Get branch
// @Description Get one active branch by ID
// @Tags Sucursales
// @Produce json
// @Param id path string true "Branch ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /sucursales/{id} [get]
func (h *SucursalHandler) GetByID(c *fiber.Ctx) error {
	sucursal, err := h.sucursalService.GetActiva(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrSucursalNotFound) {
			return response.NotFound(c, "Branch not found")
		}
		return response.InternalServerError(c, "Failed to get branch")
	}

	return response.Success(c, "Branch retrieved successfully", fiber.Map{
		"sucursal": sucursal,
	})
}

// List lists all branches including inactive ones (admin)
// @Summary List all branches
// @Description List every branch, active or not, paginated
// @Tags Sucursales
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /sucursales/admin [get]
func (h *SucursalHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	sucursales, total, err := h.sucursalService.List(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list branches")
	}

	return response.Success(c, "Branches retrieved successfully", pagination.NewResponse(sucursales, params, total))
}

// Create creates a branch (admin)
// @Summary Create branch
// @Description Create a new branch
// @Tags Sucursales
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateSucursalRequest true "Branch data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /sucursales [post]
func (h *SucursalHandler) Create(c *fiber.Ctx) error {
	var req CreateSucursalRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if msg := validateStruct(req); msg != "" {
		return response.UnprocessableEntity(c, msg)
	}

	sucursal, err := h.sucursalService.Create(c.Context(), &services.CreateSucursalInput{
		Codigo:    strings.TrimSpace(strings.ToUpper(req.Codigo)),
		Nombre:    strings.TrimSpace(req.Nombre),
		Direccion: strings.TrimSpace(req.Direccion),
		Provincia: strings.TrimSpace(req.Provincia),
		Pais:      strings.TrimSpace(req.Pais),
		Telefono:  strings.TrimSpace(req.Telefono),
		Gerente:   strings.TrimSpace(req.Gerente),
	}, requestContext(c))
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) {
			return response.Conflict(c, "Branch code already exists")
		}
		return response.InternalServerError(c, "Failed to create branch")
	}

	return response.Created(c, "Branch created successfully", fiber.Map{
		"sucursal": sucursal,
	})
}

// Update updates a branch (admin)
// @Summary Update branch
// @Description Update a branch. Deactivation is rejected while users or clients are assigned to it.
// @Tags Sucursales
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Branch ID"
// @Param body body UpdateSucursalRequest true "Branch fields to update"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /sucursales/{id} [put]
func (h *SucursalHandler) Update(c *fiber.Ctx) error {
	var req UpdateSucursalRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if msg := validateStruct(req); msg != "" {
		return response.UnprocessableEntity(c, msg)
	}

	sucursal, err := h.sucursalService.Update(c.Context(), c.Params("id"), &services.UpdateSucursalInput{
		Nombre:    req.Nombre,
		Direccion: req.Direccion,
		Provincia: req.Provincia,
		Pais:      req.Pais,
		Telefono:  req.Telefono,
		Gerente:   req.Gerente,
		Activa:    req.Activa,
	}, requestContext(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSucursalNotFound):
			return response.NotFound(c, "Branch not found")
		case errors.Is(err, domain.ErrSucursalInUse):
			return response.Conflict(c, "Branch still has users or clients assigned")
		default:
			return response.InternalServerError(c, "Failed to update branch")
		}
	}

	return response.Success(c, "Branch updated successfully", fiber.Map{
		"sucursal": sucursal,
	})
}

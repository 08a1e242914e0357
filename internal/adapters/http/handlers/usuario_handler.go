package handlers

import (
	"errors"
	"strings"

	"financepro-backend/internal/core/domain"
	"financepro-backend/internal/core/services"
	"financepro-backend/internal/pkg/pagination"
	"financepro-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UsuarioHandler handles user management endpoints
type UsuarioHandler struct {
	usuarioService *services.UsuarioService
}

// NewUsuarioHandler creates a new user handler
func NewUsuarioHandler(usuarioService *services.UsuarioService) *UsuarioHandler {
	return &UsuarioHandler{usuarioService: usuarioService}
}

// CreateUsuarioRequest represents create user request body
type CreateUsuarioRequest struct {
	CodigoEmpleado string `json:"codigo_empleado" validate:"required,max=10"`
	Nombre         string `json:"nombre" validate:"required,max=100"`
	Apellido       string `json:"apellido" validate:"required,max=100"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required"`
	Rol            string `json:"rol" validate:"required,oneof=ADMIN GERENTE EMPLEADO"`
	SucursalID     string `json:"sucursal_id" validate:"required,uuid"`
}

// UpdateUsuarioRequest represents update user request body
type UpdateUsuarioRequest struct {
	Nombre     *string `json:"nombre" validate:"omitempty,max=100"`
	Apellido   *string `json:"apellido" validate:"omitempty,max=100"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Rol        *string `json:"rol" validate:"omitempty,oneof=ADMIN GERENTE EMPLEADO"`
	SucursalID *string `json:"sucursal_id" validate:"omitempty,uuid"`
	Activo     *bool   `json:"activo"`
}

// ChangePasswordRequest represents change password request body
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// AddEmailRequest represents add secondary email request body
type AddEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Me returns the current user's profile
// @Summary Get current user
// @Description Get the authenticated user's profile
// @Tags Usuarios
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /usuarios/me [get]
func (h *UsuarioHandler) Me(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	usuario, err := h.usuarioService.GetProfile(c.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to get profile")
	}

	return response.Success(c, "Profile retrieved successfully", fiber.Map{
		"usuario": usuario,
	})
}

// List lists users (admin)
// @Summary List users
// @Description List users, filterable by branch, role and search
// @Tags Usuarios
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param sucursal_id query string false "Branch filter"
// @Param rol query string false "Role filter"
// @Param search query string false "Search over name, email and employee code"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /usuarios [get]
func (h *UsuarioHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	usuarios, total, err := h.usuarioService.List(c.Context(),
		c.Query("sucursal_id"), strings.ToUpper(c.Query("rol")), params.Search,
		params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list users")
	}

	return response.Success(c, "Users retrieved successfully", pagination.NewResponse(usuarios, params, total))
}

// Create creates a user (admin)
// @Summary Create user
// @Description Create a new user with its principal email
// @Tags Usuarios
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateUsuarioRequest true "User data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /usuarios [post]
func (h *UsuarioHandler) Create(c *fiber.Ctx) error {
	var req CreateUsuarioRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if msg := validateStruct(req); msg != "" {
		return response.UnprocessableEntity(c, msg)
	}

	usuario, err := h.usuarioService.Create(c.Context(), &services.CreateUsuarioInput{
		CodigoEmpleado: strings.ToUpper(strings.TrimSpace(req.CodigoEmpleado)),
		Nombre:         strings.TrimSpace(req.Nombre),
		Apellido:       strings.TrimSpace(req.Apellido),
		Email:          strings.TrimSpace(strings.ToLower(req.Email)),
		Password:       req.Password,
		Rol:            req.Rol,
		SucursalID:     req.SucursalID,
	}, requestContext(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPasswordTooWeak):
			return response.UnprocessableEntity(c, "Password does not meet the policy")
		case errors.Is(err, domain.ErrSucursalNotFound):
			return response.NotFound(c, "Branch not found")
		case errors.Is(err, domain.ErrUserAlreadyExists):
			return response.Conflict(c, "Employee code already exists")
		case errors.Is(err, domain.ErrEmailInUse):
			return response.Conflict(c, "Email already in use")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Invalid user data")
		default:
			return response.InternalServerError(c, "Failed to create user")
		}
	}

	return response.Created(c, "User created successfully", fiber.Map{
		"usuario": usuario,
	})
}

// Update updates a user (admin)
// @Summary Update user
// @Description Update a user. Admins cannot change their own role or deactivate themselves.
// @Tags Usuarios
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param body body UpdateUsuarioRequest true "User fields to update"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /usuarios/{id} [put]
func (h *UsuarioHandler) Update(c *fiber.Ctx) error {
	var req UpdateUsuarioRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if msg := validateStruct(req); msg != "" {
		return response.UnprocessableEntity(c, msg)
	}

	usuario, err := h.usuarioService.Update(c.Context(), c.Params("id"), &services.UpdateUsuarioInput{
		Nombre:     req.Nombre,
		Apellido:   req.Apellido,
		Email:      req.Email,
		Rol:        req.Rol,
		SucursalID: req.SucursalID,
		Activo:     req.Activo,
	}, requestContext(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, domain.ErrSucursalNotFound):
			return response.NotFound(c, "Branch not found")
		case errors.Is(err, domain.ErrEmailInUse):
			return response.Conflict(c, "Email already in use")
		case errors.Is(err, domain.ErrCannotChangeOwnRole):
			return response.Forbidden(c, "Cannot change your own role")
		case errors.Is(err, domain.ErrCannotDisableSelf):
			return response.Forbidden(c, "Cannot deactivate your own account")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Invalid user data")
		default:
			return response.InternalServerError(c, "Failed to update user")
		}
	}

	return response.Success(c, "User updated successfully", fiber.Map{
		"usuario": usuario,
	})
}

// Desbloquear clears a user's lockout (admin)
// @Summary Unlock user
// @Description Clear the failed-login counter and lockout of a user
// @Tags Usuarios
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /usuarios/{id}/desbloquear [post]
func (h *UsuarioHandler) Desbloquear(c *fiber.Ctx) error {
	if err := h.usuarioService.Desbloquear(c.Context(), c.Params("id"), requestContext(c)); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to unlock user")
	}

	return response.Success(c, "User unlocked successfully", nil)
}

// CambiarPassword changes the current user's password
// @Summary Change password
// @Description Change the authenticated user's password
// @Tags Usuarios
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ChangePasswordRequest true "Current and new password"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /usuarios/cambiar-password [post]
func (h *UsuarioHandler) CambiarPassword(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if msg := validateStruct(req); msg != "" {
		return response.UnprocessableEntity(c, msg)
	}

	if err := h.usuarioService.ChangePassword(c.Context(), userID, req.CurrentPassword, req.NewPassword, requestContext(c)); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidPassword):
			return response.Unauthorized(c, "Current password is incorrect")
		case errors.Is(err, domain.ErrPasswordTooWeak):
			return response.UnprocessableEntity(c, "New password does not meet the policy")
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		default:
			return response.InternalServerError(c, "Failed to change password")
		}
	}

	return response.Success(c, "Password changed successfully", nil)
}

// ListEmails lists a user's registered emails
// @Summary List user emails
// @Description List the principal and secondary emails of a user
// @Tags Usuarios
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /usuarios/{id}/emails [get]
func (h *UsuarioHandler) ListEmails(c *fiber.Ctx) error {
	emails, err := h.usuarioService.ListEmails(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to list emails")
	}

	return response.Success(c, "Emails retrieved successfully", fiber.Map{
		"emails": emails,
	})
}

// AddEmail registers a secondary email for a user
// @Summary Add user email
// @Description Register a secondary login email for a user
// @Tags Usuarios
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param body body AddEmailRequest true "Email"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /usuarios/{id}/emails [post]
func (h *UsuarioHandler) AddEmail(c *fiber.Ctx) error {
	var req AddEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if msg := validateStruct(req); msg != "" {
		return response.UnprocessableEntity(c, msg)
	}

	email, err := h.usuarioService.AddEmail(c.Context(), c.Params("id"), strings.TrimSpace(strings.ToLower(req.Email)), requestContext(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, domain.ErrEmailInUse):
			return response.Conflict(c, "Email already in use")
		default:
			return response.InternalServerError(c, "Failed to add email")
		}
	}

	return response.Created(c, "Email added successfully", fiber.Map{
		"email": email,
	})
}

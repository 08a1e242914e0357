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

// DocumentoHandler handles document endpoints
type DocumentoHandler struct {
	documentoService *services.DocumentoService
}

// NewDocumentoHandler creates a new document handler
func NewDocumentoHandler(documentoService *services.DocumentoService) *DocumentoHandler {
	return &DocumentoHandler{documentoService: documentoService}
}

// CreateDocumentoRequest represents register document request body.
// Provide contenido_base64 to have the content hash computed server
// side, or hash_contenido with the SHA-256 of the stored file.
type CreateDocumentoRequest struct {
	PrestamoID      *string `json:"prestamo_id" validate:"omitempty,uuid"`
	ClienteID       *string `json:"cliente_id" validate:"omitempty,uuid"`
	TipoDocumento   string  `json:"tipo_documento" validate:"required,max=50"`
	NombreArchivo   string  `json:"nombre_archivo" validate:"required,max=255"`
	URL             string  `json:"url" validate:"required,max=500"`
	ContenidoBase64 string  `json:"contenido_base64"`
	HashContenido   string  `json:"hash_contenido" validate:"omitempty,len=64,hexadecimal"`
	TamanoBytes     int64   `json:"tamano_bytes" validate:"min=0"`
}

// Create registers a document
// @Summary Register document
// @Description Register a document linked to a loan and/or client, its storage URL is encrypted
// @Tags Documentos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateDocumentoRequest true "Document data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /documentos [post]
func (h *DocumentoHandler) Create(c *fiber.Ctx) error {
	var req CreateDocumentoRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if msg := validateStruct(req); msg != "" {
		return response.UnprocessableEntity(c, msg)
	}

	documento, err := h.documentoService.Create(c.Context(), &services.CreateDocumentoInput{
		PrestamoID:      req.PrestamoID,
		ClienteID:       req.ClienteID,
		TipoDocumento:   strings.TrimSpace(req.TipoDocumento),
		NombreArchivo:   strings.TrimSpace(req.NombreArchivo),
		URL:             strings.TrimSpace(req.URL),
		ContenidoBase64: req.ContenidoBase64,
		HashContenido:   strings.ToLower(strings.TrimSpace(req.HashContenido)),
		TamanoBytes:     req.TamanoBytes,
	}, requestContext(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDocumentoSinVinculo):
			return response.BadRequest(c, "Document must be linked to a loan or a client")
		case errors.Is(err, domain.ErrPrestamoNotFound):
			return response.NotFound(c, "Loan not found")
		case errors.Is(err, domain.ErrClienteNotFound):
			return response.NotFound(c, "Client not found")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Invalid document data")
		default:
			return response.InternalServerError(c, "Failed to register document")
		}
	}

	return response.Created(c, "Document registered successfully", fiber.Map{
		"documento": documento,
	})
}

// List lists document metadata
// @Summary List documents
// @Description List document metadata by loan or client, URLs stay hidden
// @Tags Documentos
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param prestamo_id query string false "Loan filter"
// @Param cliente_id query string false "Client filter"
// @Success 200 {object} response.Response
// @Router /documentos [get]
func (h *DocumentoHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	documentos, total, err := h.documentoService.List(c.Context(), c.Query("prestamo_id"), c.Query("cliente_id"), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list documents")
	}

	return response.Success(c, "Documents retrieved successfully", pagination.NewResponse(documentos, params, total))
}

// GetByID gets a document with its decrypted URL (audited)
// @Summary Get document
// @Description Get one document with its decrypted storage URL. Every call is audited.
// @Tags Documentos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /documentos/{id} [get]
func (h *DocumentoHandler) GetByID(c *fiber.Ctx) error {
	documento, err := h.documentoService.GetByID(c.Context(), c.Params("id"), requestContext(c))
	if err != nil {
		if errors.Is(err, domain.ErrDocumentoNotFound) {
			return response.NotFound(c, "Document not found")
		}
		return response.InternalServerError(c, "Failed to get document")
	}

	return response.Success(c, "Document retrieved successfully", fiber.Map{
		"documento": documento,
	})
}

// Delete removes a document record
// @Summary Delete document
// @Description Delete a document record
// @Tags Documentos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Document ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /documentos/{id} [delete]
func (h *DocumentoHandler) Delete(c *fiber.Ctx) error {
	if err := h.documentoService.Delete(c.Context(), c.Params("id"), requestContext(c)); err != nil {
		if errors.Is(err, domain.ErrDocumentoNotFound) {
			return response.NotFound(c, "Document not found")
		}
		return response.InternalServerError(c, "Failed to delete document")
	}

	return response.Success(c, "Document deleted successfully", nil)
}

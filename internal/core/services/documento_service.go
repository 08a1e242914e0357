package services

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"

	"financepro-backend/internal/adapters/persistence/models"
	"financepro-backend/internal/adapters/persistence/repositories"
	"financepro-backend/internal/core/domain"
	"financepro-backend/internal/pkg/crypto"
	"financepro-backend/internal/pkg/logger"

	"gorm.io/gorm"
)

// DocumentoService handles loan/client document metadata. Storage URLs
// are encrypted at rest and only exposed on audited reads.
type DocumentoService struct {
	documentoRepo *repositories.DocumentoRepository
	prestamoRepo  *repositories.PrestamoRepository
	clienteRepo   *repositories.ClienteRepository
	cipher        *crypto.Cipher
	auditor       Auditor
}

// NewDocumentoService creates a new document service
func NewDocumentoService(
	documentoRepo *repositories.DocumentoRepository,
	prestamoRepo *repositories.PrestamoRepository,
	clienteRepo *repositories.ClienteRepository,
	cipher *crypto.Cipher,
	auditor Auditor,
) *DocumentoService {
	return &DocumentoService{
		documentoRepo: documentoRepo,
		prestamoRepo:  prestamoRepo,
		clienteRepo:   clienteRepo,
		cipher:        cipher,
		auditor:       auditor,
	}
}

// CreateDocumentoInput represents register document input. When the raw
// content is provided the hash is computed server side, otherwise the
// caller must supply the SHA-256 of the stored file.
type CreateDocumentoInput struct {
	PrestamoID      *string
	ClienteID       *string
	TipoDocumento   string
	NombreArchivo   string
	URL             string
	ContenidoBase64 string
	HashContenido   string
	TamanoBytes     int64
}

// Create registers a document linked to a loan and/or a client
func (s *DocumentoService) Create(ctx context.Context, input *CreateDocumentoInput, req RequestContext) (*models.DocumentoResponse, error) {
	// 1. A document floats nowhere: it needs a loan or a client
	if input.PrestamoID == nil && input.ClienteID == nil {
		return nil, domain.ErrDocumentoSinVinculo
	}
	if input.TipoDocumento == "" || input.NombreArchivo == "" || input.URL == "" {
		return nil, domain.ErrInvalidInput
	}

	// 2. Both links must point at real records
	if input.PrestamoID != nil {
		if _, err := s.prestamoRepo.GetByID(ctx, *input.PrestamoID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrPrestamoNotFound
			}
			return nil, err
		}
	}
	if input.ClienteID != nil {
		if _, err := s.clienteRepo.GetByID(ctx, *input.ClienteID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrClienteNotFound
			}
			return nil, err
		}
	}

	// 3. Content hash: computed from the payload when given, otherwise
	// the caller-supplied SHA-256 is validated
	hash := input.HashContenido
	tamano := input.TamanoBytes
	if input.ContenidoBase64 != "" {
		contenido, err := base64.StdEncoding.DecodeString(input.ContenidoBase64)
		if err != nil {
			return nil, domain.ErrInvalidInput
		}
		sum := sha256.Sum256(contenido)
		hash = hex.EncodeToString(sum[:])
		tamano = int64(len(contenido))
	} else {
		raw, err := hex.DecodeString(hash)
		if err != nil || len(raw) != sha256.Size {
			return nil, domain.ErrInvalidInput
		}
	}

	// 4. The storage URL never hits the database in plaintext
	urlEncrypted, err := s.cipher.Encrypt(input.URL)
	if err != nil {
		return nil, err
	}

	documento := &models.Documento{
		PrestamoID:    input.PrestamoID,
		ClienteID:     input.ClienteID,
		TipoDocumento: input.TipoDocumento,
		NombreArchivo: input.NombreArchivo,
		URLEncrypted:  urlEncrypted,
		HashContenido: hash,
		TamanoBytes:   tamano,
		SubidoPor:     req.ActorID,
	}
	if err := s.documentoRepo.Create(ctx, documento); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    req.ActorID,
		EventType:    models.AuditEventDataChange,
		ResourceType: "documento",
		ResourceID:   documento.ID,
		Action:       "upload",
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		Details: map[string]interface{}{
			"tipo_documento": documento.TipoDocumento,
			"nombre_archivo": documento.NombreArchivo,
			"hash_contenido": documento.HashContenido,
		},
		Success: true,
	})

	logger.Infof("✅ Document registered: %s", documento.NombreArchivo)
	return documento.ToResponse(), nil
}

// GetByID gets a document with its decrypted storage URL. Every call is
// audited as a data access event.
func (s *DocumentoService) GetByID(ctx context.Context, id string, req RequestContext) (*models.DocumentoResponse, error) {
	documento, err := s.getDocumento(ctx, id)
	if err != nil {
		return nil, err
	}

	url, err := s.cipher.Decrypt(documento.URLEncrypted)
	if err != nil {
		return nil, err
	}
	resp := documento.ToResponse()
	resp.URL = url

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    req.ActorID,
		EventType:    models.AuditEventDataAccess,
		ResourceType: "documento",
		ResourceID:   documento.ID,
		Action:       "document_read",
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		Details:      map[string]interface{}{"nombre_archivo": documento.NombreArchivo},
		Success:      true,
	})

	return resp, nil
}

// List lists document metadata for a loan or client. URLs stay hidden.
func (s *DocumentoService) List(ctx context.Context, prestamoID, clienteID string, offset, limit int) ([]*models.DocumentoResponse, int64, error) {
	documentos, total, err := s.documentoRepo.List(ctx, prestamoID, clienteID, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*models.DocumentoResponse, len(documentos))
	for i, documento := range documentos {
		responses[i] = documento.ToResponse()
	}
	return responses, total, nil
}

// Delete removes a document record
func (s *DocumentoService) Delete(ctx context.Context, id string, req RequestContext) error {
	documento, err := s.getDocumento(ctx, id)
	if err != nil {
		return err
	}

	if err := s.documentoRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    req.ActorID,
		EventType:    models.AuditEventDataChange,
		ResourceType: "documento",
		ResourceID:   documento.ID,
		Action:       "delete",
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		Details:      map[string]interface{}{"nombre_archivo": documento.NombreArchivo},
		Success:      true,
	})

	logger.Infof("🗑️ Document deleted: %s", documento.NombreArchivo)
	return nil
}

func (s *DocumentoService) getDocumento(ctx context.Context, id string) (*models.Documento, error) {
	documento, err := s.documentoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDocumentoNotFound
		}
		return nil, err
	}
	return documento, nil
}

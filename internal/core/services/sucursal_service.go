package services

import (
	"context"
	"errors"

	"financepro-backend/internal/adapters/persistence/models"
	"financepro-backend/internal/adapters/persistence/repositories"
	"financepro-backend/internal/core/domain"
	"financepro-backend/internal/pkg/logger"

	"gorm.io/gorm"
)

// SucursalService handles branch business logic
type SucursalService struct {
	sucursalRepo *repositories.SucursalRepository
	auditor      Auditor
}

// NewSucursalService creates a new branch service
func NewSucursalService(sucursalRepo *repositories.SucursalRepository, auditor Auditor) *SucursalService {
	return &SucursalService{
		sucursalRepo: sucursalRepo,
		auditor:      auditor,
	}
}

// CreateSucursalInput represents create branch input
type CreateSucursalInput struct {
	Codigo    string
	Nombre    string
	Direccion string
	Telefono  string
	Provincia string
	Pais      string
	Gerente   string
}

// UpdateSucursalInput represents update branch input
type UpdateSucursalInput struct {
	Nombre    *string
	Direccion *string
	Telefono  *string
	Provincia *string
	Pais      *string
	Gerente   *string
	Activa    *bool
}

// ListActivas lists active branches (public, feeds the login selector)
func (s *SucursalService) ListActivas(ctx context.Context) ([]*models.Sucursal, error) {
	return s.sucursalRepo.ListActivas(ctx)
}

// GetActiva gets an active branch by ID. Inactive branches are hidden
// from the public read just like missing ones.
func (s *SucursalService) GetActiva(ctx context.Context, id string) (*models.Sucursal, error) {
	sucursal, err := s.sucursalRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSucursalNotFound
		}
		return nil, err
	}
	if !sucursal.Activa {
		return nil, domain.ErrSucursalNotFound
	}
	return sucursal, nil
}

// List lists all branches with pagination (admin view)
func (s *SucursalService) List(ctx context.Context, offset, limit int) ([]*models.Sucursal, int64, error) {
	return s.sucursalRepo.List(ctx, offset, limit)
}

// Create creates a new branch
func (s *SucursalService) Create(ctx context.Context, input *CreateSucursalInput, req RequestContext) (*models.Sucursal, error) {
	exists, err := s.sucursalRepo.ExistsByCodigo(ctx, input.Codigo)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateEntry
	}

	sucursal := &models.Sucursal{
		Codigo:    input.Codigo,
		Nombre:    input.Nombre,
		Direccion: input.Direccion,
		Telefono:  input.Telefono,
		Provincia: input.Provincia,
		Pais:      input.Pais,
		Gerente:   input.Gerente,
		Activa:    true,
	}
	if sucursal.Pais == "" {
		sucursal.Pais = "Panamá"
	}

	if err := s.sucursalRepo.Create(ctx, sucursal); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    req.ActorID,
		EventType:    models.AuditEventDataChange,
		ResourceType: "sucursal",
		ResourceID:   sucursal.ID,
		Action:       "create",
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		Details:      map[string]interface{}{"codigo": sucursal.Codigo, "nombre": sucursal.Nombre},
		Success:      true,
	})

	logger.Infof("✅ Branch created: %s (%s)", sucursal.Codigo, sucursal.Nombre)
	return sucursal, nil
}

// Update updates a branch. Deactivation is refused while active users
// are still assigned to it.
func (s *SucursalService) Update(ctx context.Context, id string, input *UpdateSucursalInput, req RequestContext) (*models.Sucursal, error) {
	sucursal, err := s.sucursalRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSucursalNotFound
		}
		return nil, err
	}

	changed := make(map[string]interface{})

	if input.Nombre != nil && *input.Nombre != sucursal.Nombre {
		sucursal.Nombre = *input.Nombre
		changed["nombre"] = *input.Nombre
	}
	if input.Direccion != nil && *input.Direccion != sucursal.Direccion {
		sucursal.Direccion = *input.Direccion
		changed["direccion"] = *input.Direccion
	}
	if input.Telefono != nil && *input.Telefono != sucursal.Telefono {
		sucursal.Telefono = *input.Telefono
		changed["telefono"] = *input.Telefono
	}
	if input.Provincia != nil && *input.Provincia != sucursal.Provincia {
		sucursal.Provincia = *input.Provincia
		changed["provincia"] = *input.Provincia
	}
	if input.Pais != nil && *input.Pais != sucursal.Pais {
		sucursal.Pais = *input.Pais
		changed["pais"] = *input.Pais
	}
	if input.Gerente != nil && *input.Gerente != sucursal.Gerente {
		sucursal.Gerente = *input.Gerente
		changed["gerente"] = *input.Gerente
	}

	if input.Activa != nil && *input.Activa != sucursal.Activa {
		if !*input.Activa {
			usuarios, err := s.sucursalRepo.CountUsuarios(ctx, id)
			if err != nil {
				return nil, err
			}
			clientes, err := s.sucursalRepo.CountClientes(ctx, id)
			if err != nil {
				return nil, err
			}
			if usuarios > 0 || clientes > 0 {
				return nil, domain.ErrSucursalInUse
			}
		}
		sucursal.Activa = *input.Activa
		changed["activa"] = *input.Activa
	}

	if len(changed) == 0 {
		return sucursal, nil
	}

	if err := s.sucursalRepo.Update(ctx, sucursal); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    req.ActorID,
		EventType:    models.AuditEventDataChange,
		ResourceType: "sucursal",
		ResourceID:   sucursal.ID,
		Action:       "update",
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		Details:      changed,
		Success:      true,
	})

	logger.Infof("✅ Branch updated: %s", sucursal.Codigo)
	return sucursal, nil
}

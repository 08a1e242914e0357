package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"financepro-backend/internal/adapters/persistence/models"
	"financepro-backend/internal/adapters/persistence/repositories"
	"financepro-backend/internal/core/domain"
	"financepro-backend/internal/pkg/crypto"
	"financepro-backend/internal/pkg/logger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const fechaNacimientoLayout = "2006-01-02"

// ClienteService handles client business logic. All PII goes through
// the cipher before it touches the database.
type ClienteService struct {
	clienteRepo  *repositories.ClienteRepository
	sucursalRepo *repositories.SucursalRepository
	cipher       *crypto.Cipher
	auditor      Auditor
}

// NewClienteService creates a new client service
func NewClienteService(
	clienteRepo *repositories.ClienteRepository,
	sucursalRepo *repositories.SucursalRepository,
	cipher *crypto.Cipher,
	auditor Auditor,
) *ClienteService {
	return &ClienteService{
		clienteRepo:  clienteRepo,
		sucursalRepo: sucursalRepo,
		cipher:       cipher,
		auditor:      auditor,
	}
}

// CreateClienteInput represents create client input
type CreateClienteInput struct {
	Nombre            string
	Apellido          string
	Telefono          string
	Direccion         string
	Cedula            string
	Ruc               string
	FechaNacimiento   string
	IngresosMensuales decimal.Decimal
	Ocupacion         string
	NivelRiesgo       string
	EsPEP             bool
	SucursalID        string
}

// UpdateClienteInput represents update client input
type UpdateClienteInput struct {
	Nombre            *string
	Apellido          *string
	Telefono          *string
	Direccion         *string
	Cedula            *string
	Ruc               *string
	FechaNacimiento   *string
	IngresosMensuales *decimal.Decimal
	Ocupacion         *string
	NivelRiesgo       *string
	EsPEP             *bool
}

// Create registers a new client with its PII encrypted at rest
func (s *ClienteService) Create(ctx context.Context, input *CreateClienteInput, req RequestContext) (*models.ClienteResponse, error) {
	// 1. Branch must exist
	sucursal, err := s.sucursalRepo.GetByID(ctx, input.SucursalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSucursalNotFound
		}
		return nil, err
	}

	// 2. Risk level defaults to BAJO
	nivelRiesgo := input.NivelRiesgo
	if nivelRiesgo == "" {
		nivelRiesgo = models.RiesgoBajo
	}
	if !contains(models.NivelesRiesgo(), nivelRiesgo) {
		return nil, domain.ErrInvalidInput
	}

	// 3. Birth date must be a valid date when provided
	if input.FechaNacimiento != "" {
		if _, err := time.Parse(fechaNacimientoLayout, input.FechaNacimiento); err != nil {
			return nil, domain.ErrInvalidInput
		}
	}

	if input.IngresosMensuales.IsNegative() {
		return nil, domain.ErrMontoInvalido
	}

	// 4. Unique client number scoped by branch code
	numero, err := s.generateNumeroCliente(ctx, sucursal.Codigo)
	if err != nil {
		return nil, err
	}

	// 5. Encrypt the PII columns
	cliente := &models.Cliente{
		NumeroCliente:     numero,
		Nombre:            input.Nombre,
		Apellido:          input.Apellido,
		IngresosMensuales: input.IngresosMensuales,
		Ocupacion:         input.Ocupacion,
		NivelRiesgo:       nivelRiesgo,
		EsPEP:             input.EsPEP,
		SucursalID:        input.SucursalID,
		Activo:            true,
	}
	if err := s.encryptInto(cliente, input.Telefono, input.Direccion, input.Cedula, input.Ruc, input.FechaNacimiento); err != nil {
		return nil, err
	}

	if err := s.clienteRepo.Create(ctx, cliente); err != nil {
		return nil, err
	}
	cliente.Sucursal = sucursal

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    req.ActorID,
		EventType:    models.AuditEventDataChange,
		ResourceType: "cliente",
		ResourceID:   cliente.ID,
		Action:       "create",
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		Details: map[string]interface{}{
			"numero_cliente": cliente.NumeroCliente,
			"sucursal_id":    cliente.SucursalID,
			"nivel_riesgo":   cliente.NivelRiesgo,
		},
		Success: true,
	})

	logger.Infof("✅ Client created: %s", cliente.NumeroCliente)
	return s.toMaskedResponse(cliente)
}

// GetByID gets a client with masked PII
func (s *ClienteService) GetByID(ctx context.Context, id string) (*models.ClienteResponse, error) {
	cliente, err := s.getCliente(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toMaskedResponse(cliente)
}

// GetPII gets a client with decrypted PII. Every call is audited as a
// data access event.
func (s *ClienteService) GetPII(ctx context.Context, id string, req RequestContext) (*models.ClienteResponse, error) {
	cliente, err := s.getCliente(ctx, id)
	if err != nil {
		return nil, err
	}

	resp, err := s.toPIIResponse(cliente)
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    req.ActorID,
		EventType:    models.AuditEventDataAccess,
		ResourceType: "cliente",
		ResourceID:   cliente.ID,
		Action:       "pii_read",
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		Details:      map[string]interface{}{"numero_cliente": cliente.NumeroCliente},
		Success:      true,
	})

	return resp, nil
}

// List lists clients with masked PII
func (s *ClienteService) List(ctx context.Context, filter repositories.ClienteFilter, offset, limit int) ([]*models.ClienteResponse, int64, error) {
	clientes, total, err := s.clienteRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*models.ClienteResponse, len(clientes))
	for i, cliente := range clientes {
		resp, err := s.toMaskedResponse(cliente)
		if err != nil {
			return nil, 0, err
		}
		responses[i] = resp
	}
	return responses, total, nil
}

// Update updates a client, re-encrypting any PII that changed
func (s *ClienteService) Update(ctx context.Context, id string, input *UpdateClienteInput, req RequestContext) (*models.ClienteResponse, error) {
	cliente, err := s.getCliente(ctx, id)
	if err != nil {
		return nil, err
	}

	// Changed PII is audited by field name only, values stay out of the trail
	changed := make(map[string]interface{})

	if input.Nombre != nil && *input.Nombre != cliente.Nombre {
		cliente.Nombre = *input.Nombre
		changed["nombre"] = *input.Nombre
	}
	if input.Apellido != nil && *input.Apellido != cliente.Apellido {
		cliente.Apellido = *input.Apellido
		changed["apellido"] = *input.Apellido
	}
	if input.Telefono != nil {
		enc, err := s.cipher.EncryptPtr(input.Telefono)
		if err != nil {
			return nil, err
		}
		cliente.TelefonoEncrypted = enc
		changed["telefono"] = "updated"
	}
	if input.Direccion != nil {
		enc, err := s.cipher.EncryptPtr(input.Direccion)
		if err != nil {
			return nil, err
		}
		cliente.DireccionEncrypted = enc
		changed["direccion"] = "updated"
	}
	if input.Cedula != nil {
		enc, err := s.cipher.EncryptPtr(input.Cedula)
		if err != nil {
			return nil, err
		}
		cliente.CedulaEncrypted = enc
		changed["cedula"] = "updated"
	}
	if input.Ruc != nil {
		enc, err := s.cipher.EncryptPtr(input.Ruc)
		if err != nil {
			return nil, err
		}
		cliente.RucEncrypted = enc
		changed["ruc"] = "updated"
	}
	if input.FechaNacimiento != nil {
		if *input.FechaNacimiento != "" {
			if _, err := time.Parse(fechaNacimientoLayout, *input.FechaNacimiento); err != nil {
				return nil, domain.ErrInvalidInput
			}
		}
		enc, err := s.cipher.EncryptPtr(input.FechaNacimiento)
		if err != nil {
			return nil, err
		}
		cliente.FechaNacimientoEncrypted = enc
		changed["fecha_nacimiento"] = "updated"
	}
	if input.IngresosMensuales != nil {
		if input.IngresosMensuales.IsNegative() {
			return nil, domain.ErrMontoInvalido
		}
		cliente.IngresosMensuales = *input.IngresosMensuales
		changed["ingresos_mensuales"] = input.IngresosMensuales.String()
	}
	if input.Ocupacion != nil && *input.Ocupacion != cliente.Ocupacion {
		cliente.Ocupacion = *input.Ocupacion
		changed["ocupacion"] = *input.Ocupacion
	}
	if input.NivelRiesgo != nil && *input.NivelRiesgo != cliente.NivelRiesgo {
		if !contains(models.NivelesRiesgo(), *input.NivelRiesgo) {
			return nil, domain.ErrInvalidInput
		}
		cliente.NivelRiesgo = *input.NivelRiesgo
		changed["nivel_riesgo"] = *input.NivelRiesgo
	}
	if input.EsPEP != nil && *input.EsPEP != cliente.EsPEP {
		cliente.EsPEP = *input.EsPEP
		changed["es_pep"] = *input.EsPEP
	}

	if len(changed) == 0 {
		return s.toMaskedResponse(cliente)
	}

	if err := s.clienteRepo.Update(ctx, cliente); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    req.ActorID,
		EventType:    models.AuditEventDataChange,
		ResourceType: "cliente",
		ResourceID:   cliente.ID,
		Action:       "update",
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		Details:      changed,
		Success:      true,
	})

	logger.Infof("✅ Client updated: %s", cliente.NumeroCliente)
	return s.toMaskedResponse(cliente)
}

// Delete deactivates a client. Clients with open loans stay active.
func (s *ClienteService) Delete(ctx context.Context, id string, req RequestContext) error {
	cliente, err := s.getCliente(ctx, id)
	if err != nil {
		return err
	}

	abiertos, err := s.clienteRepo.CountPrestamosActivos(ctx, id)
	if err != nil {
		return err
	}
	if abiertos > 0 {
		return domain.ErrClienteConPrestamos
	}

	cliente.Activo = false
	if err := s.clienteRepo.Update(ctx, cliente); err != nil {
		return err
	}

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    req.ActorID,
		EventType:    models.AuditEventDataChange,
		ResourceType: "cliente",
		ResourceID:   cliente.ID,
		Action:       "delete",
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		Details:      map[string]interface{}{"numero_cliente": cliente.NumeroCliente},
		Success:      true,
	})

	logger.Infof("🗑️ Client deactivated: %s", cliente.NumeroCliente)
	return nil
}

// Bloquear blocks a client from new operations
func (s *ClienteService) Bloquear(ctx context.Context, id, motivo string, req RequestContext) error {
	return s.setBloqueado(ctx, id, true, motivo, req)
}

// Desbloquear lifts a client block
func (s *ClienteService) Desbloquear(ctx context.Context, id, motivo string, req RequestContext) error {
	return s.setBloqueado(ctx, id, false, motivo, req)
}

func (s *ClienteService) setBloqueado(ctx context.Context, id string, bloqueado bool, motivo string, req RequestContext) error {
	cliente, err := s.getCliente(ctx, id)
	if err != nil {
		return err
	}

	action := "desbloquear"
	if bloqueado {
		action = "bloquear"
	}

	cliente.Bloqueado = bloqueado
	if err := s.clienteRepo.Update(ctx, cliente); err != nil {
		return err
	}

	details := map[string]interface{}{"numero_cliente": cliente.NumeroCliente}
	if motivo != "" {
		details["motivo"] = motivo
	}

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    req.ActorID,
		EventType:    models.AuditEventSecurity,
		ResourceType: "cliente",
		ResourceID:   cliente.ID,
		Action:       action,
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		Details:      details,
		Success:      true,
	})

	logger.Infof("✅ Client %s: %s", action, cliente.NumeroCliente)
	return nil
}

func (s *ClienteService) getCliente(ctx context.Context, id string) (*models.Cliente, error) {
	cliente, err := s.clienteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrClienteNotFound
		}
		return nil, err
	}
	return cliente, nil
}

func (s *ClienteService) encryptInto(cliente *models.Cliente, telefono, direccion, cedula, ruc, fechaNacimiento string) error {
	var err error
	if cliente.TelefonoEncrypted, err = s.cipher.EncryptPtr(&telefono); err != nil {
		return err
	}
	if cliente.DireccionEncrypted, err = s.cipher.EncryptPtr(&direccion); err != nil {
		return err
	}
	if cliente.CedulaEncrypted, err = s.cipher.EncryptPtr(&cedula); err != nil {
		return err
	}
	if cliente.RucEncrypted, err = s.cipher.EncryptPtr(&ruc); err != nil {
		return err
	}
	if cliente.FechaNacimientoEncrypted, err = s.cipher.EncryptPtr(&fechaNacimiento); err != nil {
		return err
	}
	return nil
}

// toMaskedResponse decrypts the PII and exposes only masked variants
func (s *ClienteService) toMaskedResponse(cliente *models.Cliente) (*models.ClienteResponse, error) {
	resp := cliente.ToResponse()

	fields := []struct {
		encrypted *string
		target    *string
		mask      func(string) string
	}{
		{cliente.TelefonoEncrypted, &resp.Telefono, crypto.MaskPhone},
		{cliente.DireccionEncrypted, &resp.Direccion, crypto.MaskValue},
		{cliente.CedulaEncrypted, &resp.Cedula, crypto.MaskDocumento},
		{cliente.RucEncrypted, &resp.Ruc, crypto.MaskDocumento},
		{cliente.FechaNacimientoEncrypted, &resp.FechaNacimiento, crypto.MaskValue},
	}
	for _, f := range fields {
		plain, err := s.cipher.DecryptPtr(f.encrypted)
		if err != nil {
			return nil, err
		}
		*f.target = crypto.MaskPtr(plain, f.mask)
	}

	return resp, nil
}

// toPIIResponse decrypts the PII into plaintext fields
func (s *ClienteService) toPIIResponse(cliente *models.Cliente) (*models.ClienteResponse, error) {
	resp := cliente.ToResponse()

	fields := []struct {
		encrypted *string
		target    *string
	}{
		{cliente.TelefonoEncrypted, &resp.Telefono},
		{cliente.DireccionEncrypted, &resp.Direccion},
		{cliente.CedulaEncrypted, &resp.Cedula},
		{cliente.RucEncrypted, &resp.Ruc},
		{cliente.FechaNacimientoEncrypted, &resp.FechaNacimiento},
	}
	for _, f := range fields {
		plain, err := s.cipher.DecryptPtr(f.encrypted)
		if err != nil {
			return nil, err
		}
		if plain != nil {
			*f.target = *plain
		}
	}

	return resp, nil
}

// generateNumeroCliente builds CLI-<branch>-<6 digits>, retrying on the
// rare collision
func (s *ClienteService) generateNumeroCliente(ctx context.Context, codigoSucursal string) (string, error) {
	for i := 0; i < 10; i++ {
		numero := fmt.Sprintf("CLI-%s-%06d", codigoSucursal, rand.Intn(1000000))
		exists, err := s.clienteRepo.ExistsByNumeroCliente(ctx, numero)
		if err != nil {
			return "", err
		}
		if !exists {
			return numero, nil
		}
	}
	return "", domain.ErrInternalServer
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

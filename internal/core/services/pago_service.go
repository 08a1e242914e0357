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
	"financepro-backend/internal/pkg/logger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// estadosPagables are the loan states that accept payments
var estadosPagables = []string{models.EstadoDesembolsado, models.EstadoVigente, models.EstadoMora}

// PagoService handles payment business logic
type PagoService struct {
	pagoRepo     *repositories.PagoRepository
	prestamoRepo *repositories.PrestamoRepository
	auditor      Auditor
}

// NewPagoService creates a new payment service
func NewPagoService(
	pagoRepo *repositories.PagoRepository,
	prestamoRepo *repositories.PrestamoRepository,
	auditor Auditor,
) *PagoService {
	return &PagoService{
		pagoRepo:     pagoRepo,
		prestamoRepo: prestamoRepo,
		auditor:      auditor,
	}
}

// CreatePagoInput represents register payment input
type CreatePagoInput struct {
	PrestamoID    string
	Monto         decimal.Decimal
	MetodoPago    string
	Referencia    string
	Observaciones string
	FechaPago     *time.Time
}

// Registrar records a payment against a loan and rolls the balance
// forward. A payment that clears the balance closes the loan.
func (s *PagoService) Registrar(ctx context.Context, input *CreatePagoInput, req RequestContext) (*models.PagoResponse, error) {
	// 1. The loan must exist and be in a payable state
	prestamo, err := s.prestamoRepo.GetByID(ctx, input.PrestamoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPrestamoNotFound
		}
		return nil, err
	}
	if !contains(estadosPagables, prestamo.Estado) {
		return nil, domain.ErrPrestamoNoPagable
	}

	// 2. Amount must be positive and never exceed the open balance
	if !input.Monto.IsPositive() {
		return nil, domain.ErrMontoInvalido
	}
	if input.Monto.GreaterThan(prestamo.SaldoPendiente) {
		return nil, domain.ErrPagoExcedeSaldo
	}

	metodo := input.MetodoPago
	if metodo == "" {
		metodo = models.ModalidadEfectivo
	}
	if !contains(models.ModalidadesPago(), metodo) {
		return nil, domain.ErrModalidadInvalida
	}

	fechaPago := time.Now()
	if input.FechaPago != nil {
		fechaPago = *input.FechaPago
	}

	// 3. Record the payment
	numero, err := s.generateNumeroPago(ctx)
	if err != nil {
		return nil, err
	}
	pago := &models.Pago{
		NumeroPago:    numero,
		PrestamoID:    prestamo.ID,
		Monto:         input.Monto,
		FechaPago:     fechaPago,
		MetodoPago:    metodo,
		Referencia:    input.Referencia,
		RegistradoPor: req.ActorID,
		Observaciones: input.Observaciones,
	}
	if err := s.pagoRepo.Create(ctx, pago); err != nil {
		return nil, err
	}

	// 4. Roll the loan balance forward. The paid total is re-derived from
	// the payments table so the balance never drifts from the records.
	pagado, err := s.pagoRepo.SumByPrestamo(ctx, prestamo.ID)
	if err != nil {
		return nil, err
	}
	prestamo.MontoPagado = pagado
	prestamo.SaldoPendiente = prestamo.MontoTotal.Sub(prestamo.MontoPagado)
	switch {
	case !prestamo.SaldoPendiente.IsPositive():
		prestamo.SaldoPendiente = decimal.Zero
		prestamo.Estado = models.EstadoCancelado
		prestamo.DiasMora = 0
	case prestamo.Estado == models.EstadoDesembolsado:
		// First payment puts the loan into its regular repayment life
		prestamo.Estado = models.EstadoVigente
	}
	if err := s.prestamoRepo.Update(ctx, prestamo); err != nil {
		logger.Errorf("❌ Payment %s saved but balance update failed for %s: %v", pago.NumeroPago, prestamo.NumeroPrestamo, err)
		return nil, err
	}

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    req.ActorID,
		EventType:    models.AuditEventDataChange,
		ResourceType: "pago",
		ResourceID:   pago.ID,
		Action:       "registrar_pago",
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		Details: map[string]interface{}{
			"numero_pago":     pago.NumeroPago,
			"numero_prestamo": prestamo.NumeroPrestamo,
			"monto":           pago.Monto.String(),
			"saldo_pendiente": prestamo.SaldoPendiente.String(),
			"estado_prestamo": prestamo.Estado,
		},
		Success: true,
	})

	if prestamo.Estado == models.EstadoCancelado {
		logger.Infof("✅ Payment %s settled loan %s", pago.NumeroPago, prestamo.NumeroPrestamo)
	} else {
		logger.Infof("✅ Payment registered: %s (%s on %s)", pago.NumeroPago, pago.Monto, prestamo.NumeroPrestamo)
	}

	pago.Prestamo = prestamo
	return pago.ToResponse(), nil
}

// GetByID gets a payment by ID
func (s *PagoService) GetByID(ctx context.Context, id string) (*models.PagoResponse, error) {
	pago, err := s.pagoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPagoNotFound
		}
		return nil, err
	}
	return pago.ToResponse(), nil
}

// ListByPrestamo lists the payments of one loan, latest first
func (s *PagoService) ListByPrestamo(ctx context.Context, prestamoID string, offset, limit int) ([]*models.PagoResponse, int64, error) {
	if _, err := s.prestamoRepo.GetByID(ctx, prestamoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, domain.ErrPrestamoNotFound
		}
		return nil, 0, err
	}

	pagos, total, err := s.pagoRepo.ListByPrestamo(ctx, prestamoID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return toPagoResponses(pagos), total, nil
}

// List lists payments, optionally scoped to one branch
func (s *PagoService) List(ctx context.Context, sucursalID string, offset, limit int) ([]*models.PagoResponse, int64, error) {
	pagos, total, err := s.pagoRepo.List(ctx, sucursalID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return toPagoResponses(pagos), total, nil
}

func toPagoResponses(pagos []*models.Pago) []*models.PagoResponse {
	responses := make([]*models.PagoResponse, len(pagos))
	for i, pago := range pagos {
		responses[i] = pago.ToResponse()
	}
	return responses
}

// generateNumeroPago builds PAG-YEAR-RANDOM, retrying on the rare
// collision
func (s *PagoService) generateNumeroPago(ctx context.Context) (string, error) {
	anio := time.Now().Year()
	for i := 0; i < 10; i++ {
		numero := fmt.Sprintf("PAG-%d-%06d", anio, rand.Intn(1000000))
		exists, err := s.pagoRepo.ExistsByNumero(ctx, numero)
		if err != nil {
			return "", err
		}
		if !exists {
			return numero, nil
		}
	}
	return "", domain.ErrInternalServer
}

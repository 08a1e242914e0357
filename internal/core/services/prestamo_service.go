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

// porcentajeMaximoDescuento caps the monthly installment at 30% of the
// client's registered income (Panamanian payroll-deduction limit).
var porcentajeMaximoDescuento = decimal.NewFromFloat(0.30)

// transicionesEstado lists the allowed next states per current state.
// RECHAZADO, CANCELADO, REFINANCIADO and CASTIGADO are terminal.
var transicionesEstado = map[string][]string{
	models.EstadoSolicitud:    {models.EstadoEvaluacion, models.EstadoRechazado, models.EstadoCancelado},
	models.EstadoEvaluacion:   {models.EstadoAprobado, models.EstadoRechazado},
	models.EstadoAprobado:     {models.EstadoDesembolsado, models.EstadoCancelado},
	models.EstadoDesembolsado: {models.EstadoVigente},
	models.EstadoVigente:      {models.EstadoMora, models.EstadoCancelado, models.EstadoRefinanciado},
	models.EstadoMora:         {models.EstadoVigente, models.EstadoCancelado, models.EstadoCastigado, models.EstadoRefinanciado},
}

// PrestamoService handles loan business logic
type PrestamoService struct {
	prestamoRepo *repositories.PrestamoRepository
	clienteRepo  *repositories.ClienteRepository
	sucursalRepo *repositories.SucursalRepository
	auditor      Auditor
}

// NewPrestamoService creates a new loan service
func NewPrestamoService(
	prestamoRepo *repositories.PrestamoRepository,
	clienteRepo *repositories.ClienteRepository,
	sucursalRepo *repositories.SucursalRepository,
	auditor Auditor,
) *PrestamoService {
	return &PrestamoService{
		prestamoRepo: prestamoRepo,
		clienteRepo:  clienteRepo,
		sucursalRepo: sucursalRepo,
		auditor:      auditor,
	}
}

// CreatePrestamoInput represents create loan input
type CreatePrestamoInput struct {
	ClienteID     string
	SucursalID    string
	Tipo          string
	Monto         decimal.Decimal
	TasaInteres   decimal.Decimal
	PlazoMeses    int
	ModalidadPago string
	Observaciones string
}

// UpdatePrestamoInput represents update loan input. Financial terms can
// only change while the loan is still in SOLICITUD or EVALUACION.
type UpdatePrestamoInput struct {
	Estado        *string
	Monto         *decimal.Decimal
	TasaInteres   *decimal.Decimal
	PlazoMeses    *int
	ModalidadPago *string
	Observaciones *string
}

// Create opens a loan application in SOLICITUD state. Totals and dates
// are computed later, at disbursement.
func (s *PrestamoService) Create(ctx context.Context, input *CreatePrestamoInput, req RequestContext) (*models.PrestamoResponse, error) {
	// 1. Client must exist, be active and not blocked
	cliente, err := s.clienteRepo.GetByID(ctx, input.ClienteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrClienteNotFound
		}
		return nil, err
	}
	if !cliente.Activo {
		return nil, domain.ErrClienteNotFound
	}
	if cliente.Bloqueado {
		return nil, domain.ErrClienteBloqueado
	}

	// 2. Validate the financial terms
	if !contains(models.TiposPrestamo(), input.Tipo) {
		return nil, domain.ErrTipoInvalido
	}
	modalidad := input.ModalidadPago
	if modalidad == "" {
		modalidad = models.ModalidadVentanilla
	}
	if !contains(models.ModalidadesPago(), modalidad) {
		return nil, domain.ErrModalidadInvalida
	}
	if !input.Monto.IsPositive() {
		return nil, domain.ErrMontoInvalido
	}
	if input.TasaInteres.IsNegative() || input.PlazoMeses < 1 {
		return nil, domain.ErrInvalidInput
	}

	// 3. Loans default to the client's branch
	sucursalID := input.SucursalID
	if sucursalID == "" {
		sucursalID = cliente.SucursalID
	}
	sucursal, err := s.sucursalRepo.GetByID(ctx, sucursalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSucursalNotFound
		}
		return nil, err
	}

	// 4. Unique loan number: TIPO-SUCURSAL-YEAR-RANDOM
	numero, err := s.generateNumeroPrestamo(ctx, input.Tipo, sucursal.Codigo)
	if err != nil {
		return nil, err
	}

	prestamo := &models.Prestamo{
		NumeroPrestamo: numero,
		ClienteID:      cliente.ID,
		SucursalID:     sucursal.ID,
		Tipo:           input.Tipo,
		Monto:          input.Monto,
		TasaInteres:    input.TasaInteres,
		PlazoMeses:     input.PlazoMeses,
		Estado:         models.EstadoSolicitud,
		ModalidadPago:  modalidad,
		Observaciones:  input.Observaciones,
	}
	if err := s.prestamoRepo.Create(ctx, prestamo); err != nil {
		return nil, err
	}
	prestamo.Cliente = cliente
	prestamo.Sucursal = sucursal

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    req.ActorID,
		EventType:    models.AuditEventDataChange,
		ResourceType: "prestamo",
		ResourceID:   prestamo.ID,
		Action:       "create",
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		Details: map[string]interface{}{
			"numero_prestamo": prestamo.NumeroPrestamo,
			"cliente_id":      prestamo.ClienteID,
			"tipo":            prestamo.Tipo,
			"monto":           prestamo.Monto.String(),
			"plazo_meses":     prestamo.PlazoMeses,
		},
		Success: true,
	})

	logger.Infof("✅ Loan created: %s", prestamo.NumeroPrestamo)
	return prestamo.ToResponse(), nil
}

// GetByID gets a loan by ID
func (s *PrestamoService) GetByID(ctx context.Context, id string) (*models.PrestamoResponse, error) {
	prestamo, err := s.getPrestamo(ctx, id)
	if err != nil {
		return nil, err
	}
	return prestamo.ToResponse(), nil
}

// GetByNumero gets a loan by its business number
func (s *PrestamoService) GetByNumero(ctx context.Context, numero string) (*models.PrestamoResponse, error) {
	prestamo, err := s.prestamoRepo.GetByNumero(ctx, numero)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPrestamoNotFound
		}
		return nil, err
	}
	return prestamo.ToResponse(), nil
}

// List lists loans with filters and pagination
func (s *PrestamoService) List(ctx context.Context, filter repositories.PrestamoFilter, offset, limit int) ([]*models.PrestamoResponse, int64, error) {
	prestamos, total, err := s.prestamoRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*models.PrestamoResponse, len(prestamos))
	for i, prestamo := range prestamos {
		responses[i] = prestamo.ToResponse()
	}
	return responses, total, nil
}

// Update updates a loan. State changes go through the transition table,
// financial terms are frozen once the loan leaves evaluation.
func (s *PrestamoService) Update(ctx context.Context, id string, input *UpdatePrestamoInput, req RequestContext) (*models.PrestamoResponse, error) {
	prestamo, err := s.getPrestamo(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := make(map[string]interface{})
	editable := prestamo.Estado == models.EstadoSolicitud || prestamo.Estado == models.EstadoEvaluacion

	if input.Monto != nil && !input.Monto.Equal(prestamo.Monto) {
		if !editable {
			return nil, domain.ErrEstadoInvalido
		}
		if !input.Monto.IsPositive() {
			return nil, domain.ErrMontoInvalido
		}
		prestamo.Monto = *input.Monto
		changed["monto"] = input.Monto.String()
	}
	if input.TasaInteres != nil && !input.TasaInteres.Equal(prestamo.TasaInteres) {
		if !editable {
			return nil, domain.ErrEstadoInvalido
		}
		if input.TasaInteres.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		prestamo.TasaInteres = *input.TasaInteres
		changed["tasa_interes"] = input.TasaInteres.String()
	}
	if input.PlazoMeses != nil && *input.PlazoMeses != prestamo.PlazoMeses {
		if !editable {
			return nil, domain.ErrEstadoInvalido
		}
		if *input.PlazoMeses < 1 {
			return nil, domain.ErrInvalidInput
		}
		prestamo.PlazoMeses = *input.PlazoMeses
		changed["plazo_meses"] = *input.PlazoMeses
	}
	if input.ModalidadPago != nil && *input.ModalidadPago != prestamo.ModalidadPago {
		if !contains(models.ModalidadesPago(), *input.ModalidadPago) {
			return nil, domain.ErrModalidadInvalida
		}
		prestamo.ModalidadPago = *input.ModalidadPago
		changed["modalidad_pago"] = *input.ModalidadPago
		// Authorization is bound to the payment modality
		if prestamo.DescuentoDirectoAutorizado {
			prestamo.DescuentoDirectoAutorizado = false
			prestamo.FechaAutorizacionDescuento = nil
			changed["descuento_directo_autorizado"] = false
		}
	}
	if input.Observaciones != nil && *input.Observaciones != prestamo.Observaciones {
		prestamo.Observaciones = *input.Observaciones
		changed["observaciones"] = "updated"
	}
	if input.Estado != nil && *input.Estado != prestamo.Estado {
		if !s.puedeTransicionar(prestamo.Estado, *input.Estado) {
			return nil, domain.ErrEstadoInvalido
		}
		changed["estado"] = fmt.Sprintf("%s -> %s", prestamo.Estado, *input.Estado)
		prestamo.Estado = *input.Estado
		if prestamo.Estado == models.EstadoVigente {
			prestamo.DiasMora = 0
		}
	}

	if len(changed) == 0 {
		return prestamo.ToResponse(), nil
	}

	if err := s.prestamoRepo.Update(ctx, prestamo); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    req.ActorID,
		EventType:    models.AuditEventDataChange,
		ResourceType: "prestamo",
		ResourceID:   prestamo.ID,
		Action:       "update",
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		Details:      changed,
		Success:      true,
	})

	logger.Infof("✅ Loan updated: %s", prestamo.NumeroPrestamo)
	return prestamo.ToResponse(), nil
}

// Aprobar moves a loan from EVALUACION to APROBADO and records who
// approved it
func (s *PrestamoService) Aprobar(ctx context.Context, id string, req RequestContext) (*models.PrestamoResponse, error) {
	prestamo, err := s.getPrestamo(ctx, id)
	if err != nil {
		return nil, err
	}
	if prestamo.Estado != models.EstadoEvaluacion {
		return nil, domain.ErrEstadoInvalido
	}

	prestamo.Estado = models.EstadoAprobado
	prestamo.AprobadoPor = &req.ActorID
	if err := s.prestamoRepo.Update(ctx, prestamo); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    req.ActorID,
		EventType:    models.AuditEventDataChange,
		ResourceType: "prestamo",
		ResourceID:   prestamo.ID,
		Action:       "aprobar",
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		Details:      map[string]interface{}{"numero_prestamo": prestamo.NumeroPrestamo},
		Success:      true,
	})

	logger.Infof("✅ Loan approved: %s", prestamo.NumeroPrestamo)
	return prestamo.ToResponse(), nil
}

// Desembolsar disburses an approved loan. This is where the repayment
// clock starts: start/due dates and the total amount get computed here.
func (s *PrestamoService) Desembolsar(ctx context.Context, id string, req RequestContext) (*models.PrestamoResponse, error) {
	prestamo, err := s.getPrestamo(ctx, id)
	if err != nil {
		return nil, err
	}
	if prestamo.Estado != models.EstadoAprobado {
		return nil, domain.ErrEstadoInvalido
	}
	// Direct-discount loans cannot be disbursed without the payroll authorization
	if prestamo.ModalidadPago == models.ModalidadDescuentoDirecto && !prestamo.DescuentoDirectoAutorizado {
		return nil, domain.ErrDescuentoNoAutorizado
	}

	hoy := hoyFecha()
	vencimiento := hoy.AddDate(0, 0, prestamo.PlazoMeses*30)

	prestamo.Estado = models.EstadoDesembolsado
	prestamo.FechaInicio = &hoy
	prestamo.FechaVencimiento = &vencimiento
	prestamo.MontoTotal = calcularMontoTotal(prestamo.Monto, prestamo.TasaInteres, prestamo.PlazoMeses)
	prestamo.MontoPagado = decimal.Zero
	prestamo.SaldoPendiente = prestamo.MontoTotal
	prestamo.DiasMora = 0

	if err := s.prestamoRepo.Update(ctx, prestamo); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    req.ActorID,
		EventType:    models.AuditEventDataChange,
		ResourceType: "prestamo",
		ResourceID:   prestamo.ID,
		Action:       "desembolsar",
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		Details: map[string]interface{}{
			"numero_prestamo":   prestamo.NumeroPrestamo,
			"monto_total":       prestamo.MontoTotal.String(),
			"fecha_vencimiento": vencimiento.Format(fechaNacimientoLayout),
		},
		Success: true,
	})

	logger.Infof("✅ Loan disbursed: %s (total %s)", prestamo.NumeroPrestamo, prestamo.MontoTotal)
	return prestamo.ToResponse(), nil
}

// AutorizarDescuento authorizes the payroll deduction for a
// direct-discount loan, enforcing the 30%-of-income cap
func (s *PrestamoService) AutorizarDescuento(ctx context.Context, id string, req RequestContext) (*models.PrestamoResponse, error) {
	prestamo, err := s.getPrestamo(ctx, id)
	if err != nil {
		return nil, err
	}

	// 1. Only direct-discount loans carry a payroll authorization
	if prestamo.ModalidadPago != models.ModalidadDescuentoDirecto {
		return nil, domain.ErrModalidadInvalida
	}
	if prestamo.DescuentoDirectoAutorizado {
		return nil, domain.ErrDescuentoYaAutorizado
	}

	// 2. The cap is measured against the client's registered income
	cliente, err := s.clienteRepo.GetByID(ctx, prestamo.ClienteID)
	if err != nil {
		return nil, err
	}
	if !cliente.IngresosMensuales.IsPositive() {
		return nil, domain.ErrIngresosNoRegistrados
	}

	// 3. Installment must fit inside 30% of the monthly income
	cuota := s.cuotaMensual(prestamo)
	limite := cliente.IngresosMensuales.Mul(porcentajeMaximoDescuento).Round(2)
	if cuota.GreaterThan(limite) {
		s.auditor.Record(ctx, AuditEntry{
			UsuarioID:    req.ActorID,
			EventType:    models.AuditEventSecurity,
			ResourceType: "prestamo",
			ResourceID:   prestamo.ID,
			Action:       "autorizar_descuento",
			IPAddress:    req.IPAddress,
			UserAgent:    req.UserAgent,
			Details: map[string]interface{}{
				"cuota_mensual":    cuota.String(),
				"limite_permitido": limite.String(),
			},
			Success:       false,
			FailureReason: "installment exceeds 30% of income",
		})
		return nil, domain.ErrDescuentoExcedeLimite
	}

	porcentaje := cuota.Div(cliente.IngresosMensuales).Mul(decimal.NewFromInt(100)).Round(2)
	ahora := time.Now()
	prestamo.DescuentoDirectoAutorizado = true
	prestamo.FechaAutorizacionDescuento = &ahora
	prestamo.Observaciones = appendNota(prestamo.Observaciones,
		fmt.Sprintf("[AUTORIZACIÓN] %s - Descuento directo autorizado. Cuota %s (%s%% del ingreso)",
			ahora.Format(fechaNacimientoLayout), cuota, porcentaje))

	if err := s.prestamoRepo.Update(ctx, prestamo); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    req.ActorID,
		EventType:    models.AuditEventSecurity,
		ResourceType: "prestamo",
		ResourceID:   prestamo.ID,
		Action:       "autorizar_descuento",
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		Details: map[string]interface{}{
			"numero_prestamo":    prestamo.NumeroPrestamo,
			"cuota_mensual":      cuota.String(),
			"limite_permitido":   limite.String(),
			"porcentaje_ingreso": porcentaje.String(),
		},
		Success: true,
	})

	logger.Infof("✅ Direct discount authorized: %s", prestamo.NumeroPrestamo)
	return prestamo.ToResponse(), nil
}

// RevocarDescuento revokes a payroll-deduction authorization
func (s *PrestamoService) RevocarDescuento(ctx context.Context, id, motivo string, req RequestContext) (*models.PrestamoResponse, error) {
	prestamo, err := s.getPrestamo(ctx, id)
	if err != nil {
		return nil, err
	}
	if !prestamo.DescuentoDirectoAutorizado {
		return nil, domain.ErrDescuentoNoAutorizado
	}

	nota := fmt.Sprintf("[REVOCACIÓN] %s", time.Now().Format(fechaNacimientoLayout))
	if motivo != "" {
		nota = fmt.Sprintf("%s - %s", nota, motivo)
	}

	prestamo.DescuentoDirectoAutorizado = false
	prestamo.FechaAutorizacionDescuento = nil
	prestamo.Observaciones = appendNota(prestamo.Observaciones, nota)

	if err := s.prestamoRepo.Update(ctx, prestamo); err != nil {
		return nil, err
	}

	details := map[string]interface{}{"numero_prestamo": prestamo.NumeroPrestamo}
	if motivo != "" {
		details["motivo"] = motivo
	}
	s.auditor.Record(ctx, AuditEntry{
		UsuarioID:    req.ActorID,
		EventType:    models.AuditEventSecurity,
		ResourceType: "prestamo",
		ResourceID:   prestamo.ID,
		Action:       "revocar_descuento",
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		Details:      details,
		Success:      true,
	})

	logger.Infof("✅ Direct discount revoked: %s", prestamo.NumeroPrestamo)
	return prestamo.ToResponse(), nil
}

// ValidarDescuento checks whether the installment fits the income cap
// without changing anything
func (s *PrestamoService) ValidarDescuento(ctx context.Context, id string) (*domain.ValidacionDescuento, error) {
	prestamo, err := s.getPrestamo(ctx, id)
	if err != nil {
		return nil, err
	}

	cliente, err := s.clienteRepo.GetByID(ctx, prestamo.ClienteID)
	if err != nil {
		return nil, err
	}

	resultado := &domain.ValidacionDescuento{
		PrestamoID:        prestamo.ID,
		IngresosMensuales: cliente.IngresosMensuales,
		CuotaMensual:      s.cuotaMensual(prestamo),
	}
	if !cliente.IngresosMensuales.IsPositive() {
		return resultado, nil
	}

	resultado.LimitePermitido = cliente.IngresosMensuales.Mul(porcentajeMaximoDescuento).Round(2)
	resultado.PorcentajeIngreso = resultado.CuotaMensual.Div(cliente.IngresosMensuales).Mul(decimal.NewFromInt(100)).Round(2)
	resultado.Autorizable = prestamo.ModalidadPago == models.ModalidadDescuentoDirecto &&
		!resultado.CuotaMensual.GreaterThan(resultado.LimitePermitido)

	return resultado, nil
}

// ReporteEnMora builds the delinquency report, worst first
func (s *PrestamoService) ReporteEnMora(ctx context.Context, sucursalID string) ([]domain.ReporteMoraItem, error) {
	prestamos, err := s.prestamoRepo.ListEnMora(ctx, sucursalID)
	if err != nil {
		return nil, err
	}

	items := make([]domain.ReporteMoraItem, len(prestamos))
	for i, prestamo := range prestamos {
		item := domain.ReporteMoraItem{
			PrestamoID:       prestamo.ID,
			NumeroPrestamo:   prestamo.NumeroPrestamo,
			Estado:           prestamo.Estado,
			DiasMora:         prestamo.DiasMora,
			NivelMora:        prestamo.NivelMora(),
			SaldoPendiente:   prestamo.SaldoPendiente,
			FechaVencimiento: prestamo.FechaVencimiento,
		}
		if prestamo.Cliente != nil {
			item.Cliente = prestamo.Cliente.NombreCompleto()
		}
		if prestamo.Sucursal != nil {
			item.Sucursal = prestamo.Sucursal.Nombre
		}
		items[i] = item
	}
	return items, nil
}

// ReportePorVencer lists live loans due within the window
func (s *PrestamoService) ReportePorVencer(ctx context.Context, dias int, sucursalID string) ([]*models.PrestamoResponse, error) {
	if dias <= 0 {
		dias = 30
	}
	desde := hoyFecha()
	hasta := desde.AddDate(0, 0, dias)

	prestamos, err := s.prestamoRepo.ListPorVencer(ctx, desde, hasta, sucursalID)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.PrestamoResponse, len(prestamos))
	for i, prestamo := range prestamos {
		responses[i] = prestamo.ToResponse()
	}
	return responses, nil
}

// Estadisticas aggregates the loan portfolio
func (s *PrestamoService) Estadisticas(ctx context.Context, sucursalID string) (*domain.EstadisticasPrestamos, error) {
	porEstado, err := s.prestamoRepo.CountByEstado(ctx, sucursalID)
	if err != nil {
		return nil, err
	}
	porTipo, err := s.prestamoRepo.CountByTipo(ctx, sucursalID)
	if err != nil {
		return nil, err
	}
	porNivelMora, err := s.prestamoRepo.CountByNivelMora(ctx, sucursalID)
	if err != nil {
		return nil, err
	}
	montoColocado, err := s.prestamoRepo.SumMontoColocado(ctx, sucursalID)
	if err != nil {
		return nil, err
	}
	montoRecuperado, err := s.prestamoRepo.SumMontoRecuperado(ctx, sucursalID)
	if err != nil {
		return nil, err
	}
	saldoEnRiesgo, err := s.prestamoRepo.SumSaldoEnRiesgo(ctx, sucursalID)
	if err != nil {
		return nil, err
	}

	stats := &domain.EstadisticasPrestamos{
		PorEstado:       porEstado,
		PorTipo:         porTipo,
		PorNivelMora:    porNivelMora,
		MontoColocado:   montoColocado,
		MontoRecuperado: montoRecuperado,
		SaldoEnRiesgo:   saldoEnRiesgo,
		PrestamosEnMora: porEstado[models.EstadoMora],
	}
	for _, total := range porEstado {
		stats.TotalPrestamos += total
	}
	return stats, nil
}

// Catalogos returns the enumerations the loan forms need
func (s *PrestamoService) Catalogos() *domain.CatalogosPrestamo {
	return &domain.CatalogosPrestamo{
		Tipos:         models.TiposPrestamo(),
		Estados:       models.EstadosPrestamo(),
		Modalidades:   models.ModalidadesPago(),
		NivelesMora:   models.NivelesMora(),
		NivelesRiesgo: models.NivelesRiesgo(),
	}
}

// SweepMora recomputes dias_mora for every loan past due and flips live
// loans into MORA. Returns how many loans were updated.
func (s *PrestamoService) SweepMora(ctx context.Context) (int, error) {
	hoy := hoyFecha()
	vencidos, err := s.prestamoRepo.ListVencidos(ctx, hoy)
	if err != nil {
		return 0, err
	}

	actualizados := 0
	for _, prestamo := range vencidos {
		if prestamo.FechaVencimiento == nil {
			continue
		}
		dias := int(hoy.Sub(*prestamo.FechaVencimiento).Hours() / 24)
		if dias <= 0 {
			continue
		}
		if dias == prestamo.DiasMora && prestamo.Estado == models.EstadoMora {
			continue
		}

		prestamo.DiasMora = dias
		if prestamo.Estado == models.EstadoDesembolsado || prestamo.Estado == models.EstadoVigente {
			prestamo.Estado = models.EstadoMora
		}
		if err := s.prestamoRepo.Update(ctx, prestamo); err != nil {
			logger.Errorf("❌ Delinquency sweep failed for %s: %v", prestamo.NumeroPrestamo, err)
			continue
		}
		actualizados++
	}

	if actualizados > 0 {
		logger.Warnf("⚠️ Delinquency sweep: %d loans past due", actualizados)
	}
	return actualizados, nil
}

func (s *PrestamoService) getPrestamo(ctx context.Context, id string) (*models.Prestamo, error) {
	prestamo, err := s.prestamoRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPrestamoNotFound
		}
		return nil, err
	}
	return prestamo, nil
}

func (s *PrestamoService) puedeTransicionar(desde, hasta string) bool {
	return contains(transicionesEstado[desde], hasta)
}

// cuotaMensual divides the (projected) total by the term. Before
// disbursement the total is projected from the requested terms.
func (s *PrestamoService) cuotaMensual(prestamo *models.Prestamo) decimal.Decimal {
	total := prestamo.MontoTotal
	if total.IsZero() {
		total = calcularMontoTotal(prestamo.Monto, prestamo.TasaInteres, prestamo.PlazoMeses)
	}
	if prestamo.PlazoMeses < 1 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(prestamo.PlazoMeses))).Round(2)
}

// generateNumeroPrestamo builds TIPO-SUCURSAL-YEAR-RANDOM, retrying on
// the rare collision
func (s *PrestamoService) generateNumeroPrestamo(ctx context.Context, tipo, codigoSucursal string) (string, error) {
	prefijo := tipo
	if len(prefijo) > 3 {
		prefijo = prefijo[:3]
	}
	anio := time.Now().Year()

	for i := 0; i < 10; i++ {
		numero := fmt.Sprintf("%s-%s-%d-%04d", prefijo, codigoSucursal, anio, 1000+rand.Intn(9000))
		exists, err := s.prestamoRepo.ExistsByNumero(ctx, numero)
		if err != nil {
			return "", err
		}
		if !exists {
			return numero, nil
		}
	}
	return "", domain.ErrInternalServer
}

// calcularMontoTotal applies simple interest over the term in years:
// monto * (1 + (tasa/100) * (plazo/12))
func calcularMontoTotal(monto, tasaInteres decimal.Decimal, plazoMeses int) decimal.Decimal {
	plazoAnios := decimal.NewFromInt(int64(plazoMeses)).Div(decimal.NewFromInt(12))
	factor := decimal.NewFromInt(1).Add(tasaInteres.Div(decimal.NewFromInt(100)).Mul(plazoAnios))
	return monto.Mul(factor).Round(2)
}

// hoyFecha returns today truncated to a date in UTC
func hoyFecha() time.Time {
	ahora := time.Now().UTC()
	return time.Date(ahora.Year(), ahora.Month(), ahora.Day(), 0, 0, 0, 0, time.UTC)
}

func appendNota(observaciones, nota string) string {
	if observaciones == "" {
		return nota
	}
	return observaciones + "\n" + nota
}

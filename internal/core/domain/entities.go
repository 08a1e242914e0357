package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// EstadisticasPrestamos aggregates the loan portfolio for one branch,
// or for the whole institution when built without a branch filter.
type EstadisticasPrestamos struct {
	TotalPrestamos  int64            `json:"total_prestamos"`
	PorEstado       map[string]int64 `json:"por_estado"`
	PorTipo         map[string]int64 `json:"por_tipo"`
	PorNivelMora    map[string]int64 `json:"por_nivel_mora"`
	MontoColocado   decimal.Decimal  `json:"monto_colocado"`
	MontoRecuperado decimal.Decimal  `json:"monto_recuperado"`
	SaldoEnRiesgo   decimal.Decimal  `json:"saldo_en_riesgo"`
	PrestamosEnMora int64            `json:"prestamos_en_mora"`
}

// ReporteMoraItem is one row of the delinquency report
type ReporteMoraItem struct {
	PrestamoID       string          `json:"prestamo_id"`
	NumeroPrestamo   string          `json:"numero_prestamo"`
	Cliente          string          `json:"cliente"`
	Sucursal         string          `json:"sucursal"`
	Estado           string          `json:"estado"`
	DiasMora         int             `json:"dias_mora"`
	NivelMora        string          `json:"nivel_mora"`
	SaldoPendiente   decimal.Decimal `json:"saldo_pendiente"`
	FechaVencimiento *time.Time      `json:"fecha_vencimiento"`
}

// CatalogosPrestamo carries the enumerations the loan forms need
type CatalogosPrestamo struct {
	Tipos         []string `json:"tipos"`
	Estados       []string `json:"estados"`
	Modalidades   []string `json:"modalidades"`
	NivelesMora   []string `json:"niveles_mora"`
	NivelesRiesgo []string `json:"niveles_riesgo"`
}

// ValidacionDescuento is the result of checking a direct-discount
// request against the client's registered monthly income.
type ValidacionDescuento struct {
	PrestamoID        string          `json:"prestamo_id"`
	IngresosMensuales decimal.Decimal `json:"ingresos_mensuales"`
	CuotaMensual      decimal.Decimal `json:"cuota_mensual"`
	LimitePermitido   decimal.Decimal `json:"limite_permitido"`
	PorcentajeIngreso decimal.Decimal `json:"porcentaje_ingreso"`
	Autorizable       bool            `json:"autorizable"`
}

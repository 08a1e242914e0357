package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================
// Client Tables
// ============================================================

// Risk levels
const (
	RiesgoBajo  = "BAJO"
	RiesgoMedio = "MEDIO"
	RiesgoAlto  = "ALTO"
)

// Cliente represents the clientes table.
// PII columns only ever hold ciphertext (see internal/pkg/crypto).
type Cliente struct {
	ID                       string          `gorm:"type:char(36);primaryKey" json:"id"`
	NumeroCliente            string          `gorm:"uniqueIndex;size:20;not null" json:"numero_cliente"`
	Nombre                   string          `gorm:"size:100;not null" json:"nombre"`
	Apellido                 string          `gorm:"size:100;not null" json:"apellido"`
	TelefonoEncrypted        *string         `gorm:"size:512" json:"-"`
	DireccionEncrypted       *string         `gorm:"size:1024" json:"-"`
	CedulaEncrypted          *string         `gorm:"size:512" json:"-"`
	RucEncrypted             *string         `gorm:"size:512" json:"-"`
	FechaNacimientoEncrypted *string         `gorm:"size:512" json:"-"`
	IngresosMensuales        decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"ingresos_mensuales"`
	Ocupacion                string          `gorm:"size:100" json:"ocupacion"`
	NivelRiesgo              string          `gorm:"size:10;default:'BAJO'" json:"nivel_riesgo"`
	EsPEP                    bool            `gorm:"column:es_pep;default:false" json:"es_pep"`
	Bloqueado                bool            `gorm:"default:false" json:"bloqueado"`
	SucursalID               string          `gorm:"type:char(36);index;not null" json:"sucursal_id"`
	Activo                   bool            `gorm:"default:true" json:"activo"`
	CreatedAt                time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Sucursal *Sucursal `gorm:"foreignKey:SucursalID" json:"sucursal,omitempty"`
}

func (Cliente) TableName() string {
	return "clientes"
}

func (c *Cliente) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// NombreCompleto returns the client's full name
func (c *Cliente) NombreCompleto() string {
	return c.Nombre + " " + c.Apellido
}

// ClienteResponse DTO. The PII fields carry masked values by default;
// the client service fills them with plaintext only on audited PII reads.
type ClienteResponse struct {
	ID                string          `json:"id"`
	NumeroCliente     string          `json:"numero_cliente"`
	Nombre            string          `json:"nombre"`
	Apellido          string          `json:"apellido"`
	NombreCompleto    string          `json:"nombre_completo"`
	Telefono          string          `json:"telefono,omitempty"`
	Direccion         string          `json:"direccion,omitempty"`
	Cedula            string          `json:"cedula,omitempty"`
	Ruc               string          `json:"ruc,omitempty"`
	FechaNacimiento   string          `json:"fecha_nacimiento,omitempty"`
	IngresosMensuales decimal.Decimal `json:"ingresos_mensuales"`
	Ocupacion         string          `json:"ocupacion"`
	NivelRiesgo       string          `json:"nivel_riesgo"`
	EsPEP             bool            `json:"es_pep"`
	Bloqueado         bool            `json:"bloqueado"`
	SucursalID        string          `json:"sucursal_id"`
	SucursalNombre    string          `json:"sucursal_nombre,omitempty"`
	Activo            bool            `json:"activo"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (c *Cliente) ToResponse() *ClienteResponse {
	resp := &ClienteResponse{
		ID:                c.ID,
		NumeroCliente:     c.NumeroCliente,
		Nombre:            c.Nombre,
		Apellido:          c.Apellido,
		NombreCompleto:    c.NombreCompleto(),
		IngresosMensuales: c.IngresosMensuales,
		Ocupacion:         c.Ocupacion,
		NivelRiesgo:       c.NivelRiesgo,
		EsPEP:             c.EsPEP,
		Bloqueado:         c.Bloqueado,
		SucursalID:        c.SucursalID,
		Activo:            c.Activo,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}

	if c.Sucursal != nil {
		resp.SucursalNombre = c.Sucursal.Nombre
	}

	return resp
}

// ============================================================
// Loan Tables
// ============================================================

// Loan types
const (
	TipoPersonal    = "PERSONAL"
	TipoVehicular   = "VEHICULAR"
	TipoHipotecario = "HIPOTECARIO"
	TipoComercial   = "COMERCIAL"
	TipoConsumo     = "CONSUMO"
	TipoEducativo   = "EDUCATIVO"
	TipoEmergencia  = "EMERGENCIA"
)

// Loan states
const (
	EstadoSolicitud    = "SOLICITUD"
	EstadoEvaluacion   = "EVALUACION"
	EstadoAprobado     = "APROBADO"
	EstadoRechazado    = "RECHAZADO"
	EstadoDesembolsado = "DESEMBOLSADO"
	EstadoVigente      = "VIGENTE"
	EstadoMora         = "MORA"
	EstadoCancelado    = "CANCELADO"
	EstadoRefinanciado = "REFINANCIADO"
	EstadoCastigado    = "CASTIGADO"
)

// Payment modalities
const (
	ModalidadDescuentoDirecto = "DESCUENTO_DIRECTO"
	ModalidadDebitoAutomatico = "DEBITO_AUTOMATICO"
	ModalidadVentanilla       = "VENTANILLA"
	ModalidadTransferencia    = "TRANSFERENCIA"
	ModalidadCheque           = "CHEQUE"
	ModalidadEfectivo         = "EFECTIVO"
)

// Delinquency bands, derived from dias_mora
const (
	MoraAlDia    = "AL_DIA"
	MoraTemprana = "TEMPRANA"
	MoraMedia    = "MEDIA"
	MoraTardia   = "TARDIA"
	MoraCritica  = "CRITICA"
)

// TiposPrestamo lists the supported loan products
func TiposPrestamo() []string {
	return []string{TipoPersonal, TipoVehicular, TipoHipotecario, TipoComercial, TipoConsumo, TipoEducativo, TipoEmergencia}
}

// EstadosPrestamo lists every loan state in lifecycle order
func EstadosPrestamo() []string {
	return []string{EstadoSolicitud, EstadoEvaluacion, EstadoAprobado, EstadoRechazado, EstadoDesembolsado, EstadoVigente, EstadoMora, EstadoCancelado, EstadoRefinanciado, EstadoCastigado}
}

// EstadosActivos lists the states that count as an open obligation
func EstadosActivos() []string {
	return []string{EstadoSolicitud, EstadoEvaluacion, EstadoAprobado, EstadoDesembolsado, EstadoVigente, EstadoMora}
}

// ModalidadesPago lists the supported collection modalities
func ModalidadesPago() []string {
	return []string{ModalidadDescuentoDirecto, ModalidadDebitoAutomatico, ModalidadVentanilla, ModalidadTransferencia, ModalidadCheque, ModalidadEfectivo}
}

// NivelesMora lists the delinquency bands
func NivelesMora() []string {
	return []string{MoraAlDia, MoraTemprana, MoraMedia, MoraTardia, MoraCritica}
}

// NivelesRiesgo lists the client risk levels
func NivelesRiesgo() []string {
	return []string{RiesgoBajo, RiesgoMedio, RiesgoAlto}
}

// Prestamo represents the prestamos table
type Prestamo struct {
	ID                         string          `gorm:"type:char(36);primaryKey" json:"id"`
	NumeroPrestamo             string          `gorm:"uniqueIndex;size:30;not null" json:"numero_prestamo"`
	ClienteID                  string          `gorm:"type:char(36);index;not null" json:"cliente_id"`
	SucursalID                 string          `gorm:"type:char(36);index;not null" json:"sucursal_id"`
	Tipo                       string          `gorm:"size:20;not null" json:"tipo"`
	Monto                      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"monto"`
	TasaInteres                decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"tasa_interes"`
	PlazoMeses                 int             `gorm:"not null" json:"plazo_meses"`
	Estado                     string          `gorm:"size:20;index;not null;default:'SOLICITUD'" json:"estado"`
	FechaInicio                *time.Time      `gorm:"type:date" json:"fecha_inicio"`
	FechaVencimiento           *time.Time      `gorm:"type:date;index" json:"fecha_vencimiento"`
	MontoTotal                 decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"monto_total"`
	MontoPagado                decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"monto_pagado"`
	SaldoPendiente             decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"saldo_pendiente"`
	DiasMora                   int             `gorm:"default:0" json:"dias_mora"`
	ModalidadPago              string          `gorm:"size:20;default:'VENTANILLA'" json:"modalidad_pago"`
	DescuentoDirectoAutorizado bool            `gorm:"default:false" json:"descuento_directo_autorizado"`
	FechaAutorizacionDescuento *time.Time      `json:"fecha_autorizacion_descuento"`
	Observaciones              string          `gorm:"type:text" json:"observaciones"`
	AprobadoPor                *string         `gorm:"type:char(36)" json:"aprobado_por"`
	CreatedAt                  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Cliente   *Cliente  `gorm:"foreignKey:ClienteID" json:"cliente,omitempty"`
	Sucursal  *Sucursal `gorm:"foreignKey:SucursalID" json:"sucursal,omitempty"`
	Aprobador *Usuario  `gorm:"foreignKey:AprobadoPor" json:"aprobador,omitempty"`
}

func (Prestamo) TableName() string {
	return "prestamos"
}

func (p *Prestamo) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// NivelMora maps dias_mora onto the delinquency band
func (p *Prestamo) NivelMora() string {
	switch {
	case p.DiasMora <= 0:
		return MoraAlDia
	case p.DiasMora <= 30:
		return MoraTemprana
	case p.DiasMora <= 60:
		return MoraMedia
	case p.DiasMora <= 90:
		return MoraTardia
	default:
		return MoraCritica
	}
}

// PrestamoResponse DTO
type PrestamoResponse struct {
	ID                         string          `json:"id"`
	NumeroPrestamo             string          `json:"numero_prestamo"`
	ClienteID                  string          `json:"cliente_id"`
	ClienteNombre              string          `json:"cliente_nombre,omitempty"`
	SucursalID                 string          `json:"sucursal_id"`
	SucursalNombre             string          `json:"sucursal_nombre,omitempty"`
	Tipo                       string          `json:"tipo"`
	Monto                      decimal.Decimal `json:"monto"`
	TasaInteres                decimal.Decimal `json:"tasa_interes"`
	PlazoMeses                 int             `json:"plazo_meses"`
	Estado                     string          `json:"estado"`
	FechaInicio                *time.Time      `json:"fecha_inicio"`
	FechaVencimiento           *time.Time      `json:"fecha_vencimiento"`
	MontoTotal                 decimal.Decimal `json:"monto_total"`
	MontoPagado                decimal.Decimal `json:"monto_pagado"`
	SaldoPendiente             decimal.Decimal `json:"saldo_pendiente"`
	DiasMora                   int             `json:"dias_mora"`
	NivelMora                  string          `json:"nivel_mora"`
	ModalidadPago              string          `json:"modalidad_pago"`
	DescuentoDirectoAutorizado bool            `json:"descuento_directo_autorizado"`
	FechaAutorizacionDescuento *time.Time      `json:"fecha_autorizacion_descuento"`
	Observaciones              string          `json:"observaciones,omitempty"`
	AprobadoPor                *string         `json:"aprobado_por"`
	CreatedAt                  time.Time       `json:"created_at"`
	UpdatedAt                  time.Time       `json:"updated_at"`
}

func (p *Prestamo) ToResponse() *PrestamoResponse {
	resp := &PrestamoResponse{
		ID:                         p.ID,
		NumeroPrestamo:             p.NumeroPrestamo,
		ClienteID:                  p.ClienteID,
		SucursalID:                 p.SucursalID,
		Tipo:                       p.Tipo,
		Monto:                      p.Monto,
		TasaInteres:                p.TasaInteres,
		PlazoMeses:                 p.PlazoMeses,
		Estado:                     p.Estado,
		FechaInicio:                p.FechaInicio,
		FechaVencimiento:           p.FechaVencimiento,
		MontoTotal:                 p.MontoTotal,
		MontoPagado:                p.MontoPagado,
		SaldoPendiente:             p.SaldoPendiente,
		DiasMora:                   p.DiasMora,
		NivelMora:                  p.NivelMora(),
		ModalidadPago:              p.ModalidadPago,
		DescuentoDirectoAutorizado: p.DescuentoDirectoAutorizado,
		FechaAutorizacionDescuento: p.FechaAutorizacionDescuento,
		Observaciones:              p.Observaciones,
		AprobadoPor:                p.AprobadoPor,
		CreatedAt:                  p.CreatedAt,
		UpdatedAt:                  p.UpdatedAt,
	}

	if p.Cliente != nil {
		resp.ClienteNombre = p.Cliente.NombreCompleto()
	}
	if p.Sucursal != nil {
		resp.SucursalNombre = p.Sucursal.Nombre
	}

	return resp
}

// ============================================================
// Payment & Document Tables
// ============================================================

// Pago represents the pagos table
type Pago struct {
	ID            string          `gorm:"type:char(36);primaryKey" json:"id"`
	NumeroPago    string          `gorm:"uniqueIndex;size:30;not null" json:"numero_pago"`
	PrestamoID    string          `gorm:"type:char(36);index;not null" json:"prestamo_id"`
	Monto         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"monto"`
	FechaPago     time.Time       `gorm:"not null" json:"fecha_pago"`
	MetodoPago    string          `gorm:"size:20;not null" json:"metodo_pago"`
	Referencia    string          `gorm:"size:50" json:"referencia"`
	RegistradoPor string          `gorm:"type:char(36);not null" json:"registrado_por"`
	Observaciones string          `gorm:"type:text" json:"observaciones"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Prestamo    *Prestamo `gorm:"foreignKey:PrestamoID" json:"prestamo,omitempty"`
	Registrador *Usuario  `gorm:"foreignKey:RegistradoPor" json:"registrador,omitempty"`
}

func (Pago) TableName() string {
	return "pagos"
}

func (p *Pago) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// PagoResponse DTO
type PagoResponse struct {
	ID               string          `json:"id"`
	NumeroPago       string          `json:"numero_pago"`
	PrestamoID       string          `json:"prestamo_id"`
	NumeroPrestamo   string          `json:"numero_prestamo,omitempty"`
	Monto            decimal.Decimal `json:"monto"`
	FechaPago        time.Time       `json:"fecha_pago"`
	MetodoPago       string          `json:"metodo_pago"`
	Referencia       string          `json:"referencia,omitempty"`
	RegistradoPor    string          `json:"registrado_por"`
	RegistradoNombre string          `json:"registrado_nombre,omitempty"`
	Observaciones    string          `json:"observaciones,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

func (p *Pago) ToResponse() *PagoResponse {
	resp := &PagoResponse{
		ID:            p.ID,
		NumeroPago:    p.NumeroPago,
		PrestamoID:    p.PrestamoID,
		Monto:         p.Monto,
		FechaPago:     p.FechaPago,
		MetodoPago:    p.MetodoPago,
		Referencia:    p.Referencia,
		RegistradoPor: p.RegistradoPor,
		Observaciones: p.Observaciones,
		CreatedAt:     p.CreatedAt,
	}

	if p.Prestamo != nil {
		resp.NumeroPrestamo = p.Prestamo.NumeroPrestamo
	}
	if p.Registrador != nil {
		resp.RegistradoNombre = p.Registrador.NombreCompleto()
	}

	return resp
}

// Documento represents the documentos table.
// The storage URL is encrypted at rest; hash_contenido is the SHA-256
// of the file contents for integrity checks.
type Documento struct {
	ID            string    `gorm:"type:char(36);primaryKey" json:"id"`
	PrestamoID    *string   `gorm:"type:char(36);index" json:"prestamo_id"`
	ClienteID     *string   `gorm:"type:char(36);index" json:"cliente_id"`
	TipoDocumento string    `gorm:"size:50;not null" json:"tipo_documento"`
	NombreArchivo string    `gorm:"size:255;not null" json:"nombre_archivo"`
	URLEncrypted  string    `gorm:"size:1024;not null" json:"-"`
	HashContenido string    `gorm:"size:64;not null" json:"hash_contenido"`
	TamanoBytes   int64     `gorm:"default:0" json:"tamano_bytes"`
	SubidoPor     string    `gorm:"type:char(36);not null" json:"subido_por"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Prestamo *Prestamo `gorm:"foreignKey:PrestamoID" json:"prestamo,omitempty"`
	Cliente  *Cliente  `gorm:"foreignKey:ClienteID" json:"cliente,omitempty"`
	Subidor  *Usuario  `gorm:"foreignKey:SubidoPor" json:"subidor,omitempty"`
}

func (Documento) TableName() string {
	return "documentos"
}

func (d *Documento) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// DocumentoResponse DTO. URL carries the decrypted storage location and is
// only filled by the document service on audited reads.
type DocumentoResponse struct {
	ID            string    `json:"id"`
	PrestamoID    *string   `json:"prestamo_id"`
	ClienteID     *string   `json:"cliente_id"`
	TipoDocumento string    `json:"tipo_documento"`
	NombreArchivo string    `json:"nombre_archivo"`
	URL           string    `json:"url,omitempty"`
	HashContenido string    `json:"hash_contenido"`
	TamanoBytes   int64     `json:"tamano_bytes"`
	SubidoPor     string    `json:"subido_por"`
	CreatedAt     time.Time `json:"created_at"`
}

func (d *Documento) ToResponse() *DocumentoResponse {
	return &DocumentoResponse{
		ID:            d.ID,
		PrestamoID:    d.PrestamoID,
		ClienteID:     d.ClienteID,
		TipoDocumento: d.TipoDocumento,
		NombreArchivo: d.NombreArchivo,
		HashContenido: d.HashContenido,
		TamanoBytes:   d.TamanoBytes,
		SubidoPor:     d.SubidoPor,
		CreatedAt:     d.CreatedAt,
	}
}

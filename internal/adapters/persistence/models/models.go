package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ============================================================
// Organization & Auth Tables
// ============================================================

// Sucursal represents the sucursales table (branches)
type Sucursal struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	Codigo    string    `gorm:"uniqueIndex;size:10;not null" json:"codigo"`
	Nombre    string    `gorm:"size:100;not null" json:"nombre"`
	Direccion string    `gorm:"size:255" json:"direccion"`
	Telefono  string    `gorm:"size:20" json:"telefono"`
	Provincia string    `gorm:"size:50" json:"provincia"`
	Pais      string    `gorm:"size:50;default:'Panamá'" json:"pais"`
	Gerente   string    `gorm:"size:100" json:"gerente"`
	Activa    bool      `gorm:"default:true" json:"activa"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Sucursal) TableName() string {
	return "sucursales"
}

func (s *Sucursal) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// User roles
const (
	RolAdmin    = "ADMIN"
	RolGerente  = "GERENTE"
	RolEmpleado = "EMPLEADO"
)

// Usuario represents the usuarios table
type Usuario struct {
	ID                  string     `gorm:"type:char(36);primaryKey" json:"id"`
	CodigoEmpleado      string     `gorm:"uniqueIndex;size:20;not null" json:"codigo_empleado"`
	Nombre              string     `gorm:"size:100;not null" json:"nombre"`
	Apellido            string     `gorm:"size:100;not null" json:"apellido"`
	Email               string     `gorm:"uniqueIndex;size:100;not null" json:"email"`
	HashedPassword      string     `gorm:"size:255;not null" json:"-"`
	Rol                 string     `gorm:"size:20;not null;default:'EMPLEADO'" json:"rol"`
	SucursalID          string     `gorm:"type:char(36);index;not null" json:"sucursal_id"`
	Activo              bool       `gorm:"default:true" json:"activo"`
	TwoFASecret         *string    `gorm:"column:two_fa_secret;size:512" json:"-"`
	TwoFAEnabled        bool       `gorm:"column:two_fa_enabled;default:false" json:"two_fa_enabled"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLogin           *time.Time `json:"last_login"`
	LastPasswordChange  *time.Time `json:"-"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	Sucursal *Sucursal `gorm:"foreignKey:SucursalID" json:"sucursal,omitempty"`
}

func (Usuario) TableName() string {
	return "usuarios"
}

func (u *Usuario) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// NombreCompleto returns the user's full name
func (u *Usuario) NombreCompleto() string {
	return u.Nombre + " " + u.Apellido
}

// IsLocked reports whether the lockout window is still active
func (u *Usuario) IsLocked() bool {
	return u.LockedUntil != nil && time.Now().Before(*u.LockedUntil)
}

// UsuarioResponse DTO
type UsuarioResponse struct {
	ID             string     `json:"id"`
	CodigoEmpleado string     `json:"codigo_empleado"`
	Nombre         string     `json:"nombre"`
	Apellido       string     `json:"apellido"`
	NombreCompleto string     `json:"nombre_completo"`
	Email          string     `json:"email"`
	Rol            string     `json:"rol"`
	SucursalID     string     `json:"sucursal_id"`
	SucursalNombre string     `json:"sucursal_nombre,omitempty"`
	Activo         bool       `json:"activo"`
	TwoFAEnabled   bool       `json:"two_fa_enabled"`
	LastLogin      *time.Time `json:"last_login"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (u *Usuario) ToResponse() *UsuarioResponse {
	resp := &UsuarioResponse{
		ID:             u.ID,
		CodigoEmpleado: u.CodigoEmpleado,
		Nombre:         u.Nombre,
		Apellido:       u.Apellido,
		NombreCompleto: u.NombreCompleto(),
		Email:          u.Email,
		Rol:            u.Rol,
		SucursalID:     u.SucursalID,
		Activo:         u.Activo,
		TwoFAEnabled:   u.TwoFAEnabled,
		LastLogin:      u.LastLogin,
		CreatedAt:      u.CreatedAt,
	}

	if u.Sucursal != nil {
		resp.SucursalNombre = u.Sucursal.Nombre
	}

	return resp
}

// UsuarioEmail represents the usuario_emails table (secondary login emails)
type UsuarioEmail struct {
	ID          string    `gorm:"type:char(36);primaryKey" json:"id"`
	UsuarioID   string    `gorm:"type:char(36);index;not null" json:"usuario_id"`
	Email       string    `gorm:"uniqueIndex;size:100;not null" json:"email"`
	EsPrincipal bool      `gorm:"default:false" json:"es_principal"`
	Activo      bool      `gorm:"default:true" json:"activo"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Usuario *Usuario `gorm:"foreignKey:UsuarioID" json:"-"`
}

func (UsuarioEmail) TableName() string {
	return "usuario_emails"
}

func (e *UsuarioEmail) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// ============================================================
// Sessions & Audit Tables
// ============================================================

// UserSession represents the user_sessions table.
// TokenHash holds the SHA-256 of the session's refresh token.
type UserSession struct {
	ID           string     `gorm:"type:char(36);primaryKey" json:"id"`
	UsuarioID    string     `gorm:"type:char(36);index;not null" json:"usuario_id"`
	TokenHash    string     `gorm:"size:64;index;not null" json:"-"`
	IPAddress    string     `gorm:"size:45" json:"ip_address"`
	UserAgent    string     `gorm:"size:255" json:"user_agent"`
	ExpiresAt    time.Time  `gorm:"not null" json:"expires_at"`
	RevokedAt    *time.Time `gorm:"index" json:"revoked_at"`
	LastActivity time.Time  `json:"last_activity"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Usuario *Usuario `gorm:"foreignKey:UsuarioID" json:"-"`
}

func (UserSession) TableName() string {
	return "user_sessions"
}

func (s *UserSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

func (s *UserSession) IsRevoked() bool {
	return s.RevokedAt != nil
}

func (s *UserSession) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Audit event types
const (
	AuditEventLoginAttempt = "login_attempt"
	AuditEventLogout       = "logout"
	AuditEventDataAccess   = "data_access"
	AuditEventDataChange   = "data_change"
	AuditEventSecurity     = "security"
)

// AuditLog represents the audit_logs table (append only)
type AuditLog struct {
	ID            string    `gorm:"type:char(36);primaryKey" json:"id"`
	Timestamp     time.Time `gorm:"index;not null" json:"timestamp"`
	UsuarioID     *string   `gorm:"type:char(36);index" json:"usuario_id"`
	EventType     string    `gorm:"size:30;index;not null" json:"event_type"`
	ResourceType  string    `gorm:"size:50" json:"resource_type"`
	ResourceID    string    `gorm:"size:64" json:"resource_id"`
	Action        string    `gorm:"size:50" json:"action"`
	IPAddress     string    `gorm:"size:45" json:"ip_address"`
	UserAgent     string    `gorm:"size:255" json:"user_agent"`
	SessionID     string    `gorm:"size:64" json:"session_id"`
	Details       string    `gorm:"type:json" json:"details"`
	Success       bool      `gorm:"index" json:"success"`
	FailureReason string    `gorm:"size:255" json:"failure_reason"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	return nil
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate creates or updates all application tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Organization & auth
		&Sucursal{},
		&Usuario{},
		&UsuarioEmail{},
		&UserSession{},
		&AuditLog{},
		// Business records
		&Cliente{},
		&Prestamo{},
		&Pago{},
		&Documento{},
	)
}

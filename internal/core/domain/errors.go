package domain

import "errors"

// Common domain errors
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrForbidden      = errors.New("forbidden")
	ErrInternalServer = errors.New("internal server error")
	ErrDuplicateEntry = errors.New("duplicate entry")
)

// Auth errors
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountLocked       = errors.New("account locked")
	ErrAccountInactive     = errors.New("account inactive")
	ErrBranchInactive      = errors.New("branch inactive")
	ErrBranchAccessDenied  = errors.New("branch access denied")
	ErrTwoFactorInvalid    = errors.New("two factor code invalid")
	ErrTwoFactorEnabled    = errors.New("two factor already enabled")
	ErrTwoFactorNotEnabled = errors.New("two factor not enabled")
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenInvalid        = errors.New("token invalid")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionRevoked      = errors.New("session revoked")
	ErrPasswordTooWeak     = errors.New("password does not meet policy")
)

// User errors
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUserAlreadyExists   = errors.New("user already exists")
	ErrEmailInUse          = errors.New("email already in use")
	ErrInvalidPassword     = errors.New("invalid password")
	ErrCannotChangeOwnRole = errors.New("cannot change your own role")
	ErrCannotDisableSelf   = errors.New("cannot disable your own account")
)

// Branch errors
var (
	ErrSucursalNotFound = errors.New("sucursal not found")
	ErrSucursalInUse    = errors.New("sucursal has active records")
)

// Client errors
var (
	ErrClienteNotFound     = errors.New("cliente not found")
	ErrClienteBloqueado    = errors.New("cliente blocked")
	ErrClienteConPrestamos = errors.New("cliente has active loans")
)

// Loan errors
var (
	ErrPrestamoNotFound      = errors.New("prestamo not found")
	ErrEstadoInvalido        = errors.New("invalid state transition")
	ErrTipoInvalido          = errors.New("invalid loan type")
	ErrModalidadInvalida     = errors.New("invalid payment modality")
	ErrMontoInvalido         = errors.New("invalid amount")
	ErrDescuentoNoAutorizado = errors.New("direct discount not authorized")
	ErrDescuentoExcedeLimite = errors.New("direct discount exceeds salary limit")
	ErrDescuentoYaAutorizado = errors.New("direct discount already authorized")
	ErrIngresosNoRegistrados = errors.New("client has no registered income")
)

// Payment errors
var (
	ErrPagoNotFound      = errors.New("pago not found")
	ErrPagoExcedeSaldo   = errors.New("payment exceeds outstanding balance")
	ErrPrestamoNoPagable = errors.New("loan not in payable state")
)

// Document errors
var (
	ErrDocumentoNotFound   = errors.New("documento not found")
	ErrDocumentoSinVinculo = errors.New("document must reference a loan or client")
)

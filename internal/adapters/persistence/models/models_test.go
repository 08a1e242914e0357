package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrestamo_NivelMora(t *testing.T) {
	tests := []struct {
		diasMora int
		want     string
	}{
		{-5, MoraAlDia},
		{0, MoraAlDia},
		{1, MoraTemprana},
		{30, MoraTemprana},
		{31, MoraMedia},
		{60, MoraMedia},
		{61, MoraTardia},
		{90, MoraTardia},
		{91, MoraCritica},
		{365, MoraCritica},
	}

	for _, tt := range tests {
		p := &Prestamo{DiasMora: tt.diasMora}
		assert.Equal(t, tt.want, p.NivelMora(), "dias_mora=%d", tt.diasMora)
	}
}

func TestUsuario_IsLocked(t *testing.T) {
	u := &Usuario{}
	assert.False(t, u.IsLocked())

	past := time.Now().Add(-time.Minute)
	u.LockedUntil = &past
	assert.False(t, u.IsLocked())

	future := time.Now().Add(10 * time.Minute)
	u.LockedUntil = &future
	assert.True(t, u.IsLocked())
}

func TestUsuario_NombreCompleto(t *testing.T) {
	u := &Usuario{Nombre: "María", Apellido: "Rodríguez"}
	assert.Equal(t, "María Rodríguez", u.NombreCompleto())
}

func TestUsuario_ToResponse(t *testing.T) {
	now := time.Now()
	u := &Usuario{
		ID:             "user-1",
		CodigoEmpleado: "ADM001",
		Nombre:         "María",
		Apellido:       "Rodríguez",
		Email:          "maria@financepro.com",
		Rol:            RolAdmin,
		SucursalID:     "suc-1",
		Activo:         true,
		TwoFAEnabled:   true,
		LastLogin:      &now,
		Sucursal:       &Sucursal{Nombre: "Bugaba"},
	}

	resp := u.ToResponse()

	assert.Equal(t, "María Rodríguez", resp.NombreCompleto)
	assert.Equal(t, "Bugaba", resp.SucursalNombre)
	assert.Equal(t, RolAdmin, resp.Rol)
	assert.True(t, resp.TwoFAEnabled)
}

func TestCliente_NombreCompleto(t *testing.T) {
	c := &Cliente{Nombre: "Juan Carlos", Apellido: "Serrano"}
	assert.Equal(t, "Juan Carlos Serrano", c.NombreCompleto())
}

func TestUserSession_Flags(t *testing.T) {
	s := &UserSession{ExpiresAt: time.Now().Add(time.Hour)}
	assert.False(t, s.IsExpired())
	assert.False(t, s.IsRevoked())

	s.ExpiresAt = time.Now().Add(-time.Hour)
	assert.True(t, s.IsExpired())

	revoked := time.Now()
	s.RevokedAt = &revoked
	assert.True(t, s.IsRevoked())
}

func TestCatalogos(t *testing.T) {
	assert.Len(t, TiposPrestamo(), 7)
	assert.Len(t, EstadosPrestamo(), 10)
	assert.Len(t, ModalidadesPago(), 6)
	assert.Len(t, NivelesMora(), 5)
	assert.Len(t, NivelesRiesgo(), 3)
}

func TestEstadosActivos_ExcludesTerminals(t *testing.T) {
	activos := EstadosActivos()

	assert.NotContains(t, activos, EstadoRechazado)
	assert.NotContains(t, activos, EstadoCancelado)
	assert.NotContains(t, activos, EstadoRefinanciado)
	assert.NotContains(t, activos, EstadoCastigado)

	assert.Contains(t, activos, EstadoSolicitud)
	assert.Contains(t, activos, EstadoVigente)
	assert.Contains(t, activos, EstadoMora)
}

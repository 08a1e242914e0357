package services

import (
	"testing"
	"time"

	"financepro-backend/internal/adapters/persistence/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalcularMontoTotal(t *testing.T) {
	tests := []struct {
		name       string
		monto      string
		tasa       string
		plazoMeses int
		want       string
	}{
		{"two year term", "10000", "12", 24, "12400"},
		{"one year term", "5000", "10", 12, "5500"},
		{"eighteen months", "8000", "15", 18, "9800"},
		{"nine months", "1000", "7.5", 9, "1056.25"},
		{"zero interest", "3000", "0", 12, "3000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calcularMontoTotal(dec(tt.monto), dec(tt.tasa), tt.plazoMeses)
			assert.True(t, got.Equal(dec(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestPrestamoService_CuotaMensual(t *testing.T) {
	svc := &PrestamoService{}

	t.Run("uses the stored total once set", func(t *testing.T) {
		prestamo := &models.Prestamo{
			MontoTotal: dec("12400"),
			PlazoMeses: 24,
		}
		got := svc.cuotaMensual(prestamo)
		assert.True(t, got.Equal(dec("516.67")), "got %s", got)
	})

	t.Run("projects the total before disbursement", func(t *testing.T) {
		prestamo := &models.Prestamo{
			Monto:       dec("5000"),
			TasaInteres: dec("10"),
			PlazoMeses:  12,
		}
		got := svc.cuotaMensual(prestamo)
		assert.True(t, got.Equal(dec("458.33")), "got %s", got)
	})

	t.Run("zero term yields zero", func(t *testing.T) {
		prestamo := &models.Prestamo{MontoTotal: dec("1000")}
		assert.True(t, svc.cuotaMensual(prestamo).IsZero())
	})
}

func TestPrestamoService_PuedeTransicionar(t *testing.T) {
	svc := &PrestamoService{}

	allowed := []struct{ desde, hasta string }{
		{models.EstadoSolicitud, models.EstadoEvaluacion},
		{models.EstadoSolicitud, models.EstadoRechazado},
		{models.EstadoSolicitud, models.EstadoCancelado},
		{models.EstadoEvaluacion, models.EstadoAprobado},
		{models.EstadoEvaluacion, models.EstadoRechazado},
		{models.EstadoAprobado, models.EstadoDesembolsado},
		{models.EstadoAprobado, models.EstadoCancelado},
		{models.EstadoDesembolsado, models.EstadoVigente},
		{models.EstadoVigente, models.EstadoMora},
		{models.EstadoVigente, models.EstadoRefinanciado},
		{models.EstadoMora, models.EstadoVigente},
		{models.EstadoMora, models.EstadoCastigado},
	}
	for _, tt := range allowed {
		assert.True(t, svc.puedeTransicionar(tt.desde, tt.hasta), "%s -> %s should be allowed", tt.desde, tt.hasta)
	}

	denied := []struct{ desde, hasta string }{
		{models.EstadoSolicitud, models.EstadoAprobado},
		{models.EstadoEvaluacion, models.EstadoDesembolsado},
		{models.EstadoAprobado, models.EstadoVigente},
		{models.EstadoDesembolsado, models.EstadoMora},
		{models.EstadoVigente, models.EstadoSolicitud},
	}
	for _, tt := range denied {
		assert.False(t, svc.puedeTransicionar(tt.desde, tt.hasta), "%s -> %s should be denied", tt.desde, tt.hasta)
	}
}

func TestPrestamoService_TerminalStatesHaveNoExits(t *testing.T) {
	svc := &PrestamoService{}
	terminales := []string{
		models.EstadoRechazado,
		models.EstadoCancelado,
		models.EstadoRefinanciado,
		models.EstadoCastigado,
	}

	for _, desde := range terminales {
		for _, hasta := range models.EstadosPrestamo() {
			assert.False(t, svc.puedeTransicionar(desde, hasta), "%s -> %s", desde, hasta)
		}
	}
}

func TestAppendNota(t *testing.T) {
	assert.Equal(t, "primera nota", appendNota("", "primera nota"))
	assert.Equal(t, "primera\nsegunda", appendNota("primera", "segunda"))
}

func TestHoyFecha(t *testing.T) {
	got := hoyFecha()

	assert.Equal(t, time.UTC, got.Location())
	h, m, s := got.Clock()
	assert.Zero(t, h)
	assert.Zero(t, m)
	assert.Zero(t, s)
	assert.Zero(t, got.Nanosecond())
	assert.WithinDuration(t, time.Now().UTC(), got, 24*time.Hour)
}

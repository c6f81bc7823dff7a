package service

import (
	"testing"

	"portalpos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestReconciliarDiaCuadrado(t *testing.T) {
	// apertura 100 + efectivo 250 + ingresos 0 − egresos 20 = 330
	r := reconciliar(d("100.00"), d("250.00"), d("0"), d("20.00"), d("330.00"))

	assert.Equal(t, "330", r.EsperadoFinal.String())
	assert.True(t, r.Diferencia.IsZero())
	assert.Equal(t, model.CierreCuadrado, r.Clasificacion)
	assert.False(t, requiereJustificacion(r))
}

func TestReconciliarFaltante(t *testing.T) {
	r := reconciliar(d("100.00"), d("250.00"), d("0"), d("20.00"), d("310.00"))

	assert.Equal(t, "-20", r.Diferencia.String())
	assert.Equal(t, model.CierreFaltante, r.Clasificacion)
	assert.True(t, requiereJustificacion(r))
}

func TestReconciliarSobrante(t *testing.T) {
	r := reconciliar(d("100.00"), d("250.00"), d("0"), d("20.00"), d("345.50"))

	assert.Equal(t, "15.5", r.Diferencia.String())
	assert.Equal(t, model.CierreSobrante, r.Clasificacion)
}

func TestReconciliarEsperadoNegativo(t *testing.T) {
	// Egresos can exceed the day's cash; esperado is reported as-is.
	r := reconciliar(d("0"), d("5.00"), d("0"), d("50.00"), d("0"))

	assert.Equal(t, "-45", r.EsperadoFinal.String())
	assert.True(t, r.EsperadoFinal.IsNegative())
	assert.Equal(t, model.CierreSobrante, r.Clasificacion) // contó 45 de más
}

func TestClasificarTolerancia(t *testing.T) {
	// Exactly one cent either way still counts as cuadrada.
	assert.Equal(t, model.CierreCuadrado, clasificarDiferencia(d("0.01")))
	assert.Equal(t, model.CierreCuadrado, clasificarDiferencia(d("-0.01")))
	assert.Equal(t, model.CierreSobrante, clasificarDiferencia(d("0.02")))
	assert.Equal(t, model.CierreFaltante, clasificarDiferencia(d("-0.02")))
	assert.Equal(t, model.CierreCuadrado, clasificarDiferencia(decimal.Zero))
}

func TestArmarAjuste(t *testing.T) {
	caja := &model.Caja{ID: uuid.New(), SedeID: "sede-01"}
	r := reconciliar(d("100"), d("0"), d("0"), d("0"), d("80"))
	cerradaPor := uuid.New()

	aj := armarAjuste(caja, r, "vuelto mal entregado", cerradaPor)

	assert.Equal(t, model.MovimientoAjuste, aj.Tipo)
	assert.Equal(t, "20", aj.Monto.String()) // siempre positivo
	assert.True(t, aj.RequiereFirma)
	assert.Contains(t, aj.Motivo, "faltante")
	assert.Contains(t, aj.Motivo, "vuelto mal entregado")
	assert.Equal(t, caja.ID, aj.CajaID)
}

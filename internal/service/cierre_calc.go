package service

import (
	"fmt"

	"portalpos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// toleranciaCierre absorbs rounding only — one cent. Real shortfalls always
// classify, no matter how the sede configures its alert threshold.
var toleranciaCierre = decimal.RequireFromString("0.01")

// reconciliacion is the outcome of the pure closing arithmetic. No I/O
// happens here; everything the formula needs arrives as arguments.
type reconciliacion struct {
	MontoApertura  decimal.Decimal
	EfectivoVentas decimal.Decimal
	TotalIngresos  decimal.Decimal
	TotalEgresos   decimal.Decimal
	EsperadoFinal  decimal.Decimal
	RealFinal      decimal.Decimal
	Diferencia     decimal.Decimal
	Clasificacion  string
}

// reconciliar computes esperado = apertura + efectivo de ventas + ingresos −
// egresos, then compares against the counted cash. Esperado may be negative
// (egresos can exceed the day's cash) and is reported as-is, never clamped.
func reconciliar(apertura, efectivoVentas, ingresos, egresos, real decimal.Decimal) reconciliacion {
	esperado := apertura.Add(efectivoVentas).Add(ingresos).Sub(egresos)
	diferencia := real.Sub(esperado)

	return reconciliacion{
		MontoApertura:  apertura,
		EfectivoVentas: efectivoVentas,
		TotalIngresos:  ingresos,
		TotalEgresos:   egresos,
		EsperadoFinal:  esperado,
		RealFinal:      real,
		Diferencia:     diferencia,
		Clasificacion:  clasificarDiferencia(diferencia),
	}
}

// clasificarDiferencia returns "cuadrada" | "faltante" | "sobrante".
func clasificarDiferencia(d decimal.Decimal) string {
	switch {
	case d.Abs().LessThanOrEqual(toleranciaCierre):
		return model.CierreCuadrado
	case d.IsNegative():
		return model.CierreFaltante
	default:
		return model.CierreSobrante
	}
}

// requiereJustificacion: any classified difference demands an explanation
// before the cierre can be committed.
func requiereJustificacion(r reconciliacion) bool {
	return r.Clasificacion != model.CierreCuadrado
}

// armarAjuste packages the adjustment ledger entry that explains an
// imbalanced cierre. Exactly one per imbalanced closure; monto is the
// absolute difference and the entry always demands a signature.
func armarAjuste(caja *model.Caja, r reconciliacion, justificacion string, cerradaPor uuid.UUID) *model.MovimientoCaja {
	return &model.MovimientoCaja{
		CajaID:            caja.ID,
		SedeID:            caja.SedeID,
		Tipo:              model.MovimientoAjuste,
		Monto:             r.Diferencia.Abs(),
		Motivo:            fmt.Sprintf("Ajuste de cierre (%s): %s", r.Clasificacion, justificacion),
		ResponsableNombre: "Cierre de caja",
		ResponsableID:     cerradaPor.String(),
		CreadoPor:         cerradaPor,
		RequiereFirma:     true,
	}
}

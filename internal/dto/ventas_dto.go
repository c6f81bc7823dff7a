package dto

import "github.com/shopspring/decimal"

// TotalesKiosco is the kiosk point-of-sale breakdown for one sede and one
// business date. Kiosk sales may be paid with a mixed method — the mixto_*
// fields carry the per-channel splits of those sales.
type TotalesKiosco struct {
	Efectivo      decimal.Decimal `json:"efectivo"`
	Tarjeta       decimal.Decimal `json:"tarjeta"`
	Yape          decimal.Decimal `json:"yape"`
	Plin          decimal.Decimal `json:"plin"`
	Credito       decimal.Decimal `json:"credito"`
	MixtoEfectivo decimal.Decimal `json:"mixto_efectivo"`
	MixtoTarjeta  decimal.Decimal `json:"mixto_tarjeta"`
	MixtoYape     decimal.Decimal `json:"mixto_yape"`
	Total         decimal.Decimal `json:"total"`
}

// TotalesAlmuerzos is the meal-order breakdown. Almuerzo payments are always
// single-method and never go through Plin/QR.
type TotalesAlmuerzos struct {
	Efectivo decimal.Decimal `json:"efectivo"`
	Tarjeta  decimal.Decimal `json:"tarjeta"`
	Yape     decimal.Decimal `json:"yape"`
	Credito  decimal.Decimal `json:"credito"`
	Total    decimal.Decimal `json:"total"`
}

// VentasDiaResponse is the derived daily sales breakdown — recomputed per
// request, never stored.
type VentasDiaResponse struct {
	SedeID       string           `json:"sede_id"`
	Fecha        string           `json:"fecha"` // YYYY-MM-DD, sede-local
	Kiosco       TotalesKiosco    `json:"kiosco"`
	Almuerzos    TotalesAlmuerzos `json:"almuerzos"`
	TotalGeneral decimal.Decimal  `json:"total_general"`
}

// EfectivoEnCaja returns the cash-channel portion of the day's sales — the
// only part that physically lands in the till: kiosk cash, the cash split of
// mixed kiosk payments, and almuerzo cash.
func (v *VentasDiaResponse) EfectivoEnCaja() decimal.Decimal {
	return v.Kiosco.Efectivo.Add(v.Kiosco.MixtoEfectivo).Add(v.Almuerzos.Efectivo)
}

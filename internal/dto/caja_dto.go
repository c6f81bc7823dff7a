package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AbrirCajaRequest struct {
	SedeID string `json:"sede_id" validate:"required,min=1,max=40"`
}

type MovimientoManualRequest struct {
	CajaID            string          `json:"caja_id"            validate:"required,uuid"`
	Tipo              string          `json:"tipo"               validate:"required,oneof=ingreso egreso"`
	Monto             decimal.Decimal `json:"monto"              validate:"required,gt=0"`
	Motivo            string          `json:"motivo"             validate:"required,min=3"`
	ResponsableNombre string          `json:"responsable_nombre" validate:"required,min=3"`
	ResponsableID     string          `json:"responsable_id"`
	RequiereFirma     bool            `json:"requiere_firma"`
}

type ProponerCierreRequest struct {
	CajaID    string          `json:"caja_id"    validate:"required,uuid"`
	RealFinal decimal.Decimal `json:"real_final" validate:"min=0"`
}

type CerrarCajaRequest struct {
	CajaID          string          `json:"caja_id"    validate:"required,uuid"`
	RealFinal       decimal.Decimal `json:"real_final" validate:"min=0"`
	Justificacion   *string         `json:"justificacion"`
	ClaveSupervisor *string         `json:"clave_supervisor"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MovimientoResponse struct {
	ID                string          `json:"id"`
	CajaID            string          `json:"caja_id"`
	Tipo              string          `json:"tipo"`
	Monto             decimal.Decimal `json:"monto"`
	Motivo            string          `json:"motivo"`
	ResponsableNombre string          `json:"responsable_nombre"`
	ResponsableID     string          `json:"responsable_id,omitempty"`
	RequiereFirma     bool            `json:"requiere_firma"`
	VoucherImpreso    bool            `json:"voucher_impreso"`
	CreatedAt         string          `json:"created_at"`
}

// PropuestaCierreResponse previews the reconciliation before finalizing.
// Nothing is persisted when this is produced.
type PropuestaCierreResponse struct {
	CajaID         string          `json:"caja_id"`
	MontoApertura  decimal.Decimal `json:"monto_apertura"`
	EfectivoVentas decimal.Decimal `json:"efectivo_ventas"`
	TotalIngresos  decimal.Decimal `json:"total_ingresos"`
	TotalEgresos   decimal.Decimal `json:"total_egresos"`
	EsperadoFinal  decimal.Decimal `json:"esperado_final"`
	RealFinal      decimal.Decimal `json:"real_final"`
	Diferencia     decimal.Decimal `json:"diferencia"`
	Clasificacion  string          `json:"clasificacion"` // cuadrada | faltante | sobrante
	// RequiereJustificacion tells the caller it must re-submit with a
	// justification before the cierre can be committed.
	RequiereJustificacion bool `json:"requiere_justificacion"`
	// SuperaUmbralAlerta flags UI severity only; it never blocks the cierre.
	SuperaUmbralAlerta bool `json:"supera_umbral_alerta"`
}

type CierreResponse struct {
	ID             string          `json:"id"`
	CajaID         string          `json:"caja_id"`
	SedeID         string          `json:"sede_id"`
	FechaCierre    string          `json:"fecha_cierre"`
	VentasEfectivo decimal.Decimal `json:"ventas_efectivo"`
	VentasTarjeta  decimal.Decimal `json:"ventas_tarjeta"`
	VentasYape     decimal.Decimal `json:"ventas_yape"`
	VentasPlin     decimal.Decimal `json:"ventas_plin"`
	VentasCredito  decimal.Decimal `json:"ventas_credito"`
	VentasTotal    decimal.Decimal `json:"ventas_total"`
	TotalIngresos  decimal.Decimal `json:"total_ingresos"`
	TotalEgresos   decimal.Decimal `json:"total_egresos"`
	MontoApertura  decimal.Decimal `json:"monto_apertura"`
	EsperadoFinal  decimal.Decimal `json:"esperado_final"`
	RealFinal      decimal.Decimal `json:"real_final"`
	Diferencia     decimal.Decimal `json:"diferencia"`
	Clasificacion  string          `json:"clasificacion"`
	Justificacion  *string         `json:"justificacion,omitempty"`
	CerradaPor     string          `json:"cerrada_por"`
	ValidadaPor    *string         `json:"validada_por,omitempty"`
	CreatedAt      string          `json:"created_at"`
}

type ReporteCajaResponse struct {
	CajaID        string               `json:"caja_id"`
	SedeID        string               `json:"sede_id"`
	Estado        string               `json:"estado"`
	MontoApertura decimal.Decimal      `json:"monto_apertura"`
	TotalIngresos decimal.Decimal      `json:"total_ingresos"`
	TotalEgresos  decimal.Decimal      `json:"total_egresos"`
	Movimientos   []MovimientoResponse `json:"movimientos"`
	OpenedAt      string               `json:"opened_at"`
	ClosedAt      *string              `json:"closed_at,omitempty"`
	Cierre        *CierreResponse      `json:"cierre,omitempty"`
}

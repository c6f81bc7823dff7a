package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Clasificaciones de diferencia de cierre
const (
	CierreCuadrado = "cuadrada"
	CierreFaltante = "faltante"
	CierreSobrante = "sobrante"
)

// CierreCaja is the immutable record finalizing a caja's reconciliation for
// its business date. Exactly one per caja (unique index on caja_id), written
// in the same transaction that flips the caja to "cerrada". Sales figures are
// flattened per payment channel, summed across kiosco and almuerzos.
//
// Invariant: EsperadoFinal = MontoApertura + VentasEfectivo + TotalIngresos − TotalEgresos,
// where VentasEfectivo is the cash channel only — tarjeta/yape/plin/credito
// never touch the physical till.
type CierreCaja struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CajaID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uni_cierres_caja_id"`
	SedeID      string    `gorm:"type:varchar(40);not null;index"`
	FechaCierre string    `gorm:"type:date;not null"`

	VentasEfectivo decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	VentasTarjeta  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	VentasYape     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	VentasPlin     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	VentasCredito  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	VentasTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	TotalIngresos decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalEgresos  decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	MontoApertura decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// EsperadoFinal may be negative (egresos can exceed cash) — never clamped.
	EsperadoFinal decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	RealFinal     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Diferencia    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Clasificacion string          `gorm:"type:varchar(20);not null"`
	Justificacion *string

	CerradaPor  uuid.UUID  `gorm:"type:uuid;not null"`
	ValidadaPor *uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time
}

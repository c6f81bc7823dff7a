package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados de caja
const (
	CajaAbierta = "abierta"
	CajaCerrada = "cerrada"
)

// Tipos de movimiento
const (
	MovimientoIngreso = "ingreso"
	MovimientoEgreso  = "egreso"
	MovimientoAjuste  = "ajuste"
)

// Caja is one till's open-to-close session for one sede on one business day.
// Estado: "abierta" | "cerrada". A closed caja is never reopened; the next
// day starts a new row. At most one caja per sede may be "abierta" at a time
// (enforced by a partial unique index, see infra.applySchemaPatches).
type Caja struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SedeID        string          `gorm:"type:varchar(40);not null;index"`
	AbiertaPor    uuid.UUID       `gorm:"type:uuid;not null"`
	MontoApertura decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Estado        string          `gorm:"type:varchar(20);not null;default:'abierta'"`
	OpenedAt      time.Time
	ClosedAt      *time.Time
	CerradaPor    *uuid.UUID `gorm:"type:uuid"`

	Movimientos []MovimientoCaja `gorm:"foreignKey:CajaID"`
}

// MovimientoCaja is an immutable entry in the cash ledger.
// Tipo: "ingreso" | "egreso" | "ajuste". Monto is always positive; the sign
// is implied by Tipo. Movements are NEVER updated or deleted — the only
// post-hoc mutation allowed is flipping VoucherImpreso, which is a printing
// annotation with no financial meaning.
type MovimientoCaja struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CajaID            uuid.UUID       `gorm:"type:uuid;index;not null"`
	SedeID            string          `gorm:"type:varchar(40);not null;index"`
	Tipo              string          `gorm:"type:varchar(20);not null"`
	Monto             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Motivo            string          `gorm:"not null"`
	ResponsableNombre string          `gorm:"type:varchar(120);not null"`
	ResponsableID     string          `gorm:"type:varchar(40)"`
	CreadoPor         uuid.UUID       `gorm:"type:uuid;not null"`
	RequiereFirma     bool            `gorm:"not null;default:false"`
	VoucherImpreso    bool            `gorm:"not null;default:false"`
	CreatedAt         time.Time
}

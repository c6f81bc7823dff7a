package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SedeConfig holds per-sede register settings. Read-only for the caja core;
// written through the config endpoints by administrators.
type SedeConfig struct {
	SedeID           string `gorm:"type:varchar(40);primaryKey"`
	AutoCierreActivo bool   `gorm:"not null;default:false"`
	// HoraAutoCierre in "HH:MM", interpreted in the sede's Timezone.
	HoraAutoCierre string `gorm:"type:varchar(5);not null;default:'22:00'"`
	// UmbralAlertaDesvio is advisory only: exceeding it triggers a notification
	// job but never blocks a cierre — the mandatory-justification rule always
	// fires above the fixed tolerance, not above this threshold.
	UmbralAlertaDesvio      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	RequiereClaveSupervisor bool            `gorm:"not null;default:false"`
	ClaveSupervisorHash     *string         `gorm:"type:varchar(100)"`
	TelefonoNotificacion    *string         `gorm:"type:varchar(20)"`
	EmailSupervisor         *string         `gorm:"type:varchar(120)"`
	Timezone                string          `gorm:"type:varchar(40);not null;default:'America/Lima'"`
	UpdatedAt               time.Time
}

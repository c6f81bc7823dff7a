package dto

import "github.com/shopspring/decimal"

type ActualizarConfigRequest struct {
	AutoCierreActivo        *bool            `json:"auto_cierre_activo"`
	HoraAutoCierre          *string          `json:"hora_auto_cierre" validate:"omitempty,len=5"`
	UmbralAlertaDesvio      *decimal.Decimal `json:"umbral_alerta_desvio" validate:"omitempty"`
	RequiereClaveSupervisor *bool            `json:"requiere_clave_supervisor"`
	// ClaveSupervisor is hashed with bcrypt before storage; the hash is never
	// returned by any endpoint.
	ClaveSupervisor      *string `json:"clave_supervisor" validate:"omitempty,min=6"`
	TelefonoNotificacion *string `json:"telefono_notificacion" validate:"omitempty,max=20"`
	EmailSupervisor      *string `json:"email_supervisor" validate:"omitempty,email"`
	Timezone             *string `json:"timezone" validate:"omitempty,max=40"`
}

type SedeConfigResponse struct {
	SedeID                  string          `json:"sede_id"`
	AutoCierreActivo        bool            `json:"auto_cierre_activo"`
	HoraAutoCierre          string          `json:"hora_auto_cierre"`
	UmbralAlertaDesvio      decimal.Decimal `json:"umbral_alerta_desvio"`
	RequiereClaveSupervisor bool            `json:"requiere_clave_supervisor"`
	TelefonoNotificacion    *string         `json:"telefono_notificacion,omitempty"`
	EmailSupervisor         *string         `json:"email_supervisor,omitempty"`
	Timezone                string          `json:"timezone"`
}

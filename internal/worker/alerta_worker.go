package worker

import (
	"context"
	"fmt"

	"portalpos/internal/infra"

	"github.com/rs/zerolog/log"
)

// AlertaWorker delivers discrepancy alerts over the two configured channels:
// WhatsApp/SMS through the notification sidecar (guarded by the circuit
// breaker) and email to the supervisor. A failure on either channel makes the
// job retryable; the pool re-enqueues and eventually parks it in the DLQ.
type AlertaWorker struct {
	notificador *infra.Notificador
	cb          *infra.CircuitBreaker
	mailer      *infra.Mailer
}

func NewAlertaWorker(notificador *infra.Notificador, cb *infra.CircuitBreaker, mailer *infra.Mailer) *AlertaWorker {
	return &AlertaWorker{notificador: notificador, cb: cb, mailer: mailer}
}

func (w *AlertaWorker) Procesar(ctx context.Context, p AlertaDesvioPayload) error {
	mensaje := fmt.Sprintf(
		"Alerta de caja — sede %s (%s): cierre con %s de S/ %s. Esperado S/ %s, contado S/ %s.",
		p.SedeID, p.FechaCierre, p.Clasificacion, p.Diferencia, p.EsperadoFinal, p.RealFinal)

	var firstErr error

	if p.Telefono != nil && *p.Telefono != "" {
		err := w.cb.Execute(func() error {
			return w.notificador.EnviarMensaje(ctx, infra.MensajePayload{
				Telefono: *p.Telefono,
				Mensaje:  mensaje,
			})
		})
		if err != nil {
			log.Warn().Str("sede_id", p.SedeID).Err(err).Msg("alerta: envío por notificador falló")
			firstErr = err
		}
	}

	if p.Email != nil && *p.Email != "" {
		subject := fmt.Sprintf("Cierre de caja con %s — sede %s", p.Clasificacion, p.SedeID)
		if err := w.mailer.SendResumenCierre(*p.Email, subject, mensaje); err != nil {
			log.Warn().Str("sede_id", p.SedeID).Err(err).Msg("alerta: envío por email falló")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

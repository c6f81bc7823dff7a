package worker

// autocierre.go
// Background goroutine that closes forgotten cajas. Every tick it walks the
// sedes with auto_cierre_activo and, once the sede-local clock passes the
// configured hora_auto_cierre, triggers the exact same close path a cashier
// would use. Cajas opened AFTER the cutoff (a late evening shift) are left
// alone until the next day's cutoff.

import (
	"context"
	"time"

	"portalpos/internal/dto"
	"portalpos/internal/repository"

	"github.com/rs/zerolog/log"
)

const autoCierreTickInterval = time.Minute

// CierreAutomatico is implemented by the caja service. It returns (nil, nil)
// when the sede has nothing to close — no open caja, or the caja was opened
// after the cutoff.
type CierreAutomatico interface {
	CierreAutomatico(ctx context.Context, sedeID string, corte time.Time) (*dto.CierreResponse, error)
}

// AutoCierreConfig holds all dependencies for the auto-close goroutine.
type AutoCierreConfig struct {
	ConfigRepo repository.SedeConfigRepository
	Cajas      CierreAutomatico
	DefaultTZ  string
}

// StartAutoCierre launches the scheduler. It respects the context for
// graceful shutdown.
func StartAutoCierre(ctx context.Context, cfg AutoCierreConfig) {
	go func() {
		ticker := time.NewTicker(autoCierreTickInterval)
		defer ticker.Stop()

		log.Info().Msg("autocierre: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("autocierre: shutting down")
				return
			case <-ticker.C:
				procesarAutoCierres(ctx, cfg)
			}
		}
	}()
}

func procesarAutoCierres(ctx context.Context, cfg AutoCierreConfig) {
	configs, err := cfg.ConfigRepo.ListAutoCierre(ctx)
	if err != nil {
		log.Error().Err(err).Msg("autocierre: failed to list sede configs")
		return
	}

	for _, sede := range configs {
		corte, ok := corteDeHoy(sede.HoraAutoCierre, sede.Timezone, cfg.DefaultTZ)
		if !ok {
			log.Warn().
				Str("sede_id", sede.SedeID).
				Str("hora", sede.HoraAutoCierre).
				Msg("autocierre: hora_auto_cierre inválida, sede omitida")
			continue
		}
		if time.Now().Before(corte) {
			continue
		}

		cierre, err := cfg.Cajas.CierreAutomatico(ctx, sede.SedeID, corte)
		if err != nil {
			log.Error().Str("sede_id", sede.SedeID).Err(err).Msg("autocierre: cierre falló")
			continue
		}
		if cierre != nil {
			log.Info().
				Str("sede_id", sede.SedeID).
				Str("caja_id", cierre.CajaID).
				Str("clasificacion", cierre.Clasificacion).
				Msg("autocierre: caja cerrada automáticamente")
		}
	}
}

// corteDeHoy resolves "HH:MM" into today's cutoff instant in the sede's
// timezone.
func corteDeHoy(hora, tz, fallbackTZ string) (time.Time, bool) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc, err = time.LoadLocation(fallbackTZ)
		if err != nil {
			loc = time.UTC
		}
	}

	parsed, err := time.Parse("15:04", hora)
	if err != nil {
		return time.Time{}, false
	}

	now := time.Now().In(loc)
	corte := time.Date(now.Year(), now.Month(), now.Day(), parsed.Hour(), parsed.Minute(), 0, 0, loc)
	return corte, true
}

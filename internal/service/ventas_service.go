package service

import (
	"context"
	"fmt"

	"portalpos/internal/dto"
	"portalpos/internal/repository"
)

// VentasService aggregates same-day sales from the external kiosco and
// almuerzos systems into the fixed per-channel breakdown. Pure read — it is
// safe to call repeatedly and it never mutates anything.
type VentasService interface {
	TotalesDia(ctx context.Context, sedeID, fecha string) (*dto.VentasDiaResponse, error)
}

type ventasService struct {
	repo repository.VentasRepository
}

func NewVentasService(repo repository.VentasRepository) VentasService {
	return &ventasService{repo: repo}
}

// TotalesDia reduces both sales sources for one sede and business date.
// When the query fails, or neither source has a single row, the totals are
// reported as unavailable: the caller must block the cierre instead of
// assuming a zero-sales day.
func (s *ventasService) TotalesDia(ctx context.Context, sedeID, fecha string) (*dto.VentasDiaResponse, error) {
	kiosco, err := s.repo.TotalesKiosco(ctx, sedeID, fecha)
	if err != nil {
		return nil, fmt.Errorf("%w: kiosco: %v", ErrVentasNoDisponibles, err)
	}
	almuerzos, err := s.repo.TotalesAlmuerzos(ctx, sedeID, fecha)
	if err != nil {
		return nil, fmt.Errorf("%w: almuerzos: %v", ErrVentasNoDisponibles, err)
	}

	if kiosco.Filas == 0 && almuerzos.Filas == 0 {
		return nil, fmt.Errorf("%w: sin registros para %s el %s", ErrVentasNoDisponibles, sedeID, fecha)
	}

	k := dto.TotalesKiosco{
		Efectivo:      kiosco.Efectivo,
		Tarjeta:       kiosco.Tarjeta,
		Yape:          kiosco.Yape,
		Plin:          kiosco.Plin,
		Credito:       kiosco.Credito,
		MixtoEfectivo: kiosco.MixtoEfectivo,
		MixtoTarjeta:  kiosco.MixtoTarjeta,
		MixtoYape:     kiosco.MixtoYape,
	}
	k.Total = k.Efectivo.Add(k.Tarjeta).Add(k.Yape).Add(k.Plin).Add(k.Credito).
		Add(k.MixtoEfectivo).Add(k.MixtoTarjeta).Add(k.MixtoYape)

	a := dto.TotalesAlmuerzos{
		Efectivo: almuerzos.Efectivo,
		Tarjeta:  almuerzos.Tarjeta,
		Yape:     almuerzos.Yape,
		Credito:  almuerzos.Credito,
	}
	a.Total = a.Efectivo.Add(a.Tarjeta).Add(a.Yape).Add(a.Credito)

	return &dto.VentasDiaResponse{
		SedeID:       sedeID,
		Fecha:        fecha,
		Kiosco:       k,
		Almuerzos:    a,
		TotalGeneral: k.Total.Add(a.Total),
	}, nil
}

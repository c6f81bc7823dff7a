package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"portalpos/internal/dto"
	"portalpos/internal/model"
	"portalpos/internal/repository"
	"portalpos/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type CajaService interface {
	Abrir(ctx context.Context, abiertaPor uuid.UUID, req dto.AbrirCajaRequest) (*dto.ReporteCajaResponse, error)
	RegistrarMovimiento(ctx context.Context, creadoPor uuid.UUID, req dto.MovimientoManualRequest) (*dto.MovimientoResponse, error)
	MarcarVoucherImpreso(ctx context.Context, movimientoID uuid.UUID) error
	ProponerCierre(ctx context.Context, req dto.ProponerCierreRequest) (*dto.PropuestaCierreResponse, error)
	CerrarCaja(ctx context.Context, cerradaPor uuid.UUID, req dto.CerrarCajaRequest) (*dto.CierreResponse, error)
	// CierreAutomatico is invoked by the scheduler; returns (nil, nil) when
	// the sede has nothing to close.
	CierreAutomatico(ctx context.Context, sedeID string, corte time.Time) (*dto.CierreResponse, error)
	GetActiva(ctx context.Context, sedeID string) (*dto.ReporteCajaResponse, error)
	ObtenerReporte(ctx context.Context, cajaID uuid.UUID) (*dto.ReporteCajaResponse, error)
	Historial(ctx context.Context, sedeID string, page, limit int) ([]dto.CierreResponse, int64, error)
}

type cajaService struct {
	repo       repository.CajaRepository
	cierres    repository.CierreRepository
	ventas     VentasService
	config     ConfigService
	dispatcher *worker.Dispatcher // nil-safe: alerts are best-effort

	// locks linearizes per-caja mutations in-process: a movement can never
	// slip between the totals computation and the commit of a close, and a
	// duplicated close submission serializes instead of racing. The partial
	// unique index and the conditional UPDATE cover cross-process races.
	locks sync.Map
}

func NewCajaService(
	repo repository.CajaRepository,
	cierres repository.CierreRepository,
	ventas VentasService,
	config ConfigService,
	dispatcher *worker.Dispatcher,
) CajaService {
	return &cajaService{
		repo:       repo,
		cierres:    cierres,
		ventas:     ventas,
		config:     config,
		dispatcher: dispatcher,
	}
}

func (s *cajaService) lockCaja(id uuid.UUID) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// ── Abrir ─────────────────────────────────────────────────────────────────────

// Abrir creates a new caja for the sede. The opening float is the counted
// cash of the sede's most recent cierre — the money physically left in the
// drawer — or zero for a brand-new sede. The pre-check gives a friendly
// error; the partial unique index is what actually guarantees single-open
// under concurrent callers.
func (s *cajaService) Abrir(ctx context.Context, abiertaPor uuid.UUID, req dto.AbrirCajaRequest) (*dto.ReporteCajaResponse, error) {
	if existente, err := s.repo.FindCajaAbiertaPorSede(ctx, req.SedeID); err == nil && existente != nil {
		return nil, ErrCajaYaAbierta
	}

	apertura := decimal.Zero
	if ultimo, err := s.cierres.FindUltimoPorSede(ctx, req.SedeID); err == nil && ultimo != nil {
		apertura = ultimo.RealFinal
	}

	caja := &model.Caja{
		SedeID:        req.SedeID,
		AbiertaPor:    abiertaPor,
		MontoApertura: apertura,
		Estado:        model.CajaAbierta,
		OpenedAt:      time.Now(),
	}
	if err := s.repo.CreateCaja(ctx, caja); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCajaYaAbierta
		}
		return nil, err
	}

	return s.buildReporte(ctx, caja)
}

// ── RegistrarMovimiento ───────────────────────────────────────────────────────

// RegistrarMovimiento appends one ingreso/egreso to the ledger. Entries are
// immutable from here on — no update or delete path exists.
func (s *cajaService) RegistrarMovimiento(ctx context.Context, creadoPor uuid.UUID, req dto.MovimientoManualRequest) (*dto.MovimientoResponse, error) {
	cajaID, err := uuid.Parse(req.CajaID)
	if err != nil {
		return nil, fmt.Errorf("caja_id inválido: %w", err)
	}
	if !req.Monto.IsPositive() {
		return nil, errors.New("el monto debe ser mayor que cero")
	}
	if strings.TrimSpace(req.Motivo) == "" {
		return nil, errors.New("el motivo es obligatorio")
	}
	if req.Tipo != model.MovimientoIngreso && req.Tipo != model.MovimientoEgreso {
		return nil, errors.New("tipo de movimiento inválido")
	}

	unlock := s.lockCaja(cajaID)
	defer unlock()

	caja, err := s.repo.FindCajaByID(ctx, cajaID)
	if err != nil {
		return nil, ErrCajaNoEncontrada
	}
	if caja.Estado != model.CajaAbierta {
		return nil, ErrCajaCerrada
	}

	mov := &model.MovimientoCaja{
		CajaID:            caja.ID,
		SedeID:            caja.SedeID,
		Tipo:              req.Tipo,
		Monto:             req.Monto,
		Motivo:            req.Motivo,
		ResponsableNombre: req.ResponsableNombre,
		ResponsableID:     req.ResponsableID,
		CreadoPor:         creadoPor,
		RequiereFirma:     req.RequiereFirma,
	}
	if err := s.repo.CreateMovimiento(ctx, mov); err != nil {
		return nil, err
	}
	return movimientoToResponse(mov), nil
}

func (s *cajaService) MarcarVoucherImpreso(ctx context.Context, movimientoID uuid.UUID) error {
	if _, err := s.repo.FindMovimientoByID(ctx, movimientoID); err != nil {
		return ErrMovimientoNoEncontrado
	}
	return s.repo.MarcarVoucherImpreso(ctx, movimientoID)
}

// ── Cierre ────────────────────────────────────────────────────────────────────

// ProponerCierre previews the reconciliation for the cashier: expected cash,
// difference against the counted amount, classification, and whether a
// justification will be demanded. Nothing is persisted.
func (s *cajaService) ProponerCierre(ctx context.Context, req dto.ProponerCierreRequest) (*dto.PropuestaCierreResponse, error) {
	cajaID, err := uuid.Parse(req.CajaID)
	if err != nil {
		return nil, fmt.Errorf("caja_id inválido: %w", err)
	}
	caja, err := s.repo.FindCajaByID(ctx, cajaID)
	if err != nil {
		return nil, ErrCajaNoEncontrada
	}
	if caja.Estado != model.CajaAbierta {
		return nil, ErrCajaCerrada
	}

	rec, _, err := s.calcular(ctx, caja, req.RealFinal)
	if err != nil {
		return nil, err
	}

	cfgSede, err := s.config.Obtener(ctx, caja.SedeID)
	if err != nil {
		return nil, err
	}

	return &dto.PropuestaCierreResponse{
		CajaID:                caja.ID.String(),
		MontoApertura:         rec.MontoApertura,
		EfectivoVentas:        rec.EfectivoVentas,
		TotalIngresos:         rec.TotalIngresos,
		TotalEgresos:          rec.TotalEgresos,
		EsperadoFinal:         rec.EsperadoFinal,
		RealFinal:             rec.RealFinal,
		Diferencia:            rec.Diferencia,
		Clasificacion:         rec.Clasificacion,
		RequiereJustificacion: requiereJustificacion(rec),
		SuperaUmbralAlerta:    superaUmbral(rec, cfgSede.UmbralAlertaDesvio),
	}, nil
}

// CerrarCaja is the only path to estado "cerrada". Idempotent from the
// caller's perspective: a retried close finds the caja already closed and
// returns the committed cierre instead of creating a second one.
func (s *cajaService) CerrarCaja(ctx context.Context, cerradaPor uuid.UUID, req dto.CerrarCajaRequest) (*dto.CierreResponse, error) {
	cajaID, err := uuid.Parse(req.CajaID)
	if err != nil {
		return nil, fmt.Errorf("caja_id inválido: %w", err)
	}

	unlock := s.lockCaja(cajaID)
	defer unlock()

	caja, err := s.repo.FindCajaByID(ctx, cajaID)
	if err != nil {
		return nil, ErrCajaNoEncontrada
	}
	if caja.Estado != model.CajaAbierta {
		return s.cierreExistente(ctx, caja.ID)
	}

	rec, ventas, err := s.calcular(ctx, caja, req.RealFinal)
	if err != nil {
		return nil, err
	}

	cfgSede, err := s.config.Obtener(ctx, caja.SedeID)
	if err != nil {
		return nil, err
	}

	if requiereJustificacion(rec) {
		if req.Justificacion == nil || strings.TrimSpace(*req.Justificacion) == "" {
			return nil, ErrJustificacionRequerida
		}
		if cfgSede.RequiereClaveSupervisor {
			if err := verificarClaveSupervisor(cfgSede.ClaveSupervisorHash, req.ClaveSupervisor); err != nil {
				return nil, err
			}
		}
	}

	cierre := &model.CierreCaja{
		CajaID:         caja.ID,
		SedeID:         caja.SedeID,
		FechaCierre:    ventas.Fecha,
		VentasEfectivo: ventas.Kiosco.Efectivo.Add(ventas.Kiosco.MixtoEfectivo).Add(ventas.Almuerzos.Efectivo),
		VentasTarjeta:  ventas.Kiosco.Tarjeta.Add(ventas.Kiosco.MixtoTarjeta).Add(ventas.Almuerzos.Tarjeta),
		VentasYape:     ventas.Kiosco.Yape.Add(ventas.Kiosco.MixtoYape).Add(ventas.Almuerzos.Yape),
		VentasPlin:     ventas.Kiosco.Plin,
		VentasCredito:  ventas.Kiosco.Credito.Add(ventas.Almuerzos.Credito),
		VentasTotal:    ventas.TotalGeneral,
		TotalIngresos:  rec.TotalIngresos,
		TotalEgresos:   rec.TotalEgresos,
		MontoApertura:  rec.MontoApertura,
		EsperadoFinal:  rec.EsperadoFinal,
		RealFinal:      rec.RealFinal,
		Diferencia:     rec.Diferencia,
		Clasificacion:  rec.Clasificacion,
		Justificacion:  req.Justificacion,
		CerradaPor:     cerradaPor,
	}

	var ajuste *model.MovimientoCaja
	if requiereJustificacion(rec) {
		ajuste = armarAjuste(caja, rec, *req.Justificacion, cerradaPor)
	}

	if err := s.repo.CommitCierre(ctx, cierre, ajuste); err != nil {
		if errors.Is(err, repository.ErrCierreConflicto) {
			// Lost the race against another close — surface its result.
			return s.cierreExistente(ctx, caja.ID)
		}
		return nil, err
	}

	s.alertarSiCorresponde(ctx, cierre, cfgSede.UmbralAlertaDesvio, cfgSede.TelefonoNotificacion, cfgSede.EmailSupervisor)

	return cierreToResponse(cierre), nil
}

func (s *cajaService) CierreAutomatico(ctx context.Context, sedeID string, corte time.Time) (*dto.CierreResponse, error) {
	caja, err := s.repo.FindCajaAbiertaPorSede(ctx, sedeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	// A caja opened after the cutoff belongs to an evening shift; leave it
	// for tomorrow's cutoff.
	if caja.OpenedAt.After(corte) {
		return nil, nil
	}

	rec, _, err := s.calcular(ctx, caja, decimal.Zero)
	if err != nil {
		return nil, err
	}

	justificacion := "Cierre automático programado"
	return s.CerrarCaja(ctx, uuid.Nil, dto.CerrarCajaRequest{
		CajaID:        caja.ID.String(),
		RealFinal:     rec.EsperadoFinal,
		Justificacion: &justificacion,
	})
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *cajaService) GetActiva(ctx context.Context, sedeID string) (*dto.ReporteCajaResponse, error) {
	caja, err := s.repo.FindCajaAbiertaPorSede(ctx, sedeID)
	if err != nil {
		return nil, ErrCajaNoEncontrada
	}
	return s.buildReporte(ctx, caja)
}

func (s *cajaService) ObtenerReporte(ctx context.Context, cajaID uuid.UUID) (*dto.ReporteCajaResponse, error) {
	caja, err := s.repo.FindCajaByID(ctx, cajaID)
	if err != nil {
		return nil, ErrCajaNoEncontrada
	}
	return s.buildReporte(ctx, caja)
}

func (s *cajaService) Historial(ctx context.Context, sedeID string, page, limit int) ([]dto.CierreResponse, int64, error) {
	cierres, total, err := s.cierres.List(ctx, sedeID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.CierreResponse, 0, len(cierres))
	for i := range cierres {
		out = append(out, *cierreToResponse(&cierres[i]))
	}
	return out, total, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// calcular runs the reconciliation arithmetic against live data: the day's
// sales, the manual ledger sums, and the opening float.
func (s *cajaService) calcular(ctx context.Context, caja *model.Caja, real decimal.Decimal) (reconciliacion, *dto.VentasDiaResponse, error) {
	ventas, err := s.ventas.TotalesDia(ctx, caja.SedeID, s.fechaOperativa(ctx, caja))
	if err != nil {
		return reconciliacion{}, nil, err
	}
	sums, err := s.repo.SumMovimientosPorTipo(ctx, caja.ID)
	if err != nil {
		return reconciliacion{}, nil, err
	}
	rec := reconciliar(caja.MontoApertura, ventas.EfectivoEnCaja(), sums.Ingresos, sums.Egresos, real)
	return rec, ventas, nil
}

// fechaOperativa is the calendar date of the caja's opening, in the sede's
// local timezone — the same definition the sales systems attribute under.
func (s *cajaService) fechaOperativa(ctx context.Context, caja *model.Caja) string {
	loc := time.UTC
	if cfgSede, err := s.config.Obtener(ctx, caja.SedeID); err == nil {
		if l, lerr := time.LoadLocation(cfgSede.Timezone); lerr == nil {
			loc = l
		}
	}
	return caja.OpenedAt.In(loc).Format("2006-01-02")
}

func (s *cajaService) cierreExistente(ctx context.Context, cajaID uuid.UUID) (*dto.CierreResponse, error) {
	cierre, err := s.cierres.FindByCajaID(ctx, cajaID)
	if err != nil {
		return nil, ErrCajaCerrada
	}
	return cierreToResponse(cierre), nil
}

func (s *cajaService) alertarSiCorresponde(ctx context.Context, cierre *model.CierreCaja, umbral decimal.Decimal, telefono, email *string) {
	if s.dispatcher == nil || !umbral.IsPositive() {
		return
	}
	if cierre.Diferencia.Abs().LessThanOrEqual(umbral) {
		return
	}
	payload := worker.AlertaDesvioPayload{
		SedeID:        cierre.SedeID,
		CajaID:        cierre.CajaID.String(),
		FechaCierre:   cierre.FechaCierre,
		Diferencia:    cierre.Diferencia.StringFixed(2),
		Clasificacion: cierre.Clasificacion,
		EsperadoFinal: cierre.EsperadoFinal.StringFixed(2),
		RealFinal:     cierre.RealFinal.StringFixed(2),
		Telefono:      telefono,
		Email:         email,
	}
	if err := s.dispatcher.EnqueueAlertaDesvio(ctx, payload); err != nil {
		log.Warn().Str("caja_id", payload.CajaID).Err(err).Msg("no se pudo encolar la alerta de desvío")
	}
}

func verificarClaveSupervisor(hash *string, clave *string) error {
	if hash == nil || clave == nil {
		return ErrClaveSupervisorInvalida
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*hash), []byte(*clave)); err != nil {
		return ErrClaveSupervisorInvalida
	}
	return nil
}

func superaUmbral(r reconciliacion, umbral decimal.Decimal) bool {
	return umbral.IsPositive() && r.Diferencia.Abs().GreaterThan(umbral)
}

func (s *cajaService) buildReporte(ctx context.Context, caja *model.Caja) (*dto.ReporteCajaResponse, error) {
	movs, err := s.repo.ListMovimientos(ctx, caja.ID)
	if err != nil {
		return nil, err
	}
	sums, err := s.repo.SumMovimientosPorTipo(ctx, caja.ID)
	if err != nil {
		return nil, err
	}

	reporte := &dto.ReporteCajaResponse{
		CajaID:        caja.ID.String(),
		SedeID:        caja.SedeID,
		Estado:        caja.Estado,
		MontoApertura: caja.MontoApertura,
		TotalIngresos: sums.Ingresos,
		TotalEgresos:  sums.Egresos,
		Movimientos:   make([]dto.MovimientoResponse, 0, len(movs)),
		OpenedAt:      caja.OpenedAt.Format(time.RFC3339),
	}
	for i := range movs {
		reporte.Movimientos = append(reporte.Movimientos, *movimientoToResponse(&movs[i]))
	}
	if caja.ClosedAt != nil {
		t := caja.ClosedAt.Format(time.RFC3339)
		reporte.ClosedAt = &t
	}
	if caja.Estado == model.CajaCerrada {
		if cierre, err := s.cierres.FindByCajaID(ctx, caja.ID); err == nil {
			reporte.Cierre = cierreToResponse(cierre)
		}
	}
	return reporte, nil
}

func movimientoToResponse(m *model.MovimientoCaja) *dto.MovimientoResponse {
	return &dto.MovimientoResponse{
		ID:                m.ID.String(),
		CajaID:            m.CajaID.String(),
		Tipo:              m.Tipo,
		Monto:             m.Monto,
		Motivo:            m.Motivo,
		ResponsableNombre: m.ResponsableNombre,
		ResponsableID:     m.ResponsableID,
		RequiereFirma:     m.RequiereFirma,
		VoucherImpreso:    m.VoucherImpreso,
		CreatedAt:         m.CreatedAt.Format(time.RFC3339),
	}
}

func cierreToResponse(c *model.CierreCaja) *dto.CierreResponse {
	resp := &dto.CierreResponse{
		ID:             c.ID.String(),
		CajaID:         c.CajaID.String(),
		SedeID:         c.SedeID,
		FechaCierre:    c.FechaCierre,
		VentasEfectivo: c.VentasEfectivo,
		VentasTarjeta:  c.VentasTarjeta,
		VentasYape:     c.VentasYape,
		VentasPlin:     c.VentasPlin,
		VentasCredito:  c.VentasCredito,
		VentasTotal:    c.VentasTotal,
		TotalIngresos:  c.TotalIngresos,
		TotalEgresos:   c.TotalEgresos,
		MontoApertura:  c.MontoApertura,
		EsperadoFinal:  c.EsperadoFinal,
		RealFinal:      c.RealFinal,
		Diferencia:     c.Diferencia,
		Clasificacion:  c.Clasificacion,
		Justificacion:  c.Justificacion,
		CerradaPor:     c.CerradaPor.String(),
		CreatedAt:      c.CreatedAt.Format(time.RFC3339),
	}
	if c.ValidadaPor != nil {
		v := c.ValidadaPor.String()
		resp.ValidadaPor = &v
	}
	return resp
}

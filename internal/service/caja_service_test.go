package service

import (
	"context"
	"testing"
	"time"

	"portalpos/internal/dto"
	"portalpos/internal/model"
	"portalpos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── In-memory store implementing CajaRepository + CierreRepository ───────────

type memStore struct {
	cajas       map[uuid.UUID]*model.Caja
	movimientos []model.MovimientoCaja
	cierres     map[uuid.UUID]*model.CierreCaja // keyed by caja_id
}

func newMemStore() *memStore {
	return &memStore{
		cajas:   make(map[uuid.UUID]*model.Caja),
		cierres: make(map[uuid.UUID]*model.CierreCaja),
	}
}

func (s *memStore) CreateCaja(_ context.Context, c *model.Caja) error {
	for _, existing := range s.cajas {
		if existing.SedeID == c.SedeID && existing.Estado == model.CajaAbierta {
			return gorm.ErrDuplicatedKey
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.cajas[c.ID] = c
	return nil
}

func (s *memStore) FindCajaByID(_ context.Context, id uuid.UUID) (*model.Caja, error) {
	c, ok := s.cajas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (s *memStore) FindCajaAbiertaPorSede(_ context.Context, sedeID string) (*model.Caja, error) {
	for _, c := range s.cajas {
		if c.SedeID == sedeID && c.Estado == model.CajaAbierta {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) CreateMovimiento(_ context.Context, m *model.MovimientoCaja) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	s.movimientos = append(s.movimientos, *m)
	return nil
}

func (s *memStore) FindMovimientoByID(_ context.Context, id uuid.UUID) (*model.MovimientoCaja, error) {
	for i := range s.movimientos {
		if s.movimientos[i].ID == id {
			return &s.movimientos[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memStore) MarcarVoucherImpreso(_ context.Context, id uuid.UUID) error {
	for i := range s.movimientos {
		if s.movimientos[i].ID == id {
			s.movimientos[i].VoucherImpreso = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *memStore) ListMovimientos(_ context.Context, cajaID uuid.UUID) ([]model.MovimientoCaja, error) {
	var out []model.MovimientoCaja
	for _, m := range s.movimientos {
		if m.CajaID == cajaID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) SumMovimientosPorTipo(_ context.Context, cajaID uuid.UUID) (*repository.TotalesMovimientos, error) {
	t := &repository.TotalesMovimientos{Ingresos: decimal.Zero, Egresos: decimal.Zero}
	for _, m := range s.movimientos {
		if m.CajaID != cajaID {
			continue
		}
		switch m.Tipo {
		case model.MovimientoIngreso:
			t.Ingresos = t.Ingresos.Add(m.Monto)
		case model.MovimientoEgreso:
			t.Egresos = t.Egresos.Add(m.Monto)
		}
	}
	return t, nil
}

func (s *memStore) CommitCierre(_ context.Context, cierre *model.CierreCaja, ajuste *model.MovimientoCaja) error {
	caja, ok := s.cajas[cierre.CajaID]
	if !ok || caja.Estado != model.CajaAbierta {
		return repository.ErrCierreConflicto
	}
	now := time.Now()
	caja.Estado = model.CajaCerrada
	caja.ClosedAt = &now
	caja.CerradaPor = &cierre.CerradaPor

	if cierre.ID == uuid.Nil {
		cierre.ID = uuid.New()
	}
	cierre.CreatedAt = now
	s.cierres[cierre.CajaID] = cierre

	if ajuste != nil {
		ajuste.ID = uuid.New()
		ajuste.CreatedAt = now
		s.movimientos = append(s.movimientos, *ajuste)
	}
	return nil
}

func (s *memStore) FindByCajaID(_ context.Context, cajaID uuid.UUID) (*model.CierreCaja, error) {
	c, ok := s.cierres[cajaID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (s *memStore) FindUltimoPorSede(_ context.Context, sedeID string) (*model.CierreCaja, error) {
	var ultimo *model.CierreCaja
	for _, c := range s.cierres {
		if c.SedeID != sedeID {
			continue
		}
		if ultimo == nil || c.CreatedAt.After(ultimo.CreatedAt) {
			ultimo = c
		}
	}
	if ultimo == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return ultimo, nil
}

func (s *memStore) List(_ context.Context, sedeID string, page, limit int) ([]model.CierreCaja, int64, error) {
	var out []model.CierreCaja
	for _, c := range s.cierres {
		if sedeID == "" || c.SedeID == sedeID {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

var (
	_ repository.CajaRepository   = (*memStore)(nil)
	_ repository.CierreRepository = (*memStore)(nil)
)

// ── In-memory SedeConfigRepository ───────────────────────────────────────────

type memConfigRepo struct {
	configs map[string]*model.SedeConfig
}

func newMemConfigRepo() *memConfigRepo {
	return &memConfigRepo{configs: make(map[string]*model.SedeConfig)}
}

func (r *memConfigRepo) Find(_ context.Context, sedeID string) (*model.SedeConfig, error) {
	cfg, ok := r.configs[sedeID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cfg, nil
}

func (r *memConfigRepo) Save(_ context.Context, cfg *model.SedeConfig) error {
	r.configs[cfg.SedeID] = cfg
	return nil
}

func (r *memConfigRepo) ListAutoCierre(_ context.Context) ([]model.SedeConfig, error) {
	var out []model.SedeConfig
	for _, cfg := range r.configs {
		if cfg.AutoCierreActivo {
			out = append(out, *cfg)
		}
	}
	return out, nil
}

var _ repository.SedeConfigRepository = (*memConfigRepo)(nil)

// ── Fake VentasService ───────────────────────────────────────────────────────

type fakeVentas struct {
	resp *dto.VentasDiaResponse
	err  error
}

func (f *fakeVentas) TotalesDia(_ context.Context, sedeID, fecha string) (*dto.VentasDiaResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

// ventasDelDia builds a day with 250.00 of cash in drawer:
// kiosco efectivo 200 + kiosco mixto efectivo 30 + almuerzos efectivo 20.
func ventasDelDia() *dto.VentasDiaResponse {
	k := dto.TotalesKiosco{
		Efectivo:      d("200.00"),
		Tarjeta:       d("80.00"),
		Yape:          d("45.00"),
		MixtoEfectivo: d("30.00"),
		MixtoTarjeta:  d("10.00"),
	}
	k.Total = d("365.00")
	a := dto.TotalesAlmuerzos{Efectivo: d("20.00"), Credito: d("15.00")}
	a.Total = d("35.00")
	return &dto.VentasDiaResponse{
		SedeID:       "sede-01",
		Fecha:        time.Now().Format("2006-01-02"),
		Kiosco:       k,
		Almuerzos:    a,
		TotalGeneral: d("400.00"),
	}
}

type testEnv struct {
	store   *memStore
	cfgRepo *memConfigRepo
	ventas  *fakeVentas
	svc     CajaService
}

func newTestEnv() *testEnv {
	store := newMemStore()
	cfgRepo := newMemConfigRepo()
	ventas := &fakeVentas{resp: ventasDelDia()}
	cfgSvc := NewConfigService(cfgRepo, nil, "America/Lima")
	svc := NewCajaService(store, store, ventas, cfgSvc, nil)
	return &testEnv{store: store, cfgRepo: cfgRepo, ventas: ventas, svc: svc}
}

func (e *testEnv) abrir(t *testing.T) uuid.UUID {
	t.Helper()
	resp, err := e.svc.Abrir(context.Background(), uuid.New(), dto.AbrirCajaRequest{SedeID: "sede-01"})
	require.NoError(t, err)
	return uuid.MustParse(resp.CajaID)
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestAbrirCaja(t *testing.T) {
	env := newTestEnv()

	resp, err := env.svc.Abrir(context.Background(), uuid.New(), dto.AbrirCajaRequest{SedeID: "sede-01"})

	require.NoError(t, err)
	assert.Equal(t, model.CajaAbierta, resp.Estado)
	assert.True(t, resp.MontoApertura.IsZero()) // sede nueva, sin cierre previo
}

func TestAbrirCajaDuplicada(t *testing.T) {
	env := newTestEnv()
	env.abrir(t)

	_, err := env.svc.Abrir(context.Background(), uuid.New(), dto.AbrirCajaRequest{SedeID: "sede-01"})
	assert.ErrorIs(t, err, ErrCajaYaAbierta)
}

func TestAbrirCajaArrastraFondo(t *testing.T) {
	// El efectivo contado del último cierre es el fondo de apertura siguiente.
	env := newTestEnv()
	cajaID := env.abrir(t)

	_, err := env.svc.CerrarCaja(context.Background(), uuid.New(), dto.CerrarCajaRequest{
		CajaID:    cajaID.String(),
		RealFinal: d("250.00"), // apertura 0 + efectivo 250
	})
	require.NoError(t, err)

	resp, err := env.svc.Abrir(context.Background(), uuid.New(), dto.AbrirCajaRequest{SedeID: "sede-01"})
	require.NoError(t, err)
	assert.Equal(t, "250", resp.MontoApertura.String())
}

func TestRegistrarMovimiento(t *testing.T) {
	env := newTestEnv()
	cajaID := env.abrir(t)

	resp, err := env.svc.RegistrarMovimiento(context.Background(), uuid.New(), dto.MovimientoManualRequest{
		CajaID:            cajaID.String(),
		Tipo:              model.MovimientoEgreso,
		Monto:             d("20.00"),
		Motivo:            "Compra de gas",
		ResponsableNombre: "María Quispe",
	})

	require.NoError(t, err)
	assert.Equal(t, model.MovimientoEgreso, resp.Tipo)
	assert.Equal(t, "20", resp.Monto.String()) // monto siempre positivo, el tipo lleva el signo
	assert.Len(t, env.store.movimientos, 1)
}

func TestRegistrarMovimientoCajaCerrada(t *testing.T) {
	env := newTestEnv()
	cajaID := env.abrir(t)
	_, err := env.svc.CerrarCaja(context.Background(), uuid.New(), dto.CerrarCajaRequest{
		CajaID:    cajaID.String(),
		RealFinal: d("250.00"),
	})
	require.NoError(t, err)

	_, err = env.svc.RegistrarMovimiento(context.Background(), uuid.New(), dto.MovimientoManualRequest{
		CajaID:            cajaID.String(),
		Tipo:              model.MovimientoIngreso,
		Monto:             d("10.00"),
		Motivo:            "Fondo extra",
		ResponsableNombre: "María Quispe",
	})
	assert.ErrorIs(t, err, ErrCajaCerrada)
}

func TestCierreCuadrado(t *testing.T) {
	// apertura 100 + efectivo 250 + ingresos 0 − egresos 20 = 330
	env := newTestEnv()
	cajaID := env.abrir(t)
	env.store.cajas[cajaID].MontoApertura = d("100.00")

	_, err := env.svc.RegistrarMovimiento(context.Background(), uuid.New(), dto.MovimientoManualRequest{
		CajaID:            cajaID.String(),
		Tipo:              model.MovimientoEgreso,
		Monto:             d("20.00"),
		Motivo:            "Compra de insumos",
		ResponsableNombre: "María Quispe",
	})
	require.NoError(t, err)

	cierre, err := env.svc.CerrarCaja(context.Background(), uuid.New(), dto.CerrarCajaRequest{
		CajaID:    cajaID.String(),
		RealFinal: d("330.00"),
	})

	require.NoError(t, err)
	assert.Equal(t, "330", cierre.EsperadoFinal.String())
	assert.True(t, cierre.Diferencia.IsZero())
	assert.Equal(t, model.CierreCuadrado, cierre.Clasificacion)

	// Sin diferencia no se crea movimiento de ajuste.
	for _, m := range env.store.movimientos {
		assert.NotEqual(t, model.MovimientoAjuste, m.Tipo)
	}
}

func TestCierreFaltanteRequiereJustificacion(t *testing.T) {
	env := newTestEnv()
	cajaID := env.abrir(t)
	env.store.cajas[cajaID].MontoApertura = d("100.00")
	_, err := env.svc.RegistrarMovimiento(context.Background(), uuid.New(), dto.MovimientoManualRequest{
		CajaID:            cajaID.String(),
		Tipo:              model.MovimientoEgreso,
		Monto:             d("20.00"),
		Motivo:            "Compra de insumos",
		ResponsableNombre: "María Quispe",
	})
	require.NoError(t, err)

	// Sin justificación → rechazado, nada persiste.
	_, err = env.svc.CerrarCaja(context.Background(), uuid.New(), dto.CerrarCajaRequest{
		CajaID:    cajaID.String(),
		RealFinal: d("310.00"),
	})
	assert.ErrorIs(t, err, ErrJustificacionRequerida)
	assert.Equal(t, model.CajaAbierta, env.store.cajas[cajaID].Estado)
	assert.Empty(t, env.store.cierres)

	// Con justificación → cierra con faltante y un ajuste de 20.00.
	justif := "vuelto mal entregado"
	cierre, err := env.svc.CerrarCaja(context.Background(), uuid.New(), dto.CerrarCajaRequest{
		CajaID:        cajaID.String(),
		RealFinal:     d("310.00"),
		Justificacion: &justif,
	})
	require.NoError(t, err)
	assert.Equal(t, "-20", cierre.Diferencia.String())
	assert.Equal(t, model.CierreFaltante, cierre.Clasificacion)

	var ajustes []model.MovimientoCaja
	for _, m := range env.store.movimientos {
		if m.Tipo == model.MovimientoAjuste {
			ajustes = append(ajustes, m)
		}
	}
	require.Len(t, ajustes, 1)
	assert.Equal(t, "20", ajustes[0].Monto.String())
	assert.True(t, ajustes[0].RequiereFirma)
}

func TestCierreVentasNoDisponibles(t *testing.T) {
	env := newTestEnv()
	cajaID := env.abrir(t)
	env.ventas.err = ErrVentasNoDisponibles

	_, err := env.svc.CerrarCaja(context.Background(), uuid.New(), dto.CerrarCajaRequest{
		CajaID:    cajaID.String(),
		RealFinal: d("100.00"),
	})

	// Nunca se asume un día en cero: el cierre se bloquea y la caja sigue abierta.
	assert.ErrorIs(t, err, ErrVentasNoDisponibles)
	assert.Equal(t, model.CajaAbierta, env.store.cajas[cajaID].Estado)
}

func TestCierreIdempotente(t *testing.T) {
	env := newTestEnv()
	cajaID := env.abrir(t)

	primero, err := env.svc.CerrarCaja(context.Background(), uuid.New(), dto.CerrarCajaRequest{
		CajaID:    cajaID.String(),
		RealFinal: d("250.00"),
	})
	require.NoError(t, err)

	// Un reintento devuelve el cierre ya registrado, nunca crea otro.
	segundo, err := env.svc.CerrarCaja(context.Background(), uuid.New(), dto.CerrarCajaRequest{
		CajaID:    cajaID.String(),
		RealFinal: d("999.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, primero.ID, segundo.ID)
	assert.Equal(t, primero.RealFinal.String(), segundo.RealFinal.String())
	assert.Len(t, env.store.cierres, 1)
}

func TestCierreClaveSupervisor(t *testing.T) {
	env := newTestEnv()
	cajaID := env.abrir(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.MinCost)
	require.NoError(t, err)
	h := string(hash)
	env.cfgRepo.configs["sede-01"] = &model.SedeConfig{
		SedeID:                  "sede-01",
		RequiereClaveSupervisor: true,
		ClaveSupervisorHash:     &h,
		Timezone:                "America/Lima",
	}

	justif := "faltante en turno tarde"
	mala := "0000"
	_, err = env.svc.CerrarCaja(context.Background(), uuid.New(), dto.CerrarCajaRequest{
		CajaID:          cajaID.String(),
		RealFinal:       d("200.00"),
		Justificacion:   &justif,
		ClaveSupervisor: &mala,
	})
	assert.ErrorIs(t, err, ErrClaveSupervisorInvalida)

	buena := "1234"
	cierre, err := env.svc.CerrarCaja(context.Background(), uuid.New(), dto.CerrarCajaRequest{
		CajaID:          cajaID.String(),
		RealFinal:       d("200.00"),
		Justificacion:   &justif,
		ClaveSupervisor: &buena,
	})
	require.NoError(t, err)
	assert.Equal(t, model.CierreFaltante, cierre.Clasificacion)
}

func TestProponerCierreNoPersiste(t *testing.T) {
	env := newTestEnv()
	cajaID := env.abrir(t)

	prop, err := env.svc.ProponerCierre(context.Background(), dto.ProponerCierreRequest{
		CajaID:    cajaID.String(),
		RealFinal: d("200.00"),
	})

	require.NoError(t, err)
	assert.Equal(t, "250", prop.EsperadoFinal.String())
	assert.Equal(t, "-50", prop.Diferencia.String())
	assert.True(t, prop.RequiereJustificacion)
	assert.Equal(t, model.CajaAbierta, env.store.cajas[cajaID].Estado)
	assert.Empty(t, env.store.cierres)
}

func TestCierreAutomatico(t *testing.T) {
	env := newTestEnv()
	cajaID := env.abrir(t)
	env.store.cajas[cajaID].OpenedAt = time.Now().Add(-8 * time.Hour)

	cierre, err := env.svc.CierreAutomatico(context.Background(), "sede-01", time.Now())

	require.NoError(t, err)
	require.NotNil(t, cierre)
	// real = esperado por construcción: el cierre automático nunca inventa un conteo.
	assert.Equal(t, model.CierreCuadrado, cierre.Clasificacion)
	assert.Equal(t, cierre.EsperadoFinal.String(), cierre.RealFinal.String())
	assert.Equal(t, model.CajaCerrada, env.store.cajas[cajaID].Estado)
}

func TestCierreAutomaticoSinCaja(t *testing.T) {
	env := newTestEnv()

	cierre, err := env.svc.CierreAutomatico(context.Background(), "sede-01", time.Now())

	require.NoError(t, err)
	assert.Nil(t, cierre)
}

func TestCierreAutomaticoCajaPosterior(t *testing.T) {
	// Una caja abierta después del corte pertenece al turno siguiente.
	env := newTestEnv()
	cajaID := env.abrir(t)

	corte := time.Now().Add(-2 * time.Hour)
	cierre, err := env.svc.CierreAutomatico(context.Background(), "sede-01", corte)

	require.NoError(t, err)
	assert.Nil(t, cierre)
	assert.Equal(t, model.CajaAbierta, env.store.cajas[cajaID].Estado)
}

func TestConservacionDelLedger(t *testing.T) {
	// Reproducir el esperado re-sumando los movimientos debe dar el mismo
	// resultado que el cierre registró.
	env := newTestEnv()
	cajaID := env.abrir(t)
	env.store.cajas[cajaID].MontoApertura = d("100.00")

	montos := []struct {
		tipo  string
		monto string
	}{
		{model.MovimientoIngreso, "50.00"},
		{model.MovimientoEgreso, "30.00"},
		{model.MovimientoIngreso, "12.50"},
		{model.MovimientoEgreso, "7.25"},
	}
	for _, m := range montos {
		_, err := env.svc.RegistrarMovimiento(context.Background(), uuid.New(), dto.MovimientoManualRequest{
			CajaID:            cajaID.String(),
			Tipo:              m.tipo,
			Monto:             d(m.monto),
			Motivo:            "movimiento de prueba",
			ResponsableNombre: "María Quispe",
		})
		require.NoError(t, err)
	}

	justif := "diferencia de prueba"
	cierre, err := env.svc.CerrarCaja(context.Background(), uuid.New(), dto.CerrarCajaRequest{
		CajaID:        cajaID.String(),
		RealFinal:     d("400.00"),
		Justificacion: &justif,
	})
	require.NoError(t, err)

	// 100 + 250 + (50 + 12.50) − (30 + 7.25) = 375.25
	esperado := d("100.00").Add(d("250.00")).
		Add(d("50.00")).Add(d("12.50")).
		Sub(d("30.00")).Sub(d("7.25"))
	assert.Equal(t, esperado.String(), cierre.EsperadoFinal.String())
	assert.Equal(t, d("400.00").Sub(esperado).String(), cierre.Diferencia.String())
}

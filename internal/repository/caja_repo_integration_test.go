//go:build integration

package repository

// Integration tests against a real Postgres via testcontainers.
// Run with: go test -tags integration ./internal/repository/... -v
//
// These exercise the invariants that only the database can enforce:
// the partial unique index (one open caja per sede), the conditional
// UPDATE inside CommitCierre, and the raw SQL aggregations.

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"portalpos/internal/infra"
	"portalpos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:15-alpine",
		tcPostgres.WithDatabase("portalpos_test"),
		tcPostgres.WithUsername("portalpos"),
		tcPostgres.WithPassword("portalpos"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := infra.NewDatabase(dsn)
	require.NoError(t, err)
	return db
}

func abrirCaja(t *testing.T, repo CajaRepository, sedeID string) *model.Caja {
	t.Helper()
	caja := &model.Caja{
		SedeID:        sedeID,
		AbiertaPor:    uuid.New(),
		MontoApertura: decimal.RequireFromString("100.00"),
		Estado:        model.CajaAbierta,
		OpenedAt:      time.Now(),
	}
	require.NoError(t, repo.CreateCaja(context.Background(), caja))
	return caja
}

func TestCajaRepositoryIntegration(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := NewCajaRepository(db)
	cierres := NewCierreRepository(db)

	t.Run("una sola caja abierta por sede", func(t *testing.T) {
		abrirCaja(t, repo, "sede-unica")

		segunda := &model.Caja{
			SedeID:        "sede-unica",
			AbiertaPor:    uuid.New(),
			MontoApertura: decimal.Zero,
			Estado:        model.CajaAbierta,
			OpenedAt:      time.Now(),
		}
		err := repo.CreateCaja(ctx, segunda)
		assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	})

	t.Run("sumas del ledger excluyen ajustes", func(t *testing.T) {
		caja := abrirCaja(t, repo, "sede-sumas")
		for _, m := range []struct {
			tipo, monto string
		}{
			{model.MovimientoIngreso, "50.00"},
			{model.MovimientoEgreso, "20.00"},
			{model.MovimientoAjuste, "999.00"},
		} {
			require.NoError(t, repo.CreateMovimiento(ctx, &model.MovimientoCaja{
				CajaID:            caja.ID,
				SedeID:            caja.SedeID,
				Tipo:              m.tipo,
				Monto:             decimal.RequireFromString(m.monto),
				Motivo:            "prueba",
				ResponsableNombre: "Tester",
				CreadoPor:         uuid.New(),
			}))
		}

		sums, err := repo.SumMovimientosPorTipo(ctx, caja.ID)
		require.NoError(t, err)
		assert.Equal(t, "50", sums.Ingresos.String())
		assert.Equal(t, "20", sums.Egresos.String())
	})

	t.Run("commit de cierre es atómico y único", func(t *testing.T) {
		caja := abrirCaja(t, repo, "sede-cierre")

		cierre := &model.CierreCaja{
			CajaID:        caja.ID,
			SedeID:        caja.SedeID,
			FechaCierre:   time.Now().Format("2006-01-02"),
			MontoApertura: caja.MontoApertura,
			EsperadoFinal: decimal.RequireFromString("100.00"),
			RealFinal:     decimal.RequireFromString("100.00"),
			Diferencia:    decimal.Zero,
			Clasificacion: model.CierreCuadrado,
			CerradaPor:    uuid.New(),
		}
		require.NoError(t, repo.CommitCierre(ctx, cierre, nil))

		actualizada, err := repo.FindCajaByID(ctx, caja.ID)
		require.NoError(t, err)
		assert.Equal(t, model.CajaCerrada, actualizada.Estado)
		require.NotNil(t, actualizada.ClosedAt)

		// Un segundo commit pierde la condición estado='abierta'.
		otro := *cierre
		otro.ID = uuid.Nil
		err = repo.CommitCierre(ctx, &otro, nil)
		assert.ErrorIs(t, err, ErrCierreConflicto)

		guardado, err := cierres.FindByCajaID(ctx, caja.ID)
		require.NoError(t, err)
		assert.Equal(t, cierre.ID, guardado.ID)
	})

	t.Run("doble cierre concurrente deja exactamente un ganador", func(t *testing.T) {
		caja := abrirCaja(t, repo, "sede-carrera")

		construir := func() *model.CierreCaja {
			return &model.CierreCaja{
				CajaID:        caja.ID,
				SedeID:        caja.SedeID,
				FechaCierre:   time.Now().Format("2006-01-02"),
				MontoApertura: caja.MontoApertura,
				EsperadoFinal: decimal.RequireFromString("100.00"),
				RealFinal:     decimal.RequireFromString("100.00"),
				Diferencia:    decimal.Zero,
				Clasificacion: model.CierreCuadrado,
				CerradaPor:    uuid.New(),
			}
		}

		const intentos = 8
		var wg sync.WaitGroup
		resultados := make([]error, intentos)
		for i := 0; i < intentos; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				resultados[i] = repo.CommitCierre(ctx, construir(), nil)
			}(i)
		}
		wg.Wait()

		exitos := 0
		for _, err := range resultados {
			if err == nil {
				exitos++
			} else {
				assert.True(t, errors.Is(err, ErrCierreConflicto) || errors.Is(err, gorm.ErrDuplicatedKey))
			}
		}
		assert.Equal(t, 1, exitos)
	})

	t.Run("el ajuste se persiste junto con el cierre", func(t *testing.T) {
		caja := abrirCaja(t, repo, "sede-ajuste")

		cierre := &model.CierreCaja{
			CajaID:        caja.ID,
			SedeID:        caja.SedeID,
			FechaCierre:   time.Now().Format("2006-01-02"),
			MontoApertura: caja.MontoApertura,
			EsperadoFinal: decimal.RequireFromString("100.00"),
			RealFinal:     decimal.RequireFromString("80.00"),
			Diferencia:    decimal.RequireFromString("-20.00"),
			Clasificacion: model.CierreFaltante,
			CerradaPor:    uuid.New(),
		}
		ajuste := &model.MovimientoCaja{
			CajaID:            caja.ID,
			SedeID:            caja.SedeID,
			Tipo:              model.MovimientoAjuste,
			Monto:             decimal.RequireFromString("20.00"),
			Motivo:            "Ajuste de cierre (faltante): prueba",
			ResponsableNombre: "Cierre de caja",
			CreadoPor:         cierre.CerradaPor,
			RequiereFirma:     true,
		}
		require.NoError(t, repo.CommitCierre(ctx, cierre, ajuste))

		movs, err := repo.ListMovimientos(ctx, caja.ID)
		require.NoError(t, err)
		require.Len(t, movs, 1)
		assert.Equal(t, model.MovimientoAjuste, movs[0].Tipo)
	})
}

func TestVentasRepositoryIntegration(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := NewVentasRepository(db)

	fecha := "2026-08-28"
	seedVenta := func(metodo, monto, efectivo, tarjeta, yape string) {
		require.NoError(t, db.Exec(`
			INSERT INTO ventas_kiosco (sede_id, fecha, metodo_pago, monto, monto_efectivo, monto_tarjeta, monto_yape)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			"sede-ventas", fecha, metodo, monto, efectivo, tarjeta, yape).Error)
	}

	seedVenta("efectivo", "100.00", "0", "0", "0")
	seedVenta("tarjeta", "40.00", "0", "0", "0")
	seedVenta("mixto", "60.00", "25.00", "20.00", "15.00")
	require.NoError(t, db.Exec(`
		INSERT INTO pedidos_almuerzo (sede_id, fecha, metodo_pago, monto)
		VALUES ('sede-ventas', ?, 'efectivo', 12.50), ('sede-ventas', ?, 'credito', 30.00)`,
		fecha, fecha).Error)

	kiosco, err := repo.TotalesKiosco(ctx, "sede-ventas", fecha)
	require.NoError(t, err)
	assert.EqualValues(t, 3, kiosco.Filas)
	assert.Equal(t, "100", kiosco.Efectivo.String())
	assert.Equal(t, "25", kiosco.MixtoEfectivo.String())
	assert.Equal(t, "20", kiosco.MixtoTarjeta.String())
	assert.Equal(t, "15", kiosco.MixtoYape.String())

	almuerzos, err := repo.TotalesAlmuerzos(ctx, "sede-ventas", fecha)
	require.NoError(t, err)
	assert.EqualValues(t, 2, almuerzos.Filas)
	assert.Equal(t, "12.5", almuerzos.Efectivo.String())
	assert.Equal(t, "30", almuerzos.Credito.String())

	// Día sin registros: filas en cero, el servicio lo trata como no disponible.
	vacio, err := repo.TotalesKiosco(ctx, "sede-ventas", "2026-01-01")
	require.NoError(t, err)
	assert.Zero(t, vacio.Filas)
}

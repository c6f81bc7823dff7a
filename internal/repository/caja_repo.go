package repository

import (
	"context"
	"errors"
	"time"

	"portalpos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrCierreConflicto is returned by CommitCierre when the caja was no longer
// "abierta" at commit time — another close won the race.
var ErrCierreConflicto = errors.New("la caja ya no está abierta")

// TotalesMovimientos aggregates the manual ledger by tipo. Ajustes are
// excluded: they explain a cierre, they are not till traffic.
type TotalesMovimientos struct {
	Ingresos decimal.Decimal
	Egresos  decimal.Decimal
}

type CajaRepository interface {
	CreateCaja(ctx context.Context, c *model.Caja) error
	FindCajaByID(ctx context.Context, id uuid.UUID) (*model.Caja, error)
	FindCajaAbiertaPorSede(ctx context.Context, sedeID string) (*model.Caja, error)
	CreateMovimiento(ctx context.Context, m *model.MovimientoCaja) error
	FindMovimientoByID(ctx context.Context, id uuid.UUID) (*model.MovimientoCaja, error)
	MarcarVoucherImpreso(ctx context.Context, id uuid.UUID) error
	ListMovimientos(ctx context.Context, cajaID uuid.UUID) ([]model.MovimientoCaja, error)
	SumMovimientosPorTipo(ctx context.Context, cajaID uuid.UUID) (*TotalesMovimientos, error)
	// CommitCierre atomically flips the caja to "cerrada", inserts the cierre
	// and, when present, the ajuste movimiento. All-or-nothing: a failure in
	// any step leaves the caja open and nothing written.
	CommitCierre(ctx context.Context, cierre *model.CierreCaja, ajuste *model.MovimientoCaja) error
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) CreateCaja(ctx context.Context, c *model.Caja) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cajaRepo) FindCajaByID(ctx context.Context, id uuid.UUID) (*model.Caja, error) {
	var c model.Caja
	err := r.db.WithContext(ctx).Preload("Movimientos").First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cajaRepo) FindCajaAbiertaPorSede(ctx context.Context, sedeID string) (*model.Caja, error) {
	var c model.Caja
	err := r.db.WithContext(ctx).
		Where("sede_id = ? AND estado = ?", sedeID, model.CajaAbierta).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cajaRepo) CreateMovimiento(ctx context.Context, m *model.MovimientoCaja) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *cajaRepo) FindMovimientoByID(ctx context.Context, id uuid.UUID) (*model.MovimientoCaja, error) {
	var m model.MovimientoCaja
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// MarcarVoucherImpreso flips the printing annotation. This is the ONLY update
// the ledger permits — monto, tipo and motivo stay immutable.
func (r *cajaRepo) MarcarVoucherImpreso(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.MovimientoCaja{}).
		Where("id = ?", id).
		Update("voucher_impreso", true).Error
}

func (r *cajaRepo) ListMovimientos(ctx context.Context, cajaID uuid.UUID) ([]model.MovimientoCaja, error) {
	var movs []model.MovimientoCaja
	err := r.db.WithContext(ctx).
		Where("caja_id = ?", cajaID).
		Order("created_at ASC").
		Find(&movs).Error
	return movs, err
}

func (r *cajaRepo) SumMovimientosPorTipo(ctx context.Context, cajaID uuid.UUID) (*TotalesMovimientos, error) {
	var t TotalesMovimientos
	err := r.db.WithContext(ctx).Raw(`
		SELECT
		  COALESCE(SUM(CASE WHEN tipo = 'ingreso' THEN monto END), 0) AS ingresos,
		  COALESCE(SUM(CASE WHEN tipo = 'egreso'  THEN monto END), 0) AS egresos
		FROM movimiento_cajas
		WHERE caja_id = ?`, cajaID).Scan(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *cajaRepo) CommitCierre(ctx context.Context, cierre *model.CierreCaja, ajuste *model.MovimientoCaja) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&model.Caja{}).
			Where("id = ? AND estado = ?", cierre.CajaID, model.CajaAbierta).
			Updates(map[string]interface{}{
				"estado":      model.CajaCerrada,
				"closed_at":   now,
				"cerrada_por": cierre.CerradaPor,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCierreConflicto
		}
		if err := tx.Create(cierre).Error; err != nil {
			return err
		}
		if ajuste != nil {
			if err := tx.Create(ajuste).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

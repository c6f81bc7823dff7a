package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VentasRepository reads the sales tables owned by the kiosco POS and the
// almuerzos ordering system. Strictly read-only from this side: the caja core
// never writes a sale. Filas carries the raw row count so the caller can tell
// "no data at all" apart from a legitimate all-zero day.

type KioscoDia struct {
	Filas         int64
	Efectivo      decimal.Decimal
	Tarjeta       decimal.Decimal
	Yape          decimal.Decimal
	Plin          decimal.Decimal
	Credito       decimal.Decimal
	MixtoEfectivo decimal.Decimal
	MixtoTarjeta  decimal.Decimal
	MixtoYape     decimal.Decimal
}

type AlmuerzosDia struct {
	Filas    int64
	Efectivo decimal.Decimal
	Tarjeta  decimal.Decimal
	Yape     decimal.Decimal
	Credito  decimal.Decimal
}

type VentasRepository interface {
	TotalesKiosco(ctx context.Context, sedeID, fecha string) (*KioscoDia, error)
	TotalesAlmuerzos(ctx context.Context, sedeID, fecha string) (*AlmuerzosDia, error)
}

type ventasRepo struct{ db *gorm.DB }

func NewVentasRepository(db *gorm.DB) VentasRepository { return &ventasRepo{db: db} }

func (r *ventasRepo) TotalesKiosco(ctx context.Context, sedeID, fecha string) (*KioscoDia, error) {
	var row KioscoDia
	err := r.db.WithContext(ctx).Raw(`
		SELECT
		  COUNT(*) AS filas,
		  COALESCE(SUM(CASE WHEN metodo_pago = 'efectivo' THEN monto ELSE 0 END), 0) AS efectivo,
		  COALESCE(SUM(CASE WHEN metodo_pago = 'tarjeta'  THEN monto ELSE 0 END), 0) AS tarjeta,
		  COALESCE(SUM(CASE WHEN metodo_pago = 'yape'     THEN monto ELSE 0 END), 0) AS yape,
		  COALESCE(SUM(CASE WHEN metodo_pago = 'plin'     THEN monto ELSE 0 END), 0) AS plin,
		  COALESCE(SUM(CASE WHEN metodo_pago = 'credito'  THEN monto ELSE 0 END), 0) AS credito,
		  COALESCE(SUM(CASE WHEN metodo_pago = 'mixto' THEN monto_efectivo ELSE 0 END), 0) AS mixto_efectivo,
		  COALESCE(SUM(CASE WHEN metodo_pago = 'mixto' THEN monto_tarjeta  ELSE 0 END), 0) AS mixto_tarjeta,
		  COALESCE(SUM(CASE WHEN metodo_pago = 'mixto' THEN monto_yape     ELSE 0 END), 0) AS mixto_yape
		FROM ventas_kiosco
		WHERE sede_id = ? AND fecha = ? AND estado = 'completada'`,
		sedeID, fecha).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *ventasRepo) TotalesAlmuerzos(ctx context.Context, sedeID, fecha string) (*AlmuerzosDia, error) {
	var row AlmuerzosDia
	err := r.db.WithContext(ctx).Raw(`
		SELECT
		  COUNT(*) AS filas,
		  COALESCE(SUM(CASE WHEN metodo_pago = 'efectivo' THEN monto ELSE 0 END), 0) AS efectivo,
		  COALESCE(SUM(CASE WHEN metodo_pago = 'tarjeta'  THEN monto ELSE 0 END), 0) AS tarjeta,
		  COALESCE(SUM(CASE WHEN metodo_pago = 'yape'     THEN monto ELSE 0 END), 0) AS yape,
		  COALESCE(SUM(CASE WHEN metodo_pago = 'credito'  THEN monto ELSE 0 END), 0) AS credito
		FROM pedidos_almuerzo
		WHERE sede_id = ? AND fecha = ? AND estado = 'pagado'`,
		sedeID, fecha).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

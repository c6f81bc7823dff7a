package infra

import (
	"fmt"

	"portalpos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// for the tables this service owns, then applies the idempotent SQL patches
// GORM cannot express (partial unique indexes).
//
// TranslateError is enabled so unique-constraint violations surface as
// gorm.ErrDuplicatedKey — the service layer relies on that to turn a
// double-open race into a domain error.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := db.AutoMigrate(
		&model.Caja{},
		&model.MovimientoCaja{},
		&model.CierreCaja{},
		&model.SedeConfig{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}

	return db, nil
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot produce.
//
// The partial unique index on cajas is the server-side enforcement of the
// "at most one open caja per sede" rule: two concurrent opens race on the
// INSERT, and the loser gets a unique violation regardless of what either
// client had read beforehand.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"one open caja per sede",
			`CREATE UNIQUE INDEX IF NOT EXISTS uni_cajas_sede_abierta
			   ON cajas (sede_id) WHERE estado = 'abierta'`},

		// The sales tables belong to the kiosco POS and the almuerzos system;
		// this service only reads them. They are created here when absent so
		// that local environments and integration tests work without the
		// owning services deployed.
		{"ventas_kiosco (externally owned, local bootstrap only)",
			`CREATE TABLE IF NOT EXISTS ventas_kiosco (
			   id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			   sede_id        VARCHAR(40)   NOT NULL,
			   fecha          DATE          NOT NULL,
			   metodo_pago    VARCHAR(20)   NOT NULL,
			   monto          DECIMAL(12,2) NOT NULL,
			   monto_efectivo DECIMAL(12,2) NOT NULL DEFAULT 0,
			   monto_tarjeta  DECIMAL(12,2) NOT NULL DEFAULT 0,
			   monto_yape     DECIMAL(12,2) NOT NULL DEFAULT 0,
			   estado         VARCHAR(20)   NOT NULL DEFAULT 'completada',
			   created_at     TIMESTAMPTZ   NOT NULL DEFAULT now()
			 )`},
		{"idx ventas_kiosco sede/fecha",
			`CREATE INDEX IF NOT EXISTS idx_ventas_kiosco_sede_fecha
			   ON ventas_kiosco (sede_id, fecha)`},

		{"pedidos_almuerzo (externally owned, local bootstrap only)",
			`CREATE TABLE IF NOT EXISTS pedidos_almuerzo (
			   id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			   sede_id     VARCHAR(40)   NOT NULL,
			   fecha       DATE          NOT NULL,
			   metodo_pago VARCHAR(20)   NOT NULL,
			   monto       DECIMAL(12,2) NOT NULL,
			   estado      VARCHAR(20)   NOT NULL DEFAULT 'pagado',
			   created_at  TIMESTAMPTZ   NOT NULL DEFAULT now()
			 )`},
		{"idx pedidos_almuerzo sede/fecha",
			`CREATE INDEX IF NOT EXISTS idx_pedidos_almuerzo_sede_fecha
			   ON pedidos_almuerzo (sede_id, fecha)`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}

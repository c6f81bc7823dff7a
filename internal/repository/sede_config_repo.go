package repository

import (
	"context"

	"portalpos/internal/model"

	"gorm.io/gorm"
)

type SedeConfigRepository interface {
	Find(ctx context.Context, sedeID string) (*model.SedeConfig, error)
	Save(ctx context.Context, cfg *model.SedeConfig) error
	// ListAutoCierre returns every sede with the auto-close schedule enabled.
	ListAutoCierre(ctx context.Context) ([]model.SedeConfig, error)
}

type sedeConfigRepo struct{ db *gorm.DB }

func NewSedeConfigRepository(db *gorm.DB) SedeConfigRepository { return &sedeConfigRepo{db: db} }

func (r *sedeConfigRepo) Find(ctx context.Context, sedeID string) (*model.SedeConfig, error) {
	var cfg model.SedeConfig
	err := r.db.WithContext(ctx).First(&cfg, "sede_id = ?", sedeID).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *sedeConfigRepo) Save(ctx context.Context, cfg *model.SedeConfig) error {
	return r.db.WithContext(ctx).Save(cfg).Error
}

func (r *sedeConfigRepo) ListAutoCierre(ctx context.Context) ([]model.SedeConfig, error) {
	var configs []model.SedeConfig
	err := r.db.WithContext(ctx).Where("auto_cierre_activo = ?", true).Find(&configs).Error
	return configs, err
}

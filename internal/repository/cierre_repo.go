package repository

import (
	"context"

	"portalpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CierreRepository interface {
	FindByCajaID(ctx context.Context, cajaID uuid.UUID) (*model.CierreCaja, error)
	// FindUltimoPorSede returns the most recent cierre for a sede — its
	// RealFinal becomes the next day's opening float.
	FindUltimoPorSede(ctx context.Context, sedeID string) (*model.CierreCaja, error)
	List(ctx context.Context, sedeID string, page, limit int) ([]model.CierreCaja, int64, error)
}

type cierreRepo struct{ db *gorm.DB }

func NewCierreRepository(db *gorm.DB) CierreRepository { return &cierreRepo{db: db} }

func (r *cierreRepo) FindByCajaID(ctx context.Context, cajaID uuid.UUID) (*model.CierreCaja, error) {
	var c model.CierreCaja
	err := r.db.WithContext(ctx).Where("caja_id = ?", cajaID).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cierreRepo) FindUltimoPorSede(ctx context.Context, sedeID string) (*model.CierreCaja, error) {
	var c model.CierreCaja
	err := r.db.WithContext(ctx).
		Where("sede_id = ?", sedeID).
		Order("created_at DESC").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cierreRepo) List(ctx context.Context, sedeID string, page, limit int) ([]model.CierreCaja, int64, error) {
	var cierres []model.CierreCaja
	var total int64
	offset := (page - 1) * limit

	q := r.db.WithContext(ctx).Model(&model.CierreCaja{})
	if sedeID != "" {
		q = q.Where("sede_id = ?", sedeID)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&cierres).Error
	return cierres, total, err
}

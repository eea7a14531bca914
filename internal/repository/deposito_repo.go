package repository

import (
	"context"

	"visionallende/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DepositoRepository interface {
	Create(ctx context.Context, d *model.Deposito) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Deposito, error)
	ListByVenta(ctx context.Context, ventaID uuid.UUID) ([]model.Deposito, error)
	Update(ctx context.Context, d *model.Deposito) error
	Delete(ctx context.Context, id uuid.UUID) error
	// SumByVenta is the source of truth for a sale's accumulated deposits.
	SumByVenta(ctx context.Context, ventaID uuid.UUID) (decimal.Decimal, error)
}

type depositoRepo struct{ db *gorm.DB }

func NewDepositoRepository(db *gorm.DB) DepositoRepository { return &depositoRepo{db: db} }

func (r *depositoRepo) Create(ctx context.Context, d *model.Deposito) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *depositoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Deposito, error) {
	var d model.Deposito
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *depositoRepo) ListByVenta(ctx context.Context, ventaID uuid.UUID) ([]model.Deposito, error) {
	var list []model.Deposito
	err := r.db.WithContext(ctx).Where("venta_id = ?", ventaID).
		Order("fecha_deposito ASC, created_at ASC").Find(&list).Error
	return list, err
}

func (r *depositoRepo) Update(ctx context.Context, d *model.Deposito) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *depositoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Deposito{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *depositoRepo) SumByVenta(ctx context.Context, ventaID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).Model(&model.Deposito{}).
		Where("venta_id = ?", ventaID).
		Select("COALESCE(SUM(monto), 0)").
		Scan(&sum).Error
	return sum, err
}

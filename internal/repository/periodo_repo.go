package repository

import (
	"context"
	"time"

	"visionallende/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PeriodoRepository interface {
	Create(ctx context.Context, p *model.PeriodoContable) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PeriodoContable, error)
	// FindByIDForShare takes a shared lock on the period row. Ledger writes
	// hold it so a close-and-roll cannot run underneath them.
	FindByIDForShare(ctx context.Context, id uuid.UUID) (*model.PeriodoContable, error)
	FindActivo(ctx context.Context) (*model.PeriodoContable, error)
	// FindActivoForShare is FindActivo with a shared row lock. After waiting
	// on a concurrent close it sees the row as closed and returns not found.
	FindActivoForShare(ctx context.Context) (*model.PeriodoContable, error)
	// FindActivoForUpdate locks the active period row for the rest of the transaction.
	FindActivoForUpdate(ctx context.Context) (*model.PeriodoContable, error)
	List(ctx context.Context) ([]model.PeriodoContable, error)
	// Cerrar flips activo to false only if the row is still active; it
	// reports false when another caller closed it first.
	Cerrar(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

type periodoRepo struct{ db *gorm.DB }

func NewPeriodoRepository(db *gorm.DB) PeriodoRepository { return &periodoRepo{db: db} }

func (r *periodoRepo) Create(ctx context.Context, p *model.PeriodoContable) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *periodoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PeriodoContable, error) {
	var p model.PeriodoContable
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *periodoRepo) FindByIDForShare(ctx context.Context, id uuid.UUID) (*model.PeriodoContable, error) {
	var p model.PeriodoContable
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "SHARE"}).
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *periodoRepo) FindActivo(ctx context.Context) (*model.PeriodoContable, error) {
	var p model.PeriodoContable
	if err := r.db.WithContext(ctx).Where("activo = true").First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *periodoRepo) FindActivoForShare(ctx context.Context) (*model.PeriodoContable, error) {
	var p model.PeriodoContable
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("activo = true").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *periodoRepo) FindActivoForUpdate(ctx context.Context) (*model.PeriodoContable, error) {
	var p model.PeriodoContable
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("activo = true").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *periodoRepo) List(ctx context.Context) ([]model.PeriodoContable, error) {
	var list []model.PeriodoContable
	err := r.db.WithContext(ctx).Order("fecha_inicio DESC").Find(&list).Error
	return list, err
}

func (r *periodoRepo) Cerrar(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.PeriodoContable{}).
		Where("id = ? AND activo = true", id).
		Updates(map[string]interface{}{"activo": false, "cerrado_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

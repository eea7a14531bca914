package repository

import (
	"context"

	"visionallende/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GraduacionRepository interface {
	Create(ctx context.Context, g *model.Graduacion) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Graduacion, error)
	FindByClienteTipo(ctx context.Context, clienteID uuid.UUID, tipo string) (*model.Graduacion, error)
	ListByCliente(ctx context.Context, clienteID uuid.UUID) ([]model.Graduacion, error)
	Update(ctx context.Context, g *model.Graduacion) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type graduacionRepo struct{ db *gorm.DB }

func NewGraduacionRepository(db *gorm.DB) GraduacionRepository { return &graduacionRepo{db: db} }

func (r *graduacionRepo) Create(ctx context.Context, g *model.Graduacion) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *graduacionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Graduacion, error) {
	var g model.Graduacion
	if err := r.db.WithContext(ctx).First(&g, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *graduacionRepo) FindByClienteTipo(ctx context.Context, clienteID uuid.UUID, tipo string) (*model.Graduacion, error) {
	var g model.Graduacion
	err := r.db.WithContext(ctx).Where("cliente_id = ? AND tipo = ?", clienteID, tipo).First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *graduacionRepo) ListByCliente(ctx context.Context, clienteID uuid.UUID) ([]model.Graduacion, error) {
	var list []model.Graduacion
	err := r.db.WithContext(ctx).Where("cliente_id = ?", clienteID).Order("tipo DESC").Find(&list).Error
	return list, err
}

func (r *graduacionRepo) Update(ctx context.Context, g *model.Graduacion) error {
	return r.db.WithContext(ctx).Save(g).Error
}

func (r *graduacionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Graduacion{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

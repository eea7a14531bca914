package repository

import (
	"context"
	"time"

	"visionallende/internal/dto"
	"visionallende/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReporteScope selects the sales covered by a report: every sale of a period,
// or every sale dated within [Desde, Hasta].
type ReporteScope struct {
	PeriodoID *uuid.UUID
	Desde     time.Time
	Hasta     time.Time
}

type VentaRepository interface {
	Create(ctx context.Context, v *model.Venta) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
	// FindByIDForUpdate locks the sale row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Venta, error)
	NextNumeroVenta(ctx context.Context) (int, error)
	List(ctx context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error)
	Update(ctx context.Context, v *model.Venta) error
	UpdateSaldos(ctx context.Context, id uuid.UUID, totalDepositado, saldo decimal.Decimal) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByCliente(ctx context.Context, clienteID uuid.UUID) (int64, error)
	// FindMigrada returns the sale that carried origenID's balance into a
	// later period, or gorm.ErrRecordNotFound when it was never migrated.
	FindMigrada(ctx context.Context, origenID uuid.UUID) (*model.Venta, error)
	// ListConSaldo returns the non-cancelled sales of a period that still owe
	// money, locked FOR UPDATE.
	ListConSaldo(ctx context.Context, periodoID uuid.UUID) ([]model.Venta, error)
	ListParaReporte(ctx context.Context, scope ReporteScope) ([]model.Venta, error)
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) Create(ctx context.Context, v *model.Venta) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(v).Error
}

func (r *ventaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).
		Preload("Cliente").
		Preload("Periodo").
		Preload("Depositos", func(db *gorm.DB) *gorm.DB { return db.Order("fecha_deposito ASC, created_at ASC") }).
		First(&v, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *ventaRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&v, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *ventaRepo) NextNumeroVenta(ctx context.Context) (int, error) {
	var num int
	err := r.db.WithContext(ctx).Raw("SELECT nextval('ventas_numero_venta_seq')").Scan(&num).Error
	return num, err
}

func (r *ventaRepo) List(ctx context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error) {
	var ventas []model.Venta
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Venta{})
	if filter.PeriodoID != "" {
		q = q.Where("periodo_id = ?", filter.PeriodoID)
	}
	if filter.ClienteID != "" {
		q = q.Where("cliente_id = ?", filter.ClienteID)
	}
	switch filter.Estado {
	case "":
	case "con_saldo":
		q = q.Where("saldo_restante > 0 AND estado <> ?", model.VentaCancelada)
	default:
		q = q.Where("estado = ?", filter.Estado)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Cliente").
		Order("numero_venta DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&ventas).Error
	return ventas, total, err
}

func (r *ventaRepo) Update(ctx context.Context, v *model.Venta) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(v).Error
}

func (r *ventaRepo) UpdateSaldos(ctx context.Context, id uuid.UUID, totalDepositado, saldo decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&model.Venta{}).Where("id = ?", id).Updates(map[string]interface{}{
		"total_depositado": totalDepositado,
		"saldo_restante":   saldo,
	}).Error
}

func (r *ventaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Venta{}, "id = ?", id).Error
}

func (r *ventaRepo) CountByCliente(ctx context.Context, clienteID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Venta{}).Where("cliente_id = ?", clienteID).Count(&n).Error
	return n, err
}

func (r *ventaRepo) FindMigrada(ctx context.Context, origenID uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	if err := r.db.WithContext(ctx).First(&v, "venta_origen_id = ?", origenID).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *ventaRepo) ListConSaldo(ctx context.Context, periodoID uuid.UUID) ([]model.Venta, error) {
	var ventas []model.Venta
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("periodo_id = ? AND saldo_restante > 0 AND estado <> ?", periodoID, model.VentaCancelada).
		Order("numero_venta ASC").
		Find(&ventas).Error
	return ventas, err
}

func (r *ventaRepo) ListParaReporte(ctx context.Context, scope ReporteScope) ([]model.Venta, error) {
	var ventas []model.Venta
	q := r.db.WithContext(ctx).Model(&model.Venta{})
	if scope.PeriodoID != nil {
		q = q.Where("periodo_id = ?", *scope.PeriodoID)
	} else {
		q = q.Where("fecha_venta BETWEEN ? AND ?", scope.Desde, scope.Hasta)
	}
	err := q.Preload("Cliente").
		Preload("Depositos", func(db *gorm.DB) *gorm.DB { return db.Order("fecha_deposito ASC") }).
		Order("fecha_venta ASC, numero_venta ASC").
		Find(&ventas).Error
	return ventas, err
}

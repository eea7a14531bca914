package repository

import (
	"context"

	"gorm.io/gorm"
)

// Tx is the transaction-scoped handle handed to a unit of work. It only
// exposes the repositories that multi-step ledger and period operations touch;
// every repository it returns is bound to the same database transaction.
type Tx interface {
	Ventas() VentaRepository
	Depositos() DepositoRepository
	Periodos() PeriodoRepository
}

// TxManager runs fn inside a single transaction. Any error returned by fn
// (or a panic) rolls back every write fn made.
type TxManager interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

type gormTxManager struct{ db *gorm.DB }

func NewTxManager(db *gorm.DB) TxManager { return &gormTxManager{db: db} }

func (m *gormTxManager) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return m.db.WithContext(ctx).Transaction(func(g *gorm.DB) error {
		return fn(&gormTx{db: g})
	})
}

type gormTx struct{ db *gorm.DB }

func (t *gormTx) Ventas() VentaRepository       { return NewVentaRepository(t.db) }
func (t *gormTx) Depositos() DepositoRepository { return NewDepositoRepository(t.db) }
func (t *gormTx) Periodos() PeriodoRepository   { return NewPeriodoRepository(t.db) }

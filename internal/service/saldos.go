package service

import (
	"context"
	"fmt"

	"visionallende/internal/model"
	"visionallende/internal/money"
	"visionallende/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// calcularSaldos returns the accumulated deposits and the remaining balance of
// a sale. The balance is not floored at zero.
func calcularSaldos(costoTotal decimal.Decimal, depositos []model.Deposito) (depositado, saldo decimal.Decimal) {
	depositado = decimal.Zero
	for _, d := range depositos {
		depositado = money.Add(depositado, d.Monto)
	}
	return depositado, money.Subtract(costoTotal, depositado)
}

// recalcularSaldos rebuilds total_depositado and saldo_restante of a sale from
// its deposit rows. It must run in the same transaction as the write that
// changed the deposits.
func recalcularSaldos(ctx context.Context, tx repository.Tx, ventaID uuid.UUID) (*model.Venta, error) {
	venta, err := tx.Ventas().FindByIDForUpdate(ctx, ventaID)
	if err != nil {
		return nil, traducirRepoErr(err, "recalcular saldos", "Venta no encontrada")
	}
	depositos, err := tx.Depositos().ListByVenta(ctx, ventaID)
	if err != nil {
		return nil, traducirRepoErr(err, "recalcular saldos", "Venta no encontrada")
	}

	depositado, saldo := calcularSaldos(venta.CostoTotal, depositos)
	if err := tx.Ventas().UpdateSaldos(ctx, ventaID, depositado, saldo); err != nil {
		return nil, traducirRepoErr(err, "recalcular saldos", "Venta no encontrada")
	}
	venta.TotalDepositado = depositado
	venta.SaldoRestante = saldo
	return venta, nil
}

// saldoDisponible is what a sale can still receive, computed from the deposit
// rows rather than the cached column. excluir is the amount of a deposit being
// edited, which no longer counts against the balance.
func saldoDisponible(ctx context.Context, tx repository.Tx, venta *model.Venta, excluir decimal.Decimal) (decimal.Decimal, error) {
	suma, err := tx.Depositos().SumByVenta(ctx, venta.ID)
	if err != nil {
		return decimal.Zero, traducirRepoErr(err, "saldo disponible", "Venta no encontrada")
	}
	return money.Subtract(venta.CostoTotal, money.Subtract(suma, excluir)), nil
}

// bloquearVenta takes a shared lock on the sale's period and then locks the
// sale row, the same order CerrarYAbrir uses. periodo_id never changes, so
// reading it before the locks is safe.
func bloquearVenta(ctx context.Context, tx repository.Tx, ventaID uuid.UUID, op string) (*model.Venta, *model.PeriodoContable, error) {
	v, err := tx.Ventas().FindByID(ctx, ventaID)
	if err != nil {
		return nil, nil, traducirRepoErr(err, op, "Venta no encontrada")
	}
	periodo, err := tx.Periodos().FindByIDForShare(ctx, v.PeriodoID)
	if err != nil {
		return nil, nil, traducirRepoErr(err, op, "Período no encontrado")
	}
	venta, err := tx.Ventas().FindByIDForUpdate(ctx, ventaID)
	if err != nil {
		return nil, nil, traducirRepoErr(err, op, "Venta no encontrada")
	}
	return venta, periodo, nil
}

// bloquearVentaAbierta is bloquearVenta for writes that touch a sale's money.
// Sales of a closed period are read-only: their pending balance already lives
// on in the migrated sale.
func bloquearVentaAbierta(ctx context.Context, tx repository.Tx, ventaID uuid.UUID, op string) (*model.Venta, error) {
	venta, periodo, err := bloquearVenta(ctx, tx, ventaID, op)
	if err != nil {
		return nil, err
	}
	if !periodo.Activo {
		return nil, errPeriodoCerrado(ctx, tx, venta, periodo)
	}
	return venta, nil
}

func errPeriodoCerrado(ctx context.Context, tx repository.Tx, venta *model.Venta, periodo *model.PeriodoContable) error {
	msg := fmt.Sprintf("La venta #%d pertenece al período cerrado %s y no puede modificarse", venta.NumeroVenta, periodo.Nombre)
	migrada, err := tx.Ventas().FindMigrada(ctx, venta.ID)
	switch {
	case err == nil:
		msg += fmt.Sprintf("; su saldo continúa en la venta #%d", migrada.NumeroVenta)
	case !repository.IsNotFound(err):
		return fmt.Errorf("buscar venta migrada: %w", err)
	}
	return ErrConflicto(msg)
}

package service

import (
	"context"
	"fmt"
	"time"

	"visionallende/internal/dto"
	"visionallende/internal/model"
	"visionallende/internal/money"
	"visionallende/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DepositoService manages partial payments. Every mutation locks the sale row
// and ends with a full recomputation of its totals in the same transaction.
type DepositoService interface {
	Agregar(ctx context.Context, ventaID uuid.UUID, req dto.DepositoRequest) (*dto.VentaResponse, error)
	Editar(ctx context.Context, depositoID uuid.UUID, req dto.DepositoRequest) (*dto.VentaResponse, error)
	Eliminar(ctx context.Context, depositoID uuid.UUID) (*dto.VentaResponse, error)
	Listar(ctx context.Context, ventaID uuid.UUID) ([]dto.DepositoResponse, error)
}

type depositoService struct {
	tx        repository.TxManager
	ventas    VentaService
	depositos repository.DepositoRepository
	now       func() time.Time
}

func NewDepositoService(tx repository.TxManager, ventas VentaService, depositos repository.DepositoRepository, now func() time.Time) DepositoService {
	if now == nil {
		now = time.Now
	}
	return &depositoService{tx: tx, ventas: ventas, depositos: depositos, now: now}
}

func (s *depositoService) Agregar(ctx context.Context, ventaID uuid.UUID, req dto.DepositoRequest) (*dto.VentaResponse, error) {
	monto, fecha, err := s.validar(req)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx repository.Tx) error {
		venta, err := bloquearVentaAbierta(ctx, tx, ventaID, "agregar deposito")
		if err != nil {
			return err
		}
		if venta.Estado == model.VentaCancelada {
			return ErrConflicto("La venta está cancelada y no admite depósitos")
		}

		disponible, err := saldoDisponible(ctx, tx, venta, decimal.Zero)
		if err != nil {
			return err
		}
		if monto.GreaterThan(disponible) {
			return errExcedeSaldo(disponible)
		}

		dep := &model.Deposito{
			VentaID:       ventaID,
			Monto:         monto,
			MetodoPago:    req.MetodoPago,
			FechaDeposito: fecha,
			Notas:         req.Notas,
		}
		if err := tx.Depositos().Create(ctx, dep); err != nil {
			return fmt.Errorf("crear deposito: %w", err)
		}
		_, err = recalcularSaldos(ctx, tx, ventaID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("venta_id", ventaID.String()).Str("monto", money.Format(monto)).Msg("deposito registrado")
	return s.ventas.Obtener(ctx, ventaID)
}

// Editar validates the new amount against the balance the sale would have
// without this deposit's previous amount.
func (s *depositoService) Editar(ctx context.Context, depositoID uuid.UUID, req dto.DepositoRequest) (*dto.VentaResponse, error) {
	monto, fecha, err := s.validar(req)
	if err != nil {
		return nil, err
	}

	var ventaID uuid.UUID
	err = s.tx.WithTx(ctx, func(tx repository.Tx) error {
		dep, err := tx.Depositos().FindByID(ctx, depositoID)
		if err != nil {
			return traducirRepoErr(err, "editar deposito", "Depósito no encontrado")
		}
		ventaID = dep.VentaID

		venta, err := bloquearVentaAbierta(ctx, tx, dep.VentaID, "editar deposito")
		if err != nil {
			return err
		}
		// re-read under the sale lock
		if dep, err = tx.Depositos().FindByID(ctx, depositoID); err != nil {
			return traducirRepoErr(err, "editar deposito", "Depósito no encontrado")
		}
		if venta.Estado == model.VentaCancelada {
			return ErrConflicto("La venta está cancelada y no admite cambios en sus depósitos")
		}

		disponible, err := saldoDisponible(ctx, tx, venta, dep.Monto)
		if err != nil {
			return err
		}
		if monto.GreaterThan(disponible) {
			return errExcedeSaldo(disponible)
		}

		dep.Monto = monto
		dep.MetodoPago = req.MetodoPago
		dep.FechaDeposito = fecha
		dep.Notas = req.Notas
		if err := tx.Depositos().Update(ctx, dep); err != nil {
			return fmt.Errorf("actualizar deposito: %w", err)
		}
		_, err = recalcularSaldos(ctx, tx, dep.VentaID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.ventas.Obtener(ctx, ventaID)
}

func (s *depositoService) Eliminar(ctx context.Context, depositoID uuid.UUID) (*dto.VentaResponse, error) {
	var ventaID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx repository.Tx) error {
		dep, err := tx.Depositos().FindByID(ctx, depositoID)
		if err != nil {
			return traducirRepoErr(err, "eliminar deposito", "Depósito no encontrado")
		}
		ventaID = dep.VentaID

		if _, err := bloquearVentaAbierta(ctx, tx, dep.VentaID, "eliminar deposito"); err != nil {
			return err
		}
		if err := tx.Depositos().Delete(ctx, depositoID); err != nil {
			return traducirRepoErr(err, "eliminar deposito", "Depósito no encontrado")
		}
		_, err = recalcularSaldos(ctx, tx, dep.VentaID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.ventas.Obtener(ctx, ventaID)
}

func (s *depositoService) Listar(ctx context.Context, ventaID uuid.UUID) ([]dto.DepositoResponse, error) {
	list, err := s.depositos.ListByVenta(ctx, ventaID)
	if err != nil {
		return nil, fmt.Errorf("listar depositos: %w", err)
	}
	resp := make([]dto.DepositoResponse, len(list))
	for i := range list {
		resp[i] = depositoToResponse(&list[i])
	}
	return resp, nil
}

func (s *depositoService) validar(req dto.DepositoRequest) (decimal.Decimal, time.Time, error) {
	monto := money.Parse(req.Monto.Decimal)
	if !monto.IsPositive() {
		return decimal.Zero, time.Time{}, ErrCampo("monto", "El monto debe ser mayor a cero")
	}
	fecha, err := parseFecha(req.FechaDeposito, s.now())
	if err != nil {
		return decimal.Zero, time.Time{}, ErrCampo("fecha_deposito", "fecha_deposito inválida")
	}
	return monto, fecha, nil
}

func errExcedeSaldo(disponible decimal.Decimal) *Error {
	return ErrCampo("monto", fmt.Sprintf("El monto excede el saldo restante (%s)", money.Format(disponible)))
}

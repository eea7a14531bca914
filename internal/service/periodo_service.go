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

const fechaISO = "2006-01-02"

type PeriodoService interface {
	ObtenerActivo(ctx context.Context) (*dto.PeriodoActivoResponse, error)
	CerrarYAbrir(ctx context.Context) (*dto.CierrePeriodoResponse, error)
	Listar(ctx context.Context) ([]dto.PeriodoResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.PeriodoResponse, error)
	// PuedeCerrar reports whether today falls inside the business close window.
	PuedeCerrar() bool
}

type periodoService struct {
	tx    repository.TxManager
	repo  repository.PeriodoRepository
	regla ReglaCierre
	now   func() time.Time
}

func NewPeriodoService(tx repository.TxManager, repo repository.PeriodoRepository, regla ReglaCierre, now func() time.Time) PeriodoService {
	if now == nil {
		now = time.Now
	}
	return &periodoService{tx: tx, repo: repo, regla: regla, now: now}
}

// ── ObtenerActivo ────────────────────────────────────────────────────────────

func (s *periodoService) ObtenerActivo(ctx context.Context) (*dto.PeriodoActivoResponse, error) {
	var periodo *model.PeriodoContable
	err := s.tx.WithTx(ctx, func(tx repository.Tx) error {
		p, err := resolverPeriodoActivo(ctx, tx.Periodos(), s.now())
		periodo = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dto.PeriodoActivoResponse{
		Periodo:     periodoToResponse(periodo),
		PuedeCerrar: s.PuedeCerrar(),
		DiaDesde:    s.regla.DiaDesde,
		DiaHasta:    s.regla.DiaHasta,
	}, nil
}

// resolverPeriodoActivo returns the active period share-locked for the rest of
// the transaction, creating the one that contains hoy when none exists. A
// close that commits while we wait leaves the locked row inactive, so the
// read is retried once to pick up the period it opened.
func resolverPeriodoActivo(ctx context.Context, repo repository.PeriodoRepository, hoy time.Time) (*model.PeriodoContable, error) {
	for intento := 0; intento < 2; intento++ {
		p, err := repo.FindActivoForShare(ctx)
		if err == nil && p.Activo {
			return p, nil
		}
		if err != nil && !repository.IsNotFound(err) {
			return nil, fmt.Errorf("buscar periodo activo: %w", err)
		}
	}

	v := VentanaPara(hoy)
	p := &model.PeriodoContable{
		Nombre:      v.Nombre(),
		FechaInicio: v.Inicio,
		FechaFin:    v.Fin,
		Activo:      true,
	}
	if err := repo.Create(ctx, p); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrConflicto("Otro usuario abrió el período activo, reintente la operación")
		}
		return nil, fmt.Errorf("crear periodo activo: %w", err)
	}
	log.Info().Str("periodo", p.Nombre).Msg("periodo contable creado automaticamente")
	return p, nil
}

// ── CerrarYAbrir ─────────────────────────────────────────────────────────────
// One transaction:
//   1. Lock the active period row (FOR UPDATE)
//   2. Select and lock its sales with saldo > 0 that are not cancelled
//   3. Flip activo with a compare-and-swap, then insert the next period
//   4. Create one pending-balance sale per selected sale in the new period
// Original sales are never modified.

func (s *periodoService) CerrarYAbrir(ctx context.Context) (*dto.CierrePeriodoResponse, error) {
	hoy := s.now()
	var (
		cerrado  *model.PeriodoContable
		nuevo    *model.PeriodoContable
		migradas []dto.VentaMigradaResponse
		total    = decimal.Zero
	)

	err := s.tx.WithTx(ctx, func(tx repository.Tx) error {
		actual, err := tx.Periodos().FindActivoForUpdate(ctx)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrConflicto("No hay un período activo para cerrar")
			}
			return fmt.Errorf("bloquear periodo activo: %w", err)
		}

		pendientes, err := tx.Ventas().ListConSaldo(ctx, actual.ID)
		if err != nil {
			return fmt.Errorf("ventas con saldo: %w", err)
		}

		sig := ventanaDesde(actual.FechaInicio).Siguiente()

		// The partial unique index on activo requires the old row to be
		// flipped before the new one is inserted.
		ok, err := tx.Periodos().Cerrar(ctx, actual.ID, hoy)
		if err != nil {
			return fmt.Errorf("cerrar periodo: %w", err)
		}
		if !ok {
			return ErrConflicto("El período ya fue cerrado por otra operación")
		}
		actual.Activo = false
		actual.CerradoAt = &hoy

		nuevo = &model.PeriodoContable{
			Nombre:      sig.Nombre(),
			FechaInicio: sig.Inicio,
			FechaFin:    sig.Fin,
			Activo:      true,
		}
		if err := tx.Periodos().Create(ctx, nuevo); err != nil {
			return traducirRepoErr(err, "crear periodo", "Período no encontrado")
		}

		fecha := hoy
		if fecha.Before(sig.Inicio) {
			fecha = sig.Inicio
		}
		for i := range pendientes {
			origen := &pendientes[i]
			numero, err := tx.Ventas().NextNumeroVenta(ctx)
			if err != nil {
				return fmt.Errorf("numero de venta: %w", err)
			}
			v := ventaMigrada(origen, actual, nuevo.ID, numero, fecha)
			if err := tx.Ventas().Create(ctx, v); err != nil {
				return fmt.Errorf("migrar venta #%d: %w", origen.NumeroVenta, err)
			}
			total = money.Add(total, v.CostoTotal)
			migradas = append(migradas, dto.VentaMigradaResponse{
				VentaOrigenID: origen.ID.String(),
				NumeroOrigen:  origen.NumeroVenta,
				VentaNuevaID:  v.ID.String(),
				NumeroNueva:   v.NumeroVenta,
				Monto:         v.CostoTotal,
			})
		}
		cerrado = actual
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("cerrado", cerrado.Nombre).
		Str("nuevo", nuevo.Nombre).
		Int("ventas_migradas", len(migradas)).
		Str("total_migrado", money.Format(total)).
		Msg("periodo contable cerrado")

	if migradas == nil {
		migradas = []dto.VentaMigradaResponse{}
	}
	return &dto.CierrePeriodoResponse{
		PeriodoCerrado: periodoToResponse(cerrado),
		PeriodoNuevo:   periodoToResponse(nuevo),
		VentasMigradas: migradas,
		TotalMigrado:   total,
	}, nil
}

// ventaMigrada builds the sale that carries origen's pending balance into the
// new period.
func ventaMigrada(origen *model.Venta, periodo *model.PeriodoContable, nuevoPeriodoID uuid.UUID, numero int, fecha time.Time) *model.Venta {
	estado := origen.Estado
	fechaLab := origen.FechaLlegadaLab
	if estado == model.VentaEntregada {
		estado = model.VentaPendiente
		fechaLab = nil
	}

	notas := fmt.Sprintf("Saldo pendiente de la venta #%d del período %s", origen.NumeroVenta, periodo.Nombre)
	if origen.Notas != nil && *origen.Notas != "" {
		notas += "\n" + *origen.Notas
	}
	origenID := origen.ID

	return &model.Venta{
		NumeroVenta:     numero,
		ClienteID:       origen.ClienteID,
		PeriodoID:       nuevoPeriodoID,
		PrecioArmazon:   decimal.Zero,
		PrecioMicas:     decimal.Zero,
		CostoTotal:      origen.SaldoRestante,
		TotalDepositado: decimal.Zero,
		SaldoRestante:   origen.SaldoRestante,
		Estado:          estado,
		ArmazonMarca:    origen.ArmazonMarca,
		ArmazonModelo:   origen.ArmazonModelo,
		TipoMica:        origen.TipoMica,
		Laboratorio:     origen.Laboratorio,
		ImagenReceta:    origen.ImagenReceta,
		FechaVenta:      fecha,
		FechaLlegadaLab: fechaLab,
		Notas:           &notas,
		VentaOrigenID:   &origenID,
	}
}

// ── Consultas ────────────────────────────────────────────────────────────────

func (s *periodoService) Listar(ctx context.Context) ([]dto.PeriodoResponse, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar periodos: %w", err)
	}
	resp := make([]dto.PeriodoResponse, len(list))
	for i := range list {
		resp[i] = periodoToResponse(&list[i])
	}
	return resp, nil
}

func (s *periodoService) Obtener(ctx context.Context, id uuid.UUID) (*dto.PeriodoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, traducirRepoErr(err, "obtener periodo", "Período no encontrado")
	}
	resp := periodoToResponse(p)
	return &resp, nil
}

func (s *periodoService) PuedeCerrar() bool {
	return s.regla.Permite(s.now())
}

func periodoToResponse(p *model.PeriodoContable) dto.PeriodoResponse {
	resp := dto.PeriodoResponse{
		ID:          p.ID.String(),
		Nombre:      p.Nombre,
		FechaInicio: p.FechaInicio.Format(fechaISO),
		FechaFin:    p.FechaFin.Format(fechaISO),
		Activo:      p.Activo,
	}
	if p.CerradoAt != nil {
		s := p.CerradoAt.Format(time.RFC3339)
		resp.CerradoAt = &s
	}
	return resp
}

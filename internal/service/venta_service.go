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

const notaDepositoInicial = "Depósito inicial"

type VentaService interface {
	Crear(ctx context.Context, req dto.CrearVentaRequest) (*dto.VentaResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error)
	Listar(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarVentaRequest) (*dto.VentaResponse, error)
	CambiarEstado(ctx context.Context, id uuid.UUID, req dto.CambiarEstadoRequest) (*dto.VentaResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
}

type ventaService struct {
	tx       repository.TxManager
	ventas   repository.VentaRepository
	clientes repository.ClienteRepository
	periodos repository.PeriodoRepository
	now      func() time.Time
}

func NewVentaService(
	tx repository.TxManager,
	ventas repository.VentaRepository,
	clientes repository.ClienteRepository,
	periodos repository.PeriodoRepository,
	now func() time.Time,
) VentaService {
	if now == nil {
		now = time.Now
	}
	return &ventaService{tx: tx, ventas: ventas, clientes: clientes, periodos: periodos, now: now}
}

// ── Crear ────────────────────────────────────────────────────────────────────
// costo_total = armazon + micas. The sale, its number, the active period (if
// it has to be synthesized) and the initial deposit are written in one
// transaction.

func (s *ventaService) Crear(ctx context.Context, req dto.CrearVentaRequest) (*dto.VentaResponse, error) {
	clienteID, err := uuid.Parse(req.ClienteID)
	if err != nil {
		return nil, ErrCampo("cliente_id", "cliente_id inválido")
	}

	costo := money.Add(req.PrecioArmazon.Decimal, req.PrecioMicas.Decimal)
	if !costo.IsPositive() {
		return nil, ErrCampo("precio_armazon", "El costo total debe ser mayor a cero")
	}
	inicial := money.Parse(req.DepositoInicial.Decimal)
	if inicial.IsNegative() {
		return nil, ErrCampo("deposito_inicial", "El depósito inicial no puede ser negativo")
	}
	if inicial.GreaterThan(costo) {
		return nil, ErrCampo("deposito_inicial", "El depósito inicial no puede superar el costo total")
	}

	hoy := s.now()
	fechaVenta, err := parseFecha(req.FechaVenta, hoy)
	if err != nil {
		return nil, ErrCampo("fecha_venta", "fecha_venta inválida")
	}
	metodo := req.MetodoPago
	if metodo == "" {
		metodo = model.MetodoEfectivo
	}

	if _, err := s.clientes.FindByID(ctx, clienteID); err != nil {
		return nil, traducirRepoErr(err, "buscar cliente", "Cliente no encontrado")
	}

	var ventaID uuid.UUID
	err = s.tx.WithTx(ctx, func(tx repository.Tx) error {
		periodo, err := resolverPeriodoActivo(ctx, tx.Periodos(), hoy)
		if err != nil {
			return err
		}
		numero, err := tx.Ventas().NextNumeroVenta(ctx)
		if err != nil {
			return fmt.Errorf("numero de venta: %w", err)
		}

		venta := &model.Venta{
			NumeroVenta:     numero,
			ClienteID:       clienteID,
			PeriodoID:       periodo.ID,
			PrecioArmazon:   money.Parse(req.PrecioArmazon.Decimal),
			PrecioMicas:     money.Parse(req.PrecioMicas.Decimal),
			CostoTotal:      costo,
			TotalDepositado: decimal.Zero,
			SaldoRestante:   money.Subtract(costo, inicial),
			Estado:          model.VentaPendiente,
			ArmazonMarca:    req.ArmazonMarca,
			ArmazonModelo:   req.ArmazonModelo,
			TipoMica:        req.TipoMica,
			Laboratorio:     req.Laboratorio,
			ImagenReceta:    req.ImagenReceta,
			FechaVenta:      fechaVenta,
			Notas:           req.Notas,
		}
		if err := tx.Ventas().Create(ctx, venta); err != nil {
			return traducirRepoErr(err, "crear venta", "Cliente no encontrado")
		}
		ventaID = venta.ID

		if inicial.IsPositive() {
			nota := notaDepositoInicial
			dep := &model.Deposito{
				VentaID:       venta.ID,
				Monto:         inicial,
				MetodoPago:    metodo,
				FechaDeposito: fechaVenta,
				Notas:         &nota,
			}
			if err := tx.Depositos().Create(ctx, dep); err != nil {
				return fmt.Errorf("deposito inicial: %w", err)
			}
		}
		_, err = recalcularSaldos(ctx, tx, venta.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("venta_id", ventaID.String()).Str("costo_total", money.Format(costo)).Msg("venta creada")
	return s.Obtener(ctx, ventaID)
}

// ── Consultas ────────────────────────────────────────────────────────────────

func (s *ventaService) Obtener(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error) {
	v, err := s.ventas.FindByID(ctx, id)
	if err != nil {
		return nil, traducirRepoErr(err, "obtener venta", "Venta no encontrada")
	}
	return ventaToResponse(v), nil
}

// Listar defaults to the active period when no periodo_id is given. With no
// active period yet there is nothing to list.
func (s *ventaService) Listar(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	empty := &dto.VentaListResponse{Data: []dto.VentaResponse{}, Page: filter.Page, Limit: filter.Limit}

	if filter.PeriodoID == "" && filter.ClienteID == "" {
		p, err := s.periodos.FindActivo(ctx)
		if err != nil {
			if repository.IsNotFound(err) {
				return empty, nil
			}
			return nil, fmt.Errorf("periodo activo: %w", err)
		}
		filter.PeriodoID = p.ID.String()
	}

	ventas, total, err := s.ventas.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listar ventas: %w", err)
	}
	resp := &dto.VentaListResponse{
		Data:  make([]dto.VentaResponse, len(ventas)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range ventas {
		resp.Data[i] = *ventaToResponse(&ventas[i])
	}
	return resp, nil
}

// ── Actualizar ───────────────────────────────────────────────────────────────
// A new total below what was already deposited is rejected. Carried-over
// sales keep their total: it is the balance of the original sale.

func (s *ventaService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarVentaRequest) (*dto.VentaResponse, error) {
	err := s.tx.WithTx(ctx, func(tx repository.Tx) error {
		venta, err := bloquearVentaAbierta(ctx, tx, id, "actualizar venta")
		if err != nil {
			return err
		}
		if venta.Estado == model.VentaCancelada {
			return ErrConflicto("La venta está cancelada y no puede modificarse")
		}

		if venta.VentaOrigenID == nil {
			costo := money.Add(req.PrecioArmazon.Decimal, req.PrecioMicas.Decimal)
			if !costo.IsPositive() {
				return ErrCampo("precio_armazon", "El costo total debe ser mayor a cero")
			}
			depositado, err := tx.Depositos().SumByVenta(ctx, id)
			if err != nil {
				return fmt.Errorf("sumar depositos: %w", err)
			}
			if costo.LessThan(depositado) {
				return ErrCampo("precio_armazon", fmt.Sprintf(
					"El costo total no puede ser menor a lo ya depositado (%s)", money.Format(depositado)))
			}
			venta.PrecioArmazon = money.Parse(req.PrecioArmazon.Decimal)
			venta.PrecioMicas = money.Parse(req.PrecioMicas.Decimal)
			venta.CostoTotal = costo
		}

		venta.ArmazonMarca = req.ArmazonMarca
		venta.ArmazonModelo = req.ArmazonModelo
		venta.TipoMica = req.TipoMica
		venta.Laboratorio = req.Laboratorio
		venta.ImagenReceta = req.ImagenReceta
		venta.Notas = req.Notas
		if err := tx.Ventas().Update(ctx, venta); err != nil {
			return fmt.Errorf("actualizar venta: %w", err)
		}
		_, err = recalcularSaldos(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Obtener(ctx, id)
}

// ── CambiarEstado ────────────────────────────────────────────────────────────
// listo stamps fecha_llegada_lab and entregado stamps fecha_entrega.
// cancelado is terminal.

func (s *ventaService) CambiarEstado(ctx context.Context, id uuid.UUID, req dto.CambiarEstadoRequest) (*dto.VentaResponse, error) {
	fecha, err := parseFecha(req.Fecha, s.now())
	if err != nil {
		return nil, ErrCampo("fecha", "fecha inválida")
	}

	err = s.tx.WithTx(ctx, func(tx repository.Tx) error {
		venta, periodo, err := bloquearVenta(ctx, tx, id, "cambiar estado")
		if err != nil {
			return err
		}
		if venta.Estado == model.VentaCancelada && req.Estado != model.VentaCancelada {
			return ErrConflicto("Una venta cancelada no puede cambiar de estado")
		}
		if !periodo.Activo {
			if err := permitirEstadoEnCerrado(ctx, tx, venta, periodo, req.Estado); err != nil {
				return err
			}
		}

		venta.Estado = req.Estado
		switch req.Estado {
		case model.VentaLista:
			venta.FechaLlegadaLab = &fecha
		case model.VentaEntregada:
			venta.FechaEntrega = &fecha
			if venta.FechaLlegadaLab == nil {
				venta.FechaLlegadaLab = &fecha
			}
		}
		return tx.Ventas().Update(ctx, venta)
	})
	if err != nil {
		return nil, err
	}
	return s.Obtener(ctx, id)
}

// permitirEstadoEnCerrado lets a paid-off sale of a closed period still move
// through the lab and delivery steps. Cancelling it would change the closed
// period's totals, and a migrated sale is tracked through its copy.
func permitirEstadoEnCerrado(ctx context.Context, tx repository.Tx, venta *model.Venta, periodo *model.PeriodoContable, estado string) error {
	if estado == model.VentaCancelada {
		return errPeriodoCerrado(ctx, tx, venta, periodo)
	}
	_, err := tx.Ventas().FindMigrada(ctx, venta.ID)
	switch {
	case err == nil:
		return errPeriodoCerrado(ctx, tx, venta, periodo)
	case !repository.IsNotFound(err):
		return fmt.Errorf("buscar venta migrada: %w", err)
	}
	return nil
}

// ── Eliminar ─────────────────────────────────────────────────────────────────

func (s *ventaService) Eliminar(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx repository.Tx) error {
		venta, err := bloquearVentaAbierta(ctx, tx, id, "eliminar venta")
		if err != nil {
			return err
		}
		if venta.Estado == model.VentaEntregada {
			return ErrConflicto("No se puede eliminar una venta entregada; cancélela en su lugar")
		}
		if venta.TotalDepositado.IsPositive() {
			return ErrConflicto("No se puede eliminar una venta con depósitos; cancélela en su lugar")
		}
		if err := tx.Ventas().Delete(ctx, id); err != nil {
			if repository.IsForeignKeyViolation(err) {
				return ErrConflicto("La venta tiene un saldo migrado a otro período; cancélela en su lugar")
			}
			return fmt.Errorf("eliminar venta: %w", err)
		}
		return nil
	})
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// parseFecha parses a YYYY-MM-DD date, returning def when raw is empty.
func parseFecha(raw string, def time.Time) (time.Time, error) {
	if raw == "" {
		y, m, d := def.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, def.Location()), nil
	}
	return time.Parse(fechaISO, raw)
}

func fechaPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(fechaISO)
	return &s
}

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	resp := &dto.VentaResponse{
		ID:              v.ID.String(),
		NumeroVenta:     v.NumeroVenta,
		ClienteID:       v.ClienteID.String(),
		PeriodoID:       v.PeriodoID.String(),
		PrecioArmazon:   v.PrecioArmazon,
		PrecioMicas:     v.PrecioMicas,
		CostoTotal:      v.CostoTotal,
		TotalDepositado: v.TotalDepositado,
		SaldoRestante:   v.SaldoRestante,
		Estado:          v.Estado,
		ArmazonMarca:    v.ArmazonMarca,
		ArmazonModelo:   v.ArmazonModelo,
		TipoMica:        v.TipoMica,
		Laboratorio:     v.Laboratorio,
		ImagenReceta:    v.ImagenReceta,
		FechaVenta:      v.FechaVenta.Format(fechaISO),
		FechaLlegadaLab: fechaPtr(v.FechaLlegadaLab),
		FechaEntrega:    fechaPtr(v.FechaEntrega),
		Notas:           v.Notas,
		Depositos:       make([]dto.DepositoResponse, len(v.Depositos)),
		CreatedAt:       v.CreatedAt.Format(time.RFC3339),
	}
	if v.Cliente != nil {
		resp.ClienteNombre = v.Cliente.Nombre
		resp.Expediente = v.Cliente.Expediente
	}
	if v.VentaOrigenID != nil {
		s := v.VentaOrigenID.String()
		resp.VentaOrigenID = &s
	}
	for i := range v.Depositos {
		resp.Depositos[i] = depositoToResponse(&v.Depositos[i])
	}
	return resp
}

func depositoToResponse(d *model.Deposito) dto.DepositoResponse {
	return dto.DepositoResponse{
		ID:            d.ID.String(),
		VentaID:       d.VentaID.String(),
		Monto:         d.Monto,
		MetodoPago:    d.MetodoPago,
		FechaDeposito: d.FechaDeposito.Format(fechaISO),
		Notas:         d.Notas,
	}
}

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
	"github.com/shopspring/decimal"
)

// ReporteService is a read-only projection over sales and deposits.
type ReporteService interface {
	Extraer(ctx context.Context, filtro dto.ReporteFilter) (*dto.ReporteData, error)
}

type reporteService struct {
	ventas   repository.VentaRepository
	periodos repository.PeriodoRepository
}

func NewReporteService(ventas repository.VentaRepository, periodos repository.PeriodoRepository) ReporteService {
	return &reporteService{ventas: ventas, periodos: periodos}
}

func (s *reporteService) Extraer(ctx context.Context, filtro dto.ReporteFilter) (*dto.ReporteData, error) {
	scope, err := validarFiltroReporte(filtro)
	if err != nil {
		return nil, err
	}

	data := &dto.ReporteData{Metodo: filtro.Metodo}
	if scope.PeriodoID != nil {
		p, err := s.periodos.FindByID(ctx, *scope.PeriodoID)
		if err != nil {
			return nil, traducirRepoErr(err, "reporte", "Período no encontrado")
		}
		data.Titulo = "Período " + p.Nombre
		data.Desde = p.FechaInicio.Format(fechaISO)
		data.Hasta = p.FechaFin.Format(fechaISO)
	} else {
		data.Desde = scope.Desde.Format(fechaISO)
		data.Hasta = scope.Hasta.Format(fechaISO)
		data.Titulo = fmt.Sprintf("Del %s al %s", data.Desde, data.Hasta)
	}

	ventas, err := s.ventas.ListParaReporte(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("ventas para reporte: %w", err)
	}
	armarReporte(data, ventas, filtro.Metodo)
	return data, nil
}

// validarFiltroReporte requires a period id or a complete date range.
func validarFiltroReporte(f dto.ReporteFilter) (repository.ReporteScope, error) {
	var scope repository.ReporteScope
	if f.PeriodoID != "" {
		id, err := uuid.Parse(f.PeriodoID)
		if err != nil {
			return scope, ErrCampo("periodo_id", "periodo_id inválido")
		}
		scope.PeriodoID = &id
		return scope, nil
	}

	fields := map[string]string{}
	if f.Desde == "" {
		fields["desde"] = "Indique un período o un rango de fechas completo"
	}
	if f.Hasta == "" {
		fields["hasta"] = "Indique un período o un rango de fechas completo"
	}
	if len(fields) > 0 {
		return scope, ErrValidacion("Falta el período o el rango de fechas", fields)
	}

	desde, err := time.Parse(fechaISO, f.Desde)
	if err != nil {
		return scope, ErrCampo("desde", "desde inválida")
	}
	hasta, err := time.Parse(fechaISO, f.Hasta)
	if err != nil {
		return scope, ErrCampo("hasta", "hasta inválida")
	}
	if desde.After(hasta) {
		return scope, ErrCampo("desde", "La fecha inicial no puede ser posterior a la final")
	}
	scope.Desde = desde
	scope.Hasta = hasta
	return scope, nil
}

// armarReporte fills the rows and summary. With a method filter only sales
// that have deposits of that method appear, and their deposited amount counts
// only those deposits.
//
// A migrated sale carries an old balance, so it is listed but not counted as
// sold. When both ends of a migration fall inside the report the pending
// balance is counted on the copy only; a closed period's own report still
// shows what was pending at close.
func armarReporte(data *dto.ReporteData, ventas []model.Venta, metodo string) {
	data.Ventas = []dto.FilaReporte{}
	data.Depositos = []dto.FilaDeposito{}
	data.Saldos = []dto.FilaReporte{}

	continuadas := map[uuid.UUID]bool{}
	for i := range ventas {
		if o := ventas[i].VentaOrigenID; o != nil {
			continuadas[*o] = true
		}
	}

	porMetodo := map[string]*dto.ResumenMetodo{}
	metodos := model.MetodosPago
	if metodo != "" {
		metodos = []string{metodo}
	}
	for _, m := range metodos {
		porMetodo[m] = &dto.ResumenMetodo{Metodo: m, Monto: decimal.Zero}
	}

	r := &data.Resumen
	r.TotalVendido = decimal.Zero
	r.TotalDepositado = decimal.Zero
	r.SaldoPendiente = decimal.Zero

	for i := range ventas {
		v := &ventas[i]
		cliente, expediente := "", ""
		if v.Cliente != nil {
			cliente, expediente = v.Cliente.Nombre, v.Cliente.Expediente
		}

		depositado := decimal.Zero
		incluidos := 0
		for j := range v.Depositos {
			d := &v.Depositos[j]
			if metodo != "" && d.MetodoPago != metodo {
				continue
			}
			incluidos++
			depositado = money.Add(depositado, d.Monto)
			if rm, ok := porMetodo[d.MetodoPago]; ok {
				rm.Cantidad++
				rm.Monto = money.Add(rm.Monto, d.Monto)
			}
			notas := ""
			if d.Notas != nil {
				notas = *d.Notas
			}
			data.Depositos = append(data.Depositos, dto.FilaDeposito{
				NumeroVenta: v.NumeroVenta,
				Cliente:     cliente,
				Fecha:       d.FechaDeposito.Format(fechaISO),
				Metodo:      d.MetodoPago,
				Monto:       d.Monto,
				Notas:       notas,
			})
		}
		if metodo != "" && incluidos == 0 {
			continue
		}

		fila := dto.FilaReporte{
			VentaID:       v.ID.String(),
			NumeroVenta:   v.NumeroVenta,
			Expediente:    expediente,
			Cliente:       cliente,
			Fecha:         v.FechaVenta.Format(fechaISO),
			Estado:        v.Estado,
			Total:         v.CostoTotal,
			Depositado:    depositado,
			SaldoRestante: v.SaldoRestante,
		}
		data.Ventas = append(data.Ventas, fila)
		if v.SaldoRestante.IsPositive() && v.Estado != model.VentaCancelada && !continuadas[v.ID] {
			data.Saldos = append(data.Saldos, fila)
			r.SaldoPendiente = money.Add(r.SaldoPendiente, v.SaldoRestante)
		}

		if v.VentaOrigenID == nil {
			r.CantidadVentas++
			r.TotalVendido = money.Add(r.TotalVendido, v.CostoTotal)
		}
		r.TotalDepositado = money.Add(r.TotalDepositado, depositado)
	}

	r.PorMetodo = make([]dto.ResumenMetodo, 0, len(metodos))
	for _, m := range metodos {
		rm := porMetodo[m]
		rm.Porcentaje = porcentaje(rm.Monto, r.TotalDepositado)
		r.PorMetodo = append(r.PorMetodo, *rm)
	}
}

func porcentaje(parte, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return parte.Mul(decimal.NewFromInt(100)).DivRound(total, 2)
}

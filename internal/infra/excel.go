package infra

import (
	"fmt"
	"io"

	"visionallende/internal/dto"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the exported workbook.
const (
	HojaVentas    = "Ventas"
	HojaDepositos = "Depositos"
	HojaSaldos    = "Saldos"
	HojaResumen   = "Resumen"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// numFmtMoneda is excelize's built-in "#,##0.00".
const numFmtMoneda = 4

type hoja struct {
	nombre  string
	headers []string
	filas   [][]interface{}
	// moneda lists 1-based columns rendered with two decimals.
	moneda []int
}

// ExportarReporteXLSX writes the report as an .xlsx workbook. With completo
// every report type gets its own sheet plus a summary; otherwise only the
// sheet for tipo (ventas by default) is written.
func ExportarReporteXLSX(w io.Writer, data *dto.ReporteData, tipo string, completo bool) error {
	var hojas []hoja
	switch {
	case completo:
		hojas = []hoja{hojaVentas(HojaVentas, data.Ventas), hojaDepositos(data.Depositos), hojaVentas(HojaSaldos, data.Saldos), hojaResumen(data)}
	case tipo == dto.ReporteDepositos:
		hojas = []hoja{hojaDepositos(data.Depositos)}
	case tipo == dto.ReporteSaldos:
		hojas = []hoja{hojaVentas(HojaSaldos, data.Saldos)}
	default:
		hojas = []hoja{hojaVentas(HojaVentas, data.Ventas)}
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("excel: estilo: %w", err)
	}
	moneda, err := f.NewStyle(&excelize.Style{NumFmt: numFmtMoneda})
	if err != nil {
		return fmt.Errorf("excel: estilo: %w", err)
	}

	for i, h := range hojas {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", h.nombre); err != nil {
				return fmt.Errorf("excel: hoja %s: %w", h.nombre, err)
			}
		} else if _, err := f.NewSheet(h.nombre); err != nil {
			return fmt.Errorf("excel: hoja %s: %w", h.nombre, err)
		}
		if err := escribirHoja(f, h, bold, moneda); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("excel: escribir: %w", err)
	}
	return nil
}

func escribirHoja(f *excelize.File, h hoja, bold, moneda int) error {
	headers := make([]interface{}, len(h.headers))
	for i, v := range h.headers {
		headers[i] = v
	}
	if err := f.SetSheetRow(h.nombre, "A1", &headers); err != nil {
		return fmt.Errorf("excel: encabezado %s: %w", h.nombre, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(h.headers), 1)
	if err := f.SetCellStyle(h.nombre, "A1", last, bold); err != nil {
		return err
	}

	for i, fila := range h.filas {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := fila
		if err := f.SetSheetRow(h.nombre, cell, &row); err != nil {
			return fmt.Errorf("excel: fila %d de %s: %w", i+2, h.nombre, err)
		}
	}
	if len(h.filas) > 0 {
		for _, col := range h.moneda {
			desde, _ := excelize.CoordinatesToCellName(col, 2)
			hasta, _ := excelize.CoordinatesToCellName(col, len(h.filas)+1)
			if err := f.SetCellStyle(h.nombre, desde, hasta, moneda); err != nil {
				return err
			}
		}
	}
	colFin, _ := excelize.ColumnNumberToName(len(h.headers))
	return f.SetColWidth(h.nombre, "A", colFin, 16)
}

func hojaVentas(nombre string, filas []dto.FilaReporte) hoja {
	h := hoja{
		nombre:  nombre,
		headers: []string{"Número", "Expediente", "Cliente", "Fecha", "Estado", "Total", "Depositado", "Saldo"},
		moneda:  []int{6, 7, 8},
	}
	for _, f := range filas {
		h.filas = append(h.filas, []interface{}{
			f.NumeroVenta, f.Expediente, f.Cliente, f.Fecha, f.Estado,
			num(f.Total), num(f.Depositado), num(f.SaldoRestante),
		})
	}
	return h
}

func hojaDepositos(filas []dto.FilaDeposito) hoja {
	h := hoja{
		nombre:  HojaDepositos,
		headers: []string{"Venta", "Cliente", "Fecha", "Método", "Monto", "Notas"},
		moneda:  []int{5},
	}
	for _, f := range filas {
		h.filas = append(h.filas, []interface{}{f.NumeroVenta, f.Cliente, f.Fecha, f.Metodo, num(f.Monto), f.Notas})
	}
	return h
}

func hojaResumen(data *dto.ReporteData) hoja {
	r := data.Resumen
	h := hoja{
		nombre:  HojaResumen,
		headers: []string{"Concepto", "Cantidad", "Monto", "Porcentaje"},
		moneda:  []int{3},
		filas: [][]interface{}{
			{data.Titulo, nil, nil, nil},
			{"Ventas", r.CantidadVentas, num(r.TotalVendido), nil},
			{"Depositado", nil, num(r.TotalDepositado), nil},
			{"Saldo pendiente", nil, num(r.SaldoPendiente), nil},
		},
	}
	for _, m := range r.PorMetodo {
		h.filas = append(h.filas, []interface{}{"Método: " + m.Metodo, m.Cantidad, num(m.Monto), num(m.Porcentaje)})
	}
	return h
}

func num(d decimal.Decimal) float64 { return d.InexactFloat64() }

package dto

import "github.com/shopspring/decimal"

// Report types; "completo" exports all of them, one sheet each.
const (
	ReporteVentas    = "ventas"
	ReporteDepositos = "depositos"
	ReporteSaldos    = "saldos"
)

// ReporteFilter is bound from the query string of GET /v1/reportes.
// Either PeriodoID or both Desde and Hasta must be present.
type ReporteFilter struct {
	PeriodoID string `form:"periodo_id" json:"periodo_id" validate:"omitempty,uuid"`
	Desde     string `form:"desde"      json:"desde"      validate:"omitempty,datetime=2006-01-02"`
	Hasta     string `form:"hasta"      json:"hasta"      validate:"omitempty,datetime=2006-01-02"`
	Metodo    string `form:"metodo"     json:"metodo"     validate:"omitempty,oneof=efectivo tarjeta transferencia"`
	Tipo      string `form:"tipo"       json:"tipo"       validate:"omitempty,oneof=ventas depositos saldos"`
	Completo  bool   `form:"completo"   json:"completo"`
}

// EnviarReporteRequest queues a spreadsheet to be mailed to the bookkeeper.
type EnviarReporteRequest struct {
	ReporteFilter
	Destinatario string `json:"destinatario" validate:"omitempty,email"`
}

type FilaReporte struct {
	VentaID       string          `json:"venta_id"`
	NumeroVenta   int             `json:"numero_venta"`
	Expediente    string          `json:"expediente"`
	Cliente       string          `json:"cliente"`
	Fecha         string          `json:"fecha"`
	Estado        string          `json:"estado"`
	Total         decimal.Decimal `json:"total"`
	Depositado    decimal.Decimal `json:"depositado"`
	SaldoRestante decimal.Decimal `json:"saldo_restante"`
}

type FilaDeposito struct {
	NumeroVenta int             `json:"numero_venta"`
	Cliente     string          `json:"cliente"`
	Fecha       string          `json:"fecha"`
	Metodo      string          `json:"metodo"`
	Monto       decimal.Decimal `json:"monto"`
	Notas       string          `json:"notas"`
}

type ResumenMetodo struct {
	Metodo     string          `json:"metodo"`
	Cantidad   int             `json:"cantidad"`
	Monto      decimal.Decimal `json:"monto"`
	Porcentaje decimal.Decimal `json:"porcentaje"`
}

type ResumenReporte struct {
	CantidadVentas  int             `json:"cantidad_ventas"`
	TotalVendido    decimal.Decimal `json:"total_vendido"`
	TotalDepositado decimal.Decimal `json:"total_depositado"`
	SaldoPendiente  decimal.Decimal `json:"saldo_pendiente"`
	PorMetodo       []ResumenMetodo `json:"por_metodo"`
}

type ReporteData struct {
	Titulo    string         `json:"titulo"`
	Desde     string         `json:"desde"`
	Hasta     string         `json:"hasta"`
	Metodo    string         `json:"metodo,omitempty"`
	Ventas    []FilaReporte  `json:"ventas"`
	Depositos []FilaDeposito `json:"depositos"`
	Saldos    []FilaReporte  `json:"saldos"`
	Resumen   ResumenReporte `json:"resumen"`
}

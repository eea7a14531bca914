package dto

import "github.com/shopspring/decimal"

type PeriodoResponse struct {
	ID          string  `json:"id"`
	Nombre      string  `json:"nombre"`
	FechaInicio string  `json:"fecha_inicio"`
	FechaFin    string  `json:"fecha_fin"`
	Activo      bool    `json:"activo"`
	CerradoAt   *string `json:"cerrado_at"`
}

// PeriodoActivoResponse adds the close-window hint shown by the UI.
type PeriodoActivoResponse struct {
	Periodo     PeriodoResponse `json:"periodo"`
	PuedeCerrar bool            `json:"puede_cerrar"`
	DiaDesde    int             `json:"dia_desde"`
	DiaHasta    int             `json:"dia_hasta"`
}

type VentaMigradaResponse struct {
	VentaOrigenID string          `json:"venta_origen_id"`
	NumeroOrigen  int             `json:"numero_origen"`
	VentaNuevaID  string          `json:"venta_nueva_id"`
	NumeroNueva   int             `json:"numero_nueva"`
	Monto         decimal.Decimal `json:"monto"`
}

type CierrePeriodoResponse struct {
	PeriodoCerrado PeriodoResponse        `json:"periodo_cerrado"`
	PeriodoNuevo   PeriodoResponse        `json:"periodo_nuevo"`
	VentasMigradas []VentaMigradaResponse `json:"ventas_migradas"`
	TotalMigrado   decimal.Decimal        `json:"total_migrado"`
}

package dto

import (
	"visionallende/internal/money"

	"github.com/shopspring/decimal"
)

// ─── Filter / List ──────────────────────────────────────────────────────────

// VentaFilter is bound from the query string of GET /v1/ventas.
// An empty PeriodoID means the active period.
type VentaFilter struct {
	PeriodoID string `form:"periodo_id" validate:"omitempty,uuid"`
	ClienteID string `form:"cliente_id" validate:"omitempty,uuid"`
	Estado    string `form:"estado"     validate:"omitempty,oneof=pendiente en_laboratorio listo entregado cancelado con_saldo"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type VentaListResponse struct {
	Data  []VentaResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearVentaRequest struct {
	ClienteID       string      `json:"cliente_id"        validate:"required,uuid"`
	PrecioArmazon   money.Monto `json:"precio_armazon"    validate:"min=0"`
	PrecioMicas     money.Monto `json:"precio_micas"      validate:"min=0"`
	DepositoInicial money.Monto `json:"deposito_inicial"  validate:"min=0"`
	// MetodoPago applies to DepositoInicial; defaults to efectivo.
	MetodoPago    string  `json:"metodo_pago"    validate:"omitempty,oneof=efectivo tarjeta transferencia"`
	ArmazonMarca  *string `json:"armazon_marca"  validate:"omitempty,max=100"`
	ArmazonModelo *string `json:"armazon_modelo" validate:"omitempty,max=100"`
	TipoMica      *string `json:"tipo_mica"      validate:"omitempty,max=100"`
	Laboratorio   *string `json:"laboratorio"    validate:"omitempty,max=100"`
	ImagenReceta  *string `json:"imagen_receta"`
	FechaVenta    string  `json:"fecha_venta"    validate:"omitempty,datetime=2006-01-02"`
	Notas         *string `json:"notas"`
}

type ActualizarVentaRequest struct {
	PrecioArmazon money.Monto `json:"precio_armazon" validate:"min=0"`
	PrecioMicas   money.Monto `json:"precio_micas"   validate:"min=0"`
	ArmazonMarca  *string     `json:"armazon_marca"  validate:"omitempty,max=100"`
	ArmazonModelo *string     `json:"armazon_modelo" validate:"omitempty,max=100"`
	TipoMica      *string     `json:"tipo_mica"      validate:"omitempty,max=100"`
	Laboratorio   *string     `json:"laboratorio"    validate:"omitempty,max=100"`
	ImagenReceta  *string     `json:"imagen_receta"`
	Notas         *string     `json:"notas"`
}

type CambiarEstadoRequest struct {
	Estado string `json:"estado" validate:"required,oneof=pendiente en_laboratorio listo entregado cancelado"`
	// Fecha is stored as fecha_llegada_lab (listo) or fecha_entrega (entregado); default today.
	Fecha string `json:"fecha" validate:"omitempty,datetime=2006-01-02"`
}

type DepositoRequest struct {
	Monto         money.Monto `json:"monto"          validate:"required"`
	MetodoPago    string      `json:"metodo_pago"    validate:"required,oneof=efectivo tarjeta transferencia"`
	FechaDeposito string      `json:"fecha_deposito" validate:"omitempty,datetime=2006-01-02"`
	Notas         *string     `json:"notas"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type DepositoResponse struct {
	ID            string          `json:"id"`
	VentaID       string          `json:"venta_id"`
	Monto         decimal.Decimal `json:"monto"`
	MetodoPago    string          `json:"metodo_pago"`
	FechaDeposito string          `json:"fecha_deposito"`
	Notas         *string         `json:"notas"`
}

type VentaResponse struct {
	ID              string             `json:"id"`
	NumeroVenta     int                `json:"numero_venta"`
	ClienteID       string             `json:"cliente_id"`
	ClienteNombre   string             `json:"cliente_nombre"`
	Expediente      string             `json:"expediente"`
	PeriodoID       string             `json:"periodo_id"`
	PrecioArmazon   decimal.Decimal    `json:"precio_armazon"`
	PrecioMicas     decimal.Decimal    `json:"precio_micas"`
	CostoTotal      decimal.Decimal    `json:"costo_total"`
	TotalDepositado decimal.Decimal    `json:"total_depositado"`
	SaldoRestante   decimal.Decimal    `json:"saldo_restante"`
	Estado          string             `json:"estado"`
	ArmazonMarca    *string            `json:"armazon_marca"`
	ArmazonModelo   *string            `json:"armazon_modelo"`
	TipoMica        *string            `json:"tipo_mica"`
	Laboratorio     *string            `json:"laboratorio"`
	ImagenReceta    *string            `json:"imagen_receta"`
	FechaVenta      string             `json:"fecha_venta"`
	FechaLlegadaLab *string            `json:"fecha_llegada_lab"`
	FechaEntrega    *string            `json:"fecha_entrega"`
	Notas           *string            `json:"notas"`
	VentaOrigenID   *string            `json:"venta_origen_id"`
	Depositos       []DepositoResponse `json:"depositos"`
	CreatedAt       string             `json:"created_at"`
}

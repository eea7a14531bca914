package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Venta estados.
const (
	VentaPendiente     = "pendiente"
	VentaEnLaboratorio = "en_laboratorio"
	VentaLista         = "listo"
	VentaEntregada     = "entregado"
	VentaCancelada     = "cancelado"
)

// Deposito métodos de pago.
const (
	MetodoEfectivo      = "efectivo"
	MetodoTarjeta       = "tarjeta"
	MetodoTransferencia = "transferencia"
)

// MetodosPago lists every accepted payment method in report order.
var MetodosPago = []string{MetodoEfectivo, MetodoTarjeta, MetodoTransferencia}

// Venta is a glasses order. SaldoRestante = CostoTotal - TotalDepositado is
// recomputed by the service layer after every deposit mutation.
type Venta struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NumeroVenta int       `gorm:"uniqueIndex;not null"`
	ClienteID   uuid.UUID `gorm:"type:uuid;index;not null"`
	PeriodoID   uuid.UUID `gorm:"type:uuid;index;not null"`

	PrecioArmazon   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PrecioMicas     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CostoTotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalDepositado decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	SaldoRestante   decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Estado        string  `gorm:"type:varchar(20);not null;default:'pendiente';index"`
	ArmazonMarca  *string `gorm:"type:varchar(100)"`
	ArmazonModelo *string `gorm:"type:varchar(100)"`
	TipoMica      *string `gorm:"type:varchar(100)"`
	Laboratorio   *string `gorm:"type:varchar(100)"`
	// ImagenReceta is a path relative to UPLOAD_DIR
	ImagenReceta    *string
	FechaVenta      time.Time  `gorm:"type:date;not null"`
	FechaLlegadaLab *time.Time `gorm:"type:date"`
	FechaEntrega    *time.Time `gorm:"type:date"`
	Notas           *string
	// VentaOrigenID points to the sale whose pending balance this one carries
	// over from a closed period.
	VentaOrigenID *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Cliente   *Cliente         `gorm:"foreignKey:ClienteID"`
	Periodo   *PeriodoContable `gorm:"foreignKey:PeriodoID"`
	Depositos []Deposito       `gorm:"foreignKey:VentaID"`
}

func (Venta) TableName() string { return "ventas" }

// Deposito is a partial payment against one Venta.
type Deposito struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	Monto         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MetodoPago    string          `gorm:"type:varchar(20);not null"`
	FechaDeposito time.Time       `gorm:"type:date;not null"`
	Notas         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Deposito) TableName() string { return "depositos" }

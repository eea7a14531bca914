package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Graduacion tipos. A client has at most one of each.
const (
	GraduacionLejos = "lejos"
	GraduacionCerca = "cerca"
)

// Graduacion is an optical prescription for one distance category.
// OD = right eye, OI = left eye. Eje is only stored when the eye's
// Cilindro is non-zero.
type Graduacion struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClienteID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_graduacion_cliente_tipo"`
	Tipo      string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_graduacion_cliente_tipo"`

	ODEsfera   decimal.Decimal `gorm:"column:od_esfera;type:decimal(5,2);not null;default:0"`
	ODCilindro decimal.Decimal `gorm:"column:od_cilindro;type:decimal(5,2);not null;default:0"`
	ODEje      *int            `gorm:"column:od_eje"`
	ODAdicion  decimal.Decimal `gorm:"column:od_adicion;type:decimal(5,2);not null;default:0"`
	OIEsfera   decimal.Decimal `gorm:"column:oi_esfera;type:decimal(5,2);not null;default:0"`
	OICilindro decimal.Decimal `gorm:"column:oi_cilindro;type:decimal(5,2);not null;default:0"`
	OIEje      *int            `gorm:"column:oi_eje"`
	OIAdicion  decimal.Decimal `gorm:"column:oi_adicion;type:decimal(5,2);not null;default:0"`

	// ImagenResultado is a path relative to UPLOAD_DIR
	ImagenResultado *string
	FechaExamen     time.Time `gorm:"type:date;not null"`
	Notas           *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Graduacion) TableName() string { return "graduaciones" }

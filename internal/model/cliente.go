package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cliente is the intake record of a patient/customer. Expediente is the
// human-readable file number printed on the physical folder.
type Cliente struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Expediente      string    `gorm:"type:varchar(30);uniqueIndex;not null"`
	Nombre          string    `gorm:"index;not null"`
	Telefono        *string   `gorm:"type:varchar(30)"`
	Email           *string
	Direccion       *string
	FechaNacimiento *time.Time `gorm:"type:date"`
	Ocupacion       *string

	// Vitals. IMC is derived from Peso (kg) and Altura (m) on every save.
	Peso   decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0"`
	Altura decimal.Decimal `gorm:"type:decimal(4,2);not null;default:0"`
	IMC    decimal.Decimal `gorm:"column:imc;type:decimal(5,2);not null;default:0"`

	// Medical history
	Diabetes          bool `gorm:"not null;default:false"`
	Hipertension      bool `gorm:"not null;default:false"`
	Glaucoma          bool `gorm:"not null;default:false"`
	Cataratas         bool `gorm:"not null;default:false"`
	CirugiaOcular     bool `gorm:"not null;default:false"`
	UsaLentesContacto bool `gorm:"not null;default:false"`
	Alergias          *string
	Medicamentos      *string
	Antecedentes      *string

	CreatedAt time.Time
	UpdatedAt time.Time

	Graduaciones []Graduacion `gorm:"foreignKey:ClienteID"`
}

func (Cliente) TableName() string { return "clientes" }

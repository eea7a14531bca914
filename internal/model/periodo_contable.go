package model

import (
	"time"

	"github.com/google/uuid"
)

// PeriodoContable is an accounting window (7th of a month to the 6th of the
// next). At most one row has Activo = true; a closed period never reopens.
type PeriodoContable struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre      string    `gorm:"type:varchar(60);not null"`
	FechaInicio time.Time `gorm:"type:date;not null"`
	FechaFin    time.Time `gorm:"type:date;not null"`
	Activo      bool      `gorm:"not null;default:false"`
	CerradoAt   *time.Time
	CreatedAt   time.Time
}

func (PeriodoContable) TableName() string { return "periodos_contables" }

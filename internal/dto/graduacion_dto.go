package dto

import "github.com/shopspring/decimal"

// GraduacionRequest creates or replaces a prescription. ClienteID comes from
// the URL on create and is ignored on update.
type GraduacionRequest struct {
	Tipo            string          `json:"tipo"             validate:"required,oneof=lejos cerca"`
	ODEsfera        decimal.Decimal `json:"od_esfera"        validate:"min=-30,max=30"`
	ODCilindro      decimal.Decimal `json:"od_cilindro"      validate:"min=-15,max=15"`
	ODEje           *int            `json:"od_eje"           validate:"omitempty,min=0,max=180"`
	ODAdicion       decimal.Decimal `json:"od_adicion"       validate:"min=0,max=5"`
	OIEsfera        decimal.Decimal `json:"oi_esfera"        validate:"min=-30,max=30"`
	OICilindro      decimal.Decimal `json:"oi_cilindro"      validate:"min=-15,max=15"`
	OIEje           *int            `json:"oi_eje"           validate:"omitempty,min=0,max=180"`
	OIAdicion       decimal.Decimal `json:"oi_adicion"       validate:"min=0,max=5"`
	ImagenResultado *string         `json:"imagen_resultado"`
	FechaExamen     string          `json:"fecha_examen"     validate:"omitempty,datetime=2006-01-02"`
	Notas           *string         `json:"notas"`
}

type GraduacionResponse struct {
	ID              string          `json:"id"`
	ClienteID       string          `json:"cliente_id"`
	Tipo            string          `json:"tipo"`
	ODEsfera        decimal.Decimal `json:"od_esfera"`
	ODCilindro      decimal.Decimal `json:"od_cilindro"`
	ODEje           *int            `json:"od_eje"`
	ODAdicion       decimal.Decimal `json:"od_adicion"`
	OIEsfera        decimal.Decimal `json:"oi_esfera"`
	OICilindro      decimal.Decimal `json:"oi_cilindro"`
	OIEje           *int            `json:"oi_eje"`
	OIAdicion       decimal.Decimal `json:"oi_adicion"`
	ImagenResultado *string         `json:"imagen_resultado"`
	FechaExamen     string          `json:"fecha_examen"`
	Notas           *string         `json:"notas"`
}

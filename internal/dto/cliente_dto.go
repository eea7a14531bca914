package dto

import "github.com/shopspring/decimal"

// ClienteFilter is bound from the query string of GET /v1/clientes.
type ClienteFilter struct {
	Buscar string `form:"q"` // nombre or expediente
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ClienteRequest is used for both create (POST) and full update (PUT).
type ClienteRequest struct {
	Expediente      string          `json:"expediente"       validate:"required,min=1,max=30"`
	Nombre          string          `json:"nombre"           validate:"required,min=2,max=150"`
	Telefono        *string         `json:"telefono"         validate:"omitempty,max=30"`
	Email           *string         `json:"email"            validate:"omitempty,email"`
	Direccion       *string         `json:"direccion"`
	FechaNacimiento *string         `json:"fecha_nacimiento" validate:"omitempty,datetime=2006-01-02"`
	Ocupacion       *string         `json:"ocupacion"`
	Peso            decimal.Decimal `json:"peso"             validate:"min=0,max=500"`
	Altura          decimal.Decimal `json:"altura"           validate:"min=0,max=3"`

	Diabetes          bool    `json:"diabetes"`
	Hipertension      bool    `json:"hipertension"`
	Glaucoma          bool    `json:"glaucoma"`
	Cataratas         bool    `json:"cataratas"`
	CirugiaOcular     bool    `json:"cirugia_ocular"`
	UsaLentesContacto bool    `json:"usa_lentes_contacto"`
	Alergias          *string `json:"alergias"`
	Medicamentos      *string `json:"medicamentos"`
	Antecedentes      *string `json:"antecedentes"`
}

type ClienteResponse struct {
	ID                string          `json:"id"`
	Expediente        string          `json:"expediente"`
	Nombre            string          `json:"nombre"`
	Telefono          *string         `json:"telefono"`
	Email             *string         `json:"email"`
	Direccion         *string         `json:"direccion"`
	FechaNacimiento   *string         `json:"fecha_nacimiento"`
	Ocupacion         *string         `json:"ocupacion"`
	Peso              decimal.Decimal `json:"peso"`
	Altura            decimal.Decimal `json:"altura"`
	IMC               decimal.Decimal `json:"imc"`
	Diabetes          bool            `json:"diabetes"`
	Hipertension      bool            `json:"hipertension"`
	Glaucoma          bool            `json:"glaucoma"`
	Cataratas         bool            `json:"cataratas"`
	CirugiaOcular     bool            `json:"cirugia_ocular"`
	UsaLentesContacto bool            `json:"usa_lentes_contacto"`
	Alergias          *string         `json:"alergias"`
	Medicamentos      *string         `json:"medicamentos"`
	Antecedentes      *string         `json:"antecedentes"`
	CreatedAt         string          `json:"created_at"`
}

type ClienteListResponse struct {
	Data  []ClienteResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

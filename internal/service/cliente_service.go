package service

import (
	"context"
	"fmt"
	"time"

	"visionallende/internal/dto"
	"visionallende/internal/model"
	"visionallende/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ClienteService interface {
	Crear(ctx context.Context, req dto.ClienteRequest) (*dto.ClienteResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error)
	Listar(ctx context.Context, filter dto.ClienteFilter) (*dto.ClienteListResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ClienteRequest) (*dto.ClienteResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
}

type clienteService struct {
	repo   repository.ClienteRepository
	ventas repository.VentaRepository
}

func NewClienteService(repo repository.ClienteRepository, ventas repository.VentaRepository) ClienteService {
	return &clienteService{repo: repo, ventas: ventas}
}

func (s *clienteService) Crear(ctx context.Context, req dto.ClienteRequest) (*dto.ClienteResponse, error) {
	if existente, err := s.repo.FindByExpediente(ctx, req.Expediente); err == nil {
		return nil, ErrDuplicado("Ya existe un cliente con ese expediente", existente.ID.String())
	} else if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("buscar expediente: %w", err)
	}

	c := &model.Cliente{}
	if err := aplicarCliente(c, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, traducirRepoErr(err, "crear cliente", "Cliente no encontrado")
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, traducirRepoErr(err, "obtener cliente", "Cliente no encontrado")
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) Listar(ctx context.Context, filter dto.ClienteFilter) (*dto.ClienteListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listar clientes: %w", err)
	}
	resp := &dto.ClienteListResponse{
		Data:  make([]dto.ClienteResponse, len(list)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range list {
		resp.Data[i] = *clienteToResponse(&list[i])
	}
	return resp, nil
}

func (s *clienteService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ClienteRequest) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, traducirRepoErr(err, "actualizar cliente", "Cliente no encontrado")
	}
	if req.Expediente != c.Expediente {
		if otro, err := s.repo.FindByExpediente(ctx, req.Expediente); err == nil && otro.ID != id {
			return nil, ErrDuplicado("Ya existe un cliente con ese expediente", otro.ID.String())
		}
	}
	if err := aplicarCliente(c, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, traducirRepoErr(err, "actualizar cliente", "Cliente no encontrado")
	}
	return clienteToResponse(c), nil
}

// Eliminar refuses while any sale references the client. Prescriptions are
// removed with it.
func (s *clienteService) Eliminar(ctx context.Context, id uuid.UUID) error {
	n, err := s.ventas.CountByCliente(ctx, id)
	if err != nil {
		return fmt.Errorf("contar ventas: %w", err)
	}
	if n > 0 {
		return ErrConflicto(fmt.Sprintf("El cliente tiene %d venta(s) registradas y no puede eliminarse", n))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return ErrConflicto("El cliente tiene ventas registradas y no puede eliminarse")
		}
		return traducirRepoErr(err, "eliminar cliente", "Cliente no encontrado")
	}
	return nil
}

// CalcularIMC returns peso / altura², rounded to two places. Zero when either
// value is missing.
func CalcularIMC(peso, altura decimal.Decimal) decimal.Decimal {
	if !peso.IsPositive() || !altura.IsPositive() {
		return decimal.Zero
	}
	return peso.DivRound(altura.Mul(altura), 2)
}

func aplicarCliente(c *model.Cliente, req dto.ClienteRequest) error {
	var nacimiento *time.Time
	if req.FechaNacimiento != nil && *req.FechaNacimiento != "" {
		t, err := time.Parse(fechaISO, *req.FechaNacimiento)
		if err != nil {
			return ErrCampo("fecha_nacimiento", "fecha_nacimiento inválida")
		}
		nacimiento = &t
	}

	c.Expediente = req.Expediente
	c.Nombre = req.Nombre
	c.Telefono = req.Telefono
	c.Email = req.Email
	c.Direccion = req.Direccion
	c.FechaNacimiento = nacimiento
	c.Ocupacion = req.Ocupacion
	c.Peso = req.Peso.Round(2)
	c.Altura = req.Altura.Round(2)
	c.IMC = CalcularIMC(c.Peso, c.Altura)
	c.Diabetes = req.Diabetes
	c.Hipertension = req.Hipertension
	c.Glaucoma = req.Glaucoma
	c.Cataratas = req.Cataratas
	c.CirugiaOcular = req.CirugiaOcular
	c.UsaLentesContacto = req.UsaLentesContacto
	c.Alergias = req.Alergias
	c.Medicamentos = req.Medicamentos
	c.Antecedentes = req.Antecedentes
	return nil
}

func clienteToResponse(c *model.Cliente) *dto.ClienteResponse {
	return &dto.ClienteResponse{
		ID:                c.ID.String(),
		Expediente:        c.Expediente,
		Nombre:            c.Nombre,
		Telefono:          c.Telefono,
		Email:             c.Email,
		Direccion:         c.Direccion,
		FechaNacimiento:   fechaPtr(c.FechaNacimiento),
		Ocupacion:         c.Ocupacion,
		Peso:              c.Peso,
		Altura:            c.Altura,
		IMC:               c.IMC,
		Diabetes:          c.Diabetes,
		Hipertension:      c.Hipertension,
		Glaucoma:          c.Glaucoma,
		Cataratas:         c.Cataratas,
		CirugiaOcular:     c.CirugiaOcular,
		UsaLentesContacto: c.UsaLentesContacto,
		Alergias:          c.Alergias,
		Medicamentos:      c.Medicamentos,
		Antecedentes:      c.Antecedentes,
		CreatedAt:         c.CreatedAt.Format(time.RFC3339),
	}
}

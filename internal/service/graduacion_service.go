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

// GraduacionService keeps at most one prescription per client and distance
// category (lejos / cerca).
type GraduacionService interface {
	Crear(ctx context.Context, clienteID uuid.UUID, req dto.GraduacionRequest) (*dto.GraduacionResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.GraduacionResponse, error)
	Listar(ctx context.Context, clienteID uuid.UUID) ([]dto.GraduacionResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.GraduacionRequest) (*dto.GraduacionResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
}

type graduacionService struct {
	repo     repository.GraduacionRepository
	clientes repository.ClienteRepository
	now      func() time.Time
}

func NewGraduacionService(repo repository.GraduacionRepository, clientes repository.ClienteRepository, now func() time.Time) GraduacionService {
	if now == nil {
		now = time.Now
	}
	return &graduacionService{repo: repo, clientes: clientes, now: now}
}

func (s *graduacionService) Crear(ctx context.Context, clienteID uuid.UUID, req dto.GraduacionRequest) (*dto.GraduacionResponse, error) {
	if _, err := s.clientes.FindByID(ctx, clienteID); err != nil {
		return nil, traducirRepoErr(err, "buscar cliente", "Cliente no encontrado")
	}
	if existente, err := s.repo.FindByClienteTipo(ctx, clienteID, req.Tipo); err == nil {
		return nil, errGraduacionDuplicada(req.Tipo, existente.ID)
	} else if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("buscar graduacion: %w", err)
	}

	g := &model.Graduacion{ClienteID: clienteID}
	if err := s.aplicar(g, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, g); err != nil {
		if repository.IsUniqueViolation(err) {
			// Lost a race with a concurrent insert of the same tipo.
			if existente, ferr := s.repo.FindByClienteTipo(ctx, clienteID, req.Tipo); ferr == nil {
				return nil, errGraduacionDuplicada(req.Tipo, existente.ID)
			}
		}
		return nil, traducirRepoErr(err, "crear graduacion", "Cliente no encontrado")
	}
	return graduacionToResponse(g), nil
}

func (s *graduacionService) Obtener(ctx context.Context, id uuid.UUID) (*dto.GraduacionResponse, error) {
	g, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, traducirRepoErr(err, "obtener graduacion", "Graduación no encontrada")
	}
	return graduacionToResponse(g), nil
}

func (s *graduacionService) Listar(ctx context.Context, clienteID uuid.UUID) ([]dto.GraduacionResponse, error) {
	list, err := s.repo.ListByCliente(ctx, clienteID)
	if err != nil {
		return nil, fmt.Errorf("listar graduaciones: %w", err)
	}
	resp := make([]dto.GraduacionResponse, len(list))
	for i := range list {
		resp[i] = *graduacionToResponse(&list[i])
	}
	return resp, nil
}

func (s *graduacionService) Actualizar(ctx context.Context, id uuid.UUID, req dto.GraduacionRequest) (*dto.GraduacionResponse, error) {
	g, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, traducirRepoErr(err, "actualizar graduacion", "Graduación no encontrada")
	}
	if req.Tipo != g.Tipo {
		if otra, err := s.repo.FindByClienteTipo(ctx, g.ClienteID, req.Tipo); err == nil && otra.ID != id {
			return nil, errGraduacionDuplicada(req.Tipo, otra.ID)
		}
	}
	if err := s.aplicar(g, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, g); err != nil {
		return nil, traducirRepoErr(err, "actualizar graduacion", "Graduación no encontrada")
	}
	return graduacionToResponse(g), nil
}

func (s *graduacionService) Eliminar(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return traducirRepoErr(err, "eliminar graduacion", "Graduación no encontrada")
	}
	return nil
}

func (s *graduacionService) aplicar(g *model.Graduacion, req dto.GraduacionRequest) error {
	fields := map[string]string{}
	odEje := normalizarEje(req.ODCilindro, req.ODEje, "od_eje", fields)
	oiEje := normalizarEje(req.OICilindro, req.OIEje, "oi_eje", fields)
	fecha, err := parseFecha(req.FechaExamen, s.now())
	if err != nil {
		fields["fecha_examen"] = "fecha_examen inválida"
	}
	if len(fields) > 0 {
		return ErrValidacion("Graduación inválida", fields)
	}

	g.Tipo = req.Tipo
	g.ODEsfera = req.ODEsfera.Round(2)
	g.ODCilindro = req.ODCilindro.Round(2)
	g.ODEje = odEje
	g.ODAdicion = req.ODAdicion.Round(2)
	g.OIEsfera = req.OIEsfera.Round(2)
	g.OICilindro = req.OICilindro.Round(2)
	g.OIEje = oiEje
	g.OIAdicion = req.OIAdicion.Round(2)
	g.ImagenResultado = req.ImagenResultado
	g.FechaExamen = fecha
	g.Notas = req.Notas
	return nil
}

// normalizarEje: an axis only means something with a cylinder. With cilindro
// = 0 it is dropped; otherwise it is required and must be within 0-180.
func normalizarEje(cilindro decimal.Decimal, eje *int, campo string, fields map[string]string) *int {
	if cilindro.IsZero() {
		return nil
	}
	if eje == nil {
		fields[campo] = "El eje es obligatorio cuando hay cilindro"
		return nil
	}
	if *eje < 0 || *eje > 180 {
		fields[campo] = "El eje debe estar entre 0 y 180"
		return nil
	}
	v := *eje
	return &v
}

func errGraduacionDuplicada(tipo string, existente uuid.UUID) *Error {
	return ErrDuplicado(
		fmt.Sprintf("El cliente ya tiene una graduación de %s", tipo),
		existente.String(),
	)
}

func graduacionToResponse(g *model.Graduacion) *dto.GraduacionResponse {
	return &dto.GraduacionResponse{
		ID:              g.ID.String(),
		ClienteID:       g.ClienteID.String(),
		Tipo:            g.Tipo,
		ODEsfera:        g.ODEsfera,
		ODCilindro:      g.ODCilindro,
		ODEje:           g.ODEje,
		ODAdicion:       g.ODAdicion,
		OIEsfera:        g.OIEsfera,
		OICilindro:      g.OICilindro,
		OIEje:           g.OIEje,
		OIAdicion:       g.OIAdicion,
		ImagenResultado: g.ImagenResultado,
		FechaExamen:     g.FechaExamen.Format(fechaISO),
		Notas:           g.Notas,
	}
}

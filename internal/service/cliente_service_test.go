package service

import (
	"context"
	"testing"

	"visionallende/internal/dto"
	"visionallende/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clienteReq(expediente, nombre string) dto.ClienteRequest {
	return dto.ClienteRequest{
		Expediente: expediente,
		Nombre:     nombre,
		Peso:       decimal.RequireFromString("70"),
		Altura:     decimal.RequireFromString("1.75"),
	}
}

func TestCrearCliente_CalculaIMC(t *testing.T) {
	s := newMemStore()
	svc := NewClienteService(s.clienteRepo(), s.ventaRepo())

	nacimiento := "1990-05-14"
	req := clienteReq("EXP-100", "Luis Gómez")
	req.FechaNacimiento = &nacimiento
	req.Diabetes = true

	c, err := svc.Crear(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "22.86", c.IMC.StringFixed(2))
	assert.True(t, c.Diabetes)
	require.NotNil(t, c.FechaNacimiento)
	assert.Equal(t, "1990-05-14", *c.FechaNacimiento)
}

func TestCrearCliente_ExpedienteDuplicado(t *testing.T) {
	s := newMemStore()
	svc := NewClienteService(s.clienteRepo(), s.ventaRepo())
	ctx := context.Background()

	primero, err := svc.Crear(ctx, clienteReq("EXP-7", "Primero"))
	require.NoError(t, err)

	_, err = svc.Crear(ctx, clienteReq("EXP-7", "Segundo"))
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindConflict, se.Kind)
	assert.Equal(t, primero.ID, se.ExistingID)
}

func TestActualizarCliente_ExpedienteDeOtro(t *testing.T) {
	s := newMemStore()
	svc := NewClienteService(s.clienteRepo(), s.ventaRepo())
	ctx := context.Background()

	a, err := svc.Crear(ctx, clienteReq("A-1", "Ana"))
	require.NoError(t, err)
	b, err := svc.Crear(ctx, clienteReq("B-1", "Beto"))
	require.NoError(t, err)

	_, err = svc.Actualizar(ctx, mustID(t, b.ID), clienteReq("A-1", "Beto"))
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, a.ID, se.ExistingID)

	upd, err := svc.Actualizar(ctx, mustID(t, b.ID), clienteReq("B-1", "Beto Ruiz"))
	require.NoError(t, err)
	assert.Equal(t, "Beto Ruiz", upd.Nombre)
}

func TestEliminarCliente_ConVentas(t *testing.T) {
	e := newLedgerEnv(fixedClock(2026, 3, 10))
	svc := NewClienteService(e.store.clienteRepo(), e.store.ventaRepo())
	e.crearVenta(t, "100", "0", "0")

	err := svc.Eliminar(context.Background(), e.cliente.ID)
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindConflict, se.Kind)
	assert.Contains(t, se.Msg, "1 venta")
	assert.Contains(t, e.store.clientes, e.cliente.ID)
}

func TestEliminarCliente_BorraGraduaciones(t *testing.T) {
	s := newMemStore()
	c := s.seedCliente("EXP-9", "Sin ventas")
	s.graduaciones[uuid.New()] = model.Graduacion{ClienteID: c.ID, Tipo: model.GraduacionLejos}
	svc := NewClienteService(s.clienteRepo(), s.ventaRepo())

	require.NoError(t, svc.Eliminar(context.Background(), c.ID))
	assert.Empty(t, s.clientes)
	assert.Empty(t, s.graduaciones)

	err := svc.Eliminar(context.Background(), c.ID)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestListarClientes_Busqueda(t *testing.T) {
	s := newMemStore()
	s.seedCliente("EXP-1", "María López")
	s.seedCliente("EXP-2", "Mario Díaz")
	s.seedCliente("X-3", "Carla Ruiz")
	svc := NewClienteService(s.clienteRepo(), s.ventaRepo())

	resp, err := svc.Listar(context.Background(), dto.ClienteFilter{Buscar: "mari"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)
	assert.Equal(t, 1, resp.Page)

	resp, err = svc.Listar(context.Background(), dto.ClienteFilter{Buscar: "x-3"})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Carla Ruiz", resp.Data[0].Nombre)
}

func TestCalcularIMC(t *testing.T) {
	d := decimal.RequireFromString
	assert.Equal(t, "22.86", CalcularIMC(d("70"), d("1.75")).StringFixed(2))
	assert.Equal(t, "25.00", CalcularIMC(d("64"), d("1.6")).StringFixed(2))
	assert.True(t, CalcularIMC(d("70"), decimal.Zero).IsZero())
	assert.True(t, CalcularIMC(decimal.Zero, d("1.7")).IsZero())
}

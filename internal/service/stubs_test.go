package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"visionallende/internal/dto"
	"visionallende/internal/model"
	"visionallende/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory store ──────────────────────────────────────────────────────────
// memStore backs every stub repository. Rows are kept by value so a
// transaction can snapshot and restore the whole store on rollback.

type memStore struct {
	ventas       map[uuid.UUID]model.Venta
	depositos    map[uuid.UUID]model.Deposito
	periodos     map[uuid.UUID]model.PeriodoContable
	clientes     map[uuid.UUID]model.Cliente
	graduaciones map[uuid.UUID]model.Graduacion
	seq          int
	clock        time.Time

	// failures injected by tests
	failUpdateSaldos error
	perderCierre     bool
}

func newMemStore() *memStore {
	return &memStore{
		ventas:       map[uuid.UUID]model.Venta{},
		depositos:    map[uuid.UUID]model.Deposito{},
		periodos:     map[uuid.UUID]model.PeriodoContable{},
		clientes:     map[uuid.UUID]model.Cliente{},
		graduaciones: map[uuid.UUID]model.Graduacion{},
		clock:        time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

type memSnapshot struct {
	ventas       map[uuid.UUID]model.Venta
	depositos    map[uuid.UUID]model.Deposito
	periodos     map[uuid.UUID]model.PeriodoContable
	clientes     map[uuid.UUID]model.Cliente
	graduaciones map[uuid.UUID]model.Graduacion
	seq          int
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	return memSnapshot{
		ventas:       copyMap(s.ventas),
		depositos:    copyMap(s.depositos),
		periodos:     copyMap(s.periodos),
		clientes:     copyMap(s.clientes),
		graduaciones: copyMap(s.graduaciones),
		seq:          s.seq,
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.ventas = snap.ventas
	s.depositos = snap.depositos
	s.periodos = snap.periodos
	s.clientes = snap.clientes
	s.graduaciones = snap.graduaciones
	s.seq = snap.seq
}

// tick gives rows a strictly increasing CreatedAt.
func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) txManager() repository.TxManager { return &memTxManager{s: s} }
func (s *memStore) ventaRepo() repository.VentaRepository {
	return &memVentas{s: s}
}
func (s *memStore) depositoRepo() repository.DepositoRepository {
	return &memDepositos{s: s}
}
func (s *memStore) periodoRepo() repository.PeriodoRepository {
	return &memPeriodos{s: s}
}
func (s *memStore) clienteRepo() repository.ClienteRepository {
	return &memClientes{s: s}
}
func (s *memStore) graduacionRepo() repository.GraduacionRepository {
	return &memGraduaciones{s: s}
}

// ── TxManager ────────────────────────────────────────────────────────────────

type memTxManager struct{ s *memStore }

func (m *memTxManager) WithTx(_ context.Context, fn func(tx repository.Tx) error) error {
	snap := m.s.snapshot()
	if err := fn(m); err != nil {
		m.s.restore(snap)
		return err
	}
	return nil
}

func (m *memTxManager) Ventas() repository.VentaRepository       { return m.s.ventaRepo() }
func (m *memTxManager) Depositos() repository.DepositoRepository { return m.s.depositoRepo() }
func (m *memTxManager) Periodos() repository.PeriodoRepository   { return m.s.periodoRepo() }

var (
	_ repository.TxManager = (*memTxManager)(nil)
	_ repository.Tx        = (*memTxManager)(nil)
)

// ── Ventas ───────────────────────────────────────────────────────────────────

type memVentas struct{ s *memStore }

func (r *memVentas) Create(_ context.Context, v *model.Venta) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if _, ok := r.s.clientes[v.ClienteID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	v.CreatedAt = r.s.tick()
	stored := *v
	stored.Cliente, stored.Periodo, stored.Depositos = nil, nil, nil
	r.s.ventas[v.ID] = stored
	return nil
}

func (r *memVentas) cargar(v model.Venta) *model.Venta {
	if c, ok := r.s.clientes[v.ClienteID]; ok {
		v.Cliente = &c
	}
	if p, ok := r.s.periodos[v.PeriodoID]; ok {
		v.Periodo = &p
	}
	v.Depositos = depositosDe(r.s, v.ID)
	return &v
}

func (r *memVentas) FindByID(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	v, ok := r.s.ventas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.cargar(v), nil
}

func (r *memVentas) FindByIDForUpdate(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	v, ok := r.s.ventas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &v, nil
}

func (r *memVentas) NextNumeroVenta(_ context.Context) (int, error) {
	r.s.seq++
	return r.s.seq, nil
}

func (r *memVentas) List(_ context.Context, f dto.VentaFilter) ([]model.Venta, int64, error) {
	var out []model.Venta
	for _, v := range r.s.ventas {
		if f.PeriodoID != "" && v.PeriodoID.String() != f.PeriodoID {
			continue
		}
		if f.ClienteID != "" && v.ClienteID.String() != f.ClienteID {
			continue
		}
		switch {
		case f.Estado == "con_saldo":
			if !v.SaldoRestante.IsPositive() || v.Estado == model.VentaCancelada {
				continue
			}
		case f.Estado != "" && v.Estado != f.Estado:
			continue
		}
		out = append(out, *r.cargar(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NumeroVenta > out[j].NumeroVenta })
	total := int64(len(out))
	from := (f.Page - 1) * f.Limit
	if from > len(out) {
		from = len(out)
	}
	to := from + f.Limit
	if to > len(out) {
		to = len(out)
	}
	return out[from:to], total, nil
}

func (r *memVentas) Update(_ context.Context, v *model.Venta) error {
	if _, ok := r.s.ventas[v.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *v
	stored.Cliente, stored.Periodo, stored.Depositos = nil, nil, nil
	r.s.ventas[v.ID] = stored
	return nil
}

func (r *memVentas) UpdateSaldos(_ context.Context, id uuid.UUID, totalDepositado, saldo decimal.Decimal) error {
	if r.s.failUpdateSaldos != nil {
		return r.s.failUpdateSaldos
	}
	v, ok := r.s.ventas[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	v.TotalDepositado = totalDepositado
	v.SaldoRestante = saldo
	r.s.ventas[id] = v
	return nil
}

func (r *memVentas) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.s.ventas[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	for _, v := range r.s.ventas {
		if v.VentaOrigenID != nil && *v.VentaOrigenID == id {
			return gorm.ErrForeignKeyViolated
		}
	}
	for did, d := range r.s.depositos {
		if d.VentaID == id {
			delete(r.s.depositos, did)
		}
	}
	delete(r.s.ventas, id)
	return nil
}

func (r *memVentas) CountByCliente(_ context.Context, clienteID uuid.UUID) (int64, error) {
	var n int64
	for _, v := range r.s.ventas {
		if v.ClienteID == clienteID {
			n++
		}
	}
	return n, nil
}

func (r *memVentas) FindMigrada(_ context.Context, origenID uuid.UUID) (*model.Venta, error) {
	for _, v := range r.s.ventas {
		if v.VentaOrigenID != nil && *v.VentaOrigenID == origenID {
			return &v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memVentas) ListConSaldo(_ context.Context, periodoID uuid.UUID) ([]model.Venta, error) {
	var out []model.Venta
	for _, v := range r.s.ventas {
		if v.PeriodoID == periodoID && v.SaldoRestante.IsPositive() && v.Estado != model.VentaCancelada {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NumeroVenta < out[j].NumeroVenta })
	return out, nil
}

func (r *memVentas) ListParaReporte(_ context.Context, scope repository.ReporteScope) ([]model.Venta, error) {
	var out []model.Venta
	for _, v := range r.s.ventas {
		if scope.PeriodoID != nil {
			if v.PeriodoID != *scope.PeriodoID {
				continue
			}
		} else if v.FechaVenta.Before(scope.Desde) || v.FechaVenta.After(scope.Hasta) {
			continue
		}
		out = append(out, *r.cargar(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NumeroVenta < out[j].NumeroVenta })
	return out, nil
}

// ── Depositos ────────────────────────────────────────────────────────────────

type memDepositos struct{ s *memStore }

func depositosDe(s *memStore, ventaID uuid.UUID) []model.Deposito {
	out := []model.Deposito{}
	for _, d := range s.depositos {
		if d.VentaID == ventaID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FechaDeposito.Equal(out[j].FechaDeposito) {
			return out[i].FechaDeposito.Before(out[j].FechaDeposito)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *memDepositos) Create(_ context.Context, d *model.Deposito) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if _, ok := r.s.ventas[d.VentaID]; !ok {
		return gorm.ErrForeignKeyViolated
	}
	d.CreatedAt = r.s.tick()
	r.s.depositos[d.ID] = *d
	return nil
}

func (r *memDepositos) FindByID(_ context.Context, id uuid.UUID) (*model.Deposito, error) {
	d, ok := r.s.depositos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &d, nil
}

func (r *memDepositos) ListByVenta(_ context.Context, ventaID uuid.UUID) ([]model.Deposito, error) {
	return depositosDe(r.s, ventaID), nil
}

func (r *memDepositos) Update(_ context.Context, d *model.Deposito) error {
	if _, ok := r.s.depositos[d.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.s.depositos[d.ID] = *d
	return nil
}

func (r *memDepositos) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.s.depositos[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.depositos, id)
	return nil
}

func (r *memDepositos) SumByVenta(_ context.Context, ventaID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, d := range r.s.depositos {
		if d.VentaID == ventaID {
			total = total.Add(d.Monto)
		}
	}
	return total, nil
}

// ── Periodos ─────────────────────────────────────────────────────────────────

type memPeriodos struct{ s *memStore }

func (r *memPeriodos) Create(_ context.Context, p *model.PeriodoContable) error {
	if p.Activo {
		for _, o := range r.s.periodos {
			if o.Activo {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = r.s.tick()
	r.s.periodos[p.ID] = *p
	return nil
}

func (r *memPeriodos) FindByID(_ context.Context, id uuid.UUID) (*model.PeriodoContable, error) {
	p, ok := r.s.periodos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *memPeriodos) FindByIDForShare(ctx context.Context, id uuid.UUID) (*model.PeriodoContable, error) {
	return r.FindByID(ctx, id)
}

func (r *memPeriodos) FindActivo(_ context.Context) (*model.PeriodoContable, error) {
	for _, p := range r.s.periodos {
		if p.Activo {
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memPeriodos) FindActivoForShare(ctx context.Context) (*model.PeriodoContable, error) {
	return r.FindActivo(ctx)
}

func (r *memPeriodos) FindActivoForUpdate(ctx context.Context) (*model.PeriodoContable, error) {
	return r.FindActivo(ctx)
}

func (r *memPeriodos) List(_ context.Context) ([]model.PeriodoContable, error) {
	out := make([]model.PeriodoContable, 0, len(r.s.periodos))
	for _, p := range r.s.periodos {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FechaInicio.After(out[j].FechaInicio) })
	return out, nil
}

func (r *memPeriodos) Cerrar(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	p, ok := r.s.periodos[id]
	if !ok || !p.Activo || r.s.perderCierre {
		return false, nil
	}
	p.Activo = false
	p.CerradoAt = &at
	r.s.periodos[id] = p
	return true, nil
}

// ── Clientes ─────────────────────────────────────────────────────────────────

type memClientes struct{ s *memStore }

func (r *memClientes) Create(_ context.Context, c *model.Cliente) error {
	for _, o := range r.s.clientes {
		if o.Expediente == c.Expediente {
			return gorm.ErrDuplicatedKey
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = r.s.tick()
	r.s.clientes[c.ID] = *c
	return nil
}

func (r *memClientes) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	c, ok := r.s.clientes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *memClientes) FindByExpediente(_ context.Context, expediente string) (*model.Cliente, error) {
	for _, c := range r.s.clientes {
		if c.Expediente == expediente {
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memClientes) List(_ context.Context, f dto.ClienteFilter) ([]model.Cliente, int64, error) {
	var out []model.Cliente
	q := strings.ToLower(f.Buscar)
	for _, c := range r.s.clientes {
		if q != "" && !strings.Contains(strings.ToLower(c.Nombre), q) && !strings.Contains(strings.ToLower(c.Expediente), q) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, int64(len(out)), nil
}

func (r *memClientes) Update(_ context.Context, c *model.Cliente) error {
	if _, ok := r.s.clientes[c.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.s.clientes[c.ID] = *c
	return nil
}

func (r *memClientes) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.s.clientes[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	for _, v := range r.s.ventas {
		if v.ClienteID == id {
			return gorm.ErrForeignKeyViolated
		}
	}
	for gid, g := range r.s.graduaciones {
		if g.ClienteID == id {
			delete(r.s.graduaciones, gid)
		}
	}
	delete(r.s.clientes, id)
	return nil
}

// ── Graduaciones ─────────────────────────────────────────────────────────────

type memGraduaciones struct{ s *memStore }

func (r *memGraduaciones) Create(_ context.Context, g *model.Graduacion) error {
	for _, o := range r.s.graduaciones {
		if o.ClienteID == g.ClienteID && o.Tipo == g.Tipo {
			return gorm.ErrDuplicatedKey
		}
	}
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	r.s.graduaciones[g.ID] = *g
	return nil
}

func (r *memGraduaciones) FindByID(_ context.Context, id uuid.UUID) (*model.Graduacion, error) {
	g, ok := r.s.graduaciones[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &g, nil
}

func (r *memGraduaciones) FindByClienteTipo(_ context.Context, clienteID uuid.UUID, tipo string) (*model.Graduacion, error) {
	for _, g := range r.s.graduaciones {
		if g.ClienteID == clienteID && g.Tipo == tipo {
			return &g, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memGraduaciones) ListByCliente(_ context.Context, clienteID uuid.UUID) ([]model.Graduacion, error) {
	out := []model.Graduacion{}
	for _, g := range r.s.graduaciones {
		if g.ClienteID == clienteID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tipo > out[j].Tipo })
	return out, nil
}

func (r *memGraduaciones) Update(_ context.Context, g *model.Graduacion) error {
	if _, ok := r.s.graduaciones[g.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.s.graduaciones[g.ID] = *g
	return nil
}

func (r *memGraduaciones) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.s.graduaciones[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.graduaciones, id)
	return nil
}

var (
	_ repository.VentaRepository      = (*memVentas)(nil)
	_ repository.DepositoRepository   = (*memDepositos)(nil)
	_ repository.PeriodoRepository    = (*memPeriodos)(nil)
	_ repository.ClienteRepository    = (*memClientes)(nil)
	_ repository.GraduacionRepository = (*memGraduaciones)(nil)
)

// ── Fixtures ─────────────────────────────────────────────────────────────────

func fixedClock(y int, m time.Month, d int) func() time.Time {
	return func() time.Time { return time.Date(y, m, d, 10, 30, 0, 0, time.UTC) }
}

func (s *memStore) seedCliente(expediente, nombre string) model.Cliente {
	c := model.Cliente{Expediente: expediente, Nombre: nombre}
	if err := s.clienteRepo().Create(context.Background(), &c); err != nil {
		panic(err)
	}
	return c
}

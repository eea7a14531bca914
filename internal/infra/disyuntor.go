package infra

import (
	"errors"
	"sync"
	"time"
)

// ── Disyuntor ────────────────────────────────────────────────────────────────
// Circuit breaker around the SMTP relay. After FallosParaAbrir consecutive
// failures every send fails fast with ErrDisyuntorAbierto until Espera has
// passed; then a single trial send is let through. ExitosParaCerrar successful
// trial sends close it again, one failed trial reopens it.

type EstadoDisyuntor int

const (
	DisyuntorCerrado EstadoDisyuntor = iota
	DisyuntorAbierto
	DisyuntorSemiabierto
)

func (e EstadoDisyuntor) String() string {
	switch e {
	case DisyuntorCerrado:
		return "cerrado"
	case DisyuntorAbierto:
		return "abierto"
	case DisyuntorSemiabierto:
		return "semiabierto"
	}
	return "desconocido"
}

var ErrDisyuntorAbierto = errors.New("disyuntor abierto: servidor de correo no disponible")

type DisyuntorConfig struct {
	FallosParaAbrir  int
	ExitosParaCerrar int
	Espera           time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// DisyuntorSMTP is the configuration used by the Mailer.
func DisyuntorSMTP() DisyuntorConfig {
	return DisyuntorConfig{FallosParaAbrir: 5, ExitosParaCerrar: 2, Espera: time.Minute}
}

type Disyuntor struct {
	cfg DisyuntorConfig

	mu           sync.Mutex
	fallos       int
	exitos       int
	abiertoHasta time.Time
	sondeando    bool
	semiabierto  bool
}

func NewDisyuntor(cfg DisyuntorConfig) *Disyuntor {
	if cfg.FallosParaAbrir <= 0 {
		cfg.FallosParaAbrir = 5
	}
	if cfg.ExitosParaCerrar <= 0 {
		cfg.ExitosParaCerrar = 2
	}
	if cfg.Espera <= 0 {
		cfg.Espera = time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Disyuntor{cfg: cfg}
}

// Estado is read by the health endpoint.
func (d *Disyuntor) Estado() EstadoDisyuntor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.estado()
}

func (d *Disyuntor) estado() EstadoDisyuntor {
	switch {
	case d.semiabierto:
		return DisyuntorSemiabierto
	case d.abiertoHasta.IsZero():
		return DisyuntorCerrado
	case d.cfg.Now().Before(d.abiertoHasta):
		return DisyuntorAbierto
	}
	return DisyuntorSemiabierto
}

// Ejecutar runs fn unless the breaker is open. While half-open only one call
// at a time gets through; concurrent callers get ErrDisyuntorAbierto.
func (d *Disyuntor) Ejecutar(fn func() error) error {
	d.mu.Lock()
	estado := d.estado()
	if estado == DisyuntorAbierto || (estado == DisyuntorSemiabierto && d.sondeando) {
		d.mu.Unlock()
		return ErrDisyuntorAbierto
	}
	if estado == DisyuntorSemiabierto {
		d.semiabierto = true
		d.sondeando = true
	}
	d.mu.Unlock()

	err := fn()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.sondeando = false
	if err != nil {
		d.registrarFallo()
		return err
	}
	d.registrarExito()
	return nil
}

func (d *Disyuntor) registrarFallo() {
	d.exitos = 0
	if d.semiabierto {
		d.abrir()
		return
	}
	d.fallos++
	if d.fallos >= d.cfg.FallosParaAbrir {
		d.abrir()
	}
}

func (d *Disyuntor) registrarExito() {
	if !d.semiabierto {
		d.fallos = 0
		return
	}
	d.exitos++
	if d.exitos >= d.cfg.ExitosParaCerrar {
		d.fallos, d.exitos = 0, 0
		d.semiabierto = false
		d.abiertoHasta = time.Time{}
	}
}

func (d *Disyuntor) abrir() {
	d.fallos = 0
	d.semiabierto = false
	d.abiertoHasta = d.cfg.Now().Add(d.cfg.Espera)
}

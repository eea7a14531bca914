package infra

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// IntentosStore counts login attempts per key (the caller's address) inside a
// fixed window that starts at the first attempt.
type IntentosStore interface {
	// Registrar adds one attempt and returns the count in the current window.
	// The increment and the read are a single step.
	Registrar(ctx context.Context, clave string) (int, error)
	// Reiniciar forgets every attempt for clave.
	Reiniciar(ctx context.Context, clave string) error
}

// ── Memoria ──────────────────────────────────────────────────────────────────

type intentoEntry struct {
	count     int
	windowEnd time.Time
}

// MemoriaIntentos is the single-process IntentosStore. Each router gets its own
// instance; nothing is package-global.
type MemoriaIntentos struct {
	mu      sync.Mutex
	entries map[string]*intentoEntry
	ventana time.Duration
	now     func() time.Time
}

func NewMemoriaIntentos(ventana time.Duration, now func() time.Time) *MemoriaIntentos {
	if now == nil {
		now = time.Now
	}
	return &MemoriaIntentos{entries: make(map[string]*intentoEntry), ventana: ventana, now: now}
}

func (m *MemoriaIntentos) Registrar(_ context.Context, clave string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e, ok := m.entries[clave]
	if !ok || !now.Before(e.windowEnd) {
		e = &intentoEntry{windowEnd: now.Add(m.ventana)}
		m.entries[clave] = e
	}
	e.count++
	return e.count, nil
}

func (m *MemoriaIntentos) Reiniciar(_ context.Context, clave string) error {
	m.mu.Lock()
	delete(m.entries, clave)
	m.mu.Unlock()
	return nil
}

// Purgar drops expired windows and returns how many were removed.
func (m *MemoriaIntentos) Purgar() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	purged := 0
	for k, e := range m.entries {
		if !now.Before(e.windowEnd) {
			delete(m.entries, k)
			purged++
		}
	}
	return purged
}

// IniciarPurga runs Purgar every interval until ctx is cancelled.
func (m *MemoriaIntentos) IniciarPurga(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.Purgar(); n > 0 {
					log.Debug().Int("purged", n).Msg("intentos de login expirados eliminados")
				}
			}
		}
	}()
}

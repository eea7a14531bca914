package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"visionallende/internal/apierror"
	"visionallende/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ── Login rate limiter ────────────────────────────────────────────────────────

// LoginRateLimiter wraps the login handler. Every attempt is counted before
// the handler runs, so parallel requests cannot all slip under the cap: the
// attempt past max inside the store's window gets 429 without reaching the
// handler. A successful login (200) clears the count.
// Store errors fail open: the login itself still checks credentials.
func LoginRateLimiter(store infra.IntentosStore, max int, ventana time.Duration) gin.HandlerFunc {
	minutos := int(ventana.Minutes())
	return func(c *gin.Context) {
		ip := c.ClientIP()
		ctx := c.Request.Context()

		n, err := store.Registrar(ctx, ip)
		if err != nil {
			log.Warn().Err(err).Str("ip", ip).Msg("login limiter: store unavailable")
		} else if n > max {
			if n == max+1 {
				log.Warn().Str("ip", ip).Int("intentos", n).Msg("login bloqueado por intentos fallidos")
			}
			c.Header("Retry-After", fmt.Sprintf("%d", int(ventana.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(
				fmt.Sprintf("Demasiados intentos de inicio de sesión. Intente nuevamente en %d minutos.", minutos)))
			return
		}

		c.Next()

		if c.Writer.Status() == http.StatusOK {
			if err := store.Reiniciar(ctx, ip); err != nil {
				log.Warn().Err(err).Str("ip", ip).Msg("login limiter: reset failed")
			}
		}
	}
}

// ── General API rate limiter ──────────────────────────────────────────────────

type rateEntry struct {
	count     int
	windowEnd time.Time
}

// APIRateLimiter is a fixed-window per-IP limiter for the whole API.
type APIRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*rateEntry
	limit   int
	window  time.Duration
	now     func() time.Time
}

func NewAPIRateLimiter(limit int, window time.Duration) *APIRateLimiter {
	return &APIRateLimiter{entries: make(map[string]*rateEntry), limit: limit, window: window, now: time.Now}
}

// allow counts one request for ip and reports whether it is within the limit.
func (l *APIRateLimiter) allow(ip string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[ip]
	if !ok || now.After(e.windowEnd) {
		e = &rateEntry{windowEnd: now.Add(l.window)}
		l.entries[ip] = e
	}
	e.count++
	return e.count <= l.limit, e.windowEnd
}

func (l *APIRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, windowEnd := l.allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", windowEnd.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Demasiadas solicitudes. Intente nuevamente en un momento."))
			return
		}
		c.Next()
	}
}

// ── Purge goroutine ───────────────────────────────────────────────────────────
// Removes expired windows so addresses that never return do not pile up.

const purgeInterval = 5 * time.Minute

func (l *APIRateLimiter) purge() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	purged := 0
	for ip, e := range l.entries {
		if now.After(e.windowEnd) {
			delete(l.entries, ip)
			purged++
		}
	}
	return purged
}

// StartPurge runs until ctx is cancelled.
func (l *APIRateLimiter) StartPurge(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := l.purge(); n > 0 {
					log.Debug().Int("api_entries_purged", n).Msg("rate limiter map purged")
				}
			}
		}
	}()
}

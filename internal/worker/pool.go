package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"visionallende/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueReportes = "jobs:reportes"

	JobReporte = "reporte"

	// MaxAttempts is how many times a job runs before it is dead-lettered.
	MaxAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Handler processes the payload of one job type. A returned error triggers
// a retry.
type Handler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EncolarReporte queues a spreadsheet to be built and mailed.
func (d *Dispatcher) EncolarReporte(ctx context.Context, req dto.EnviarReporteRequest) error {
	return d.enqueue(ctx, QueueReportes, JobReporte, ReporteJobPayload{
		Filtro:       req.ReporteFilter,
		Destinatario: req.Destinatario,
	})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Pool runs numWorkers goroutines blocked on BRPOP. Zero CPU when idle.
type Pool struct {
	rdb      *redis.Client
	dlq      *DLQ
	handlers map[string]Handler
	backoff  func(attempt int) time.Duration
	// pausa is the wait after the n-th consecutive Redis error.
	pausa func(fallos int) time.Duration
}

func NewPool(rdb *redis.Client, handlers map[string]Handler) *Pool {
	return &Pool{rdb: rdb, dlq: NewDLQ(rdb), handlers: handlers, backoff: backoffExponencial, pausa: pausaRedis}
}

// Start launches the workers; they stop when ctx is cancelled.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) run(ctx context.Context, id int) {
	fallos := 0
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, QueueReportes).Result()
			switch {
			case err == nil:
				fallos = 0
			case errors.Is(err, redis.Nil), ctx.Err() != nil:
				fallos = 0
				continue
			default:
				fallos++
				espera := p.pausa(fallos)
				log.Warn().Err(err).Int("worker", id).Dur("espera", espera).Msg("redis no disponible")
				select {
				case <-ctx.Done():
				case <-time.After(espera):
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.process(ctx, result[0], result[1])
		}
	}
}

func (p *Pool) process(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		p.dlq.Push(ctx, queue, "", json.RawMessage(raw), "payload invalido", 0)
		return
	}

	h, ok := p.handlers[job.Type]
	if !ok {
		p.dlq.Push(ctx, queue, job.Type, job.Payload, "sin handler para el tipo de job", 0)
		return
	}

	attempts, err := runWithRetry(ctx, MaxAttempts, p.backoff, func() error {
		return h.Process(ctx, job.Payload)
	})
	if err != nil {
		p.dlq.Push(ctx, queue, job.Type, job.Payload, err.Error(), attempts)
		return
	}
	log.Info().Str("type", job.Type).Int("attempts", attempts).Msg("job processed")
}

// runWithRetry calls fn up to maxAttempts times, sleeping backoff(n) before
// attempt n+1. It returns the number of attempts made and the last error.
func runWithRetry(ctx context.Context, maxAttempts int, backoff func(int) time.Duration, fn func() error) (int, error) {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return i, ctx.Err()
			case <-time.After(backoff(i)):
			}
		}
		if err := fn(); err != nil {
			lastErr = err
			log.Warn().Err(err).Int("attempt", i+1).Msg("job attempt failed")
			continue
		}
		return i + 1, nil
	}
	return maxAttempts, fmt.Errorf("%d intentos fallidos: %w", maxAttempts, lastErr)
}

// pausaRedis: 1s, 2s, 4s ... capped at 30s.
func pausaRedis(fallos int) time.Duration {
	if fallos > 5 {
		return 30 * time.Second
	}
	return backoffExponencial(fallos)
}

// backoffExponencial: 1s, 2s, 4s ...
func backoffExponencial(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt-1)) * time.Second
}

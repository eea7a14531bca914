package infra

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const intentosPrefix = "visionallende:login:"

// RedisIntentos shares the attempt counters between instances. The key
// expires with the window, so the first INCR sets the TTL.
type RedisIntentos struct {
	rdb     *redis.Client
	ventana time.Duration
}

func NewRedisIntentos(rdb *redis.Client, ventana time.Duration) *RedisIntentos {
	return &RedisIntentos{rdb: rdb, ventana: ventana}
}

func (r *RedisIntentos) Registrar(ctx context.Context, clave string) (int, error) {
	key := intentosPrefix + clave
	n, err := r.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := r.rdb.Expire(ctx, key, r.ventana).Err(); err != nil {
			return 0, err
		}
	}
	return int(n), nil
}

func (r *RedisIntentos) Reiniciar(ctx context.Context, clave string) error {
	return r.rdb.Del(ctx, intentosPrefix+clave).Err()
}

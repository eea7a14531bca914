package handler

import (
	"context"
	"net/http"
	"time"

	"visionallende/internal/infra"
	"visionallende/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks DB and Redis connectivity; never exposes credentials or internals.
// The mail breaker state and dead-letter backlog are informative only and do
// not change the status code.
func Health(db *gorm.DB, rdb *redis.Client, mailer *infra.Mailer) gin.HandlerFunc {
	dlq := worker.NewDLQ(rdb)
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus, redisStatus := "connected", "connected"
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(gctx)
			}
			if err != nil {
				dbStatus = "error"
			}
			return nil
		})
		g.Go(func() error {
			if err := rdb.Ping(gctx).Err(); err != nil {
				redisStatus = "error"
			}
			return nil
		})
		_ = g.Wait()

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		body := gin.H{
			"ok":    status == http.StatusOK,
			"db":    dbStatus,
			"redis": redisStatus,
		}
		if mailer != nil && mailer.Configurado() {
			body["smtp"] = mailer.Estado().String()
		}
		if redisStatus == "connected" {
			if n, err := dlq.Len(ctx, worker.QueueReportes); err == nil {
				body["reportes_fallidos"] = n
			}
		}
		c.JSON(status, body)
	}
}

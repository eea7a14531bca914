package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"visionallende/internal/config"
	"visionallende/internal/infra"
	"visionallende/internal/repository"
	"visionallende/internal/router"
	"visionallende/internal/service"
	"visionallende/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger. dev: pretty, prod: JSON
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if err := infra.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL, cfg.Env != "production")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	archivos := infra.NewArchivos(cfg.UploadDir, int64(cfg.MaxUploadMB)<<20)
	if err := archivos.Preparar(); err != nil {
		log.Fatal().Err(err).Msg("failed to prepare upload directory")
	}

	var intentos infra.IntentosStore
	switch cfg.RateLimitBackend {
	case "redis":
		intentos = infra.NewRedisIntentos(rdb, cfg.LoginVentana())
	default:
		mem := infra.NewMemoriaIntentos(cfg.LoginVentana(), time.Now)
		mem.IniciarPurga(ctx, time.Minute)
		intentos = mem
	}

	// Report mailing runs on the Redis worker pool; handlers are wired here
	// (composition root) so the pool sees the same services as the API.
	mailer := infra.NewMailer(cfg)
	if !mailer.Configurado() {
		log.Warn().Msg("SMTP_HOST vacío: el envío de reportes por email fallará")
	}
	reporteSvc := service.NewReporteService(repository.NewVentaRepository(db), repository.NewPeriodoRepository(db))
	pool := worker.NewPool(rdb, map[string]worker.Handler{
		worker.JobReporte: worker.NewReporteWorker(reporteSvc, mailer, cfg.ReporteEmailDestino),
	})
	pool.Start(ctx, cfg.WorkerPoolSize)

	r := router.New(ctx, cfg, router.Deps{
		DB:       db,
		Redis:    rdb,
		Mailer:   mailer,
		Archivos: archivos,
		Intentos: intentos,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("Vision Allende backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}

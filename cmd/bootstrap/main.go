// cmd/bootstrap creates the upload directories and applies migrations.
// Uso: go run ./cmd/bootstrap
package main

import (
	"os"
	"time"

	"visionallende/internal/config"
	"visionallende/internal/infra"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if err := infra.NewArchivos(cfg.UploadDir, int64(cfg.MaxUploadMB)<<20).Preparar(); err != nil {
		log.Fatal().Err(err).Msg("failed to create upload directories")
	}
	log.Info().Str("dir", cfg.UploadDir).Strs("categorias", infra.Categorias).Msg("directorios de archivos listos")

	if err := infra.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
}

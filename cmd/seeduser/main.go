// cmd/seeduser crea o actualiza un usuario (por defecto, el administrador).
// Uso: go run ./cmd/seeduser -username admin -password 'secreto123'
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"visionallende/internal/config"
	"visionallende/internal/dto"
	"visionallende/internal/infra"
	"visionallende/internal/model"
	"visionallende/internal/repository"
	"visionallende/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	username := flag.String("username", "admin", "nombre de usuario")
	password := flag.String("password", os.Getenv("SEED_PASSWORD"), "contraseña (mínimo 8 caracteres)")
	nombre := flag.String("nombre", "Administrador", "nombre para mostrar")
	rol := flag.String("rol", model.RolAdministrador, "administrador | optometrista | vendedor")
	flag.Parse()

	if len(*password) < 8 {
		log.Fatal().Msg("-password (o SEED_PASSWORD) debe tener al menos 8 caracteres")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL, false)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	svc := service.NewAuthService(repository.NewUsuarioRepository(db), cfg)
	u, creado, err := svc.GuardarUsuario(context.Background(), dto.CrearUsuarioRequest{
		Username: *username,
		Nombre:   *nombre,
		Password: *password,
		Rol:      *rol,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("no se pudo guardar el usuario")
	}

	accion := "actualizado"
	if creado {
		accion = "creado"
	}
	fmt.Printf("Usuario '%s' (%s) %s\n", u.Username, u.Rol, accion)
}

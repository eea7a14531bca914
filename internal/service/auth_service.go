package service

import (
	"context"
	"fmt"
	"time"

	"visionallende/internal/config"
	"visionallende/internal/dto"
	"visionallende/internal/model"
	"visionallende/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Me(ctx context.Context, userID uuid.UUID) (*dto.UsuarioResponse, error)
	CrearUsuario(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error)
	// GuardarUsuario creates the user or resets its password, name and role.
	GuardarUsuario(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, bool, error)
}

type authService struct {
	repo repository.UsuarioRepository
	cfg  *config.Config
	now  func() time.Time
}

func NewAuthService(repo repository.UsuarioRepository, cfg *config.Config) AuthService {
	return &authService{repo: repo, cfg: cfg, now: time.Now}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNoAutorizado("Credenciales inválidas")
		}
		return nil, fmt.Errorf("buscar usuario: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrNoAutorizado("Credenciales inválidas")
	}

	ttl := s.cfg.SessionTTL()
	token, err := s.generateToken(user, ttl)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token:     token,
		ExpiresIn: int(ttl.Seconds()),
		User:      usuarioToResponse(user),
	}, nil
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*dto.UsuarioResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNoAutorizado("Sesión inválida")
		}
		return nil, fmt.Errorf("buscar usuario: %w", err)
	}
	if !user.Activo {
		return nil, ErrNoAutorizado("Usuario inactivo")
	}
	resp := usuarioToResponse(user)
	return &resp, nil
}

func (s *authService) CrearUsuario(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &model.Usuario{
		Username:     req.Username,
		Nombre:       req.Nombre,
		PasswordHash: string(hash),
		Rol:          req.Rol,
		Activo:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrCampo("username", "El nombre de usuario ya existe")
		}
		return nil, fmt.Errorf("crear usuario: %w", err)
	}
	resp := usuarioToResponse(user)
	return &resp, nil
}

func (s *authService) GuardarUsuario(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, bool, error) {
	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if !repository.IsNotFound(err) {
			return nil, false, fmt.Errorf("buscar usuario: %w", err)
		}
		resp, err := s.CrearUsuario(ctx, req)
		return resp, true, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, false, err
	}
	user.PasswordHash = string(hash)
	user.Nombre = req.Nombre
	user.Rol = req.Rol
	user.Activo = true
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, false, fmt.Errorf("actualizar usuario: %w", err)
	}
	resp := usuarioToResponse(user)
	return &resp, false, nil
}

func (s *authService) generateToken(user *model.Usuario, duration time.Duration) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id":  user.ID.String(),
		"username": user.Username,
		"rol":      user.Rol,
		"exp":      now.Add(duration).Unix(),
		"iat":      now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func usuarioToResponse(u *model.Usuario) dto.UsuarioResponse {
	return dto.UsuarioResponse{
		ID:       u.ID.String(),
		Username: u.Username,
		Nombre:   u.Nombre,
		Rol:      u.Rol,
		Activo:   u.Activo,
	}
}

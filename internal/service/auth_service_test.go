package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"visionallende/internal/config"
	"visionallende/internal/dto"
	"visionallende/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubUsuarioRepo struct {
	users map[uuid.UUID]*model.Usuario
}

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{users: map[uuid.UUID]*model.Usuario{}}
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	for _, o := range r.users {
		if strings.EqualFold(o.Username, u.Username) {
			return gorm.ErrDuplicatedKey
		}
	}
	u.ID = uuid.New()
	r.users[u.ID] = u
	return nil
}

func (r *stubUsuarioRepo) FindByUsername(_ context.Context, username string) (*model.Usuario, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) && u.Activo {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUsuarioRepo) Update(_ context.Context, u *model.Usuario) error {
	r.users[u.ID] = u
	return nil
}

const testSecret = "test_jwt_secret_32_chars_minimum!"

func newAuthForTest(t *testing.T) (AuthService, *stubUsuarioRepo) {
	t.Helper()
	repo := newStubUsuarioRepo()
	svc := NewAuthService(repo, &config.Config{JWTSecret: testSecret, SessionHours: 12})
	_, err := svc.CrearUsuario(context.Background(), dto.CrearUsuarioRequest{
		Username: "Optica", Nombre: "Mostrador", Password: "clave-segura", Rol: model.RolVendedor,
	})
	require.NoError(t, err)
	return svc, repo
}

func TestLogin_EmiteTokenHS256(t *testing.T) {
	svc, _ := newAuthForTest(t)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "optica", Password: "clave-segura"})
	require.NoError(t, err)
	assert.Equal(t, int((12 * time.Hour).Seconds()), resp.ExpiresIn)
	assert.Equal(t, model.RolVendedor, resp.User.Rol)

	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(resp.Token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	assert.True(t, tok.Valid)
	assert.Equal(t, resp.User.ID, claims["user_id"])
	assert.Equal(t, "Optica", claims["username"])
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	svc, _ := newAuthForTest(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, dto.LoginRequest{Username: "optica", Password: "otra-clave"})
	assert.True(t, IsKind(err, KindUnauthorized))

	_, err = svc.Login(ctx, dto.LoginRequest{Username: "nadie", Password: "clave-segura"})
	assert.True(t, IsKind(err, KindUnauthorized))
}

func TestCrearUsuario_Duplicado(t *testing.T) {
	svc, _ := newAuthForTest(t)

	_, err := svc.CrearUsuario(context.Background(), dto.CrearUsuarioRequest{
		Username: "OPTICA", Nombre: "Otro", Password: "12345678", Rol: model.RolVendedor,
	})
	se, ok := AsError(err)
	require.True(t, ok)
	assert.Contains(t, se.Fields, "username")
}

func TestGuardarUsuario_ActualizaExistente(t *testing.T) {
	svc, repo := newAuthForTest(t)
	ctx := context.Background()

	u, creado, err := svc.GuardarUsuario(ctx, dto.CrearUsuarioRequest{
		Username: "optica", Nombre: "Dueña", Password: "nueva-clave", Rol: model.RolAdministrador,
	})
	require.NoError(t, err)
	assert.False(t, creado)
	assert.Equal(t, model.RolAdministrador, u.Rol)
	assert.Len(t, repo.users, 1)

	_, err = svc.Login(ctx, dto.LoginRequest{Username: "optica", Password: "nueva-clave"})
	assert.NoError(t, err)

	_, creado, err = svc.GuardarUsuario(ctx, dto.CrearUsuarioRequest{
		Username: "admin", Nombre: "Admin", Password: "admin-clave", Rol: model.RolAdministrador,
	})
	require.NoError(t, err)
	assert.True(t, creado)
}

func TestMe(t *testing.T) {
	svc, repo := newAuthForTest(t)
	var id uuid.UUID
	for k := range repo.users {
		id = k
	}

	me, err := svc.Me(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Mostrador", me.Nombre)

	repo.users[id].Activo = false
	_, err = svc.Me(context.Background(), id)
	assert.True(t, IsKind(err, KindUnauthorized))

	_, err = svc.Me(context.Background(), uuid.New())
	assert.True(t, IsKind(err, KindUnauthorized))
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secretoPrueba = "secreto-de-pruebas"

func init() { gin.SetMode(gin.TestMode) }

func firmar(t *testing.T, method jwt.SigningMethod, secret string, claims JWTClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func claimsValidos(rol string) JWTClaims {
	return JWTClaims{
		UserID:   uuid.NewString(),
		Username: "ana",
		Rol:      rol,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func routerProtegido(roles ...string) *gin.Engine {
	r := gin.New()
	handlers := []gin.HandlerFunc{JWTAuth(secretoPrueba)}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, GetClaims(c).Username)
	})
	r.GET("/privado", handlers...)
	return r
}

func TestJWTAuth(t *testing.T) {
	valido := firmar(t, jwt.SigningMethodHS256, secretoPrueba, claimsValidos("vendedor"))

	expirado := claimsValidos("vendedor")
	expirado.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	sinUsuario := claimsValidos("vendedor")
	sinUsuario.UserID = "no-uuid"

	cases := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: SessionCookie, Value: valido})
		}, http.StatusOK},
		{"bearer", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+valido)
		}, http.StatusOK},
		{"sin token", func(r *http.Request) {}, http.StatusUnauthorized},
		{"esquema incorrecto", func(r *http.Request) {
			r.Header.Set("Authorization", "Basic "+valido)
		}, http.StatusUnauthorized},
		{"expirado", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+firmar(t, jwt.SigningMethodHS256, secretoPrueba, expirado))
		}, http.StatusUnauthorized},
		{"otro secreto", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+firmar(t, jwt.SigningMethodHS256, "otro", claimsValidos("vendedor")))
		}, http.StatusUnauthorized},
		{"otro algoritmo", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+firmar(t, jwt.SigningMethodHS512, secretoPrueba, claimsValidos("vendedor")))
		}, http.StatusUnauthorized},
		{"usuario malformado", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+firmar(t, jwt.SigningMethodHS256, secretoPrueba, sinUsuario))
		}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/privado", nil)
			tc.setup(req)
			w := httptest.NewRecorder()
			routerProtegido().ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "ana", w.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	r := routerProtegido("administrador")

	for rol, status := range map[string]int{"administrador": http.StatusOK, "vendedor": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/privado", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: firmar(t, jwt.SigningMethodHS256, secretoPrueba, claimsValidos(rol))})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, status, w.Code, rol)
	}
}

func TestParseToken_DevuelveClaims(t *testing.T) {
	c := claimsValidos("optometrista")
	claims, err := ParseToken(firmar(t, jwt.SigningMethodHS256, secretoPrueba, c), secretoPrueba)
	require.NoError(t, err)
	assert.Equal(t, c.UserID, claims.UsuarioID().String())
	assert.Equal(t, "optometrista", claims.Rol)
}

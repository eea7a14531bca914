//go:build integration

package router_test

// End-to-end tests against real Postgres and Redis containers.
// Run with: go test -tags integration ./internal/router/... -v
// An optional .env.test may set POSTGRES_IMAGE / REDIS_IMAGE.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"visionallende/internal/config"
	"visionallende/internal/dto"
	"visionallende/internal/infra"
	"visionallende/internal/repository"
	"visionallende/internal/router"
	"visionallende/internal/service"
	"visionallende/internal/worker"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	token  string // admin session
	rdb    *redis.Client
	db     *gorm.DB
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	_ = godotenv.Load("../../.env.test")
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	pgC, err := tcPostgres.Run(ctx, envOr("POSTGRES_IMAGE", "postgres:16-alpine"),
		tcPostgres.WithDatabase("visionallende_test"),
		tcPostgres.WithUsername("vision"),
		tcPostgres.WithPassword("vision"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(context.Background()) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, envOr("REDIS_IMAGE", "redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(context.Background()) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                 "test",
		CORSOrigin:          "http://localhost:5173",
		APIRateLimit:        1000,
		DatabaseURL:         pgURL,
		RedisURL:            rdURL,
		JWTSecret:           "test-secret-key",
		SessionHours:        8,
		LoginMaxIntentos:    5,
		LoginVentanaMinutos: 15,
		RateLimitBackend:    "redis",
		UploadDir:           t.TempDir(),
		MaxUploadMB:         1,
		CierreDiaDesde:      5,
		CierreDiaHasta:      10,
	}

	require.NoError(t, infra.RunMigrations(cfg.DatabaseURL))
	db, err := infra.NewDatabase(cfg.DatabaseURL, false)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	archivos := infra.NewArchivos(cfg.UploadDir, int64(cfg.MaxUploadMB)<<20)
	require.NoError(t, archivos.Preparar())

	authSvc := service.NewAuthService(repository.NewUsuarioRepository(db), cfg)
	_, _, err = authSvc.GuardarUsuario(ctx, dto.CrearUsuarioRequest{
		Username: "admin", Nombre: "Admin E2E", Password: "vision-2026", Rol: "administrador",
	})
	require.NoError(t, err)

	r := router.New(ctx, cfg, router.Deps{
		DB:       db,
		Redis:    rdb,
		Mailer:   infra.NewMailer(cfg),
		Archivos: archivos,
		Intentos: infra.NewRedisIntentos(rdb, cfg.LoginVentana()),
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin", "password": "vision-2026"}), "")
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var login dto.LoginResponse
	decodeJSON(t, loginResp, &login)
	require.NotEmpty(t, login.Token)

	return &testEnv{server: srv, token: login.Token, rdb: rdb, db: db}
}

func crearCliente(t *testing.T, env *testEnv, expediente string) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/clientes",
		jsonBody(t, map[string]any{"expediente": expediente, "nombre": "Ana Ruiz", "peso": "64", "altura": "1.68"}),
		env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var c dto.ClienteResponse
	decodeJSON(t, resp, &c)
	return c.ID
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_LedgerYCierre(t *testing.T) {
	env := setupTestEnv(t)
	clienteID := crearCliente(t, env, "EXP-100")

	// Duplicate expediente points at the existing client.
	dup := do(t, env.server, "POST", "/v1/clientes",
		jsonBody(t, map[string]any{"expediente": "EXP-100", "nombre": "Otra Persona"}), env.token)
	require.Equal(t, http.StatusConflict, dup.StatusCode)
	var conflicto struct {
		ExistingID string `json:"existing_id"`
	}
	decodeJSON(t, dup, &conflicto)
	assert.Equal(t, clienteID, conflicto.ExistingID)

	// 1. Sale with an initial deposit
	ventaResp := do(t, env.server, "POST", "/v1/ventas", jsonBody(t, map[string]any{
		"cliente_id":       clienteID,
		"precio_armazon":   "800.00",
		"precio_micas":     450,
		"deposito_inicial": "250.50",
		"metodo_pago":      "tarjeta",
	}), env.token)
	require.Equal(t, http.StatusCreated, ventaResp.StatusCode)
	var venta dto.VentaResponse
	decodeJSON(t, ventaResp, &venta)
	assert.True(t, dec("1250").Equal(venta.CostoTotal))
	assert.True(t, dec("999.50").Equal(venta.SaldoRestante))

	// 2. More deposits; overpaying is rejected
	ok := do(t, env.server, "POST", "/v1/ventas/"+venta.ID+"/depositos",
		jsonBody(t, map[string]any{"monto": "499.50", "metodo_pago": "efectivo"}), env.token)
	require.Equal(t, http.StatusCreated, ok.StatusCode)
	ok.Body.Close()

	excede := do(t, env.server, "POST", "/v1/ventas/"+venta.ID+"/depositos",
		jsonBody(t, map[string]any{"monto": "500.01", "metodo_pago": "efectivo"}), env.token)
	assert.Equal(t, http.StatusUnprocessableEntity, excede.StatusCode)
	excede.Body.Close()

	getResp := do(t, env.server, "GET", "/v1/ventas/"+venta.ID, nil, env.token)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	decodeJSON(t, getResp, &venta)
	assert.True(t, dec("750").Equal(venta.TotalDepositado))
	assert.True(t, dec("500").Equal(venta.SaldoRestante))
	assert.Len(t, venta.Depositos, 2)

	// 3. Report of the active period
	activoResp := do(t, env.server, "GET", "/v1/periodos/activo", nil, env.token)
	require.Equal(t, http.StatusOK, activoResp.StatusCode)
	var activo dto.PeriodoActivoResponse
	decodeJSON(t, activoResp, &activo)

	repResp := do(t, env.server, "GET", "/v1/reportes?periodo_id="+activo.Periodo.ID, nil, env.token)
	require.Equal(t, http.StatusOK, repResp.StatusCode)
	var rep dto.ReporteData
	decodeJSON(t, repResp, &rep)
	assert.Equal(t, 1, rep.Resumen.CantidadVentas)
	assert.True(t, dec("750").Equal(rep.Resumen.TotalDepositado))
	assert.True(t, dec("500").Equal(rep.Resumen.SaldoPendiente))

	// 4. Forced close migrates the pending balance
	cierreResp := do(t, env.server, "POST", "/v1/periodos/cerrar?forzar=true", nil, env.token)
	require.Equal(t, http.StatusOK, cierreResp.StatusCode)
	var cierre dto.CierrePeriodoResponse
	decodeJSON(t, cierreResp, &cierre)
	assert.Equal(t, activo.Periodo.ID, cierre.PeriodoCerrado.ID)
	assert.True(t, cierre.PeriodoNuevo.Activo)
	require.Len(t, cierre.VentasMigradas, 1)
	assert.Equal(t, venta.ID, cierre.VentasMigradas[0].VentaOrigenID)
	assert.True(t, dec("500").Equal(cierre.TotalMigrado))

	nuevaResp := do(t, env.server, "GET", "/v1/ventas/"+cierre.VentasMigradas[0].VentaNuevaID, nil, env.token)
	require.Equal(t, http.StatusOK, nuevaResp.StatusCode)
	var nueva dto.VentaResponse
	decodeJSON(t, nuevaResp, &nueva)
	assert.Equal(t, cierre.PeriodoNuevo.ID, nueva.PeriodoID)
	assert.True(t, dec("500").Equal(nueva.SaldoRestante))
	require.NotNil(t, nueva.VentaOrigenID)
	assert.Equal(t, venta.ID, *nueva.VentaOrigenID)

	// The original sale is untouched.
	origResp := do(t, env.server, "GET", "/v1/ventas/"+venta.ID, nil, env.token)
	require.Equal(t, http.StatusOK, origResp.StatusCode)
	var orig dto.VentaResponse
	decodeJSON(t, origResp, &orig)
	assert.True(t, dec("500").Equal(orig.SaldoRestante))
	assert.Equal(t, activo.Periodo.ID, orig.PeriodoID)

	// The closed period's sale no longer takes payments; its copy does.
	cerrada := do(t, env.server, "POST", "/v1/ventas/"+venta.ID+"/depositos",
		jsonBody(t, map[string]any{"monto": "500", "metodo_pago": "efectivo"}), env.token)
	assert.Equal(t, http.StatusConflict, cerrada.StatusCode)
	cerrada.Body.Close()

	pago := do(t, env.server, "POST", "/v1/ventas/"+nueva.ID+"/depositos",
		jsonBody(t, map[string]any{"monto": "500", "metodo_pago": "efectivo"}), env.token)
	assert.Equal(t, http.StatusCreated, pago.StatusCode)
	pago.Body.Close()
}

func TestE2E_EnviarReporteEncola(t *testing.T) {
	env := setupTestEnv(t)

	resp := do(t, env.server, "POST", "/v1/reportes/enviar", jsonBody(t, map[string]any{
		"desde": "2026-03-01", "hasta": "2026-03-31", "destinatario": "contador@optica.mx",
	}), env.token)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	n, err := env.rdb.LLen(context.Background(), worker.QueueReportes).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestE2E_LoginBloqueadoEnRedis(t *testing.T) {
	env := setupTestEnv(t)

	for i := 0; i < 5; i++ {
		resp := do(t, env.server, "POST", "/v1/auth/login",
			jsonBody(t, map[string]string{"username": "admin", "password": "incorrecta"}), "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	}

	resp := do(t, env.server, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin", "password": "vision-2026"}), "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	resp.Body.Close()
}

func TestE2E_SinSesion(t *testing.T) {
	env := setupTestEnv(t)

	resp := do(t, env.server, "GET", "/v1/ventas", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	health := do(t, env.server, "GET", "/health", nil, "")
	assert.Equal(t, http.StatusOK, health.StatusCode)
	health.Body.Close()
}

type mailerCapturador struct {
	enviados chan infra.Adjunto
}

func (m *mailerCapturador) EnviarReporte(_, _, _ string, adjunto infra.Adjunto) error {
	m.enviados <- adjunto
	return nil
}

type handlerRoto struct{}

func (handlerRoto) Process(context.Context, json.RawMessage) error {
	return errors.New("smtp 421")
}

func TestE2E_PoolProcesaYDeadLetter(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reportes := service.NewReporteService(repository.NewVentaRepository(env.db), repository.NewPeriodoRepository(env.db))
	mailer := &mailerCapturador{enviados: make(chan infra.Adjunto, 1)}
	worker.NewPool(env.rdb, map[string]worker.Handler{
		worker.JobReporte: worker.NewReporteWorker(reportes, mailer, "contador@optica.mx"),
	}).Start(ctx, 1)

	disp := worker.NewDispatcher(env.rdb)
	require.NoError(t, disp.EncolarReporte(ctx, dto.EnviarReporteRequest{
		ReporteFilter: dto.ReporteFilter{Desde: "2026-03-01", Hasta: "2026-03-31", Completo: true},
	}))

	select {
	case adjunto := <-mailer.enviados:
		assert.Equal(t, "reporte_2026-03-01_2026-03-31.xlsx", adjunto.Nombre)
		assert.NotEmpty(t, adjunto.Contenido)
	case <-time.After(15 * time.Second):
		t.Fatal("el reporte no se envió")
	}
	cancel()

	// A handler that always fails ends in the dead-letter list after 3 attempts.
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	worker.NewPool(env.rdb, map[string]worker.Handler{worker.JobReporte: handlerRoto{}}).Start(ctx2, 1)
	require.NoError(t, disp.EncolarReporte(ctx2, dto.EnviarReporteRequest{}))

	dlq := worker.NewDLQ(env.rdb)
	require.Eventually(t, func() bool {
		n, err := dlq.Len(ctx2, worker.QueueReportes)
		return err == nil && n == 1
	}, 30*time.Second, 250*time.Millisecond)

	resp := do(t, env.server, "GET", "/v1/reportes/fallidos", nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fallidos struct {
		Data []worker.DLQEntry `json:"data"`
	}
	decodeJSON(t, resp, &fallidos)
	require.Len(t, fallidos.Data, 1)
	assert.Equal(t, worker.MaxAttempts, fallidos.Data[0].Attempts)
	assert.Contains(t, fallidos.Data[0].Reason, "smtp 421")
}

package router

import (
	"context"
	"time"

	"visionallende/internal/config"
	"visionallende/internal/handler"
	"visionallende/internal/infra"
	"visionallende/internal/middleware"
	"visionallende/internal/model"
	"visionallende/internal/repository"
	"visionallende/internal/service"
	"visionallende/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the infrastructure pieces built by the composition root.
type Deps struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Mailer   *infra.Mailer
	Archivos *infra.Archivos
	Intentos infra.IntentosStore
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// ctx bounds the background purge of the per-IP API limiter.
func New(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = int64(cfg.MaxUploadMB) << 20

	apiLimiter := middleware.NewAPIRateLimiter(cfg.APIRateLimit, time.Minute)
	apiLimiter.StartPurge(ctx)

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigin))
	r.Use(middleware.ErrorHandler())
	r.Use(apiLimiter.Middleware())

	now := time.Now

	// ── Repositories ─────────────────────────────────────────────────────────
	txm := repository.NewTxManager(deps.DB)
	usuarioRepo := repository.NewUsuarioRepository(deps.DB)
	clienteRepo := repository.NewClienteRepository(deps.DB)
	graduacionRepo := repository.NewGraduacionRepository(deps.DB)
	ventaRepo := repository.NewVentaRepository(deps.DB)
	depositoRepo := repository.NewDepositoRepository(deps.DB)
	periodoRepo := repository.NewPeriodoRepository(deps.DB)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	clienteSvc := service.NewClienteService(clienteRepo, ventaRepo)
	graduacionSvc := service.NewGraduacionService(graduacionRepo, clienteRepo, now)
	regla := service.ReglaCierre{DiaDesde: cfg.CierreDiaDesde, DiaHasta: cfg.CierreDiaHasta}
	periodoSvc := service.NewPeriodoService(txm, periodoRepo, regla, now)
	ventaSvc := service.NewVentaService(txm, ventaRepo, clienteRepo, periodoRepo, now)
	depositoSvc := service.NewDepositoService(txm, ventaSvc, depositoRepo, now)
	reporteSvc := service.NewReporteService(ventaRepo, periodoRepo)

	dispatcher := worker.NewDispatcher(deps.Redis)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc, handler.SessionCookieConfig{
		Secure: cfg.CookieSecure,
		MaxAge: int(cfg.SessionTTL().Seconds()),
	})
	usuariosH := handler.NewUsuariosHandler(authSvc)
	clientesH := handler.NewClientesHandler(clienteSvc)
	graduacionesH := handler.NewGraduacionesHandler(graduacionSvc)
	ventasH := handler.NewVentasHandler(ventaSvc, depositoSvc)
	periodosH := handler.NewPeriodosHandler(periodoSvc)
	reportesH := handler.NewReportesHandler(reporteSvc, dispatcher, cfg.ReporteEmailDestino)
	archivosH := handler.NewArchivosHandler(deps.Archivos)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(deps.DB, deps.Redis, deps.Mailer))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(deps.Intentos, cfg.LoginMaxIntentos, cfg.LoginVentana()), authH.Login)
		auth.POST("/logout", authH.Logout)
	}

	// Protected routes; every role can use the shop screens.
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		v1.GET("/auth/me", authH.Me)

		v1.GET("/clientes", clientesH.Listar)
		v1.POST("/clientes", clientesH.Crear)
		v1.GET("/clientes/:id", clientesH.Obtener)
		v1.PUT("/clientes/:id", clientesH.Actualizar)
		v1.DELETE("/clientes/:id", clientesH.Eliminar)
		v1.GET("/clientes/:id/graduaciones", graduacionesH.Listar)
		v1.POST("/clientes/:id/graduaciones", graduacionesH.Crear)

		v1.GET("/graduaciones/:id", graduacionesH.Obtener)
		v1.PUT("/graduaciones/:id", graduacionesH.Actualizar)
		v1.DELETE("/graduaciones/:id", graduacionesH.Eliminar)

		v1.GET("/ventas", ventasH.Listar)
		v1.POST("/ventas", ventasH.Crear)
		v1.GET("/ventas/:id", ventasH.Obtener)
		v1.PUT("/ventas/:id", ventasH.Actualizar)
		v1.PATCH("/ventas/:id/estado", ventasH.CambiarEstado)
		v1.DELETE("/ventas/:id", ventasH.Eliminar)
		v1.GET("/ventas/:id/nota", ventasH.Nota)
		v1.GET("/ventas/:id/depositos", ventasH.ListarDepositos)
		v1.POST("/ventas/:id/depositos", ventasH.AgregarDeposito)

		v1.PUT("/depositos/:id", ventasH.EditarDeposito)
		v1.DELETE("/depositos/:id", ventasH.EliminarDeposito)

		v1.GET("/periodos", periodosH.Listar)
		v1.GET("/periodos/activo", periodosH.Activo)
		v1.GET("/periodos/:id", periodosH.Obtener)
		v1.POST("/periodos/cerrar", periodosH.Cerrar)

		v1.GET("/reportes", reportesH.Extraer)
		v1.GET("/reportes/exportar", reportesH.Exportar)
		v1.POST("/reportes/enviar", reportesH.Enviar)
		v1.GET("/reportes/fallidos", middleware.RequireRole(model.RolAdministrador), handler.ReportesFallidos(worker.NewDLQ(deps.Redis)))

		v1.POST("/archivos", archivosH.Subir)
		v1.GET("/archivos/*path", archivosH.Descargar)
		v1.DELETE("/archivos/*path", archivosH.Eliminar)

		usuarios := v1.Group("/usuarios", middleware.RequireRole(model.RolAdministrador))
		{
			usuarios.POST("", usuariosH.Crear)
		}
	}

	// Swagger UI, only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

package router

import (
	"time"

	"portalpos/internal/config"
	"portalpos/internal/handler"
	"portalpos/internal/infra"
	"portalpos/internal/middleware"
	"portalpos/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services groups the domain services built at the composition root. The
// caja service is shared with the auto-close scheduler so that both surfaces
// go through the same per-caja locks.
type Services struct {
	Caja   service.CajaService
	Ventas service.VentasService
	Config service.ConfigService
}

// New wires handlers over the shared services and returns a configured Gin
// engine. Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, notificadorCB *infra.CircuitBreaker, svcs Services) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Handlers ─────────────────────────────────────────────────────────────
	cajaH := handler.NewCajaHandler(svcs.Caja)
	ventasH := handler.NewVentasHandler(svcs.Ventas)
	configH := handler.NewConfigHandler(svcs.Config)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, notificadorCB))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: cajero, supervisor, administrador — declared per-endpoint
		caja := v1.Group("/caja")
		{
			caja.POST("/abrir", middleware.RequireRole("cajero", "supervisor", "administrador"), cajaH.Abrir)
			caja.POST("/movimiento", middleware.RequireRole("cajero", "supervisor", "administrador"), cajaH.RegistrarMovimiento)
			caja.PATCH("/movimiento/:id/voucher", middleware.RequireRole("cajero", "supervisor", "administrador"), cajaH.MarcarVoucher)
			caja.POST("/cierre/proponer", middleware.RequireRole("cajero", "supervisor", "administrador"), cajaH.ProponerCierre)
			caja.POST("/cerrar", middleware.CierreRateLimiter(), middleware.RequireRole("cajero", "supervisor", "administrador"), cajaH.CerrarCaja)
			caja.GET("/activa", middleware.RequireRole("cajero", "supervisor", "administrador"), cajaH.GetActiva)
			caja.GET("/:id/reporte", middleware.RequireRole("cajero", "supervisor", "administrador"), cajaH.ObtenerReporte)
			caja.GET("/historial", middleware.RequireRole("supervisor", "administrador"), cajaH.Historial)
		}

		v1.GET("/ventas/dia", middleware.RequireRole("cajero", "supervisor", "administrador"), ventasH.TotalesDia)

		cfgGroup := v1.Group("/config", middleware.RequireRole("supervisor", "administrador"))
		{
			cfgGroup.GET("/:sede_id", configH.Obtener)
			cfgGroup.PUT("/:sede_id", configH.Actualizar)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

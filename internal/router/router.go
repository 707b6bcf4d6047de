package router

import (
	"time"

	"github.com/lorenzotomasdiez/ArcAPI/internal/cache"
	"github.com/lorenzotomasdiez/ArcAPI/internal/config"
	"github.com/lorenzotomasdiez/ArcAPI/internal/handler"
	"github.com/lorenzotomasdiez/ArcAPI/internal/infra"
	"github.com/lorenzotomasdiez/ArcAPI/internal/middleware"
	"github.com/lorenzotomasdiez/ArcAPI/internal/repository"
	"github.com/lorenzotomasdiez/ArcAPI/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis.
// rdb may be nil when the in-memory token cache is configured.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
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

	// ── Infrastructure ───────────────────────────────────────────────────────
	arcaBreaker := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	arcaClient := infra.NewArcaClient(infra.ArcaEndpoints{
		WSAAProduction: cfg.ArcaWSAAURL,
		WSAATest:       cfg.ArcaWSAATestURL,
		WSFEProduction: cfg.ArcaWSFEURL,
		WSFETest:       cfg.ArcaWSFETestURL,
	}, arcaBreaker)

	var tokenCache cache.TokenCache
	if cfg.TokenCache == "redis" && rdb != nil {
		tokenCache = cache.NewRedisTokenCache(rdb)
	} else {
		tokenCache = cache.NewMemoryTokenCache()
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	apiKeyRepo := repository.NewAPIKeyRepository(db)
	clientRepo := repository.NewClientRepository(db)
	posRepo := repository.NewPointOfSaleRepository(db)
	certRepo := repository.NewCertificateRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, apiKeyRepo, cfg)
	clientSvc := service.NewClientService(clientRepo)
	posSvc := service.NewPointOfSaleService(posRepo)
	certSvc := service.NewCertificateService(certRepo)
	arcaSvc := service.NewArcaService(certSvc, arcaClient, arcaClient, tokenCache)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, clientRepo, posRepo, certSvc, arcaSvc)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	clientsH := handler.NewClientsHandler(clientSvc)
	posH := handler.NewPointsOfSaleHandler(posSvc)
	certsH := handler.NewCertificatesHandler(certSvc)
	invoicesH := handler.NewInvoicesHandler(invoiceSvc)
	refdataH := handler.NewRefDataHandler()

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, arcaClient.Breaker()))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/signup", middleware.AuthRateLimiter(), authH.Signup)
		auth.POST("/login", middleware.AuthRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Reference data — public, static
	ref := r.Group("/v1/reference")
	{
		ref.GET("/invoice-types", refdataH.InvoiceTypes)
		ref.GET("/vat-rates", refdataH.VATRates)
		ref.GET("/document-types", refdataH.DocumentTypes)
		ref.GET("/concepts", refdataH.ConceptTypes)
		ref.GET("/currencies", refdataH.Currencies)
		ref.GET("/iva-conditions", refdataH.IVAConditions)
	}

	// Protected routes — Bearer JWT or X-API-Key
	v1 := r.Group("/v1", middleware.Authenticate(cfg.JWTSecret, authSvc))
	{
		v1.GET("/auth/me", authH.Profile)

		keys := v1.Group("/api-keys")
		{
			keys.POST("", authH.CreateAPIKey)
			keys.GET("", authH.ListAPIKeys)
			keys.DELETE("/:id", authH.RevokeAPIKey)
		}

		clients := v1.Group("/clients")
		{
			clients.POST("", clientsH.Create)
			clients.GET("", clientsH.List)
			clients.GET("/:id", clientsH.Get)
			clients.PATCH("/:id", clientsH.Update)
			clients.DELETE("/:id", clientsH.Delete)
		}

		pos := v1.Group("/points-of-sale")
		{
			pos.POST("", posH.Create)
			pos.GET("", posH.List)
			pos.GET("/:id", posH.Get)
			pos.PATCH("/:id", posH.Update)
			pos.DELETE("/:id", posH.Delete)
		}

		certs := v1.Group("/certificates")
		{
			certs.POST("", certsH.Create)
			certs.GET("", certsH.List)
			certs.GET("/expiring", certsH.ExpiringSoon)
			certs.DELETE("/:id", certsH.Deactivate)
		}

		invoices := v1.Group("/invoices")
		{
			invoices.POST("", invoicesH.Create)
			invoices.GET("", invoicesH.List)
			invoices.GET("/statistics", invoicesH.Statistics)
			invoices.GET("/:id", invoicesH.Get)
			invoices.POST("/:id/retry", invoicesH.Retry)
		}
	}

	return r
}

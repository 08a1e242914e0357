package routes

import (
	"financepro-backend/internal/adapters/http/handlers"
	"financepro-backend/internal/adapters/http/middleware"
	"financepro-backend/internal/adapters/persistence/repositories"
	"financepro-backend/internal/config"
	"financepro-backend/internal/core/services"
	"financepro-backend/internal/pkg/crypto"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application.
// It returns the scheduler so main can manage its lifecycle.
func Setup(app *fiber.App, db *gorm.DB, cipher *crypto.Cipher, cfg *config.Config) *services.SchedulerService {
	// Initialize repositories
	usuarioRepo := repositories.NewUsuarioRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	sucursalRepo := repositories.NewSucursalRepository(db)
	clienteRepo := repositories.NewClienteRepository(db)
	prestamoRepo := repositories.NewPrestamoRepository(db)
	pagoRepo := repositories.NewPagoRepository(db)
	documentoRepo := repositories.NewDocumentoRepository(db)
	auditLogRepo := repositories.NewAuditLogRepository(db)

	// Initialize services
	auditService := services.NewAuditService(auditLogRepo, cfg.Security.AuditRetentionDays)
	twoFactorService := services.NewTwoFactorService(usuarioRepo, cipher, auditService)
	authService := services.NewAuthService(usuarioRepo, sucursalRepo, sessionRepo, twoFactorService, auditService, cfg)
	usuarioService := services.NewUsuarioService(usuarioRepo, sucursalRepo, sessionRepo, auditService, cfg)
	sucursalService := services.NewSucursalService(sucursalRepo, auditService)
	clienteService := services.NewClienteService(clienteRepo, sucursalRepo, cipher, auditService)
	prestamoService := services.NewPrestamoService(prestamoRepo, clienteRepo, sucursalRepo, auditService)
	pagoService := services.NewPagoService(pagoRepo, prestamoRepo, auditService)
	documentoService := services.NewDocumentoService(documentoRepo, prestamoRepo, clienteRepo, cipher, auditService)
	schedulerService := services.NewSchedulerService(authService, prestamoService, auditService)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, twoFactorService, cfg)
	usuarioHandler := handlers.NewUsuarioHandler(usuarioService)
	sucursalHandler := handlers.NewSucursalHandler(sucursalService)
	clienteHandler := handlers.NewClienteHandler(clienteService)
	prestamoHandler := handlers.NewPrestamoHandler(prestamoService)
	pagoHandler := handlers.NewPagoHandler(pagoService)
	documentoHandler := handlers.NewDocumentoHandler(documentoService)
	auditHandler := handlers.NewAuditHandler(auditService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/health", healthHandler.HealthCheck)

	// Auth routes (public + protected)
	authRoutes := apiV1.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// Session routes (Authenticated users)
	sessionRoutes := apiV1.Group("/sesiones")
	sessionRoutes.Use(middleware.AuthMiddleware(cfg))
	setupSessionRoutes(sessionRoutes, authHandler)

	// Branch routes (public reads, admin writes)
	sucursalRoutes := apiV1.Group("/sucursales")
	setupSucursalRoutes(sucursalRoutes, sucursalHandler, cfg)

	// Client routes (Authenticated users)
	clienteRoutes := apiV1.Group("/clientes")
	clienteRoutes.Use(middleware.AuthMiddleware(cfg))
	setupClienteRoutes(clienteRoutes, clienteHandler)

	// Loan routes (Authenticated users)
	prestamoRoutes := apiV1.Group("/prestamos")
	prestamoRoutes.Use(middleware.AuthMiddleware(cfg))
	setupPrestamoRoutes(prestamoRoutes, prestamoHandler)

	// Payment routes (Authenticated users)
	pagoRoutes := apiV1.Group("/pagos")
	pagoRoutes.Use(middleware.AuthMiddleware(cfg))
	setupPagoRoutes(pagoRoutes, pagoHandler)

	// Document routes (Authenticated users)
	documentoRoutes := apiV1.Group("/documentos")
	documentoRoutes.Use(middleware.AuthMiddleware(cfg))
	setupDocumentoRoutes(documentoRoutes, documentoHandler)

	// User management routes (self ops + Admin)
	usuarioRoutes := apiV1.Group("/usuarios")
	usuarioRoutes.Use(middleware.AuthMiddleware(cfg))
	setupUsuarioRoutes(usuarioRoutes, usuarioHandler)

	// Audit trail routes (Admin only)
	auditRoutes := apiV1.Group("/audit-logs")
	auditRoutes.Use(middleware.AuthMiddleware(cfg))
	auditRoutes.Use(middleware.AdminOnly())
	auditRoutes.Get("/", auditHandler.List)

	return schedulerService
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Tokens and credentials must never land in shared caches
	router.Use(middleware.NoCacheHeaders())

	// Public routes (rate limited against brute force)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/login-simple", middleware.AuthRateLimiter(), handler.LoginSimple)
	router.Post("/verify-2fa", middleware.StrictRateLimiter(), handler.VerifyTwoFactor)
	router.Post("/refresh", middleware.AuthRateLimiter(), handler.Refresh)
	router.Post("/logout", middleware.AuthRateLimiter(), handler.Logout)

	// Protected routes
	router.Post("/2fa/setup", middleware.AuthMiddleware(cfg), handler.SetupTwoFactor)
	router.Post("/2fa/enable", middleware.AuthMiddleware(cfg), handler.EnableTwoFactor)
	router.Post("/2fa/disable", middleware.AuthMiddleware(cfg), handler.DisableTwoFactor)
}

// setupSessionRoutes configures session management routes
func setupSessionRoutes(router fiber.Router, handler *handlers.AuthHandler) {
	router.Get("/", handler.ListSessions)
	router.Delete("/:id", handler.RevokeSession)
}

// setupSucursalRoutes configures branch routes
func setupSucursalRoutes(router fiber.Router, handler *handlers.SucursalHandler, cfg *config.Config) {
	// Public reads (login screen needs the branch list before auth)
	router.Get("/", middleware.CatalogCache(), handler.GetActivas)

	// Admin routes ("/admin" must register before "/:id")
	router.Get("/admin", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), handler.List)
	router.Post("/", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), handler.Create)
	router.Put("/:id", middleware.AuthMiddleware(cfg), middleware.AdminOnly(), handler.Update)

	// Public read by ID
	router.Get("/:id", handler.GetByID)
}

// setupClienteRoutes configures client routes
func setupClienteRoutes(router fiber.Router, handler *handlers.ClienteHandler) {
	router.Post("/", handler.Create)
	router.Get("/", handler.List)
	router.Get("/:id", handler.GetByID)
	router.Put("/:id", handler.Update)

	// Full PII read: manager level, strict rate limit, never cached
	router.Get("/:id/pii", middleware.StrictRateLimiter(), middleware.GerenteOrAdmin(),
		middleware.NoCacheHeaders(), handler.GetPII)

	// Destructive / blocking operations (Manager/Admin)
	router.Delete("/:id", middleware.GerenteOrAdmin(), handler.Delete)
	router.Post("/:id/bloquear", middleware.GerenteOrAdmin(), handler.Bloquear)
	router.Post("/:id/desbloquear", middleware.GerenteOrAdmin(), handler.Desbloquear)
}

// setupPrestamoRoutes configures loan routes
func setupPrestamoRoutes(router fiber.Router, handler *handlers.PrestamoHandler) {
	// Literal paths must register before "/:id"
	router.Get("/estadisticas", handler.Estadisticas)
	router.Get("/reportes/por-vencer", handler.ReportePorVencer)
	router.Get("/reportes/en-mora", handler.ReporteEnMora)
	router.Get("/catalogos/tipos", middleware.CatalogCache(), handler.CatalogoTipos)
	router.Get("/catalogos/estados", middleware.CatalogCache(), handler.CatalogoEstados)
	router.Get("/catalogos/modalidades", middleware.CatalogCache(), handler.CatalogoModalidades)
	router.Get("/numero/:numero", handler.GetByNumero)

	router.Post("/", handler.Create)
	router.Get("/", handler.List)
	router.Get("/:id", handler.GetByID)
	router.Put("/:id", handler.Update)
	router.Get("/:id/validar-descuento", handler.ValidarDescuento)

	// Lifecycle decisions (Manager/Admin)
	router.Post("/:id/aprobar", middleware.GerenteOrAdmin(), handler.Aprobar)
	router.Post("/:id/desembolsar", middleware.GerenteOrAdmin(), handler.Desembolsar)
	router.Post("/:id/autorizar-descuento", middleware.GerenteOrAdmin(), handler.AutorizarDescuento)
	router.Post("/:id/revocar-descuento", middleware.GerenteOrAdmin(), handler.RevocarDescuento)
}

// setupPagoRoutes configures payment routes
func setupPagoRoutes(router fiber.Router, handler *handlers.PagoHandler) {
	router.Post("/", handler.Registrar)
	router.Get("/", handler.List)
	router.Get("/:id", handler.GetByID)
}

// setupDocumentoRoutes configures document routes
func setupDocumentoRoutes(router fiber.Router, handler *handlers.DocumentoHandler) {
	router.Post("/", handler.Create)
	router.Get("/", handler.List)
	router.Get("/:id", middleware.NoCacheHeaders(), handler.GetByID)
	router.Delete("/:id", middleware.GerenteOrAdmin(), handler.Delete)
}

// setupUsuarioRoutes configures user management routes
func setupUsuarioRoutes(router fiber.Router, handler *handlers.UsuarioHandler) {
	// Self-service routes (must register before "/:id")
	router.Get("/me", handler.Me)
	router.Post("/cambiar-password", handler.CambiarPassword)

	// Admin routes
	router.Get("/", middleware.AdminOnly(), handler.List)
	router.Post("/", middleware.AdminOnly(), handler.Create)
	router.Put("/:id", middleware.AdminOnly(), handler.Update)
	router.Post("/:id/desbloquear", middleware.AdminOnly(), handler.Desbloquear)
	router.Get("/:id/emails", middleware.AdminOnly(), handler.ListEmails)
	router.Post("/:id/emails", middleware.AdminOnly(), handler.AddEmail)
}

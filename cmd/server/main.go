package main

import (
	"os"
	"os/signal"
	"syscall"

	"financepro-backend/internal/adapters/http/middleware"
	"financepro-backend/internal/adapters/http/routes"
	"financepro-backend/internal/adapters/persistence/models"
	"financepro-backend/internal/config"
	"financepro-backend/internal/pkg/crypto"
	"financepro-backend/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"

	_ "financepro-backend/docs" // Swagger docs
)

// @title FinancePro API
// @version 1.0
// @description Sistema de gestión de préstamos multi-sucursal FinancePro v1.0 API
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email soporte@financepro.com

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host api.financepro.com.pa
// @BasePath /api/v1
// @schemes https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Configure structured logging
	logger.Init(cfg.App.LogLevel, cfg.App.Mode)

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		logger.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		logger.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	logger.Info("✅ Database migration completed")

	// Seed branches and default users
	if err := config.NewSeeder(db).Run(); err != nil {
		logger.Warnf("⚠️ Warning: Failed to seed database: %v", err)
	}

	// PII cipher (key length already validated by config)
	cipher, err := crypto.NewCipher(cfg.Security.EncryptionKey)
	if err != nil {
		logger.Fatalf("❌ Failed to initialize PII cipher: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "FinancePro API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db, cipher and cfg for dependency injection)
	schedulerService := routes.Setup(app, db, cipher, cfg)

	// Background jobs: session purge, delinquency sweep, audit retention
	if err := schedulerService.Start(); err != nil {
		logger.Fatalf("❌ Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	logger.Infof("🚀 Server starting on port %s [MODE: %s]", cfg.App.Port, cfg.App.Mode)
	if err := app.Listen(":" + cfg.App.Port); err != nil {
		logger.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		logger.Errorf("❌ Error during shutdown: %v", err)
	}
	logger.Info("✅ Server stopped gracefully")
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rov_inventory_go/config"
	"rov_inventory_go/db"
	"rov_inventory_go/handlers"
	"rov_inventory_go/logger"
	"rov_inventory_go/middleware"
	"rov_inventory_go/models"
	"rov_inventory_go/services"
	"rov_inventory_go/services/backend"
	"rov_inventory_go/services/i18n"
	"rov_inventory_go/services/jobs"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if err := logger.Init(cfg.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := i18n.Load(); err != nil {
		logger.Fatal("Failed to load translations", zap.Error(err))
	}

	// Initialize database
	if err := db.Initialize(db.Options{
		Path:        cfg.DBPath,
		Environment: cfg.Environment,
		TursoURL:    cfg.TursoDatabaseURL,
		TursoToken:  cfg.TursoAuthToken,
	}); err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := db.AutoMigrate(&models.Session{}, &models.AuditLog{}, &models.ExportRecord{}); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	services.InitializeStorage(cfg)

	if cfg.BackendURL == "" || cfg.BackendAnonKey == "" {
		logger.Warn("Backend URL or anon key missing; sign-in will fail until configured")
	}
	cipher, err := services.NewTokenCipher(cfg.SessionSecret)
	if err != nil {
		logger.Fatal("Failed to build token cipher", zap.Error(err))
	}
	client := backend.New(cfg.BackendURL, cfg.BackendAnonKey)
	b := &middleware.Backend{
		Sessions: services.NewSessionManager(db.DB, cipher, client),
		DataFor: func(accessToken string) backend.DataAPI {
			return client.WithToken(accessToken)
		},
	}
	if cfg.HasAdminBackend() {
		b.Admin = backend.NewAdmin(cfg.BackendURL, cfg.BackendServiceRoleKey)
	} else {
		logger.Warn("Service role key missing; user provisioning disabled")
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = services.EchoValidator{}

	// Middleware
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomiddleware.CSRFWithConfig(echomiddleware.CSRFConfig{
		TokenLookup:    "header:X-CSRF-Token,form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   cfg.Environment == "production",
		CookieSameSite: http.SameSiteLaxMode,
		Skipper: func(c echo.Context) bool {
			p := c.Path()
			return p == "/api/admin/create-user" || p == "/healthz"
		},
	}))
	e.Use(middleware.Locale(cfg))
	e.Use(middleware.Inject(cfg, b))

	// Public routes
	e.GET("/healthz", handlers.HealthHandler)
	e.GET("/login", handlers.LoginHandler)
	e.POST("/login", handlers.LoginPostHandler, middleware.LoginRateLimiter.Middleware())

	protected := e.Group("")
	protected.Use(middleware.RequireAuth())
	protected.Use(middleware.AuditContext())
	{
		protected.GET("/", handlers.HomeHandler)
		protected.POST("/logout", handlers.LogoutHandler)
		protected.GET("/api/me", handlers.GetCurrentUserHandler)

		protected.GET("/inventario", handlers.InventoryHandler)
		protected.GET("/htmx/componentes", handlers.ComponentsHTMX)
		protected.GET("/htmx/equipos", handlers.EquipmentHTMX)

		protected.POST("/componentes", handlers.CreateComponentHandler)
		protected.POST("/componentes/:id/baja", handlers.DecommissionComponentHandler)
		protected.POST("/componentes/:id/falla", handlers.ReportComponentFaultHandler)
		protected.POST("/componentes/:id/mover", handlers.MoveComponentHandler)

		protected.POST("/equipos", handlers.CreateEquipmentHandler)
		protected.POST("/equipos/:id/editar", handlers.EditEquipmentHandler)
		protected.GET("/equipos/:id/ensamblar", handlers.AssembleDialogHandler)
		protected.POST("/equipos/:id/ensamblar", handlers.AssembleHandler)
		protected.POST("/equipos/:id/desarmar", handlers.DisassembleHandler)
		protected.POST("/equipos/:id/falla", handlers.ReportEquipmentFaultHandler)
		protected.POST("/equipos/:id/taller", handlers.WorkshopHandler)
		protected.GET("/equipos/:id/historial", handlers.EquipmentHistoryHandler)

		office := protected.Group("")
		office.Use(middleware.RequireRole(services.RoleAdmin, services.RoleOficina, services.RoleDev))
		{
			office.GET("/organizacion", handlers.OrganizationHandler)
			office.POST("/empresas", handlers.CreateCompanyHandler)
			office.POST("/empresas/:id/toggle", handlers.ToggleCompanyHandler)
			office.POST("/zonas", handlers.CreateZoneHandler)
			office.POST("/centros", handlers.CreateCenterHandler)

			office.GET("/reportes", handlers.ReportsHandler)
			office.POST("/reportes/bitacoras", handlers.ExportBitacorasHandler)
			office.GET("/reports/exports", handlers.ListExportsHandler)
			office.GET("/reports/exports/:id/download", handlers.DownloadExportHandler)
		}

		admin := protected.Group("")
		admin.Use(middleware.RequireRole(services.RoleAdmin, services.RoleDev))
		{
			admin.GET("/usuarios", handlers.UsersHandler)
			admin.POST("/usuarios", handlers.CreateUserFormHandler)
			admin.POST("/usuarios/:id/rol", handlers.UpdateRoleHandler)
			admin.POST("/usuarios/:id/activo", handlers.SetActiveHandler)
			admin.POST("/usuarios/:id/transferir", handlers.TransferUserHandler)
			admin.GET("/catalogos", handlers.CatalogsHandler)
			admin.POST("/catalogos/:kind", handlers.UpsertCatalogHandler)
			admin.Any("/api/admin/create-user", handlers.AdminCreateUserHandler, middleware.AdminAPIRateLimiter.Middleware())
		}
	}

	// Background jobs
	scheduler, err := jobs.StartScheduler(db.DB, cfg,
		middleware.LoginRateLimiter.Cleanup,
		middleware.AdminAPIRateLimiter.Cleanup,
	)
	if err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// Start server
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.ServerPort), zap.String("environment", cfg.Environment))
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	<-scheduler.Stop().Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
}

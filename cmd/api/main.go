package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"hlg-fitness/internal/config"
	"hlg-fitness/internal/handler"
	"hlg-fitness/internal/middleware"
	"hlg-fitness/internal/model"
	"hlg-fitness/internal/repository"
	"hlg-fitness/internal/scheduler"
	"hlg-fitness/internal/service"
	"hlg-fitness/internal/ws"
	"hlg-fitness/pkg/database"
	"hlg-fitness/pkg/jwt"
	"hlg-fitness/pkg/logger"
	"hlg-fitness/pkg/storage"
	"hlg-fitness/pkg/telemetry"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	// 1. Config & logging
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	zlog, err := logger.Init(cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Database
	db, err := database.Connect(cfg.Database, cfg.App.Timezone)
	if err != nil {
		zlog.Fatal("database unavailable", zap.Error(err))
	}
	defer database.Close(db)

	if err := db.AutoMigrate(
		&model.Privilege{}, &model.Role{}, &model.User{},
		&model.Product{}, &model.Customer{}, &model.Sale{}, &model.SaleItem{},
	); err != nil {
		zlog.Fatal("auto migrate failed", zap.Error(err))
	}

	// 3. Seeds
	seedAccessControl(db, zlog)
	if cfg.App.SeedData {
		seedCatalog(db, zlog)
	}

	// 4. Infrastructure
	tracer, shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry, version)
	if err != nil {
		zlog.Fatal("telemetry init failed", zap.Error(err))
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		zlog.Fatal("storage init failed", zap.Error(err))
	}

	wsHub := ws.NewHub()
	go wsHub.Run(ctx)

	tokens := jwt.NewManager(cfg.JWT.Secret, time.Duration(cfg.JWT.TTLHours)*time.Hour)

	// 5. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	customerRepo := repository.NewCustomerRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	saleService := service.NewSaleService(repository.NewSaleTxManager(db), saleRepo, wsHub, tracer)
	productService := service.NewProductService(productRepo, db, store, wsHub)
	customerService := service.NewCustomerService(customerRepo)
	dashService := service.NewDashboardService(saleRepo, productRepo, customerRepo)
	reportService := service.NewReportService(saleRepo, productRepo)
	authService := service.NewAuthService(userRepo, roleRepo, tokens, store)
	userService := service.NewUserService(userRepo, privilegeRepo, roleRepo)

	saleHandler := handler.NewSaleHandler(saleService)
	productHandler := handler.NewProductHandler(productService)
	customerHandler := handler.NewCustomerHandler(customerService)
	dashHandler := handler.NewDashboardHandler(dashService)
	reportHandler := handler.NewReportHandler(reportService)
	authHandler := handler.NewAuthHandler(authService, cfg.JWT.CookieName, tokens.TTL(), cfg.IsProduction())
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleRepo, privilegeRepo)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: 8 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CORSOrigins,
		AllowCredentials: cfg.App.CORSOrigins != "*",
	}))
	app.Use(middleware.RequestLogger(zlog.Named("http")))

	app.Static(cfg.Storage.PublicPrefix, cfg.Storage.LocalDir)
	app.Get("/health", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down"})
		}
		return c.JSON(fiber.Map{"status": "ok", "wsClients": wsHub.ClientCount()})
	})

	loginLimiter := middleware.PerMinute(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst)
	go loginLimiter.Cleanup(ctx)

	// 7. Routes
	api := app.Group("/api")
	requireAuth := middleware.RequireAuth(authService, cfg.JWT.CookieName)

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/register", loginLimiter.Handler(), authHandler.Register)
	auth.Post("/login", loginLimiter.Handler(), authHandler.Login)

	// ============ PROTECTED ROUTES ============
	auth.Post("/logout", requireAuth, authHandler.Logout)
	auth.Get("/me", requireAuth, authHandler.Me)
	auth.Put("/me", requireAuth, authHandler.UpdateMe)

	protected := api.Group("", requireAuth)

	// Sales
	protected.Get("/sales", middleware.RequirePrivilege(model.PrivSaleView), saleHandler.GetSales)
	protected.Get("/sales/by-date-range", middleware.RequirePrivilege(model.PrivSaleView), saleHandler.GetSalesByDateRange)
	protected.Get("/sales/:id", middleware.RequirePrivilege(model.PrivSaleView), saleHandler.GetSale)
	protected.Post("/sales", middleware.RequirePrivilege(model.PrivSaleCreate), saleHandler.CreateSale)
	protected.Put("/sales/:id", middleware.RequirePrivilege(model.PrivSaleUpdate), saleHandler.UpdateSale)
	protected.Delete("/sales/:id", middleware.RequirePrivilege(model.PrivSaleDelete), saleHandler.DeleteSale)

	// Products
	protected.Get("/products", middleware.RequirePrivilege(model.PrivProductView), productHandler.GetProducts)
	protected.Get("/products-low-stock", middleware.RequirePrivilege(model.PrivProductView), productHandler.GetLowStock)
	protected.Get("/products/:id", middleware.RequirePrivilege(model.PrivProductView), productHandler.GetProduct)
	protected.Post("/products", middleware.RequirePrivilege(model.PrivProductCreate), productHandler.CreateProduct)
	protected.Put("/products/:id", middleware.RequirePrivilege(model.PrivProductUpdate), productHandler.UpdateProduct)
	protected.Delete("/products/:id", middleware.RequirePrivilege(model.PrivProductDelete), productHandler.DeleteProduct)

	// Customers
	protected.Get("/customers", middleware.RequirePrivilege(model.PrivCustomerView), customerHandler.GetCustomers)
	protected.Get("/customers/:id", middleware.RequirePrivilege(model.PrivCustomerView), customerHandler.GetCustomer)
	protected.Get("/customers/:id/sales", middleware.RequireAnyPrivilege(model.PrivSaleView, model.PrivCustomerView), saleHandler.GetCustomerSales)
	protected.Post("/customers", middleware.RequirePrivilege(model.PrivCustomerCreate), customerHandler.CreateCustomer)
	protected.Put("/customers/:id", middleware.RequirePrivilege(model.PrivCustomerUpdate), customerHandler.UpdateCustomer)
	protected.Delete("/customers/:id", middleware.RequirePrivilege(model.PrivCustomerDelete), customerHandler.DeleteCustomer)

	// Dashboard
	protected.Get("/dashboard/stats", middleware.RequirePrivilege(model.PrivDashboardView), dashHandler.GetDashboardStats)
	protected.Get("/dashboard/low-stock", middleware.RequirePrivilege(model.PrivDashboardView), dashHandler.GetLowStock)
	protected.Get("/dashboard/sales-trend", middleware.RequirePrivilege(model.PrivDashboardView), dashHandler.GetSalesTrend)

	// Reports
	reports := protected.Group("/reports", middleware.RequirePrivilege(model.PrivReportView))
	reports.Get("/sales", reportHandler.GetSalesReport)
	reports.Get("/sales.csv", reportHandler.GetSalesCSV)
	reports.Get("/inventory", reportHandler.GetInventoryReport)
	reports.Get("/inventory.csv", reportHandler.GetInventoryCSV)

	// User management
	protected.Get("/users", middleware.RequirePrivilege(model.PrivUserView), userHandler.GetUsers)
	protected.Get("/users/:id", middleware.RequirePrivilege(model.PrivUserView), userHandler.GetUser)
	protected.Post("/users", middleware.RequirePrivilege(model.PrivUserCreate), userHandler.CreateUser)
	protected.Put("/users/:id", middleware.RequirePrivilege(model.PrivUserUpdate), userHandler.UpdateUser)
	protected.Delete("/users/:id", middleware.RequirePrivilege(model.PrivUserDelete), userHandler.DeleteUser)
	protected.Put("/users/:id/privileges", middleware.RequirePrivilege(model.PrivUserPrivileges), userHandler.UpdateUserPrivileges)

	protected.Get("/roles", roleHandler.GetRoles)
	protected.Get("/privileges", roleHandler.GetPrivileges)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", wsHub.Handler())

	// 8. Scheduler
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		loc, err := time.LoadLocation(cfg.App.Timezone)
		if err != nil {
			zlog.Warn("unknown timezone, scheduler uses local time", zap.String("timezone", cfg.App.Timezone))
			loc = time.Local
		}
		sched = scheduler.New(loc, productService, wsHub)
		if err := sched.AddLowStockDigest(cfg.Scheduler.LowStockCron); err != nil {
			zlog.Fatal("scheduler init failed", zap.Error(err))
		}
		sched.Start()
	}

	// 9. Serve & graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + cfg.App.Port)
	}()
	zlog.Info("server started", zap.String("port", cfg.App.Port), zap.String("env", cfg.Environment))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			zlog.Error("server stopped", zap.Error(err))
		}
	}

	zlog.Info("shutting down server")
	if sched != nil {
		sched.Stop()
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		zlog.Warn("trace flush failed", zap.Error(err))
	}
	zlog.Info("server exited")
}

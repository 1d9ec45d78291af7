package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bill-mart/internal/config"
	"bill-mart/internal/handler"
	"bill-mart/internal/lock"
	"bill-mart/internal/mail"
	"bill-mart/internal/middleware"
	"bill-mart/internal/model"
	"bill-mart/internal/notify"
	"bill-mart/internal/repository"
	"bill-mart/internal/service"
	"bill-mart/internal/ws"
	"bill-mart/pkg/cache"
	"bill-mart/pkg/database"
	"bill-mart/pkg/jwt"
	"bill-mart/pkg/logger"
	"bill-mart/pkg/validator"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

func main() {
	log := logger.Get()

	// 1. Load config
	cfg, envLoaded := config.Load()
	if !envLoaded {
		log.Warn(".env file not found, using process environment")
	}
	logger.Configure(cfg.LogLevel)
	jwt.Configure(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Lifetime)
	validator.SetPhoneRegion(cfg.PhoneRegion)

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect database")
	}
	if err := db.AutoMigrate(model.All()...); err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}

	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	// 3. Seed default privileges, roles, and owner account
	if err := service.Seed(privilegeRepo, roleRepo, userRepo, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.WithError(err).Warn("Failed to seed defaults")
	}

	// 4. Redis backs the stock locks and the stock view cache when configured
	var locker lock.Locker = lock.NewLocal()
	var stockCache *cache.Cache
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.WithError(err).Fatal("Failed to connect redis")
		}
		defer rdb.Close()
		locker = lock.NewRedis(rdb, cfg.Redis.LockTTL)
		stockCache = cache.New(rdb, "bill-mart:", cfg.Redis.CacheTTL)
		log.WithField("address", cfg.Redis.Address).Info("Redis enabled for stock locks and cache")
	} else {
		log.Warn("REDIS_ADDRESS not set, using in-process stock locks without cache")
	}

	// 5. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 6. Dependency Injection (Wiring Layers)
	categoryRepo := repository.NewCategoryRepo(db)
	productRepo := repository.NewProductRepo(db)
	customerRepo := repository.NewCustomerRepo(db)
	invoiceRepo := repository.NewInvoiceRepo(db)
	stockRepo := repository.NewStockRepo(db)
	otpRepo := repository.NewOTPRepo(db)

	alerts := service.NewAlertService(notify.New(cfg.Telegram), cfg.AppBaseURL)
	stockService := service.NewStockService(stockRepo, productRepo, locker, stockCache, alerts, wsHub, nil)
	catalogService := service.NewCatalogService(db, categoryRepo, productRepo, stockRepo, invoiceRepo, stockService, locker, wsHub, nil)
	customerService := service.NewCustomerService(customerRepo, cfg.PhoneRegion)
	mailer, err := mail.New(cfg.SMTP, cfg.AppName)
	if err != nil {
		log.WithError(err).Fatal("Failed to configure SMTP")
	}
	otpService := service.NewOTPService(otpRepo, mailer, cfg.OTPTTL, nil)
	invoiceService := service.NewInvoiceService(db, invoiceRepo, productRepo, customerRepo, stockRepo, stockService,
		otpService, alerts, locker, wsHub, service.InvoiceOptions{RequireOTP: cfg.RequireInvoiceOTP})
	dashService := service.NewDashboardService(stockRepo, productRepo, nil)
	authService := service.NewAuthService(userRepo)

	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Catalog:   handler.NewCatalogHandler(catalogService),
		Customer:  handler.NewCustomerHandler(customerService),
		Stock:     handler.NewStockHandler(stockService),
		Invoice:   handler.NewInvoiceHandler(invoiceService),
		OTP:       handler.NewOTPHandler(otpService),
		Dashboard: handler.NewDashboardHandler(dashService),
		Role:      handler.NewRoleHandler(roleRepo, privilegeRepo),
		Webhook:   handler.NewWebhookHandler(cfg.Telegram.WebhookSecret),
	}

	if cfg.Telegram.WebhookSecret == "" {
		log.Warn("TELEGRAM_WEBHOOK_SECRET not set, /api/telegram refuses every update")
	}

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: cfg.AppName,
	})

	app.Use(fiberlogger.New(fiberlogger.Config{Output: log.Writer()}))
	app.Use(recover.New())
	app.Use(cors.New())

	handler.Register(app, handlers, middleware.RequireAuth(userRepo))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "ws_clients": wsHub.ClientCount()})
	})

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Panic("Server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	// pending alerts still go out
	alerts.Wait()

	log.Info("Server exited")
}

package main

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlog "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/rajivgeraev/cardswap-api/internal/config"
	"github.com/rajivgeraev/cardswap-api/internal/metrics"
	"github.com/rajivgeraev/cardswap-api/internal/middleware"
	"github.com/rajivgeraev/cardswap-api/internal/services/auth"
	"github.com/rajivgeraev/cardswap-api/internal/services/catalog"
	"github.com/rajivgeraev/cardswap-api/internal/services/cloudinary"
	"github.com/rajivgeraev/cardswap-api/internal/services/collection"
	"github.com/rajivgeraev/cardswap-api/internal/services/trade"
	"github.com/rajivgeraev/cardswap-api/internal/store"
	"github.com/rajivgeraev/cardswap-api/internal/utils"
)

type services struct {
	auth       *auth.AuthService
	catalog    *catalog.CatalogService
	collection *collection.CollectionService
	trade      *trade.TradeService
	cloudinary *cloudinary.CloudinaryService
}

// newApp собирает Fiber-приложение со всеми маршрутами
func newApp(cfg *config.Config, st store.Store, jwtService *utils.JWTService, svc services) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "CardSwap API",
		ErrorHandler: errorHandler,
	})

	// Добавляем middleware
	app.Use(recover.New())
	app.Use(fiberlog.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))
	app.Use(metrics.Middleware())

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	app.Get("/metrics", metrics.Handler())

	// Настраиваем middleware для аутентификации
	authMiddleware := middleware.AuthMiddleware(jwtService, st)
	adminMiddleware := middleware.RequireAdminAPIKey(cfg.AdminAPIKey)

	// Изменяющие запросы ограничиваются по пользователю после проверки токена
	writeLimit := middleware.RateLimitWrite()

	// Регистрируем маршруты
	svc.auth.SetupRoutes(app, authMiddleware)
	svc.catalog.SetupRoutes(app, adminMiddleware)
	svc.collection.SetupRoutes(app, authMiddleware, writeLimit)
	svc.trade.SetupRoutes(app, authMiddleware, writeLimit)
	svc.cloudinary.SetupRoutes(app, adminMiddleware)

	return app
}

// errorHandler обрабатывает ошибки Fiber
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Внутренняя ошибка сервера"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	return c.Status(code).JSON(fiber.Map{"error": message})
}

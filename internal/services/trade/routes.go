package trade

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/cardswap-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API обменов.
// Просмотр открыт всем, изменения требуют авторизации; mw выполняются после неё.
func (s *TradeService) SetupRoutes(app fiber.Router, auth fiber.Handler, mw ...fiber.Handler) {
	api := app.Group("/api/trades")
	api.Use(middleware.WritesOnly(auth))
	for _, h := range mw {
		api.Use(h)
	}

	api.Get("/", s.ListTradesHandler)
	api.Get("/:id", s.GetTradeHandler)
	api.Post("/", s.CreateTradeHandler)
	api.Delete("/:id", s.DeleteTradeHandler)
}

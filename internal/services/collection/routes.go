package collection

import (
	"github.com/gofiber/fiber/v3"
)

// SetupRoutes настраивает маршруты коллекции; все требуют авторизации.
// mw выполняются после проверки токена.
func (s *CollectionService) SetupRoutes(app fiber.Router, auth fiber.Handler, mw ...fiber.Handler) {
	api := app.Group("/api/me/cards")
	api.Use(auth)
	for _, h := range mw {
		api.Use(h)
	}

	api.Get("/", s.ListHoldingsHandler)
	api.Post("/", s.AddCardHandler)
	api.Delete("/:cardId", s.RemoveCardHandler)
}

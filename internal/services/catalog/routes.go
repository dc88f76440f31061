package catalog

import (
	"github.com/gofiber/fiber/v3"
)

// SetupRoutes регистрирует маршруты каталога; admin защищает изменение каталога
func (s *CatalogService) SetupRoutes(app fiber.Router, admin fiber.Handler) {
	api := app.Group("/api/cards")
	api.Get("/", s.ListCardsHandler)
	api.Get("/:id", s.GetCardHandler)

	adminAPI := app.Group("/api/admin/cards")
	adminAPI.Use(admin)
	adminAPI.Post("/", s.CreateCardHandler)
	adminAPI.Delete("/:id", s.DeleteCardHandler)
}

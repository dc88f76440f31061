package cloudinary

import (
	"github.com/gofiber/fiber/v3"
)

// SetupRoutes настраивает маршруты загрузки изображений карт
func (s *CloudinaryService) SetupRoutes(app fiber.Router, admin fiber.Handler) {
	api := app.Group("/api/admin/upload")
	api.Use(admin)

	// Маршрут для получения параметров загрузки
	api.Get("/params", s.GenerateUploadParams)
}

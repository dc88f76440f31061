package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// RequireAdminAPIKey пропускает запросы с заголовком X-Admin-Key, равным key.
// Пустой key закрывает административные маршруты полностью.
func RequireAdminAPIKey(key string) fiber.Handler {
	key = strings.TrimSpace(key)
	if key == "" {
		return func(c fiber.Ctx) error {
			return fiber.NewError(fiber.StatusServiceUnavailable, "admin API is disabled")
		}
	}

	return func(c fiber.Ctx) error {
		got := strings.TrimSpace(c.Get("X-Admin-Key"))
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid admin key")
		}
		return c.Next()
	}
}

package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/cardswap-api/internal/store"
	"github.com/rajivgeraev/cardswap-api/internal/utils"
)

const userIDKey = "userID"

// AuthMiddleware создаёт middleware для проверки JWT.
// Токен удалённого пользователя отклоняется так же, как просроченный.
func AuthMiddleware(jwtService *utils.JWTService, st store.Store) fiber.Handler {
	return func(c fiber.Ctx) error {
		// Пользователь уже проверен группой выше
		if _, ok := UserID(c); ok {
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		// Проверяем Bearer токен
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		userID, err := jwtService.ExtractUserID(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		err = st.View(c.Context(), func(tx store.Tx) error {
			_, err := tx.GetUser(c.Context(), userID)
			return err
		})
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		if err != nil {
			return err
		}

		// Добавляем userID в контекст
		c.Locals(userIDKey, userID)

		return c.Next()
	}
}

// UserID возвращает идентификатор пользователя, положенный AuthMiddleware
func UserID(c fiber.Ctx) (int64, bool) {
	id, ok := c.Locals(userIDKey).(int64)
	return id, ok && id > 0
}

// WritesOnly применяет h только к изменяющим запросам; GET, HEAD и OPTIONS проходят без него
func WritesOnly(h fiber.Handler) fiber.Handler {
	return func(c fiber.Ctx) error {
		if readOnly(c) {
			return c.Next()
		}
		return h(c)
	}
}

func readOnly(c fiber.Ctx) bool {
	switch c.Method() {
	case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
		return true
	}
	return false
}

package auth

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/cardswap-api/internal/apperrors"
	"github.com/rajivgeraev/cardswap-api/internal/middleware"
)

// RegisterHandler регистрирует пользователя и возвращает {user, token}
func (s *AuthService) RegisterHandler(c fiber.Ctx) error {
	var payload RegisterInput
	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}

	session, err := s.Register(c.Context(), payload)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

// LoginHandler проверяет email и пароль, возвращает {user, token}
func (s *AuthService) LoginHandler(c fiber.Ctx) error {
	var payload LoginInput
	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}

	session, err := s.Login(c.Context(), payload)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(session)
}

// MeHandler возвращает профиль текущего пользователя
func (s *AuthService) MeHandler(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	user, err := s.Me(c.Context(), userID)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

func (s *AuthService) fail(c fiber.Ctx, err error) error {
	if apperrors.StatusCode(err) == fiber.StatusInternalServerError {
		s.log.WithError(err).WithField("path", c.Path()).Error("ошибка обработки запроса")
	}
	return apperrors.Respond(c, err)
}

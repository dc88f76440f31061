package auth

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/cardswap-api/internal/middleware"
)

// SetupRoutes регистрирует маршруты в Fiber
func (s *AuthService) SetupRoutes(app fiber.Router, auth fiber.Handler) {
	// Регистрация и вход делят один лимит на IP
	limited := middleware.RateLimitAuth()

	register := app.Group("/api/register")
	register.Use(limited)
	register.Post("/", s.RegisterHandler)

	login := app.Group("/api/login")
	login.Use(limited)
	login.Post("/", s.LoginHandler)

	// Защищенный маршрут профиля
	me := app.Group("/api/me")
	me.Use(auth)
	me.Get("/", s.MeHandler)
}

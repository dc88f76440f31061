package trade

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/cardswap-api/internal/apperrors"
	"github.com/rajivgeraev/cardswap-api/internal/middleware"
	"github.com/rajivgeraev/cardswap-api/internal/utils"
)

// CreateTradeHandler создает новое предложение обмена
func (s *TradeService) CreateTradeHandler(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var requestData CreateTradeInput
	if err := c.Bind().Body(&requestData); err != nil {
		s.log.WithError(err).Debug("ошибка декодирования тела запроса")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	listing, err := s.CreateTrade(c.Context(), userID, requestData)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(listing)
}

// ListTradesHandler возвращает открытые предложения обмена
func (s *TradeService) ListTradesHandler(c fiber.Ctx) error {
	listings, err := s.ListOpenTrades(c.Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(listings)
}

// GetTradeHandler возвращает предложение обмена по ID
func (s *TradeService) GetTradeHandler(c fiber.Ctx) error {
	tradeID, err := utils.ParseID(c.Params("id"), "обмена")
	if err != nil {
		return s.fail(c, err)
	}
	listing, err := s.GetTrade(c.Context(), tradeID)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(listing)
}

// DeleteTradeHandler удаляет предложение обмена текущего пользователя
func (s *TradeService) DeleteTradeHandler(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	tradeID, err := utils.ParseID(c.Params("id"), "обмена")
	if err != nil {
		return s.fail(c, err)
	}

	if err := s.DeleteTrade(c.Context(), tradeID, userID); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func (s *TradeService) fail(c fiber.Ctx, err error) error {
	if apperrors.StatusCode(err) == fiber.StatusInternalServerError {
		s.log.WithError(err).WithField("path", c.Path()).Error("ошибка обработки запроса")
	}
	return apperrors.Respond(c, err)
}

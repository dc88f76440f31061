package collection

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/cardswap-api/internal/apperrors"
	"github.com/rajivgeraev/cardswap-api/internal/middleware"
	"github.com/rajivgeraev/cardswap-api/internal/utils"
)

// ListHoldingsHandler возвращает коллекцию текущего пользователя
func (s *CollectionService) ListHoldingsHandler(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	holdings, err := s.ListHoldings(c.Context(), userID)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(holdings)
}

// AddCardHandler добавляет карту в коллекцию текущего пользователя
func (s *CollectionService) AddCardHandler(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var requestData struct {
		CardID   int64 `json:"cardId"`
		Quantity *int  `json:"quantity"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		s.log.WithError(err).Debug("ошибка декодирования тела запроса")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}
	if requestData.CardID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Необходимо указать cardId"})
	}

	quantity := 1
	if requestData.Quantity != nil {
		quantity = *requestData.Quantity
	}

	holding, err := s.AddCard(c.Context(), userID, requestData.CardID, quantity)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(holding)
}

// RemoveCardHandler убирает копии карты; без quantity запись удаляется целиком
func (s *CollectionService) RemoveCardHandler(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	cardID, err := utils.ParseID(c.Params("cardId"), "карты")
	if err != nil {
		return s.fail(c, err)
	}
	quantity, err := utils.QueryInt(c.Query("quantity"), AllCopies)
	if err != nil {
		return s.fail(c, err)
	}

	remaining, err := s.RemoveCard(c.Context(), userID, cardID, quantity)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"holding": remaining,
	})
}

func (s *CollectionService) fail(c fiber.Ctx, err error) error {
	if apperrors.StatusCode(err) == fiber.StatusInternalServerError {
		s.log.WithError(err).WithField("path", c.Path()).Error("ошибка обработки запроса")
	}
	return apperrors.Respond(c, err)
}

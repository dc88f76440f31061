package catalog

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/cardswap-api/internal/apperrors"
	"github.com/rajivgeraev/cardswap-api/internal/models"
	"github.com/rajivgeraev/cardswap-api/internal/utils"
)

// ListCardsHandler возвращает страницу каталога; q, rarity и set включают поиск
func (s *CatalogService) ListCardsHandler(c fiber.Ctx) error {
	page, err := utils.QueryInt(c.Query("page"), DefaultPage)
	if err != nil {
		return s.fail(c, err)
	}
	limit, err := utils.QueryInt(c.Query("limit"), DefaultLimit)
	if err != nil {
		return s.fail(c, err)
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	page, limit = Normalize(page, limit)

	filter := SearchFilter{
		Query:  c.Query("q"),
		Rarity: models.Rarity(c.Query("rarity")),
		Set:    c.Query("set"),
	}

	var cards []models.Card
	var total int
	if !filter.Empty() {
		cards, total, err = s.SearchCards(c.Context(), filter, page, limit)
	} else {
		cards, total, err = s.ListCards(c.Context(), page, limit)
	}
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"cards": cards,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetCardHandler возвращает карту по ID
func (s *CatalogService) GetCardHandler(c fiber.Ctx) error {
	id, err := utils.ParseID(c.Params("id"), "карты")
	if err != nil {
		return s.fail(c, err)
	}
	card, err := s.GetCard(c.Context(), id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(card)
}

// CreateCardHandler добавляет карту в каталог
func (s *CatalogService) CreateCardHandler(c fiber.Ctx) error {
	var in CardInput
	if err := c.Bind().Body(&in); err != nil {
		s.log.WithError(err).Debug("ошибка декодирования тела запроса")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	card, err := s.CreateCard(c.Context(), in)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(card)
}

// DeleteCardHandler удаляет карту из каталога
func (s *CatalogService) DeleteCardHandler(c fiber.Ctx) error {
	id, err := utils.ParseID(c.Params("id"), "карты")
	if err != nil {
		return s.fail(c, err)
	}
	if err := s.DeleteCard(c.Context(), id); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func (s *CatalogService) fail(c fiber.Ctx, err error) error {
	if apperrors.StatusCode(err) == fiber.StatusInternalServerError {
		s.log.WithError(err).WithField("path", c.Path()).Error("ошибка обработки запроса")
	}
	return apperrors.Respond(c, err)
}

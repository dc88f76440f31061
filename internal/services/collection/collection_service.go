package collection

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rajivgeraev/cardswap-api/internal/apperrors"
	"github.com/rajivgeraev/cardswap-api/internal/logger"
	"github.com/rajivgeraev/cardswap-api/internal/metrics"
	"github.com/rajivgeraev/cardswap-api/internal/models"
	"github.com/rajivgeraev/cardswap-api/internal/store"
)

// AllCopies количество для RemoveCard, удаляющее запись целиком
const AllCopies = math.MaxInt

// CollectionService представляет сервис для работы с коллекциями пользователей
type CollectionService struct {
	store store.Store
	log   *logger.Logger
}

// NewCollectionService создает новый экземпляр CollectionService
func NewCollectionService(st store.Store, log *logger.Logger) *CollectionService {
	if log == nil {
		log = logger.NewDefault("collection")
	}
	return &CollectionService{store: st, log: log}
}

// ListHoldings возвращает коллекцию пользователя вместе с данными карт.
// Записи, чья карта удалена из каталога, пропускаются.
func (s *CollectionService) ListHoldings(ctx context.Context, userID int64) ([]models.HoldingWithCard, error) {
	result := []models.HoldingWithCard{}
	err := s.store.View(ctx, func(tx store.Tx) error {
		holdings, err := tx.ListHoldings(ctx, userID)
		if err != nil {
			return err
		}
		for _, h := range holdings {
			card, err := tx.GetCard(ctx, h.CardID)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			result = append(result, models.HoldingWithCard{Holding: h, Card: *card})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения коллекции: %w", err)
	}
	return result, nil
}

// AddCard добавляет quantity копий карты в коллекцию: увеличивает
// существующую запись или создаёт новую.
func (s *CollectionService) AddCard(ctx context.Context, userID, cardID int64, quantity int) (*models.Holding, error) {
	if quantity < 1 {
		return nil, apperrors.InvalidArgument("Количество должно быть не меньше 1")
	}
	if quantity > math.MaxInt32 {
		return nil, apperrors.InvalidArgument("Слишком много копий карты")
	}

	var holding *models.Holding
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if _, err := tx.GetCard(ctx, cardID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperrors.NotFound("Карта не найдена")
			}
			return err
		}

		if err := tx.LockHolding(ctx, userID, cardID); err != nil {
			return err
		}

		h, err := tx.GetHolding(ctx, userID, cardID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			h = &models.Holding{UserID: userID, CardID: cardID, Quantity: quantity}
		case err != nil:
			return err
		default:
			if h.Quantity > math.MaxInt32-quantity {
				return apperrors.InvalidArgument("Слишком много копий карты")
			}
			h.Quantity += quantity
		}

		if err := tx.SaveHolding(ctx, h); err != nil {
			return err
		}
		holding = h
		return nil
	})
	if err != nil {
		if apperrors.KindOf(err) != "" {
			return nil, err
		}
		return nil, fmt.Errorf("ошибка добавления карты в коллекцию: %w", err)
	}

	metrics.CardsAdded(quantity)
	s.log.WithField("user_id", userID).WithField("card_id", cardID).
		WithField("quantity", holding.Quantity).Debug("карта добавлена в коллекцию")
	return holding, nil
}

// RemoveCard убирает quantity копий карты; при нуле и ниже запись удаляется.
// Возвращает оставшуюся запись или nil, если она удалена.
func (s *CollectionService) RemoveCard(ctx context.Context, userID, cardID int64, quantity int) (*models.Holding, error) {
	if quantity < 1 {
		return nil, apperrors.InvalidArgument("Количество должно быть не меньше 1")
	}

	var (
		remaining *models.Holding
		removed   int
	)
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if err := tx.LockHolding(ctx, userID, cardID); err != nil {
			return err
		}

		h, err := tx.GetHolding(ctx, userID, cardID)
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NotFound("Карты нет в коллекции")
		}
		if err != nil {
			return err
		}

		if quantity >= h.Quantity {
			removed = h.Quantity
			return tx.DeleteHolding(ctx, h.ID)
		}

		h.Quantity -= quantity
		removed = quantity
		if err := tx.SaveHolding(ctx, h); err != nil {
			return err
		}
		remaining = h
		return nil
	})
	if err != nil {
		if apperrors.KindOf(err) != "" {
			return nil, err
		}
		return nil, fmt.Errorf("ошибка удаления карты из коллекции: %w", err)
	}

	metrics.CardsRemoved(removed)
	return remaining, nil
}

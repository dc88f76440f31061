package trade

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rajivgeraev/cardswap-api/internal/apperrors"
	"github.com/rajivgeraev/cardswap-api/internal/logger"
	"github.com/rajivgeraev/cardswap-api/internal/metrics"
	"github.com/rajivgeraev/cardswap-api/internal/models"
	"github.com/rajivgeraev/cardswap-api/internal/store"
)

// CardResolver находит карты каталога внутри транзакции
type CardResolver interface {
	LookupCards(ctx context.Context, tx store.Tx, ids []int64) (map[int64]models.Card, error)
}

// EventPublisher получает уведомления об изменении обменов после фиксации
type EventPublisher interface {
	TradeCreated(listing models.TradeListing)
	TradeDeleted(tradeID, creatorID int64)
}

type noopPublisher struct{}

func (noopPublisher) TradeCreated(models.TradeListing) {}
func (noopPublisher) TradeDeleted(int64, int64)        {}

// TradeService представляет сервис для работы с обменами
type TradeService struct {
	store  store.Store
	cards  CardResolver
	events EventPublisher
	log    *logger.Logger
}

// NewTradeService создает новый экземпляр TradeService
func NewTradeService(st store.Store, cards CardResolver, log *logger.Logger) *TradeService {
	if log == nil {
		log = logger.NewDefault("trade")
	}
	return &TradeService{
		store:  st,
		cards:  cards,
		events: noopPublisher{},
		log:    log,
	}
}

// WithEvents подключает получателя событий
func (s *TradeService) WithEvents(p EventPublisher) {
	if p != nil {
		s.events = p
	}
}

// CreateTradeInput предложение обмена от пользователя
type CreateTradeInput struct {
	Message      *string                 `json:"message"`
	OfferedCards []models.TradeCardEntry `json:"offeredCards"`
	WantedCards  []models.TradeCardEntry `json:"wantedCards"`
}

// Validate проверяет структуру предложения без обращения к хранилищу
func (in CreateTradeInput) Validate() error {
	if len(in.OfferedCards) == 0 {
		return apperrors.InvalidTrade("Нужно предложить хотя бы одну карту")
	}
	if len(in.WantedCards) == 0 {
		return apperrors.InvalidTrade("Нужно запросить хотя бы одну карту")
	}
	for _, list := range [][]models.TradeCardEntry{in.OfferedCards, in.WantedCards} {
		for _, e := range list {
			if e.Quantity < 1 {
				return apperrors.InvalidTrade(fmt.Sprintf("Количество карты %d должно быть не меньше 1", e.CardID))
			}
		}
	}
	return nil
}

// CreateTrade создаёт открытое предложение обмена. Все карты из предложения
// должны существовать в каталоге.
func (s *TradeService) CreateTrade(ctx context.Context, creatorID int64, in CreateTradeInput) (*models.TradeListing, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if in.Message != nil {
		msg := strings.TrimSpace(*in.Message)
		if msg == "" {
			in.Message = nil
		} else {
			in.Message = &msg
		}
	}

	var listing models.TradeListing
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if _, err := tx.GetUser(ctx, creatorID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperrors.NotFound("Пользователь не найден")
			}
			return err
		}

		ids := cardIDs(in.OfferedCards, in.WantedCards)
		found, err := s.cards.LookupCards(ctx, tx, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				return apperrors.NotFound(fmt.Sprintf("Карта %d не найдена", id))
			}
		}

		t := &models.Trade{
			CreatorID:    creatorID,
			Message:      in.Message,
			OfferedCards: append([]models.TradeCardEntry(nil), in.OfferedCards...),
			WantedCards:  append([]models.TradeCardEntry(nil), in.WantedCards...),
			Status:       models.TradeOpen,
		}
		if err := tx.CreateTrade(ctx, t); err != nil {
			return err
		}

		listings, err := s.enrich(ctx, tx, []models.Trade{*t})
		if err != nil {
			return err
		}
		listing = listings[0]
		return nil
	})
	if err != nil {
		return nil, wrap(err, "ошибка создания обмена")
	}

	metrics.TradeCreated()
	s.events.TradeCreated(listing)
	s.log.WithField("trade_id", listing.ID).WithField("creator_id", creatorID).Info("обмен создан")
	return &listing, nil
}

// ListOpenTrades возвращает открытые обмены в порядке создания вместе
// с автором и данными карт. Карты, удалённые из каталога, пропадают из
// offeredCardDetails/wantedCardDetails, но остаются в offeredCards/wantedCards.
func (s *TradeService) ListOpenTrades(ctx context.Context) ([]models.TradeListing, error) {
	var listings []models.TradeListing
	err := s.store.View(ctx, func(tx store.Tx) error {
		trades, err := tx.ListTradesByStatus(ctx, models.TradeOpen)
		if err != nil {
			return err
		}
		listings, err = s.enrich(ctx, tx, trades)
		return err
	})
	if err != nil {
		return nil, wrap(err, "ошибка получения обменов")
	}
	return listings, nil
}

// GetTrade возвращает один обмен с автором и данными карт
func (s *TradeService) GetTrade(ctx context.Context, tradeID int64) (*models.TradeListing, error) {
	var listing models.TradeListing
	err := s.store.View(ctx, func(tx store.Tx) error {
		t, err := tx.GetTrade(ctx, tradeID)
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NotFound("Обмен не найден")
		}
		if err != nil {
			return err
		}
		listings, err := s.enrich(ctx, tx, []models.Trade{*t})
		if err != nil {
			return err
		}
		listing = listings[0]
		return nil
	})
	if err != nil {
		return nil, wrap(err, "ошибка получения обмена")
	}
	return &listing, nil
}

// DeleteTrade удаляет обмен; удалить может только автор.
// Проверки и удаление выполняются в одной транзакции.
func (s *TradeService) DeleteTrade(ctx context.Context, tradeID, requesterID int64) error {
	var creatorID int64
	err := s.store.Update(ctx, func(tx store.Tx) error {
		t, err := tx.GetTrade(ctx, tradeID)
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NotFound("Обмен не найден")
		}
		if err != nil {
			return err
		}
		if t.CreatorID != requesterID {
			return apperrors.Forbidden("Удалить обмен может только его автор")
		}
		creatorID = t.CreatorID
		return tx.DeleteTrade(ctx, tradeID)
	})
	if err != nil {
		return wrap(err, "ошибка удаления обмена")
	}

	metrics.TradeDeleted()
	s.events.TradeDeleted(tradeID, creatorID)
	s.log.WithField("trade_id", tradeID).WithField("creator_id", creatorID).Info("обмен удалён")
	return nil
}

// CountOpen возвращает число открытых обменов
func (s *TradeService) CountOpen(ctx context.Context) (int, error) {
	var n int
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		n, err = tx.CountTradesByStatus(ctx, models.TradeOpen)
		return err
	})
	return n, err
}

// enrich дополняет обмены публичным профилем автора и данными карт
func (s *TradeService) enrich(ctx context.Context, tx store.Tx, trades []models.Trade) ([]models.TradeListing, error) {
	var ids []int64
	for _, t := range trades {
		ids = append(ids, cardIDs(t.OfferedCards, t.WantedCards)...)
	}
	cards, err := s.cards.LookupCards(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	creators := make(map[int64]*models.PublicUser)
	listings := make([]models.TradeListing, 0, len(trades))
	for _, t := range trades {
		creator, seen := creators[t.CreatorID]
		if !seen {
			u, err := tx.GetUser(ctx, t.CreatorID)
			switch {
			case errors.Is(err, store.ErrNotFound):
				s.log.WithField("trade_id", t.ID).WithField("creator_id", t.CreatorID).Warn("автор обмена не найден")
			case err != nil:
				return nil, err
			default:
				pub := u.Public()
				creator = &pub
			}
			creators[t.CreatorID] = creator
		}

		listings = append(listings, models.TradeListing{
			Trade:              t,
			Creator:            creator,
			OfferedCardDetails: resolve(t.OfferedCards, cards),
			WantedCardDetails:  resolve(t.WantedCards, cards),
		})
	}
	return listings, nil
}

func resolve(entries []models.TradeCardEntry, cards map[int64]models.Card) []models.Card {
	details := make([]models.Card, 0, len(entries))
	for _, e := range entries {
		if c, ok := cards[e.CardID]; ok {
			details = append(details, c)
		}
	}
	return details
}

func cardIDs(lists ...[]models.TradeCardEntry) []int64 {
	var ids []int64
	seen := make(map[int64]bool)
	for _, list := range lists {
		for _, e := range list {
			if !seen[e.CardID] {
				seen[e.CardID] = true
				ids = append(ids, e.CardID)
			}
		}
	}
	return ids
}

// wrap оставляет доменные ошибки как есть, остальные дополняет контекстом
func wrap(err error, msg string) error {
	if apperrors.KindOf(err) != "" {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}

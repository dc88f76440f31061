package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/rajivgeraev/cardswap-api/internal/apperrors"
	"github.com/rajivgeraev/cardswap-api/internal/logger"
	"github.com/rajivgeraev/cardswap-api/internal/models"
	"github.com/rajivgeraev/cardswap-api/internal/store"
)

// Значения пагинации по умолчанию
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// CatalogService представляет сервис для работы с каталогом карт
type CatalogService struct {
	store store.Store
	log   *logger.Logger
}

// NewCatalogService создает новый экземпляр CatalogService
func NewCatalogService(st store.Store, log *logger.Logger) *CatalogService {
	if log == nil {
		log = logger.NewDefault("catalog")
	}
	return &CatalogService{store: st, log: log}
}

// CardInput данные для создания карты
type CardInput struct {
	Name        string        `json:"name"`
	Description *string       `json:"description"`
	Image       *string       `json:"image"`
	Rarity      models.Rarity `json:"rarity"`
	Set         string        `json:"set"`
}

// Normalize приводит page и limit к допустимым значениям
func Normalize(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	return page, limit
}

// ListCards возвращает страницу каталога и общее число карт
func (s *CatalogService) ListCards(ctx context.Context, page, limit int) ([]models.Card, int, error) {
	page, limit = Normalize(page, limit)

	var cards []models.Card
	var total int
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		cards, total, err = tx.ListCards(ctx, offset(page, limit), limit)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения каталога: %w", err)
	}
	return cards, total, nil
}

// GetCard возвращает карту по ID
func (s *CatalogService) GetCard(ctx context.Context, id int64) (*models.Card, error) {
	var card *models.Card
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		card, err = tx.GetCard(ctx, id)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFound("Карта не найдена")
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения карты %d: %w", id, err)
	}
	return card, nil
}

// SearchFilter условия поиска по каталогу; пустые поля не ограничивают выборку
type SearchFilter struct {
	Query  string        // подстрока названия или сета без учёта регистра
	Rarity models.Rarity // точная редкость
	Set    string        // точное название сета
}

// Empty сообщает, что фильтр ничего не ограничивает
func (f SearchFilter) Empty() bool {
	return strings.TrimSpace(f.Query) == "" && f.Rarity == "" && f.Set == ""
}

// SearchCards ищет карты по подстроке в названии или сете с фильтрами
// по редкости и сету. При непустом запросе результаты упорядочены по релевантности.
func (s *CatalogService) SearchCards(ctx context.Context, f SearchFilter, page, limit int) ([]models.Card, int, error) {
	page, limit = Normalize(page, limit)
	if f.Rarity != "" && !f.Rarity.Valid() {
		return nil, 0, apperrors.InvalidArgument("Неизвестная редкость")
	}

	var all []models.Card
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		all, _, err = tx.ListCards(ctx, 0, 0)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка поиска карт: %w", err)
	}

	query := strings.ToLower(strings.TrimSpace(f.Query))
	filtered := all[:0:0]
	for _, c := range all {
		if f.Rarity != "" && c.Rarity != f.Rarity {
			continue
		}
		if f.Set != "" && c.Set != f.Set {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(c.Name), query) &&
			!strings.Contains(strings.ToLower(c.Set), query) {
			continue
		}
		filtered = append(filtered, c)
	}

	if query != "" {
		filtered = rank(query, filtered)
		s.log.WithField("query", query).WithField("matches", len(filtered)).Debug("поиск карт")
	}

	return paginate(filtered, page, limit), len(filtered), nil
}

// rank упорядочивает найденные карты по оценке fuzzy, не меняя их набор
func rank(query string, cards []models.Card) []models.Card {
	items := make(cardSearchItems, len(cards))
	for i := range cards {
		items[i] = &cards[i]
	}

	ranked := make([]models.Card, 0, len(cards))
	seen := make([]bool, len(cards))
	for _, m := range fuzzy.FindFrom(query, items) {
		ranked = append(ranked, cards[m.Index])
		seen[m.Index] = true
	}
	for i, c := range cards {
		if !seen[i] {
			ranked = append(ranked, c)
		}
	}
	return ranked
}

// offset номер первой карты страницы; при переполнении страница заведомо пуста
func offset(page, limit int) int {
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

func paginate(cards []models.Card, page, limit int) []models.Card {
	start := offset(page, limit)
	if start >= len(cards) {
		return []models.Card{}
	}
	end := start + limit
	if limit > len(cards)-start {
		end = len(cards)
	}
	return cards[start:end]
}

// cardSearchItems реализует fuzzy.Source: ищем по "название сет"
type cardSearchItems []*models.Card

func (items cardSearchItems) Len() int {
	return len(items)
}

func (items cardSearchItems) String(i int) string {
	return strings.ToLower(items[i].Name + " " + items[i].Set)
}

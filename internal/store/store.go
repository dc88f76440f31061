// Package store описывает хранилище сущностей (пользователи, карты, коллекции, обмены).
//
// Каждый вызов сервиса выполняется ровно в одной транзакции: View для чтения,
// Update для записи. Реализация в памяти сериализует все Update (один писатель),
// реализация на PostgreSQL открывает одну транзакцию pgx на вызов.
package store

import (
	"context"
	"errors"

	"github.com/rajivgeraev/cardswap-api/internal/models"
)

var (
	// ErrNotFound запись с указанным ключом отсутствует
	ErrNotFound = errors.New("record not found")
	// ErrReadOnly попытка записи внутри View
	ErrReadOnly = errors.New("write in read-only transaction")
	// ErrDuplicate нарушение уникальности (email, username, пара user/card)
	ErrDuplicate = errors.New("duplicate record")
)

// Store точка входа в хранилище
type Store interface {
	View(ctx context.Context, fn func(tx Tx) error) error
	Update(ctx context.Context, fn func(tx Tx) error) error
	Close()
}

// Tx операции над сущностями внутри одной транзакции.
// Валидация и авторизация выполняются вызывающей стороной.
type Tx interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)

	CreateCard(ctx context.Context, c *models.Card) error
	GetCard(ctx context.Context, id int64) (*models.Card, error)
	// ListCards возвращает карты в порядке добавления; limit <= 0 означает "все".
	ListCards(ctx context.Context, offset, limit int) ([]models.Card, int, error)
	DeleteCard(ctx context.Context, id int64) error

	// LockHolding захватывает блокировку на пару (userID, cardID) до конца транзакции.
	LockHolding(ctx context.Context, userID, cardID int64) error
	GetHolding(ctx context.Context, userID, cardID int64) (*models.Holding, error)
	ListHoldings(ctx context.Context, userID int64) ([]models.Holding, error)
	// SaveHolding вставляет запись при ID == 0, иначе обновляет количество.
	SaveHolding(ctx context.Context, h *models.Holding) error
	DeleteHolding(ctx context.Context, id int64) error

	CreateTrade(ctx context.Context, t *models.Trade) error
	GetTrade(ctx context.Context, id int64) (*models.Trade, error)
	ListTradesByStatus(ctx context.Context, status models.TradeStatus) ([]models.Trade, error)
	DeleteTrade(ctx context.Context, id int64) error
	CountTradesByStatus(ctx context.Context, status models.TradeStatus) (int, error)
}

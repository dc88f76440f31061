// Package memory реализует store.Store в памяти процесса.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rajivgeraev/cardswap-api/internal/models"
	"github.com/rajivgeraev/cardswap-api/internal/store"
)

// Store хранилище в памяти. Update выполняются строго по одному,
// View могут идти параллельно друг с другом.
type Store struct {
	mu       sync.RWMutex
	users    *Table[models.User]
	cards    *Table[models.Card]
	holdings *Table[models.Holding]
	trades   *Table[models.Trade]
}

var _ store.Store = (*Store)(nil)

// New создаёт пустое хранилище
func New() *Store {
	return &Store{
		users:    NewTable[models.User](),
		cards:    NewTable[models.Card](),
		holdings: NewTable[models.Holding](),
		trades:   NewTable[models.Trade](),
	}
}

// View выполняет fn под разделяемой блокировкой
func (s *Store) View(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&tx{s: s})
}

// Update выполняет fn под эксклюзивной блокировкой.
// Отката нет: сервисы выполняют все проверки до первой записи.
func (s *Store) Update(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&tx{s: s, writable: true})
}

// Close ничего не делает
func (s *Store) Close() {}

type tx struct {
	s        *Store
	writable bool
}

func (t *tx) checkWritable() error {
	if !t.writable {
		return store.ErrReadOnly
	}
	return nil
}

// Users ------------------------------------------------------------------------

func (t *tx) CreateUser(_ context.Context, u *models.User) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	email := strings.ToLower(u.Email)
	dup := t.s.users.Scan(func(existing models.User) bool {
		return strings.ToLower(existing.Email) == email || existing.Username == u.Username
	})
	if len(dup) > 0 {
		return store.ErrDuplicate
	}

	u.ID = t.s.users.NextID()
	u.CreatedAt = time.Now().UTC()
	t.s.users.Put(u.ID, *u)
	return nil
}

func (t *tx) GetUser(_ context.Context, id int64) (*models.User, error) {
	u, ok := t.s.users.Get(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (t *tx) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	email = strings.ToLower(email)
	return firstOrNotFound(t.s.users.Scan(func(u models.User) bool {
		return strings.ToLower(u.Email) == email
	}))
}

func (t *tx) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	return firstOrNotFound(t.s.users.Scan(func(u models.User) bool {
		return u.Username == username
	}))
}

// Cards ------------------------------------------------------------------------

func (t *tx) CreateCard(_ context.Context, c *models.Card) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	c.ID = t.s.cards.NextID()
	c.CreatedAt = time.Now().UTC()
	t.s.cards.Put(c.ID, *c)
	return nil
}

func (t *tx) GetCard(_ context.Context, id int64) (*models.Card, error) {
	c, ok := t.s.cards.Get(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (t *tx) ListCards(_ context.Context, offset, limit int) ([]models.Card, int, error) {
	all := t.s.cards.Scan(nil)
	total := len(all)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []models.Card{}, total, nil
	}
	end := total
	if limit > 0 && limit < total-offset {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

func (t *tx) DeleteCard(_ context.Context, id int64) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if !t.s.cards.Delete(id) {
		return store.ErrNotFound
	}
	return nil
}

// Holdings ---------------------------------------------------------------------

// LockHolding ничего не делает: Update уже исключает параллельных писателей.
func (t *tx) LockHolding(_ context.Context, _, _ int64) error {
	return t.checkWritable()
}

func (t *tx) GetHolding(_ context.Context, userID, cardID int64) (*models.Holding, error) {
	return firstOrNotFound(t.s.holdings.Scan(func(h models.Holding) bool {
		return h.UserID == userID && h.CardID == cardID
	}))
}

func (t *tx) ListHoldings(_ context.Context, userID int64) ([]models.Holding, error) {
	return t.s.holdings.Scan(func(h models.Holding) bool {
		return h.UserID == userID
	}), nil
}

func (t *tx) SaveHolding(_ context.Context, h *models.Holding) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if h.ID == 0 {
		dup := t.s.holdings.Scan(func(existing models.Holding) bool {
			return existing.UserID == h.UserID && existing.CardID == h.CardID
		})
		if len(dup) > 0 {
			return store.ErrDuplicate
		}
		h.ID = t.s.holdings.NextID()
		h.AddedAt = time.Now().UTC()
	} else if _, ok := t.s.holdings.Get(h.ID); !ok {
		return store.ErrNotFound
	}
	t.s.holdings.Put(h.ID, *h)
	return nil
}

func (t *tx) DeleteHolding(_ context.Context, id int64) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if !t.s.holdings.Delete(id) {
		return store.ErrNotFound
	}
	return nil
}

// Trades -----------------------------------------------------------------------

func (t *tx) CreateTrade(_ context.Context, tr *models.Trade) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	tr.ID = t.s.trades.NextID()
	tr.CreatedAt = time.Now().UTC()
	t.s.trades.Put(tr.ID, tr.Clone())
	return nil
}

func (t *tx) GetTrade(_ context.Context, id int64) (*models.Trade, error) {
	tr, ok := t.s.trades.Get(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := tr.Clone()
	return &clone, nil
}

func (t *tx) ListTradesByStatus(_ context.Context, status models.TradeStatus) ([]models.Trade, error) {
	trades := t.s.trades.Scan(func(tr models.Trade) bool {
		return tr.Status == status
	})
	for i := range trades {
		trades[i] = trades[i].Clone()
	}
	return trades, nil
}

func (t *tx) DeleteTrade(_ context.Context, id int64) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if !t.s.trades.Delete(id) {
		return store.ErrNotFound
	}
	return nil
}

func (t *tx) CountTradesByStatus(_ context.Context, status models.TradeStatus) (int, error) {
	return len(t.s.trades.Scan(func(tr models.Trade) bool {
		return tr.Status == status
	})), nil
}

func firstOrNotFound[T any](recs []T) (*T, error) {
	if len(recs) == 0 {
		return nil, store.ErrNotFound
	}
	return &recs[0], nil
}

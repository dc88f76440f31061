// Package postgres реализует store.Store поверх PostgreSQL (pgx).
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rajivgeraev/cardswap-api/internal/models"
	"github.com/rajivgeraev/cardswap-api/internal/store"
)

const uniqueViolation = "23505"

// Store хранилище на пуле соединений pgx
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// New создаёт хранилище на готовом пуле
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// View выполняет fn в транзакции только для чтения
func (s *Store) View(ctx context.Context, fn func(tx store.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{AccessMode: pgx.ReadOnly}, func(ptx pgx.Tx) error {
		return fn(&tx{tx: ptx})
	})
}

// Update выполняет fn в транзакции на запись; ошибка fn откатывает транзакцию
func (s *Store) Update(ctx context.Context, fn func(tx store.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(ptx pgx.Tx) error {
		return fn(&tx{tx: ptx, writable: true})
	})
}

// Close закрывает пул
func (s *Store) Close() {
	s.pool.Close()
}

type tx struct {
	tx       pgx.Tx
	writable bool
}

func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", store.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func expectOne(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Users ------------------------------------------------------------------------

const userColumns = `id, username, email, password, name, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.Name, &u.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (t *tx) CreateUser(ctx context.Context, u *models.User) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO users (username, email, password, name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, u.Username, u.Email, u.Password, u.Name).Scan(&u.ID, &u.CreatedAt)
	return mapErr(err)
}

func (t *tx) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(t.tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (t *tx) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(t.tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (t *tx) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(t.tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// Cards ------------------------------------------------------------------------

const cardColumns = `id, name, description, image, rarity, set_name, created_at`

func scanCard(row pgx.Row) (*models.Card, error) {
	var c models.Card
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Image, &c.Rarity, &c.Set, &c.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (t *tx) CreateCard(ctx context.Context, c *models.Card) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO cards (name, description, image, rarity, set_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, c.Name, c.Description, c.Image, c.Rarity, c.Set).Scan(&c.ID, &c.CreatedAt)
	return mapErr(err)
}

func (t *tx) GetCard(ctx context.Context, id int64) (*models.Card, error) {
	return scanCard(t.tx.QueryRow(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = $1`, id))
}

func (t *tx) ListCards(ctx context.Context, offset, limit int) ([]models.Card, int, error) {
	var total int
	if err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM cards`).Scan(&total); err != nil {
		return nil, 0, mapErr(err)
	}

	if offset < 0 {
		offset = 0
	}
	// LIMIT NULL в PostgreSQL означает "без ограничения"
	var limitArg *int
	if limit > 0 {
		limitArg = &limit
	}

	rows, err := t.tx.Query(ctx, `
		SELECT `+cardColumns+`
		FROM cards
		ORDER BY id ASC
		LIMIT $1 OFFSET $2
	`, limitArg, offset)
	if err != nil {
		return nil, 0, mapErr(err)
	}
	defer rows.Close()

	cards := []models.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, 0, err
		}
		cards = append(cards, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapErr(err)
	}
	return cards, total, nil
}

func (t *tx) DeleteCard(ctx context.Context, id int64) error {
	return expectOne(t.tx.Exec(ctx, `DELETE FROM cards WHERE id = $1`, id))
}

// Holdings ---------------------------------------------------------------------

const holdingColumns = `id, user_id, card_id, quantity, added_at`

func scanHolding(row pgx.Row) (*models.Holding, error) {
	var h models.Holding
	if err := row.Scan(&h.ID, &h.UserID, &h.CardID, &h.Quantity, &h.AddedAt); err != nil {
		return nil, mapErr(err)
	}
	return &h, nil
}

// LockHolding берёт транзакционную advisory-блокировку на пару (user, card):
// строки ещё может не быть, поэтому SELECT ... FOR UPDATE не подходит.
func (t *tx) LockHolding(ctx context.Context, userID, cardID int64) error {
	if !t.writable {
		return store.ErrReadOnly
	}
	key := fmt.Sprintf("user_cards:%d:%d", userID, cardID)
	_, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key)
	return mapErr(err)
}

func (t *tx) GetHolding(ctx context.Context, userID, cardID int64) (*models.Holding, error) {
	return scanHolding(t.tx.QueryRow(ctx, `
		SELECT `+holdingColumns+` FROM user_cards WHERE user_id = $1 AND card_id = $2
	`, userID, cardID))
}

func (t *tx) ListHoldings(ctx context.Context, userID int64) ([]models.Holding, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+holdingColumns+` FROM user_cards WHERE user_id = $1 ORDER BY id ASC
	`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var holdings []models.Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, *h)
	}
	return holdings, mapErr(rows.Err())
}

func (t *tx) SaveHolding(ctx context.Context, h *models.Holding) error {
	if h.ID == 0 {
		err := t.tx.QueryRow(ctx, `
			INSERT INTO user_cards (user_id, card_id, quantity)
			VALUES ($1, $2, $3)
			RETURNING id, added_at
		`, h.UserID, h.CardID, h.Quantity).Scan(&h.ID, &h.AddedAt)
		return mapErr(err)
	}
	return expectOne(t.tx.Exec(ctx, `UPDATE user_cards SET quantity = $1 WHERE id = $2`, h.Quantity, h.ID))
}

func (t *tx) DeleteHolding(ctx context.Context, id int64) error {
	return expectOne(t.tx.Exec(ctx, `DELETE FROM user_cards WHERE id = $1`, id))
}

// Trades -----------------------------------------------------------------------

const tradeColumns = `id, creator_id, message, offered_cards, wanted_cards, status, created_at`

func scanTrade(row pgx.Row) (*models.Trade, error) {
	var tr models.Trade
	var offeredData, wantedData []byte
	if err := row.Scan(&tr.ID, &tr.CreatorID, &tr.Message, &offeredData, &wantedData, &tr.Status, &tr.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	if err := json.Unmarshal(offeredData, &tr.OfferedCards); err != nil {
		return nil, fmt.Errorf("ошибка разбора offered_cards обмена %d: %w", tr.ID, err)
	}
	if err := json.Unmarshal(wantedData, &tr.WantedCards); err != nil {
		return nil, fmt.Errorf("ошибка разбора wanted_cards обмена %d: %w", tr.ID, err)
	}
	return &tr, nil
}

func (t *tx) CreateTrade(ctx context.Context, tr *models.Trade) error {
	offeredData, err := json.Marshal(tr.OfferedCards)
	if err != nil {
		return err
	}
	wantedData, err := json.Marshal(tr.WantedCards)
	if err != nil {
		return err
	}

	err = t.tx.QueryRow(ctx, `
		INSERT INTO trades (creator_id, message, offered_cards, wanted_cards, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, tr.CreatorID, tr.Message, offeredData, wantedData, tr.Status).Scan(&tr.ID, &tr.CreatedAt)
	return mapErr(err)
}

// GetTrade в транзакции на запись блокирует строку до конца транзакции,
// поэтому два параллельных удаления одного обмена не пройдут оба.
func (t *tx) GetTrade(ctx context.Context, id int64) (*models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE id = $1`
	if t.writable {
		query += ` FOR UPDATE`
	}
	return scanTrade(t.tx.QueryRow(ctx, query, id))
}

func (t *tx) ListTradesByStatus(ctx context.Context, status models.TradeStatus) ([]models.Trade, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT `+tradeColumns+` FROM trades WHERE status = $1 ORDER BY id ASC
	`, status)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		tr, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, *tr)
	}
	return trades, mapErr(rows.Err())
}

func (t *tx) DeleteTrade(ctx context.Context, id int64) error {
	return expectOne(t.tx.Exec(ctx, `DELETE FROM trades WHERE id = $1`, id))
}

func (t *tx) CountTradesByStatus(ctx context.Context, status models.TradeStatus) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM trades WHERE status = $1`, status).Scan(&n)
	return n, mapErr(err)
}

// Package migrations содержит схему базы данных и применяет её.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// Statements выполняются по порядку; каждое идемпотентно.
var Statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         BIGSERIAL PRIMARY KEY,
		username   TEXT NOT NULL UNIQUE,
		email      TEXT NOT NULL UNIQUE,
		password   TEXT NOT NULL,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS cards (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT,
		image       TEXT,
		rarity      TEXT NOT NULL CHECK (rarity IN ('common', 'rare', 'epic', 'legendary')),
		set_name    TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS user_cards (
		id       BIGSERIAL PRIMARY KEY,
		user_id  BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		card_id  BIGINT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 1 CHECK (quantity >= 1),
		added_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, card_id)
	)`,
	`CREATE TABLE IF NOT EXISTS trades (
		id            BIGSERIAL PRIMARY KEY,
		creator_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		message       TEXT,
		offered_cards JSONB NOT NULL,
		wanted_cards  JSONB NOT NULL,
		status        TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'completed', 'cancelled')),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_status ON trades (status, id)`,
	// email уникален без учёта регистра, как и при поиске
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_users_email_lower ON users (lower(email))`,
}

// Apply применяет все миграции
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range Statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ошибка применения миграции %d: %w", i+1, err)
		}
	}
	return nil
}

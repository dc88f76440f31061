// Package seed заполняет пустой каталог картами из YAML.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rajivgeraev/cardswap-api/internal/logger"
	"github.com/rajivgeraev/cardswap-api/internal/models"
	"github.com/rajivgeraev/cardswap-api/internal/store"
)

//go:embed cards.yaml
var defaultCards []byte

type catalogFile struct {
	Cards []models.Card `yaml:"cards"`
}

// Parse разбирает и проверяет YAML-каталог
func Parse(data []byte) ([]models.Card, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	for i := range f.Cards {
		c := &f.Cards[i]
		c.Name = strings.TrimSpace(c.Name)
		c.Set = strings.TrimSpace(c.Set)
		if c.Name == "" {
			return nil, fmt.Errorf("card #%d: name is required", i+1)
		}
		if c.Set == "" {
			return nil, fmt.Errorf("card %q: set is required", c.Name)
		}
		if !c.Rarity.Valid() {
			return nil, fmt.Errorf("card %q: unknown rarity %q", c.Name, c.Rarity)
		}
	}
	return f.Cards, nil
}

// Load читает каталог из файла; пустой путь означает встроенный каталог
func Load(path string) ([]models.Card, error) {
	if path == "" {
		return Parse(defaultCards)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Catalog добавляет карты, если в каталоге ещё нет ни одной.
// Проверка и вставка идут в одной транзакции. Возвращает число добавленных карт.
func Catalog(ctx context.Context, st store.Store, cards []models.Card, log *logger.Logger) (int, error) {
	added := 0
	err := st.Update(ctx, func(tx store.Tx) error {
		_, total, err := tx.ListCards(ctx, 0, 1)
		if err != nil {
			return err
		}
		if total > 0 {
			return nil
		}
		for _, c := range cards {
			card := c
			if err := tx.CreateCard(ctx, &card); err != nil {
				return fmt.Errorf("card %q: %w", c.Name, err)
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to seed catalog: %w", err)
	}

	if added > 0 {
		log.WithField("cards", added).Info("каталог заполнен картами по умолчанию")
	} else {
		log.Debug("каталог не пуст, начальные данные пропущены")
	}
	return added, nil
}

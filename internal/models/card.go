package models

import "time"

// Rarity редкость карты
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Valid проверяет, что редкость входит в допустимый набор
func (r Rarity) Valid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

// Card представляет карту каталога
type Card struct {
	ID          int64     `json:"id" yaml:"-"`
	Name        string    `json:"name" yaml:"name"`
	Description *string   `json:"description" yaml:"description"`
	Image       *string   `json:"image" yaml:"image"`
	Rarity      Rarity    `json:"rarity" yaml:"rarity"`
	Set         string    `json:"set" yaml:"set"`
	CreatedAt   time.Time `json:"createdAt" yaml:"-"`
}

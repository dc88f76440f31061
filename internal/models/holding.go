package models

import "time"

// Holding запись о количестве копий карты у пользователя.
// На пару (UserID, CardID) существует не более одной записи.
type Holding struct {
	ID       int64     `json:"id"`
	UserID   int64     `json:"userId"`
	CardID   int64     `json:"cardId"`
	Quantity int       `json:"quantity"`
	AddedAt  time.Time `json:"addedAt"`
}

// HoldingWithCard запись коллекции вместе с данными карты
type HoldingWithCard struct {
	Holding
	Card Card `json:"card"`
}

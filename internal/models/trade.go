package models

import "time"

// TradeStatus статус торгового предложения
type TradeStatus string

const (
	TradeOpen TradeStatus = "open"
	// TradeCompleted и TradeCancelled объявлены для совместимости с хранимыми
	// данными; ни одна операция сервиса не переводит в них предложение.
	TradeCompleted TradeStatus = "completed"
	TradeCancelled TradeStatus = "cancelled"
)

// TradeCardEntry пара (карта, количество) внутри предложения обмена
type TradeCardEntry struct {
	CardID   int64 `json:"cardId"`
	Quantity int   `json:"quantity"`
}

// Trade представляет предложение обмена карт
type Trade struct {
	ID           int64            `json:"id"`
	CreatorID    int64            `json:"creatorId"`
	Message      *string          `json:"message"`
	OfferedCards []TradeCardEntry `json:"offeredCards"`
	WantedCards  []TradeCardEntry `json:"wantedCards"`
	Status       TradeStatus      `json:"status"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// Clone возвращает копию предложения, не разделяющую срезы с оригиналом
func (t Trade) Clone() Trade {
	t.OfferedCards = append([]TradeCardEntry(nil), t.OfferedCards...)
	t.WantedCards = append([]TradeCardEntry(nil), t.WantedCards...)
	if t.Message != nil {
		msg := *t.Message
		t.Message = &msg
	}
	return t
}

// TradeListing предложение обмена с данными автора и карт для API
type TradeListing struct {
	Trade
	Creator            *PublicUser `json:"creator"`
	OfferedCardDetails []Card      `json:"offeredCardDetails"`
	WantedCardDetails  []Card      `json:"wantedCardDetails"`
}

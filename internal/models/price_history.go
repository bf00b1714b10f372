package models

import (
	"time"
)

// UnknownEdition is the placeholder edition stored when a price
// observation arrives without one. It doubles as a join key for
// browsing views, so the literal must never change.
const UnknownEdition = "Unknown Edition"

// HistoryPoint is one observed price at one point in time.
type HistoryPoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// PriceHistoryRecord is the append-only time series for one
// (cardId|null, setName, number, rarity, edition) tuple. History only
// ever grows under this engine; compaction is out of scope.
type PriceHistoryRecord struct {
	ID        uint           `json:"-" gorm:"primaryKey;autoIncrement"`
	CardID    *string        `json:"card_id" gorm:"index:idx_history_tuple"`
	SetName   string         `json:"set_name" gorm:"index:idx_history_tuple"`
	Number    string         `json:"number" gorm:"index:idx_history_tuple"`
	Rarity    string         `json:"rarity" gorm:"index:idx_history_tuple"`
	Edition   string         `json:"edition" gorm:"index:idx_history_tuple"`
	History   []HistoryPoint `json:"history" gorm:"serializer:json"`
	LastPrice float64        `json:"last_price"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// HistoryFilter identifies a single price history record. CardID is an
// explicit null when unknown so the filter shape stays stable.
type HistoryFilter struct {
	CardID  *string
	SetName string
	Number  string
	Rarity  string
	Edition string
}

// PriceObservation is one incoming price reading for a variant tuple.
// A zero Date means "now".
type PriceObservation struct {
	CardID  string
	SetName string
	Number  string
	Rarity  string
	Edition string
	Price   float64
	Date    time.Time
}

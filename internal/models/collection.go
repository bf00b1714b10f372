package models

import (
	"time"
)

// CollectionKey holds the five fields that identify one owned variant.
// The derived key is a pure function of these fields; computing it
// implies no ownership or persisted state.
type CollectionKey struct {
	ProductName string `json:"productName"`
	SetName     string `json:"setName"`
	Number      string `json:"number"`
	Printing    string `json:"printing"`
	Rarity      string `json:"rarity"`
}

// CollectionEntry is a persisted record of an owned card variant.
type CollectionEntry struct {
	ID          uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	PublicID    string    `json:"id" gorm:"uniqueIndex;not null"`
	UserID      string    `json:"user_id" gorm:"not null;index"`
	ProductName string    `json:"product_name" gorm:"not null;index"`
	SetName     string    `json:"set_name"`
	Number      string    `json:"number"`
	Printing    string    `json:"printing"`
	Rarity      string    `json:"rarity"`
	Condition   string    `json:"condition"`
	MarketPrice float64   `json:"market_price"`
	Quantity    int       `json:"quantity" gorm:"default:1"`
	AddedAt     time.Time `json:"added_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// KeyFields returns the identity dimensions of this entry.
func (e *CollectionEntry) KeyFields() CollectionKey {
	return CollectionKey{
		ProductName: e.ProductName,
		SetName:     e.SetName,
		Number:      e.Number,
		Printing:    e.Printing,
		Rarity:      e.Rarity,
	}
}

type AddToCollectionRequest struct {
	ProductName string  `json:"product_name" binding:"required"`
	SetName     string  `json:"set_name"`
	Number      string  `json:"number"`
	Printing    string  `json:"printing"`
	Rarity      string  `json:"rarity"`
	Condition   string  `json:"condition"`
	MarketPrice float64 `json:"market_price"`
	Quantity    int     `json:"quantity"`
}

type UpdateCollectionRequest struct {
	Quantity    *int     `json:"quantity"`
	Condition   *string  `json:"condition"`
	Printing    *string  `json:"printing"`
	Rarity      *string  `json:"rarity"`
	MarketPrice *float64 `json:"market_price"`
}

type CollectionStats struct {
	TotalCards  int     `json:"total_cards"`
	UniqueCards int     `json:"unique_cards"`
	TotalValue  float64 `json:"total_value"`
}

package models

// RawListing is one priced SKU row as returned by the upstream pricing
// source. One row exists per condition/printing/rarity combination of a
// product. Every field is optional in practice; rows arrive per API call
// and are never persisted verbatim.
type RawListing struct {
	ProductID   string   `json:"productId"`
	ProductName string   `json:"productName"`
	Number      string   `json:"number"`
	Printing    string   `json:"printing"`
	Condition   string   `json:"condition"`
	Rarity      string   `json:"rarity"`
	MarketPrice *float64 `json:"marketPrice"`
	LowPrice    *float64 `json:"lowPrice"`
}

// Variant is a RawListing enriched with a derived base condition (the
// grade portion of the compound condition label with the printing suffix
// stripped) and the name of the set it was fetched for. Immutable once
// derived.
type Variant struct {
	RawListing
	BaseCondition string `json:"baseCondition"`
	SetName       string `json:"setName"`
}

// Card groups all variants sharing one product name. Cards are built
// fresh on every aggregation pass and never persisted.
type Card struct {
	ProductName string    `json:"productName"`
	ProductID   string    `json:"productId"`
	Meta        *CardMeta `json:"meta,omitempty"`
	Variants    []Variant `json:"variants"`
}

// CardMeta is one entry of the external card catalog snapshot, used to
// enrich aggregated cards with artwork and typing information.
type CardMeta struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Archetype string `json:"archetype"`
}

// VariantPreferences is a possibly-partial user preference for picking a
// single variant out of a card. Empty fields mean "don't care".
type VariantPreferences struct {
	Condition string `json:"condition" form:"condition"`
	Printing  string `json:"printing" form:"printing"`
	Rarity    string `json:"rarity" form:"rarity"`
}

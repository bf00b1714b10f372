package services

import (
	"sort"
	"strconv"
	"strings"

	"cardledger/internal/metrics"
	"cardledger/internal/models"
)

// tryDeriveVariant builds a Variant from a raw listing row. Rows without
// a product name are malformed and reported as not ok; dropping them is
// the extraction step's best-effort policy, not an error. The rarity
// label is canonicalized here so every downstream comparison sees the
// same tier label.
func tryDeriveVariant(listing models.RawListing, setName string) (models.Variant, bool) {
	name := strings.TrimSpace(listing.ProductName)
	if name == "" {
		metrics.ListingsSkippedTotal.Inc()
		return models.Variant{}, false
	}
	listing.ProductName = name
	listing.Rarity = NormalizeRarity(strings.TrimSpace(listing.Rarity))

	return models.Variant{
		RawListing:    listing,
		BaseCondition: deriveBaseCondition(listing.Condition, listing.Printing),
		SetName:       setName,
	}, true
}

// deriveBaseCondition strips the printing suffix from a compound
// condition label ("Near Mint 1st Edition" -> "Near Mint"). With no
// printing, the base condition is just the trimmed condition.
func deriveBaseCondition(condition, printing string) string {
	cond := strings.TrimSpace(condition)
	p := strings.TrimSpace(printing)
	if p == "" {
		return cond
	}
	if len(cond) >= len(p) && strings.EqualFold(cond[len(cond)-len(p):], p) {
		return strings.TrimSpace(cond[:len(cond)-len(p)])
	}
	return cond
}

// Aggregate groups flat listing rows into cards, one card per exact
// trimmed product name. The grouping key is case-sensitive: "Foo" and
// "foo" form separate cards. Within each card, the first listing whose
// name resolves in the metadata index supplies the card metadata, and
// the product id prefers an explicit listing-provided id over the
// catalog's. Variants are sorted by (printing, baseCondition, rarity)
// and the card list by product name, so the same input set always
// aggregates to the same output regardless of listing order.
func Aggregate(listings []models.RawListing, setName string, index *CardMetadataIndex) []models.Card {
	groups := make(map[string]*models.Card)

	for _, listing := range listings {
		variant, ok := tryDeriveVariant(listing, setName)
		if !ok {
			continue
		}

		card, exists := groups[variant.ProductName]
		if !exists {
			card = &models.Card{ProductName: variant.ProductName}
			groups[variant.ProductName] = card
		}

		if card.Meta == nil && index != nil {
			card.Meta = index.Lookup(variant.ProductName)
		}
		if card.ProductID == "" && variant.RawListing.ProductID != "" {
			card.ProductID = variant.RawListing.ProductID
		}

		card.Variants = append(card.Variants, variant)
		metrics.ListingsAggregatedTotal.Inc()
	}

	cards := make([]models.Card, 0, len(groups))
	for _, card := range groups {
		if card.ProductID == "" && card.Meta != nil {
			card.ProductID = itoa(card.Meta.ID)
		}
		sortVariants(card.Variants)
		cards = append(cards, *card)
	}

	sort.Slice(cards, func(i, j int) bool {
		return cards[i].ProductName < cards[j].ProductName
	})

	return cards
}

// sortVariants orders variants by (printing, baseCondition, rarity)
// using plain byte-wise string comparison. Missing fields are already
// empty strings, which sort first.
func sortVariants(variants []models.Variant) {
	sort.SliceStable(variants, func(i, j int) bool {
		a, b := &variants[i], &variants[j]
		if a.Printing != b.Printing {
			return a.Printing < b.Printing
		}
		if a.BaseCondition != b.BaseCondition {
			return a.BaseCondition < b.BaseCondition
		}
		return a.Rarity < b.Rarity
	})
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

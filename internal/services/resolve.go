package services

import (
	"strings"

	"cardledger/internal/models"
)

// variantCombos is the fallback priority for FindBestVariant. Each row
// says which preference fields to constrain on: condition, printing,
// rarity. Rows are tried top to bottom; condition outranks printing,
// which outranks rarity. The last row is unconstrained.
var variantCombos = [8][3]bool{
	{true, true, true},
	{true, true, false},
	{true, false, true},
	{false, true, true},
	{true, false, false},
	{false, true, false},
	{false, false, true},
	{false, false, false},
}

// FindBestVariant selects the single variant best matching a
// possibly-partial preference. Empty preference fields are wildcards.
// Combinations of constrained fields are tried in strict priority order
// and the first variant (in the card's sorted order) satisfying the
// combination wins. Returns nil only for an empty variant slice: the
// final unconstrained combination always matches.
func FindBestVariant(variants []models.Variant, prefs models.VariantPreferences) *models.Variant {
	if len(variants) == 0 {
		return nil
	}

	condition := strings.TrimSpace(prefs.Condition)
	printing := strings.TrimSpace(prefs.Printing)
	// Rarity preferences go through the same canonicalization as the
	// variants themselves, so alias labels still match.
	rarity := ""
	if r := strings.TrimSpace(prefs.Rarity); r != "" {
		rarity = NormalizeRarity(r)
	}

	for _, combo := range variantCombos {
		for i := range variants {
			v := &variants[i]
			if combo[0] && condition != "" && v.BaseCondition != condition {
				continue
			}
			if combo[1] && printing != "" && v.Printing != printing {
				continue
			}
			if combo[2] && rarity != "" && v.Rarity != rarity {
				continue
			}
			return v
		}
	}

	return &variants[0]
}

// RarityOptions lists the distinct rarities of a card's variants in
// variant order, for preference pickers.
func RarityOptions(variants []models.Variant) []string {
	seen := make(map[string]bool)
	options := make([]string, 0, len(variants))
	for i := range variants {
		r := variants[i].Rarity
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		options = append(options, r)
	}
	return options
}

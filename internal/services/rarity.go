package services

import (
	"log"
	"strings"

	"cardledger/internal/metrics"
)

// rarityAliases maps every known upstream rarity label to one canonical
// label per logical tier. Lookup keys are lower-cased trimmed forms.
var rarityAliases = map[string]string{
	"common":                             "Common",
	"common / short print":               "Common",
	"short print":                        "Common",
	"super short print":                  "Common",
	"rare":                               "Rare",
	"holofoil rare":                      "Rare",
	"super rare":                         "Super Rare",
	"ultra rare":                         "Ultra Rare",
	"ultra rare (pharaoh's rare)":        "Ultra Rare",
	"ultimate rare":                      "Ultimate Rare",
	"secret rare":                        "Secret Rare",
	"prismatic secret rare":              "Prismatic Secret Rare",
	"quarter century secret rare":        "Quarter Century Secret Rare",
	"ghost rare":                         "Ghost Rare",
	"ghost/gold rare":                    "Ghost Rare",
	"starlight rare":                     "Starlight Rare",
	"collector's rare":                   "Collector's Rare",
	"collectors rare":                    "Collector's Rare",
	"gold rare":                          "Gold Rare",
	"gold secret rare":                   "Gold Rare",
	"premium gold rare":                  "Gold Rare",
	"platinum rare":                      "Platinum Rare",
	"platinum secret rare":               "Platinum Rare",
	"parallel rare":                      "Parallel Rare",
	"ultra parallel rare":                "Parallel Rare",
	"duel terminal normal parallel rare": "Parallel Rare",
	"starfoil rare":                      "Starfoil Rare",
	"starfoil":                           "Starfoil Rare",
	"mosaic rare":                        "Mosaic Rare",
	"shatterfoil rare":                   "Shatterfoil Rare",
}

// NormalizeRarity maps a free-text rarity label from the upstream
// catalog to its canonical tier. Unknown labels are returned unchanged
// (fail-open) with a warning diagnostic so an unrecognized label never
// breaks matching entirely; callers needing strict rarity equality
// should watch the unknown-rarity metric.
func NormalizeRarity(rarity string) string {
	key := strings.ToLower(strings.TrimSpace(rarity))
	if key == "" {
		return rarity
	}
	if canonical, ok := rarityAliases[key]; ok {
		return canonical
	}
	log.Printf("Warning: unknown rarity label %q, passing through unchanged", rarity)
	metrics.UnknownRarityTotal.Inc()
	return rarity
}

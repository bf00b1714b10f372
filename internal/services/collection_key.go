package services

import (
	"strings"

	"cardledger/internal/models"
)

// BuildCollectionKey derives the canonical identity string for one owned
// variant: the five trimmed identity fields joined by '|'. Pure and
// deterministic; identical inputs always yield the identical key.
func BuildCollectionKey(key models.CollectionKey) string {
	fields := []string{
		strings.TrimSpace(key.ProductName),
		strings.TrimSpace(key.SetName),
		strings.TrimSpace(key.Number),
		strings.TrimSpace(key.Printing),
		strings.TrimSpace(key.Rarity),
	}
	return strings.Join(fields, "|")
}

// BuildCollectionMap folds entries into a map keyed by collection key.
// Colliding keys keep the later entry (last-writer-wins); the
// persistence layer's upsert is assumed to have deduplicated already.
func BuildCollectionMap(entries []models.CollectionEntry) map[string]models.CollectionEntry {
	m := make(map[string]models.CollectionEntry, len(entries))
	for _, entry := range entries {
		m[BuildCollectionKey(entry.KeyFields())] = entry
	}
	return m
}

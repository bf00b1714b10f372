package services

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"cardledger/internal/metrics"
	"cardledger/internal/models"
)

const catalogFileName = "card-catalog.json"

// CardMetadataIndex maps every generated name key of the card catalog to
// that card's metadata. The index is built explicitly by its owner (the
// server builds it once at startup) and rebuilt on demand; lookups may
// run concurrently with a rebuild.
type CardMetadataIndex struct {
	mu    sync.RWMutex
	byKey map[string]*models.CardMeta
}

// NewCardMetadataIndex builds an index over the given catalog snapshot.
func NewCardMetadataIndex(catalog []models.CardMeta) *CardMetadataIndex {
	idx := &CardMetadataIndex{}
	idx.Rebuild(catalog)
	return idx
}

// Rebuild replaces the index contents from a fresh catalog snapshot.
// The new map is swapped in atomically so concurrent lookups never see a
// partially built index.
//
// Insertion is first-writer-wins: when two catalog entries generate the
// same name key, the earlier entry keeps it. This favors canonical
// entries over later reprints sharing a loosened name.
func (idx *CardMetadataIndex) Rebuild(catalog []models.CardMeta) {
	byKey := make(map[string]*models.CardMeta, len(catalog)*2)
	for i := range catalog {
		meta := &catalog[i]
		for _, key := range GenerateNameVariants(meta.Name) {
			if _, exists := byKey[key]; !exists {
				byKey[key] = meta
			}
		}
	}

	idx.mu.Lock()
	idx.byKey = byKey
	idx.mu.Unlock()

	metrics.CatalogIndexSize.Set(float64(len(byKey)))
}

// Lookup resolves a product name to catalog metadata by trying its
// generated name variants in emission order. Returns nil when no variant
// matches; there is no fuzzy scoring beyond the fixed variant list.
func (idx *CardMetadataIndex) Lookup(productName string) *models.CardMeta {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for _, key := range GenerateNameVariants(productName) {
		if meta, ok := idx.byKey[key]; ok {
			return meta
		}
	}
	return nil
}

// Size returns the number of keys in the index.
func (idx *CardMetadataIndex) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byKey)
}

// LoadCatalog reads the card catalog snapshot from the data directory.
// Individual entries without a name are skipped rather than failing the
// whole load.
func LoadCatalog(dataDir string) ([]models.CardMeta, error) {
	path := filepath.Join(dataDir, catalogFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var payload struct {
		Data []models.CardMeta `json:"data"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	catalog := make([]models.CardMeta, 0, len(payload.Data))
	for _, meta := range payload.Data {
		if meta.Name == "" {
			continue
		}
		catalog = append(catalog, meta)
	}

	log.Printf("Catalog: loaded %d cards from %s", len(catalog), path)
	return catalog, nil
}

package services

import (
	"context"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"cardledger/internal/metrics"
	"cardledger/internal/models"
)

const defaultUpdateInterval = 15 * time.Minute

// PriceWorker periodically refreshes prices for owned cards. Each batch
// walks the distinct sets in the collection, fetches fresh listings for
// a set, aggregates them, resolves each owned entry against its
// preferred variant, updates the entry's market price, and records a
// price history point. Each history write is an independent atomic store
// call, so a batch that stops partway leaves no half-written records.
type PriceWorker struct {
	db             *gorm.DB
	pricing        *PricingClient
	index          *CardMetadataIndex
	history        *PriceHistoryStore
	updateInterval time.Duration
	mu             sync.RWMutex

	// Priority queue of set names for user-requested refreshes
	urgentQueue []string
	urgentMu    sync.Mutex

	// Stats (reset at midnight)
	entriesUpdatedToday int
	lastUpdateTime      time.Time
	lastStatsDay        time.Time
}

// WorkerStatus is a point-in-time snapshot of the worker.
type WorkerStatus struct {
	LastUpdateTime      time.Time `json:"last_update_time"`
	NextUpdateTime      time.Time `json:"next_update_time"`
	EntriesUpdatedToday int       `json:"entries_updated_today"`
	QueueSize           int       `json:"queue_size"`

	// Upstream quota info
	DailyLimit int       `json:"daily_limit"`
	Remaining  int       `json:"remaining"`
	ResetsAt   time.Time `json:"resets_at,omitempty"`
}

func NewPriceWorker(db *gorm.DB, pricing *PricingClient, index *CardMetadataIndex, history *PriceHistoryStore) *PriceWorker {
	return &PriceWorker{
		db:             db,
		pricing:        pricing,
		index:          index,
		history:        history,
		updateInterval: defaultUpdateInterval,
	}
}

// QueueRefresh adds a set to the high-priority refresh queue and returns
// its position (1-indexed).
func (w *PriceWorker) QueueRefresh(setName string) int {
	w.urgentMu.Lock()
	defer w.urgentMu.Unlock()

	for i, queued := range w.urgentQueue {
		if queued == setName {
			return i + 1
		}
	}
	w.urgentQueue = append(w.urgentQueue, setName)
	log.Printf("Price worker: queued refresh for set %q (queue size: %d)", setName, len(w.urgentQueue))
	return len(w.urgentQueue)
}

// GetQueueSize returns the current urgent queue size.
func (w *PriceWorker) GetQueueSize() int {
	w.urgentMu.Lock()
	defer w.urgentMu.Unlock()
	return len(w.urgentQueue)
}

// Start begins the background price update loop.
func (w *PriceWorker) Start(ctx context.Context) {
	log.Printf("Price worker started: will refresh owned sets every %v", w.updateInterval)

	if updated, err := w.UpdateBatch(ctx); err != nil {
		log.Printf("Price worker: initial batch update failed: %v", err)
	} else {
		log.Printf("Price worker: initial batch updated %d entries", updated)
	}

	ticker := time.NewTicker(w.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Price worker stopping...")
			return
		case <-ticker.C:
			if updated, err := w.UpdateBatch(ctx); err != nil {
				log.Printf("Price worker: batch update failed: %v", err)
			} else if updated > 0 {
				log.Printf("Price worker: batch updated %d entries", updated)
			}
		}
	}
}

// resetDailyStatsIfNeeded resets entriesUpdatedToday at midnight.
func (w *PriceWorker) resetDailyStatsIfNeeded() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if w.lastStatsDay.Before(today) {
		if !w.lastStatsDay.IsZero() {
			log.Printf("Price worker: daily stats reset (previous day: %d entries updated)", w.entriesUpdatedToday)
		}
		w.entriesUpdatedToday = 0
		w.lastStatsDay = today
	}
}

// UpdateBatch refreshes prices for every set that has owned entries,
// urgent refreshes first. Returns the number of entries updated.
func (w *PriceWorker) UpdateBatch(ctx context.Context) (int, error) {
	w.resetDailyStatsIfNeeded()

	if w.pricing.GetRequestsRemaining() == 0 {
		log.Printf("Price worker: pricing quota exhausted, skipping until %s",
			w.pricing.GetResetTime().Format("15:04"))
		return 0, nil
	}

	start := time.Now()

	// Urgent refreshes first, then every set with owned entries.
	w.urgentMu.Lock()
	sets := w.urgentQueue
	w.urgentQueue = nil
	w.urgentMu.Unlock()

	queued := make(map[string]bool, len(sets))
	for _, s := range sets {
		queued[s] = true
	}

	var ownedSets []string
	if err := w.db.Model(&models.CollectionEntry{}).
		Where("set_name != ''").
		Distinct("set_name").
		Pluck("set_name", &ownedSets).Error; err != nil {
		return 0, err
	}
	for _, s := range ownedSets {
		if !queued[s] {
			sets = append(sets, s)
		}
	}

	if len(sets) == 0 {
		log.Println("Price worker: no sets to update")
		return 0, nil
	}

	updated := 0
	for si, setName := range sets {
		if ctx.Err() != nil {
			break
		}
		if w.pricing.GetRequestsRemaining() == 0 {
			log.Printf("Price worker: quota exhausted mid-batch, %d sets deferred", len(sets)-si)
			break
		}

		n, err := w.refreshSet(ctx, setName)
		if err != nil {
			log.Printf("Price worker: failed to refresh set %q: %v (will retry next batch)", setName, err)
			continue
		}
		updated += n
	}

	w.mu.Lock()
	w.entriesUpdatedToday += updated
	w.lastUpdateTime = time.Now()
	entriesToday := w.entriesUpdatedToday
	w.mu.Unlock()

	metrics.PriceUpdatesTotal.Add(float64(updated))
	metrics.PriceUpdatesToday.Set(float64(entriesToday))
	metrics.PriceBatchDuration.Observe(time.Since(start).Seconds())
	metrics.PricingQuotaRemaining.Set(float64(w.pricing.GetRequestsRemaining()))
	metrics.PricingQuotaLimit.Set(float64(w.pricing.GetDailyLimit()))

	return updated, nil
}

// refreshSet fetches fresh listings for one set and updates every owned
// entry in it. Entries whose variant cannot be resolved to a priced
// listing are skipped, not failed.
func (w *PriceWorker) refreshSet(ctx context.Context, setName string) (int, error) {
	listings, err := w.pricing.FetchSetListings(ctx, setName)
	if err != nil {
		return 0, err
	}

	cards := Aggregate(listings, setName, w.index)
	cardsByName := make(map[string]*models.Card, len(cards))
	for i := range cards {
		cardsByName[cards[i].ProductName] = &cards[i]
	}

	var entries []models.CollectionEntry
	if err := w.db.Where("set_name = ?", setName).Find(&entries).Error; err != nil {
		return 0, err
	}

	updated := 0
	for i := range entries {
		entry := &entries[i]
		card, ok := cardsByName[entry.ProductName]
		if !ok {
			continue
		}

		variant := FindBestVariant(card.Variants, models.VariantPreferences{
			Condition: entry.Condition,
			Printing:  entry.Printing,
			Rarity:    entry.Rarity,
		})
		if variant == nil || variant.MarketPrice == nil {
			continue
		}
		price := *variant.MarketPrice

		if err := w.db.Model(entry).Update("market_price", price).Error; err != nil {
			log.Printf("Price worker: failed to update entry %s: %v", entry.PublicID, err)
			continue
		}

		if _, err := w.history.Record(models.PriceObservation{
			CardID:  card.ProductID,
			SetName: entry.SetName,
			Number:  entry.Number,
			Rarity:  entry.Rarity,
			Edition: entry.Printing,
			Price:   price,
		}); err != nil {
			log.Printf("Price worker: failed to record history for %s: %v", entry.ProductName, err)
		}

		updated++
	}

	return updated, nil
}

// GetStatus returns the current worker status.
func (w *PriceWorker) GetStatus() WorkerStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return WorkerStatus{
		LastUpdateTime:      w.lastUpdateTime,
		NextUpdateTime:      w.lastUpdateTime.Add(w.updateInterval),
		EntriesUpdatedToday: w.entriesUpdatedToday,
		QueueSize:           w.GetQueueSize(),
		DailyLimit:          w.pricing.GetDailyLimit(),
		Remaining:           w.pricing.GetRequestsRemaining(),
		ResetsAt:            w.pricing.GetResetTime(),
	}
}

package services

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"cardledger/internal/metrics"
	"cardledger/internal/models"
)

// PriceHistoryStore persists the append-only price time series, one
// record per (cardId|null, setName, number, rarity, edition) tuple.
// Every Record call is a single write transaction; connections opened
// through database.DSN take the write lock at BEGIN, so concurrent
// calls for the same tuple queue and serialize at the store and history
// append order reflects call order.
type PriceHistoryStore struct {
	db *gorm.DB
}

// RecordResult reports what a Record call did, mirroring the store's
// matched/modified counts. A no-op returns zero counts.
type RecordResult struct {
	MatchedCount  int64 `json:"matched_count"`
	ModifiedCount int64 `json:"modified_count"`
}

// NewPriceHistoryStore creates a price history store.
func NewPriceHistoryStore(db *gorm.DB) *PriceHistoryStore {
	return &PriceHistoryStore{db: db}
}

// BuildFilter normalizes identity fields into a history filter. An empty
// cardId becomes an explicit null so the filter shape stays stable, and
// an empty edition defaults to the UnknownEdition literal, which is also
// used as a join key elsewhere.
func (s *PriceHistoryStore) BuildFilter(cardID, setName, number, rarity, edition string) models.HistoryFilter {
	filter := models.HistoryFilter{
		SetName: strings.TrimSpace(setName),
		Number:  strings.TrimSpace(number),
		Rarity:  strings.TrimSpace(rarity),
	}
	if id := strings.TrimSpace(cardID); id != "" {
		filter.CardID = &id
	}
	if edition = strings.TrimSpace(edition); edition != "" {
		filter.Edition = edition
	} else {
		filter.Edition = models.UnknownEdition
	}
	return filter
}

// Record appends one observed price to the tuple's history, upserting
// the record. The observation's zero date means "now". A non-finite
// price is a no-op with zero counts, never an error; callers that need
// to detect this check ModifiedCount.
func (s *PriceHistoryStore) Record(obs models.PriceObservation) (RecordResult, error) {
	if !isFinitePrice(obs.Price) {
		return RecordResult{}, nil
	}

	date := obs.Date
	if date.IsZero() {
		date = time.Now()
	}
	filter := s.BuildFilter(obs.CardID, obs.SetName, obs.Number, obs.Rarity, obs.Edition)
	point := models.HistoryPoint{Date: date, Price: obs.Price}

	var result RecordResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		record, err := s.findRecord(tx, filter)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			record = &models.PriceHistoryRecord{
				CardID:  filter.CardID,
				SetName: filter.SetName,
				Number:  filter.Number,
				Rarity:  filter.Rarity,
				Edition: filter.Edition,
				History: []models.HistoryPoint{point},
			}
			record.LastPrice = obs.Price
			if err := tx.Create(record).Error; err != nil {
				return err
			}
			result = RecordResult{MatchedCount: 0, ModifiedCount: 1}
			return nil
		}

		record.History = append(record.History, point)
		record.LastPrice = obs.Price
		if err := tx.Save(record).Error; err != nil {
			return err
		}
		result = RecordResult{MatchedCount: 1, ModifiedCount: 1}
		return nil
	})
	if err != nil {
		return RecordResult{}, err
	}

	metrics.HistoryAppendsTotal.Inc()
	return result, nil
}

// Fetch returns the tuple's history sorted ascending by date, dropping
// any point whose price is not a finite number. A missing record yields
// an empty slice, never an error.
func (s *PriceHistoryStore) Fetch(filter models.HistoryFilter) ([]models.HistoryPoint, error) {
	record, err := s.findRecord(s.db, filter)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []models.HistoryPoint{}, nil
		}
		return nil, err
	}

	points := make([]models.HistoryPoint, 0, len(record.History))
	for _, p := range record.History {
		if isFinitePrice(p.Price) {
			points = append(points, p)
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points, nil
}

// MergeLegacy bulk-imports externally sourced history points into the
// tuple's record. Points without a finite price are dropped before the
// merge, and a fully-empty input performs no write at all so empty
// records are never created. The merged history is kept sorted by date
// with LastPrice following the newest point.
func (s *PriceHistoryStore) MergeLegacy(filter models.HistoryFilter, entries []models.HistoryPoint) error {
	usable := make([]models.HistoryPoint, 0, len(entries))
	for _, p := range entries {
		if isFinitePrice(p.Price) {
			usable = append(usable, p)
		}
	}
	if len(usable) == 0 {
		return nil
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		record, err := s.findRecord(tx, filter)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			record = &models.PriceHistoryRecord{
				CardID:  filter.CardID,
				SetName: filter.SetName,
				Number:  filter.Number,
				Rarity:  filter.Rarity,
				Edition: filter.Edition,
			}
			record.History = sortedByDate(usable)
			record.LastPrice = record.History[len(record.History)-1].Price
			return tx.Create(record).Error
		}

		record.History = sortedByDate(append(record.History, usable...))
		record.LastPrice = record.History[len(record.History)-1].Price
		return tx.Save(record).Error
	})
	if err != nil {
		return err
	}

	metrics.HistoryMergedPointsTotal.Add(float64(len(usable)))
	return nil
}

// findRecord looks up the single record matching a filter. CardID
// matches with IS NULL when the filter carries an explicit null.
func (s *PriceHistoryStore) findRecord(tx *gorm.DB, filter models.HistoryFilter) (*models.PriceHistoryRecord, error) {
	query := tx.Where("set_name = ? AND number = ? AND rarity = ? AND edition = ?",
		filter.SetName, filter.Number, filter.Rarity, filter.Edition)
	if filter.CardID != nil {
		query = query.Where("card_id = ?", *filter.CardID)
	} else {
		query = query.Where("card_id IS NULL")
	}

	var record models.PriceHistoryRecord
	if err := query.First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func sortedByDate(points []models.HistoryPoint) []models.HistoryPoint {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points
}

func isFinitePrice(price float64) bool {
	return !math.IsNaN(price) && !math.IsInf(price, 0)
}

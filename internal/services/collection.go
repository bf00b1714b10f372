package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cardledger/internal/metrics"
	"cardledger/internal/models"
)

// ErrEntryNotFound is returned when a collection entry does not exist
// for the requesting user.
var ErrEntryNotFound = errors.New("collection entry not found")

// CollectionService manages the owned-card entries of each user.
type CollectionService struct {
	db *gorm.DB
}

// NewCollectionService creates a collection service.
func NewCollectionService(db *gorm.DB) *CollectionService {
	return &CollectionService{db: db}
}

// Add records an owned card variant. Adding a variant the user already
// owns (same collection key) increments the existing entry's quantity
// instead of creating a duplicate.
func (s *CollectionService) Add(userID string, req models.AddToCollectionRequest) (*models.CollectionEntry, error) {
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	entry := models.CollectionEntry{
		UserID:      userID,
		ProductName: strings.TrimSpace(req.ProductName),
		SetName:     strings.TrimSpace(req.SetName),
		Number:      strings.TrimSpace(req.Number),
		Printing:    strings.TrimSpace(req.Printing),
		Rarity:      strings.TrimSpace(req.Rarity),
		Condition:   strings.TrimSpace(req.Condition),
		MarketPrice: req.MarketPrice,
		Quantity:    quantity,
	}
	if entry.ProductName == "" {
		return nil, fmt.Errorf("product name is required")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.CollectionEntry
		err := tx.Where(
			"user_id = ? AND product_name = ? AND set_name = ? AND number = ? AND printing = ? AND rarity = ?",
			userID, entry.ProductName, entry.SetName, entry.Number, entry.Printing, entry.Rarity,
		).First(&existing).Error
		if err == nil {
			existing.Quantity += quantity
			// A request without a price keeps the last known price.
			if req.MarketPrice != 0 {
				existing.MarketPrice = req.MarketPrice
			}
			entry = existing
			return tx.Save(&existing).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		entry.PublicID = uuid.New().String()
		entry.AddedAt = time.Now()
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}

	s.refreshMetrics()
	return &entry, nil
}

// Update applies field edits to an owned entry. Setting quantity to zero
// or below deletes the entry.
func (s *CollectionService) Update(userID, publicID string, req models.UpdateCollectionRequest) (*models.CollectionEntry, error) {
	var entry models.CollectionEntry
	if err := s.db.Where("user_id = ? AND public_id = ?", userID, publicID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	if req.Quantity != nil && *req.Quantity <= 0 {
		if err := s.db.Delete(&entry).Error; err != nil {
			return nil, err
		}
		s.refreshMetrics()
		return nil, nil
	}

	if req.Quantity != nil {
		entry.Quantity = *req.Quantity
	}
	if req.Condition != nil {
		entry.Condition = strings.TrimSpace(*req.Condition)
	}
	if req.Printing != nil {
		entry.Printing = strings.TrimSpace(*req.Printing)
	}
	if req.Rarity != nil {
		entry.Rarity = strings.TrimSpace(*req.Rarity)
	}
	if req.MarketPrice != nil {
		entry.MarketPrice = *req.MarketPrice
	}

	if err := s.db.Save(&entry).Error; err != nil {
		return nil, err
	}

	s.refreshMetrics()
	return &entry, nil
}

// Delete removes an owned entry.
func (s *CollectionService) Delete(userID, publicID string) error {
	result := s.db.Where("user_id = ? AND public_id = ?", userID, publicID).Delete(&models.CollectionEntry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	s.refreshMetrics()
	return nil
}

// List returns all of a user's entries ordered by product name.
func (s *CollectionService) List(userID string) ([]models.CollectionEntry, error) {
	var entries []models.CollectionEntry
	if err := s.db.Where("user_id = ?", userID).Order("product_name ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// OwnedKeys returns the user's collection keyed by collection key, used
// to cross-reference "already owned" in browsing views.
func (s *CollectionService) OwnedKeys(userID string) (map[string]models.CollectionEntry, error) {
	entries, err := s.List(userID)
	if err != nil {
		return nil, err
	}
	return BuildCollectionMap(entries), nil
}

// Stats computes a user's collection totals.
func (s *CollectionService) Stats(userID string) (models.CollectionStats, error) {
	var stats models.CollectionStats

	if err := s.db.Model(&models.CollectionEntry{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(quantity), 0)").Scan(&stats.TotalCards).Error; err != nil {
		return stats, err
	}

	var unique int64
	if err := s.db.Model(&models.CollectionEntry{}).
		Where("user_id = ?", userID).Count(&unique).Error; err != nil {
		return stats, err
	}
	stats.UniqueCards = int(unique)

	if err := s.db.Model(&models.CollectionEntry{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(market_price * quantity), 0)").Scan(&stats.TotalValue).Error; err != nil {
		return stats, err
	}

	return stats, nil
}

// refreshMetrics updates the collection gauges after a write.
func (s *CollectionService) refreshMetrics() {
	var total int
	var value float64
	s.db.Model(&models.CollectionEntry{}).Select("COALESCE(SUM(quantity), 0)").Scan(&total)
	s.db.Model(&models.CollectionEntry{}).Select("COALESCE(SUM(market_price * quantity), 0)").Scan(&value)
	metrics.CollectionEntriesTotal.Set(float64(total))
	metrics.CollectionValueUSD.Set(value)
}

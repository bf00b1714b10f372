package database

import (
	"log"
	"sort"

	"gorm.io/gorm"

	"cardledger/internal/models"
)

// RunMigrations runs custom data migrations after schema changes.
func RunMigrations(db *gorm.DB) error {
	if err := migrateEditionField(db); err != nil {
		return err
	}
	if err := mergeDuplicateHistoryRecords(db); err != nil {
		return err
	}
	return nil
}

// migrateEditionField backfills the edition placeholder on history rows
// written before the default existed. The literal must match the
// placeholder used as a join key when recording.
func migrateEditionField(db *gorm.DB) error {
	if !db.Migrator().HasTable("price_history_records") {
		return nil
	}

	result := db.Exec(`UPDATE price_history_records SET edition = 'Unknown Edition' WHERE edition IS NULL OR edition = ''`)
	if result.Error != nil {
		log.Printf("Warning: failed to backfill edition values: %v", result.Error)
		return nil
	}
	if result.RowsAffected > 0 {
		log.Printf("Backfilled edition on %d price history rows", result.RowsAffected)
	}
	return nil
}

// mergeDuplicateHistoryRecords collapses duplicate tuple rows left by
// legacy imports into one row per tuple, folding every duplicate's
// history points into the surviving row so no recorded price is lost.
// NULL card ids are grouped together so null-tuple duplicates collapse
// too.
func mergeDuplicateHistoryRecords(db *gorm.DB) error {
	if !db.Migrator().HasTable("price_history_records") {
		return nil
	}

	type tupleKey struct {
		CardKey string
		SetName string
		Number  string
		Rarity  string
		Edition string
	}
	var dupes []tupleKey
	err := db.Model(&models.PriceHistoryRecord{}).
		Select("COALESCE(card_id, '') AS card_key, set_name, number, rarity, edition").
		Group("COALESCE(card_id, ''), set_name, number, rarity, edition").
		Having("COUNT(*) > 1").
		Scan(&dupes).Error
	if err != nil {
		return err
	}

	merged := 0
	for _, key := range dupes {
		var records []models.PriceHistoryRecord
		if err := db.Where(
			"COALESCE(card_id, '') = ? AND set_name = ? AND number = ? AND rarity = ? AND edition = ?",
			key.CardKey, key.SetName, key.Number, key.Rarity, key.Edition,
		).Order("id ASC").Find(&records).Error; err != nil {
			return err
		}
		if len(records) < 2 {
			continue
		}

		// The newest row survives; the others fold their points into it.
		keep := &records[len(records)-1]
		for _, r := range records[:len(records)-1] {
			keep.History = append(keep.History, r.History...)
		}
		sort.SliceStable(keep.History, func(i, j int) bool {
			return keep.History[i].Date.Before(keep.History[j].Date)
		})
		if n := len(keep.History); n > 0 {
			keep.LastPrice = keep.History[n-1].Price
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			for _, r := range records[:len(records)-1] {
				if err := tx.Delete(&models.PriceHistoryRecord{}, r.ID).Error; err != nil {
					return err
				}
			}
			return tx.Save(keep).Error
		})
		if err != nil {
			return err
		}
		merged++
	}

	if merged > 0 {
		log.Printf("Merged %d duplicate price history tuples", merged)
	}
	return nil
}

package services

import (
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cardledger/internal/database"
	"cardledger/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.CollectionEntry{}, &models.PriceHistoryRecord{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func TestBuildFilter(t *testing.T) {
	store := NewPriceHistoryStore(nil)

	filter := store.BuildFilter("  4007  ", " Set A ", " 001 ", " Rare ", "")
	if filter.CardID == nil || *filter.CardID != "4007" {
		t.Errorf("Expected trimmed card id, got %v", filter.CardID)
	}
	if filter.SetName != "Set A" || filter.Number != "001" || filter.Rarity != "Rare" {
		t.Errorf("Expected trimmed fields, got %+v", filter)
	}
	if filter.Edition != models.UnknownEdition {
		t.Errorf("Empty edition should default to %q, got %q", models.UnknownEdition, filter.Edition)
	}

	filter = store.BuildFilter("", "Set A", "001", "Rare", "1st Edition")
	if filter.CardID != nil {
		t.Errorf("Empty card id should be explicit null, got %v", filter.CardID)
	}
	if filter.Edition != "1st Edition" {
		t.Errorf("Non-empty edition should be kept, got %q", filter.Edition)
	}
}

func TestRecordAppendsInOrder(t *testing.T) {
	store := NewPriceHistoryStore(newTestDB(t))

	obs := models.PriceObservation{
		CardID: "4007", SetName: "Set A", Number: "001",
		Rarity: "Rare", Edition: "1st Edition",
	}

	obs.Price = 10.0
	result, err := store.Record(obs)
	if err != nil {
		t.Fatalf("First record failed: %v", err)
	}
	if result.MatchedCount != 0 || result.ModifiedCount != 1 {
		t.Errorf("First record should insert: %+v", result)
	}

	obs.Price = 12.0
	result, err = store.Record(obs)
	if err != nil {
		t.Fatalf("Second record failed: %v", err)
	}
	if result.MatchedCount != 1 || result.ModifiedCount != 1 {
		t.Errorf("Second record should update: %+v", result)
	}

	filter := store.BuildFilter("4007", "Set A", "001", "Rare", "1st Edition")
	points, err := store.Fetch(filter)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("Expected 2 history points, got %d", len(points))
	}
	if points[0].Price != 10.0 || points[1].Price != 12.0 {
		t.Errorf("History out of append order: %+v", points)
	}

	var record models.PriceHistoryRecord
	if err := store.db.Where("set_name = ?", "Set A").First(&record).Error; err != nil {
		t.Fatalf("Failed to load record: %v", err)
	}
	if record.LastPrice != 12.0 {
		t.Errorf("Expected last price 12.0, got %v", record.LastPrice)
	}
	if record.CreatedAt.IsZero() {
		t.Error("Expected created_at to be set on insert")
	}
}

func TestRecordNonFinitePriceIsNoOp(t *testing.T) {
	store := NewPriceHistoryStore(newTestDB(t))

	obs := models.PriceObservation{
		SetName: "Set A", Number: "001", Rarity: "Rare",
		Edition: "1st Edition", Price: 10.0,
	}
	if _, err := store.Record(obs); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		obs.Price = bad
		result, err := store.Record(obs)
		if err != nil {
			t.Fatalf("Non-finite record should not error: %v", err)
		}
		if result.MatchedCount != 0 || result.ModifiedCount != 0 {
			t.Errorf("Non-finite record should return zero counts, got %+v", result)
		}
	}

	points, err := store.Fetch(store.BuildFilter("", "Set A", "001", "Rare", "1st Edition"))
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(points) != 1 {
		t.Errorf("History length should be unchanged by no-op records, got %d", len(points))
	}
}

func TestRecordConcurrentSameTuple(t *testing.T) {
	// File-backed DB with the server's connection options, so writers
	// contend through the real connection pool.
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := gorm.Open(sqlite.Open(database.DSN(path)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.PriceHistoryRecord{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	store := NewPriceHistoryStore(db)

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := store.Record(models.PriceObservation{
				SetName: "Set A", Number: "001", Rarity: "Rare",
				Edition: "1st Edition", Price: float64(i + 1),
			}); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Record failed under concurrency: %v", err)
	}

	var count int64
	store.db.Model(&models.PriceHistoryRecord{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected a single record for the tuple, got %d", count)
	}

	points, err := store.Fetch(store.BuildFilter("", "Set A", "001", "Rare", "1st Edition"))
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != writers {
		t.Errorf("Expected %d history points, got %d", writers, len(points))
	}
}

func TestRecordSeparatesTuples(t *testing.T) {
	store := NewPriceHistoryStore(newTestDB(t))

	base := models.PriceObservation{
		SetName: "Set A", Number: "001", Rarity: "Rare",
		Edition: "1st Edition", Price: 5,
	}
	if _, err := store.Record(base); err != nil {
		t.Fatal(err)
	}

	other := base
	other.Edition = "Unlimited"
	if _, err := store.Record(other); err != nil {
		t.Fatal(err)
	}

	// Null card id and a concrete card id are distinct tuples too
	withID := base
	withID.CardID = "4007"
	if _, err := store.Record(withID); err != nil {
		t.Fatal(err)
	}

	var count int64
	store.db.Model(&models.PriceHistoryRecord{}).Count(&count)
	if count != 3 {
		t.Errorf("Expected 3 distinct records, got %d", count)
	}
}

func TestFetchMissingRecord(t *testing.T) {
	store := NewPriceHistoryStore(newTestDB(t))

	points, err := store.Fetch(store.BuildFilter("", "Nowhere", "000", "Rare", ""))
	if err != nil {
		t.Fatalf("Fetch of missing record should not error: %v", err)
	}
	if points == nil || len(points) != 0 {
		t.Errorf("Expected empty history, got %v", points)
	}
}

func TestFetchSortsByDate(t *testing.T) {
	store := NewPriceHistoryStore(newTestDB(t))
	filter := store.BuildFilter("", "Set A", "001", "Rare", "1st Edition")

	// Merge out-of-order legacy points, then fetch
	err := store.MergeLegacy(filter, []models.HistoryPoint{
		{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Price: 30},
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Price: 10},
		{Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Price: 20},
	})
	if err != nil {
		t.Fatalf("MergeLegacy failed: %v", err)
	}

	points, err := store.Fetch(filter)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("Expected 3 points, got %d", len(points))
	}
	if !points[0].Date.Before(points[1].Date) || !points[1].Date.Before(points[2].Date) {
		t.Errorf("History should be sorted ascending by date: %+v", points)
	}
}

func TestMergeLegacy(t *testing.T) {
	store := NewPriceHistoryStore(newTestDB(t))
	filter := store.BuildFilter("4007", "Set A", "001", "Rare", "1st Edition")

	// Seed with a live observation
	if _, err := store.Record(models.PriceObservation{
		CardID: "4007", SetName: "Set A", Number: "001", Rarity: "Rare",
		Edition: "1st Edition", Price: 50,
		Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatal(err)
	}

	err := store.MergeLegacy(filter, []models.HistoryPoint{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Price: 10},
		{Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Price: math.NaN()}, // dropped
	})
	if err != nil {
		t.Fatalf("MergeLegacy failed: %v", err)
	}

	points, err := store.Fetch(filter)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 {
		t.Fatalf("Expected 2 points after merge (NaN dropped), got %d", len(points))
	}
	if points[0].Price != 10 || points[1].Price != 50 {
		t.Errorf("Merged history out of order: %+v", points)
	}

	var record models.PriceHistoryRecord
	if err := store.db.Where("card_id = ?", "4007").First(&record).Error; err != nil {
		t.Fatal(err)
	}
	if record.LastPrice != 50 {
		t.Errorf("Last price should follow newest point, got %v", record.LastPrice)
	}
}

func TestMergeLegacyEmptyInputIsNoWrite(t *testing.T) {
	store := NewPriceHistoryStore(newTestDB(t))
	filter := store.BuildFilter("", "Set A", "001", "Rare", "")

	if err := store.MergeLegacy(filter, nil); err != nil {
		t.Fatalf("Empty merge should not error: %v", err)
	}
	if err := store.MergeLegacy(filter, []models.HistoryPoint{
		{Date: time.Now(), Price: math.Inf(1)},
	}); err != nil {
		t.Fatalf("All-dropped merge should not error: %v", err)
	}

	var count int64
	store.db.Model(&models.PriceHistoryRecord{}).Count(&count)
	if count != 0 {
		t.Errorf("Empty merges must not create records, got %d", count)
	}
}

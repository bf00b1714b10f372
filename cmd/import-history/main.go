// import-history bulk-imports a legacy price history export into the
// price history store.
//
// Usage: go run main.go -db=<path> -file=<export.json> [-dry-run]
//
// The export is a JSON array of records shaped like:
//
//	{"cardId": "...", "setName": "...", "number": "...", "rarity": "...",
//	 "edition": "...", "history": [{"date": "...", "price": ...}]}
//
// Prices may be numbers or numeric strings; entries whose price cannot
// be coerced to a finite number are dropped. Records that end up with no
// usable entries perform no write at all.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"time"

	"cardledger/internal/database"
	"cardledger/internal/models"
	"cardledger/internal/services"
)

// legacyRecord is one tuple's history in the legacy export format.
type legacyRecord struct {
	CardID  string        `json:"cardId"`
	SetName string        `json:"setName"`
	Number  string        `json:"number"`
	Rarity  string        `json:"rarity"`
	Edition string        `json:"edition"`
	History []legacyPoint `json:"history"`
}

type legacyPoint struct {
	Date  string          `json:"date"`
	Price json.RawMessage `json:"price"`
}

var legacyDateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
}

func main() {
	dbPath := flag.String("db", "", "Path to SQLite database (required)")
	filePath := flag.String("file", "", "Path to legacy history export JSON (required)")
	dryRun := flag.Bool("dry-run", false, "Parse and report without writing")
	flag.Parse()

	if *dbPath == "" || *filePath == "" {
		fmt.Println("Usage: import-history -db=<path> -file=<export.json> [-dry-run]")
		os.Exit(1)
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatalf("Failed to read export file: %v", err)
	}

	var records []legacyRecord
	if err := json.Unmarshal(data, &records); err != nil {
		log.Fatalf("Failed to parse export file: %v", err)
	}
	log.Printf("Parsed %d legacy records from %s", len(records), *filePath)

	if err := database.Initialize(*dbPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	store := services.NewPriceHistoryStore(database.GetDB())

	merged, skippedRecords, droppedPoints := 0, 0, 0
	for _, record := range records {
		entries, dropped := convertPoints(record.History)
		droppedPoints += dropped
		if len(entries) == 0 {
			skippedRecords++
			continue
		}

		if *dryRun {
			merged++
			continue
		}

		filter := store.BuildFilter(record.CardID, record.SetName, record.Number, record.Rarity, record.Edition)
		if err := store.MergeLegacy(filter, entries); err != nil {
			log.Printf("Failed to merge record for %q/%q: %v", record.SetName, record.Number, err)
			continue
		}
		merged++
	}

	action := "merged"
	if *dryRun {
		action = "would merge"
	}
	log.Printf("Import complete: %s %d records, skipped %d empty records, dropped %d unusable points",
		action, merged, skippedRecords, droppedPoints)
}

// convertPoints coerces legacy points into history points, dropping
// entries whose price or date cannot be parsed.
func convertPoints(points []legacyPoint) ([]models.HistoryPoint, int) {
	entries := make([]models.HistoryPoint, 0, len(points))
	dropped := 0
	for _, p := range points {
		price, ok := coercePrice(p.Price)
		if !ok {
			dropped++
			continue
		}
		date, ok := parseLegacyDate(p.Date)
		if !ok {
			dropped++
			continue
		}
		entries = append(entries, models.HistoryPoint{Date: date, Price: price})
	}
	return entries, dropped
}

// coercePrice accepts a JSON number or a numeric string and rejects
// anything that is not a finite number.
func coercePrice(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return asNumber, !math.IsNaN(asNumber) && !math.IsInf(asNumber, 0)
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err != nil {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(asString, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, false
	}
	return parsed, true
}

func parseLegacyDate(s string) (time.Time, bool) {
	for _, format := range legacyDateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

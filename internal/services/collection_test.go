package services

import (
	"testing"

	"cardledger/internal/models"
)

func TestAddIncrementsExistingEntry(t *testing.T) {
	svc := NewCollectionService(newTestDB(t))

	req := models.AddToCollectionRequest{
		ProductName: "Dragon",
		SetName:     "Set A",
		Number:      "001",
		Printing:    "1st Edition",
		Rarity:      "Rare",
		Condition:   "Near Mint",
		MarketPrice: 25,
	}

	first, err := svc.Add("user1", req)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if first.Quantity != 1 {
		t.Errorf("Expected default quantity 1, got %d", first.Quantity)
	}
	if first.PublicID == "" {
		t.Error("Expected a public id on insert")
	}

	req.Quantity = 2
	second, err := svc.Add("user1", req)
	if err != nil {
		t.Fatalf("Second add failed: %v", err)
	}
	if second.PublicID != first.PublicID {
		t.Error("Same variant should reuse the existing entry")
	}
	if second.Quantity != 3 {
		t.Errorf("Expected quantity 3 after increment, got %d", second.Quantity)
	}

	entries, err := svc.List("user1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 entry, got %d", len(entries))
	}
}

func TestAddKeepsPriceWhenRequestOmitsIt(t *testing.T) {
	svc := NewCollectionService(newTestDB(t))

	req := models.AddToCollectionRequest{ProductName: "Dragon", MarketPrice: 25}
	if _, err := svc.Add("user1", req); err != nil {
		t.Fatal(err)
	}

	req.MarketPrice = 0
	entry, err := svc.Add("user1", req)
	if err != nil {
		t.Fatal(err)
	}
	if entry.MarketPrice != 25 {
		t.Errorf("Add without a price should keep the known price, got %v", entry.MarketPrice)
	}
	if entry.Quantity != 2 {
		t.Errorf("Expected quantity 2, got %d", entry.Quantity)
	}

	req.MarketPrice = 30
	entry, err = svc.Add("user1", req)
	if err != nil {
		t.Fatal(err)
	}
	if entry.MarketPrice != 30 {
		t.Errorf("Add with a price should refresh it, got %v", entry.MarketPrice)
	}
}

func TestAddSeparatesUsersAndVariants(t *testing.T) {
	svc := NewCollectionService(newTestDB(t))

	req := models.AddToCollectionRequest{ProductName: "Dragon", SetName: "Set A", Rarity: "Rare"}
	if _, err := svc.Add("user1", req); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Add("user2", req); err != nil {
		t.Fatal(err)
	}

	other := req
	other.Rarity = "Secret Rare"
	if _, err := svc.Add("user1", other); err != nil {
		t.Fatal(err)
	}

	entries, _ := svc.List("user1")
	if len(entries) != 2 {
		t.Errorf("Expected 2 entries for user1, got %d", len(entries))
	}
	entries, _ = svc.List("user2")
	if len(entries) != 1 {
		t.Errorf("Expected 1 entry for user2, got %d", len(entries))
	}
}

func TestAddRequiresProductName(t *testing.T) {
	svc := NewCollectionService(newTestDB(t))
	if _, err := svc.Add("user1", models.AddToCollectionRequest{ProductName: "   "}); err == nil {
		t.Error("Expected error for blank product name")
	}
}

func TestUpdateQuantityZeroDeletes(t *testing.T) {
	svc := NewCollectionService(newTestDB(t))

	entry, err := svc.Add("user1", models.AddToCollectionRequest{ProductName: "Dragon", Quantity: 2})
	if err != nil {
		t.Fatal(err)
	}

	zero := 0
	updated, err := svc.Update("user1", entry.PublicID, models.UpdateCollectionRequest{Quantity: &zero})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated != nil {
		t.Errorf("Zero-quantity update should delete, got %+v", updated)
	}

	entries, _ := svc.List("user1")
	if len(entries) != 0 {
		t.Errorf("Expected empty collection after delete, got %d entries", len(entries))
	}
}

func TestUpdateNotFound(t *testing.T) {
	svc := NewCollectionService(newTestDB(t))

	qty := 1
	if _, err := svc.Update("user1", "no-such-id", models.UpdateCollectionRequest{Quantity: &qty}); err != ErrEntryNotFound {
		t.Errorf("Expected ErrEntryNotFound, got %v", err)
	}
	if err := svc.Delete("user1", "no-such-id"); err != ErrEntryNotFound {
		t.Errorf("Expected ErrEntryNotFound from delete, got %v", err)
	}
}

func TestStats(t *testing.T) {
	svc := NewCollectionService(newTestDB(t))

	if _, err := svc.Add("user1", models.AddToCollectionRequest{
		ProductName: "Dragon", Quantity: 2, MarketPrice: 10,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Add("user1", models.AddToCollectionRequest{
		ProductName: "Spell", Quantity: 1, MarketPrice: 5,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Add("user2", models.AddToCollectionRequest{
		ProductName: "Trap", Quantity: 4, MarketPrice: 100,
	}); err != nil {
		t.Fatal(err)
	}

	stats, err := svc.Stats("user1")
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalCards != 3 {
		t.Errorf("Expected 3 total cards, got %d", stats.TotalCards)
	}
	if stats.UniqueCards != 2 {
		t.Errorf("Expected 2 unique cards, got %d", stats.UniqueCards)
	}
	if stats.TotalValue != 25 {
		t.Errorf("Expected total value 25, got %v", stats.TotalValue)
	}
}

func TestOwnedKeys(t *testing.T) {
	svc := NewCollectionService(newTestDB(t))

	if _, err := svc.Add("user1", models.AddToCollectionRequest{
		ProductName: "Dragon", SetName: "Set A", Number: "001",
		Printing: "1st Edition", Rarity: "Rare",
	}); err != nil {
		t.Fatal(err)
	}

	owned, err := svc.OwnedKeys("user1")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := owned["Dragon|Set A|001|1st Edition|Rare"]; !ok {
		t.Errorf("Expected collection key in owned map, got %v", owned)
	}
}

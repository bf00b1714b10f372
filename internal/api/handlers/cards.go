package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cardledger/internal/models"
	"cardledger/internal/services"
)

type CardHandler struct {
	pricing    *services.PricingClient
	index      *services.CardMetadataIndex
	collection *services.CollectionService
}

func NewCardHandler(pricing *services.PricingClient, index *services.CardMetadataIndex, collection *services.CollectionService) *CardHandler {
	return &CardHandler{
		pricing:    pricing,
		index:      index,
		collection: collection,
	}
}

// BrowseCard is one card of a browsing view: the aggregated variants
// plus the variant resolved for the caller's preferences, the collection
// key for that variant, and ownership cross-reference.
type BrowseCard struct {
	ProductName   string           `json:"product_name"`
	ProductID     string           `json:"product_id"`
	Meta          *models.CardMeta `json:"meta,omitempty"`
	Variants      []models.Variant `json:"variants"`
	ActiveVariant *models.Variant  `json:"active_variant"`
	CollectionKey string           `json:"collection_key"`
	Rarities      []string         `json:"rarities"`
	Owned         bool             `json:"owned"`
	OwnedQuantity int              `json:"owned_quantity"`
}

// BrowseSet returns the aggregated cards of one set with each card's
// active variant resolved against the caller's preferences.
func (h *CardHandler) BrowseSet(c *gin.Context) {
	setName := c.Query("set")
	if setName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "set is required"})
		return
	}

	var prefs models.VariantPreferences
	if err := c.ShouldBindQuery(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listings, err := h.pricing.FetchSetListings(c.Request.Context(), setName)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	owned, err := h.collection.OwnedKeys(userID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	cards := services.Aggregate(listings, setName, h.index)
	result := make([]BrowseCard, 0, len(cards))
	for i := range cards {
		card := &cards[i]
		active := services.FindBestVariant(card.Variants, prefs)

		bc := BrowseCard{
			ProductName: card.ProductName,
			ProductID:   card.ProductID,
			Meta:        card.Meta,
			Variants:    card.Variants,
			Rarities:    services.RarityOptions(card.Variants),
		}
		if active != nil {
			bc.ActiveVariant = active
			bc.CollectionKey = services.BuildCollectionKey(models.CollectionKey{
				ProductName: card.ProductName,
				SetName:     setName,
				Number:      active.Number,
				Printing:    active.Printing,
				Rarity:      active.Rarity,
			})
			if entry, ok := owned[bc.CollectionKey]; ok {
				bc.Owned = true
				bc.OwnedQuantity = entry.Quantity
			}
		}
		result = append(result, bc)
	}

	c.JSON(http.StatusOK, gin.H{
		"set":   setName,
		"cards": result,
	})
}

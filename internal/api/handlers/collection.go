package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cardledger/internal/models"
	"cardledger/internal/services"
)

// userID resolves the requesting user. Authentication lives in front of
// this service; an absent header means the single-user deployment.
func userID(c *gin.Context) string {
	if id := c.GetHeader("X-User-ID"); id != "" {
		return id
	}
	return "default"
}

type CollectionHandler struct {
	collection *services.CollectionService
}

func NewCollectionHandler(collection *services.CollectionService) *CollectionHandler {
	return &CollectionHandler{collection: collection}
}

// GetCollection returns the user's entries with their collection keys.
func (h *CollectionHandler) GetCollection(c *gin.Context) {
	entries, err := h.collection.List(userID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	type entryWithKey struct {
		models.CollectionEntry
		CollectionKey string `json:"collection_key"`
	}
	result := make([]entryWithKey, 0, len(entries))
	for _, entry := range entries {
		result = append(result, entryWithKey{
			CollectionEntry: entry,
			CollectionKey:   services.BuildCollectionKey(entry.KeyFields()),
		})
	}

	c.JSON(http.StatusOK, gin.H{"entries": result})
}

// AddToCollection records an owned card variant.
func (h *CollectionHandler) AddToCollection(c *gin.Context) {
	var req models.AddToCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.collection.Add(userID(c), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// UpdateCollectionEntry edits an entry; quantity zero deletes it.
func (h *CollectionHandler) UpdateCollectionEntry(c *gin.Context) {
	var req models.UpdateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.collection.Update(userID(c), c.Param("id"), req)
	if err != nil {
		if errors.Is(err, services.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if entry == nil {
		c.JSON(http.StatusOK, gin.H{"deleted": true})
		return
	}
	c.JSON(http.StatusOK, entry)
}

// DeleteCollectionEntry removes an entry.
func (h *CollectionHandler) DeleteCollectionEntry(c *gin.Context) {
	if err := h.collection.Delete(userID(c), c.Param("id")); err != nil {
		if errors.Is(err, services.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// GetStats returns collection totals.
func (h *CollectionHandler) GetStats(c *gin.Context) {
	stats, err := h.collection.Stats(userID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

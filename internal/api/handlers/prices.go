package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cardledger/internal/services"
)

type PriceHandler struct {
	worker  *services.PriceWorker
	history *services.PriceHistoryStore
}

func NewPriceHandler(worker *services.PriceWorker, history *services.PriceHistoryStore) *PriceHandler {
	return &PriceHandler{
		worker:  worker,
		history: history,
	}
}

// GetPriceStatus returns the worker and upstream quota status.
func (h *PriceHandler) GetPriceStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.worker.GetStatus())
}

// GetPriceHistory returns the recorded time series for one variant
// tuple. An unknown tuple yields an empty history, not an error.
func (h *PriceHandler) GetPriceHistory(c *gin.Context) {
	filter := h.history.BuildFilter(
		c.Query("card_id"),
		c.Query("set_name"),
		c.Query("number"),
		c.Query("rarity"),
		c.Query("edition"),
	)

	points, err := h.history.Fetch(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": points})
}

// RefreshSetPrices queues a set for an urgent price refresh.
func (h *PriceHandler) RefreshSetPrices(c *gin.Context) {
	var req struct {
		SetName string `json:"set_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	position := h.worker.QueueRefresh(req.SetName)
	c.JSON(http.StatusAccepted, gin.H{"queued": true, "position": position})
}

package api

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cardledger/internal/api/handlers"
	"cardledger/internal/services"
)

func SetupRouter(pricing *services.PricingClient, index *services.CardMetadataIndex, collection *services.CollectionService, worker *services.PriceWorker, history *services.PriceHistoryStore) *gin.Engine {
	router := gin.Default()

	// CORS configuration - allow origins from environment or use defaults
	config := cors.DefaultConfig()
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		config.AllowOrigins = strings.Split(corsOrigins, ",")
	} else {
		config.AllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"}
	config.AllowCredentials = false
	router.Use(cors.New(config))

	cardHandler := handlers.NewCardHandler(pricing, index, collection)
	collectionHandler := handlers.NewCollectionHandler(collection)
	priceHandler := handlers.NewPriceHandler(worker, history)

	api := router.Group("/api")
	{
		cards := api.Group("/cards")
		{
			cards.GET("/browse", cardHandler.BrowseSet)
		}

		coll := api.Group("/collection")
		{
			coll.GET("", collectionHandler.GetCollection)
			coll.POST("", collectionHandler.AddToCollection)
			coll.PUT("/:id", collectionHandler.UpdateCollectionEntry)
			coll.DELETE("/:id", collectionHandler.DeleteCollectionEntry)
			coll.GET("/stats", collectionHandler.GetStats)
		}

		prices := api.Group("/prices")
		{
			prices.GET("/status", priceHandler.GetPriceStatus)
			prices.GET("/history", priceHandler.GetPriceHistory)
			prices.POST("/refresh", priceHandler.RefreshSetPrices)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus scrape endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cardledger/internal/api"
	"cardledger/internal/database"
	"cardledger/internal/services"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./cardledger.db"
	}

	if err := database.Initialize(dbPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Fetch the card catalog snapshot and build the metadata index. The
	// index is owned here and passed by handle into each aggregation.
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}

	catalogClient := services.NewCatalogClient(os.Getenv("CATALOG_URL"))
	if _, err := catalogClient.EnsureSnapshot(context.Background(), dataDir); err != nil {
		log.Fatalf("Failed to fetch card catalog: %v", err)
	}

	catalog, err := services.LoadCatalog(dataDir)
	if err != nil {
		log.Fatalf("Failed to load card catalog: %v", err)
	}
	index := services.NewCardMetadataIndex(catalog)
	log.Printf("Card metadata index built: %d keys from %d catalog entries", index.Size(), len(catalog))

	// Upstream pricing client
	pricingAPIKey := os.Getenv("PRICING_API_KEY")
	pricingDailyLimit := 100
	if limitStr := os.Getenv("PRICING_DAILY_LIMIT"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			pricingDailyLimit = limit
		}
	}
	pricing := services.NewPricingClient(pricingAPIKey, os.Getenv("PRICING_API_URL"), pricingDailyLimit)

	historyStore := services.NewPriceHistoryStore(database.GetDB())
	collection := services.NewCollectionService(database.GetDB())
	priceWorker := services.NewPriceWorker(database.GetDB(), pricing, index, historyStore)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start price worker in background with panic recovery
	go func() {
		for {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("PANIC in price worker: %v - restarting in 30 seconds", r)
					}
				}()
				priceWorker.Start(ctx)
			}()

			select {
			case <-ctx.Done():
				return
			case <-time.After(30 * time.Second):
				log.Println("Price worker restarting after panic recovery...")
			}
		}
	}()

	router := api.SetupRouter(pricing, index, collection, priceWorker, historyStore)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

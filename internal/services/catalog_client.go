package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultCatalogURL    = "https://db.ygoprodeck.com/api/v7/cardinfo.php"
	catalogClientTimeout = 60 * time.Second
	catalogFileMode      = 0o644
)

// CatalogClient downloads the card catalog snapshot used to build the
// metadata index.
type CatalogClient struct {
	client  *resty.Client
	baseURL string
}

// NewCatalogClient creates a catalog client. An empty baseURL uses the
// public card database.
func NewCatalogClient(baseURL string) *CatalogClient {
	if baseURL == "" {
		baseURL = defaultCatalogURL
	}

	client := resty.New()
	client.SetTimeout(catalogClientTimeout)
	client.SetHeader("Accept", "application/json")

	return &CatalogClient{
		client:  client,
		baseURL: baseURL,
	}
}

// EnsureSnapshot downloads the catalog snapshot into dataDir if it is
// not already present and returns the snapshot path.
func (c *CatalogClient) EnsureSnapshot(ctx context.Context, dataDir string) (string, error) {
	path := filepath.Join(dataDir, catalogFileName)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	log.Printf("Catalog: snapshot not found, downloading from %s", c.baseURL)

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	resp, err := c.client.R().SetContext(ctx).Get(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to download catalog: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("catalog download failed: status %d", resp.StatusCode())
	}

	if err := os.WriteFile(path, resp.Body(), catalogFileMode); err != nil {
		return "", fmt.Errorf("failed to write catalog snapshot: %w", err)
	}

	log.Printf("Catalog: snapshot downloaded to %s (%d bytes)", path, len(resp.Body()))
	return path, nil
}

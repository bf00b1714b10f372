package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"cardledger/internal/metrics"
	"cardledger/internal/models"
)

const (
	pricingDefaultTimeout = 10 * time.Second
	pricingCacheSize      = 64
	pricingCacheTTL       = time.Hour
)

// PricingClient fetches raw per-listing price rows from the upstream
// pricing source. The upstream is treated as an external collaborator
// that returns a JSON array or fails outright; retry policy beyond the
// daily quota and limiter lives with the caller.
type PricingClient struct {
	client     *http.Client
	apiKey     string
	baseURL    string
	dailyLimit int
	limiter    *rate.Limiter
	cache      *lru.Cache[string, cachedListings]

	// Daily quota
	mu             sync.Mutex
	requestsToday  int
	lastRequestDay time.Time
}

type cachedListings struct {
	fetchedAt time.Time
	listings  []models.RawListing
}

// NewPricingClient creates a pricing client. dailyLimit <= 0 falls back
// to the free tier default.
func NewPricingClient(apiKey, baseURL string, dailyLimit int) *PricingClient {
	if dailyLimit <= 0 {
		dailyLimit = 100
	}

	cache, _ := lru.New[string, cachedListings](pricingCacheSize)

	return &PricingClient{
		client:     &http.Client{Timeout: pricingDefaultTimeout},
		apiKey:     apiKey,
		baseURL:    baseURL,
		dailyLimit: dailyLimit,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 2),
		cache:      cache,
	}
}

// checkRateLimit consumes one request from today's quota. Returns false
// when the quota is exhausted.
func (c *PricingClient) checkRateLimit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if c.lastRequestDay.Before(today) {
		c.requestsToday = 0
		c.lastRequestDay = today
	}

	if c.requestsToday >= c.dailyLimit {
		return false
	}

	c.requestsToday++
	return true
}

// GetRequestsRemaining returns the number of requests remaining today.
func (c *PricingClient) GetRequestsRemaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if c.lastRequestDay.Before(today) {
		return c.dailyLimit
	}

	remaining := c.dailyLimit - c.requestsToday
	if remaining < 0 {
		return 0
	}
	return remaining
}

// GetDailyLimit returns the configured daily request limit.
func (c *PricingClient) GetDailyLimit() int {
	return c.dailyLimit
}

// GetResetTime returns the next daily quota reset (midnight).
func (c *PricingClient) GetResetTime() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).Add(24 * time.Hour)
}

// FetchSetListings returns the raw listing rows for one set. Responses
// are cached briefly so browsing and the price worker don't double-spend
// quota on the same set.
func (c *PricingClient) FetchSetListings(ctx context.Context, setName string) ([]models.RawListing, error) {
	if cached, ok := c.cache.Get(setName); ok && time.Since(cached.fetchedAt) < pricingCacheTTL {
		metrics.PricingCacheHits.Inc()
		return cached.listings, nil
	}

	if !c.checkRateLimit() {
		return nil, fmt.Errorf("pricing API daily rate limit exceeded")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("set", setName)
	reqURL := fmt.Sprintf("%s/listings?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pricing API error: status %d", resp.StatusCode)
	}

	var listings []models.RawListing
	if err := json.NewDecoder(resp.Body).Decode(&listings); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}

	metrics.PricingRequestsTotal.Inc()
	metrics.PricingQuotaRemaining.Set(float64(c.GetRequestsRemaining()))
	metrics.PricingQuotaLimit.Set(float64(c.dailyLimit))

	c.cache.Add(setName, cachedListings{fetchedAt: time.Now(), listings: listings})
	return listings, nil
}

package retailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pricelens/backend/internal/domain"
	"golang.org/x/time/rate"
)

// ErrSearchFailed is returned when the scraping backend cannot perform a search
var ErrSearchFailed = errors.New("retailer search request failed")

// Config holds retailer client configuration
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	RetryCount   int
	RequestsPerS float64
	Burst        int
}

// Client talks to the scraping backend that fans a query out to every retailer
type Client struct {
	http        *resty.Client
	rateLimiter *rate.Limiter
}

// searchRequest is the body posted to /search
type searchRequest struct {
	Query string `json:"query"`
}

// searchResponse keeps offers raw so a malformed list can degrade to empty
type searchResponse struct {
	Offers           json.RawMessage `json:"offers"`
	ScrapedRetailers []string        `json:"scrapedRetailers"`
	FailedRetailers  []string        `json:"failedRetailers"`
}

// NewClient creates a new retailer search client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second // scraping every retailer is slow
	}
	retries := cfg.RetryCount
	if retries < 0 {
		retries = 0
	}
	rps := cfg.RequestsPerS
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	c := &Client{
		rateLimiter: rate.NewLimiter(rate.Limit(rps), burst),
	}

	c.http = resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", "PriceLens/1.0").
		SetRetryCount(retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Retry transport errors and 5xx; 4xx will not improve
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		}).
		OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			if err := c.rateLimiter.Wait(r.Context()); err != nil {
				return fmt.Errorf("rate limiter error: %w", err)
			}
			return nil
		})

	return c
}

// SetDebug toggles request/response logging
func (c *Client) SetDebug(debug bool) {
	c.http.SetDebug(debug)
}

// Search posts query to the scraping backend. Per-retailer failures come back
// in FailedRetailers; only a failure of the whole request is an error.
func (c *Client) Search(ctx context.Context, query string) (*domain.RetailerSearchResult, error) {
	log.Printf("[RETAILER] Search called with query: %q", query)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(searchRequest{Query: query}).
		Post("/search")
	if err != nil {
		log.Printf("[RETAILER] Request error: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	if resp.StatusCode() != http.StatusOK {
		log.Printf("[RETAILER] API error - Status: %d, Body: %s", resp.StatusCode(), resp.String())
		return nil, fmt.Errorf("%w: status %d", ErrSearchFailed, resp.StatusCode())
	}

	var payload searchResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		log.Printf("[RETAILER] JSON decode error: %v", err)
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrSearchFailed, err)
	}

	result := &domain.RetailerSearchResult{
		Offers:           DecodeOffers(payload.Offers),
		ScrapedRetailers: payload.ScrapedRetailers,
		FailedRetailers:  payload.FailedRetailers,
	}

	log.Printf("[RETAILER] %d offers from %d retailers (%d failed) for query: %q",
		len(result.Offers), len(result.ScrapedRetailers), len(result.FailedRetailers), query)
	return result, nil
}

// DecodeOffers decodes an offers payload. Anything but a JSON array yields an
// empty list; array elements that are not objects become empty offers so the
// count is preserved.
func DecodeOffers(raw json.RawMessage) []domain.RawOffer {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []domain.RawOffer{}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return []domain.RawOffer{}
	}

	offers := make([]domain.RawOffer, 0, len(items))
	for _, item := range items {
		var offer domain.RawOffer
		if err := json.Unmarshal(item, &offer); err != nil || offer == nil {
			offer = domain.RawOffer{}
		}
		offers = append(offers, offer)
	}
	return offers
}

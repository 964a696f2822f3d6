package domain

import (
	"context"
	"time"
)

// CacheRepository is a key/value string store. The session cache holds two
// independent instances of it: a durable tier and an ephemeral tier.
type CacheRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Identifier turns an image or barcode into search keywords
type Identifier interface {
	Identify(ctx context.Context, req IdentifyRequest) (*IdentifyResult, error)
}

// RetailerSearcher queries every retailer for a keyword string. It must not
// fail for per-retailer errors; those are reported in FailedRetailers.
type RetailerSearcher interface {
	Search(ctx context.Context, query string) (*RetailerSearchResult, error)
}

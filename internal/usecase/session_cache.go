package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pricelens/backend/internal/domain"
)

// Tier names a storage tier of the session cache
type Tier string

const (
	TierEphemeral Tier = "ephemeral"
	TierDurable   Tier = "durable"
)

// SessionCacheConfig holds configuration for the session cache
type SessionCacheConfig struct {
	DurableTTL   time.Duration
	EphemeralTTL time.Duration
	RecentLimit  int
}

// SessionCache keeps the last completed search and the recently viewed list
// for each client across two tiers. The ephemeral tier reflects the current
// browsing session and is read first on restore; the durable tier outlives it.
type SessionCache struct {
	durable      domain.CacheRepository
	ephemeral    domain.CacheRepository
	durableTTL   time.Duration
	ephemeralTTL time.Duration
	recentLimit  int
	metrics      domain.MetricsRecorder

	// mu serialises writes so sequence checks and tier writes happen together
	mu        sync.Mutex
	committed map[string]uint64
}

// NewSessionCache creates a session cache over two independent stores
func NewSessionCache(durable, ephemeral domain.CacheRepository, config SessionCacheConfig) *SessionCache {
	durableTTL := config.DurableTTL
	if durableTTL == 0 {
		durableTTL = 720 * time.Hour // Default 30 days
	}
	ephemeralTTL := config.EphemeralTTL
	if ephemeralTTL == 0 {
		ephemeralTTL = 30 * time.Minute
	}
	recentLimit := config.RecentLimit
	if recentLimit <= 0 {
		recentLimit = 10
	}

	return &SessionCache{
		durable:      durable,
		ephemeral:    ephemeral,
		durableTTL:   durableTTL,
		ephemeralTTL: ephemeralTTL,
		recentLimit:  recentLimit,
		metrics:      domain.NopMetrics{},
		committed:    make(map[string]uint64),
	}
}

// SetMetrics sets the recorder used for restore counters
func (c *SessionCache) SetMetrics(m domain.MetricsRecorder) {
	if m != nil {
		c.metrics = m
	}
}

// Key format: "session:{clientID}:{name}"
func sessionKey(clientID, name string) string {
	return fmt.Sprintf("session:%s:%s", clientID, name)
}

// Save writes session to both tiers. seq must come from the Sequencer; a save
// older than the last committed one for the client is refused with ErrStaleSearch.
func (c *SessionCache) Save(ctx context.Context, clientID string, seq uint64, session *domain.SearchSession) error {
	if session == nil {
		return domain.ErrInvalidRequest
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq < c.committed[clientID] {
		return domain.ErrStaleSearch
	}
	c.committed[clientID] = seq

	key := sessionKey(clientID, "last")
	errEphemeral := c.ephemeral.Set(ctx, key, string(data), c.ephemeralTTL)
	errDurable := c.durable.Set(ctx, key, string(data), c.durableTTL)
	if errEphemeral != nil || errDurable != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, errors.Join(errEphemeral, errDurable))
	}
	return nil
}

// Restore returns the last search for clientID. The ephemeral tier wins over
// the durable tier; ErrNoPreviousSearch is returned when neither has one.
func (c *SessionCache) Restore(ctx context.Context, clientID string) (*domain.SearchSession, Tier, error) {
	key := sessionKey(clientID, "last")

	for _, tier := range []Tier{TierEphemeral, TierDurable} {
		var session domain.SearchSession
		if !c.read(ctx, c.store(tier), tier, key, &session) {
			continue
		}
		c.metrics.ObserveRestore(string(tier))
		return &session, tier, nil
	}

	c.metrics.ObserveRestore("none")
	return nil, "", domain.ErrNoPreviousSearch
}

// Reset removes the last search from both tiers
func (c *SessionCache) Reset(ctx context.Context, clientID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := sessionKey(clientID, "last")
	return errors.Join(c.ephemeral.Delete(ctx, key), c.durable.Delete(ctx, key))
}

// EndBrowsingSession drops everything the ephemeral tier holds for clientID
func (c *SessionCache) EndBrowsingSession(ctx context.Context, clientID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return errors.Join(
		c.ephemeral.Delete(ctx, sessionKey(clientID, "last")),
		c.ephemeral.Delete(ctx, sessionKey(clientID, "current")),
	)
}

// RecordViewed marks item as the currently viewed offer and moves it to the
// front of the durable recently viewed list, evicting the oldest entries past
// the limit.
func (c *SessionCache) RecordViewed(ctx context.Context, clientID string, item domain.ViewedItem) error {
	if item.Offer.ID == "" {
		return domain.ErrInvalidRequest
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode viewed item: %w", err)
	}
	currentKey := sessionKey(clientID, "current")
	if err := c.ephemeral.Set(ctx, currentKey, string(current), c.ephemeralTTL); err != nil {
		log.Printf("[SESSION] Ephemeral write failed for %s: %v", currentKey, err)
	}
	if err := c.durable.Set(ctx, currentKey, string(current), c.durableTTL); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}

	recent := c.recentlyViewed(ctx, clientID)
	updated := make([]domain.ViewedItem, 0, len(recent)+1)
	updated = append(updated, item)
	for _, r := range recent {
		if r.Offer.ID != item.Offer.ID {
			updated = append(updated, r)
		}
	}
	if len(updated) > c.recentLimit {
		updated = updated[:c.recentLimit]
	}

	data, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("failed to encode recently viewed: %w", err)
	}
	if err := c.durable.Set(ctx, sessionKey(clientID, "recent"), string(data), c.durableTTL); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// RecentlyViewed returns the recently viewed list, newest first
func (c *SessionCache) RecentlyViewed(ctx context.Context, clientID string) []domain.ViewedItem {
	return c.recentlyViewed(ctx, clientID)
}

// CurrentItem returns the offer last passed to RecordViewed, ephemeral tier first
func (c *SessionCache) CurrentItem(ctx context.Context, clientID string) (*domain.ViewedItem, error) {
	key := sessionKey(clientID, "current")
	for _, tier := range []Tier{TierEphemeral, TierDurable} {
		var item domain.ViewedItem
		if c.read(ctx, c.store(tier), tier, key, &item) {
			return &item, nil
		}
	}
	return nil, domain.ErrCacheMiss
}

func (c *SessionCache) recentlyViewed(ctx context.Context, clientID string) []domain.ViewedItem {
	var items []domain.ViewedItem
	if !c.read(ctx, c.durable, TierDurable, sessionKey(clientID, "recent"), &items) {
		return []domain.ViewedItem{}
	}
	return items
}

func (c *SessionCache) store(tier Tier) domain.CacheRepository {
	if tier == TierEphemeral {
		return c.ephemeral
	}
	return c.durable
}

// read decodes key from store into dst. Misses, backend errors and corrupt
// entries all report false so callers fall through to the next tier.
func (c *SessionCache) read(ctx context.Context, store domain.CacheRepository, tier Tier, key string, dst interface{}) bool {
	raw, err := store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			log.Printf("[SESSION] %s tier read failed for %s: %v", tier, key, err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		log.Printf("[SESSION] %s tier holds corrupt entry for %s: %v", tier, key, err)
		return false
	}
	return true
}

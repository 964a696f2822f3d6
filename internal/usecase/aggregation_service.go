package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/pricelens/backend/internal/domain"
)

// Search outcomes reported to metrics
const (
	outcomeRanked         = "ranked"
	outcomeNoResults      = "no_results"
	outcomeIdentification = "identification_failed"
	outcomeCollection     = "collection_failed"
	outcomeStale          = "stale"
)

// AggregationService drives a search through identification, retailer
// collection, normalization and ranking, and commits the result to the
// session cache.
type AggregationService struct {
	identifier domain.Identifier
	retailers  domain.RetailerSearcher
	sessions   *SessionCache
	sequencer  *Sequencer
	metrics    domain.MetricsRecorder
	now        func() time.Time
}

// NewAggregationService creates a new aggregation service with dependencies
func NewAggregationService(
	identifier domain.Identifier,
	retailers domain.RetailerSearcher,
	sessions *SessionCache,
	metrics domain.MetricsRecorder,
) *AggregationService {
	if metrics == nil {
		metrics = domain.NopMetrics{}
	}
	return &AggregationService{
		identifier: identifier,
		retailers:  retailers,
		sessions:   sessions,
		sequencer:  NewSequencer(),
		metrics:    metrics,
		now:        time.Now,
	}
}

// Search runs one search for clientID.
// Flow: validate -> identify (image/barcode) -> collect -> normalize -> rank -> cache -> return
//
// Retailer failures listed by the collaborator do not fail the search. An
// empty offer list is returned together with ErrNoResults. A search that
// resolves after a newer one was issued for the same client returns
// ErrStaleSearch and is not cached, whatever the newer one's outcome.
func (s *AggregationService) Search(
	ctx context.Context,
	clientID string,
	input *domain.SearchInput,
) (*domain.SearchSession, error) {
	in, err := validateInput(input)
	if err != nil {
		return nil, err
	}

	seq := s.sequencer.Next(clientID)

	query := strings.TrimSpace(in.Query)
	if in.NeedsIdentification() {
		keywords, err := s.identify(ctx, in)
		if err != nil {
			s.metrics.ObserveSearch(outcomeIdentification)
			return nil, err
		}
		query = keywords
	}

	log.Printf("[SEARCH] client=%s seq=%d dispatching query %q", clientID, seq, query)

	result, err := s.retailers.Search(ctx, query)
	if err != nil || result == nil {
		s.metrics.ObserveSearch(outcomeCollection)
		if err == nil {
			err = errors.New("empty response from retailer search")
		}
		return nil, &domain.AggregationError{
			Stage:  domain.StageCollecting,
			Kind:   domain.ErrCollection,
			Reason: "retailer search failed",
			Err:    err,
		}
	}

	if s.superseded(clientID, seq) {
		return nil, domain.ErrStaleSearch
	}

	if len(result.FailedRetailers) > 0 {
		log.Printf("[SEARCH] client=%s seq=%d failed retailers: %v", clientID, seq, result.FailedRetailers)
		s.metrics.ObserveFailedRetailers(result.FailedRetailers)
	}

	offers, warnings := NormalizeOffers(result.Offers)
	for _, w := range warnings {
		log.Printf("[SEARCH] offer %d normalized with defaults for %v", w.Index, w.Missing)
	}

	session := &domain.SearchSession{
		Query:            query,
		Offers:           RankOffers(offers),
		ScrapedRetailers: nonNil(result.ScrapedRetailers),
		FailedRetailers:  nonNil(result.FailedRetailers),
		Timestamp:        s.now().UnixMilli(),
	}

	// Empty results are not cached so the previous search stays restorable
	if len(session.Offers) == 0 {
		s.metrics.ObserveSearch(outcomeNoResults)
		return session, &domain.AggregationError{
			Stage: domain.StageRanked,
			Kind:  domain.ErrNoResults,
		}
	}

	if s.superseded(clientID, seq) {
		return nil, domain.ErrStaleSearch
	}
	if err := s.sessions.Save(ctx, clientID, seq, session); err != nil {
		if errors.Is(err, domain.ErrStaleSearch) {
			log.Printf("[SEARCH] client=%s seq=%d discarded, newer search already committed", clientID, seq)
			s.metrics.ObserveSearch(outcomeStale)
			return nil, err
		}
		// Log but don't fail if caching fails
		log.Printf("[SEARCH] client=%s seq=%d cache write failed: %v", clientID, seq, err)
	}

	s.metrics.ObserveSearch(outcomeRanked)
	log.Printf("[SEARCH] client=%s seq=%d ranked %d offers", clientID, seq, len(session.Offers))
	return session, nil
}

// RestoreSession returns the last committed search for clientID
func (s *AggregationService) RestoreSession(ctx context.Context, clientID string) (*domain.SearchSession, error) {
	session, tier, err := s.sessions.Restore(ctx, clientID)
	if err != nil {
		return nil, err
	}
	log.Printf("[SESSION] client=%s restored %d offers from %s tier", clientID, len(session.Offers), tier)
	return session, nil
}

// ResetSession forgets the last search for clientID
func (s *AggregationService) ResetSession(ctx context.Context, clientID string) error {
	return s.sessions.Reset(ctx, clientID)
}

// Sessions exposes the session cache for viewed-item bookkeeping
func (s *AggregationService) Sessions() *SessionCache {
	return s.sessions
}

// superseded reports whether a newer search was issued for clientID after seq
func (s *AggregationService) superseded(clientID string, seq uint64) bool {
	if seq >= s.sequencer.Latest(clientID) {
		return false
	}
	log.Printf("[SEARCH] client=%s seq=%d discarded, newer search issued", clientID, seq)
	s.metrics.ObserveSearch(outcomeStale)
	return true
}

// identify resolves an image or barcode into a keyword query
func (s *AggregationService) identify(ctx context.Context, input domain.SearchInput) (string, error) {
	if s.identifier == nil {
		return "", &domain.AggregationError{
			Stage:  domain.StageIdentifying,
			Kind:   domain.ErrIdentification,
			Reason: "identification service not configured",
		}
	}

	result, err := s.identifier.Identify(ctx, domain.IdentifyRequest{
		Type:     input.Type,
		Image:    input.Image,
		MimeType: input.MimeType,
		Barcode:  strings.TrimSpace(input.Barcode),
	})
	if err != nil {
		return "", &domain.AggregationError{
			Stage:  domain.StageIdentifying,
			Kind:   domain.ErrIdentification,
			Reason: "identification service unavailable",
			Err:    err,
		}
	}

	if result == nil || !result.Success {
		reason := "product could not be recognised"
		if result != nil && result.Error != "" {
			reason = result.Error
		}
		return "", &domain.AggregationError{
			Stage:  domain.StageIdentifying,
			Kind:   domain.ErrIdentification,
			Reason: reason,
		}
	}

	keywords := strings.TrimSpace(result.Keywords)
	if keywords == "" {
		return "", &domain.AggregationError{
			Stage:  domain.StageIdentifying,
			Kind:   domain.ErrIdentification,
			Reason: "no usable keywords returned",
		}
	}
	return keywords, nil
}

// validateInput checks that the payload required by the input type is present
// and returns a copy with the type defaulted to text
func validateInput(input *domain.SearchInput) (domain.SearchInput, error) {
	if input == nil {
		return domain.SearchInput{}, domain.ErrInvalidRequest
	}
	in := *input
	if in.Type == "" {
		in.Type = domain.InputText
	}

	switch in.Type {
	case domain.InputText:
		if strings.TrimSpace(in.Query) == "" {
			return in, domain.ErrInvalidRequest
		}
	case domain.InputImage:
		if len(in.Image) == 0 {
			return in, domain.ErrInvalidRequest
		}
	case domain.InputBarcode:
		if strings.TrimSpace(in.Barcode) == "" {
			return in, domain.ErrInvalidRequest
		}
	default:
		return in, domain.ErrInvalidRequest
	}
	return in, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

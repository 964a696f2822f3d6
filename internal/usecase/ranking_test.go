package usecase

import (
	"testing"

	"github.com/pricelens/backend/internal/domain"
)

func pricedOffer(id string, price float64, rating *float64) domain.NormalizedOffer {
	return domain.NormalizedOffer{
		ID:          id,
		Name:        id,
		Price:       price,
		PriceStatus: domain.PriceParsed,
		Vendor:      "Vendor " + id,
		Rating:      rating,
	}
}

func flagged(offers []domain.NormalizedOffer) (lowest []string, best []string) {
	for _, o := range offers {
		if o.IsLowestPrice {
			lowest = append(lowest, o.ID)
		}
		if o.IsBestDeal {
			best = append(best, o.ID)
		}
	}
	return lowest, best
}

func TestRankOffers(t *testing.T) {
	tests := []struct {
		name       string
		offers     []domain.NormalizedOffer
		wantLowest string
		wantBest   string
	}{
		{
			name: "lowest price tie broken by rating",
			offers: []domain.NormalizedOffer{
				pricedOffer("a", 100, floatPtr(4)),
				pricedOffer("b", 90, floatPtr(4.5)),
				pricedOffer("c", 90, floatPtr(3)),
				pricedOffer("d", 120, floatPtr(5)),
			},
			wantLowest: "b",
			wantBest:   "b",
		},
		{
			name: "no ratings makes lowest price the best deal",
			offers: []domain.NormalizedOffer{
				pricedOffer("a", 300, nil),
				pricedOffer("b", 250, nil),
				pricedOffer("c", 275, nil),
			},
			wantLowest: "b",
			wantBest:   "b",
		},
		{
			name: "tie without ratings goes to first candidate",
			offers: []domain.NormalizedOffer{
				pricedOffer("a", 50, nil),
				pricedOffer("b", 40, nil),
				pricedOffer("c", 40, nil),
			},
			wantLowest: "b",
			wantBest:   "b",
		},
		{
			name: "tie where only a later candidate is rated",
			offers: []domain.NormalizedOffer{
				pricedOffer("a", 40, nil),
				pricedOffer("b", 40, floatPtr(2)),
			},
			wantLowest: "b",
			wantBest:   "b",
		},
		{
			name: "rating can outweigh a small price gap",
			offers: []domain.NormalizedOffer{
				pricedOffer("cheap", 100, floatPtr(1)),
				pricedOffer("good", 101, floatPtr(5)),
				pricedOffer("pricey", 200, floatPtr(5)),
			},
			wantLowest: "cheap",
			wantBest:   "good",
		},
		{
			name: "equal prices use flat price score",
			offers: []domain.NormalizedOffer{
				pricedOffer("a", 100, floatPtr(3)),
				pricedOffer("b", 100, floatPtr(4)),
			},
			wantLowest: "b",
			wantBest:   "b",
		},
		{
			name: "equal best deal scores resolve to first",
			offers: []domain.NormalizedOffer{
				pricedOffer("a", 100, floatPtr(4)),
				pricedOffer("b", 100, floatPtr(4)),
			},
			wantLowest: "a",
			wantBest:   "a",
		},
		{
			name: "single offer wins both",
			offers: []domain.NormalizedOffer{
				pricedOffer("only", 10, nil),
			},
			wantLowest: "only",
			wantBest:   "only",
		},
		{
			name: "unparsed price never wins lowest",
			offers: []domain.NormalizedOffer{
				{ID: "unknown", Price: 0, PriceStatus: domain.PriceInvalid, Rating: floatPtr(5)},
				pricedOffer("real", 500, nil),
			},
			wantLowest: "real",
			wantBest:   "real",
		},
		{
			name: "all prices unparsed still ranks",
			offers: []domain.NormalizedOffer{
				{ID: "x", PriceStatus: domain.PriceAbsent},
				{ID: "y", PriceStatus: domain.PriceInvalid, Rating: floatPtr(3)},
			},
			wantLowest: "y",
			wantBest:   "y",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked := RankOffers(tt.offers)
			if len(ranked) != len(tt.offers) {
				t.Fatalf("len = %d, want %d", len(ranked), len(tt.offers))
			}

			lowest, best := flagged(ranked)
			if len(lowest) != 1 || lowest[0] != tt.wantLowest {
				t.Errorf("lowest = %v, want [%s]", lowest, tt.wantLowest)
			}
			if len(best) != 1 || best[0] != tt.wantBest {
				t.Errorf("best = %v, want [%s]", best, tt.wantBest)
			}
		})
	}
}

func TestRankOffers_Empty(t *testing.T) {
	if got := RankOffers(nil); len(got) != 0 {
		t.Errorf("RankOffers(nil) = %v, want empty", got)
	}
}

func TestRankOffers_ResetsSuppliedFlags(t *testing.T) {
	offers := []domain.NormalizedOffer{
		pricedOffer("a", 10, nil),
		pricedOffer("b", 20, nil),
	}
	offers[1].IsLowestPrice = true
	offers[1].IsBestDeal = true

	ranked := RankOffers(offers)

	if ranked[1].IsLowestPrice || ranked[1].IsBestDeal {
		t.Error("stale flags should be cleared")
	}
	if !ranked[0].IsLowestPrice || !ranked[0].IsBestDeal {
		t.Error("expected first offer to win")
	}
}

func TestRankOffers_DoesNotMutateInput(t *testing.T) {
	offers := []domain.NormalizedOffer{
		pricedOffer("a", 10, nil),
		pricedOffer("b", 20, nil),
	}

	RankOffers(offers)

	for _, o := range offers {
		if o.IsLowestPrice || o.IsBestDeal {
			t.Errorf("input offer %s was mutated", o.ID)
		}
	}
}

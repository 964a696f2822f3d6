package usecase

import "github.com/pricelens/backend/internal/domain"

// Best deal score weights
const (
	priceWeight    = 0.7
	ratingWeight   = 0.3
	flatPriceScore = 0.5 // used when every offer costs the same
)

// RankOffers returns a copy of offers with IsLowestPrice and IsBestDeal set.
//
// Only offers with a parsed price compete when at least one exists, so an
// unreadable price is never mistaken for a free offer. Lowest price ties go
// to the highest rating, then to input order. Best deal maximises
// 0.7*priceScore + 0.3*rating/5 over rated offers and falls back to the
// lowest price offer when nothing is rated.
func RankOffers(offers []domain.NormalizedOffer) []domain.NormalizedOffer {
	ranked := make([]domain.NormalizedOffer, len(offers))
	copy(ranked, offers)
	for i := range ranked {
		ranked[i].IsLowestPrice = false
		ranked[i].IsBestDeal = false
	}
	if len(ranked) == 0 {
		return ranked
	}

	pool := pricedIndexes(ranked)
	minPrice, maxPrice := priceRange(ranked, pool)

	lowest := lowestPriceIndex(ranked, pool, minPrice)
	ranked[lowest].IsLowestPrice = true

	if best, ok := bestDealIndex(ranked, pool, minPrice, maxPrice); ok {
		ranked[best].IsBestDeal = true
	} else {
		ranked[lowest].IsBestDeal = true
	}

	return ranked
}

func pricedIndexes(offers []domain.NormalizedOffer) []int {
	var pool []int
	for i, o := range offers {
		if o.PriceStatus == domain.PriceParsed {
			pool = append(pool, i)
		}
	}
	if len(pool) > 0 {
		return pool
	}

	pool = make([]int, len(offers))
	for i := range offers {
		pool[i] = i
	}
	return pool
}

func priceRange(offers []domain.NormalizedOffer, pool []int) (float64, float64) {
	minPrice := offers[pool[0]].Price
	maxPrice := minPrice
	for _, i := range pool[1:] {
		if offers[i].Price < minPrice {
			minPrice = offers[i].Price
		}
		if offers[i].Price > maxPrice {
			maxPrice = offers[i].Price
		}
	}
	return minPrice, maxPrice
}

func lowestPriceIndex(offers []domain.NormalizedOffer, pool []int, minPrice float64) int {
	var candidates []int
	for _, i := range pool {
		if offers[i].Price == minPrice {
			candidates = append(candidates, i)
		}
	}

	winner := candidates[0]
	bestRating := -1.0
	for _, i := range candidates {
		if r := offers[i].Rating; r != nil && *r > bestRating {
			bestRating = *r
			winner = i
		}
	}
	return winner
}

func bestDealIndex(offers []domain.NormalizedOffer, pool []int, minPrice, maxPrice float64) (int, bool) {
	best := -1
	bestScore := 0.0
	for _, i := range pool {
		o := offers[i]
		if o.Rating == nil {
			continue
		}

		priceScore := flatPriceScore
		if maxPrice != minPrice {
			priceScore = (maxPrice - o.Price) / (maxPrice - minPrice)
		}
		score := priceWeight*priceScore + ratingWeight*(*o.Rating/maxRating)

		if best == -1 || score > bestScore {
			best = i
			bestScore = score
		}
	}
	return best, best != -1
}

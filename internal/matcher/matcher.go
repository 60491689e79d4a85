// Package matcher selects and orders catalog products for a customer.
//
// Recommend is a pure function of its inputs apart from embedding calls made
// in similarity_rank mode and the injected random source.
package matcher

import (
	"context"
	"fmt"
	"sort"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

// Recommend returns up to opts.K products from catalog for customer.
//
// Products whose category or subcategory appears among the customer's
// interests, browsing history or purchase history qualify. Qualifying products
// are ranked by opts.Mode; remaining slots are filled from the other
// price-eligible products, so the result only falls short of K when fewer
// products are eligible. Backfilled items are never reported as matched.
//
// Under probability_rank the final list is ordered by probability as a whole
// when every item carries one, so a backfilled product with a high
// probability can precede an interest match.
func Recommend(ctx context.Context, customer *domain.Customer, catalog []domain.Product, opts Options) (*domain.RecommendationResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.normalized()

	if len(catalog) == 0 {
		return nil, domain.ErrEmptyCatalog
	}
	if customer == nil {
		customer = &domain.Customer{}
	}

	norm := newNormalizer(opts.CaseSensitive)
	sig := extractSignals(customer, norm)
	eligible, qualifying := partition(catalog, sig, purchaseSet(customer), opts, norm)

	res := &domain.RecommendationResult{Mode: opts.Mode}
	var matched []candidate

	switch opts.Mode {
	case domain.ModeCategoryMatch:
		matched = inCatalogOrder(qualifying)

	case domain.ModeProbabilityRank:
		ranked, warnings, ok := rankByProbability(catalog, qualifying)
		res.Warnings = append(res.Warnings, warnings...)
		if ok {
			matched = ranked
		} else {
			res.Mode = domain.ModeCategoryMatch
			matched = inCatalogOrder(qualifying)
		}

	case domain.ModeSimilarityRank:
		if len(qualifying) == 0 {
			break
		}
		ranked, warnings, customerOK, err := rankBySimilarity(ctx, catalog, qualifying, sig, opts)
		if err != nil {
			return nil, fmt.Errorf("similarity ranking: %w", err)
		}
		res.Warnings = append(res.Warnings, warnings...)
		if customerOK {
			matched = ranked
		} else {
			res.Mode = domain.ModeCategoryMatch
			matched = inCatalogOrder(qualifying)
		}
	}

	if len(matched) > opts.K {
		matched = matched[:opts.K]
	}

	taken := make(map[int]bool, opts.K)
	res.Items = make([]domain.Recommendation, 0, opts.K)
	for _, c := range matched {
		taken[c.idx] = true
		res.Items = append(res.Items, domain.Recommendation{
			Product: catalog[c.idx],
			Score:   c.score,
			Matched: true,
			Source:  domain.SourceInterest,
		})
	}

	for _, c := range backfill(catalog, eligible, taken, opts.K-len(matched), res.Mode, opts) {
		res.Items = append(res.Items, domain.Recommendation{
			Product: catalog[c.idx],
			Score:   c.score,
			Matched: false,
			Source:  domain.SourceBackfill,
		})
		res.Backfilled++
	}

	// Under probability ranking the whole list, backfill included, is kept
	// non-increasing in probability whenever every item has one.
	if res.Mode == domain.ModeProbabilityRank && allScored(res.Items) {
		sort.SliceStable(res.Items, func(a, b int) bool {
			return *res.Items[a].Score > *res.Items[b].Score
		})
	}

	return res, nil
}

func allScored(items []domain.Recommendation) bool {
	for _, it := range items {
		if it.Score == nil {
			return false
		}
	}
	return true
}

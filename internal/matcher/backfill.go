package matcher

import (
	"math/rand"
	"sort"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

// backfill picks up to need eligible products not already taken.
func backfill(catalog []domain.Product, eligible []int, taken map[int]bool, need int, mode domain.ScoringMode, opts Options) []candidate {
	if need <= 0 {
		return nil
	}

	pool := make([]int, 0, len(eligible))
	for _, i := range eligible {
		if !taken[i] {
			pool = append(pool, i)
		}
	}

	byProbability := mode == domain.ModeProbabilityRank && allHaveProbability(catalog, pool)

	switch {
	case opts.Backfill == BackfillRandom:
		rng := opts.Rand
		if rng == nil {
			rng = rand.New(rand.NewSource(opts.Seed))
		}
		// Partial Fisher-Yates: the first n slots become a uniform sample.
		n := min(need, len(pool))
		for a := 0; a < n; a++ {
			b := a + rng.Intn(len(pool)-a)
			pool[a], pool[b] = pool[b], pool[a]
		}
	case byProbability:
		sort.SliceStable(pool, func(a, b int) bool {
			return *catalog[pool[a]].Probability > *catalog[pool[b]].Probability
		})
	}

	if len(pool) > need {
		pool = pool[:need]
	}

	out := make([]candidate, len(pool))
	for n, i := range pool {
		out[n] = candidate{idx: i}
		if mode == domain.ModeProbabilityRank && catalog[i].Probability != nil {
			p := *catalog[i].Probability
			out[n].score = &p
		}
	}
	return out
}

func allHaveProbability(catalog []domain.Product, idxs []int) bool {
	for _, i := range idxs {
		if catalog[i].Probability == nil {
			return false
		}
	}
	return true
}

package matcher

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/actuallystonmai/product-recommender/internal/domain"
	"github.com/actuallystonmai/product-recommender/internal/embedding"
)

const (
	DefaultK                = 3
	defaultEmbedConcurrency = 4
)

// PurchaseMatchPolicy controls whether an exact subcategory match against
// purchase history qualifies a product on its own.
type PurchaseMatchPolicy string

const (
	PurchaseMatchOff         PurchaseMatchPolicy = "off"
	PurchaseMatchWithinPrice PurchaseMatchPolicy = "within_price"
	PurchaseMatchIgnorePrice PurchaseMatchPolicy = "ignore_price"
)

type BackfillPolicy string

const (
	BackfillCatalogOrder BackfillPolicy = "catalog_order"
	BackfillRandom       BackfillPolicy = "random"
)

// PriceRange is inclusive on both ends.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r PriceRange) Contains(price float64) bool {
	return price >= r.Min && price <= r.Max
}

type Options struct {
	K             int
	PriceRange    *PriceRange
	Mode          domain.ScoringMode
	CaseSensitive bool
	PurchaseMatch PurchaseMatchPolicy
	Backfill      BackfillPolicy

	// Seed feeds the random backfill when Rand is nil. A shared Rand must
	// not be used from several goroutines at once.
	Seed int64
	Rand *rand.Rand

	// Embedder is required for similarity_rank.
	Embedder         embedding.Embedder
	EmbedConcurrency int
}

func DefaultOptions() Options {
	return Options{
		K:             DefaultK,
		Mode:          domain.ModeCategoryMatch,
		PurchaseMatch: PurchaseMatchOff,
		Backfill:      BackfillCatalogOrder,
	}
}

// normalized fills empty enum fields with their defaults.
func (o Options) normalized() Options {
	if o.Mode == "" {
		o.Mode = domain.ModeCategoryMatch
	}
	if o.PurchaseMatch == "" {
		o.PurchaseMatch = PurchaseMatchOff
	}
	if o.Backfill == "" {
		o.Backfill = BackfillCatalogOrder
	}
	if o.EmbedConcurrency == 0 {
		o.EmbedConcurrency = defaultEmbedConcurrency
	}
	return o
}

func (o Options) Validate() error {
	o = o.normalized()

	if o.K <= 0 {
		return fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidOptions, o.K)
	}
	if !o.Mode.Valid() {
		return fmt.Errorf("%w: unknown scoring mode %q", domain.ErrInvalidOptions, o.Mode)
	}
	if r := o.PriceRange; r != nil {
		if math.IsNaN(r.Min) || math.IsNaN(r.Max) {
			return fmt.Errorf("%w: price bounds must be numbers", domain.ErrInvalidOptions)
		}
		if r.Min < 0 || r.Max < 0 {
			return fmt.Errorf("%w: price bounds must not be negative", domain.ErrInvalidOptions)
		}
		if r.Min > r.Max {
			return fmt.Errorf("%w: min price %v exceeds max price %v", domain.ErrInvalidOptions, r.Min, r.Max)
		}
	}
	switch o.PurchaseMatch {
	case PurchaseMatchOff, PurchaseMatchWithinPrice, PurchaseMatchIgnorePrice:
	default:
		return fmt.Errorf("%w: unknown purchase match policy %q", domain.ErrInvalidOptions, o.PurchaseMatch)
	}
	switch o.Backfill {
	case BackfillCatalogOrder, BackfillRandom:
	default:
		return fmt.Errorf("%w: unknown backfill policy %q", domain.ErrInvalidOptions, o.Backfill)
	}
	if o.Mode == domain.ModeSimilarityRank && o.Embedder == nil {
		return fmt.Errorf("%w: similarity_rank requires an embedder", domain.ErrInvalidOptions)
	}
	if o.EmbedConcurrency < 0 {
		return fmt.Errorf("%w: embed concurrency must not be negative", domain.ErrInvalidOptions)
	}
	return nil
}

// Deterministic reports whether identical inputs always give identical output.
func (o Options) Deterministic() bool {
	o = o.normalized()
	return o.Backfill != BackfillRandom || o.Rand == nil
}

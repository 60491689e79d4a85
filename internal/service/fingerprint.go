package service

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/actuallystonmai/product-recommender/internal/domain"
	"github.com/actuallystonmai/product-recommender/internal/matcher"
)

// fingerprint canonicalizes the options that shape a result.
func fingerprint(opts matcher.Options) string {
	d := matcher.DefaultOptions()
	mode, purchase, backfill := opts.Mode, opts.PurchaseMatch, opts.Backfill
	if mode == "" {
		mode = d.Mode
	}
	if purchase == "" {
		purchase = d.PurchaseMatch
	}
	if backfill == "" {
		backfill = d.Backfill
	}

	var b strings.Builder
	fmt.Fprintf(&b, "k=%d;mode=%s;cs=%t;purchase=%s;backfill=%s", opts.K, mode, opts.CaseSensitive, purchase, backfill)
	if r := opts.PriceRange; r != nil {
		fmt.Fprintf(&b, ";price=%g-%g", r.Min, r.Max)
	}
	if backfill == matcher.BackfillRandom {
		fmt.Fprintf(&b, ";seed=%d", opts.Seed)
	}
	return b.String()
}

func catalogFingerprint(catalog []domain.Product) uint64 {
	d := xxhash.New()
	for i := range catalog {
		d.WriteString(catalog[i].ID)
		d.WriteString("\x00")
		d.WriteString(catalog[i].Text())
		d.WriteString("\x00")
	}
	return d.Sum64()
}

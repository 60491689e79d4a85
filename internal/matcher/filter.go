package matcher

import (
	"strings"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

// partition returns, as catalog indices in catalog order, the products that
// may appear in the result at all and the subset that qualifies by interest.
func partition(catalog []domain.Product, sig signals, purchases map[string]struct{}, opts Options, norm normalizer) (eligible, qualifying []int) {
	for i := range catalog {
		p := &catalog[i]

		inPrice := opts.PriceRange == nil || opts.PriceRange.Contains(p.Price)
		purchaseHit := false
		if opts.PurchaseMatch != PurchaseMatchOff && p.Subcategory != "" {
			_, purchaseHit = purchases[strings.TrimSpace(p.Subcategory)]
		}
		ignoresPrice := purchaseHit && opts.PurchaseMatch == PurchaseMatchIgnorePrice

		if !inPrice && !ignoresPrice {
			continue
		}
		eligible = append(eligible, i)

		categoryHit := sig.has(norm(p.Category)) || sig.has(norm(p.Subcategory))
		if categoryHit || purchaseHit {
			qualifying = append(qualifying, i)
		}
	}
	return eligible, qualifying
}

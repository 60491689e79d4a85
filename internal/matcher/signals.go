package matcher

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

// normalizer maps a raw label to its comparison key.
type normalizer func(string) string

// newNormalizer returns a trim-and-fold normalizer. A cases.Caser is not safe
// for concurrent use, so each call builds its own.
func newNormalizer(caseSensitive bool) normalizer {
	if caseSensitive {
		return strings.TrimSpace
	}
	fold := cases.Fold()
	return func(s string) string {
		return fold.String(strings.TrimSpace(s))
	}
}

// signals is the customer's interest set. texts keeps first-seen raw values
// for building the similarity query.
type signals struct {
	keys  map[string]struct{}
	texts []string
}

func extractSignals(c *domain.Customer, norm normalizer) signals {
	s := signals{keys: make(map[string]struct{})}
	for _, list := range [][]string{c.Interests, c.BrowsingHistory, c.PurchaseHistory} {
		for _, raw := range list {
			key := norm(raw)
			if key == "" {
				continue
			}
			if _, dup := s.keys[key]; dup {
				continue
			}
			s.keys[key] = struct{}{}
			s.texts = append(s.texts, strings.TrimSpace(raw))
		}
	}
	return s
}

func (s signals) has(key string) bool {
	if key == "" {
		return false
	}
	_, ok := s.keys[key]
	return ok
}

func (s signals) text() string {
	return strings.Join(s.texts, " ")
}

// purchaseSet holds exact (trimmed, case-preserved) purchase entries.
func purchaseSet(c *domain.Customer) map[string]struct{} {
	set := make(map[string]struct{}, len(c.PurchaseHistory))
	for _, raw := range c.PurchaseHistory {
		if v := strings.TrimSpace(raw); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

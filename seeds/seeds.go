package seeds

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

// Writer is the sink seeded data goes to.
type Writer interface {
	UpsertCustomers(ctx context.Context, customers []domain.Customer) error
	UpsertProducts(ctx context.Context, products []domain.Product) error
}

var categories = map[string][]string{
	"Books":       {"Fiction", "Cooking", "Travel", "Science"},
	"Electronics": {"Headphones", "Cameras", "Laptops", "Smartphones"},
	"Fashion":     {"Outerwear", "Shoes", "Accessories"},
	"Home":        {"Kitchen", "Decor", "Furniture"},
	"Sports":      {"Fitness", "Cycling", "Outdoor"},
	"Beauty":      {"Skincare", "Fragrance"},
}

var categoryOrder = []string{"Books", "Electronics", "Fashion", "Home", "Sports", "Beauty"}

var priceBands = map[string][2]float64{
	"Books":       {8, 45},
	"Electronics": {40, 1500},
	"Fashion":     {15, 300},
	"Home":        {10, 600},
	"Sports":      {10, 900},
	"Beauty":      {8, 150},
}

var (
	firstNames = []string{"Alice", "Bruno", "Chen", "Dana", "Emeka", "Farah", "Gus", "Hana", "Ivan", "Jia",
		"Kofi", "Lena", "Mateo", "Nadia", "Omar", "Priya", "Quinn", "Rosa", "Sven", "Tara"}
	locations   = []string{"New York", "London", "Toronto", "Sydney", "Berlin", "Paris", "Tokyo", "Sao Paulo"}
	genders     = []string{"F", "M", "X"}
	genderShare = []float64{0.48, 0.48, 0.04}
	brands      = []string{"Acme", "Northwind", "Globex", "Initech", "Umbrella", "Stark"}
)

// Setup generates a reproducible data set and writes it.
func Setup(ctx context.Context, w Writer, logger zerolog.Logger) error {
	rng := rand.New(rand.NewSource(42))
	customers, products := Generate(rng, 20, 60)

	logger.Info().Int("count", len(products)).Msg("[seed] inserting products")
	if err := w.UpsertProducts(ctx, products); err != nil {
		return fmt.Errorf("seed products: %w", err)
	}

	logger.Info().Int("count", len(customers)).Msg("[seed] inserting customers")
	if err := w.UpsertCustomers(ctx, customers); err != nil {
		return fmt.Errorf("seed customers: %w", err)
	}

	logger.Info().Msg("[seed] seeding complete")
	return nil
}

// Generate builds nCustomers profiles and nProducts catalog entries. Some
// customers have no interests so backfill paths get exercised.
func Generate(rng *rand.Rand, nCustomers, nProducts int) ([]domain.Customer, []domain.Product) {
	products := make([]domain.Product, 0, nProducts)
	for i := range nProducts {
		category := categoryOrder[i%len(categoryOrder)]
		subs := categories[category]
		sub := subs[rng.Intn(len(subs))]
		band := priceBands[category]
		brand := brands[rng.Intn(len(brands))]

		p := domain.Product{
			ID:          fmt.Sprintf("P%03d", i+1),
			Name:        fmt.Sprintf("%s %s %d", brand, sub, i/len(categoryOrder)+1),
			Category:    category,
			Subcategory: sub,
			Price:       math.Round((band[0]+rng.Float64()*(band[1]-band[0]))*100) / 100,
			Description: fmt.Sprintf("%s %s from %s in our %s range", adjective(rng), sub, brand, category),
			Brand:       brand,
			Rating:      ptr(math.Round((2.5+rng.Float64()*2.5)*10) / 10),
			Sentiment:   ptr(math.Round((rng.Float64()*2-1)*100) / 100),
			Probability: ptr(powerLawScore(rng)),
		}
		products = append(products, p)
	}
	for i := range products {
		for range 2 {
			j := rng.Intn(len(products))
			if j != i {
				products[i].RelatedIDs = append(products[i].RelatedIDs, products[j].ID)
			}
		}
	}

	customers := make([]domain.Customer, 0, nCustomers)
	for i := range nCustomers {
		c := domain.Customer{
			ID:       fmt.Sprintf("C%03d", i+1),
			Name:     firstNames[i%len(firstNames)],
			Age:      rng.Intn(48) + 18,
			Gender:   weightedChoice(rng, genders, genderShare),
			Location: locations[rng.Intn(len(locations))],
		}
		if i >= len(firstNames) {
			c.Name = fmt.Sprintf("%s %d", c.Name, i/len(firstNames)+1)
		}

		if i%7 != 6 {
			c.Interests = pickN(rng, categoryOrder, 1+rng.Intn(2))
		}
		for range rng.Intn(3) {
			p := products[rng.Intn(len(products))]
			c.BrowsingHistory = append(c.BrowsingHistory, p.Subcategory)
		}
		if rng.Float64() < 0.5 {
			p := products[rng.Intn(len(products))]
			c.PurchaseHistory = append(c.PurchaseHistory, p.Subcategory)
		}
		customers = append(customers, c)
	}

	return customers, products
}

func ptr(v float64) *float64 { return &v }

func adjective(rng *rand.Rand) string {
	adjs := []string{"Durable", "Lightweight", "Premium", "Everyday", "Compact", "Classic"}
	return adjs[rng.Intn(len(adjs))]
}

func pickN(rng *rand.Rand, from []string, n int) []string {
	idx := rng.Perm(len(from))[:n]
	out := make([]string, n)
	for i, j := range idx {
		out[i] = from[j]
	}
	return out
}

// powerLawScore skews probabilities towards low values, in [0.01, 1].
func powerLawScore(rng *rand.Rand) float64 {
	u := rng.Float64()
	if u == 0 {
		u = 0.001
	}
	raw := math.Pow(u, 2.0)
	if raw < 0.01 {
		raw = 0.01
	}
	return math.Round(raw*100) / 100
}

func weightedChoice(rng *rand.Rand, choices []string, weights []float64) string {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := rng.Float64() * total
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if r <= cumulative {
			return choices[i]
		}
	}
	return choices[len(choices)-1]
}

package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(
		[]domain.Customer{
			{ID: "c1", Name: "Alice"},
			{ID: "c2", Name: "Bob"},
			{ID: "c3", Name: "Cara"},
		},
		[]domain.Product{{ID: "p1", Category: "Books"}},
	)

	t.Run("by id", func(t *testing.T) {
		c, err := store.GetCustomerByID(ctx, "c2")
		if err != nil || c.Name != "Bob" {
			t.Errorf("expected Bob, got %+v, %v", c, err)
		}
	})

	t.Run("by name", func(t *testing.T) {
		c, err := store.GetCustomerByID(ctx, "Cara")
		if err != nil || c.ID != "c3" {
			t.Errorf("expected c3, got %+v, %v", c, err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := store.GetCustomerByID(ctx, "nobody")
		if !errors.Is(err, domain.ErrCustomerNotFound) {
			t.Errorf("expected ErrCustomerNotFound, got %v", err)
		}
	})

	t.Run("paging", func(t *testing.T) {
		page, _ := store.ListCustomers(ctx, 2, 2)
		if len(page) != 1 || page[0].ID != "c3" {
			t.Errorf("unexpected page: %+v", page)
		}
		empty, _ := store.ListCustomers(ctx, 10, 2)
		if len(empty) != 0 {
			t.Errorf("expected empty page, got %+v", empty)
		}
	})

	t.Run("replace", func(t *testing.T) {
		store.Replace(nil, nil)
		n, _ := store.CountCustomers(ctx)
		products, _ := store.ListProducts(ctx)
		if n != 0 || len(products) != 0 {
			t.Errorf("expected empty store, got %d customers, %d products", n, len(products))
		}
	})
}

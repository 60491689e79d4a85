package catalog

import (
	"context"
	"sync"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

// MemoryStore serves customers and products loaded from files. Replace swaps
// the whole snapshot; readers always see a consistent pair of tables.
type MemoryStore struct {
	mu        sync.RWMutex
	customers []domain.Customer
	byID      map[string]int
	byName    map[string]int
	products  []domain.Product
}

func NewMemoryStore(customers []domain.Customer, products []domain.Product) *MemoryStore {
	s := &MemoryStore{}
	s.Replace(customers, products)
	return s
}

// LoadMemoryStore reads both tables from disk.
func LoadMemoryStore(customersPath, productsPath string) (*MemoryStore, error) {
	customers, err := LoadCustomersFile(customersPath)
	if err != nil {
		return nil, err
	}
	products, err := LoadProductsFile(productsPath)
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(customers, products), nil
}

func (s *MemoryStore) Replace(customers []domain.Customer, products []domain.Product) {
	byID := make(map[string]int, len(customers))
	byName := make(map[string]int, len(customers))
	for i, c := range customers {
		byID[c.ID] = i
		if _, dup := byName[c.Name]; !dup && c.Name != "" {
			byName[c.Name] = i
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers = customers
	s.byID = byID
	s.byName = byName
	s.products = products
}

// GetCustomerByID looks the customer up by id, then by name.
func (s *MemoryStore) GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		idx, ok = s.byName[id]
	}
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	c := s.customers[idx]
	return &c, nil
}

func (s *MemoryStore) ListCustomers(ctx context.Context, offset, limit int) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	offset = max(offset, 0)
	if offset >= len(s.customers) || limit <= 0 {
		return []domain.Customer{}, nil
	}
	end := min(offset+limit, len(s.customers))
	out := make([]domain.Customer, end-offset)
	copy(out, s.customers[offset:end])
	return out, nil
}

func (s *MemoryStore) CountCustomers(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.customers), nil
}

// ListProducts returns the catalog in file order. The slice is shared and
// must not be modified.
func (s *MemoryStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.products, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

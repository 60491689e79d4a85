// Package catalog loads customer and product tables from CSV and Excel files
// and serves them from memory.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

var (
	ErrFileNotFound  = errors.New("required data file not found")
	ErrMissingColumn = errors.New("missing required column")
)

const headerRow = 1

func openTable(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := ReadAnyMaps(f, path, headerRow)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func LoadCustomersFile(path string) ([]domain.Customer, error) {
	rows, err := openTable(path)
	if err != nil {
		return nil, err
	}
	return parseCustomers(rows)
}

func LoadProductsFile(path string) ([]domain.Product, error) {
	rows, err := openTable(path)
	if err != nil {
		return nil, err
	}
	return parseProducts(rows)
}

func LoadCustomers(r io.Reader, filename string) ([]domain.Customer, error) {
	rows, err := ReadAnyMaps(r, filename, headerRow)
	if err != nil {
		return nil, err
	}
	return parseCustomers(rows)
}

func LoadProducts(r io.Reader, filename string) ([]domain.Product, error) {
	rows, err := ReadAnyMaps(r, filename, headerRow)
	if err != nil {
		return nil, err
	}
	return parseProducts(rows)
}

func parseCustomers(rows []map[string]string) ([]domain.Customer, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	cols := newColumns(rows)
	idKey, hasID := cols.resolve(colCustomerID)
	nameKey, hasName := cols.resolve(colCustomerName)
	if !hasID && !hasName {
		return nil, fmt.Errorf("%w: %s or %s", ErrMissingColumn, colCustomerID, colCustomerName)
	}
	if _, ok := cols.resolve(colInterests); !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, colInterests)
	}

	get := func(rec map[string]string, want string) string {
		if h, ok := cols.resolve(want); ok {
			return rec[h]
		}
		return ""
	}

	out := make([]domain.Customer, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for n, rec := range rows {
		c := domain.Customer{
			Name:            rec[nameKey],
			Gender:          get(rec, colGender),
			Location:        get(rec, colLocation),
			Interests:       parseList(get(rec, colInterests)),
			BrowsingHistory: parseList(get(rec, colBrowsingHistory)),
			PurchaseHistory: parseList(get(rec, colPurchaseHistory)),
		}
		// Customers without an id column are addressed by name.
		c.ID = c.Name
		if hasID {
			c.ID = rec[idKey]
		}
		if c.ID == "" {
			return nil, fmt.Errorf("customer record %d: empty id", n+1)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("customer record %d: duplicate id %q", n+1, c.ID)
		}
		seen[c.ID] = true

		if raw := get(rec, colAge); raw != "" {
			age, err := strconv.ParseFloat(raw, 64)
			if err != nil || age < 0 || math.IsNaN(age) {
				return nil, fmt.Errorf("customer record %d: invalid age %q", n+1, raw)
			}
			c.Age = int(age)
		}
		out = append(out, c)
	}
	return out, nil
}

func parseProducts(rows []map[string]string) ([]domain.Product, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	cols := newColumns(rows)
	for _, want := range []string{colCategory, colPrice} {
		if _, ok := cols.resolve(want); !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, want)
		}
	}
	_, hasID := cols.resolve(colProductID)
	_, hasName := cols.resolve(colProductName)
	if !hasID && !hasName {
		return nil, fmt.Errorf("%w: %s or %s", ErrMissingColumn, colProductID, colProductName)
	}

	get := func(rec map[string]string, want string) string {
		if h, ok := cols.resolve(want); ok {
			return rec[h]
		}
		return ""
	}

	out := make([]domain.Product, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for n, rec := range rows {
		p := domain.Product{
			ID:          get(rec, colProductID),
			Name:        get(rec, colProductName),
			Category:    get(rec, colCategory),
			Subcategory: get(rec, colSubcategory),
			Description: get(rec, colDescription),
			Brand:       get(rec, colBrand),
			RelatedIDs:  parseList(get(rec, colRelated)),
		}
		if p.ID == "" {
			p.ID = p.Name
		}
		if p.ID == "" {
			return nil, fmt.Errorf("product record %d: empty id", n+1)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("product record %d: duplicate id %q", n+1, p.ID)
		}
		seen[p.ID] = true

		price, err := parseNumber(get(rec, colPrice))
		if err != nil {
			return nil, fmt.Errorf("product record %d: price: %w", n+1, err)
		}
		p.Price = price

		for _, f := range []struct {
			want string
			dst  **float64
		}{
			{colRating, &p.Rating},
			{colSentiment, &p.Sentiment},
			{colProbability, &p.Probability},
		} {
			raw := get(rec, f.want)
			if raw == "" {
				continue
			}
			v, err := parseNumber(raw)
			if err != nil {
				return nil, fmt.Errorf("product record %d: %s: %w", n+1, f.want, err)
			}
			*f.dst = &v
		}

		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("product record %d: %w", n+1, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// parseNumber accepts plain numbers and a leading currency sign.
func parseNumber(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, errors.New("empty value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	return v, nil
}

// parseList splits "a|b", "a, b" and Python-style "['a', 'b']" cells.
func parseList(raw string) []string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = s[1 : len(s)-1]
	}

	sep := ","
	if strings.Contains(s, "|") {
		sep = "|"
	}

	var out []string
	for _, part := range strings.Split(s, sep) {
		part = strings.Trim(strings.TrimSpace(part), `'"`)
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

const customerColumns = `id, name, age, gender, location, interests, browsing_history, purchase_history`

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	c := &domain.Customer{}
	err := row.Scan(&c.ID, &c.Name, &c.Age, &c.Gender, &c.Location,
		&c.Interests, &c.BrowsingHistory, &c.PurchaseHistory)
	return c, err
}

// GetCustomerByID matches on id first and falls back to an exact name.
func (r *Repository) GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+`
		 FROM customers
		 WHERE id = $1 OR name = $1
		 ORDER BY (id = $1) DESC, position
		 LIMIT 1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("query customer id=%s: %w", id, err)
	}
	return c, nil
}

func (r *Repository) ListCustomers(ctx context.Context, offset, limit int) ([]domain.Customer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+customerColumns+` FROM customers ORDER BY position LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query customers at offset %d: %w", offset, err)
	}
	defer rows.Close()

	customers := []domain.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return customers, nil
}

func (r *Repository) CountCustomers(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return total, nil
}

// UpsertCustomers writes customers in one batch; their slice order becomes
// their listing order.
func (r *Repository) UpsertCustomers(ctx context.Context, customers []domain.Customer) error {
	batch := &pgx.Batch{}
	for i, c := range customers {
		batch.Queue(
			`INSERT INTO customers (id, name, age, gender, location, interests, browsing_history, purchase_history, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (id) DO UPDATE SET
			   name = EXCLUDED.name,
			   age = EXCLUDED.age,
			   gender = EXCLUDED.gender,
			   location = EXCLUDED.location,
			   interests = EXCLUDED.interests,
			   browsing_history = EXCLUDED.browsing_history,
			   purchase_history = EXCLUDED.purchase_history,
			   position = EXCLUDED.position`,
			c.ID, c.Name, c.Age, c.Gender, c.Location,
			nonNil(c.Interests), nonNil(c.BrowsingHistory), nonNil(c.PurchaseHistory), i,
		)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert %d customers: %w", len(customers), err)
	}
	r.logger.Info().Int("count", len(customers)).Msg("customers upserted")
	return nil
}

// nonNil keeps NOT NULL array columns satisfied.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

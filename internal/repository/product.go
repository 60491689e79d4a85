package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

// ListProducts returns the whole catalog in catalog order.
func (r *Repository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, category, subcategory, price, description, brand,
		        rating, sentiment, probability, related_ids
		 FROM products
		 ORDER BY position`,
	)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Subcategory, &p.Price, &p.Description, &p.Brand,
			&p.Rating, &p.Sentiment, &p.Probability, &p.RelatedIDs)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate over products: %w", err)
	}
	return products, nil
}

func (r *Repository) UpsertProducts(ctx context.Context, products []domain.Product) error {
	batch := &pgx.Batch{}
	for i, p := range products {
		batch.Queue(
			`INSERT INTO products (id, name, category, subcategory, price, description, brand,
			                       rating, sentiment, probability, related_ids, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			 ON CONFLICT (id) DO UPDATE SET
			   name = EXCLUDED.name,
			   category = EXCLUDED.category,
			   subcategory = EXCLUDED.subcategory,
			   price = EXCLUDED.price,
			   description = EXCLUDED.description,
			   brand = EXCLUDED.brand,
			   rating = EXCLUDED.rating,
			   sentiment = EXCLUDED.sentiment,
			   probability = EXCLUDED.probability,
			   related_ids = EXCLUDED.related_ids,
			   position = EXCLUDED.position`,
			p.ID, p.Name, p.Category, p.Subcategory, p.Price, p.Description, p.Brand,
			p.Rating, p.Sentiment, p.Probability, nonNil(p.RelatedIDs), i,
		)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert %d products: %w", len(products), err)
	}
	r.logger.Info().Int("count", len(products)).Msg("products upserted")
	return nil
}

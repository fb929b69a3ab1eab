package postgres

import (
	"context"
	"errors"
	"fmt"

	"marketplace-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepo implements ports.ProductRepository.
type ProductRepo struct {
	pool Pool
}

// NewProductRepo creates a new ProductRepo.
func NewProductRepo(pool Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

// GetByID fetches a product by id. Returns nil, nil when not found.
func (r *ProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT id, shop_id, name, price, stock, created_at, updated_at
		FROM products WHERE id = $1`

	p := &domain.Product{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.ShopID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return p, nil
}

// Restock returns reserved quantity to stock when an order is cancelled.
// Happens inside the cancellation transaction.
func (r *ProductRepo) Restock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) error {
	query := `UPDATE products SET stock = stock + $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, quantity, productID)
	if err != nil {
		return fmt.Errorf("restock product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product not found: %s", productID)
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"marketplace-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ShopRepo implements ports.ShopRepository.
type ShopRepo struct {
	pool Pool
}

// NewShopRepo creates a new ShopRepo.
func NewShopRepo(pool Pool) *ShopRepo {
	return &ShopRepo{pool: pool}
}

const shopColumns = `id, owner_id, name, revenue, created_at, updated_at`

func scanShop(row pgx.Row) (*domain.Shop, error) {
	s := &domain.Shop{}
	err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &s.Revenue, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a shop within a transaction, paired with its wallet so the
// two appear together or not at all.
func (r *ShopRepo) Create(ctx context.Context, tx pgx.Tx, shop *domain.Shop) error {
	query := `INSERT INTO shops (id, owner_id, name, revenue, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query,
		shop.ID, shop.OwnerID, shop.Name, shop.Revenue,
		shop.CreatedAt, shop.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create shop: %w", err)
	}
	return nil
}

// GetByID fetches a shop by id. Returns nil, nil when not found.
func (r *ShopRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Shop, error) {
	query := `SELECT ` + shopColumns + ` FROM shops WHERE id = $1`

	s, err := scanShop(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get shop by id: %w", err)
	}
	return s, nil
}

// GetByOwnerID fetches the shop owned by the given user.
func (r *ShopRepo) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.Shop, error) {
	query := `SELECT ` + shopColumns + ` FROM shops WHERE owner_id = $1`

	s, err := scanShop(r.pool.QueryRow(ctx, query, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get shop by owner: %w", err)
	}
	return s, nil
}

// AddRevenue bumps the delivered-revenue metric inside the same transaction
// as the wallet credit.
func (r *ShopRepo) AddRevenue(ctx context.Context, tx pgx.Tx, shopID uuid.UUID, amount int64) error {
	query := `UPDATE shops SET revenue = revenue + $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, amount, shopID)
	if err != nil {
		return fmt.Errorf("add shop revenue: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("shop not found: %s", shopID)
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"marketplace-wallet/internal/core/domain"
	"marketplace-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

const walletColumns = `id, shop_id, available_balance, locked_balance, currency, version, created_at, updated_at`

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := row.Scan(
		&w.ID, &w.ShopID, &w.Available, &w.Locked,
		&w.Currency, &w.Version, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Create inserts a zeroed wallet row for a new shop within a transaction.
func (r *WalletRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, shop_id, available_balance, locked_balance, currency, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := tx.Exec(ctx, query,
		w.ID, w.ShopID, w.Available, w.Locked,
		w.Currency, w.Version, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByShopID fetches a shop's wallet (non-locking read).
func (r *WalletRepo) GetByShopID(ctx context.Context, shopID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE shop_id = $1`

	w, err := scanWallet(r.pool.QueryRow(ctx, query, shopID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet by shop id: %w", err)
	}
	return w, nil
}

// GetByShopIDForUpdate fetches a shop's wallet with a row lock. The lock
// serializes every mutation on this shop's wallet; wallets of other shops
// are untouched. MUST be called within a transaction.
func (r *WalletRepo) GetByShopIDForUpdate(ctx context.Context, tx pgx.Tx, shopID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE shop_id = $1 FOR UPDATE`

	w, err := scanWallet(tx.QueryRow(ctx, query, shopID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet for update: %w", err)
	}
	return w, nil
}

// UpdateBalances persists both balances within a transaction, guarded by the
// version the wallet was read at. Zero rows affected means the row changed
// underneath us and the write is reported as stale.
func (r *WalletRepo) UpdateBalances(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	query := `UPDATE wallets
		SET available_balance = $1, locked_balance = $2, version = version + 1, updated_at = NOW()
		WHERE shop_id = $3 AND version = $4`

	tag, err := tx.Exec(ctx, query, w.Available, w.Locked, w.ShopID, w.Version)
	if err != nil {
		return fmt.Errorf("update wallet balances: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.ErrStaleWrite()
	}
	w.Version++
	return nil
}

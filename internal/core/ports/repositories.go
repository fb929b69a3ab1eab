package ports

import (
	"context"

	"marketplace-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// ShopRepository defines persistence operations for shops.
type ShopRepository interface {
	Create(ctx context.Context, tx pgx.Tx, shop *domain.Shop) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Shop, error)
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.Shop, error)
	// AddRevenue bumps the shop's delivered-revenue metric within a transaction.
	AddRevenue(ctx context.Context, tx pgx.Tx, shopID uuid.UUID, amount int64) error
}

// WalletRepository defines persistence operations for shop wallets.
// Methods accepting pgx.Tx are used inside transaction blocks; GetByShopIDForUpdate
// takes the row lock that serializes all mutations on one shop's wallet.
type WalletRepository interface {
	Create(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
	GetByShopID(ctx context.Context, shopID uuid.UUID) (*domain.Wallet, error)
	GetByShopIDForUpdate(ctx context.Context, tx pgx.Tx, shopID uuid.UUID) (*domain.Wallet, error)
	// UpdateBalances persists both balances guarded by the wallet's version;
	// a version mismatch reports a stale write instead of silently clobbering.
	UpdateBalances(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error
}

// WithdrawalRepository defines persistence operations for withdrawal requests.
type WithdrawalRepository interface {
	Create(ctx context.Context, tx pgx.Tx, req *domain.WithdrawalRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.WithdrawalRequest, error)
	// Resolve stamps status + resolution, guarded on the row still being PENDING.
	// Returns false if the guard failed (already processed).
	Resolve(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.WithdrawalStatus, res domain.Resolution) (bool, error)
	List(ctx context.Context, params WithdrawalListParams) ([]domain.WithdrawalRequest, int64, error)
}

// WithdrawalListParams holds filter + pagination for listing withdrawal requests.
type WithdrawalListParams struct {
	ShopID   *uuid.UUID // nil = all shops (admin)
	Status   *domain.WithdrawalStatus
	Page     int
	PageSize int
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Order, error)
	GetByPaymentRef(ctx context.Context, ref string) (*domain.Order, error)
	ListItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]domain.OrderItem, error)
	// UpdateStatus is guarded on the current status so a concurrent transition
	// cannot be overwritten. Returns false when the guard failed.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to domain.OrderStatus) (bool, error)
	UpdatePayment(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.PaymentStatus, rawStatus string) error
	SetPaymentRef(ctx context.Context, tx pgx.Tx, id uuid.UUID, ref string) error
	AppendStatusHistory(ctx context.Context, tx pgx.Tx, change *domain.StatusChange) error
}

// ProductRepository defines the inventory operations the fulfillment
// trigger needs.
type ProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	// Restock returns reserved quantity to stock within a transaction.
	Restock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) error
}

// PaymentEventRepository persists every processor callback verbatim.
type PaymentEventRepository interface {
	Create(ctx context.Context, event *domain.PaymentEvent) error
	ListByTransactionID(ctx context.Context, transactionID string) ([]domain.PaymentEvent, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"marketplace-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderRepo implements ports.OrderRepository.
type OrderRepo struct {
	pool Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(pool Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

const orderColumns = `id, shop_id, buyer_id, status, payment_status, payment_ref,
	gateway_raw_status, subtotal, total, currency, created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	o := &domain.Order{}
	err := row.Scan(
		&o.ID, &o.ShopID, &o.BuyerID, &o.Status, &o.Payment, &o.PaymentRef,
		&o.GatewayRaw, &o.Subtotal, &o.Total, &o.Currency, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// GetByID fetches an order (non-locking read).
func (r *OrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order by id: %w", err)
	}
	return o, nil
}

// GetByIDForUpdate fetches an order with a row lock. MUST be called within
// a transaction.
func (r *OrderRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	o, err := scanOrder(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order for update: %w", err)
	}
	return o, nil
}

// GetByPaymentRef fetches an order by the processor's transaction id.
func (r *OrderRepo) GetByPaymentRef(ctx context.Context, ref string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE payment_ref = $1`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, ref))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order by payment ref: %w", err)
	}
	return o, nil
}

// ListItems returns the order's line items within a transaction.
func (r *OrderRepo) ListItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]domain.OrderItem, error) {
	query := `SELECT id, order_id, product_id, quantity, unit_price
		FROM order_items WHERE order_id = $1`

	rows, err := tx.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return items, nil
}

// UpdateStatus moves the order from -> to, guarded on the current status so
// concurrent transitions cannot clobber each other. Returns false when the
// guard failed.
func (r *OrderRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to domain.OrderStatus) (bool, error) {
	query := `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`

	tag, err := tx.Exec(ctx, query, to, id, from)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdatePayment records the reconciled payment status and the raw status
// string the processor reported.
func (r *OrderRepo) UpdatePayment(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.PaymentStatus, rawStatus string) error {
	query := `UPDATE orders SET payment_status = $1, gateway_raw_status = $2, updated_at = NOW() WHERE id = $3`

	tag, err := tx.Exec(ctx, query, status, rawStatus, id)
	if err != nil {
		return fmt.Errorf("update order payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order not found: %s", id)
	}
	return nil
}

// SetPaymentRef stores the processor's reference id after payment submission.
// It runs inside the transaction holding the order's row lock and refuses to
// overwrite a reference that is already set.
func (r *OrderRepo) SetPaymentRef(ctx context.Context, tx pgx.Tx, id uuid.UUID, ref string) error {
	query := `UPDATE orders SET payment_ref = $1, updated_at = NOW() WHERE id = $2 AND payment_ref IS NULL`

	tag, err := tx.Exec(ctx, query, ref, id)
	if err != nil {
		return fmt.Errorf("set payment ref: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment ref already set for order %s", id)
	}
	return nil
}

// AppendStatusHistory inserts an immutable history entry. Rows are never
// updated or deleted.
func (r *OrderRepo) AppendStatusHistory(ctx context.Context, tx pgx.Tx, change *domain.StatusChange) error {
	query := `INSERT INTO order_status_history (id, order_id, from_status, to_status, actor_id, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query,
		change.ID, change.OrderID, change.FromStatus, change.ToStatus,
		change.ActorID, change.ChangedAt,
	)
	if err != nil {
		return fmt.Errorf("append status history: %w", err)
	}
	return nil
}

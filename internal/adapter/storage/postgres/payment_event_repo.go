package postgres

import (
	"context"
	"fmt"

	"marketplace-wallet/internal/core/domain"
)

// PaymentEventRepo implements ports.PaymentEventRepository. The table is an
// append-only audit log of processor callbacks.
type PaymentEventRepo struct {
	pool Pool
}

// NewPaymentEventRepo creates a new PaymentEventRepo.
func NewPaymentEventRepo(pool Pool) *PaymentEventRepo {
	return &PaymentEventRepo{pool: pool}
}

// Create appends a callback record, recognized or not.
func (r *PaymentEventRepo) Create(ctx context.Context, event *domain.PaymentEvent) error {
	query := `INSERT INTO payment_events (id, transaction_id, order_id, raw_status, raw_payload, applied, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		event.ID, event.TransactionID, event.OrderID, event.RawStatus,
		event.RawPayload, event.Applied, event.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("create payment event: %w", err)
	}
	return nil
}

// ListByTransactionID returns all callbacks recorded for one processor
// transaction, oldest first.
func (r *PaymentEventRepo) ListByTransactionID(ctx context.Context, transactionID string) ([]domain.PaymentEvent, error) {
	query := `SELECT id, transaction_id, order_id, raw_status, raw_payload, applied, received_at
		FROM payment_events WHERE transaction_id = $1 ORDER BY received_at ASC`

	rows, err := r.pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list payment events: %w", err)
	}
	defer rows.Close()

	var events []domain.PaymentEvent
	for rows.Next() {
		var e domain.PaymentEvent
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.OrderID, &e.RawStatus, &e.RawPayload, &e.Applied, &e.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan payment event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment events: %w", err)
	}
	return events, nil
}

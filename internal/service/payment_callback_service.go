package service

import (
	"context"
	"fmt"
	"time"

	"marketplace-wallet/internal/core/domain"
	"marketplace-wallet/internal/core/ports"
	"marketplace-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	callbackTTL   = 48 * time.Hour
	verifyTimeout = 3 * time.Second
)

// PaymentCallbackServiceImpl implements ports.PaymentCallbackService. Every
// callback is recorded verbatim in the payment_events log; only the first
// recognized terminal status per transaction changes order state. Unmatched
// and duplicate callbacks are accepted no-ops so the processor stops
// retrying.
type PaymentCallbackServiceImpl struct {
	deps       fulfillmentDeps
	eventRepo  ports.PaymentEventRepository
	cache      ports.CallbackCache
	processor  ports.PaymentProcessor
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewPaymentCallbackService creates a new PaymentCallbackServiceImpl.
func NewPaymentCallbackService(
	orderRepo ports.OrderRepository,
	productRepo ports.ProductRepository,
	walletRepo ports.WalletRepository,
	shopRepo ports.ShopRepository,
	eventRepo ports.PaymentEventRepository,
	cache ports.CallbackCache,
	processor ports.PaymentProcessor,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *PaymentCallbackServiceImpl {
	return &PaymentCallbackServiceImpl{
		deps: fulfillmentDeps{
			orderRepo:   orderRepo,
			productRepo: productRepo,
			walletRepo:  walletRepo,
			shopRepo:    shopRepo,
		},
		eventRepo:  eventRepo,
		cache:      cache,
		processor:  processor,
		transactor: transactor,
		log:        log,
	}
}

// HandleCallback reconciles one processor notification.
func (s *PaymentCallbackServiceImpl) HandleCallback(ctx context.Context, n ports.PaymentNotification) error {
	// Layer 1: Redis dedup check (fast path; the order row stays the
	// source of truth).
	seen, err := s.cache.Seen(ctx, n.TransactionID, n.Status)
	if err != nil {
		s.log.Warn().Err(err).Str("transaction_id", n.TransactionID).Msg("callback cache check failed, falling through to DB")
	}
	if seen {
		s.record(ctx, n, nil, false)
		return nil
	}

	order, err := s.deps.orderRepo.GetByPaymentRef(ctx, n.TransactionID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("find order by ref: %w", err))
	}
	if order == nil {
		// Unmatched reference: log it and acknowledge so the processor
		// stops retrying.
		s.log.Warn().Str("transaction_id", n.TransactionID).Msg("callback for unknown transaction")
		s.record(ctx, n, nil, false)
		return nil
	}

	mapped, recognized := domain.MapGatewayStatus(n.Status)
	applied, err := s.reconcile(ctx, order, n, mapped, recognized)
	if err != nil {
		return err
	}

	s.record(ctx, n, &order.ID, applied)

	if applied {
		s.verify(ctx, n)
	}

	// Best-effort: a lost mark only means the next duplicate takes the
	// DB path.
	if err := s.cache.Mark(ctx, n.TransactionID, n.Status, callbackTTL); err != nil {
		s.log.Warn().Err(err).Str("transaction_id", n.TransactionID).Msg("callback cache mark failed")
	}
	return nil
}

// reconcile applies the notification to the order under a row lock.
// Returns whether any state actually changed.
func (s *PaymentCallbackServiceImpl) reconcile(ctx context.Context, order *domain.Order, n ports.PaymentNotification, mapped domain.PaymentStatus, recognized bool) (bool, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return false, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	locked, err := s.deps.orderRepo.GetByIDForUpdate(ctx, dbTx, order.ID)
	if err != nil {
		return false, apperror.ErrDatabaseError(fmt.Errorf("lock order: %w", err))
	}
	if locked == nil {
		return false, apperror.ErrNotFound("order")
	}

	if !recognized {
		// Store the raw status on the order for operators; payment and
		// fulfillment state stay put.
		s.log.Warn().
			Str("transaction_id", n.TransactionID).
			Str("raw_status", n.Status).
			Msg("unrecognized processor status")
		if err := s.deps.orderRepo.UpdatePayment(ctx, dbTx, locked.ID, locked.Payment, n.Status); err != nil {
			return false, apperror.ErrDatabaseError(fmt.Errorf("store raw status: %w", err))
		}
		if err := dbTx.Commit(ctx); err != nil {
			return false, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
		}
		return false, nil
	}

	if locked.Payment == mapped {
		// Duplicate terminal notification.
		return false, nil
	}

	if err := s.deps.orderRepo.UpdatePayment(ctx, dbTx, locked.ID, mapped, n.Status); err != nil {
		return false, apperror.ErrDatabaseError(fmt.Errorf("update payment: %w", err))
	}

	// Move fulfillment only off the awaiting-payment state; a later
	// callback cannot rewind an order that already progressed.
	if locked.Status == domain.OrderStatusPendingPayment {
		target := domain.OrderStatusPending
		if mapped == domain.PaymentStatusFailed {
			target = domain.OrderStatusCancelled
		}
		if err := applyOrderTransition(ctx, dbTx, s.deps, locked, target, uuid.Nil); err != nil {
			return false, err
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return false, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("transaction_id", n.TransactionID).
		Str("order_id", locked.ID.String()).
		Str("payment_status", string(mapped)).
		Str("order_status", string(locked.Status)).
		Msg("payment callback reconciled")

	return true, nil
}

// verify cross-checks an applied notification against the processor's own
// view of the transaction. The local write already committed; a mismatch is
// an operator signal, not a rollback.
func (s *PaymentCallbackServiceImpl) verify(ctx context.Context, n ports.PaymentNotification) {
	if s.processor == nil {
		return
	}
	vctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	raw, err := s.processor.CheckStatus(vctx, n.TransactionID)
	if err != nil {
		s.log.Warn().Err(err).Str("transaction_id", n.TransactionID).Msg("callback verification check failed")
		return
	}
	if raw != n.Status {
		s.log.Warn().
			Str("transaction_id", n.TransactionID).
			Str("callback_status", n.Status).
			Str("processor_status", raw).
			Msg("callback status disagrees with processor")
	}
}

// record appends to the payment event log. Best-effort: losing an audit row
// never fails the callback.
func (s *PaymentCallbackServiceImpl) record(ctx context.Context, n ports.PaymentNotification, orderID *uuid.UUID, applied bool) {
	event := &domain.PaymentEvent{
		ID:            uuid.New(),
		TransactionID: n.TransactionID,
		OrderID:       orderID,
		RawStatus:     n.Status,
		RawPayload:    n.RawPayload,
		Applied:       applied,
		ReceivedAt:    time.Now().UTC(),
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("transaction_id", n.TransactionID).Msg("payment event log write failed")
	}
}

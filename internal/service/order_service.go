package service

import (
	"context"
	"fmt"
	"time"

	"marketplace-wallet/internal/core/domain"
	"marketplace-wallet/internal/core/ports"
	"marketplace-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// fulfillmentDeps bundles the repositories a status transition touches. The
// order service and the payment callback service share one transition path
// so side effects (restock, delivery credit) cannot diverge.
type fulfillmentDeps struct {
	orderRepo   ports.OrderRepository
	productRepo ports.ProductRepository
	walletRepo  ports.WalletRepository
	shopRepo    ports.ShopRepository
}

// applyOrderTransition moves order to target inside tx: history row first,
// then the status-guarded update, then side effects. The guard failing means
// a concurrent transition won; callers surface that as an invalid transition
// because the order is no longer in the state they saw.
func applyOrderTransition(ctx context.Context, tx pgx.Tx, d fulfillmentDeps, order *domain.Order, target domain.OrderStatus, actorID uuid.UUID) error {
	if !domain.CanTransition(order.Status, target) {
		return apperror.ErrInvalidTransition(string(order.Status), string(target))
	}

	change := &domain.StatusChange{
		ID:         uuid.New(),
		OrderID:    order.ID,
		FromStatus: order.Status,
		ToStatus:   target,
		ActorID:    actorID,
		ChangedAt:  time.Now().UTC(),
	}
	if err := d.orderRepo.AppendStatusHistory(ctx, tx, change); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("append history: %w", err))
	}

	ok, err := d.orderRepo.UpdateStatus(ctx, tx, order.ID, order.Status, target)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("update status: %w", err))
	}
	if !ok {
		return apperror.ErrInvalidTransition(string(order.Status), string(target))
	}

	switch target {
	case domain.OrderStatusCancelled:
		if err := restockItems(ctx, tx, d, order.ID); err != nil {
			return err
		}
	case domain.OrderStatusDelivered:
		if err := creditDelivery(ctx, tx, d, order); err != nil {
			return err
		}
	}

	order.Status = target
	return nil
}

// restockItems returns every line item's quantity to product stock.
func restockItems(ctx context.Context, tx pgx.Tx, d fulfillmentDeps, orderID uuid.UUID) error {
	items, err := d.orderRepo.ListItems(ctx, tx, orderID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("list items: %w", err))
	}
	for _, it := range items {
		if err := d.productRepo.Restock(ctx, tx, it.ProductID, it.Quantity); err != nil {
			return apperror.ErrDatabaseError(fmt.Errorf("restock product: %w", err))
		}
	}
	return nil
}

// creditDelivery pays the shop for a delivered order: the subtotal (the
// shop's share, excluding shipping and fees) lands in the wallet's available
// balance and the shop's revenue metric moves by the same amount. Reached
// only through the SHIPPED -> DELIVERED edge, so the credit fires once per
// order no matter how often delivery is reported.
func creditDelivery(ctx context.Context, tx pgx.Tx, d fulfillmentDeps, order *domain.Order) error {
	// Fully discounted orders carry a zero subtotal; there is nothing to
	// credit and Credit rejects non-positive amounts.
	if order.Subtotal == 0 {
		return nil
	}
	if _, err := lockAndApplyWallet(ctx, tx, d.walletRepo, order.ShopID, func(w *domain.Wallet) error {
		return w.Credit(order.Subtotal)
	}); err != nil {
		return err
	}
	if err := d.shopRepo.AddRevenue(ctx, tx, order.ShopID, order.Subtotal); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("add revenue: %w", err))
	}
	return nil
}

// OrderServiceImpl implements ports.OrderService.
type OrderServiceImpl struct {
	deps       fulfillmentDeps
	transactor ports.DBTransactor
	processor  ports.PaymentProcessor
	notifier   ports.Notifier
	log        zerolog.Logger
}

// NewOrderService creates a new OrderServiceImpl.
func NewOrderService(
	orderRepo ports.OrderRepository,
	productRepo ports.ProductRepository,
	walletRepo ports.WalletRepository,
	shopRepo ports.ShopRepository,
	transactor ports.DBTransactor,
	processor ports.PaymentProcessor,
	notifier ports.Notifier,
	log zerolog.Logger,
) *OrderServiceImpl {
	return &OrderServiceImpl{
		deps: fulfillmentDeps{
			orderRepo:   orderRepo,
			productRepo: productRepo,
			walletRepo:  walletRepo,
			shopRepo:    shopRepo,
		},
		transactor: transactor,
		processor:  processor,
		notifier:   notifier,
		log:        log,
	}
}

// Transition requests a fulfillment status change. Requesting the status the
// order already has is an idempotent no-op, which makes retried "delivered"
// calls safe: the wallet credit rides the one real SHIPPED -> DELIVERED edge.
func (s *OrderServiceImpl) Transition(ctx context.Context, actor domain.Actor, orderID uuid.UUID, target domain.OrderStatus) (*domain.Order, error) {
	if !domain.ValidOrderStatus(target) {
		return nil, apperror.Validation(fmt.Sprintf("unknown order status: %s", target))
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	order, err := s.deps.orderRepo.GetByIDForUpdate(ctx, dbTx, orderID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock order: %w", err))
	}
	if order == nil {
		return nil, apperror.ErrNotFound("order")
	}

	if err := s.authorizeTransition(ctx, actor, order); err != nil {
		return nil, err
	}

	if order.Status == target {
		return order, nil
	}

	if err := applyOrderTransition(ctx, dbTx, s.deps, order, target, actor.UserID); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("order_id", order.ID.String()).
		Str("status", string(target)).
		Msg("order transitioned")

	// Best-effort: the transition already committed.
	if err := s.notifier.Notify(ctx, order.BuyerID,
		fmt.Sprintf("Your order is now %s", target), order.ID); err != nil {
		s.log.Warn().Err(err).Str("order_id", order.ID.String()).Msg("notify failed")
	}

	return order, nil
}

// authorizeTransition enforces who may drive fulfillment: the owning shop's
// owner or an admin. Buyers never transition orders; a buyer-initiated
// cancellation comes in through the payment-failed callback path instead.
func (s *OrderServiceImpl) authorizeTransition(ctx context.Context, actor domain.Actor, order *domain.Order) error {
	shop, err := s.deps.shopRepo.GetByID(ctx, order.ShopID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("find shop: %w", err))
	}
	if !actor.CanActForShop(shop) {
		return apperror.Forbidden()
	}
	return nil
}

// InitiatePayment submits a PENDING_PAYMENT order to the processor and
// stores the returned reference, which later keys the callback. The order row
// stays locked from the payable check through the reference write, so a
// concurrent initiation for the same order waits and then reuses the stored
// reference instead of submitting twice.
func (s *OrderServiceImpl) InitiatePayment(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*domain.Order, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	order, err := s.deps.orderRepo.GetByIDForUpdate(ctx, dbTx, orderID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get order: %w", err))
	}
	if order == nil {
		return nil, apperror.ErrNotFound("order")
	}
	if order.BuyerID != actor.UserID && !actor.IsAdmin() {
		return nil, apperror.Forbidden()
	}
	if order.PaymentRef != nil {
		// Already submitted; hand back the same reference.
		return order, nil
	}
	if order.Status != domain.OrderStatusPendingPayment || order.Payment != domain.PaymentStatusPending {
		return nil, apperror.ErrOrderNotPayable()
	}

	result, err := s.processor.SubmitPayment(ctx, ports.SubmitPaymentRequest{
		OrderID:  order.ID,
		Amount:   order.Total,
		Currency: order.Currency,
		PayerID:  order.BuyerID,
	})
	if err != nil {
		return nil, apperror.ErrGatewayUnavailable(err)
	}

	if err := s.deps.orderRepo.SetPaymentRef(ctx, dbTx, order.ID, result.ReferenceID); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("set payment ref: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}
	order.PaymentRef = &result.ReferenceID

	s.log.Info().
		Str("order_id", order.ID.String()).
		Str("payment_ref", result.ReferenceID).
		Str("processor_status", result.Status).
		Msg("payment initiated")

	return order, nil
}

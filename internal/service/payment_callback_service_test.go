package service

import (
	"context"
	"testing"

	"marketplace-wallet/internal/core/domain"
	"marketplace-wallet/internal/core/ports"
	"marketplace-wallet/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type callbackTestDeps struct {
	svc         *PaymentCallbackServiceImpl
	orderRepo   *mocks.MockOrderRepository
	productRepo *mocks.MockProductRepository
	walletRepo  *mocks.MockWalletRepository
	shopRepo    *mocks.MockShopRepository
	eventRepo   *mocks.MockPaymentEventRepository
	cache       *mocks.MockCallbackCache
	processor   *mocks.MockPaymentProcessor
	transactor  *mocks.MockDBTransactor
	ctrl        *gomock.Controller
}

func setupCallbackService(t *testing.T) *callbackTestDeps {
	ctrl := gomock.NewController(t)
	d := &callbackTestDeps{
		orderRepo:   mocks.NewMockOrderRepository(ctrl),
		productRepo: mocks.NewMockProductRepository(ctrl),
		walletRepo:  mocks.NewMockWalletRepository(ctrl),
		shopRepo:    mocks.NewMockShopRepository(ctrl),
		eventRepo:   mocks.NewMockPaymentEventRepository(ctrl),
		cache:       mocks.NewMockCallbackCache(ctrl),
		processor:   mocks.NewMockPaymentProcessor(ctrl),
		transactor:  mocks.NewMockDBTransactor(ctrl),
		ctrl:        ctrl,
	}
	d.svc = NewPaymentCallbackService(
		d.orderRepo, d.productRepo, d.walletRepo, d.shopRepo,
		d.eventRepo, d.cache, d.processor, d.transactor, zerolog.Nop(),
	)
	return d
}

func awaitingPaymentOrder(ref string) *domain.Order {
	return &domain.Order{
		ID:         uuid.New(),
		ShopID:     uuid.New(),
		BuyerID:    uuid.New(),
		Status:     domain.OrderStatusPendingPayment,
		Payment:    domain.PaymentStatusPending,
		PaymentRef: &ref,
		Subtotal:   8_000,
		Total:      8_750,
		Currency:   "NGN",
	}
}

func TestCallbackService_Completed_MovesOrderToPending(t *testing.T) {
	d := setupCallbackService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	order := awaitingPaymentOrder("txn-100")
	tx := &mockTx{}
	n := ports.PaymentNotification{TransactionID: "txn-100", Status: "completed", RawPayload: `{"status":"completed"}`}

	d.cache.EXPECT().Seen(ctx, "txn-100", "completed").Return(false, nil)
	d.orderRepo.EXPECT().GetByPaymentRef(ctx, "txn-100").Return(order, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.orderRepo.EXPECT().GetByIDForUpdate(ctx, tx, order.ID).Return(order, nil)
	d.orderRepo.EXPECT().UpdatePayment(ctx, tx, order.ID, domain.PaymentStatusCompleted, "completed").Return(nil)
	d.orderRepo.EXPECT().AppendStatusHistory(ctx, tx, gomock.Any()).Return(nil)
	d.orderRepo.EXPECT().UpdateStatus(ctx, tx, order.ID, domain.OrderStatusPendingPayment, domain.OrderStatusPending).Return(true, nil)
	d.eventRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, e *domain.PaymentEvent) error {
			assert.True(t, e.Applied)
			assert.Equal(t, "txn-100", e.TransactionID)
			return nil
		})
	d.cache.EXPECT().Mark(ctx, "txn-100", "completed", callbackTTL).Return(nil)
	d.processor.EXPECT().CheckStatus(gomock.Any(), "txn-100").Return("completed", nil)

	err := d.svc.HandleCallback(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
}

func TestCallbackService_Failed_CancelsAndRestocks(t *testing.T) {
	d := setupCallbackService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	order := awaitingPaymentOrder("txn-200")
	tx := &mockTx{}
	productID := uuid.New()
	n := ports.PaymentNotification{TransactionID: "txn-200", Status: "failed", RawPayload: `{"status":"failed"}`}

	d.cache.EXPECT().Seen(ctx, "txn-200", "failed").Return(false, nil)
	d.orderRepo.EXPECT().GetByPaymentRef(ctx, "txn-200").Return(order, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.orderRepo.EXPECT().GetByIDForUpdate(ctx, tx, order.ID).Return(order, nil)
	d.orderRepo.EXPECT().UpdatePayment(ctx, tx, order.ID, domain.PaymentStatusFailed, "failed").Return(nil)
	d.orderRepo.EXPECT().AppendStatusHistory(ctx, tx, gomock.Any()).Return(nil)
	d.orderRepo.EXPECT().UpdateStatus(ctx, tx, order.ID, domain.OrderStatusPendingPayment, domain.OrderStatusCancelled).Return(true, nil)
	d.orderRepo.EXPECT().ListItems(ctx, tx, order.ID).Return([]domain.OrderItem{
		{ID: uuid.New(), OrderID: order.ID, ProductID: productID, Quantity: 3, UnitPrice: 2_000},
	}, nil)
	d.productRepo.EXPECT().Restock(ctx, tx, productID, 3).Return(nil)
	d.eventRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	d.cache.EXPECT().Mark(ctx, "txn-200", "failed", callbackTTL).Return(nil)
	d.processor.EXPECT().CheckStatus(gomock.Any(), "txn-200").Return("failed", nil)

	err := d.svc.HandleCallback(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, order.Status)
}

func TestCallbackService_UnknownTransaction_AcceptedNoOp(t *testing.T) {
	d := setupCallbackService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	n := ports.PaymentNotification{TransactionID: "txn-missing", Status: "completed"}

	d.cache.EXPECT().Seen(ctx, "txn-missing", "completed").Return(false, nil)
	d.orderRepo.EXPECT().GetByPaymentRef(ctx, "txn-missing").Return(nil, nil)
	d.eventRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, e *domain.PaymentEvent) error {
			assert.False(t, e.Applied)
			assert.Nil(t, e.OrderID)
			return nil
		})

	err := d.svc.HandleCallback(ctx, n)
	require.NoError(t, err)
}

func TestCallbackService_DuplicateSeenInCache_NoOp(t *testing.T) {
	d := setupCallbackService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	n := ports.PaymentNotification{TransactionID: "txn-300", Status: "completed"}

	d.cache.EXPECT().Seen(ctx, "txn-300", "completed").Return(true, nil)
	d.eventRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	err := d.svc.HandleCallback(ctx, n)
	require.NoError(t, err)
}

func TestCallbackService_DuplicateTerminalStatus_NoOp(t *testing.T) {
	d := setupCallbackService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	order := awaitingPaymentOrder("txn-400")
	order.Payment = domain.PaymentStatusCompleted
	order.Status = domain.OrderStatusPending
	tx := &mockTx{}
	n := ports.PaymentNotification{TransactionID: "txn-400", Status: "completed"}

	d.cache.EXPECT().Seen(ctx, "txn-400", "completed").Return(false, nil)
	d.orderRepo.EXPECT().GetByPaymentRef(ctx, "txn-400").Return(order, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.orderRepo.EXPECT().GetByIDForUpdate(ctx, tx, order.ID).Return(order, nil)
	d.eventRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, e *domain.PaymentEvent) error {
			assert.False(t, e.Applied)
			return nil
		})
	d.cache.EXPECT().Mark(ctx, "txn-400", "completed", callbackTTL).Return(nil)

	err := d.svc.HandleCallback(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
}

func TestCallbackService_UnrecognizedStatus_StoredVerbatim(t *testing.T) {
	d := setupCallbackService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	order := awaitingPaymentOrder("txn-500")
	tx := &mockTx{}
	n := ports.PaymentNotification{TransactionID: "txn-500", Status: "on_hold", RawPayload: `{"status":"on_hold"}`}

	d.cache.EXPECT().Seen(ctx, "txn-500", "on_hold").Return(false, nil)
	d.orderRepo.EXPECT().GetByPaymentRef(ctx, "txn-500").Return(order, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.orderRepo.EXPECT().GetByIDForUpdate(ctx, tx, order.ID).Return(order, nil)
	// Raw status recorded; payment status unchanged, no fulfillment move.
	d.orderRepo.EXPECT().UpdatePayment(ctx, tx, order.ID, domain.PaymentStatusPending, "on_hold").Return(nil)
	d.eventRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, e *domain.PaymentEvent) error {
			assert.False(t, e.Applied)
			assert.Equal(t, "on_hold", e.RawStatus)
			return nil
		})
	d.cache.EXPECT().Mark(ctx, "txn-500", "on_hold", callbackTTL).Return(nil)

	err := d.svc.HandleCallback(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPendingPayment, order.Status)
}

func TestCallbackService_VerificationMismatch_DoesNotFail(t *testing.T) {
	d := setupCallbackService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	order := awaitingPaymentOrder("txn-700")
	tx := &mockTx{}
	n := ports.PaymentNotification{TransactionID: "txn-700", Status: "completed", RawPayload: `{"status":"completed"}`}

	d.cache.EXPECT().Seen(ctx, "txn-700", "completed").Return(false, nil)
	d.orderRepo.EXPECT().GetByPaymentRef(ctx, "txn-700").Return(order, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.orderRepo.EXPECT().GetByIDForUpdate(ctx, tx, order.ID).Return(order, nil)
	d.orderRepo.EXPECT().UpdatePayment(ctx, tx, order.ID, domain.PaymentStatusCompleted, "completed").Return(nil)
	d.orderRepo.EXPECT().AppendStatusHistory(ctx, tx, gomock.Any()).Return(nil)
	d.orderRepo.EXPECT().UpdateStatus(ctx, tx, order.ID, domain.OrderStatusPendingPayment, domain.OrderStatusPending).Return(true, nil)
	d.eventRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	d.cache.EXPECT().Mark(ctx, "txn-700", "completed", callbackTTL).Return(nil)
	// Processor disagrees; the committed write stands.
	d.processor.EXPECT().CheckStatus(gomock.Any(), "txn-700").Return("pending", nil)

	err := d.svc.HandleCallback(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
}

func TestCallbackService_CacheFailure_FallsThroughToDB(t *testing.T) {
	d := setupCallbackService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	order := awaitingPaymentOrder("txn-600")
	order.Payment = domain.PaymentStatusCompleted
	tx := &mockTx{}
	n := ports.PaymentNotification{TransactionID: "txn-600", Status: "completed"}

	d.cache.EXPECT().Seen(ctx, "txn-600", "completed").Return(false, assert.AnError)
	d.orderRepo.EXPECT().GetByPaymentRef(ctx, "txn-600").Return(order, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.orderRepo.EXPECT().GetByIDForUpdate(ctx, tx, order.ID).Return(order, nil)
	d.eventRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	d.cache.EXPECT().Mark(ctx, "txn-600", "completed", callbackTTL).Return(nil)

	err := d.svc.HandleCallback(ctx, n)
	require.NoError(t, err)
}

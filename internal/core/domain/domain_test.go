package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWallet_CreditReserveRoundTrip(t *testing.T) {
	w := NewWallet(uuid.New(), "NGN")

	require.NoError(t, w.Credit(50000))
	assert.Equal(t, int64(50000), w.Available)
	assert.Equal(t, int64(0), w.Locked)

	require.NoError(t, w.Reserve(10000))
	assert.Equal(t, int64(40000), w.Available)
	assert.Equal(t, int64(10000), w.Locked)
	assert.Equal(t, int64(50000), w.Total())

	require.NoError(t, w.Release(10000))
	assert.Equal(t, int64(50000), w.Available)
	assert.Equal(t, int64(0), w.Locked)
}

func TestWallet_ReserveThenBurn(t *testing.T) {
	w := NewWallet(uuid.New(), "NGN")
	require.NoError(t, w.Credit(50000))
	require.NoError(t, w.Reserve(10000))

	require.NoError(t, w.Burn(10000))
	assert.Equal(t, int64(40000), w.Available)
	assert.Equal(t, int64(0), w.Locked)
	assert.Equal(t, int64(40000), w.Total())
}

func TestWallet_ReserveInsufficientFunds(t *testing.T) {
	w := NewWallet(uuid.New(), "NGN")
	require.NoError(t, w.Credit(100))

	err := w.Reserve(101)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	// Failed reserve leaves the wallet untouched.
	assert.Equal(t, int64(100), w.Available)
	assert.Equal(t, int64(0), w.Locked)
}

func TestWallet_NonPositiveAmounts(t *testing.T) {
	w := NewWallet(uuid.New(), "NGN")
	require.NoError(t, w.Credit(100))

	for _, amount := range []int64{0, -1} {
		assert.ErrorIs(t, w.Credit(amount), ErrNonPositiveAmount)
		assert.ErrorIs(t, w.Reserve(amount), ErrNonPositiveAmount)
		assert.ErrorIs(t, w.Release(amount), ErrNonPositiveAmount)
		assert.ErrorIs(t, w.Burn(amount), ErrNonPositiveAmount)
	}
	assert.Equal(t, int64(100), w.Available)
}

func TestWallet_ReleaseBurnBelowLocked(t *testing.T) {
	w := NewWallet(uuid.New(), "NGN")
	require.NoError(t, w.Credit(100))
	require.NoError(t, w.Reserve(40))

	assert.ErrorIs(t, w.Release(41), ErrLockedBelowAmount)
	assert.ErrorIs(t, w.Burn(41), ErrLockedBelowAmount)
	assert.Equal(t, int64(60), w.Available)
	assert.Equal(t, int64(40), w.Locked)
}

func TestWallet_BalancesNeverNegative(t *testing.T) {
	w := NewWallet(uuid.New(), "NGN")
	ops := []func() error{
		func() error { return w.Credit(300) },
		func() error { return w.Reserve(200) },
		func() error { return w.Burn(50) },
		func() error { return w.Release(150) },
		func() error { return w.Reserve(500) }, // fails
		func() error { return w.Burn(10) },     // fails, nothing locked enough
		func() error { return w.Reserve(250) },
		func() error { return w.Burn(250) },
	}
	for _, op := range ops {
		_ = op()
		assert.GreaterOrEqual(t, w.Available, int64(0))
		assert.GreaterOrEqual(t, w.Locked, int64(0))
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPendingPayment, OrderStatusPending, true},
		{OrderStatusPendingPayment, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusShipped, false}, // skips processing
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, true},
		{OrderStatusDelivered, OrderStatusCancelled, false}, // terminal
		{OrderStatusCancelled, OrderStatusPending, false},   // terminal
		{OrderStatusDelivered, OrderStatusDelivered, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestPayoutDestination_Valid(t *testing.T) {
	bank := PayoutDestination{
		Method: PayoutMethodBank,
		Bank:   &BankDestination{AccountName: "A", AccountNumber: "1", BankName: "B"},
	}
	assert.True(t, bank.Valid())

	bank.Bank.AccountNumber = ""
	assert.False(t, bank.Valid())

	momo := PayoutDestination{
		Method:      PayoutMethodMobileMoney,
		MobileMoney: &MobileMoneyDestination{PhoneNumber: "070", Provider: "MTN", AccountName: "A"},
	}
	assert.True(t, momo.Valid())

	momo.MobileMoney = nil
	assert.False(t, momo.Valid())

	assert.False(t, PayoutDestination{Method: "CASH"}.Valid())
}

func TestWithdrawalRequest_IsTerminal(t *testing.T) {
	r := &WithdrawalRequest{Status: WithdrawalStatusPending}
	assert.False(t, r.IsTerminal())
	r.Status = WithdrawalStatusApproved
	assert.True(t, r.IsTerminal())
	r.Status = WithdrawalStatusRejected
	assert.True(t, r.IsTerminal())
}

func TestActor_Capabilities(t *testing.T) {
	owner := uuid.New()
	shop := &Shop{ID: uuid.New(), OwnerID: owner}

	admin := Actor{UserID: uuid.New(), Role: RoleAdmin}
	assert.True(t, admin.CanDecideWithdrawals())
	assert.True(t, admin.CanActForShop(shop))

	shopOwner := Actor{UserID: owner, Role: RoleShopOwner}
	assert.False(t, shopOwner.CanDecideWithdrawals())
	assert.True(t, shopOwner.CanActForShop(shop))

	otherOwner := Actor{UserID: uuid.New(), Role: RoleShopOwner}
	assert.False(t, otherOwner.CanActForShop(shop))

	buyer := Actor{UserID: uuid.New(), Role: RoleBuyer}
	assert.False(t, buyer.CanActForShop(shop))
	assert.False(t, buyer.CanDecideWithdrawals())
}

func TestMapGatewayStatus(t *testing.T) {
	st, ok := MapGatewayStatus("completed")
	require.True(t, ok)
	assert.Equal(t, PaymentStatusCompleted, st)

	st, ok = MapGatewayStatus("failed")
	require.True(t, ok)
	assert.Equal(t, PaymentStatusFailed, st)

	_, ok = MapGatewayStatus("pending")
	assert.False(t, ok)
	_, ok = MapGatewayStatus("SETTLEMENT_WEIRD")
	assert.False(t, ok)
}

package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Wallet ledger errors. Services translate these into API-level errors;
// ErrLockedBelowAmount additionally marks a consistency violation that
// indicates a caller bug, not a user mistake.
var (
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient available balance")
	ErrLockedBelowAmount = errors.New("locked balance below requested amount")
)

// Wallet is a shop's ledger record. Both balances are held in the smallest
// currency unit and must never go negative. Version increases monotonically
// on every mutation and guards optimistic writes.
type Wallet struct {
	ID        uuid.UUID `json:"id"`
	ShopID    uuid.UUID `json:"shop_id"`
	Available int64     `json:"available_balance"`
	Locked    int64     `json:"locked_balance"`
	Currency  string    `json:"currency"`
	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewWallet returns a zeroed wallet for a newly created shop.
func NewWallet(shopID uuid.UUID, currency string) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		ID:        uuid.New(),
		ShopID:    shopID,
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Credit adds funds to the available balance. The only path by which the
// wallet total (available + locked) grows.
func (w *Wallet) Credit(amount int64) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	w.Available += amount
	return nil
}

// Reserve moves funds from available to locked ahead of a withdrawal
// decision. The wallet total is unchanged.
func (w *Wallet) Reserve(amount int64) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	if w.Available < amount {
		return ErrInsufficientFunds
	}
	w.Available -= amount
	w.Locked += amount
	return nil
}

// Release is the inverse of Reserve: locked funds return to available.
// A locked balance below amount means an upstream caller double-released;
// the mutation is refused entirely.
func (w *Wallet) Release(amount int64) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	if w.Locked < amount {
		return ErrLockedBelowAmount
	}
	w.Locked -= amount
	w.Available += amount
	return nil
}

// Burn permanently removes locked funds, representing a payout that left
// the ledger. Same precondition as Release.
func (w *Wallet) Burn(amount int64) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	if w.Locked < amount {
		return ErrLockedBelowAmount
	}
	w.Locked -= amount
	return nil
}

// Total returns available + locked.
func (w *Wallet) Total() int64 {
	return w.Available + w.Locked
}

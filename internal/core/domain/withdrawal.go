package domain

import (
	"time"

	"github.com/google/uuid"
)

// WithdrawalStatus represents the lifecycle state of a withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "PENDING"
	WithdrawalStatusApproved WithdrawalStatus = "APPROVED"
	WithdrawalStatusRejected WithdrawalStatus = "REJECTED"
)

// PayoutMethod selects which payout destination variant is populated.
type PayoutMethod string

const (
	PayoutMethodBank        PayoutMethod = "BANK"
	PayoutMethodMobileMoney PayoutMethod = "MOBILE_MONEY"
)

// BankDestination holds bank payout details.
type BankDestination struct {
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	BankName      string `json:"bank_name"`
}

// MobileMoneyDestination holds mobile money payout details.
type MobileMoneyDestination struct {
	PhoneNumber string `json:"phone_number"`
	Provider    string `json:"provider"`
	AccountName string `json:"account_name"`
}

// PayoutDestination is a tagged variant captured as an immutable snapshot
// when the withdrawal is requested. Exactly one of Bank / MobileMoney is set,
// matching Method.
type PayoutDestination struct {
	Method      PayoutMethod            `json:"method"`
	Bank        *BankDestination        `json:"bank,omitempty"`
	MobileMoney *MobileMoneyDestination `json:"mobile_money,omitempty"`
}

// Valid reports whether the variant's required fields are present.
func (d PayoutDestination) Valid() bool {
	switch d.Method {
	case PayoutMethodBank:
		return d.Bank != nil &&
			d.Bank.AccountName != "" &&
			d.Bank.AccountNumber != "" &&
			d.Bank.BankName != ""
	case PayoutMethodMobileMoney:
		return d.MobileMoney != nil &&
			d.MobileMoney.PhoneNumber != "" &&
			d.MobileMoney.Provider != "" &&
			d.MobileMoney.AccountName != ""
	default:
		return false
	}
}

// Resolution records the admin decision that moved a request out of PENDING.
type Resolution struct {
	ProcessedBy uuid.UUID `json:"processed_by"`
	ProcessedAt time.Time `json:"processed_at"`
	Note        string    `json:"note,omitempty"`
}

// WithdrawalRequest is a shop owner's request to pay out available funds.
// Amount and destination are immutable once created; status transitions
// exactly once, PENDING -> APPROVED or PENDING -> REJECTED.
type WithdrawalRequest struct {
	ID          uuid.UUID         `json:"id"`
	ShopID      uuid.UUID         `json:"shop_id"`
	UserID      uuid.UUID         `json:"user_id"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Status      WithdrawalStatus  `json:"status"`
	Destination PayoutDestination `json:"payout_destination"`
	Resolution  *Resolution       `json:"resolution,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// IsTerminal returns true once the request has been approved or rejected.
func (r *WithdrawalRequest) IsTerminal() bool {
	return r.Status != WithdrawalStatusPending
}

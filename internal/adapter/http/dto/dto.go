package dto

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Role     string `json:"role" binding:"required,oneof=SHOP_OWNER BUYER"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// WalletResponse is the response for wallet queries and ledger mutations.
type WalletResponse struct {
	ShopID    string `json:"shop_id"`
	Available int64  `json:"available_balance"`
	Locked    int64  `json:"locked_balance"`
	Total     int64  `json:"total_balance"`
	Currency  string `json:"currency"`
	UpdatedAt string `json:"updated_at"`
}

// BankDestinationDTO carries bank payout details.
type BankDestinationDTO struct {
	AccountName   string `json:"account_name" binding:"required,min=1,max=100"`
	AccountNumber string `json:"account_number" binding:"required,safe_id,max=34"`
	BankName      string `json:"bank_name" binding:"required,min=1,max=100"`
}

// MobileMoneyDestinationDTO carries mobile money payout details.
type MobileMoneyDestinationDTO struct {
	PhoneNumber string `json:"phone_number" binding:"required,min=6,max=20"`
	Provider    string `json:"provider" binding:"required,min=1,max=50"`
	AccountName string `json:"account_name" binding:"required,min=1,max=100"`
}

// WithdrawalCreateRequest is the request body for a new withdrawal.
// Exactly one destination variant must be present, matching PayoutMethod.
type WithdrawalCreateRequest struct {
	Amount       int64                      `json:"amount" binding:"required,gt=0"`
	PayoutMethod string                     `json:"payout_method" binding:"required,oneof=BANK MOBILE_MONEY"`
	Bank         *BankDestinationDTO        `json:"bank,omitempty"`
	MobileMoney  *MobileMoneyDestinationDTO `json:"mobile_money,omitempty"`
}

// WithdrawalDecisionRequest is the admin's approve/reject body.
type WithdrawalDecisionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=APPROVE REJECT"`
	Note     string `json:"note" binding:"max=500"`
}

// WithdrawalListQuery holds the query parameters for listing withdrawals.
type WithdrawalListQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"limit,default=20" binding:"min=1,max=100"`
}

// WithdrawalResponse is the response body for a withdrawal request.
type WithdrawalResponse struct {
	ID           string                     `json:"id"`
	ShopID       string                     `json:"shop_id"`
	Amount       int64                      `json:"amount"`
	Currency     string                     `json:"currency"`
	Status       string                     `json:"status"`
	PayoutMethod string                     `json:"payout_method"`
	Bank         *BankDestinationDTO        `json:"bank,omitempty"`
	MobileMoney  *MobileMoneyDestinationDTO `json:"mobile_money,omitempty"`
	Note         string                     `json:"note,omitempty"`
	ProcessedAt  *string                    `json:"processed_at,omitempty"`
	CreatedAt    string                     `json:"created_at"`
}

// WithdrawalCreateResponse pairs the created request with the wallet state
// after the reserve.
type WithdrawalCreateResponse struct {
	Withdrawal WithdrawalResponse `json:"withdrawal"`
	Wallet     WalletResponse     `json:"wallet"`
}

// WithdrawalListResponse wraps a paginated withdrawal list.
type WithdrawalListResponse struct {
	Items      []WithdrawalResponse `json:"items"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
}

// OrderTransitionRequest is the request body for a fulfillment transition.
type OrderTransitionRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING_PAYMENT PENDING PROCESSING SHIPPED DELIVERED CANCELLED"`
}

// OrderItemResponse is a single line item on an order.
type OrderItemResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// OrderResponse is the response body for order results.
type OrderResponse struct {
	ID            string              `json:"id"`
	ShopID        string              `json:"shop_id"`
	BuyerID       string              `json:"buyer_id"`
	Status        string              `json:"status"`
	PaymentStatus string              `json:"payment_status"`
	PaymentRef    *string             `json:"payment_ref,omitempty"`
	Subtotal      int64               `json:"subtotal"`
	Total         int64               `json:"total"`
	Currency      string              `json:"currency"`
	Items         []OrderItemResponse `json:"items,omitempty"`
	CreatedAt     string              `json:"created_at"`
	UpdatedAt     string              `json:"updated_at"`
}

// PaymentCallbackRequest is the processor's asynchronous notification body.
// Status is deliberately unconstrained; unrecognized values are stored, not
// rejected.
type PaymentCallbackRequest struct {
	TransactionID string `json:"transaction_id" binding:"required,safe_id,max=100"`
	Status        string `json:"status" binding:"required,max=50"`
	Amount        int64  `json:"amount"`
}

package ports

import (
	"context"
	"time"

	"marketplace-wallet/internal/core/domain"

	"github.com/google/uuid"
)

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID, role domain.Role) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
	Role   domain.Role
}

// SignatureService handles HMAC-SHA256 signing and verification of
// processor-bound requests and incoming callbacks.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
}

// CallbackCache is the Redis-layer dedup check for processor callbacks
// (fast path; the order row remains the source of truth).
type CallbackCache interface {
	Seen(ctx context.Context, transactionID, status string) (bool, error)
	Mark(ctx context.Context, transactionID, status string, ttl time.Duration) error
}

// Notifier dispatches user-facing notifications. Fire-and-forget: failures
// are logged by implementations and never propagated into business state.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, message string, relatedID uuid.UUID) error
}

// PaymentProcessor is the opaque external payment gateway.
type PaymentProcessor interface {
	SubmitPayment(ctx context.Context, req SubmitPaymentRequest) (*SubmitPaymentResult, error)
	CheckStatus(ctx context.Context, referenceID string) (string, error)
}

// SubmitPaymentRequest holds the fields the processor needs to start a payment.
type SubmitPaymentRequest struct {
	OrderID  uuid.UUID
	Amount   int64
	Currency string
	PayerID  uuid.UUID
}

// SubmitPaymentResult is the processor's synchronous answer.
type SubmitPaymentResult struct {
	ReferenceID string
	Status      string
}

// --- Service Ports (Business Logic) ---

// WalletService exposes the four primitive ledger mutations plus reads.
// Each mutation is one atomic unit of work on one shop's wallet.
type WalletService interface {
	Get(ctx context.Context, actor domain.Actor) (*domain.Wallet, error)
	Credit(ctx context.Context, shopID uuid.UUID, amount int64) (*domain.Wallet, error)
	Reserve(ctx context.Context, shopID uuid.UUID, amount int64) (*domain.Wallet, error)
	Release(ctx context.Context, shopID uuid.UUID, amount int64) (*domain.Wallet, error)
	Burn(ctx context.Context, shopID uuid.UUID, amount int64) (*domain.Wallet, error)
}

// WithdrawalService governs the withdrawal request lifecycle.
type WithdrawalService interface {
	Request(ctx context.Context, actor domain.Actor, req WithdrawalCreateRequest) (*WithdrawalResult, error)
	Decide(ctx context.Context, actor domain.Actor, req WithdrawalDecision) (*domain.WithdrawalRequest, error)
	List(ctx context.Context, actor domain.Actor, params WithdrawalListParams) ([]domain.WithdrawalRequest, int64, error)
}

// WithdrawalCreateRequest holds validated input for a new withdrawal.
type WithdrawalCreateRequest struct {
	Amount      int64
	Destination domain.PayoutDestination
}

// WithdrawalResult returns the created request with the wallet after reserve.
type WithdrawalResult struct {
	Withdrawal *domain.WithdrawalRequest
	Wallet     *domain.Wallet
}

// WithdrawalDecision holds an admin's approve/reject call.
type WithdrawalDecision struct {
	WithdrawalID uuid.UUID
	Approve      bool
	Note         string
}

// OrderService drives the fulfillment state machine and its side effects.
type OrderService interface {
	Transition(ctx context.Context, actor domain.Actor, orderID uuid.UUID, target domain.OrderStatus) (*domain.Order, error)
	InitiatePayment(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*domain.Order, error)
}

// PaymentCallbackService reconciles asynchronous processor notifications.
type PaymentCallbackService interface {
	HandleCallback(ctx context.Context, n PaymentNotification) error
}

// PaymentNotification is the decoded processor callback.
type PaymentNotification struct {
	TransactionID string
	Status        string
	RawAmount     int64
	RawPayload    string
}

// AuthService defines authentication business logic.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, time.Time, error) // token, expiry, error
}

// RegisterRequest holds input for user registration.
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
	Role     domain.Role
}

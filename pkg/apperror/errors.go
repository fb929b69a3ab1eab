package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New("VAL_002", "Amount must be greater than zero", http.StatusBadRequest)
}

func ErrInvalidDestination() *AppError {
	return New("VAL_003", "Payout destination is missing required fields", http.StatusBadRequest)
}

// ---- Authentication & Authorization (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_002", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrEmailExists() *AppError {
	return New("AUTH_003", "Email already registered", http.StatusConflict)
}

// Forbidden is returned when the caller's role or ownership does not allow
// the operation. The message never reveals whether a referenced id exists.
func Forbidden() *AppError {
	return New("AUTH_004", "You are not allowed to perform this action", http.StatusForbidden)
}

func ErrInvalidSignature() *AppError {
	return New("AUTH_005", "Invalid request signature", http.StatusUnauthorized)
}

// ---- Not Found (NF) ----

func ErrNotFound(entity string) *AppError {
	return New("NF_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Business State Conflicts (WAL / WDR / ORD) ----

func ErrInsufficientFunds() *AppError {
	return New("WAL_001", "Insufficient available balance", http.StatusUnprocessableEntity)
}

func ErrAlreadyProcessed() *AppError {
	return New("WDR_001", "Withdrawal request has already been processed", http.StatusConflict)
}

func ErrInvalidTransition(from, to string) *AppError {
	return New("ORD_001", fmt.Sprintf("Order cannot move from %s to %s", from, to), http.StatusConflict)
}

func ErrOrderNotPayable() *AppError {
	return New("ORD_002", "Order is not awaiting payment", http.StatusConflict)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// ErrStaleWrite signals that persisted state changed between read and write.
// Retryable by the caller.
func ErrStaleWrite() *AppError {
	return New("SYS_002", "Record was modified concurrently, please retry", http.StatusConflict)
}

// ErrInvariantViolation marks a ledger consistency violation caused by an
// upstream bug. The operation aborts without mutating anything.
func ErrInvariantViolation(err error) *AppError {
	return Wrap("SYS_003", "Ledger consistency violation", http.StatusInternalServerError, err)
}

func ErrGatewayUnavailable(err error) *AppError {
	return Wrap("SYS_004", "Payment processor unavailable", http.StatusBadGateway, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

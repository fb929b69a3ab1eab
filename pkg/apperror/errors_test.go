package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("WAL_001", "Insufficient funds", http.StatusUnprocessableEntity),
			expected: "[WAL_001] Insufficient funds",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("VAL_001", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"Validation", Validation("bad input"), "VAL_001", 400},
		{"InvalidAmount", ErrInvalidAmount(), "VAL_002", 400},
		{"InvalidDestination", ErrInvalidDestination(), "VAL_003", 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestAuthErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InvalidCredentials", ErrInvalidCredentials(), "AUTH_001", 401},
		{"InvalidToken", ErrInvalidToken(), "AUTH_002", 401},
		{"EmailExists", ErrEmailExists(), "AUTH_003", 409},
		{"Forbidden", Forbidden(), "AUTH_004", 403},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestStateConflictErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InsufficientFunds", ErrInsufficientFunds(), "WAL_001", 422},
		{"AlreadyProcessed", ErrAlreadyProcessed(), "WDR_001", 409},
		{"InvalidTransition", ErrInvalidTransition("PENDING", "SHIPPED"), "ORD_001", 409},
		{"OrderNotPayable", ErrOrderNotPayable(), "ORD_002", 409},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestInvalidTransitionMessage(t *testing.T) {
	err := ErrInvalidTransition("PENDING", "SHIPPED")
	assert.Contains(t, err.Message, "PENDING")
	assert.Contains(t, err.Message, "SHIPPED")
}

func TestSystemErrors(t *testing.T) {
	inner := fmt.Errorf("pg: connection closed")
	dbErr := ErrDatabaseError(inner)
	assert.Equal(t, "SYS_001", dbErr.Code)
	assert.Equal(t, 500, dbErr.HTTPStatus)
	assert.True(t, errors.Is(dbErr, inner))

	staleErr := ErrStaleWrite()
	assert.Equal(t, "SYS_002", staleErr.Code)
	assert.Equal(t, 409, staleErr.HTTPStatus)

	invErr := ErrInvariantViolation(inner)
	assert.Equal(t, "SYS_003", invErr.Code)
	assert.Equal(t, 500, invErr.HTTPStatus)

	gwErr := ErrGatewayUnavailable(inner)
	assert.Equal(t, "SYS_004", gwErr.Code)
	assert.Equal(t, 502, gwErr.HTTPStatus)
}

func TestRateLimitError(t *testing.T) {
	err := ErrRateLimitExceeded()
	assert.Equal(t, "RATE_001", err.Code)
	assert.Equal(t, 429, err.HTTPStatus)
}

func TestNotFoundEntity(t *testing.T) {
	err := ErrNotFound("Shop")
	assert.Contains(t, err.Message, "Shop")
	assert.Equal(t, "NF_001", err.Code)
	assert.Equal(t, 404, err.HTTPStatus)
}

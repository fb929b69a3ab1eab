package response

import (
	"errors"
	"net/http"
	"time"

	"marketplace-wallet/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SuccessResponse is the standard success envelope. Warnings carries
// non-fatal problems (e.g. a notification that could not be delivered)
// alongside an otherwise successful result.
type SuccessResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	Warnings  []string    `json:"warnings,omitempty"`
	RequestID string      `json:"request_id"`
	Timestamp string      `json:"timestamp"`
}

// ErrorResponse is the standard error envelope. Errors holds human-readable
// messages; internal details are never exposed.
type ErrorResponse struct {
	Success   bool     `json:"success"`
	ErrorCode string   `json:"error_code"`
	Errors    []string `json:"errors"`
	RequestID string   `json:"request_id"`
	Timestamp string   `json:"timestamp"`
}

// OK sends a 200 response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Success:   true,
		Data:      data,
		RequestID: getRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Created sends a 201 response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, SuccessResponse{
		Success:   true,
		Data:      data,
		RequestID: getRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// OKWithWarnings sends a 200 response with data plus warning messages.
func OKWithWarnings(c *gin.Context, data interface{}, warnings []string) {
	c.JSON(http.StatusOK, SuccessResponse{
		Success:   true,
		Data:      data,
		Warnings:  warnings,
		RequestID: getRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Accepted always answers 200 with an "accepted" envelope regardless of err.
// Used by the payment callback endpoint: the processor must never see a
// transport-level failure, or it will retry-storm on our internal errors.
func Accepted(c *gin.Context, err error) {
	body := SuccessResponse{
		Success:   true,
		Data:      gin.H{"accepted": true},
		RequestID: getRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err != nil {
		body.Warnings = []string{publicMessage(err)}
	}
	c.JSON(http.StatusOK, body)
}

// Error sends an error response. It checks if err is an *apperror.AppError
// and maps it accordingly, otherwise returns 500.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, ErrorResponse{
			Success:   false,
			ErrorCode: appErr.Code,
			Errors:    []string{appErr.Message},
			RequestID: getRequestID(c),
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	// Unknown error -> 500
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Success:   false,
		ErrorCode: "SYS_000",
		Errors:    []string{"Internal server error"},
		RequestID: getRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// publicMessage extracts the client-safe message from an error.
func publicMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Internal server error"
}

// getRequestID retrieves request ID from context, or generates one.
func getRequestID(c *gin.Context) string {
	if id, exists := c.Get("request_id"); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return uuid.New().String()
}

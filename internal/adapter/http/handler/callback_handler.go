package handler

import (
	"bytes"
	"encoding/json"
	"io"

	"marketplace-wallet/internal/adapter/http/dto"
	"marketplace-wallet/internal/core/ports"
	"marketplace-wallet/pkg/apperror"
	"marketplace-wallet/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CallbackHandler receives asynchronous payment processor notifications.
// It always answers 200: the processor retries on any other status, and a
// retry storm on our own internal errors helps nobody.
type CallbackHandler struct {
	callbackSvc ports.PaymentCallbackService
	log         zerolog.Logger
}

// NewCallbackHandler creates a new CallbackHandler.
func NewCallbackHandler(callbackSvc ports.PaymentCallbackService, log zerolog.Logger) *CallbackHandler {
	return &CallbackHandler{callbackSvc: callbackSvc, log: log}
}

// HandleCallback handles POST /api/v1/payments/callback.
func (h *CallbackHandler) HandleCallback(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Accepted(c, apperror.Validation("cannot read request body"))
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(rawBody))

	var req dto.PaymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn().Err(err).Msg("malformed payment callback")
		response.Accepted(c, apperror.Validation(err.Error()))
		return
	}

	err = h.callbackSvc.HandleCallback(c.Request.Context(), ports.PaymentNotification{
		TransactionID: req.TransactionID,
		Status:        req.Status,
		RawAmount:     req.Amount,
		RawPayload:    string(compactJSON(rawBody)),
	})
	if err != nil {
		h.log.Error().Err(err).Str("transaction_id", req.TransactionID).Msg("callback processing failed")
	}

	response.Accepted(c, err)
}

// compactJSON strips insignificant whitespace so stored payloads compare
// byte-for-byte across retries. Returns the input unchanged if it is not
// valid JSON.
func compactJSON(raw []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"marketplace-wallet/internal/core/ports"

	"github.com/rs/zerolog"
)

// ProcessorClient implements ports.PaymentProcessor over the processor's
// HTTP API. Requests carry an API key header and an HMAC-SHA256 signature
// over METHOD|PATH|TIMESTAMP|BODY.
type ProcessorClient struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	sigSvc     *HMACSignatureService
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewProcessorClient creates a new ProcessorClient.
func NewProcessorClient(baseURL, apiKey, apiSecret string, sigSvc *HMACSignatureService, httpClient HTTPClient, log zerolog.Logger) *ProcessorClient {
	return &ProcessorClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		sigSvc:     sigSvc,
		httpClient: httpClient,
		log:        log,
	}
}

type processorPaymentRequest struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	PayerID  string `json:"payer_id"`
}

type processorPaymentResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

// SubmitPayment starts a payment at the processor and returns its reference.
func (c *ProcessorClient) SubmitPayment(ctx context.Context, req ports.SubmitPaymentRequest) (*ports.SubmitPaymentResult, error) {
	body := processorPaymentRequest{
		OrderID:  req.OrderID.String(),
		Amount:   req.Amount,
		Currency: req.Currency,
		PayerID:  req.PayerID.String(),
	}

	var resp processorPaymentResponse
	if err := c.do(ctx, http.MethodPost, "/v1/payments", body, &resp); err != nil {
		return nil, err
	}

	c.log.Info().
		Str("order_id", body.OrderID).
		Str("transaction_id", resp.TransactionID).
		Str("status", resp.Status).
		Msg("payment submitted to processor")

	return &ports.SubmitPaymentResult{
		ReferenceID: resp.TransactionID,
		Status:      resp.Status,
	}, nil
}

// CheckStatus queries the processor for a transaction's current raw status.
func (c *ProcessorClient) CheckStatus(ctx context.Context, referenceID string) (string, error) {
	var resp processorPaymentResponse
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+referenceID, nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

func (c *ProcessorClient) do(ctx context.Context, method, path string, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	ts := time.Now().Unix()
	canonical := c.sigSvc.BuildCanonicalString(method, path, ts, string(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("X-Timestamp", strconv.FormatInt(ts, 10))
	req.Header.Set("X-Signature", c.sigSvc.Sign(c.apiSecret, canonical))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("processor request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read processor response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("processor returned %d: %s", resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode processor response: %w", err)
		}
	}
	return nil
}

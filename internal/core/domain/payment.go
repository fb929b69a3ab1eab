package domain

import (
	"time"

	"github.com/google/uuid"
)

// Gateway status values recognized by the callback reconciler. Anything
// else is stored verbatim and leaves the order untouched.
const (
	GatewayStatusCompleted = "completed"
	GatewayStatusFailed    = "failed"
	GatewayStatusPending   = "pending"
)

// PaymentEvent is an append-only record of every callback received from
// the payment processor, stored verbatim including unrecognized statuses.
type PaymentEvent struct {
	ID            uuid.UUID  `json:"id"`
	TransactionID string     `json:"transaction_id"` // processor's own id
	OrderID       *uuid.UUID `json:"order_id,omitempty"`
	RawStatus     string     `json:"raw_status"`
	RawPayload    string     `json:"raw_payload"` // JSON as received
	Applied       bool       `json:"applied"`     // whether it changed order state
	ReceivedAt    time.Time  `json:"received_at"`
}

// MapGatewayStatus translates a recognized processor status to the order
// payment status. ok is false for unknown or non-terminal values.
func MapGatewayStatus(raw string) (PaymentStatus, bool) {
	switch raw {
	case GatewayStatusCompleted:
		return PaymentStatusCompleted, true
	case GatewayStatusFailed:
		return PaymentStatusFailed, true
	default:
		return "", false
	}
}

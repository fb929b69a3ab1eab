package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the fulfillment state of an order.
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	OrderStatusPending        OrderStatus = "PENDING"
	OrderStatusProcessing     OrderStatus = "PROCESSING"
	OrderStatusShipped        OrderStatus = "SHIPPED"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

// orderTransitions is the fulfillment state graph. DELIVERED and CANCELLED
// are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingPayment: {OrderStatusPending, OrderStatusCancelled},
	OrderStatusPending:        {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing:     {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:        {OrderStatusDelivered, OrderStatusCancelled},
}

// CanTransition reports whether from -> to is an edge of the fulfillment
// graph. Terminal states have no outgoing edges.
func CanTransition(from, to OrderStatus) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidOrderStatus reports whether s is a known fulfillment status.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPendingPayment, OrderStatusPending, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentStatus represents the payment state of an order.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// OrderItem is a single purchased line. Quantity is the amount of stock
// reserved from the product when the order was placed.
type OrderItem struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
}

// StatusChange is an append-only history entry recorded before every
// fulfillment transition.
type StatusChange struct {
	ID         uuid.UUID   `json:"id"`
	OrderID    uuid.UUID   `json:"order_id"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status"`
	ActorID    uuid.UUID   `json:"actor_id"`
	ChangedAt  time.Time   `json:"changed_at"`
}

// Order is the purchase record driving fulfillment and, on delivery, the
// shop wallet credit. Subtotal is the revenue attributable to the shop;
// Total additionally includes shipping and fees.
type Order struct {
	ID         uuid.UUID     `json:"id"`
	ShopID     uuid.UUID     `json:"shop_id"`
	BuyerID    uuid.UUID     `json:"buyer_id"`
	Status     OrderStatus   `json:"status"`
	Payment    PaymentStatus `json:"payment_status"`
	PaymentRef *string       `json:"payment_ref,omitempty"` // processor transaction id
	GatewayRaw *string       `json:"-"`                     // last raw status reported by the processor
	Subtotal   int64         `json:"subtotal"`
	Total      int64         `json:"total"`
	Currency   string        `json:"currency"`
	Items      []OrderItem   `json:"items,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// IsTerminal returns true if the order's fulfillment state is final.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusDelivered || o.Status == OrderStatusCancelled
}

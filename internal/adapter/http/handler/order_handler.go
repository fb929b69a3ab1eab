package handler

import (
	"time"

	"marketplace-wallet/internal/adapter/http/dto"
	"marketplace-wallet/internal/adapter/http/middleware"
	"marketplace-wallet/internal/core/domain"
	"marketplace-wallet/internal/core/ports"
	"marketplace-wallet/pkg/apperror"
	"marketplace-wallet/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderHandler handles fulfillment and payment initiation endpoints.
type OrderHandler struct {
	orderSvc ports.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc ports.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// Transition handles PATCH /api/v1/orders/:id/status.
func (h *OrderHandler) Transition(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid order id"))
		return
	}

	var req dto.OrderTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	order, err := h.orderSvc.Transition(c.Request.Context(), actor, orderID, domain.OrderStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toOrderResponse(order))
}

// Pay handles POST /api/v1/orders/:id/pay.
func (h *OrderHandler) Pay(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid order id"))
		return
	}

	order, err := h.orderSvc.InitiatePayment(c.Request.Context(), actor, orderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toOrderResponse(order))
}

func toOrderResponse(o *domain.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:            o.ID.String(),
		ShopID:        o.ShopID.String(),
		BuyerID:       o.BuyerID.String(),
		Status:        string(o.Status),
		PaymentStatus: string(o.Payment),
		PaymentRef:    o.PaymentRef,
		Subtotal:      o.Subtotal,
		Total:         o.Total,
		Currency:      o.Currency,
		CreatedAt:     o.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     o.UpdatedAt.UTC().Format(time.RFC3339),
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, dto.OrderItemResponse{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return resp
}

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

// WithdrawalHandler handles withdrawal lifecycle endpoints.
type WithdrawalHandler struct {
	withdrawalSvc ports.WithdrawalService
}

// NewWithdrawalHandler creates a new WithdrawalHandler.
func NewWithdrawalHandler(withdrawalSvc ports.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalSvc: withdrawalSvc}
}

// Create handles POST /api/v1/withdrawals.
func (h *WithdrawalHandler) Create(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.WithdrawalCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.withdrawalSvc.Request(c.Request.Context(), actor, ports.WithdrawalCreateRequest{
		Amount:      req.Amount,
		Destination: toPayoutDestination(req),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.WithdrawalCreateResponse{
		Withdrawal: toWithdrawalResponse(result.Withdrawal),
		Wallet:     toWalletResponse(result.Wallet),
	})
}

// List handles GET /api/v1/withdrawals.
func (h *WithdrawalHandler) List(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var query dto.WithdrawalListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	params := ports.WithdrawalListParams{
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if query.Status != "" {
		status := domain.WithdrawalStatus(query.Status)
		params.Status = &status
	}

	items, total, err := h.withdrawalSvc.List(c.Request.Context(), actor, params)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.WithdrawalListResponse{
		Items:      make([]dto.WithdrawalResponse, 0, len(items)),
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: int((total + int64(params.PageSize) - 1) / int64(params.PageSize)),
	}
	for i := range items {
		resp.Items = append(resp.Items, toWithdrawalResponse(&items[i]))
	}

	response.OK(c, resp)
}

// Decide handles PATCH /api/v1/withdrawals/:id.
func (h *WithdrawalHandler) Decide(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	withdrawalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid withdrawal id"))
		return
	}

	var req dto.WithdrawalDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	withdrawal, err := h.withdrawalSvc.Decide(c.Request.Context(), actor, ports.WithdrawalDecision{
		WithdrawalID: withdrawalID,
		Approve:      req.Decision == "APPROVE",
		Note:         req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toWithdrawalResponse(withdrawal))
}

func toPayoutDestination(req dto.WithdrawalCreateRequest) domain.PayoutDestination {
	dest := domain.PayoutDestination{Method: domain.PayoutMethod(req.PayoutMethod)}
	if req.Bank != nil {
		dest.Bank = &domain.BankDestination{
			AccountName:   req.Bank.AccountName,
			AccountNumber: req.Bank.AccountNumber,
			BankName:      req.Bank.BankName,
		}
	}
	if req.MobileMoney != nil {
		dest.MobileMoney = &domain.MobileMoneyDestination{
			PhoneNumber: req.MobileMoney.PhoneNumber,
			Provider:    req.MobileMoney.Provider,
			AccountName: req.MobileMoney.AccountName,
		}
	}
	return dest
}

func toWithdrawalResponse(w *domain.WithdrawalRequest) dto.WithdrawalResponse {
	resp := dto.WithdrawalResponse{
		ID:           w.ID.String(),
		ShopID:       w.ShopID.String(),
		Amount:       w.Amount,
		Currency:     w.Currency,
		Status:       string(w.Status),
		PayoutMethod: string(w.Destination.Method),
		CreatedAt:    w.CreatedAt.UTC().Format(time.RFC3339),
	}
	if w.Destination.Bank != nil {
		resp.Bank = &dto.BankDestinationDTO{
			AccountName:   w.Destination.Bank.AccountName,
			AccountNumber: w.Destination.Bank.AccountNumber,
			BankName:      w.Destination.Bank.BankName,
		}
	}
	if w.Destination.MobileMoney != nil {
		resp.MobileMoney = &dto.MobileMoneyDestinationDTO{
			PhoneNumber: w.Destination.MobileMoney.PhoneNumber,
			Provider:    w.Destination.MobileMoney.Provider,
			AccountName: w.Destination.MobileMoney.AccountName,
		}
	}
	if w.Resolution != nil {
		resp.Note = w.Resolution.Note
		processedAt := w.Resolution.ProcessedAt.UTC().Format(time.RFC3339)
		resp.ProcessedAt = &processedAt
	}
	return resp
}

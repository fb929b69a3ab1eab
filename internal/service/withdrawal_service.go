package service

import (
	"context"
	"fmt"
	"time"

	"marketplace-wallet/internal/core/domain"
	"marketplace-wallet/internal/core/ports"
	"marketplace-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WithdrawalServiceImpl implements ports.WithdrawalService. Request reserves
// funds and inserts the pending row in one transaction; Decide burns or
// releases them in one transaction with the status flip, guarded so a
// request can be decided exactly once.
type WithdrawalServiceImpl struct {
	withdrawalRepo ports.WithdrawalRepository
	walletRepo     ports.WalletRepository
	shopRepo       ports.ShopRepository
	transactor     ports.DBTransactor
	notifier       ports.Notifier
	log            zerolog.Logger
}

// NewWithdrawalService creates a new WithdrawalServiceImpl.
func NewWithdrawalService(
	withdrawalRepo ports.WithdrawalRepository,
	walletRepo ports.WalletRepository,
	shopRepo ports.ShopRepository,
	transactor ports.DBTransactor,
	notifier ports.Notifier,
	log zerolog.Logger,
) *WithdrawalServiceImpl {
	return &WithdrawalServiceImpl{
		withdrawalRepo: withdrawalRepo,
		walletRepo:     walletRepo,
		shopRepo:       shopRepo,
		transactor:     transactor,
		notifier:       notifier,
		log:            log,
	}
}

// Request creates a pending withdrawal, reserving the amount from the
// shop's available balance. The reserve and the request row land atomically.
func (s *WithdrawalServiceImpl) Request(ctx context.Context, actor domain.Actor, req ports.WithdrawalCreateRequest) (*ports.WithdrawalResult, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if !req.Destination.Valid() {
		return nil, apperror.ErrInvalidDestination()
	}

	shop, err := s.shopRepo.GetByOwnerID(ctx, actor.UserID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("find shop: %w", err))
	}
	// A caller with no shop has no wallet to withdraw from; that is an
	// authorization failure, not a missing resource.
	if shop == nil || !actor.CanActForShop(shop) {
		return nil, apperror.Forbidden()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := lockAndApplyWallet(ctx, dbTx, s.walletRepo, shop.ID, func(w *domain.Wallet) error {
		return w.Reserve(req.Amount)
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	withdrawal := &domain.WithdrawalRequest{
		ID:          uuid.New(),
		ShopID:      shop.ID,
		UserID:      actor.UserID,
		Amount:      req.Amount,
		Currency:    wallet.Currency,
		Status:      domain.WithdrawalStatusPending,
		Destination: req.Destination,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.withdrawalRepo.Create(ctx, dbTx, withdrawal); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create withdrawal: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("withdrawal_id", withdrawal.ID.String()).
		Str("shop_id", shop.ID.String()).
		Int64("amount", req.Amount).
		Msg("withdrawal requested")

	return &ports.WithdrawalResult{Withdrawal: withdrawal, Wallet: wallet}, nil
}

// Decide approves or rejects a pending withdrawal. Approval burns the
// reserved funds; rejection returns them to available. Either way the
// status flip and the ledger mutation commit together, and the PENDING
// guard on the update makes a second decision an AlreadyProcessed error.
func (s *WithdrawalServiceImpl) Decide(ctx context.Context, actor domain.Actor, req ports.WithdrawalDecision) (*domain.WithdrawalRequest, error) {
	if !actor.CanDecideWithdrawals() {
		return nil, apperror.Forbidden()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	withdrawal, err := s.withdrawalRepo.GetByIDForUpdate(ctx, dbTx, req.WithdrawalID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock withdrawal: %w", err))
	}
	if withdrawal == nil {
		return nil, apperror.ErrNotFound("withdrawal request")
	}
	if withdrawal.IsTerminal() {
		return nil, apperror.ErrAlreadyProcessed()
	}

	target := domain.WithdrawalStatusRejected
	apply := (*domain.Wallet).Release
	if req.Approve {
		target = domain.WithdrawalStatusApproved
		apply = (*domain.Wallet).Burn
	}

	if _, err := lockAndApplyWallet(ctx, dbTx, s.walletRepo, withdrawal.ShopID, func(w *domain.Wallet) error {
		return apply(w, withdrawal.Amount)
	}); err != nil {
		return nil, err
	}

	res := domain.Resolution{
		ProcessedBy: actor.UserID,
		ProcessedAt: time.Now().UTC(),
		Note:        req.Note,
	}
	ok, err := s.withdrawalRepo.Resolve(ctx, dbTx, withdrawal.ID, target, res)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("resolve withdrawal: %w", err))
	}
	if !ok {
		return nil, apperror.ErrAlreadyProcessed()
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	withdrawal.Status = target
	withdrawal.Resolution = &res

	s.log.Info().
		Str("withdrawal_id", withdrawal.ID.String()).
		Str("status", string(target)).
		Str("processed_by", actor.UserID.String()).
		Msg("withdrawal decided")

	// Best-effort: the decision already committed.
	if err := s.notifier.Notify(ctx, withdrawal.UserID,
		fmt.Sprintf("Your withdrawal request was %s", target), withdrawal.ID); err != nil {
		s.log.Warn().Err(err).Str("withdrawal_id", withdrawal.ID.String()).Msg("notify failed")
	}

	return withdrawal, nil
}

// List returns withdrawal requests visible to the actor: admins see every
// shop, owners only their own.
func (s *WithdrawalServiceImpl) List(ctx context.Context, actor domain.Actor, params ports.WithdrawalListParams) ([]domain.WithdrawalRequest, int64, error) {
	if !actor.IsAdmin() {
		shop, err := s.shopRepo.GetByOwnerID(ctx, actor.UserID)
		if err != nil {
			return nil, 0, apperror.ErrDatabaseError(fmt.Errorf("find shop: %w", err))
		}
		if shop == nil {
			return nil, 0, apperror.Forbidden()
		}
		params.ShopID = &shop.ID
	}

	out, total, err := s.withdrawalRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(fmt.Errorf("list withdrawals: %w", err))
	}
	return out, total, nil
}

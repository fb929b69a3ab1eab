package service

import (
	"context"
	"errors"
	"fmt"

	"marketplace-wallet/internal/core/domain"
	"marketplace-wallet/internal/core/ports"
	"marketplace-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// WalletServiceImpl implements ports.WalletService. Every mutation locks the
// shop's wallet row, applies the ledger rule in memory, and writes both
// balances back in one transaction, so concurrent mutations on the same shop
// serialize and balances can never go negative.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	shopRepo   ports.ShopRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	walletRepo ports.WalletRepository,
	shopRepo ports.ShopRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		shopRepo:   shopRepo,
		transactor: transactor,
		log:        log,
	}
}

// Get returns the wallet of the actor's shop. Admins have no shop of their
// own, so Get is owner-scoped.
func (s *WalletServiceImpl) Get(ctx context.Context, actor domain.Actor) (*domain.Wallet, error) {
	shop, err := s.shopRepo.GetByOwnerID(ctx, actor.UserID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("find shop: %w", err))
	}
	if shop == nil {
		return nil, apperror.ErrNotFound("shop")
	}

	wallet, err := s.walletRepo.GetByShopID(ctx, shop.ID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}

// Credit adds funds to the shop's available balance.
func (s *WalletServiceImpl) Credit(ctx context.Context, shopID uuid.UUID, amount int64) (*domain.Wallet, error) {
	return s.mutate(ctx, shopID, "credit", func(w *domain.Wallet) error {
		return w.Credit(amount)
	})
}

// Reserve moves funds from available to locked.
func (s *WalletServiceImpl) Reserve(ctx context.Context, shopID uuid.UUID, amount int64) (*domain.Wallet, error) {
	return s.mutate(ctx, shopID, "reserve", func(w *domain.Wallet) error {
		return w.Reserve(amount)
	})
}

// Release returns locked funds to available.
func (s *WalletServiceImpl) Release(ctx context.Context, shopID uuid.UUID, amount int64) (*domain.Wallet, error) {
	return s.mutate(ctx, shopID, "release", func(w *domain.Wallet) error {
		return w.Release(amount)
	})
}

// Burn removes locked funds from the ledger.
func (s *WalletServiceImpl) Burn(ctx context.Context, shopID uuid.UUID, amount int64) (*domain.Wallet, error) {
	return s.mutate(ctx, shopID, "burn", func(w *domain.Wallet) error {
		return w.Burn(amount)
	})
}

// mutate runs one ledger operation as an atomic unit of work: lock the row,
// apply, persist, commit.
func (s *WalletServiceImpl) mutate(ctx context.Context, shopID uuid.UUID, op string, apply func(*domain.Wallet) error) (*domain.Wallet, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := lockAndApplyWallet(ctx, dbTx, s.walletRepo, shopID, apply)
	if err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("shop_id", shopID.String()).
		Str("op", op).
		Int64("available", wallet.Available).
		Int64("locked", wallet.Locked).
		Msg("wallet mutated")

	return wallet, nil
}

// lockAndApplyWallet is the shared core of every wallet mutation, also used
// by the withdrawal and order services inside their own transactions.
func lockAndApplyWallet(ctx context.Context, tx pgx.Tx, repo ports.WalletRepository, shopID uuid.UUID, apply func(*domain.Wallet) error) (*domain.Wallet, error) {
	wallet, err := repo.GetByShopIDForUpdate(ctx, tx, shopID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	if err := apply(wallet); err != nil {
		return nil, mapWalletError(err)
	}

	if err := repo.UpdateBalances(ctx, tx, wallet); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperror.ErrDatabaseError(fmt.Errorf("update balances: %w", err))
	}
	return wallet, nil
}

func mapWalletError(err error) *apperror.AppError {
	switch {
	case errors.Is(err, domain.ErrNonPositiveAmount):
		return apperror.ErrInvalidAmount()
	case errors.Is(err, domain.ErrInsufficientFunds):
		return apperror.ErrInsufficientFunds()
	case errors.Is(err, domain.ErrLockedBelowAmount):
		return apperror.ErrInvariantViolation(err)
	default:
		return apperror.InternalError(err)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-wallet/internal/core/domain"
	"marketplace-wallet/internal/core/ports"
	"marketplace-wallet/pkg/apperror"

	"github.com/google/uuid"
)

// AuthServiceImpl implements ports.AuthService. Registering a shop owner
// provisions the shop and its zeroed wallet in one transaction with the
// user row's side effects, so an owner can never exist without a wallet.
type AuthServiceImpl struct {
	userRepo   ports.UserRepository
	shopRepo   ports.ShopRepository
	walletRepo ports.WalletRepository
	transactor ports.DBTransactor
	hashSvc    ports.HashService
	tokenSvc   ports.TokenService
	currency   string
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	userRepo ports.UserRepository,
	shopRepo ports.ShopRepository,
	walletRepo ports.WalletRepository,
	transactor ports.DBTransactor,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	currency string,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		userRepo:   userRepo,
		shopRepo:   shopRepo,
		walletRepo: walletRepo,
		transactor: transactor,
		hashSvc:    hashSvc,
		tokenSvc:   tokenSvc,
		currency:   currency,
	}
}

// Register creates a new account. Shop owners get a shop and wallet with it.
func (s *AuthServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*domain.User, error) {
	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: passwordHash,
		Name:         req.Name,
		Role:         req.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, apperror.ErrEmailExists()
		}
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create user: %w", err))
	}

	if req.Role == domain.RoleShopOwner {
		if err := s.provisionShop(ctx, user); err != nil {
			return nil, err
		}
	}

	return user, nil
}

func (s *AuthServiceImpl) provisionShop(ctx context.Context, user *domain.User) error {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()
	shop := &domain.Shop{
		ID:        uuid.New(),
		OwnerID:   user.ID,
		Name:      user.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.shopRepo.Create(ctx, dbTx, shop); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("create shop: %w", err))
	}

	if err := s.walletRepo.Create(ctx, dbTx, domain.NewWallet(shop.ID, s.currency)); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("create wallet: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// Login verifies credentials and issues a JWT.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", time.Time{}, apperror.ErrDatabaseError(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	ok, err := s.hashSvc.Verify(password, user.PasswordHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !ok {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiresAt, err := s.tokenSvc.Generate(user.ID, user.Role)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}
	return token, expiresAt, nil
}

package service

import (
	"context"
	"testing"
	"time"

	"marketplace-wallet/internal/core/domain"
	"marketplace-wallet/internal/core/ports"
	"marketplace-wallet/internal/core/ports/mocks"
	"marketplace-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type authTestDeps struct {
	svc        *AuthServiceImpl
	userRepo   *mocks.MockUserRepository
	shopRepo   *mocks.MockShopRepository
	walletRepo *mocks.MockWalletRepository
	transactor *mocks.MockDBTransactor
	hashSvc    *mocks.MockHashService
	tokenSvc   *mocks.MockTokenService
	ctrl       *gomock.Controller
}

func setupAuthService(t *testing.T) *authTestDeps {
	ctrl := gomock.NewController(t)
	d := &authTestDeps{
		userRepo:   mocks.NewMockUserRepository(ctrl),
		shopRepo:   mocks.NewMockShopRepository(ctrl),
		walletRepo: mocks.NewMockWalletRepository(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
		hashSvc:    mocks.NewMockHashService(ctrl),
		tokenSvc:   mocks.NewMockTokenService(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewAuthService(
		d.userRepo, d.shopRepo, d.walletRepo, d.transactor,
		d.hashSvc, d.tokenSvc, "NGN",
	)
	return d
}

func TestAuthService_Register_Buyer(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := ports.RegisterRequest{
		Email:    "buyer@example.com",
		Password: "SecureP@ss1",
		Name:     "Ola",
		Role:     domain.RoleBuyer,
	}

	d.hashSvc.EXPECT().Hash("SecureP@ss1").Return("$argon2id$hash", nil)
	d.userRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	user, err := d.svc.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", user.Email)
	assert.Equal(t, domain.RoleBuyer, user.Role)
	assert.Equal(t, "$argon2id$hash", user.PasswordHash)
}

func TestAuthService_Register_ShopOwnerGetsShopAndWallet(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	req := ports.RegisterRequest{
		Email:    "owner@example.com",
		Password: "SecureP@ss1",
		Name:     "Ada Stores",
		Role:     domain.RoleShopOwner,
	}

	d.hashSvc.EXPECT().Hash("SecureP@ss1").Return("$argon2id$hash", nil)
	d.userRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.shopRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ interface{}, shop *domain.Shop) error {
			assert.Equal(t, "Ada Stores", shop.Name)
			return nil
		})
	d.walletRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ interface{}, w *domain.Wallet) error {
			assert.Equal(t, int64(0), w.Available)
			assert.Equal(t, int64(0), w.Locked)
			assert.Equal(t, "NGN", w.Currency)
			return nil
		})

	user, err := d.svc.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleShopOwner, user.Role)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	d.hashSvc.EXPECT().Hash(gomock.Any()).Return("$argon2id$hash", nil)
	d.userRepo.EXPECT().Create(ctx, gomock.Any()).Return(domain.ErrDuplicateEmail)

	_, err := d.svc.Register(ctx, ports.RegisterRequest{
		Email:    "taken@example.com",
		Password: "pw",
		Role:     domain.RoleBuyer,
	})
	require.Error(t, err)

	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "AUTH_003", appErr.Code)
}

func TestAuthService_Login_Success(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	expiresAt := time.Now().Add(time.Hour)
	user := &domain.User{
		ID:           userID,
		Email:        "owner@example.com",
		PasswordHash: "$argon2id$hash",
		Role:         domain.RoleShopOwner,
	}

	d.userRepo.EXPECT().GetByEmail(ctx, "owner@example.com").Return(user, nil)
	d.hashSvc.EXPECT().Verify("SecureP@ss1", "$argon2id$hash").Return(true, nil)
	d.tokenSvc.EXPECT().Generate(userID, domain.RoleShopOwner).Return("jwt-token", expiresAt, nil)

	token, exp, err := d.svc.Login(ctx, "owner@example.com", "SecureP@ss1")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", token)
	assert.Equal(t, expiresAt, exp)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	user := &domain.User{ID: uuid.New(), Email: "a@b.c", PasswordHash: "$argon2id$hash"}

	d.userRepo.EXPECT().GetByEmail(ctx, "a@b.c").Return(user, nil)
	d.hashSvc.EXPECT().Verify("wrong", "$argon2id$hash").Return(false, nil)

	_, _, err := d.svc.Login(ctx, "a@b.c", "wrong")
	require.Error(t, err)

	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "AUTH_001", appErr.Code)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	d := setupAuthService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	d.userRepo.EXPECT().GetByEmail(ctx, "ghost@example.com").Return(nil, nil)

	_, _, err := d.svc.Login(ctx, "ghost@example.com", "pw")
	require.Error(t, err)

	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "AUTH_001", appErr.Code)
}

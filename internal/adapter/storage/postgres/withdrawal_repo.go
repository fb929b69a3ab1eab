package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-wallet/internal/core/domain"
	"marketplace-wallet/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WithdrawalRepo implements ports.WithdrawalRepository. The payout
// destination variant is flattened into nullable columns; Resolve guards
// the status write on the row still being PENDING so a request can never
// be decided twice.
type WithdrawalRepo struct {
	pool Pool
}

// NewWithdrawalRepo creates a new WithdrawalRepo.
func NewWithdrawalRepo(pool Pool) *WithdrawalRepo {
	return &WithdrawalRepo{pool: pool}
}

const withdrawalColumns = `id, shop_id, user_id, amount, currency, status,
	payout_method, bank_account_name, bank_account_number, bank_name,
	momo_phone, momo_provider, momo_account_name,
	processed_by, processed_at, note, created_at, updated_at`

func scanWithdrawal(row pgx.Row) (*domain.WithdrawalRequest, error) {
	var (
		r                                  domain.WithdrawalRequest
		bankName, bankAccName, bankAccNum  *string
		momoPhone, momoProvider, momoAccNm *string
		processedBy                        *uuid.UUID
		processedAt                        *time.Time
		note                               *string
	)
	err := row.Scan(
		&r.ID, &r.ShopID, &r.UserID, &r.Amount, &r.Currency, &r.Status,
		&r.Destination.Method, &bankAccName, &bankAccNum, &bankName,
		&momoPhone, &momoProvider, &momoAccNm,
		&processedBy, &processedAt, &note, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	switch r.Destination.Method {
	case domain.PayoutMethodBank:
		r.Destination.Bank = &domain.BankDestination{
			AccountName:   deref(bankAccName),
			AccountNumber: deref(bankAccNum),
			BankName:      deref(bankName),
		}
	case domain.PayoutMethodMobileMoney:
		r.Destination.MobileMoney = &domain.MobileMoneyDestination{
			PhoneNumber: deref(momoPhone),
			Provider:    deref(momoProvider),
			AccountName: deref(momoAccNm),
		}
	}

	if processedBy != nil && processedAt != nil {
		r.Resolution = &domain.Resolution{
			ProcessedBy: *processedBy,
			ProcessedAt: *processedAt,
			Note:        deref(note),
		}
	}
	return &r, nil
}

// Create inserts a new pending withdrawal request within a transaction.
func (r *WithdrawalRepo) Create(ctx context.Context, tx pgx.Tx, req *domain.WithdrawalRequest) error {
	query := `INSERT INTO withdrawal_requests (
		id, shop_id, user_id, amount, currency, status,
		payout_method, bank_account_name, bank_account_number, bank_name,
		momo_phone, momo_provider, momo_account_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	var bankAccName, bankAccNum, bankName *string
	if b := req.Destination.Bank; b != nil {
		bankAccName, bankAccNum, bankName = &b.AccountName, &b.AccountNumber, &b.BankName
	}
	var momoPhone, momoProvider, momoAccName *string
	if m := req.Destination.MobileMoney; m != nil {
		momoPhone, momoProvider, momoAccName = &m.PhoneNumber, &m.Provider, &m.AccountName
	}

	_, err := tx.Exec(ctx, query,
		req.ID, req.ShopID, req.UserID, req.Amount, req.Currency, req.Status,
		req.Destination.Method, bankAccName, bankAccNum, bankName,
		momoPhone, momoProvider, momoAccName, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert withdrawal request: %w", err)
	}
	return nil
}

// GetByID fetches a withdrawal request (non-locking read).
func (r *WithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE id = $1`

	req, err := scanWithdrawal(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get withdrawal by id: %w", err)
	}
	return req, nil
}

// GetByIDForUpdate fetches a withdrawal request with a row lock.
// MUST be called within a transaction.
func (r *WithdrawalRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE id = $1 FOR UPDATE`

	req, err := scanWithdrawal(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get withdrawal for update: %w", err)
	}
	return req, nil
}

// Resolve stamps the terminal status and resolution. The status guard makes
// the write a no-op when another decision already landed; callers treat the
// false return as AlreadyProcessed.
func (r *WithdrawalRepo) Resolve(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.WithdrawalStatus, res domain.Resolution) (bool, error) {
	query := `UPDATE withdrawal_requests
		SET status = $1, processed_by = $2, processed_at = $3, note = $4, updated_at = NOW()
		WHERE id = $5 AND status = $6`

	tag, err := tx.Exec(ctx, query, status, res.ProcessedBy, res.ProcessedAt, res.Note, id, domain.WithdrawalStatusPending)
	if err != nil {
		return false, fmt.Errorf("resolve withdrawal: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// List returns withdrawal requests with optional shop and status filters,
// newest first, plus the total count for pagination.
func (r *WithdrawalRepo) List(ctx context.Context, params ports.WithdrawalListParams) ([]domain.WithdrawalRequest, int64, error) {
	where := " WHERE 1=1"
	args := []any{}
	n := 0

	if params.ShopID != nil {
		n++
		where += fmt.Sprintf(" AND shop_id = $%d", n)
		args = append(args, *params.ShopID)
	}
	if params.Status != nil {
		n++
		where += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, *params.Status)
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM withdrawal_requests` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count withdrawals: %w", err)
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list withdrawals: %w", err)
	}
	defer rows.Close()

	var out []domain.WithdrawalRequest
	for rows.Next() {
		req, err := scanWithdrawal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan withdrawal: %w", err)
		}
		out = append(out, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate withdrawals: %w", err)
	}
	return out, total, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package integration

import (
	"context"
	"fmt"
	"sync"

	"marketplace-wallet/internal/core/domain"
	"marketplace-wallet/internal/core/ports"
	"marketplace-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// The in-memory repos back full-stack tests without postgres. The transactor
// holds a single global lock for the duration of each transaction, which
// gives the same serialization the row locks provide in production: no two
// transactions ever interleave.

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// --- In-Memory Shop Repo ---

type inMemoryShopRepo struct {
	mu    sync.RWMutex
	shops map[uuid.UUID]*domain.Shop
}

func newInMemoryShopRepo() *inMemoryShopRepo {
	return &inMemoryShopRepo{shops: make(map[uuid.UUID]*domain.Shop)}
}

func (r *inMemoryShopRepo) Create(ctx context.Context, tx pgx.Tx, shop *domain.Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *shop
	r.shops[shop.ID] = &cp
	return nil
}

func (r *inMemoryShopRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Shop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shops[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *inMemoryShopRepo) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.Shop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.shops {
		if s.OwnerID == ownerID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryShopRepo) AddRevenue(ctx context.Context, tx pgx.Tx, shopID uuid.UUID, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shops[shopID]
	if !ok {
		return fmt.Errorf("shop not found")
	}
	s.Revenue += amount
	return nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.Wallet // keyed by shop id
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.wallets[w.ShopID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) GetByShopID(ctx context.Context, shopID uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[shopID]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) GetByShopIDForUpdate(ctx context.Context, tx pgx.Tx, shopID uuid.UUID) (*domain.Wallet, error) {
	return r.GetByShopID(ctx, shopID)
}

func (r *inMemoryWalletRepo) UpdateBalances(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.wallets[w.ShopID]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	if stored.Version != w.Version {
		return apperror.ErrStaleWrite()
	}
	stored.Available = w.Available
	stored.Locked = w.Locked
	stored.Version++
	w.Version++
	return nil
}

// --- In-Memory Withdrawal Repo ---

type inMemoryWithdrawalRepo struct {
	mu          sync.RWMutex
	withdrawals map[uuid.UUID]*domain.WithdrawalRequest
}

func newInMemoryWithdrawalRepo() *inMemoryWithdrawalRepo {
	return &inMemoryWithdrawalRepo{withdrawals: make(map[uuid.UUID]*domain.WithdrawalRequest)}
}

func (r *inMemoryWithdrawalRepo) Create(ctx context.Context, tx pgx.Tx, req *domain.WithdrawalRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *req
	r.withdrawals[req.ID] = &cp
	return nil
}

func (r *inMemoryWithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.withdrawals[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWithdrawalRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.WithdrawalRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryWithdrawalRepo) Resolve(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.WithdrawalStatus, res domain.Resolution) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.withdrawals[id]
	if !ok {
		return false, nil
	}
	if w.Status != domain.WithdrawalStatusPending {
		return false, nil
	}
	w.Status = status
	resCp := res
	w.Resolution = &resCp
	return true, nil
}

func (r *inMemoryWithdrawalRepo) List(ctx context.Context, params ports.WithdrawalListParams) ([]domain.WithdrawalRequest, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.WithdrawalRequest
	for _, w := range r.withdrawals {
		if params.ShopID != nil && w.ShopID != *params.ShopID {
			continue
		}
		if params.Status != nil && w.Status != *params.Status {
			continue
		}
		result = append(result, *w)
	}
	total := int64(len(result))

	// Simple pagination
	start := (params.Page - 1) * params.PageSize
	if start >= len(result) {
		return []domain.WithdrawalRequest{}, total, nil
	}
	end := start + params.PageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

// --- In-Memory Order Repo ---

type inMemoryOrderRepo struct {
	mu      sync.RWMutex
	orders  map[uuid.UUID]*domain.Order
	history []domain.StatusChange
}

func newInMemoryOrderRepo() *inMemoryOrderRepo {
	return &inMemoryOrderRepo{orders: make(map[uuid.UUID]*domain.Order)}
}

// seed inserts an order directly, standing in for the checkout flow.
func (r *inMemoryOrderRepo) seed(o *domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.ID] = &cp
}

func (r *inMemoryOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *inMemoryOrderRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryOrderRepo) GetByPaymentRef(ctx context.Context, ref string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if o.PaymentRef != nil && *o.PaymentRef == ref {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryOrderRepo) ListItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) ([]domain.OrderItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[orderID]
	if !ok {
		return nil, nil
	}
	items := make([]domain.OrderItem, len(o.Items))
	copy(items, o.Items)
	return items, nil
}

func (r *inMemoryOrderRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to domain.OrderStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (r *inMemoryOrderRepo) UpdatePayment(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.PaymentStatus, rawStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order not found")
	}
	o.Payment = status
	raw := rawStatus
	o.GatewayRaw = &raw
	return nil
}

func (r *inMemoryOrderRepo) SetPaymentRef(ctx context.Context, tx pgx.Tx, id uuid.UUID, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order not found")
	}
	if o.PaymentRef != nil {
		return fmt.Errorf("payment ref already set for order %s", id)
	}
	refCp := ref
	o.PaymentRef = &refCp
	return nil
}

func (r *inMemoryOrderRepo) AppendStatusHistory(ctx context.Context, tx pgx.Tx, change *domain.StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, *change)
	return nil
}

func (r *inMemoryOrderRepo) historyFor(orderID uuid.UUID) []domain.StatusChange {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.StatusChange
	for _, h := range r.history {
		if h.OrderID == orderID {
			result = append(result, h)
		}
	}
	return result
}

// --- In-Memory Product Repo ---

type inMemoryProductRepo struct {
	mu       sync.RWMutex
	products map[uuid.UUID]*domain.Product
}

func newInMemoryProductRepo() *inMemoryProductRepo {
	return &inMemoryProductRepo{products: make(map[uuid.UUID]*domain.Product)}
}

func (r *inMemoryProductRepo) seed(p *domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.products[p.ID] = &cp
}

func (r *inMemoryProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *inMemoryProductRepo) Restock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return fmt.Errorf("product not found")
	}
	p.Stock += quantity
	return nil
}

// --- In-Memory Payment Event Repo ---

type inMemoryPaymentEventRepo struct {
	mu     sync.RWMutex
	events []domain.PaymentEvent
}

func newInMemoryPaymentEventRepo() *inMemoryPaymentEventRepo {
	return &inMemoryPaymentEventRepo{}
}

func (r *inMemoryPaymentEventRepo) Create(ctx context.Context, event *domain.PaymentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *inMemoryPaymentEventRepo) ListByTransactionID(ctx context.Context, transactionID string) ([]domain.PaymentEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.PaymentEvent
	for _, e := range r.events {
		if e.TransactionID == transactionID {
			result = append(result, e)
		}
	}
	return result, nil
}

// --- In-Memory Transactor (serializing) ---

// inMemoryTransactor serializes transactions with one global mutex, matching
// the row-lock ordering a single-shop workload sees against postgres.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &serializedTx{release: &t.mu}, nil
}

// serializedTx holds the transactor lock until Commit or Rollback. Rollback
// after Commit is a no-op, matching the usual defer pattern.
type serializedTx struct {
	release *sync.Mutex
	once    sync.Once
}

func (t *serializedTx) done() {
	t.once.Do(func() { t.release.Unlock() })
}

func (t *serializedTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *serializedTx) Commit(ctx context.Context) error          { t.done(); return nil }
func (t *serializedTx) Rollback(ctx context.Context) error        { t.done(); return nil }
func (t *serializedTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *serializedTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *serializedTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *serializedTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *serializedTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *serializedTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *serializedTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *serializedTx) Conn() *pgx.Conn { return nil }

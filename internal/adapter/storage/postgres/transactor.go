package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Transactor hands out pgx transactions from the pool. Every multi-row unit
// of work (wallet mutation + withdrawal row, order transition + side
// effects) runs inside one of these so the FOR UPDATE row locks taken by the
// repos hold until commit.
type Transactor struct {
	pool Pool
}

// NewTransactor creates a Transactor over the given pool.
func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool}
}

// Begin opens a transaction with the pool's default isolation (read
// committed). Row locks, not isolation level, provide the serialization.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return t.pool.Begin(ctx)
}

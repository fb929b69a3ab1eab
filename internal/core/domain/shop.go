package domain

import (
	"time"

	"github.com/google/uuid"
)

// Shop is a seller account. Revenue is a running metric of delivered order
// subtotals; the spendable money lives in the shop's Wallet.
type Shop struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Name      string    `json:"name"`
	Revenue   int64     `json:"revenue"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product is a catalog entry; Stock is decremented when an order reserves
// it and restocked if the order is cancelled.
type Product struct {
	ID        uuid.UUID `json:"id"`
	ShopID    uuid.UUID `json:"shop_id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

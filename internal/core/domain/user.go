package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrDuplicateEmail is returned by the user store when the email is taken.
var ErrDuplicateEmail = errors.New("email already registered")

// Role identifies what a user may do. One shop per owning user.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleShopOwner Role = "SHOP_OWNER"
	RoleBuyer     Role = "BUYER"
)

// User is a registered account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Actor is the verified auth context attached to every request. Capability
// checks go through Actor methods rather than ad hoc role comparisons.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin reports whether the actor holds the administrator role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanDecideWithdrawals reports whether the actor may approve or reject
// withdrawal requests.
func (a Actor) CanDecideWithdrawals() bool {
	return a.IsAdmin()
}

// CanActForShop reports whether the actor may operate on the given shop:
// administrators always, shop owners only on their own shop.
func (a Actor) CanActForShop(shop *Shop) bool {
	if a.IsAdmin() {
		return true
	}
	return a.Role == RoleShopOwner && shop != nil && shop.OwnerID == a.UserID
}

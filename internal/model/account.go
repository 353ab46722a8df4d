package model

import "time"

// Account roles.
const (
	RoleAdmin    = "Admin"
	RoleSupplier = "Supplier"
)

// Account is a marketplace account able to call the API. Credentials live in
// the relational accounts database; the inventory store only ever sees the
// account ID as the owner reference.
type Account struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Owner  string `json:"owner"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// TokenData is the payload stored with a session token.
type TokenData struct {
	AccountID int64     `json:"account_id"`
	Owner     string    `json:"owner"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

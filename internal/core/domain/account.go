package domain

import "time"

// Account is a registered API identity bound to an on-ledger address.
type Account struct {
	Address      Address   `json:"address"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

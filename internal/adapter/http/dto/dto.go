package dto

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Address  string `json:"address" binding:"required,min=3,max=128"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest is the request body for account login.
type LoginRequest struct {
	Address  string `json:"address" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	Address   string `json:"address"`
	CreatedAt string `json:"created_at"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// DepositNativeRequest is the request body for native deposits. Amounts are
// base-10 integer strings in the native 18-decimal precision.
type DepositNativeRequest struct {
	Amount string `json:"amount" binding:"required,bigint"`
}

// DepositAssetRequest is the request body for token deposits.
type DepositAssetRequest struct {
	Asset  string `json:"asset" binding:"required,max=128"`
	Amount string `json:"amount" binding:"required,bigint"`
}

// WithdrawNativeRequest is the request body for native withdrawals.
type WithdrawNativeRequest struct {
	Amount string `json:"amount" binding:"required,bigint"`
}

// WithdrawAssetRequest is the request body for token withdrawals.
type WithdrawAssetRequest struct {
	Asset  string `json:"asset" binding:"required,max=128"`
	Amount string `json:"amount" binding:"required,bigint"`
}

// ConfigureAssetRequest is the request body for asset registration.
type ConfigureAssetRequest struct {
	Asset     string `json:"asset" binding:"required,max=128"`
	Supported *bool  `json:"supported" binding:"required"`
}

// SetCapRequest is the request body for deposit cap updates. The cap is a
// base-10 integer string in internal units.
type SetCapRequest struct {
	Cap string `json:"cap" binding:"required,bigint"`
}

// GrantRoleRequest is the request body for role grants.
type GrantRoleRequest struct {
	Role    string `json:"role" binding:"required"`
	Account string `json:"account" binding:"required"`
}

// EventResponse is the response body for ledger events.
type EventResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Account   string `json:"account,omitempty"`
	Asset     string `json:"asset,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Value     string `json:"value,omitempty"`
	CreatedAt string `json:"created_at"`
}

// BalanceResponse is the response for balance queries.
type BalanceResponse struct {
	Asset   string `json:"asset,omitempty"`
	Account string `json:"account"`
	Balance string `json:"balance"`
}

// StateResponse is the response for global ledger state queries.
type StateResponse struct {
	DepositedValue string `json:"deposited_value"`
	Cap            string `json:"cap"`
	Paused         bool   `json:"paused"`
}

// PriceResponse is the response for the current oracle quote.
type PriceResponse struct {
	Price    string `json:"price"`
	Decimals uint8  `json:"decimals"`
}

// AssetResponse is the response for asset configuration.
type AssetResponse struct {
	Asset     string `json:"asset"`
	Supported bool   `json:"supported"`
	Decimals  uint8  `json:"decimals"`
}

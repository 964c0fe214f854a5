package domain

import "math/big"

// Address identifies an account. Accounts are implicit: they exist as soon
// as something is keyed by them.
type Address string

// IsZero reports whether the address is the null identifier.
func (a Address) IsZero() bool {
	return a == "" || a == "0x0000000000000000000000000000000000000000"
}

// Balance is a raw per-(asset, account) holding in the asset's native
// precision. Raw balances are the authoritative source of truth for
// withdrawal eligibility.
type Balance struct {
	Asset   AssetID  `json:"asset"`
	Account Address  `json:"account"`
	Raw     *big.Int `json:"raw"`
}

// LedgerState is the single-row global ledger state: the internal-unit sum
// of native deposits counted against the cap, and the cap itself.
type LedgerState struct {
	DepositedValue *big.Int `json:"deposited_value"` // internal units, native deposits only
	Cap            *big.Int `json:"cap"`             // internal units
}

// PricePoint is an oracle quote: price of one native unit, with the
// precision the oracle reports it in.
type PricePoint struct {
	Price    *big.Int `json:"price"`
	Decimals uint8    `json:"decimals"`
}

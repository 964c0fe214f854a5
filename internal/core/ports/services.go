package ports

//go:generate mockgen -source=services.go -destination=mocks/services_mock.go -package=mocks

import (
	"context"
	"math/big"
	"time"

	"custody-ledger/internal/core/domain"
)

// LedgerService defines the core balance ledger state transitions. Every
// mutating operation is logically atomic: it either fully commits or leaves
// no trace, and mutating calls are rejected while another is in flight.
type LedgerService interface {
	DepositNative(ctx context.Context, account domain.Address, amount *big.Int) (*domain.LedgerEvent, error)
	DepositAsset(ctx context.Context, account domain.Address, asset domain.AssetID, amount *big.Int) (*domain.LedgerEvent, error)
	WithdrawNative(ctx context.Context, account domain.Address, amount *big.Int) (*domain.LedgerEvent, error)
	WithdrawAsset(ctx context.Context, account domain.Address, asset domain.AssetID, amount *big.Int) (*domain.LedgerEvent, error)

	// SetDepositCap updates the global native-deposit ceiling (internal units).
	// Cap changes are permitted while the system is paused.
	SetDepositCap(ctx context.Context, caller domain.Address, cap *big.Int) error

	RawBalance(ctx context.Context, asset domain.AssetID, account domain.Address) (*big.Int, error)
	InternalBalance(ctx context.Context, account domain.Address) (*big.Int, error)
	State(ctx context.Context) (*domain.LedgerState, error)
}

// AccessService defines role checks and the emergency halt.
type AccessService interface {
	// Bootstrap grants every role to the deploying administrator. Idempotent.
	Bootstrap(ctx context.Context, admin domain.Address) error
	GrantRole(ctx context.Context, caller domain.Address, role domain.Role, account domain.Address) error
	HasRole(ctx context.Context, role domain.Role, account domain.Address) (bool, error)
	RequireRole(ctx context.Context, role domain.Role, account domain.Address) error
	// Pause and Unpause are idempotent; re-pausing still emits the event.
	Pause(ctx context.Context, caller domain.Address) error
	Unpause(ctx context.Context, caller domain.Address) error
	Paused(ctx context.Context) (bool, error)
	RequireNotPaused(ctx context.Context) error
}

// RegistryService defines asset configuration and lookup.
type RegistryService interface {
	ConfigureAsset(ctx context.Context, caller domain.Address, asset domain.AssetID, supported bool) (*domain.AssetConfig, error)
	// Lookup never fails on unknown assets; it returns a default-unsupported config.
	Lookup(ctx context.Context, asset domain.AssetID) (*domain.AssetConfig, error)
}

// OracleService validates oracle quotes and prices native amounts in
// internal units.
type OracleService interface {
	LatestPrice(ctx context.Context) (*domain.PricePoint, error)
	NativeToInternalValue(ctx context.Context, nativeAmount *big.Int) (*big.Int, error)
}

// AuthService defines account registration and login.
type AuthService interface {
	Register(ctx context.Context, address domain.Address, password string) (*domain.Account, error)
	Login(ctx context.Context, address domain.Address, password string) (string, time.Time, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(address domain.Address) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Address domain.Address
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// AuditService records observable events for configuration operations
// (ledger operations write their events transactionally instead).
type AuditService interface {
	Record(ctx context.Context, event *domain.LedgerEvent)
}

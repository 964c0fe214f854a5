package ports

import (
	"context"
	"math/big"

	"custody-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// BalanceRepository defines persistence for raw per-(asset, account) balances
// and the advisory per-account internal-unit balances.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type BalanceRepository interface {
	GetRaw(ctx context.Context, asset domain.AssetID, account domain.Address) (*big.Int, error)
	GetRawForUpdate(ctx context.Context, tx pgx.Tx, asset domain.AssetID, account domain.Address) (*big.Int, error)
	UpsertRaw(ctx context.Context, tx pgx.Tx, asset domain.AssetID, account domain.Address, amount *big.Int) error

	GetInternal(ctx context.Context, account domain.Address) (*big.Int, error)
	GetInternalForUpdate(ctx context.Context, tx pgx.Tx, account domain.Address) (*big.Int, error)
	UpsertInternal(ctx context.Context, tx pgx.Tx, account domain.Address, value *big.Int) error
}

// StateRepository defines persistence for the single-row global ledger state.
type StateRepository interface {
	// Ensure creates the state row with the given cap if it does not exist yet.
	Ensure(ctx context.Context, initialCap *big.Int) error
	Get(ctx context.Context) (*domain.LedgerState, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx) (*domain.LedgerState, error)
	Update(ctx context.Context, tx pgx.Tx, state *domain.LedgerState) error
	SetCap(ctx context.Context, cap *big.Int) error
}

// AssetRepository defines persistence for asset configurations.
type AssetRepository interface {
	Upsert(ctx context.Context, cfg *domain.AssetConfig) error
	// Get returns nil for unknown assets; callers apply the default-unsupported rule.
	Get(ctx context.Context, id domain.AssetID) (*domain.AssetConfig, error)
}

// AccessRepository defines persistence for role grants and the pause flag.
type AccessRepository interface {
	GrantRole(ctx context.Context, role domain.Role, account domain.Address) error
	HasRole(ctx context.Context, role domain.Role, account domain.Address) (bool, error)
	IsPaused(ctx context.Context) (bool, error)
	SetPaused(ctx context.Context, paused bool) error
}

// AccountRepository defines persistence for registered API accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	// GetByAddress returns nil if the account is not registered.
	GetByAddress(ctx context.Context, address domain.Address) (*domain.Account, error)
}

// EventRepository defines persistence for the audit event log.
type EventRepository interface {
	Create(ctx context.Context, event *domain.LedgerEvent) error
	CreateTx(ctx context.Context, tx pgx.Tx, event *domain.LedgerEvent) error
	List(ctx context.Context, limit int) ([]domain.LedgerEvent, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

package postgres

import (
	"context"
	"fmt"
	"math/big"

	"custody-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// StateRepo implements ports.StateRepository over the single-row
// ledger_state table. The fixed id keeps it single-row; locking that row is
// what serializes concurrent native deposits at the database level.
type StateRepo struct {
	pool Pool
}

// NewStateRepo creates a new StateRepo.
func NewStateRepo(pool Pool) *StateRepo {
	return &StateRepo{pool: pool}
}

func scanState(row pgx.Row) (*domain.LedgerState, error) {
	var deposited, cap string
	if err := row.Scan(&deposited, &cap); err != nil {
		return nil, err
	}
	d, err := parseBig(deposited)
	if err != nil {
		return nil, err
	}
	c, err := parseBig(cap)
	if err != nil {
		return nil, err
	}
	return &domain.LedgerState{DepositedValue: d, Cap: c}, nil
}

// Ensure creates the state row with the given cap if it does not exist yet.
// Idempotent across restarts: an existing row is left untouched.
func (r *StateRepo) Ensure(ctx context.Context, initialCap *big.Int) error {
	query := `INSERT INTO ledger_state (id, deposited_value, cap, updated_at)
		VALUES (1, 0, $1::numeric, NOW())
		ON CONFLICT (id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, initialCap.String()); err != nil {
		return fmt.Errorf("ensure ledger state: %w", err)
	}
	return nil
}

// Get returns the global state (non-locking read).
func (r *StateRepo) Get(ctx context.Context) (*domain.LedgerState, error) {
	query := `SELECT deposited_value::text, cap::text FROM ledger_state WHERE id = 1`

	state, err := scanState(r.pool.QueryRow(ctx, query))
	if err != nil {
		return nil, fmt.Errorf("get ledger state: %w", err)
	}
	return state, nil
}

// GetForUpdate locks and returns the state row. Must be called within a
// transaction.
func (r *StateRepo) GetForUpdate(ctx context.Context, tx pgx.Tx) (*domain.LedgerState, error) {
	query := `SELECT deposited_value::text, cap::text FROM ledger_state WHERE id = 1 FOR UPDATE`

	state, err := scanState(tx.QueryRow(ctx, query))
	if err != nil {
		return nil, fmt.Errorf("get ledger state for update: %w", err)
	}
	return state, nil
}

// Update writes the state within a transaction.
func (r *StateRepo) Update(ctx context.Context, tx pgx.Tx, state *domain.LedgerState) error {
	query := `UPDATE ledger_state SET deposited_value = $1::numeric, cap = $2::numeric, updated_at = NOW() WHERE id = 1`

	tag, err := tx.Exec(ctx, query, state.DepositedValue.String(), state.Cap.String())
	if err != nil {
		return fmt.Errorf("update ledger state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ledger state row missing")
	}
	return nil
}

// SetCap updates only the cap, outside any caller transaction.
func (r *StateRepo) SetCap(ctx context.Context, cap *big.Int) error {
	query := `UPDATE ledger_state SET cap = $1::numeric, updated_at = NOW() WHERE id = 1`

	tag, err := r.pool.Exec(ctx, query, cap.String())
	if err != nil {
		return fmt.Errorf("set deposit cap: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ledger state row missing")
	}
	return nil
}

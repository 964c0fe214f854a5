package postgres

import (
	"context"
	"errors"
	"fmt"

	"custody-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// AccessRepo implements ports.AccessRepository. Role grants live in their own
// table; the pause flag shares the single-row ledger_state table so a halt is
// visible in the same place operators already watch.
type AccessRepo struct {
	pool Pool
}

// NewAccessRepo creates a new AccessRepo.
func NewAccessRepo(pool Pool) *AccessRepo {
	return &AccessRepo{pool: pool}
}

// GrantRole records a role grant. Granting an already held role is a no-op.
func (r *AccessRepo) GrantRole(ctx context.Context, role domain.Role, account domain.Address) error {
	query := `INSERT INTO role_grants (role, account, granted_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (role, account) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, role, account); err != nil {
		return fmt.Errorf("grant role: %w", err)
	}
	return nil
}

// HasRole reports whether the account holds the role.
func (r *AccessRepo) HasRole(ctx context.Context, role domain.Role, account domain.Address) (bool, error) {
	query := `SELECT 1 FROM role_grants WHERE role = $1 AND account = $2`

	var one int
	err := r.pool.QueryRow(ctx, query, role, account).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("role lookup: %w", err)
	}
	return true, nil
}

// IsPaused reports the global pause flag.
func (r *AccessRepo) IsPaused(ctx context.Context) (bool, error) {
	query := `SELECT paused FROM ledger_state WHERE id = 1`

	var paused bool
	if err := r.pool.QueryRow(ctx, query).Scan(&paused); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("pause lookup: %w", err)
	}
	return paused, nil
}

// SetPaused writes the global pause flag.
func (r *AccessRepo) SetPaused(ctx context.Context, paused bool) error {
	query := `UPDATE ledger_state SET paused = $1, updated_at = NOW() WHERE id = 1`

	tag, err := r.pool.Exec(ctx, query, paused)
	if err != nil {
		return fmt.Errorf("set paused: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ledger state row missing")
	}
	return nil
}

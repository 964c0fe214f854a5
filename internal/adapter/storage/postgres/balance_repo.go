package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"custody-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// BalanceRepo implements ports.BalanceRepository. Amounts are stored as
// NUMERIC(78,0), wide enough for any 256-bit value, and moved through the
// driver as decimal strings.
type BalanceRepo struct {
	pool Pool
}

// NewBalanceRepo creates a new BalanceRepo.
func NewBalanceRepo(pool Pool) *BalanceRepo {
	return &BalanceRepo{pool: pool}
}

func parseBig(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("malformed numeric value %q", s)
	}
	return v, nil
}

func scanBig(row pgx.Row) (*big.Int, error) {
	var s string
	if err := row.Scan(&s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return new(big.Int), nil
		}
		return nil, err
	}
	return parseBig(s)
}

// GetRaw returns the raw balance for (asset, account); zero when no row exists.
func (r *BalanceRepo) GetRaw(ctx context.Context, asset domain.AssetID, account domain.Address) (*big.Int, error) {
	query := `SELECT amount::text FROM raw_balances WHERE asset = $1 AND account = $2`

	v, err := scanBig(r.pool.QueryRow(ctx, query, asset, account))
	if err != nil {
		return nil, fmt.Errorf("get raw balance: %w", err)
	}
	return v, nil
}

// GetRawForUpdate locks and returns the raw balance row. Must be called
// within a transaction.
func (r *BalanceRepo) GetRawForUpdate(ctx context.Context, tx pgx.Tx, asset domain.AssetID, account domain.Address) (*big.Int, error) {
	query := `SELECT amount::text FROM raw_balances WHERE asset = $1 AND account = $2 FOR UPDATE`

	v, err := scanBig(tx.QueryRow(ctx, query, asset, account))
	if err != nil {
		return nil, fmt.Errorf("get raw balance for update: %w", err)
	}
	return v, nil
}

// UpsertRaw writes the raw balance within a transaction.
func (r *BalanceRepo) UpsertRaw(ctx context.Context, tx pgx.Tx, asset domain.AssetID, account domain.Address, amount *big.Int) error {
	query := `INSERT INTO raw_balances (asset, account, amount, updated_at)
		VALUES ($1, $2, $3::numeric, NOW())
		ON CONFLICT (asset, account) DO UPDATE SET amount = EXCLUDED.amount, updated_at = NOW()`

	if _, err := tx.Exec(ctx, query, asset, account, amount.String()); err != nil {
		return fmt.Errorf("upsert raw balance: %w", err)
	}
	return nil
}

// GetInternal returns the account's internal-unit balance; zero when no row exists.
func (r *BalanceRepo) GetInternal(ctx context.Context, account domain.Address) (*big.Int, error) {
	query := `SELECT value::text FROM internal_balances WHERE account = $1`

	v, err := scanBig(r.pool.QueryRow(ctx, query, account))
	if err != nil {
		return nil, fmt.Errorf("get internal balance: %w", err)
	}
	return v, nil
}

// GetInternalForUpdate locks and returns the internal balance row. Must be
// called within a transaction.
func (r *BalanceRepo) GetInternalForUpdate(ctx context.Context, tx pgx.Tx, account domain.Address) (*big.Int, error) {
	query := `SELECT value::text FROM internal_balances WHERE account = $1 FOR UPDATE`

	v, err := scanBig(tx.QueryRow(ctx, query, account))
	if err != nil {
		return nil, fmt.Errorf("get internal balance for update: %w", err)
	}
	return v, nil
}

// UpsertInternal writes the internal-unit balance within a transaction.
func (r *BalanceRepo) UpsertInternal(ctx context.Context, tx pgx.Tx, account domain.Address, value *big.Int) error {
	query := `INSERT INTO internal_balances (account, value, updated_at)
		VALUES ($1, $2::numeric, NOW())
		ON CONFLICT (account) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	if _, err := tx.Exec(ctx, query, account, value.String()); err != nil {
		return fmt.Errorf("upsert internal balance: %w", err)
	}
	return nil
}

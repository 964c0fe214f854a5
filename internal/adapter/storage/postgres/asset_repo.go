package postgres

import (
	"context"
	"errors"
	"fmt"

	"custody-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// AssetRepo implements ports.AssetRepository.
type AssetRepo struct {
	pool Pool
}

// NewAssetRepo creates a new AssetRepo.
func NewAssetRepo(pool Pool) *AssetRepo {
	return &AssetRepo{pool: pool}
}

// Upsert inserts or overwrites an asset configuration.
func (r *AssetRepo) Upsert(ctx context.Context, cfg *domain.AssetConfig) error {
	query := `INSERT INTO assets (id, supported, decimals, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE SET supported = EXCLUDED.supported, decimals = EXCLUDED.decimals, updated_at = NOW()`

	if _, err := r.pool.Exec(ctx, query, cfg.ID, cfg.Supported, int16(cfg.Decimals)); err != nil {
		return fmt.Errorf("upsert asset: %w", err)
	}
	return nil
}

// Get fetches an asset configuration; nil for unknown assets.
func (r *AssetRepo) Get(ctx context.Context, id domain.AssetID) (*domain.AssetConfig, error) {
	query := `SELECT id, supported, decimals FROM assets WHERE id = $1`

	cfg := &domain.AssetConfig{}
	var decimals int16
	err := r.pool.QueryRow(ctx, query, id).Scan(&cfg.ID, &cfg.Supported, &decimals)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get asset: %w", err)
	}
	cfg.Decimals = uint8(decimals)
	return cfg, nil
}

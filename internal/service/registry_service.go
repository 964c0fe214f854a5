package service

import (
	"context"
	"fmt"

	"custody-ledger/internal/core/domain"
	"custody-ledger/internal/core/ports"
	"custody-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// RegistryServiceImpl implements ports.RegistryService.
type RegistryServiceImpl struct {
	repo      ports.AssetRepository
	assetInfo ports.AssetInfoSource
	access    ports.AccessService
	audit     ports.AuditService
	log       zerolog.Logger
}

// NewRegistryService creates a new RegistryServiceImpl.
func NewRegistryService(
	repo ports.AssetRepository,
	assetInfo ports.AssetInfoSource,
	access ports.AccessService,
	audit ports.AuditService,
	log zerolog.Logger,
) *RegistryServiceImpl {
	return &RegistryServiceImpl{
		repo:      repo,
		assetInfo: assetInfo,
		access:    access,
		audit:     audit,
		log:       log,
	}
}

// ConfigureAsset registers or re-registers an asset. Administrator-only.
// The asset's declared precision is queried from the asset itself; a prior
// configuration is overwritten, never deleted.
func (s *RegistryServiceImpl) ConfigureAsset(ctx context.Context, caller domain.Address, asset domain.AssetID, supported bool) (*domain.AssetConfig, error) {
	if err := s.access.RequireRole(ctx, domain.RoleAdministrator, caller); err != nil {
		return nil, err
	}
	if asset.IsZero() {
		return nil, apperror.ErrInvalidAddress()
	}

	decimals, err := s.assetInfo.Decimals(ctx, asset)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("query asset decimals: %w", err))
	}

	cfg := &domain.AssetConfig{
		ID:        asset,
		Supported: supported,
		Decimals:  decimals,
	}
	if err := s.repo.Upsert(ctx, cfg); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("upsert asset config: %w", err))
	}

	event := domain.NewLedgerEvent(domain.EventAssetConfigured)
	event.Asset = asset
	event.Account = caller
	s.audit.Record(ctx, event)

	s.log.Info().
		Str("asset", string(asset)).
		Bool("supported", supported).
		Uint8("decimals", decimals).
		Msg("asset configured")

	return cfg, nil
}

// Lookup returns the configuration for an asset, or a default-unsupported
// config for unknown assets. Callers must check Supported.
func (s *RegistryServiceImpl) Lookup(ctx context.Context, asset domain.AssetID) (*domain.AssetConfig, error) {
	cfg, err := s.repo.Get(ctx, asset)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("asset lookup: %w", err))
	}
	if cfg == nil {
		return &domain.AssetConfig{ID: asset, Supported: false}, nil
	}
	return cfg, nil
}

package ports

//go:generate mockgen -source=gateways.go -destination=mocks/gateways_mock.go -package=mocks

import (
	"context"
	"math/big"
	"time"

	"custody-ledger/internal/core/domain"
)

// CustodyGateway moves the underlying asset into or out of custody. A false
// result without an error means the custody node reported the transfer as
// unsuccessful; both cases surface to callers as TransferFailed.
type CustodyGateway interface {
	// Send transfers native currency out of custody to the account.
	Send(ctx context.Context, account domain.Address, amount *big.Int) (bool, error)
	// Pull transfers a token amount from the holder into custody.
	Pull(ctx context.Context, asset domain.AssetID, from domain.Address, amount *big.Int) (bool, error)
	// Push transfers a token amount out of custody to the recipient.
	Push(ctx context.Context, asset domain.AssetID, to domain.Address, amount *big.Int) (bool, error)
}

// AssetInfoSource answers decimals() queries for assets being configured.
type AssetInfoSource interface {
	Decimals(ctx context.Context, asset domain.AssetID) (uint8, error)
}

// PriceSource is the external oracle feed. Quotes are validated by the
// oracle service, not here.
type PriceSource interface {
	LatestRoundData(ctx context.Context) (*domain.PricePoint, error)
}

// PriceCache is the best-effort Redis layer in front of the price source.
type PriceCache interface {
	// Get returns nil, nil on cache miss.
	Get(ctx context.Context) (*domain.PricePoint, error)
	Set(ctx context.Context, point *domain.PricePoint, ttl time.Duration) error
}

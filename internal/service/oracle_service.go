package service

import (
	"context"
	"math/big"
	"time"

	"custody-ledger/internal/core/domain"
	"custody-ledger/internal/core/ports"
	"custody-ledger/pkg/apperror"
	"custody-ledger/pkg/numeric"

	"github.com/rs/zerolog"
)

// OracleServiceImpl implements ports.OracleService. It validates quotes from
// the external feed and keeps a short-lived Redis cache in front of it.
type OracleServiceImpl struct {
	source   ports.PriceSource
	cache    ports.PriceCache // nil = caching disabled
	cacheTTL time.Duration
	log      zerolog.Logger
}

// NewOracleService creates a new OracleServiceImpl.
func NewOracleService(source ports.PriceSource, cache ports.PriceCache, cacheTTL time.Duration, log zerolog.Logger) *OracleServiceImpl {
	return &OracleServiceImpl{
		source:   source,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// LatestPrice returns the current validated quote. Zero and negative prices
// are never trusted. There is no staleness check beyond that; the upstream
// feed reports no usable round timestamp.
func (s *OracleServiceImpl) LatestPrice(ctx context.Context) (*domain.PricePoint, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("price cache read failed, falling through to feed")
		}
		if cached != nil {
			return cached, nil
		}
	}

	point, err := s.source.LatestRoundData(ctx)
	if err != nil {
		return nil, apperror.ErrStalePriceOrInvalid()
	}
	if point == nil || point.Price == nil || point.Price.Sign() <= 0 {
		return nil, apperror.ErrStalePriceOrInvalid()
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, point, s.cacheTTL); err != nil {
			s.log.Warn().Err(err).Msg("price cache write failed")
		}
	}

	return point, nil
}

// NativeToInternalValue prices a native-currency amount in internal units:
// amount * price / 10^18, then scaled from the oracle's precision to the
// ledger's. The multiplication is overflow-checked.
func (s *OracleServiceImpl) NativeToInternalValue(ctx context.Context, nativeAmount *big.Int) (*big.Int, error) {
	point, err := s.LatestPrice(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := numeric.CheckedMul(nativeAmount, point.Price)
	if err != nil {
		return nil, err
	}
	raw.Quo(raw, numeric.Pow10(numeric.NativeDecimals))

	return numeric.ToInternal(raw, point.Decimals)
}

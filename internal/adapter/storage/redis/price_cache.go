package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"custody-ledger/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

const priceKey = "oracle:native-price"

// PriceCache implements ports.PriceCache. The quote is stored as JSON under a
// single key; the oracle service treats every failure here as a miss.
type PriceCache struct {
	client *goredis.Client
}

// NewPriceCache creates a new Redis-backed price cache.
func NewPriceCache(client *goredis.Client) *PriceCache {
	return &PriceCache{client: client}
}

type cachedPrice struct {
	Price    string `json:"price"`
	Decimals uint8  `json:"decimals"`
}

// Get retrieves the cached quote. Returns nil, nil on miss.
func (c *PriceCache) Get(ctx context.Context) (*domain.PricePoint, error) {
	val, err := c.client.Get(ctx, priceKey).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis price get: %w", err)
	}

	var cached cachedPrice
	if err := json.Unmarshal(val, &cached); err != nil {
		return nil, fmt.Errorf("decode cached price: %w", err)
	}
	price, ok := new(big.Int).SetString(cached.Price, 10)
	if !ok {
		return nil, fmt.Errorf("malformed cached price %q", cached.Price)
	}
	return &domain.PricePoint{Price: price, Decimals: cached.Decimals}, nil
}

// Set stores the quote with a TTL.
func (c *PriceCache) Set(ctx context.Context, point *domain.PricePoint, ttl time.Duration) error {
	payload, err := json.Marshal(cachedPrice{Price: point.Price.String(), Decimals: point.Decimals})
	if err != nil {
		return fmt.Errorf("encode price: %w", err)
	}
	if err := c.client.Set(ctx, priceKey, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis price set: %w", err)
	}
	return nil
}

package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"custody-ledger/internal/core/domain"

	"github.com/rs/zerolog"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements ports.PriceSource against the price feed's HTTP API.
// It reports whatever the feed returns; validation is the oracle service's job.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewClient creates a price feed client.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

type latestRoundResponse struct {
	Price    string `json:"price"`
	Decimals uint8  `json:"decimals"`
}

// LatestRoundData fetches the current native-currency quote.
func (c *Client) LatestRoundData(ctx context.Context) (*domain.PricePoint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/latest", nil)
	if err != nil {
		return nil, fmt.Errorf("build price request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price feed returned status %d", resp.StatusCode)
	}

	var body latestRoundResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode price response: %w", err)
	}

	price, ok := new(big.Int).SetString(body.Price, 10)
	if !ok {
		return nil, fmt.Errorf("malformed price %q", body.Price)
	}

	return &domain.PricePoint{Price: price, Decimals: body.Decimals}, nil
}

package custody

import (
	"bytes"
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

// Client implements ports.CustodyGateway and ports.AssetInfoSource against
// the custody node's HTTP API. A non-2xx status or success=false is reported
// as an unsuccessful transfer, not as a client error.
type Client struct {
	baseURL    string
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewClient creates a custody node client.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

type transferRequest struct {
	Asset   string `json:"asset,omitempty"`
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type transferResponse struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

func (c *Client) transfer(ctx context.Context, path string, req transferRequest) (bool, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return false, fmt.Errorf("encode transfer request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("build transfer request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false, fmt.Errorf("custody request: %w", err)
	}
	defer resp.Body.Close()

	var body transferResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decode custody response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !body.Success {
		c.log.Warn().
			Str("path", path).
			Int("status", resp.StatusCode).
			Str("reason", body.Reason).
			Msg("custody node rejected transfer")
		return false, nil
	}
	return true, nil
}

// Send transfers native currency out of custody to the account.
func (c *Client) Send(ctx context.Context, account domain.Address, amount *big.Int) (bool, error) {
	return c.transfer(ctx, "/v1/send", transferRequest{
		Account: string(account),
		Amount:  amount.String(),
	})
}

// Pull transfers a token amount from the holder into custody.
func (c *Client) Pull(ctx context.Context, asset domain.AssetID, from domain.Address, amount *big.Int) (bool, error) {
	return c.transfer(ctx, "/v1/pull", transferRequest{
		Asset:   string(asset),
		Account: string(from),
		Amount:  amount.String(),
	})
}

// Push transfers a token amount out of custody to the recipient.
func (c *Client) Push(ctx context.Context, asset domain.AssetID, to domain.Address, amount *big.Int) (bool, error) {
	return c.transfer(ctx, "/v1/push", transferRequest{
		Asset:   string(asset),
		Account: string(to),
		Amount:  amount.String(),
	})
}

type decimalsResponse struct {
	Decimals uint8 `json:"decimals"`
}

// Decimals queries the declared precision of an asset.
func (c *Client) Decimals(ctx context.Context, asset domain.AssetID) (uint8, error) {
	url := fmt.Sprintf("%s/v1/assets/%s/decimals", c.baseURL, asset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build decimals request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("decimals request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("decimals query returned status %d", resp.StatusCode)
	}

	var body decimalsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode decimals response: %w", err)
	}
	return body.Decimals, nil
}

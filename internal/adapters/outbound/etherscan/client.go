// Package etherscan resolves verified contract ABIs through the Etherscan v2 API,
// with rate limiting and retries for transient failures.
package etherscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/time/rate"

	"github.com/archon-research/lendpool/internal/pkg/blockchain/abis"
	"github.com/archon-research/lendpool/internal/pkg/retry"
	"github.com/archon-research/lendpool/internal/ports/outbound"
)

var _ outbound.ABISource = (*Client)(nil)

// ErrNotVerified is returned when the explorer has no verified source for the address.
var ErrNotVerified = errors.New("contract source code not verified")

// ClientConfig holds configuration for the Etherscan client.
type ClientConfig struct {
	// APIKey is the Etherscan API key.
	APIKey string

	// ChainID selects the chain on the multichain v2 endpoint. Defaults to 1.
	ChainID int64

	// BaseURL defaults to https://api.etherscan.io/v2/api
	BaseURL string

	Timeout time.Duration

	// MaxRetries for transient failures. -1 disables retries (0 uses the default of 3).
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64

	// RateLimitPerSec defaults to 2 (free tier allows 3).
	RateLimitPerSec int

	Logger     *slog.Logger
	HTTPClient *http.Client
}

// ClientConfigDefaults returns a config with default values.
func ClientConfigDefaults() ClientConfig {
	return ClientConfig{
		ChainID:         1,
		BaseURL:         "https://api.etherscan.io/v2/api",
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		InitialBackoff:  1 * time.Second,
		MaxBackoff:      10 * time.Second,
		BackoffFactor:   2.0,
		RateLimitPerSec: 2,
		Logger:          slog.Default(),
	}
}

// Client fetches ABIs from Etherscan.
type Client struct {
	config      ClientConfig
	httpClient  *http.Client
	logger      *slog.Logger
	limiter     *rate.Limiter
	retryConfig retry.Config
}

// NewClient creates a new Etherscan API client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.New("APIKey is required")
	}

	applyDefaults(&config, ClientConfigDefaults())

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		logger:     config.Logger.With("component", "etherscan-client"),
		limiter:    rate.NewLimiter(rate.Limit(config.RateLimitPerSec), 1),
		retryConfig: retry.Config{
			MaxRetries:     config.MaxRetries,
			InitialBackoff: config.InitialBackoff,
			MaxBackoff:     config.MaxBackoff,
			BackoffFactor:  config.BackoffFactor,
		},
	}, nil
}

func applyDefaults(config *ClientConfig, defaults ClientConfig) {
	if config.ChainID == 0 {
		config.ChainID = defaults.ChainID
	}
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = defaults.MaxRetries
	} else if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.InitialBackoff == 0 {
		config.InitialBackoff = defaults.InitialBackoff
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = defaults.MaxBackoff
	}
	if config.BackoffFactor == 0 {
		config.BackoffFactor = defaults.BackoffFactor
	}
	if config.RateLimitPerSec == 0 {
		config.RateLimitPerSec = defaults.RateLimitPerSec
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
}

// GetABI returns the verified ABI of address.
func (c *Client) GetABI(ctx context.Context, address common.Address) (*abi.ABI, error) {
	params := url.Values{
		"chainid": {strconv.FormatInt(c.config.ChainID, 10)},
		"module":  {"contract"},
		"action":  {"getabi"},
		"address": {address.Hex()},
		"apikey":  {c.config.APIKey},
	}

	var response apiResponse
	if err := c.doRequest(ctx, params, &response); err != nil {
		return nil, fmt.Errorf("fetching abi for %s: %w", address.Hex(), err)
	}

	parsed, err := abis.ParseABI(response.Result)
	if err != nil {
		return nil, fmt.Errorf("parsing abi for %s: %w", address.Hex(), err)
	}
	c.logger.Debug("abi fetched", "address", address.Hex(), "methods", len(parsed.Methods))
	return parsed, nil
}

func (c *Client) doRequest(ctx context.Context, params url.Values, result any) error {
	fullURL := fmt.Sprintf("%s?%s", c.config.BaseURL, params.Encode())

	isRetryable := func(err error) bool {
		var nonRetryable *nonRetryableError
		return !errors.As(err, &nonRetryable)
	}

	onRetry := func(attempt int, err error, backoff time.Duration) {
		c.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"maxRetries", c.retryConfig.MaxRetries,
			"backoff", backoff,
			"error", err,
		)
	}

	return retry.DoVoid(ctx, c.retryConfig, isRetryable, onRetry, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return &nonRetryableError{err: fmt.Errorf("rate limiter: %w", err)}
		}
		return c.doSingleRequest(ctx, fullURL, result)
	})
}

func (c *Client) doSingleRequest(ctx context.Context, fullURL string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return &nonRetryableError{err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("rate limited (HTTP 429)")
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("server error (HTTP %d)", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &nonRetryableError{err: fmt.Errorf("client error (HTTP %d): %s", resp.StatusCode, string(body))}
	}

	// Etherscan reports failures as HTTP 200 with status "0".
	var apiResp apiResponse
	if jsonErr := json.Unmarshal(body, &apiResp); jsonErr == nil && apiResp.Status == "0" {
		lower := strings.ToLower(apiResp.Result)
		switch {
		case strings.Contains(lower, "rate limit"):
			return fmt.Errorf("rate limited: %s", apiResp.Result)
		case strings.Contains(lower, "not verified"):
			return &nonRetryableError{err: fmt.Errorf("%w: %s", ErrNotVerified, apiResp.Result)}
		}
		return &nonRetryableError{err: fmt.Errorf("API error: %s - %s", apiResp.Message, apiResp.Result)}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return &nonRetryableError{err: fmt.Errorf("parsing response: %w", err)}
	}
	return nil
}

// nonRetryableError wraps errors that should not be retried.
type nonRetryableError struct {
	err error
}

func (e *nonRetryableError) Error() string {
	return e.err.Error()
}

func (e *nonRetryableError) Unwrap() error {
	return e.err
}

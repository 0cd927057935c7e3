// Package redis provides a Redis implementation of the TokenCache port.
//
// Token metadata is stored as JSON under prefix:chainID:address with a TTL,
// so symbol and decimals lookups survive across CLI invocations.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"github.com/archon-research/lendpool/internal/domain/entity"
	"github.com/archon-research/lendpool/internal/ports/outbound"
)

var _ outbound.TokenCache = (*TokenCache)(nil)

// Config holds Redis cache configuration.
type Config struct {
	// Addr is the Redis server address (e.g., "localhost:6379")
	Addr string
	// Password for Redis authentication (empty for no auth)
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// TTL is how long cached metadata lives before expiring
	TTL time.Duration
	// KeyPrefix is prepended to all cache keys
	KeyPrefix string
}

// ConfigDefaults returns sensible defaults for the token cache.
func ConfigDefaults() Config {
	return Config{
		Addr:      "localhost:6379",
		TTL:       7 * 24 * time.Hour,
		KeyPrefix: "lendpool:token",
	}
}

// cachedToken is the JSON value stored per key.
type cachedToken struct {
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// TokenCache is a Redis implementation of outbound.TokenCache.
type TokenCache struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
	logger    *slog.Logger
}

// NewTokenCache creates a new Redis token cache. Zero TTL and prefix take the defaults.
func NewTokenCache(cfg Config, logger *slog.Logger) (*TokenCache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	defaults := ConfigDefaults()
	if cfg.TTL <= 0 {
		cfg.TTL = defaults.TTL
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaults.KeyPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if logger == nil {
		logger = slog.Default()
	}

	return &TokenCache{
		client:    client,
		ttl:       cfg.TTL,
		keyPrefix: cfg.KeyPrefix,
		logger:    logger.With("component", "redis-token-cache"),
	}, nil
}

// Ping checks the Redis connection.
func (c *TokenCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *TokenCache) Close() error {
	return c.client.Close()
}

// key lowercases the address so checksummed and plain inputs share an entry.
func (c *TokenCache) key(chainID int64, address common.Address) string {
	return fmt.Sprintf("%s:%d:%s", c.keyPrefix, chainID, strings.ToLower(address.Hex()))
}

func (c *TokenCache) Get(ctx context.Context, chainID int64, address common.Address) (*entity.TokenMetadata, bool, error) {
	data, err := c.client.Get(ctx, c.key(chainID, address)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get token: %w", err)
	}

	var v cachedToken
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("discarding corrupt cache entry", "address", address.Hex(), "error", err)
		return nil, false, nil
	}
	return &entity.TokenMetadata{
		ChainID:  chainID,
		Address:  address,
		Symbol:   v.Symbol,
		Decimals: v.Decimals,
	}, true, nil
}

func (c *TokenCache) Set(ctx context.Context, token *entity.TokenMetadata) error {
	if token == nil {
		return fmt.Errorf("token cannot be nil")
	}
	data, err := json.Marshal(cachedToken{Symbol: token.Symbol, Decimals: token.Decimals})
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := c.client.Set(ctx, c.key(token.ChainID, token.Address), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache token: %w", err)
	}
	return nil
}

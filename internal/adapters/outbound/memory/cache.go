package memory

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/lendpool/internal/domain/entity"
	"github.com/archon-research/lendpool/internal/ports/outbound"
)

var _ outbound.TokenCache = (*TokenCache)(nil)

type tokenKey struct {
	chainID int64
	address common.Address
}

// TokenCache is a map-backed token metadata cache without expiry.
type TokenCache struct {
	mu     sync.RWMutex
	tokens map[tokenKey]entity.TokenMetadata
}

func NewTokenCache() *TokenCache {
	return &TokenCache{tokens: make(map[tokenKey]entity.TokenMetadata)}
}

func (c *TokenCache) Get(_ context.Context, chainID int64, address common.Address) (*entity.TokenMetadata, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tokens[tokenKey{chainID, address}]
	if !ok {
		return nil, false, nil
	}
	return &t, true, nil
}

func (c *TokenCache) Set(_ context.Context, token *entity.TokenMetadata) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[tokenKey{token.ChainID, token.Address}] = *token
	return nil
}

func (c *TokenCache) Close() error { return nil }

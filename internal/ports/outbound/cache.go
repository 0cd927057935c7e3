package outbound

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/lendpool/internal/domain/entity"
)

// TokenCache caches ERC-20 metadata keyed by chain and address.
type TokenCache interface {
	// Get returns the cached metadata and true, or nil and false on a miss.
	Get(ctx context.Context, chainID int64, address common.Address) (*entity.TokenMetadata, bool, error)
	Set(ctx context.Context, token *entity.TokenMetadata) error
	Close() error
}

package shared

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/lendpool/internal/domain/entity"
	"github.com/archon-research/lendpool/internal/pkg/blockchain"
	"github.com/archon-research/lendpool/internal/pkg/blockchain/abis"
	"github.com/archon-research/lendpool/internal/ports/outbound"
)

// TokenLookup resolves ERC-20 metadata through the token cache, fetching
// misses with a single multicall.
type TokenLookup struct {
	chainID     int64
	multicaller outbound.Multicaller
	cache       outbound.TokenCache
	erc20       *blockchain.Contract
	logger      *slog.Logger
}

// NewTokenLookup creates a TokenLookup for chainID.
func NewTokenLookup(chainID int64, multicaller outbound.Multicaller, cache outbound.TokenCache, logger *slog.Logger) (*TokenLookup, error) {
	if multicaller == nil {
		return nil, fmt.Errorf("multicaller cannot be nil")
	}
	if cache == nil {
		return nil, fmt.Errorf("token cache cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	erc20ABI, err := abis.GetERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("loading ERC20 ABI: %w", err)
	}
	return &TokenLookup{
		chainID:     chainID,
		multicaller: multicaller,
		cache:       cache,
		erc20:       blockchain.NewContract(common.Address{}, erc20ABI),
		logger:      logger.With("component", "token-lookup"),
	}, nil
}

// Get returns metadata for a single token.
func (l *TokenLookup) Get(ctx context.Context, token common.Address) (*entity.TokenMetadata, error) {
	out, err := l.GetMany(ctx, []common.Address{token})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// GetMany returns metadata for tokens in the given order.
func (l *TokenLookup) GetMany(ctx context.Context, tokens []common.Address) ([]*entity.TokenMetadata, error) {
	out := make([]*entity.TokenMetadata, len(tokens))
	var missing []int

	for i, token := range tokens {
		meta, ok, err := l.cache.Get(ctx, l.chainID, token)
		if err != nil {
			// A broken cache only costs an extra RPC round trip.
			l.logger.Warn("token cache read failed", "token", token.Hex(), "error", err)
		}
		if ok {
			out[i] = meta
			continue
		}
		missing = append(missing, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	calls := make([]outbound.Call, 0, 2*len(missing))
	for _, i := range missing {
		token := blockchain.NewContract(tokens[i], l.erc20.ABI)
		symbolCall, err := token.MulticallEntry(true, "symbol")
		if err != nil {
			return nil, err
		}
		decimalsCall, err := token.MulticallEntry(false, "decimals")
		if err != nil {
			return nil, err
		}
		calls = append(calls, symbolCall, decimalsCall)
	}

	results, err := l.multicaller.Execute(ctx, calls, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching token metadata: %w", err)
	}

	for j, i := range missing {
		token := tokens[i]
		symbol := ""
		if r := results[2*j]; r.Success {
			// Some tokens (MKR) return bytes32 and fail to decode as string.
			if s, err := blockchain.UnpackOne[string](l.erc20, "symbol", r.ReturnData); err == nil {
				symbol = s
			}
		}
		if symbol == "" {
			symbol = token.Hex()[:10]
		}
		decimals, err := blockchain.UnpackOne[uint8](l.erc20, "decimals", results[2*j+1].ReturnData)
		if err != nil {
			return nil, fmt.Errorf("token %s: %w", token.Hex(), err)
		}

		meta, err := entity.NewTokenMetadata(l.chainID, token, symbol, decimals)
		if err != nil {
			return nil, err
		}
		if err := l.cache.Set(ctx, meta); err != nil {
			l.logger.Warn("token cache write failed", "token", token.Hex(), "error", err)
		}
		out[i] = meta
	}
	return out, nil
}

package blockchain

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/lendpool/internal/domain/entity"
	"github.com/archon-research/lendpool/internal/pkg/blockchain/abis"
)

// ErrAddressesProviderNotConfigured is returned when an address must be
// discovered on-chain but no PoolAddressesProvider is configured.
var ErrAddressesProviderNotConfigured = errors.New("pool addresses provider not configured")

// AaveResolver resolves the Pool and price oracle of an Aave V3 market.
// Configured addresses win; missing ones are read from the PoolAddressesProvider.
type AaveResolver struct {
	caller    ethereum.ContractCaller
	contracts entity.Contracts
	provider  *Contract
	pool      *Contract
}

// NewAaveResolver creates a new AaveResolver.
func NewAaveResolver(caller ethereum.ContractCaller, contracts entity.Contracts) (*AaveResolver, error) {
	providerABI, err := abis.GetPoolAddressesProviderABI()
	if err != nil {
		return nil, fmt.Errorf("loading PoolAddressesProvider ABI: %w", err)
	}
	poolABI, err := abis.GetPoolABI()
	if err != nil {
		return nil, fmt.Errorf("loading Pool ABI: %w", err)
	}
	return &AaveResolver{
		caller:    caller,
		contracts: contracts,
		provider:  NewContract(contracts.PoolAddressesProvider, providerABI),
		pool:      NewContract(contracts.Pool, poolABI),
	}, nil
}

func (r *AaveResolver) ResolvePool(ctx context.Context) (common.Address, error) {
	if entity.IsSet(r.contracts.Pool) {
		return r.contracts.Pool, nil
	}
	addr, err := r.viaProvider(ctx, "getPool")
	if err != nil {
		return common.Address{}, fmt.Errorf("resolving pool: %w", err)
	}
	return addr, nil
}

func (r *AaveResolver) ResolveOracle(ctx context.Context) (common.Address, error) {
	if entity.IsSet(r.contracts.Oracle) {
		return r.contracts.Oracle, nil
	}
	addr, err := r.viaProvider(ctx, "getPriceOracle")
	if err != nil {
		return common.Address{}, fmt.Errorf("resolving oracle: %w", err)
	}
	return addr, nil
}

// ResolveAddressesProvider returns the configured PoolAddressesProvider, or
// asks the configured Pool for its ADDRESSES_PROVIDER.
func (r *AaveResolver) ResolveAddressesProvider(ctx context.Context) (common.Address, error) {
	if entity.IsSet(r.provider.Address) {
		return r.provider.Address, nil
	}
	if !entity.IsSet(r.pool.Address) {
		return common.Address{}, ErrAddressesProviderNotConfigured
	}
	addr, err := CallOne[common.Address](ctx, r.caller, r.pool, "ADDRESSES_PROVIDER")
	if err != nil {
		return common.Address{}, fmt.Errorf("resolving addresses provider: %w", err)
	}
	if !entity.IsSet(addr) {
		return common.Address{}, fmt.Errorf("ADDRESSES_PROVIDER returned the zero address")
	}
	return addr, nil
}

func (r *AaveResolver) viaProvider(ctx context.Context, method string) (common.Address, error) {
	if !entity.IsSet(r.provider.Address) {
		return common.Address{}, ErrAddressesProviderNotConfigured
	}
	addr, err := CallOne[common.Address](ctx, r.caller, r.provider, method)
	if err != nil {
		return common.Address{}, err
	}
	if !entity.IsSet(addr) {
		return common.Address{}, fmt.Errorf("%s returned the zero address", method)
	}
	return addr, nil
}

package blockchain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/lendpool/internal/domain/entity"
	"github.com/archon-research/lendpool/internal/pkg/blockchain/abis"
)

// providerStub answers getPool/getPriceOracle by selector.
type providerStub struct {
	t      *testing.T
	pool   common.Address
	oracle common.Address
	calls  int
}

func (p *providerStub) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	p.calls++
	providerABI, err := abis.GetPoolAddressesProviderABI()
	if err != nil {
		p.t.Fatalf("abi: %v", err)
	}
	method, err := providerABI.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "getPool":
		return method.Outputs.Pack(p.pool)
	case "getPriceOracle":
		return method.Outputs.Pack(p.oracle)
	}
	return nil, errors.New("unexpected method")
}

func TestAaveResolver_ConfiguredAddressesWin(t *testing.T) {
	stub := &providerStub{t: t}
	contracts := entity.Contracts{
		PoolAddressesProvider: common.HexToAddress("0xa1"),
		Pool:                  common.HexToAddress("0xb1"),
		Oracle:                common.HexToAddress("0xc1"),
	}
	r, err := NewAaveResolver(stub, contracts)
	if err != nil {
		t.Fatalf("NewAaveResolver: %v", err)
	}

	pool, err := r.ResolvePool(context.Background())
	if err != nil || pool != contracts.Pool {
		t.Fatalf("ResolvePool = %s, %v", pool.Hex(), err)
	}
	oracle, err := r.ResolveOracle(context.Background())
	if err != nil || oracle != contracts.Oracle {
		t.Fatalf("ResolveOracle = %s, %v", oracle.Hex(), err)
	}
	if stub.calls != 0 {
		t.Errorf("expected no on-chain calls, got %d", stub.calls)
	}
}

func TestAaveResolver_FallsBackToProvider(t *testing.T) {
	stub := &providerStub{
		t:      t,
		pool:   common.HexToAddress("0x87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2"),
		oracle: common.HexToAddress("0x54586bE62E3c3580375aE3723C145253060Ca0C2"),
	}
	r, err := NewAaveResolver(stub, entity.Contracts{
		PoolAddressesProvider: common.HexToAddress("0x2f39d218133AFaB8F2B819B1066c7E434Ad94E9e"),
	})
	if err != nil {
		t.Fatalf("NewAaveResolver: %v", err)
	}

	pool, err := r.ResolvePool(context.Background())
	if err != nil {
		t.Fatalf("ResolvePool: %v", err)
	}
	if pool != stub.pool {
		t.Errorf("pool = %s, want %s", pool.Hex(), stub.pool.Hex())
	}
	oracle, err := r.ResolveOracle(context.Background())
	if err != nil {
		t.Fatalf("ResolveOracle: %v", err)
	}
	if oracle != stub.oracle {
		t.Errorf("oracle = %s, want %s", oracle.Hex(), stub.oracle.Hex())
	}
}

func TestAaveResolver_Errors(t *testing.T) {
	t.Run("no provider", func(t *testing.T) {
		r, _ := NewAaveResolver(&providerStub{t: t}, entity.Contracts{})
		_, err := r.ResolvePool(context.Background())
		if !errors.Is(err, ErrAddressesProviderNotConfigured) {
			t.Fatalf("expected ErrAddressesProviderNotConfigured, got %v", err)
		}
	})

	t.Run("provider returns zero", func(t *testing.T) {
		r, _ := NewAaveResolver(&providerStub{t: t}, entity.Contracts{PoolAddressesProvider: common.HexToAddress("0xa1")})
		if _, err := r.ResolvePool(context.Background()); err == nil {
			t.Fatal("expected error for zero pool address")
		}
	})
}

// poolStub answers ADDRESSES_PROVIDER.
type poolStub struct {
	provider common.Address
}

func (p *poolStub) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	poolABI, err := abis.GetPoolABI()
	if err != nil {
		return nil, err
	}
	method, err := poolABI.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	if method.Name != "ADDRESSES_PROVIDER" {
		return nil, errors.New("unexpected method " + method.Name)
	}
	return method.Outputs.Pack(p.provider)
}

func TestAaveResolver_ResolveAddressesProvider(t *testing.T) {
	ctx := context.Background()
	provider := common.HexToAddress("0x2f39d218133AFaB8F2B819B1066c7E434Ad94E9e")

	r, _ := NewAaveResolver(&poolStub{}, entity.Contracts{PoolAddressesProvider: provider})
	if got, err := r.ResolveAddressesProvider(ctx); err != nil || got != provider {
		t.Errorf("configured provider = %s, %v", got.Hex(), err)
	}

	r, _ = NewAaveResolver(&poolStub{provider: provider}, entity.Contracts{Pool: common.HexToAddress("0xb1")})
	if got, err := r.ResolveAddressesProvider(ctx); err != nil || got != provider {
		t.Errorf("provider via pool = %s, %v", got.Hex(), err)
	}

	r, _ = NewAaveResolver(&poolStub{}, entity.Contracts{})
	if _, err := r.ResolveAddressesProvider(ctx); !errors.Is(err, ErrAddressesProviderNotConfigured) {
		t.Errorf("expected ErrAddressesProviderNotConfigured, got %v", err)
	}
}

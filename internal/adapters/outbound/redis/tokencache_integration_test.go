//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/lendpool/internal/domain/entity"
	"github.com/archon-research/lendpool/internal/testutil"
)

func setupRedis(t *testing.T, ttl time.Duration) (*TokenCache, func()) {
	t.Helper()
	ctx := context.Background()

	addr, containerCleanup := testutil.StartRedis(t)
	cache, err := NewTokenCache(Config{Addr: addr, TTL: ttl, KeyPrefix: "test"}, testutil.DiscardLogger())
	if err != nil {
		containerCleanup()
		t.Fatalf("failed to create token cache: %v", err)
	}

	for i := 0; i < 30; i++ {
		if err := cache.Ping(ctx); err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	return cache, func() {
		cache.Close()
		containerCleanup()
	}
}

func TestTokenCache_SetGet(t *testing.T) {
	cache, cleanup := setupRedis(t, time.Hour)
	defer cleanup()
	ctx := context.Background()

	weth := common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")

	_, ok, err := cache.Get(ctx, 1, weth)
	if err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := cache.Set(ctx, &entity.TokenMetadata{ChainID: 1, Address: weth, Symbol: "WETH", Decimals: 18}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok, err := cache.Get(ctx, 1, weth)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.Symbol != "WETH" || got.Decimals != 18 || got.Address != weth || got.ChainID != 1 {
		t.Errorf("unexpected token: %+v", got)
	}

	if _, ok, _ := cache.Get(ctx, 31337, weth); ok {
		t.Error("entries must be scoped by chain")
	}
}

func TestTokenCache_Expiry(t *testing.T) {
	cache, cleanup := setupRedis(t, time.Second)
	defer cleanup()
	ctx := context.Background()

	usdc := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	if err := cache.Set(ctx, &entity.TokenMetadata{ChainID: 1, Address: usdc, Symbol: "USDC", Decimals: 6}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	time.Sleep(1500 * time.Millisecond)

	if _, ok, err := cache.Get(ctx, 1, usdc); err != nil || ok {
		t.Errorf("expected expired entry, got ok=%v err=%v", ok, err)
	}
}

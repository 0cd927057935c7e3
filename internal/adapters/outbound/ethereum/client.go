// Package ethereum connects to JSON-RPC nodes and submits transactions.
package ethereum

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/archon-research/lendpool/internal/domain/entity"
)

// DialConfig holds RPC connection settings.
type DialConfig struct {
	// Timeout bounds a single HTTP request. Defaults to 60s.
	Timeout time.Duration

	// MaxConnsPerHost defaults to 4; the tooling issues calls sequentially.
	MaxConnsPerHost int

	Logger *slog.Logger
}

func newHTTPClient(cfg DialConfig) *http.Client {
	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          cfg.MaxConnsPerHost * 2,
			MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
			MaxConnsPerHost:       cfg.MaxConnsPerHost,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// Dial connects to the network's RPC endpoint and checks that the node's
// chain ID matches configuration. A network configured with chain ID 0 adopts
// the node's ID.
func Dial(ctx context.Context, network *entity.Network, cfg DialConfig) (*ethclient.Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxConnsPerHost == 0 {
		cfg.MaxConnsPerHost = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	rpcClient, err := rpc.DialOptions(ctx, network.RPCURL, rpc.WithHTTPClient(newHTTPClient(cfg)))
	if err != nil {
		return nil, fmt.Errorf("connecting to RPC: %w", err)
	}
	client := ethclient.NewClient(rpcClient)

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("fetching chain ID: %w", err)
	}
	switch {
	case network.ChainID == 0:
		network.ChainID = chainID.Int64()
	case chainID.Int64() != network.ChainID:
		client.Close()
		return nil, fmt.Errorf("network %q: node reports chain ID %d, configured %d", network.Name, chainID.Int64(), network.ChainID)
	}

	cfg.Logger.Debug("Ethereum RPC connected", "network", network.Name, "chainId", network.ChainID)
	return client, nil
}

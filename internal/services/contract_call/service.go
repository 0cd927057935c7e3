// Package contract_call performs read-only calls against arbitrary contracts,
// resolving the ABI from a build artifact, a block explorer or the built-in
// Aave and token fragments.
package contract_call

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/lendpool/internal/pkg/blockchain"
	"github.com/archon-research/lendpool/internal/pkg/blockchain/abis"
	"github.com/archon-research/lendpool/internal/ports/outbound"
)

// Request describes a read-only call.
type Request struct {
	Address common.Address
	Method  string
	Args    []string

	// Artifact optionally names a build artifact whose ABI describes Address.
	Artifact string
}

// Config holds configuration for the call service.
type Config struct {
	Out    io.Writer
	Logger *slog.Logger
}

// Service performs read-only contract calls.
type Service struct {
	config    Config
	caller    ethereum.ContractCaller
	artifacts outbound.ArtifactReader
	explorer  outbound.ABISource
	builtin   []*abi.ABI
	logger    *slog.Logger
}

// NewService creates a call service. artifacts and explorer may be nil.
func NewService(config Config, caller ethereum.ContractCaller, artifacts outbound.ArtifactReader, explorer outbound.ABISource) (*Service, error) {
	if caller == nil {
		return nil, fmt.Errorf("caller cannot be nil")
	}
	if config.Out == nil {
		config.Out = os.Stdout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	var builtin []*abi.ABI
	for _, load := range []func() (*abi.ABI, error){
		abis.GetPoolABI,
		abis.GetPoolAddressesProviderABI,
		abis.GetAaveOracleABI,
		abis.GetWETHABI,
		abis.GetMulticall3ABI,
	} {
		parsed, err := load()
		if err != nil {
			return nil, fmt.Errorf("loading built-in ABI: %w", err)
		}
		builtin = append(builtin, parsed)
	}

	return &Service{
		config:    config,
		caller:    caller,
		artifacts: artifacts,
		explorer:  explorer,
		builtin:   builtin,
		logger:    config.Logger.With("component", "contract-call"),
	}, nil
}

// Call resolves the ABI, calls req.Method and prints the decoded outputs.
func (s *Service) Call(ctx context.Context, req Request) ([]any, error) {
	parsed, err := s.resolveABI(ctx, req)
	if err != nil {
		return nil, err
	}
	method, ok := parsed.Methods[req.Method]
	if !ok {
		return nil, fmt.Errorf("method %s not found in ABI of %s", req.Method, req.Address.Hex())
	}
	if !method.IsConstant() {
		return nil, fmt.Errorf("method %s is %s; only view and pure methods can be called", req.Method, method.StateMutability)
	}

	args, err := blockchain.ParseArgs(method.Inputs, req.Args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.Method, err)
	}
	out, err := blockchain.NewContract(req.Address, parsed).Call(ctx, s.caller, req.Method, args...)
	if err != nil {
		return nil, err
	}

	for i, v := range out {
		name := method.Outputs[i].Name
		if name == "" {
			name = fmt.Sprintf("[%d]", i)
		}
		fmt.Fprintf(s.config.Out, "%s: %s\n", name, formatValue(v))
	}
	return out, nil
}

func (s *Service) resolveABI(ctx context.Context, req Request) (*abi.ABI, error) {
	if req.Artifact != "" {
		if s.artifacts == nil {
			return nil, fmt.Errorf("no artifact reader configured")
		}
		data, err := s.artifacts.ReadArtifact(ctx, req.Artifact)
		if err != nil {
			return nil, err
		}
		artifact, err := blockchain.ParseArtifact(data, blockchain.ArtifactName(req.Artifact))
		if err != nil {
			return nil, err
		}
		return artifact.ABI, nil
	}

	if s.explorer != nil {
		parsed, err := s.explorer.GetABI(ctx, req.Address)
		if err == nil {
			return parsed, nil
		}
		s.logger.Warn("explorer ABI lookup failed, trying built-in ABIs", "address", req.Address.Hex(), "error", err)
	}

	for _, parsed := range s.builtin {
		if _, ok := parsed.Methods[req.Method]; ok {
			return parsed, nil
		}
	}
	return nil, fmt.Errorf("no ABI for %s with method %s: pass --artifact or set ETHERSCAN_API_KEY", req.Address.Hex(), req.Method)
}

func formatValue(v any) string {
	switch x := v.(type) {
	case *big.Int:
		return x.String()
	case common.Address:
		return x.Hex()
	case []byte:
		return fmt.Sprintf("0x%x", x)
	case [32]byte:
		return fmt.Sprintf("0x%x", x[:])
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Package lending drives an Aave V3 Pool: approvals, supply, borrow, withdraw
// and repay, plus the read-only account and reserve queries around them.
//
// Every state-changing operation waits for its transaction to be mined before
// the next one is sent. Supply never calls the pool while its approval is
// still pending.
package lending

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/archon-research/lendpool/internal/pkg/blockchain"
	"github.com/archon-research/lendpool/internal/pkg/blockchain/abis"
	"github.com/archon-research/lendpool/internal/ports/outbound"
	"github.com/archon-research/lendpool/internal/services/shared"
)

// DefaultBorrowFraction is the share of the available borrowing power used
// when no borrow amount is given.
const DefaultBorrowFraction = 0.5

// Config holds configuration for the lending service.
type Config struct {
	// BorrowFraction is applied to availableBorrowsBase when Borrow gets no amount.
	BorrowFraction float64

	// Out receives the human-readable results.
	Out    io.Writer
	Logger *slog.Logger
}

func configDefaults() Config {
	return Config{
		BorrowFraction: DefaultBorrowFraction,
		Out:            os.Stdout,
		Logger:         slog.Default(),
	}
}

// Service talks to one Aave market.
type Service struct {
	config      Config
	caller      ethereum.ContractCaller
	transactor  outbound.Transactor
	multicaller outbound.Multicaller
	resolver    *blockchain.AaveResolver
	tokens      *shared.TokenLookup

	poolABI   *blockchain.Contract
	erc20ABI  *blockchain.Contract
	oracleABI *blockchain.Contract
	mc3       *blockchain.Contract

	mu     sync.Mutex
	pool   *blockchain.Contract
	oracle *blockchain.Contract

	logger *slog.Logger
}

// NewService creates a new lending service.
func NewService(
	config Config,
	caller ethereum.ContractCaller,
	transactor outbound.Transactor,
	multicaller outbound.Multicaller,
	resolver *blockchain.AaveResolver,
	tokens *shared.TokenLookup,
) (*Service, error) {
	if caller == nil {
		return nil, fmt.Errorf("caller cannot be nil")
	}
	if transactor == nil {
		return nil, fmt.Errorf("transactor cannot be nil")
	}
	if multicaller == nil {
		return nil, fmt.Errorf("multicaller cannot be nil")
	}
	if resolver == nil {
		return nil, fmt.Errorf("resolver cannot be nil")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token lookup cannot be nil")
	}

	defaults := configDefaults()
	if config.BorrowFraction == 0 {
		config.BorrowFraction = defaults.BorrowFraction
	}
	if config.BorrowFraction < 0 || config.BorrowFraction > 1 {
		return nil, fmt.Errorf("borrow fraction must be in (0, 1], got %v", config.BorrowFraction)
	}
	if config.Out == nil {
		config.Out = defaults.Out
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	poolABI, err := abis.GetPoolABI()
	if err != nil {
		return nil, fmt.Errorf("loading Pool ABI: %w", err)
	}
	erc20ABI, err := abis.GetERC20ABI()
	if err != nil {
		return nil, fmt.Errorf("loading ERC20 ABI: %w", err)
	}
	oracleABI, err := abis.GetAaveOracleABI()
	if err != nil {
		return nil, fmt.Errorf("loading AaveOracle ABI: %w", err)
	}
	mc3ABI, err := abis.GetMulticall3ABI()
	if err != nil {
		return nil, fmt.Errorf("loading Multicall3 ABI: %w", err)
	}

	return &Service{
		config:      config,
		caller:      caller,
		transactor:  transactor,
		multicaller: multicaller,
		resolver:    resolver,
		tokens:      tokens,
		poolABI:     blockchain.NewContract(common.Address{}, poolABI),
		erc20ABI:    blockchain.NewContract(common.Address{}, erc20ABI),
		oracleABI:   blockchain.NewContract(common.Address{}, oracleABI),
		mc3:         blockchain.NewContract(multicaller.Address(), mc3ABI),
		logger:      config.Logger.With("component", "lending"),
	}, nil
}

// Pool returns the resolved Pool contract, resolving it on first use.
func (s *Service) Pool(ctx context.Context) (*blockchain.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		return s.pool, nil
	}
	addr, err := s.resolver.ResolvePool(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("pool resolved", "address", addr.Hex())
	s.pool = blockchain.NewContract(addr, s.poolABI.ABI)
	return s.pool, nil
}

func (s *Service) priceOracle(ctx context.Context) (*blockchain.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.oracle != nil {
		return s.oracle, nil
	}
	addr, err := s.resolver.ResolveOracle(ctx)
	if err != nil {
		return nil, err
	}
	s.oracle = blockchain.NewContract(addr, s.oracleABI.ABI)
	return s.oracle, nil
}

func (s *Service) token(addr common.Address) *blockchain.Contract {
	return blockchain.NewContract(addr, s.erc20ABI.ABI)
}

func (s *Service) printf(format string, args ...any) {
	fmt.Fprintf(s.config.Out, format, args...)
}

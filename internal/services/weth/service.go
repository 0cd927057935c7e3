// Package weth wraps and unwraps native currency through the WETH contract.
package weth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/archon-research/lendpool/internal/domain/entity"
	"github.com/archon-research/lendpool/internal/pkg/blockchain"
	"github.com/archon-research/lendpool/internal/pkg/blockchain/abis"
	"github.com/archon-research/lendpool/internal/ports/outbound"
	"github.com/archon-research/lendpool/internal/services/shared"
)

// Decimals of WETH and of the native currency it wraps.
const Decimals = 18

// Config holds configuration for the WETH service.
type Config struct {
	// Out receives the human-readable results.
	Out    io.Writer
	Logger *slog.Logger
}

func configDefaults() Config {
	return Config{
		Out:    os.Stdout,
		Logger: slog.Default(),
	}
}

// Service wraps native currency.
type Service struct {
	config     Config
	caller     ethereum.ContractCaller
	transactor outbound.Transactor
	weth       *blockchain.Contract
	logger     *slog.Logger
}

// NewService creates a WETH service for the token at address.
func NewService(config Config, caller ethereum.ContractCaller, transactor outbound.Transactor, address common.Address) (*Service, error) {
	if caller == nil {
		return nil, fmt.Errorf("caller cannot be nil")
	}
	if transactor == nil {
		return nil, fmt.Errorf("transactor cannot be nil")
	}
	if !entity.IsSet(address) {
		return nil, fmt.Errorf("weth address is not configured")
	}

	defaults := configDefaults()
	if config.Out == nil {
		config.Out = defaults.Out
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}

	wethABI, err := abis.GetWETHABI()
	if err != nil {
		return nil, fmt.Errorf("loading WETH ABI: %w", err)
	}

	return &Service{
		config:     config,
		caller:     caller,
		transactor: transactor,
		weth:       blockchain.NewContract(address, wethABI),
		logger:     config.Logger.With("component", "weth"),
	}, nil
}

// Address returns the WETH contract address.
func (s *Service) Address() common.Address {
	return s.weth.Address
}

// Balance returns the WETH balance of owner.
func (s *Service) Balance(ctx context.Context, owner common.Address) (*big.Int, error) {
	bal, err := blockchain.CallOne[*big.Int](ctx, s.caller, s.weth, "balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("reading WETH balance: %w", err)
	}
	return bal, nil
}

// Wrap deposits amount of native currency and waits for confirmation.
func (s *Service) Wrap(ctx context.Context, from outbound.Account, amount *big.Int) (*types.Receipt, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("wrap amount must be positive")
	}
	data, err := s.weth.Pack("deposit")
	if err != nil {
		return nil, err
	}

	s.logger.Info("Wrapping ETH...", "amount", blockchain.FormatUnits(amount, Decimals), "from", from.Address().Hex())
	receipt, err := shared.SendAndWait(ctx, s.transactor, outbound.TxRequest{
		Action: "weth_deposit",
		From:   from,
		To:     &s.weth.Address,
		Data:   data,
		Value:  amount,
	})
	if err != nil {
		return receipt, err
	}

	fmt.Fprintf(s.config.Out, "Received %s WETH\n", blockchain.FormatUnits(amount, Decimals))
	return receipt, nil
}

// TopUp wraps only the shortfall between the account's WETH balance and
// target. It returns the amount wrapped, zero when nothing was sent.
func (s *Service) TopUp(ctx context.Context, from outbound.Account, target *big.Int) (*big.Int, error) {
	if target == nil || target.Sign() < 0 {
		return nil, fmt.Errorf("top-up target must not be negative")
	}
	bal, err := s.Balance(ctx, from.Address())
	if err != nil {
		return nil, err
	}
	if bal.Cmp(target) >= 0 {
		s.logger.Info("WETH balance already sufficient",
			"balance", blockchain.FormatUnits(bal, Decimals),
			"target", blockchain.FormatUnits(target, Decimals))
		fmt.Fprintf(s.config.Out, "WETH balance %s already covers %s\n",
			blockchain.FormatUnits(bal, Decimals), blockchain.FormatUnits(target, Decimals))
		return new(big.Int), nil
	}

	shortfall := new(big.Int).Sub(target, bal)
	if _, err := s.Wrap(ctx, from, shortfall); err != nil {
		return nil, err
	}
	return shortfall, nil
}

// Unwrap withdraws amount of WETH back to native currency.
func (s *Service) Unwrap(ctx context.Context, from outbound.Account, amount *big.Int) (*types.Receipt, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("unwrap amount must be positive")
	}
	data, err := s.weth.Pack("withdraw", amount)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Unwrapping WETH...", "amount", blockchain.FormatUnits(amount, Decimals))
	receipt, err := shared.SendAndWait(ctx, s.transactor, outbound.TxRequest{
		Action: "weth_withdraw",
		From:   from,
		To:     &s.weth.Address,
		Data:   data,
	})
	if err != nil {
		return receipt, err
	}

	fmt.Fprintf(s.config.Out, "Received %s ETH\n", blockchain.FormatUnits(amount, Decimals))
	return receipt, nil
}

package blockchain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

const (
	Multicall3Address = "0xcA11bde05977b3631167028862bE2a173976CA11"

	// DefaultGasLimit is the fixed gas limit used for state-changing calls.
	DefaultGasLimit uint64 = 2074040

	// ReferralCode is passed to Pool.supply and Pool.borrow.
	ReferralCode uint16 = 0
)

var (
	Multicall3 = common.HexToAddress(Multicall3Address)

	// MaxUint256 means "entire balance" for Pool.withdraw and Pool.repay.
	MaxUint256 = new(big.Int).Set(math.MaxBig256)
)

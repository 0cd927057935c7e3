package entity

import (
	"fmt"
	"math/big"
	"strings"
)

// InterestRateMode selects the Aave debt type.
type InterestRateMode int64

const (
	InterestRateModeStable   InterestRateMode = 1
	InterestRateModeVariable InterestRateMode = 2
)

// ParseInterestRateMode accepts "variable", "stable", "1" or "2".
func ParseInterestRateMode(s string) (InterestRateMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "variable", "2":
		return InterestRateModeVariable, nil
	case "stable", "1":
		return InterestRateModeStable, nil
	default:
		return 0, fmt.Errorf("unknown interest rate mode %q", s)
	}
}

func (m InterestRateMode) BigInt() *big.Int {
	return big.NewInt(int64(m))
}

func (m InterestRateMode) String() string {
	switch m {
	case InterestRateModeStable:
		return "stable"
	case InterestRateModeVariable:
		return "variable"
	default:
		return fmt.Sprintf("mode(%d)", int64(m))
	}
}

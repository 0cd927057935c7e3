package entity

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// healthFactorScale is the fixed-point scale of Aave health factors (1e18).
var healthFactorScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// UserAccountData mirrors Pool.getUserAccountData. Base amounts are in the
// oracle's base currency; threshold and LTV are in basis points.
type UserAccountData struct {
	User                        common.Address
	TotalCollateralBase         *big.Int
	TotalDebtBase               *big.Int
	AvailableBorrowsBase        *big.Int
	CurrentLiquidationThreshold *big.Int
	LTV                         *big.Int
	HealthFactor                *big.Int
}

// NewUserAccountDataFromOutputs builds UserAccountData from the unpacked
// getUserAccountData outputs, in declaration order.
func NewUserAccountDataFromOutputs(user common.Address, outputs []any) (*UserAccountData, error) {
	if len(outputs) != 6 {
		return nil, fmt.Errorf("expected 6 outputs, got %d", len(outputs))
	}
	vals := make([]*big.Int, 6)
	for i, o := range outputs {
		v, ok := o.(*big.Int)
		if !ok {
			return nil, fmt.Errorf("output %d: expected *big.Int, got %T", i, o)
		}
		vals[i] = v
	}
	return &UserAccountData{
		User:                        user,
		TotalCollateralBase:         vals[0],
		TotalDebtBase:               vals[1],
		AvailableBorrowsBase:        vals[2],
		CurrentLiquidationThreshold: vals[3],
		LTV:                         vals[4],
		HealthFactor:                vals[5],
	}, nil
}

// HasDebt reports whether the account has any outstanding debt. Without debt
// Aave reports the health factor as max uint256.
func (u *UserAccountData) HasDebt() bool {
	return u.TotalDebtBase != nil && u.TotalDebtBase.Sign() > 0
}

// HealthFactorString renders the health factor with 4 decimals, or "∞" when
// there is no debt.
func (u *UserAccountData) HealthFactorString() string {
	if !u.HasDebt() || u.HealthFactor == nil {
		return "∞"
	}
	hf := new(big.Float).Quo(new(big.Float).SetInt(u.HealthFactor), new(big.Float).SetInt(healthFactorScale))
	return hf.Text('f', 4)
}

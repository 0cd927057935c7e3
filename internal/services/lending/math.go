package lending

import (
	"fmt"
	"math"
	"math/big"
)

// borrowAmount converts fraction of availableBase (oracle base currency
// units) into base units of a token with the given decimals priced at price
// (base currency units per whole token). The result rounds down.
func borrowAmount(availableBase, price *big.Int, decimals uint8, fraction float64) (*big.Int, error) {
	if availableBase == nil || availableBase.Sign() < 0 {
		return nil, fmt.Errorf("invalid available borrows: %v", availableBase)
	}
	if price == nil || price.Sign() <= 0 {
		return nil, fmt.Errorf("asset has no oracle price")
	}
	if fraction <= 0 || fraction > 1 {
		return nil, fmt.Errorf("borrow fraction must be in (0, 1], got %v", fraction)
	}

	f := new(big.Rat).SetFloat64(fraction)
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)

	num := new(big.Int).Mul(availableBase, f.Num())
	num.Mul(num, scale)
	den := new(big.Int).Mul(price, f.Denom())
	return num.Quo(num, den), nil
}

// Bit layout of Aave V3 ReserveConfigurationMap.
const (
	ltvBits                 = 16
	liquidationThresholdBit = 16
	activeBit               = 56
	frozenBit               = 57
	borrowingEnabledBit     = 58
)

// ReserveData is a fully static tuple, so fields sit at fixed 32-byte words.
const (
	reserveDataConfigurationWord = 0
	reserveDataIDWord            = 7
)

// decodeReserveData reads the configuration bitmap and reserve id out of raw
// getReserveData return data.
func decodeReserveData(data []byte) (*big.Int, uint16, error) {
	if len(data) < (reserveDataIDWord+1)*32 {
		return nil, 0, fmt.Errorf("reserve data too short: %d bytes", len(data))
	}
	word := func(i int) *big.Int { return new(big.Int).SetBytes(data[i*32 : (i+1)*32]) }
	id := word(reserveDataIDWord)
	if !id.IsUint64() || id.Uint64() > math.MaxUint16 {
		return nil, 0, fmt.Errorf("reserve id %s out of range", id)
	}
	return word(reserveDataConfigurationWord), uint16(id.Uint64()), nil
}

func decodeReserveConfig(bitmap *big.Int) ReserveConfig {
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), ltvBits), big.NewInt(1))
	ltv := new(big.Int).And(bitmap, mask)
	lt := new(big.Int).And(new(big.Int).Rsh(bitmap, liquidationThresholdBit), mask)
	return ReserveConfig{
		LTV:                  ltv.Uint64(),
		LiquidationThreshold: lt.Uint64(),
		Active:               bitmap.Bit(activeBit) == 1,
		Frozen:               bitmap.Bit(frozenBit) == 1,
		BorrowingEnabled:     bitmap.Bit(borrowingEnabledBit) == 1,
	}
}

package entity

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// TokenMetadata is the display information of an ERC-20 token.
type TokenMetadata struct {
	ChainID  int64
	Address  common.Address
	Symbol   string
	Decimals uint8
}

// NewTokenMetadata creates a new TokenMetadata with validation.
func NewTokenMetadata(chainID int64, address common.Address, symbol string, decimals uint8) (*TokenMetadata, error) {
	t := &TokenMetadata{
		ChainID:  chainID,
		Address:  address,
		Symbol:   symbol,
		Decimals: decimals,
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *TokenMetadata) validate() error {
	if t.ChainID <= 0 {
		return fmt.Errorf("chainID must be positive, got %d", t.ChainID)
	}
	if !IsSet(t.Address) {
		return fmt.Errorf("address must not be zero")
	}
	if t.Symbol == "" {
		return fmt.Errorf("symbol must not be empty")
	}
	if t.Decimals > 77 {
		return fmt.Errorf("decimals out of range: %d", t.Decimals)
	}
	return nil
}
